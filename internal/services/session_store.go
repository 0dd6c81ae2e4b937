package services

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/interviewer/internal/cache"
	"github.com/yoockh/interviewer/internal/models"
	mongorepo "github.com/yoockh/interviewer/internal/repositories/mongo"
	"github.com/yoockh/interviewer/internal/utils"
)

// SessionStore is the backend of the session registry. Load and Save work on
// copies: a state returned by Load is owned by the caller until it is saved.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (st *models.SessionState, found bool, err error)
	Save(ctx context.Context, st *models.SessionState) error
}

const sessionKeyPrefix = "session:"

// cacheSessionStore keeps states in a cache.Cache. With cache.MemoryCache it
// lives for the process; with cache.RedisCache entries expire after ttl of
// inactivity.
type cacheSessionStore struct {
	c   cache.Cache
	ttl time.Duration
}

func NewCacheSessionStore(c cache.Cache, ttl time.Duration) SessionStore {
	return &cacheSessionStore{c: c, ttl: ttl}
}

// NewMemorySessionStore is the default single-process backend.
func NewMemorySessionStore() SessionStore {
	return NewCacheSessionStore(cache.NewMemoryCache(), 0)
}

func (s *cacheSessionStore) Load(ctx context.Context, sessionID string) (*models.SessionState, bool, error) {
	var st models.SessionState
	hit, err := s.c.GetJSON(ctx, sessionKeyPrefix+sessionID, &st)
	if err != nil || !hit {
		return nil, false, err
	}
	if st.History == nil {
		st.History = []models.Turn{}
	}
	return &st, true, nil
}

func (s *cacheSessionStore) Save(ctx context.Context, st *models.SessionState) error {
	st.UpdatedAt = time.Now().UTC()
	return s.c.SetJSON(ctx, sessionKeyPrefix+st.SessionID, st, s.ttl)
}

type mongoSessionStore struct {
	repo mongorepo.SessionStateRepository
}

// NewMongoSessionStore keeps states durably in the interview_sessions collection.
func NewMongoSessionStore(repo mongorepo.SessionStateRepository) SessionStore {
	return &mongoSessionStore{repo: repo}
}

func (s *mongoSessionStore) Load(ctx context.Context, sessionID string) (*models.SessionState, bool, error) {
	st, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if st.History == nil {
		st.History = []models.Turn{}
	}
	return st, true, nil
}

func (s *mongoSessionStore) Save(ctx context.Context, st *models.SessionState) error {
	return s.repo.Upsert(ctx, st.Clone())
}
