package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SessionCollection = "interview_sessions"

// SessionStateRepository keeps interview session state documents keyed by
// session_id.
type SessionStateRepository interface {
	Get(ctx context.Context, sessionID string) (*models.SessionState, error)
	Upsert(ctx context.Context, s *models.SessionState) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionStateRepository {
	return &sessionRepo{col: db.Collection(SessionCollection)}
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	var s models.SessionState
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Upsert(ctx context.Context, s *models.SessionState) error {
	s.UpdatedAt = time.Now().UTC()
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"session_id": s.SessionID},
		s,
		options.Replace().SetUpsert(true),
	)
	return err
}
