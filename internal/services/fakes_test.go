package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/providers/llm"
	"github.com/yoockh/interviewer/internal/utils"
)

func nullLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// store is an in-memory transcript store that counts calls.
type store struct {
	mu         sync.Mutex
	calls      int
	employers  map[string]*models.Employer // by token
	interviews map[string]*models.Interview
	messages   []models.InterviewMessage
	roles      map[string]*models.Role
	failSave   error
}

func newStore() *store {
	return &store{
		employers:  map[string]*models.Employer{},
		interviews: map[string]*models.Interview{},
		roles:      map[string]*models.Role{},
	}
}

func (s *store) hit() {
	s.calls++
}

func (s *store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// employer repository

type employerRepo struct{ *store }

func (r employerRepo) GetOrCreate(_ context.Context, token, name string) (*models.Employer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if e, ok := r.employers[token]; ok {
		cp := *e
		return &cp, nil
	}
	e := &models.Employer{ID: "emp-" + token, Token: token, Name: name}
	r.employers[token] = e
	cp := *e
	return &cp, nil
}

func (r employerRepo) GetByToken(_ context.Context, token string) (*models.Employer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if e, ok := r.employers[token]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (r employerRepo) GetByID(_ context.Context, id string) (*models.Employer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	for _, e := range r.employers {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

// interview repository

type interviewRepo struct{ *store }

func (r interviewRepo) Create(_ context.Context, in *models.Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	for _, x := range r.interviews {
		if x.SessionID == in.SessionID {
			return errors.New("duplicate session_id")
		}
	}
	cp := *in
	r.interviews[in.ID] = &cp
	return nil
}

func (r interviewRepo) GetByID(_ context.Context, id string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if x, ok := r.interviews[id]; ok {
		cp := *x
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (r interviewRepo) bySession(sessionID string) *models.Interview {
	for _, x := range r.interviews {
		if x.SessionID == sessionID {
			return x
		}
	}
	return nil
}

func (r interviewRepo) GetBySession(_ context.Context, sessionID string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if x := r.bySession(sessionID); x != nil {
		cp := *x
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (r interviewRepo) GetBySessionAndAccessToken(_ context.Context, sessionID, token string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if x := r.bySession(sessionID); x != nil && token != "" && x.AccessToken == token {
		cp := *x
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (r interviewRepo) ListByEmployer(_ context.Context, employerID string) ([]models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	var out []models.Interview
	for _, x := range r.interviews {
		if x.EmployerID == employerID {
			out = append(out, *x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r interviewRepo) with(id string, fn func(x *models.Interview)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	x, ok := r.interviews[id]
	if !ok {
		return utils.ErrNotFound
	}
	fn(x)
	return nil
}

func (r interviewRepo) UpdateRole(_ context.Context, id, roleID, label string) error {
	return r.with(id, func(x *models.Interview) {
		if roleID != "" {
			x.RoleID = roleID
		}
		if label != "" {
			x.RoleLabel = label
		}
	})
}

func (r interviewRepo) UpdateStatus(_ context.Context, id string, status models.InterviewStatus) error {
	return r.with(id, func(x *models.Interview) {
		x.Status = status
		if status == models.InterviewCompleted {
			now := time.Now()
			x.EndedAt = &now
		}
	})
}

func (r interviewRepo) UpdateRating(_ context.Context, id string, rating *models.Rating, comment, raw string) error {
	return r.with(id, func(x *models.Interview) {
		x.RatingComment = comment
		if rating != nil {
			v := rating.Rating
			x.Rating = &v
			x.RatingComment = rating.Comment
			x.LanguageRating = rating.LanguageRating
			x.LanguageComment = rating.LanguageComment
		}
		if raw != "" {
			x.RatingRaw = []byte(raw)
		}
	})
}

func (r interviewRepo) UpdateCandidateName(_ context.Context, id, name string) error {
	return r.with(id, func(x *models.Interview) { x.CandidateName = name })
}

func (r interviewRepo) UpdateCandidateEmail(_ context.Context, id, email string) error {
	return r.with(id, func(x *models.Interview) { x.CandidateEmail = email })
}

func (r interviewRepo) MarkStarted(_ context.Context, id string, at time.Time) error {
	return r.with(id, func(x *models.Interview) {
		if x.StartedAt == nil {
			x.StartedAt = &at
		}
	})
}

// message repository

type messageRepo struct{ *store }

func (r messageRepo) Save(_ context.Context, m *models.InterviewMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if r.failSave != nil {
		return r.failSave
	}
	r.messages = append(r.messages, *m)
	return nil
}

func (r messageRepo) SaveBatch(_ context.Context, msgs []models.InterviewMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if r.failSave != nil {
		return r.failSave
	}
	r.messages = append(r.messages, msgs...)
	return nil
}

func (r messageRepo) ListByInterview(_ context.Context, interviewID string) ([]models.InterviewMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	var out []models.InterviewMessage
	for _, m := range r.messages {
		if m.InterviewID == interviewID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r messageRepo) DeleteByInterview(_ context.Context, interviewID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.InterviewID != interviewID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

// role repository

type roleRepo struct{ *store }

func (r roleRepo) Insert(_ context.Context, role *models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r roleRepo) GetByID(_ context.Context, id string) (*models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	if x, ok := r.roles[id]; ok {
		cp := *x
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (r roleRepo) ListByEmployer(_ context.Context, employerID string) ([]models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	var out []models.Role
	for _, x := range r.roles {
		if x.EmployerID == employerID {
			out = append(out, *x)
		}
	}
	return out, nil
}

func (r roleRepo) Delete(_ context.Context, employerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hit()
	x, ok := r.roles[id]
	if !ok || x.EmployerID != employerID {
		return utils.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

// scriptedLLM returns queued replies in order; when the queue is empty it
// returns fallback.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []scripted
	fallback string
	calls    int
	systems  []string
	lastMsgs []llm.Message
}

type scripted struct {
	text string
	err  error
}

func (l *scriptedLLM) push(text string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replies = append(l.replies, scripted{text: text, err: err})
}

func (l *scriptedLLM) Complete(_ context.Context, system string, msgs []llm.Message) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.systems = append(l.systems, system)
	l.lastMsgs = msgs
	if len(l.replies) == 0 {
		return l.fallback, nil
	}
	r := l.replies[0]
	l.replies = l.replies[1:]
	return r.text, r.err
}

func (l *scriptedLLM) Close() error { return nil }

func (l *scriptedLLM) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []models.RatingJob
}

func (d *recordingDispatcher) Enqueue(_ context.Context, job models.RatingJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) Jobs() []models.RatingJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.RatingJob(nil), d.jobs...)
}

// stuckDispatcher behaves like a saturated queue that only gives up when the
// caller's context does.
type stuckDispatcher struct {
	mu   sync.Mutex
	errs []error
}

func (d *stuckDispatcher) Enqueue(ctx context.Context, _ models.RatingJob) error {
	<-ctx.Done()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, ctx.Err())
	return ctx.Err()
}

func (d *stuckDispatcher) Errs() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]error(nil), d.errs...)
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
