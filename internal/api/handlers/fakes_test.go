package handlers

import (
	"context"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/api/middleware"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func nullLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// withEmployer stands in for EmployerAuth in handler tests.
func withEmployer(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" {
			c.Set(middleware.ContextEmployerToken, token)
		}
		c.Next()
	}
}

type fakeInterviews struct {
	mu   sync.Mutex
	reqs []services.TurnRequest
	res  *services.TurnResult
	err  error
}

func (f *fakeInterviews) HandleTurn(_ context.Context, req services.TurnRequest) (*services.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		cp := *f.res
		return &cp, nil
	}
	return &services.TurnResult{Message: "echo: " + req.Message}, nil
}

func (f *fakeInterviews) last() services.TurnRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func (f *fakeInterviews) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeLinks struct {
	verified []string
	verify   error
	link     *services.Link
	created  services.LinkRequest
	token    string
}

func (f *fakeLinks) Create(_ context.Context, employerToken string, req services.LinkRequest) (*services.Link, error) {
	f.token = employerToken
	f.created = req
	return f.link, nil
}

func (f *fakeLinks) Verify(accessToken, sessionID string) error {
	f.verified = append(f.verified, accessToken+"@"+sessionID)
	return f.verify
}

type fakeAdmin struct {
	interviews []models.Interview
	messages   []models.InterviewMessage
	deleted    string
	err        error
}

func (f *fakeAdmin) ListInterviews(context.Context, string) ([]models.Interview, error) {
	return f.interviews, f.err
}

func (f *fakeAdmin) ListMessages(_ context.Context, _, interviewID string) ([]models.InterviewMessage, error) {
	return f.messages, f.err
}

func (f *fakeAdmin) DeleteMessages(_ context.Context, _, interviewID string) error {
	f.deleted = interviewID
	return f.err
}

func (f *fakeAdmin) AuthorizeSession(context.Context, string, string) (*models.Interview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Interview{ID: "i-1"}, nil
}

type fakeRoles struct {
	description string
	created     services.CreateRoleRequest
}

func (f *fakeRoles) List(context.Context, string) ([]models.Role, error) {
	return []models.Role{{ID: "r-1", Name: "Backend Engineer"}}, nil
}

func (f *fakeRoles) Create(_ context.Context, _ string, req services.CreateRoleRequest) (*models.Role, error) {
	f.created = req
	return &models.Role{ID: "r-2", Name: req.Name}, nil
}

func (f *fakeRoles) Delete(context.Context, string, string) error { return nil }

func (f *fakeRoles) Describe(context.Context, string, string) (string, error) {
	return f.description, nil
}

type fakeSpeech struct {
	text     string
	language string
	audio    []byte
}

func (f *fakeSpeech) Transcribe(_ context.Context, audio []byte, language string) (string, float64, error) {
	f.audio = audio
	f.language = language
	return f.text, 0.9, nil
}

func (f *fakeSpeech) Close() error { return nil }

type fakeUploader struct {
	name string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	f.name = objectName
	_, _ = io.Copy(io.Discard, r)
	if f.err != nil {
		return "", f.err
	}
	return "gs://audio/" + objectName, nil
}
