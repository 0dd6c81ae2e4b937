package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/prompts"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/utils"
)

type LinkRequest struct {
	RoleID         string `json:"roleId"`
	CandidateEmail string `json:"candidateEmail"`
	Language       string `json:"language"`
}

type Link struct {
	SessionID   string    `json:"sessionId"`
	InterviewID string    `json:"interviewId"`
	AccessToken string    `json:"accessToken"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type LinkService interface {
	Create(ctx context.Context, employerToken string, req LinkRequest) (*Link, error)
	// Verify checks the signature and expiry of an access token issued for
	// sessionID. It does not consult the store.
	Verify(accessToken, sessionID string) error
}

type linkService struct {
	employers  pgrepo.EmployerRepository
	roles      pgrepo.RoleRepository
	interviews pgrepo.InterviewRepository
	secret     []byte
	ttl        time.Duration
	baseURL    string
	now        func() time.Time
}

func NewLinkService(employers pgrepo.EmployerRepository, roles pgrepo.RoleRepository, interviews pgrepo.InterviewRepository, secret string, ttl time.Duration, baseURL string) LinkService {
	return &linkService{
		employers:  employers,
		roles:      roles,
		interviews: interviews,
		secret:     []byte(secret),
		ttl:        ttl,
		baseURL:    baseURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *linkService) Create(ctx context.Context, employerToken string, req LinkRequest) (*Link, error) {
	const op = "LinkService.Create"

	if len(s.secret) == 0 {
		return nil, utils.E(utils.CodeUnavailable, op, "link signing is not configured", nil)
	}
	if employerToken == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "employer token is required", nil)
	}

	employer, err := s.employers.GetOrCreate(ctx, employerToken, employerToken)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve employer", err)
	}

	var roleLabel string
	if req.RoleID != "" {
		role, err := s.roles.GetByID(ctx, req.RoleID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, utils.E(utils.CodeNotFound, op, "role not found", err)
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to get role", err)
		}
		if role.EmployerID != employer.ID {
			return nil, utils.E(utils.CodeForbidden, op, "role belongs to another employer", nil)
		}
		roleLabel = role.Name
	}

	now := s.now()
	sessionID := uuid.NewString()
	expires := now.Add(s.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString(s.secret)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to sign access token", err)
	}

	record := &models.Interview{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		EmployerID:     employer.ID,
		RoleID:         req.RoleID,
		RoleLabel:      roleLabel,
		CandidateEmail: req.CandidateEmail,
		AccessToken:    token,
		Status:         models.InterviewInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Language != "" {
		record.Language = prompts.NormalizeLanguage(req.Language)
	}
	if err := s.interviews.Create(ctx, record); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}

	return &Link{
		SessionID:   sessionID,
		InterviewID: record.ID,
		AccessToken: token,
		URL:         fmt.Sprintf("%s/interview/%s?token=%s", s.baseURL, sessionID, url.QueryEscape(token)),
		ExpiresAt:   expires,
	}, nil
}

func (s *linkService) Verify(accessToken, sessionID string) error {
	const op = "LinkService.Verify"

	if len(s.secret) == 0 {
		return utils.E(utils.CodeUnavailable, op, "link signing is not configured", nil)
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || tok == nil || !tok.Valid {
		return utils.E(utils.CodeUnauthorized, op, "invalid access token", err)
	}
	if claims.Subject != sessionID {
		return utils.E(utils.CodeUnauthorized, op, "access token does not match session", nil)
	}
	return nil
}
