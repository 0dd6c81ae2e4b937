package services

import (
	"context"
	"errors"

	"github.com/yoockh/interviewer/internal/models"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/utils"
)

// AdminService backs the employer dashboard.
type AdminService interface {
	ListInterviews(ctx context.Context, employerToken string) ([]models.Interview, error)
	ListMessages(ctx context.Context, employerToken, interviewID string) ([]models.InterviewMessage, error)
	DeleteMessages(ctx context.Context, employerToken, interviewID string) error
	// AuthorizeSession checks that the session's interview belongs to the
	// employer.
	AuthorizeSession(ctx context.Context, employerToken, sessionID string) (*models.Interview, error)
}

type adminService struct {
	employers  pgrepo.EmployerRepository
	interviews pgrepo.InterviewRepository
	messages   pgrepo.MessageRepository
}

func NewAdminService(employers pgrepo.EmployerRepository, interviews pgrepo.InterviewRepository, messages pgrepo.MessageRepository) AdminService {
	return &adminService{employers: employers, interviews: interviews, messages: messages}
}

func (s *adminService) employer(ctx context.Context, op, token string) (*models.Employer, error) {
	if token == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "employer token is required", nil)
	}
	e, err := s.employers.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "unknown employer token", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve employer", err)
	}
	return e, nil
}

func (s *adminService) ListInterviews(ctx context.Context, employerToken string) ([]models.Interview, error) {
	const op = "AdminService.ListInterviews"

	e, err := s.employer(ctx, op, employerToken)
	if err != nil {
		return nil, err
	}
	out, err := s.interviews.ListByEmployer(ctx, e.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *adminService) owned(ctx context.Context, op, employerToken, interviewID string) (*models.Interview, error) {
	e, err := s.employer(ctx, op, employerToken)
	if err != nil {
		return nil, err
	}
	rec, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if rec.EmployerID != e.ID {
		return nil, utils.E(utils.CodeForbidden, op, "interview belongs to another employer", utils.ErrOwnershipMismatch)
	}
	return rec, nil
}

func (s *adminService) ListMessages(ctx context.Context, employerToken, interviewID string) ([]models.InterviewMessage, error) {
	const op = "AdminService.ListMessages"

	if _, err := s.owned(ctx, op, employerToken, interviewID); err != nil {
		return nil, err
	}
	out, err := s.messages.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return out, nil
}

func (s *adminService) DeleteMessages(ctx context.Context, employerToken, interviewID string) error {
	const op = "AdminService.DeleteMessages"

	if _, err := s.owned(ctx, op, employerToken, interviewID); err != nil {
		return err
	}
	if err := s.messages.DeleteByInterview(ctx, interviewID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete messages", err)
	}
	return nil
}

func (s *adminService) AuthorizeSession(ctx context.Context, employerToken, sessionID string) (*models.Interview, error) {
	const op = "AdminService.AuthorizeSession"

	e, err := s.employer(ctx, op, employerToken)
	if err != nil {
		return nil, err
	}
	rec, err := s.interviews.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if rec.EmployerID != e.ID {
		return nil, utils.E(utils.CodeForbidden, op, "interview belongs to another employer", utils.ErrOwnershipMismatch)
	}
	return rec, nil
}
