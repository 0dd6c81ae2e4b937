package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/prompts"
	"github.com/yoockh/interviewer/internal/providers/llm"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/utils"
)

type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

type RoleService interface {
	List(ctx context.Context, employerToken string) ([]models.Role, error)
	Create(ctx context.Context, employerToken string, req CreateRoleRequest) (*models.Role, error)
	Delete(ctx context.Context, employerToken, roleID string) error
	// Describe drafts a role description. It returns "" when the completion
	// service cannot produce one.
	Describe(ctx context.Context, roleName, employer string) (string, error)
}

type roleService struct {
	employers pgrepo.EmployerRepository
	roles     pgrepo.RoleRepository
	llm       llm.Provider
	log       *logrus.Logger
}

func NewRoleService(employers pgrepo.EmployerRepository, roles pgrepo.RoleRepository, provider llm.Provider, log *logrus.Logger) RoleService {
	return &roleService{employers: employers, roles: roles, llm: provider, log: log}
}

func (s *roleService) employer(ctx context.Context, op, token string) (*models.Employer, error) {
	if token == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "employer token is required", nil)
	}
	e, err := s.employers.GetOrCreate(ctx, token, token)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve employer", err)
	}
	return e, nil
}

func (s *roleService) List(ctx context.Context, employerToken string) ([]models.Role, error) {
	const op = "RoleService.List"

	e, err := s.employer(ctx, op, employerToken)
	if err != nil {
		return nil, err
	}
	out, err := s.roles.ListByEmployer(ctx, e.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list roles", err)
	}
	return out, nil
}

func (s *roleService) Create(ctx context.Context, employerToken string, req CreateRoleRequest) (*models.Role, error) {
	const op = "RoleService.Create"

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name is required", nil)
	}
	e, err := s.employer(ctx, op, employerToken)
	if err != nil {
		return nil, err
	}

	skills := make([]string, 0, len(req.Skills))
	for _, sk := range req.Skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			skills = append(skills, sk)
		}
	}

	now := time.Now().UTC()
	role := &models.Role{
		ID:          uuid.NewString(),
		EmployerID:  e.ID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Skills:      skills,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.roles.Insert(ctx, role); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create role", err)
	}
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, employerToken, roleID string) error {
	const op = "RoleService.Delete"

	if roleID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "role id is required", nil)
	}
	e, err := s.employer(ctx, op, employerToken)
	if err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, e.ID, roleID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "role not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete role", err)
	}
	return nil
}

func (s *roleService) Describe(ctx context.Context, roleName, employer string) (string, error) {
	const op = "RoleService.Describe"

	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "role name is required", nil)
	}

	raw, err := s.llm.Complete(ctx, prompts.RoleDescriptionSystem, []llm.Message{
		{Role: llm.RoleUser, Content: prompts.RoleDescriptionRequest(roleName, strings.TrimSpace(employer))},
	})
	if err != nil {
		s.log.WithError(err).WithField("role", roleName).Warn("role description completion failed")
		return "", nil
	}
	desc, err := ParseRoleDescription(raw)
	if err != nil {
		s.log.WithError(err).WithField("role", roleName).Warn("role description unparsable")
		return "", nil
	}
	return desc, nil
}
