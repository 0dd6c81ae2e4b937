package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/prompts"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/utils"
)

// SessionHints are optional facts supplied with a turn. Descriptive hints are
// assign-if-absent; tokens select the hydration path.
type SessionHints struct {
	Role           string `json:"role"`
	RoleID         string `json:"roleId"`
	EmployerToken  string `json:"employerToken"`
	CandidateEmail string `json:"candidateEmail"`
	AccessToken    string `json:"accessToken"`
	Language       string `json:"language"`
}

type SessionRegistry interface {
	// Resolve returns the state for sessionID, creating it on first reference
	// and hydrating it from the transcript store at most once.
	Resolve(ctx context.Context, sessionID string, hints SessionHints) (*models.SessionState, error)
	Save(ctx context.Context, st *models.SessionState) error
}

type sessionRegistry struct {
	store      SessionStore
	employers  pgrepo.EmployerRepository
	interviews pgrepo.InterviewRepository
	messages   pgrepo.MessageRepository
	roles      pgrepo.RoleRepository
	log        *logrus.Logger
}

func NewSessionRegistry(
	store SessionStore,
	employers pgrepo.EmployerRepository,
	interviews pgrepo.InterviewRepository,
	messages pgrepo.MessageRepository,
	roles pgrepo.RoleRepository,
	log *logrus.Logger,
) SessionRegistry {
	return &sessionRegistry{
		store:      store,
		employers:  employers,
		interviews: interviews,
		messages:   messages,
		roles:      roles,
		log:        log,
	}
}

func fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *sessionRegistry) Save(ctx context.Context, st *models.SessionState) error {
	return r.store.Save(ctx, st)
}

func (r *sessionRegistry) Resolve(ctx context.Context, sessionID string, hints SessionHints) (*models.SessionState, error) {
	const op = "SessionRegistry.Resolve"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}

	st, found, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if !found {
		st = models.NewSessionState(sessionID)
	}

	if st.Hydrated {
		if err := checkTenant(st, hints); err != nil {
			return nil, utils.E(utils.CodeOf(err), op, err.Error(), err)
		}
		if applyHints(st, hints) || !found {
			if err := r.store.Save(ctx, st); err != nil {
				return nil, utils.E(utils.CodeUnavailable, op, "failed to save session", err)
			}
		}
		return st, nil
	}

	if hints.EmployerToken == "" && hints.AccessToken == "" {
		if applyHints(st, hints) || !found {
			if err := r.store.Save(ctx, st); err != nil {
				return nil, utils.E(utils.CodeUnavailable, op, "failed to save session", err)
			}
		}
		return st, nil
	}

	next, err := r.hydrate(ctx, st, hints)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOwnershipMismatch), errors.Is(err, utils.ErrRoleMismatch):
			return nil, utils.E(utils.CodeOf(err), op, err.Error(), err)
		case errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		default:
			return nil, utils.E(utils.CodeUnavailable, op, "failed to hydrate session", err)
		}
	}
	if err := r.store.Save(ctx, next); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to save session", err)
	}
	return next, nil
}

// checkTenant validates credentials against the fingerprints captured at
// hydration. It never touches the transcript store. A session whose record
// carries an access token accepts only that token or the owning employer's.
func checkTenant(st *models.SessionState, hints SessionHints) error {
	if hints.EmployerToken != "" && fingerprint(hints.EmployerToken) != st.EmployerTokenHash {
		return utils.ErrOwnershipMismatch
	}
	if hints.AccessToken != "" && fingerprint(hints.AccessToken) != st.AccessTokenHash {
		return utils.ErrNotFound
	}
	if st.AccessTokenHash != "" && hints.AccessToken == "" && hints.EmployerToken == "" {
		return utils.ErrNotFound
	}
	if hints.RoleID != "" && st.RoleID != "" && hints.RoleID != st.RoleID {
		return utils.ErrRoleMismatch
	}
	return nil
}

// applyHints assigns descriptive hints that are still absent on st.
func applyHints(st *models.SessionState, hints SessionHints) bool {
	changed := models.AssignIfAbsent(&st.Role, hints.Role)
	changed = models.AssignIfAbsent(&st.RoleID, hints.RoleID) || changed
	changed = models.AssignIfAbsent(&st.CandidateEmail, hints.CandidateEmail) || changed
	if hints.Language != "" {
		changed = models.AssignIfAbsent(&st.Language, prompts.NormalizeLanguage(hints.Language)) || changed
	}
	return changed
}

// hydrate loads the interview record into a copy of st. Nothing is written to
// st itself, so a failed hydration leaves the session as it was.
func (r *sessionRegistry) hydrate(ctx context.Context, st *models.SessionState, hints SessionHints) (*models.SessionState, error) {
	var (
		employer *models.Employer
		record   *models.Interview
		err      error
	)

	if hints.EmployerToken != "" {
		employer, record, err = r.hydrateForEmployer(ctx, st.SessionID, hints)
	} else {
		employer, record, err = r.hydrateForCandidate(ctx, st.SessionID, hints.AccessToken)
	}
	if err != nil {
		return nil, err
	}

	next := st.Clone()

	// record fields take precedence over hints
	models.AssignIfAbsent(&next.Role, record.RoleLabel)
	models.AssignIfAbsent(&next.RoleID, record.RoleID)
	models.AssignIfAbsent(&next.CandidateName, record.CandidateName)
	models.AssignIfAbsent(&next.CandidateEmail, record.CandidateEmail)
	if record.Language != "" {
		models.AssignIfAbsent(&next.Language, prompts.NormalizeLanguage(record.Language))
	}
	if employer != nil {
		models.AssignIfAbsent(&next.EmployerName, employer.Name)
		next.EmployerTokenHash = fingerprint(employer.Token)
	}
	applyHints(next, hints)

	if next.RoleID != "" && next.RoleDescription == "" {
		role, err := r.roles.GetByID(ctx, next.RoleID)
		switch {
		case err == nil:
			models.AssignIfAbsent(&next.Role, role.Name)
			next.RoleDescription = role.Description
			next.RoleSkills = append([]string(nil), role.Skills...)
		case errors.Is(err, utils.ErrNotFound):
			r.log.WithFields(logrus.Fields{"session_id": st.SessionID, "role_id": next.RoleID}).Warn("role not found")
		default:
			return nil, err
		}
	}

	next.InterviewRecordID = record.ID
	next.EmployerID = record.EmployerID
	next.AccessTokenHash = fingerprint(record.AccessToken)
	if record.StartedAt != nil && next.StartedAt == nil {
		t := *record.StartedAt
		next.StartedAt = &t
	}
	if record.Status == models.InterviewCompleted {
		next.Ended = true
		next.Stage = models.StageEnded
	}
	if record.Rating != nil || record.RatingComment != "" {
		next.RatingRequested = true
	}

	if len(next.History) == 0 {
		msgs, err := r.messages.ListByInterview(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			next.Append(m.Speaker, m.Message)
		}
	}

	next.Hydrated = true
	return next, nil
}

// hydrateForEmployer finds or creates the record owned by the employer and
// backfills empty record fields from the hints.
func (r *sessionRegistry) hydrateForEmployer(ctx context.Context, sessionID string, hints SessionHints) (*models.Employer, *models.Interview, error) {
	employer, err := r.employers.GetOrCreate(ctx, hints.EmployerToken, hints.EmployerToken)
	if err != nil {
		return nil, nil, err
	}

	roleLabel := hints.Role
	if roleLabel == "" && hints.RoleID != "" {
		role, err := r.roles.GetByID(ctx, hints.RoleID)
		if err != nil && !errors.Is(err, utils.ErrNotFound) {
			return nil, nil, err
		}
		if role != nil && err == nil {
			roleLabel = role.Name
		}
	}

	record, err := r.interviews.GetBySession(ctx, sessionID)
	if errors.Is(err, utils.ErrNotFound) {
		now := time.Now().UTC()
		record = &models.Interview{
			ID:             uuid.NewString(),
			SessionID:      sessionID,
			EmployerID:     employer.ID,
			RoleID:         hints.RoleID,
			RoleLabel:      roleLabel,
			CandidateEmail: hints.CandidateEmail,
			Status:         models.InterviewInProgress,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if hints.Language != "" {
			record.Language = prompts.NormalizeLanguage(hints.Language)
		}
		if err := r.interviews.Create(ctx, record); err != nil {
			return nil, nil, err
		}
		return employer, record, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if record.EmployerID != employer.ID {
		return nil, nil, utils.ErrOwnershipMismatch
	}
	if record.RoleID != "" && hints.RoleID != "" && record.RoleID != hints.RoleID {
		return nil, nil, utils.ErrRoleMismatch
	}

	var setRoleID, setLabel string
	if record.RoleID == "" {
		setRoleID = hints.RoleID
	}
	if record.RoleLabel == "" {
		setLabel = roleLabel
	}
	if setRoleID != "" || setLabel != "" {
		if err := r.interviews.UpdateRole(ctx, record.ID, setRoleID, setLabel); err != nil {
			return nil, nil, err
		}
		models.AssignIfAbsent(&record.RoleID, setRoleID)
		models.AssignIfAbsent(&record.RoleLabel, setLabel)
	}
	if record.CandidateEmail == "" && hints.CandidateEmail != "" {
		if err := r.interviews.UpdateCandidateEmail(ctx, record.ID, hints.CandidateEmail); err != nil {
			return nil, nil, err
		}
		record.CandidateEmail = hints.CandidateEmail
	}
	return employer, record, nil
}

func (r *sessionRegistry) hydrateForCandidate(ctx context.Context, sessionID, accessToken string) (*models.Employer, *models.Interview, error) {
	record, err := r.interviews.GetBySessionAndAccessToken(ctx, sessionID, accessToken)
	if err != nil {
		return nil, nil, err
	}
	employer, err := r.employers.GetByID(ctx, record.EmployerID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, record, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return employer, record, nil
}
