package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InterviewRepository interface {
	Create(ctx context.Context, in *models.Interview) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	GetBySession(ctx context.Context, sessionID string) (*models.Interview, error)
	GetBySessionAndAccessToken(ctx context.Context, sessionID, accessToken string) (*models.Interview, error)
	ListByEmployer(ctx context.Context, employerID string) ([]models.Interview, error)

	UpdateRole(ctx context.Context, id, roleID, roleLabel string) error
	UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) error
	UpdateRating(ctx context.Context, id string, rating *models.Rating, comment string, raw string) error
	UpdateCandidateName(ctx context.Context, id, name string) error
	UpdateCandidateEmail(ctx context.Context, id, email string) error
	MarkStarted(ctx context.Context, id string, at time.Time) error
}

type interviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) InterviewRepository {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) Create(ctx context.Context, in *models.Interview) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *interviewRepo) GetBySession(ctx context.Context, sessionID string) (*models.Interview, error) {
	return r.take(ctx, "session_id = ?", sessionID)
}

func (r *interviewRepo) GetBySessionAndAccessToken(ctx context.Context, sessionID, accessToken string) (*models.Interview, error) {
	if accessToken == "" {
		return nil, utils.ErrNotFound
	}
	return r.take(ctx, "session_id = ? AND access_token = ?", sessionID, accessToken)
}

func (r *interviewRepo) take(ctx context.Context, query string, args ...any) (*models.Interview, error) {
	var row models.Interview
	err := r.db.WithContext(ctx).Where(query, args...).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *interviewRepo) ListByEmployer(ctx context.Context, employerID string) ([]models.Interview, error) {
	var rows []models.Interview
	err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateRole writes only the non-empty arguments.
func (r *interviewRepo) UpdateRole(ctx context.Context, id, roleID, roleLabel string) error {
	updates := map[string]any{}
	if roleID != "" {
		updates["role_id"] = roleID
	}
	if roleLabel != "" {
		updates["role_label"] = roleLabel
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.update(ctx, id, updates)
}

func (r *interviewRepo) UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) error {
	now := time.Now().UTC()
	updates := map[string]any{"status": status, "updated_at": now}
	if status == models.InterviewCompleted {
		updates["ended_at"] = now
	} else {
		updates["ended_at"] = nil
	}
	return r.update(ctx, id, updates)
}

// UpdateRating stores a rating. A nil rating records only the comment, which
// is how the placeholder for failed generation is written.
func (r *interviewRepo) UpdateRating(ctx context.Context, id string, rating *models.Rating, comment string, raw string) error {
	updates := map[string]any{
		"rating_comment": comment,
		"updated_at":     time.Now().UTC(),
	}
	if rating != nil {
		updates["rating"] = rating.Rating
		updates["rating_comment"] = rating.Comment
		updates["language_rating"] = rating.LanguageRating
		updates["language_comment"] = rating.LanguageComment
	}
	if raw != "" && json.Valid([]byte(raw)) {
		updates["rating_raw"] = datatypes.JSON(raw)
	}
	return r.update(ctx, id, updates)
}

func (r *interviewRepo) UpdateCandidateName(ctx context.Context, id, name string) error {
	return r.update(ctx, id, map[string]any{"candidate_name": name, "updated_at": time.Now().UTC()})
}

func (r *interviewRepo) UpdateCandidateEmail(ctx context.Context, id, email string) error {
	return r.update(ctx, id, map[string]any{"candidate_email": email, "updated_at": time.Now().UTC()})
}

// MarkStarted sets started_at once; later calls leave the first timestamp.
func (r *interviewRepo) MarkStarted(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ? AND started_at IS NULL", id).
		Updates(map[string]any{"started_at": at.UTC(), "updated_at": time.Now().UTC()}).Error
}

func (r *interviewRepo) update(ctx context.Context, id string, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
