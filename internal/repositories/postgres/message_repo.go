package postgres

import (
	"context"

	"github.com/yoockh/interviewer/internal/models"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Save(ctx context.Context, msg *models.InterviewMessage) error
	SaveBatch(ctx context.Context, msgs []models.InterviewMessage) error
	ListByInterview(ctx context.Context, interviewID string) ([]models.InterviewMessage, error)
	DeleteByInterview(ctx context.Context, interviewID string) error
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Save(ctx context.Context, msg *models.InterviewMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// SaveBatch writes all rows in a single INSERT, so either every row lands or
// none do.
func (r *messageRepo) SaveBatch(ctx context.Context, msgs []models.InterviewMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&msgs).Error
}

// ListByInterview returns messages in conversation order.
func (r *messageRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.InterviewMessage, error) {
	var rows []models.InterviewMessage
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *messageRepo) DeleteByInterview(ctx context.Context, interviewID string) error {
	return r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Delete(&models.InterviewMessage{}).Error
}
