package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmployerRepository interface {
	GetOrCreate(ctx context.Context, token, name string) (*models.Employer, error)
	GetByToken(ctx context.Context, token string) (*models.Employer, error)
	GetByID(ctx context.Context, id string) (*models.Employer, error)
}

type employerRepo struct {
	db *gorm.DB
}

func NewEmployerRepo(db *gorm.DB) EmployerRepository {
	return &employerRepo{db: db}
}

// GetOrCreate inserts the employer when the token is unseen. Concurrent
// callers with the same token converge on one row through the unique index.
func (r *employerRepo) GetOrCreate(ctx context.Context, token, name string) (*models.Employer, error) {
	now := time.Now().UTC()
	row := &models.Employer{
		ID:        uuid.NewString(),
		Token:     token,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByToken(ctx, token)
}

func (r *employerRepo) GetByToken(ctx context.Context, token string) (*models.Employer, error) {
	var e models.Employer
	err := r.db.WithContext(ctx).Where("token = ?", token).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}

func (r *employerRepo) GetByID(ctx context.Context, id string) (*models.Employer, error) {
	var e models.Employer
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}
