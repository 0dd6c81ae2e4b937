package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/utils"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Insert(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id string) (*models.Role, error)
	ListByEmployer(ctx context.Context, employerID string) ([]models.Role, error)
	Delete(ctx context.Context, employerID, id string) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Insert(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	var row models.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *roleRepo) ListByEmployer(ctx context.Context, employerID string) ([]models.Role, error) {
	var rows []models.Role
	err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Delete removes the role only when it belongs to employerID.
func (r *roleRepo) Delete(ctx context.Context, employerID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND employer_id = ?", id, employerID).
		Delete(&models.Role{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
