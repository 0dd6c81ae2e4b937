package postgres

import (
	"github.com/yoockh/interviewer/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the transcript store tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Employer{},
		&models.Role{},
		&models.Interview{},
		&models.InterviewMessage{},
	)
}
