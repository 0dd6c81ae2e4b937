package models

import (
	"time"

	"github.com/lib/pq"
)

type Role struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EmployerID  string `gorm:"column:employer_id;type:uuid;index" json:"employer_id"`
	Name        string `gorm:"column:name;type:text" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`

	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Role) TableName() string { return "roles" }
