package models

import "time"

// Employer owns roles and interviews. Token is a static bearer credential.
type Employer struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"column:token;type:text;uniqueIndex" json:"-"`
	Name      string    `gorm:"column:name;type:text" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Employer) TableName() string { return "employers" }
