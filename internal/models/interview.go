package models

import (
	"time"

	"gorm.io/datatypes"
)

type InterviewStatus string

const (
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
)

// Interview is the durable record of one session. SessionID is unique, so a
// session never owns more than one record.
type Interview struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID  string `gorm:"column:session_id;type:text;uniqueIndex" json:"session_id"`
	EmployerID string `gorm:"column:employer_id;type:uuid;index" json:"employer_id"`

	RoleID    string `gorm:"column:role_id;type:text" json:"role_id,omitempty"`
	RoleLabel string `gorm:"column:role_label;type:text" json:"role_label,omitempty"`

	CandidateName  string `gorm:"column:candidate_name;type:text" json:"candidate_name,omitempty"`
	CandidateEmail string `gorm:"column:candidate_email;type:text" json:"candidate_email,omitempty"`
	Language       string `gorm:"column:language;type:text" json:"language,omitempty"` // en|zh
	AccessToken    string `gorm:"column:access_token;type:text;index" json:"-"`

	Status    InterviewStatus `gorm:"column:status;type:text" json:"status"` // in_progress|completed
	StartedAt *time.Time      `gorm:"column:started_at;type:timestamptz" json:"started_at,omitempty"`
	EndedAt   *time.Time      `gorm:"column:ended_at;type:timestamptz" json:"ended_at,omitempty"`

	Rating          *int           `gorm:"column:rating;type:integer" json:"rating,omitempty"`
	RatingComment   string         `gorm:"column:rating_comment;type:text" json:"rating_comment,omitempty"`
	LanguageRating  *int           `gorm:"column:language_rating;type:integer" json:"language_rating,omitempty"`
	LanguageComment string         `gorm:"column:language_comment;type:text" json:"language_comment,omitempty"`
	RatingRaw       datatypes.JSON `gorm:"column:rating_raw;type:jsonb" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Interview) TableName() string { return "interviews" }
