package models

import "time"

type InterviewMessage struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string    `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`
	Speaker     Speaker   `gorm:"column:speaker;type:text" json:"speaker"` // candidate|interviewer
	Message     string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (InterviewMessage) TableName() string { return "interview_messages" }
