package models

// RatingJob is the unit of work handed to the rating workers once an
// interview has ended. It carries the transcript so the worker does not need
// to re-read the store.
type RatingJob struct {
	SessionID   string `json:"session_id"`
	InterviewID string `json:"interview_id,omitempty"`
	Language    string `json:"language,omitempty"`
	Role        string `json:"role,omitempty"`
	History     []Turn `json:"history"`
}

type Rating struct {
	Rating          int    `json:"rating"`
	Comment         string `json:"comment"`
	LanguageRating  *int   `json:"language_rating,omitempty"`
	LanguageComment string `json:"language_comment,omitempty"`
}
