package models

import "time"

type Stage int

const (
	StageIntroduction Stage = iota
	StageSkillsExperience
	StageTechnical
	StageExpectations
	StageCandidateQuestions
	StageEnded
)

func (s Stage) String() string {
	switch s {
	case StageIntroduction:
		return "introduction"
	case StageSkillsExperience:
		return "skills_experience"
	case StageTechnical:
		return "technical"
	case StageExpectations:
		return "expectations"
	case StageCandidateQuestions:
		return "candidate_questions"
	case StageEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type Speaker string

const (
	SpeakerCandidate   Speaker = "candidate"
	SpeakerInterviewer Speaker = "interviewer"
)

type Turn struct {
	Speaker Speaker `bson:"speaker" json:"speaker"`
	Text    string  `bson:"text" json:"text"`
}

// SessionState is the in-memory progress of one interview session. It is
// owned by the session registry and mutated only by the interview service.
type SessionState struct {
	SessionID string `bson:"session_id" json:"session_id"`

	Stage                 Stage  `bson:"stage" json:"stage"`
	QuestionsAskedInStage int    `bson:"questions_asked_in_stage" json:"questions_asked_in_stage"`
	History               []Turn `bson:"history" json:"history"`
	Ended                 bool   `bson:"ended" json:"ended"`
	RatingRequested       bool   `bson:"rating_requested" json:"rating_requested"`

	// set-once descriptive fields
	Role            string   `bson:"role,omitempty" json:"role,omitempty"`
	RoleID          string   `bson:"role_id,omitempty" json:"role_id,omitempty"`
	RoleDescription string   `bson:"role_description,omitempty" json:"role_description,omitempty"`
	RoleSkills      []string `bson:"role_skills,omitempty" json:"role_skills,omitempty"`
	EmployerName    string   `bson:"employer_name,omitempty" json:"employer_name,omitempty"`
	CandidateName   string   `bson:"candidate_name,omitempty" json:"candidate_name,omitempty"`
	CandidateEmail  string   `bson:"candidate_email,omitempty" json:"candidate_email,omitempty"`
	Language        string   `bson:"language,omitempty" json:"language,omitempty"` // en|zh

	// weak references into the transcript store
	InterviewRecordID string `bson:"interview_record_id,omitempty" json:"interview_record_id,omitempty"`
	EmployerID        string `bson:"employer_id,omitempty" json:"employer_id,omitempty"`

	Hydrated          bool   `bson:"hydrated" json:"hydrated"`
	EmployerTokenHash string `bson:"employer_token_hash,omitempty" json:"employer_token_hash,omitempty"`
	AccessTokenHash   string `bson:"access_token_hash,omitempty" json:"access_token_hash,omitempty"`

	StartedAt *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

func NewSessionState(sessionID string) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Stage:     StageIntroduction,
		History:   []Turn{},
	}
}

// Persisted reports whether turns must be mirrored to the transcript store.
func (s *SessionState) Persisted() bool { return s.InterviewRecordID != "" }

// Append adds a turn to the history. History is never reordered or trimmed.
func (s *SessionState) Append(speaker Speaker, text string) {
	s.History = append(s.History, Turn{Speaker: speaker, Text: text})
}

// Clone returns a deep copy; backends that serialize hand out copies so
// callers never share history slices.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]Turn{}, s.History...)
	if s.RoleSkills != nil {
		out.RoleSkills = append([]string(nil), s.RoleSkills...)
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	return &out
}

// AssignIfAbsent sets *dst to v only when *dst is empty. Later values are
// ignored, never merged.
func AssignIfAbsent(dst *string, v string) bool {
	if *dst != "" || v == "" {
		return false
	}
	*dst = v
	return true
}
