package events

import (
	"context"
	"time"

	"github.com/yoockh/interviewer/internal/models"
)

const (
	TypeTurn  = "turn"
	TypeEnded = "ended"
)

// Event is one live transcript update for a session.
type Event struct {
	Type      string        `json:"type"`
	SessionID string        `json:"session_id"`
	Stage     string        `json:"stage"`
	Ended     bool          `json:"ended"`
	Turns     []models.Turn `json:"turns,omitempty"`
	At        time.Time     `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, sessionID string, ev Event) error
}

// Subscriber streams encoded events of one session until ctx is done or the
// returned cleanup is called.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error)
}

type Bus interface {
	Publisher
	Subscriber
}

func Channel(sessionID string) string {
	return "interview:" + sessionID + ":events"
}
