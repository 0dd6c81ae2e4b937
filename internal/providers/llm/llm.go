package llm

import (
	"context"
	"strings"

	"github.com/yoockh/interviewer/internal/models"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role    Role
	Content string
}

// Provider is a chat completion backend. Complete returns the full reply text;
// an empty reply is reported as an error.
type Provider interface {
	Complete(ctx context.Context, systemPrompt string, history []Message) (string, error)
	Close() error
}

// FromTurns maps an interview transcript to chat messages, candidate turns as
// user and interviewer turns as model. A non-empty next is appended as the
// final user message.
func FromTurns(history []models.Turn, next string) []Message {
	out := make([]Message, 0, len(history)+1)
	for _, t := range history {
		role := RoleModel
		if t.Speaker == models.SpeakerCandidate {
			role = RoleUser
		}
		out = append(out, Message{Role: role, Content: t.Text})
	}
	if strings.TrimSpace(next) != "" {
		out = append(out, Message{Role: RoleUser, Content: next})
	}
	return out
}

const openingUserText = "Hello."

// Normalize prepares messages for Gemini: blank messages are dropped,
// consecutive messages of the same role are merged and the conversation
// always opens with a user message.
func Normalize(in []Message) []Message {
	out := make([]Message, 0, len(in)+1)
	for _, m := range in {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + text
			continue
		}
		out = append(out, Message{Role: m.Role, Content: text})
	}
	if len(out) == 0 || out[0].Role != RoleUser {
		out = append([]Message{{Role: RoleUser, Content: openingUserText}}, out...)
	}
	return out
}
