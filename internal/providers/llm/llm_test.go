package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/interviewer/internal/models"
	"google.golang.org/genai"
)

func TestFromTurns(t *testing.T) {
	history := []models.Turn{
		{Speaker: models.SpeakerInterviewer, Text: "Hello, what is your name?"},
		{Speaker: models.SpeakerCandidate, Text: "Alex"},
	}

	got := FromTurns(history, "I build backends")

	require.Len(t, got, 3)
	assert.Equal(t, RoleModel, got[0].Role)
	assert.Equal(t, RoleUser, got[1].Role)
	assert.Equal(t, Message{Role: RoleUser, Content: "I build backends"}, got[2])

	assert.Len(t, FromTurns(history, "  "), 2)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Message
		want []Message
	}{
		{
			name: "opens with model turn",
			in: []Message{
				{Role: RoleModel, Content: "Hello!"},
				{Role: RoleUser, Content: "Hi"},
			},
			want: []Message{
				{Role: RoleUser, Content: openingUserText},
				{Role: RoleModel, Content: "Hello!"},
				{Role: RoleUser, Content: "Hi"},
			},
		},
		{
			name: "merges consecutive roles and drops blanks",
			in: []Message{
				{Role: RoleUser, Content: "one"},
				{Role: RoleUser, Content: " "},
				{Role: RoleUser, Content: "two"},
				{Role: RoleModel, Content: "ok"},
			},
			want: []Message{
				{Role: RoleUser, Content: "one\n\ntwo"},
				{Role: RoleModel, Content: "ok"},
			},
		},
		{
			name: "empty",
			in:   nil,
			want: []Message{{Role: RoleUser, Content: openingUserText}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Great. "}, {Text: "Next question."}}},
		}},
	}
	got, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Great. Next question.", got)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}
