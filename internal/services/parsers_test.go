package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerParser(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Reply
	}{
		{
			name: "plain",
			raw:  "Tell me about your last project.",
			want: Reply{Text: "Tell me about your last project."},
		},
		{
			name: "answered",
			raw:  "Great answer. What databases have you used?\nCountAnswer: YES",
			want: Reply{Text: "Great answer. What databases have you used?", QuestionAnswered: true},
		},
		{
			name: "not answered marker is stripped",
			raw:  "Could you elaborate?\nCountAnswer: NO",
			want: Reply{Text: "Could you elaborate?"},
		},
		{
			name: "ended",
			raw:  "Thanks for your time.\nCountAnswer: YES\nINTERVIEW_ENDED",
			want: Reply{Text: "Thanks for your time.", QuestionAnswered: true, InterviewEnded: true},
		},
		{
			name: "lowercase marker is stripped",
			raw:  "Nice.\ncountanswer: yes",
			want: Reply{Text: "Nice.", QuestionAnswered: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MarkerParser{}.Parse(tc.raw))
		})
	}
}

func TestParseRating(t *testing.T) {
	t.Run("clamps high", func(t *testing.T) {
		r, err := ParseRating(`{"rating": 13, "comment": "strong"}`)
		require.NoError(t, err)
		assert.Equal(t, 10, r.Rating)
		assert.Nil(t, r.LanguageRating)
	})

	t.Run("clamps values past int range", func(t *testing.T) {
		for _, raw := range []string{`{"rating": 1e20}`, `{"rating": "99999999999999999999"}`} {
			r, err := ParseRating(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, 10, r.Rating, raw)
		}
	})

	t.Run("clamps low", func(t *testing.T) {
		r, err := ParseRating(`{"rating": 0, "comment": "weak"}`)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Rating)
	})

	t.Run("fenced with prose and string numbers", func(t *testing.T) {
		raw := "```json\nHere you go: {\"rating\": \"7.6\", \"comment\": \"solid {design} skills\", \"languageRating\": \"8/10\", \"languageComment\": \"fluent\"} trailing }\n```"
		r, err := ParseRating(raw)
		require.NoError(t, err)
		assert.Equal(t, 8, r.Rating)
		assert.Equal(t, "solid {design} skills", r.Comment)
		require.NotNil(t, r.LanguageRating)
		assert.Equal(t, 8, *r.LanguageRating)
		assert.Equal(t, "fluent", r.LanguageComment)
	})

	t.Run("snake case language keys", func(t *testing.T) {
		r, err := ParseRating(`{"rating": 5, "comment": "ok", "language_rating": 11, "language_comment": "good"}`)
		require.NoError(t, err)
		require.NotNil(t, r.LanguageRating)
		assert.Equal(t, 10, *r.LanguageRating)
	})

	t.Run("truncates comments", func(t *testing.T) {
		long := strings.Repeat("é", 300)
		r, err := ParseRating(`{"rating": 6, "comment": "` + long + `"}`)
		require.NoError(t, err)
		assert.Equal(t, 240, len([]rune(r.Comment)))
	})

	t.Run("rejects missing rating", func(t *testing.T) {
		_, err := ParseRating(`{"comment": "no score"}`)
		assert.Error(t, err)
	})

	t.Run("rejects non json", func(t *testing.T) {
		_, err := ParseRating("I would give them a seven")
		assert.Error(t, err)
	})
}

func TestParseRoleDescription(t *testing.T) {
	d, err := ParseRoleDescription("```json\n{\"description\": \"Builds APIs.\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Builds APIs.", d)

	d, err = ParseRoleDescription(`{"description": "` + strings.Repeat("a", 400) + `"}`)
	require.NoError(t, err)
	assert.Len(t, d, 300)

	_, err = ParseRoleDescription(`{"description": ""}`)
	assert.Error(t, err)
}
