package services

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yoockh/interviewer/internal/models"
)

const (
	maxCommentRunes     = 240
	maxDescriptionRunes = 300
)

var (
	errNoJSON     = errors.New("no JSON object in completion")
	leadingNumber = regexp.MustCompile(`^\s*-?\d+(\.\d+)?`)
)

// extractJSONObject strips code fences and returns the first balanced {...}
// block, ignoring braces inside string literals.
func extractJSONObject(content string) (string, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSON
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSON
}

// number accepts a JSON number or a string that starts with one ("7", "7/10").
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	return f, err == nil && finite(f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// clampScore bounds in float space so huge values do not overflow the int
// conversion.
func clampScore(f float64) int {
	return int(math.Max(1, math.Min(10, math.Round(f))))
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > limit {
		return strings.TrimSpace(string(r[:limit]))
	}
	return s
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

type ratingPayload struct {
	Rating               json.RawMessage `json:"rating"`
	Comment              json.RawMessage `json:"comment"`
	LanguageRating       json.RawMessage `json:"language_rating"`
	LanguageRatingCamel  json.RawMessage `json:"languageRating"`
	LanguageComment      json.RawMessage `json:"language_comment"`
	LanguageCommentCamel json.RawMessage `json:"languageComment"`
}

// ParseRating reads an evaluator completion. The overall rating is required;
// the language fields are optional.
func ParseRating(content string) (*models.Rating, error) {
	block, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var p ratingPayload
	if err := json.Unmarshal([]byte(block), &p); err != nil {
		return nil, err
	}

	score, ok := number(p.Rating)
	if !ok {
		return nil, errors.New("rating is missing or not a number")
	}

	out := &models.Rating{
		Rating:  clampScore(score),
		Comment: truncateRunes(stringField(p.Comment), maxCommentRunes),
	}

	langRaw := p.LanguageRating
	if _, ok := number(langRaw); !ok {
		langRaw = p.LanguageRatingCamel
	}
	if lr, ok := number(langRaw); ok {
		v := clampScore(lr)
		out.LanguageRating = &v
	}

	lc := stringField(p.LanguageComment)
	if lc == "" {
		lc = stringField(p.LanguageCommentCamel)
	}
	out.LanguageComment = truncateRunes(lc, maxCommentRunes)
	return out, nil
}

// ParseRoleDescription reads {"description": "..."} and caps it at 300 runes.
func ParseRoleDescription(content string) (string, error) {
	block, err := extractJSONObject(content)
	if err != nil {
		return "", err
	}
	var p struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(block), &p); err != nil {
		return "", err
	}
	d := truncateRunes(p.Description, maxDescriptionRunes)
	if d == "" {
		return "", errors.New("empty description")
	}
	return d, nil
}
