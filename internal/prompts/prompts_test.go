package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yoockh/interviewer/internal/models"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "My name is Jane Doe, nice to meet you", want: "Jane Doe"},
		{in: "I'm Bob", want: "Bob"},
		{in: "  Software engineer here ", want: "Software engineer here"},
		{in: "call me Max! thanks", want: "Max"},
		{in: "name: Ana; hi", want: "Ana"},
		{in: "我叫李雷。很高兴认识你", want: "李雷"},
		{in: "Alex", want: "Alex"},
		{in: "I Amara", want: "I Amara"},
		{in: "This Isabella", want: "This Isabella"},
		{in: "I'mran Khan", want: "I'mran Khan"},
		{in: "I am " + strings.Repeat("x", 80), want: strings.Repeat("x", 60)},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractName(tc.in))
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, LangChinese, NormalizeLanguage("zh"))
	assert.Equal(t, LangChinese, NormalizeLanguage("zh-CN"))
	assert.Equal(t, LangEnglish, NormalizeLanguage(""))
	assert.Equal(t, LangEnglish, NormalizeLanguage("de"))
}

func TestLocale(t *testing.T) {
	en := For("en")
	assert.Equal(t, "Thanks, Alex. Could you briefly introduce yourself?", en.IntroAfterName("Alex"))
	assert.Contains(t, en.Greeting(""), "your name")
	assert.Contains(t, en.Greeting("Alex"), "Alex")
	assert.Equal(t, "The interview has ended. Thank you.", en.EndedMessage)
	assert.Equal(t, "What are your salary expectations?", en.StagePrompt(models.StageExpectations))
	assert.Equal(t, "Completion request failed: timeout", en.Diagnostic(errors.New("timeout")))

	zh := For("zh")
	assert.Equal(t, "谢谢，小明。请简单介绍一下您自己。", zh.IntroAfterName("小明"))

	for _, l := range []Locale{en, zh} {
		for s := models.StageIntroduction; s <= models.StageEnded; s++ {
			assert.NotEmpty(t, l.StagePrompt(s), "%s %s", l.Lang, s)
		}
	}
}

func TestInterviewerPrompt(t *testing.T) {
	p := Interviewer(InterviewerInput{
		Employer: "Acme",
		Role:     "Backend Engineer",
		Skills:   []string{"Go", "Postgres"},
		Language: "zh",
		Stage:    models.StageTechnical,
	})

	assert.Contains(t, p, "representing Acme")
	assert.Contains(t, p, "Current stage: technical")
	assert.Contains(t, p, "Key skills: Go, Postgres")
	assert.Contains(t, p, "Chinese (Simplified)")
	assert.Contains(t, p, MarkerAnswered)
	assert.Contains(t, p, MarkerInterviewEnded)
	assert.Contains(t, p, "Candidate name: Unknown")
}

func TestRatingPrompt(t *testing.T) {
	assert.Contains(t, Rating("en", ""), "language skill in English")
	assert.NotContains(t, Rating("", ""), "language_rating")
	assert.Contains(t, Rating("", "SRE"), "SRE")
}
