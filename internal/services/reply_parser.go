package services

import (
	"regexp"
	"strings"

	"github.com/yoockh/interviewer/internal/prompts"
)

// Reply is an interviewer completion with control signals separated from the
// text shown to the candidate.
type Reply struct {
	Text             string
	QuestionAnswered bool
	InterviewEnded   bool
}

type ReplyParser interface {
	Parse(raw string) Reply
}

var (
	answerLine    = regexp.MustCompile(`(?i)CountAnswer:.*`)
	answeredMark  = regexp.MustCompile(`(?i)CountAnswer:\s*YES\b`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// MarkerParser reads the in-band markers the interviewer prompt asks for.
type MarkerParser struct{}

func (MarkerParser) Parse(raw string) Reply {
	ended := strings.Contains(raw, prompts.MarkerInterviewEnded)
	answered := answeredMark.MatchString(raw)

	text := answerLine.ReplaceAllString(raw, "")
	text = strings.ReplaceAll(text, prompts.MarkerInterviewEnded, "")
	text = blankLineRuns.ReplaceAllString(strings.TrimSpace(text), "\n\n")

	return Reply{Text: text, QuestionAnswered: answered, InterviewEnded: ended}
}
