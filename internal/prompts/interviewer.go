package prompts

import (
	"fmt"
	"strings"

	"github.com/yoockh/interviewer/internal/models"
)

// Reply markers the interviewer model is instructed to emit.
const (
	MarkerInterviewEnded = "INTERVIEW_ENDED"
	MarkerAnswered       = "CountAnswer: YES"
)

type InterviewerInput struct {
	Employer        string
	Role            string
	RoleDescription string
	Skills          []string
	CandidateName   string
	Language        string
	Stage           models.Stage
}

func languageLabel(lang string) string {
	if NormalizeLanguage(lang) == LangChinese {
		return "Chinese (Simplified)"
	}
	return "English"
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// Interviewer builds the system prompt for a normal interview turn.
func Interviewer(in InterviewerInput) string {
	lang := languageLabel(in.Language)
	employer := orDefault(in.Employer, "the hiring company")

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional interviewer representing %s.\n", employer)
	b.WriteString("Your task is to conduct a structured, realistic job interview.\n\n")

	b.WriteString("Interview stages:\n")
	b.WriteString("1. Introduction\n2. Skills & Experience\n3. Technical Interview (role-specific)\n4. Salary Expectations\n5. Candidate Q&A\n\n")
	fmt.Fprintf(&b, "Current stage: %s\n", in.Stage)
	fmt.Fprintf(&b, "Candidate role: %s\n", orDefault(in.Role, "Unknown"))
	if in.RoleDescription != "" {
		fmt.Fprintf(&b, "Role description: %s\n", in.RoleDescription)
	}
	if len(in.Skills) > 0 {
		fmt.Fprintf(&b, "Key skills: %s\n", strings.Join(in.Skills, ", "))
	}
	fmt.Fprintf(&b, "Candidate name: %s\n", orDefault(in.CandidateName, "Unknown"))
	fmt.Fprintf(&b, "Interview language: %s\n\n", lang)

	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "- Always speak as a member of the hiring team at %s.\n", employer)
	fmt.Fprintf(&b, "- Conduct the interview entirely in %s and encourage the candidate to answer in %s.\n", lang, lang)
	b.WriteString("- Never mention that you are an AI or a bot.\n")
	b.WriteString("- Ask questions relevant to the candidate's role, one clear question at a time.\n")
	fmt.Fprintf(&b, "- When the candidate has fully answered the current question, add a final line: %s\n", MarkerAnswered)
	fmt.Fprintf(&b, "- End the interview only by including the token %s.\n", MarkerInterviewEnded)
	return b.String()
}
