package prompts

import (
	"fmt"
	"strings"
)

const RatingRequest = "Provide the JSON rating now."

// Rating builds the evaluator system prompt. The language skill request is
// included only when the interview language is known.
func Rating(language, role string) string {
	lines := []string{
		"You are an interview evaluator.",
		"Review the full transcript and assign a performance rating.",
	}
	if role != "" {
		lines = append(lines, fmt.Sprintf("The candidate interviewed for the role: %s.", role))
	}
	if language != "" {
		lines = append(lines,
			fmt.Sprintf("Also rate the candidate's language skill in %s.", languageLabel(language)),
			`Return strict JSON only: {"rating": number, "comment": "...", "language_rating": number, "language_comment": "..."}.`,
			"Language rating must be an integer from 1 to 10.",
		)
	} else {
		lines = append(lines, `Return strict JSON only: {"rating": number, "comment": "..."}.`)
	}
	lines = append(lines,
		"Rating must be an integer from 1 to 10.",
		"Comments must be concise (max 240 characters) and mention strengths and weaknesses.",
	)
	return strings.Join(lines, " ")
}

const RoleDescriptionSystem = `You write concise job role descriptions. Return strict JSON only: {"description": "..."}. Keep it professional and specific. Max 300 characters.`

func RoleDescriptionRequest(role, employer string) string {
	if employer != "" {
		return fmt.Sprintf("Role: %s\nCompany: %s\nProvide the JSON now.", role, employer)
	}
	return fmt.Sprintf("Role: %s\nProvide the JSON now.", role)
}
