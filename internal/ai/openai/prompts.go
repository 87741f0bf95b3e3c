package openai

import (
	"fmt"

	"github.com/mpettersen/lettersmith/internal/ai"
)

// buildSystemPrompt sets the assistant's role, tone, and output language.
func buildSystemPrompt(params ai.GenerateLetterParams) string {
	prompt := fmt.Sprintf(
		"You are a helpful assistant that writes %s cover letters for %s remote jobs.",
		params.Tone, params.ExperienceLevel,
	)
	if params.Language != "" && params.Language != "en" {
		prompt += fmt.Sprintf(" Write the cover letter in %s language.", params.Language)
	}
	return prompt
}

// buildUserPrompt carries the job posting and candidate details.
func buildUserPrompt(params ai.GenerateLetterParams) string {
	prompt := fmt.Sprintf(
		"Write a %s cover letter for the following %s remote job. Job Title: %s. Company: %s. Candidate Info: %s.",
		params.Tone, params.ExperienceLevel, params.JobTitle, params.CompanyName, params.UserInfo,
	)
	if params.Language != "" && params.Language != "en" {
		prompt += fmt.Sprintf(" Write the cover letter in %s language.", params.Language)
	}
	return prompt
}
