package mock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mpettersen/lettersmith/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	GenerateLetterResponse *ai.GenerationResult
	GenerateLetterError    error

	// Call tracking for testing
	GenerateLetterCalls int
	LastGenerateParams  ai.GenerateLetterParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// GenerateLetter returns a canned cover letter
func (p *Provider) GenerateLetter(ctx context.Context, params ai.GenerateLetterParams) (*ai.GenerationResult, error) {
	p.GenerateLetterCalls++
	p.LastGenerateParams = params

	// If a custom response or error is set, use it
	if p.GenerateLetterError != nil {
		return nil, p.GenerateLetterError
	}
	if p.GenerateLetterResponse != nil {
		return p.GenerateLetterResponse, nil
	}

	text := fmt.Sprintf(
		"Dear Hiring Manager,\n\nI am excited to apply for the %s position at %s. "+
			"My background makes me a strong fit for this remote role, and I would "+
			"welcome the chance to contribute from day one.\n\nSincerely,\nA Candidate",
		params.JobTitle, params.CompanyName,
	)

	return &ai.GenerationResult{
		Text:             text,
		Model:            "mock-ai-v1",
		PromptTokens:     120,
		CompletionTokens: 80,
		TotalTokens:      200,
		Duration:         50 * time.Millisecond,
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.GenerateLetterCalls = 0
	p.GenerateLetterResponse = nil
	p.GenerateLetterError = nil
	p.LastGenerateParams = ai.GenerateLetterParams{}
}
