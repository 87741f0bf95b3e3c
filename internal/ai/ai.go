package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider defines the interface for AI-powered cover letter generation
type Provider interface {
	// GenerateLetter produces a cover letter for the given job and candidate
	GenerateLetter(ctx context.Context, params GenerateLetterParams) (*GenerationResult, error)
}

// GenerateLetterParams contains parameters for letter generation
type GenerateLetterParams struct {
	JobTitle        string // Job title the letter applies to
	CompanyName     string // Hiring company
	UserInfo        string // Free-form candidate background
	Tone            string // Writing tone (e.g., "professional")
	ExperienceLevel string // Seniority phrasing (e.g., "mid-level")
	Language        string // ISO 639-1 output language code
}

// GenerationResult contains the generated letter and usage accounting
type GenerationResult struct {
	Text             string        // Generated letter body
	Model            string        // Model that produced the text
	PromptTokens     int           // Tokens in the request
	CompletionTokens int           // Tokens in the response
	TotalTokens      int           // Prompt + completion tokens
	Duration         time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIQuota indicates the account's API credit is exhausted
	EAIQuota = errors.New("ai provider quota exhausted")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIEmptyResponse indicates the model returned no usable text
	EAIEmptyResponse = errors.New("ai provider returned empty response")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
