// Package domain contains core business types and interfaces.
//
// This file defines the CoverLetter history entry and the validated
// parameters for a generation request.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generation parameter defaults.
const (
	DefaultTone            = "professional"
	DefaultExperienceLevel = "mid-level"
	DefaultLanguage        = "en"
)

// Allowed values for the optional generation parameters. Anything outside
// these sets is rejected at the boundary rather than forwarded to the
// generation provider.
var (
	Tones            = []string{"professional", "friendly", "creative", "formal"}
	ExperienceLevels = []string{"entry-level", "mid-level", "senior"}
	Languages        = []string{"en", "de", "es", "fr"}
)

// CoverLetter is one generation history entry. CreatedAt is set once at
// creation and is the only signal used for the monthly usage count.
type CoverLetter struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Title           string
	Content         string
	Tone            string
	ExperienceLevel string
	Language        string
	TokensUsed      int
	ShareID         *uuid.UUID
	CreatedAt       time.Time
}

// IsShared reports whether the letter has a public share link.
func (l *CoverLetter) IsShared() bool {
	return l.ShareID != nil
}

// GenerateParams contains the request fields for one generation.
// JobTitle, CompanyName, and UserInfo are required; the rest default.
type GenerateParams struct {
	JobTitle        string
	CompanyName     string
	UserInfo        string
	Tone            string
	ExperienceLevel string
	Language        string
}

// Normalize trims all fields and fills in defaults for the optional ones.
func (p *GenerateParams) Normalize() {
	p.JobTitle = strings.TrimSpace(p.JobTitle)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.UserInfo = strings.TrimSpace(p.UserInfo)
	p.Tone = strings.ToLower(strings.TrimSpace(p.Tone))
	p.ExperienceLevel = strings.ToLower(strings.TrimSpace(p.ExperienceLevel))
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))

	if p.Tone == "" {
		p.Tone = DefaultTone
	}
	if p.ExperienceLevel == "" {
		p.ExperienceLevel = DefaultExperienceLevel
	}
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
}

// Validate checks the normalized parameters. Call Normalize first.
func (p *GenerateParams) Validate(op string) error {
	var ve *ValidationError
	if p.JobTitle == "" {
		ve = AddFieldError(ve, "jobTitle", "Job title is required")
	}
	if p.CompanyName == "" {
		ve = AddFieldError(ve, "companyName", "Company name is required")
	}
	if p.UserInfo == "" {
		ve = AddFieldError(ve, "userInfo", "Candidate info is required")
	}
	if !contains(Tones, p.Tone) {
		ve = AddFieldError(ve, "tone", "Unsupported tone")
	}
	if !contains(ExperienceLevels, p.ExperienceLevel) {
		ve = AddFieldError(ve, "experienceLevel", "Unsupported experience level")
	}
	if !contains(Languages, p.Language) {
		ve = AddFieldError(ve, "language", "Unsupported language")
	}
	if ve != nil {
		ve.Op = op
		return ve
	}
	return nil
}

// LetterTitle builds the display title for a generated letter.
func (p *GenerateParams) LetterTitle() string {
	return fmt.Sprintf("%s at %s", p.JobTitle, p.CompanyName)
}

// GenerationOutcome bundles a newly created letter with the entitlement
// state that applied when it was generated.
type GenerationOutcome struct {
	Letter      *CoverLetter
	Entitlement Entitlement
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
