// Package email provides email sending functionality for the Lettersmith application.
//
// This package defines an EmailService interface with implementations for:
// - SMTP (for development with Mailhog and production with services like Postmark SMTP)
// - Future: Postmark API implementation for advanced features
package email

import (
	"context"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// Implementations:
// - SMTPEmailService: Uses SMTP protocol (Mailhog for dev, Postmark SMTP for prod)
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendWelcomeEmail greets a newly registered user.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	SendWelcomeEmail(ctx context.Context, to, name string) error

	// SendCoverLetterEmail sends a generated cover letter to a recipient.
	// Parameters:
	// - to: Recipient email address
	// - senderName: Name of the account holder sending the letter
	// - title: Display title of the letter
	// - content: Full letter text
	SendCoverLetterEmail(ctx context.Context, to, senderName, title, content string) error

	// SendProWelcomeEmail thanks a user for upgrading to pro.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	SendProWelcomeEmail(ctx context.Context, to, name string) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@lettersmith.app"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Lettersmith"
)
