// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication
// and subscription state. These types are separate from the repository models
// so business logic never deals with sql.Null* wrappers directly.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents a registered Lettersmith user.
//
// Plan state is three fields mutated only by the webhook reconciler, the
// admin upgrade path, or explicit cancellation:
//   - IsPro: the paid flag
//   - ProExpiresAt: nil means pro with no expiry
//   - ProSubscriptionID: external payment-provider reference
type User struct {
	ID                uuid.UUID
	Email             string
	PasswordHash      string // Never expose this in API responses
	FirstName         string
	LastName          string
	IsPro             bool
	ProSubscriptionID string
	ProExpiresAt      *time.Time
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}

// IsUnmetered reports whether the user has an active pro entitlement at the
// given instant: IsPro must be set and ProExpiresAt must be unset or in the
// future. An expired pro user is treated exactly like a free user.
func (u *User) IsUnmetered(now time.Time) bool {
	if !u.IsPro {
		return false
	}
	return u.ProExpiresAt == nil || u.ProExpiresAt.After(now)
}

// Plan returns the display name of the user's effective plan.
func (u *User) Plan(now time.Time) string {
	if u.IsUnmetered(now) {
		return "pro"
	}
	return "free"
}

// DisplayName returns the user's full name, or email if no name is set.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// ProState is the target subscription state computed by the webhook
// reconciler. It is always applied as an absolute state, never a delta, so
// replaying the same event is safe.
type ProState struct {
	IsPro          bool
	SubscriptionID string
	ExpiresAt      *time.Time
}

// ClearedProState is the state applied on refund, chargeback, or cancellation.
func ClearedProState() ProState {
	return ProState{}
}

// SubscriptionStatus is the billing view of an account.
type SubscriptionStatus struct {
	Plan           string     `json:"plan"`
	IsPro          bool       `json:"isPro"`
	SubscriptionID string     `json:"subscriptionId,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	WillRenew      bool       `json:"willRenew"`
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at login).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email     string
	Password  string // Raw password, will be hashed by service
	FirstName string
	LastName  string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// PasswordChangeParams contains parameters for changing a user's password.
type PasswordChangeParams struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
