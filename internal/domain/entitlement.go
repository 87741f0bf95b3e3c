// Package domain contains core business types and interfaces.
//
// This file implements the freemium entitlement rule: free users get a fixed
// number of generations per calendar month, pro users are unmetered while
// their entitlement is active.
package domain

import (
	"fmt"
	"time"
)

// FreeMonthlyLimit is the number of generations a free user gets per
// calendar month (UTC).
const FreeMonthlyLimit = 3

// Entitlement is the allow/deny decision for a single generation request.
type Entitlement struct {
	Allowed   bool
	Unmetered bool
	Used      int64
	Limit     int64
}

// Remaining returns how many generations the user has left this month.
// Unmetered users have no meaningful remaining count; callers should check
// Unmetered first.
func (e Entitlement) Remaining() int64 {
	if e.Unmetered {
		return 0
	}
	if r := e.Limit - e.Used; r > 0 {
		return r
	}
	return 0
}

// EvaluateEntitlement decides whether the user may generate a letter right
// now. It is a pure function: the caller supplies the usage count for the
// current calendar month and the evaluation instant.
//
// A nil user denies (fail closed): a user deleted mid-session must not be
// able to generate.
func EvaluateEntitlement(user *User, usedThisMonth int64, now time.Time) Entitlement {
	if user == nil {
		return Entitlement{Allowed: false, Used: 0, Limit: FreeMonthlyLimit}
	}
	if user.IsUnmetered(now) {
		return Entitlement{Allowed: true, Unmetered: true, Used: usedThisMonth, Limit: FreeMonthlyLimit}
	}
	return Entitlement{
		Allowed: usedThisMonth < FreeMonthlyLimit,
		Used:    usedThisMonth,
		Limit:   FreeMonthlyLimit,
	}
}

// MonthBounds returns the half-open interval [start of current month, start
// of next month) for the given instant, evaluated in UTC. A generation at
// the exact instant of month rollover counts toward the new month.
func MonthBounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// QuotaExceeded creates a payment-required error carrying the usage data the
// client needs to render an upgrade prompt.
func QuotaExceeded(op string, used, limit int64) *Error {
	return &Error{
		Code:    EPAYMENT,
		Op:      op,
		Message: fmt.Sprintf("Monthly free limit reached (%d of %d used). Upgrade to Pro for unlimited cover letters.", used, limit),
	}
}
