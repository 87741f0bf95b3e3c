// Package service contains the business logic layer.
//
// This file implements the entitlement service for checking and enforcing
// the monthly generation limit on free accounts.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EntitlementService defines operations for checking generation limits.
type EntitlementService interface {
	// Usage returns the current month's entitlement state for a user.
	Usage(ctx context.Context, user *domain.User) (*domain.Entitlement, error)

	// Check verifies the user may generate another letter right now.
	// Returns nil if allowed, or an EPAYMENT error when the free limit
	// is exhausted.
	Check(ctx context.Context, user *domain.User) (*domain.Entitlement, error)
}

// =============================================================================
// Implementation
// =============================================================================

type entitlementService struct {
	queries *repository.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(queries *repository.Queries, logger *slog.Logger) EntitlementService {
	return &entitlementService{
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

// Usage returns the current month's entitlement state for a user.
//
// Usage counts every letter created in the current UTC calendar month,
// including letters generated while the user was on a pro plan. A lapsed
// pro account therefore resumes metering against the full month's count.
func (s *entitlementService) Usage(ctx context.Context, user *domain.User) (*domain.Entitlement, error) {
	const op = "entitlement.usage"

	now := s.now()

	used, err := s.countMonthUsage(ctx, user.ID, now)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count monthly usage")
	}

	entitlement := domain.EvaluateEntitlement(user, used, now)
	return &entitlement, nil
}

// Check verifies the user may generate another letter right now.
func (s *entitlementService) Check(ctx context.Context, user *domain.User) (*domain.Entitlement, error) {
	const op = "entitlement.check"

	now := s.now()

	used, err := s.countMonthUsage(ctx, user.ID, now)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count monthly usage")
	}

	entitlement := domain.EvaluateEntitlement(user, used, now)
	if !entitlement.Allowed {
		s.logger.Info("monthly limit reached",
			"user_id", user.ID,
			"used", entitlement.Used,
			"limit", entitlement.Limit,
		)
		return &entitlement, domain.QuotaExceeded(op, entitlement.Used, entitlement.Limit)
	}

	return &entitlement, nil
}

// countMonthUsage counts letters created in the UTC calendar month containing now.
func (s *entitlementService) countMonthUsage(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	start, end := domain.MonthBounds(now)

	return s.queries.CountCoverLettersInRange(ctx, repository.CountCoverLettersInRangeParams{
		UserID:      userID,
		CreatedAt:   start,
		CreatedAt_2: end,
	})
}

// Ensure entitlementService implements EntitlementService
var _ EntitlementService = (*entitlementService)(nil)
