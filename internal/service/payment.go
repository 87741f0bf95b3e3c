// Package service contains the business logic layer.
//
// This file implements the payment service: applying Gumroad webhook
// events to account state and reporting subscription status.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mpettersen/lettersmith/internal/billing"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PaymentService applies billing events and reports subscription state.
type PaymentService interface {
	// ProcessWebhookEvent applies a verified Gumroad event to the
	// matching account. Purchases set pro state with an absolute expiry,
	// refunds and chargebacks clear it.
	// Returns domain.ENOTFOUND when no account matches the buyer email.
	ProcessWebhookEvent(ctx context.Context, event billing.WebhookEvent) error

	// SubscriptionStatus reports the billing view of an account.
	SubscriptionStatus(ctx context.Context, user *domain.User) (*domain.SubscriptionStatus, error)

	// CancelSubscription detaches the subscription from the account.
	// Pro access remains until the current expiry lapses.
	CancelSubscription(ctx context.Context, user *domain.User) error

	// GrantPro gives an account pro access for the given duration,
	// outside of any billing event. Used by the admin upgrade endpoint.
	GrantPro(ctx context.Context, email string, duration time.Duration) (*domain.User, error)
}

// =============================================================================
// Implementation
// =============================================================================

// ProductCatalog holds the configured Gumroad product IDs for the two
// pro plans. Webhook purchases are matched against it to pick the access
// duration.
type ProductCatalog struct {
	MonthlyProductID string
	AnnualProductID  string
}

type paymentService struct {
	users   UserService
	catalog ProductCatalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(users UserService, catalog ProductCatalog, logger *slog.Logger) PaymentService {
	return &paymentService{
		users:   users,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// =============================================================================
// ProcessWebhookEvent Implementation
// =============================================================================

// ProcessWebhookEvent applies a verified Gumroad event to the matching account.
//
// The applied state is absolute: the event determines the resulting pro
// fields outright, so delivering the same event twice, or events out of
// order, converges on the state of the last one applied.
func (s *paymentService) ProcessWebhookEvent(ctx context.Context, event billing.WebhookEvent) error {
	user, err := s.users.GetByEmail(ctx, event.Email)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			metrics.WebhookEventsTotal.WithLabelValues("unknown_user").Inc()
			s.logger.Warn("webhook for unknown account",
				"email", event.Email,
				"sale_id", event.ID,
			)
		}
		return err
	}

	if event.IsRefund() {
		_, err = s.users.ApplyProState(ctx, user.ID, domain.ClearedProState())
		if err != nil {
			return err
		}

		metrics.WebhookEventsTotal.WithLabelValues("refund").Inc()
		s.logger.Info("pro access revoked",
			"user_id", user.ID,
			"sale_id", event.ID,
			"chargeback", event.Chargedback,
		)
		return nil
	}

	expiresAt := s.accessExpiry(s.now(), event)
	_, err = s.users.ApplyProState(ctx, user.ID, domain.ProState{
		IsPro:          true,
		SubscriptionID: event.EffectiveSubscriptionID(),
		ExpiresAt:      &expiresAt,
	})
	if err != nil {
		return err
	}

	metrics.WebhookEventsTotal.WithLabelValues("purchase").Inc()
	s.logger.Info("pro access granted",
		"user_id", user.ID,
		"sale_id", event.ID,
		"product_id", event.ProductID,
		"expires_at", expiresAt,
		"test", event.IsTest(),
	)

	return nil
}

// accessExpiry maps a purchase to the absolute time its access runs out.
// The configured product IDs decide first; the recurrence and variant
// fields are fallback hints for sales that predate the catalog config.
// Unknown products default to one month so a misconfigured product never
// locks a paying customer out.
func (s *paymentService) accessExpiry(now time.Time, event billing.WebhookEvent) time.Time {
	if event.ProductID != "" {
		switch event.ProductID {
		case s.catalog.MonthlyProductID:
			return now.AddDate(0, 1, 0)
		case s.catalog.AnnualProductID:
			return now.AddDate(1, 0, 0)
		}
	}

	switch strings.ToLower(event.Recurrence) {
	case "monthly":
		return now.AddDate(0, 1, 0)
	case "yearly", "annually":
		return now.AddDate(1, 0, 0)
	}

	switch strings.ToLower(event.Variant) {
	case "monthly":
		return now.AddDate(0, 1, 0)
	case "yearly", "annual":
		return now.AddDate(1, 0, 0)
	}

	s.logger.Warn("unknown product, defaulting to one month of access",
		"product_id", event.ProductID,
		"variant", event.Variant,
		"recurrence", event.Recurrence,
	)
	return now.AddDate(0, 1, 0)
}

// =============================================================================
// SubscriptionStatus Implementation
// =============================================================================

// SubscriptionStatus reports the billing view of an account.
func (s *paymentService) SubscriptionStatus(ctx context.Context, user *domain.User) (*domain.SubscriptionStatus, error) {
	now := s.now()

	return &domain.SubscriptionStatus{
		Plan:           user.Plan(now),
		IsPro:          user.IsUnmetered(now),
		SubscriptionID: user.ProSubscriptionID,
		ExpiresAt:      user.ProExpiresAt,
		WillRenew:      user.IsUnmetered(now) && user.ProSubscriptionID != "",
	}, nil
}

// =============================================================================
// CancelSubscription Implementation
// =============================================================================

// CancelSubscription detaches the subscription from the account.
//
// Only the subscription reference is cleared. The user keeps pro access
// until ProExpiresAt passes, at which point the entitlement check starts
// metering again on its own.
func (s *paymentService) CancelSubscription(ctx context.Context, user *domain.User) error {
	const op = "PaymentService.CancelSubscription"

	if user.ProSubscriptionID == "" {
		return domain.Invalid(op, "No active subscription to cancel")
	}

	_, err := s.users.ApplyProState(ctx, user.ID, domain.ProState{
		IsPro:          user.IsPro,
		SubscriptionID: "",
		ExpiresAt:      user.ProExpiresAt,
	})
	if err != nil {
		return err
	}

	s.logger.Info("subscription cancelled",
		"user_id", user.ID,
		"access_until", user.ProExpiresAt,
	)

	return nil
}

// =============================================================================
// GrantPro Implementation
// =============================================================================

// GrantPro gives an account pro access for the given duration.
func (s *paymentService) GrantPro(ctx context.Context, email string, duration time.Duration) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(duration)
	updated, err := s.users.ApplyProState(ctx, user.ID, domain.ProState{
		IsPro:          true,
		SubscriptionID: user.ProSubscriptionID,
		ExpiresAt:      &expiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pro access granted manually",
		"user_id", user.ID,
		"expires_at", expiresAt,
	)

	return updated, nil
}

// Ensure paymentService implements PaymentService
var _ PaymentService = (*paymentService)(nil)
