package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mpettersen/lettersmith/internal/billing"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserService implements UserService with overridable functions.
type mockUserService struct {
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)
	ApplyProStateFunc func(ctx context.Context, userID uuid.UUID, state domain.ProState) (*domain.User, error)
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	return nil, errors.New("RegisterFunc not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return nil, errors.New("LoginFunc not implemented")
}

func (m *mockUserService) Logout(ctx context.Context, token string) error {
	return errors.New("LogoutFunc not implemented")
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, errors.New("GetByIDFunc not implemented")
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, errors.New("GetByEmailFunc not implemented")
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	return nil, errors.New("GetBySessionTokenFunc not implemented")
}

func (m *mockUserService) ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error {
	return errors.New("ChangePasswordFunc not implemented")
}

func (m *mockUserService) ApplyProState(ctx context.Context, userID uuid.UUID, state domain.ProState) (*domain.User, error) {
	if m.ApplyProStateFunc != nil {
		return m.ApplyProStateFunc(ctx, userID, state)
	}
	return nil, errors.New("ApplyProStateFunc not implemented")
}

func (m *mockUserService) DeleteExpiredSessions(ctx context.Context) error {
	return errors.New("DeleteExpiredSessionsFunc not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testCatalog mirrors the GUMROAD_*_PRODUCT_ID configuration.
var testCatalog = ProductCatalog{
	MonthlyProductID: "prod_monthly",
	AnnualProductID:  "prod_annual",
}

func newTestPaymentService(users UserService, now time.Time) *paymentService {
	svc := NewPaymentService(users, testCatalog, testLogger()).(*paymentService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestProcessWebhookEvent_Purchase(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	var applied domain.ProState
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			assert.Equal(t, "buyer@example.com", email)
			return &domain.User{ID: userID, Email: email}, nil
		},
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			assert.Equal(t, userID, id)
			applied = state
			return &domain.User{ID: id, IsPro: state.IsPro}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	err := svc.ProcessWebhookEvent(context.Background(), billing.WebhookEvent{
		Email:          "buyer@example.com",
		ProductID:      "prod_1",
		ID:             "sale_1",
		SubscriptionID: "sub_1",
		Recurrence:     "monthly",
	})
	require.NoError(t, err)

	assert.True(t, applied.IsPro)
	assert.Equal(t, "sub_1", applied.SubscriptionID)
	require.NotNil(t, applied.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 1, 0), *applied.ExpiresAt)
}

func TestProcessWebhookEvent_YearlyPurchase(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	var applied domain.ProState
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: uuid.New(), Email: email}, nil
		},
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			applied = state
			return &domain.User{ID: id}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	err := svc.ProcessWebhookEvent(context.Background(), billing.WebhookEvent{
		Email:      "buyer@example.com",
		ID:         "sale_2",
		Recurrence: "yearly",
	})
	require.NoError(t, err)
	require.NotNil(t, applied.ExpiresAt)
	assert.Equal(t, now.AddDate(1, 0, 0), *applied.ExpiresAt)

	// One-off sale: sale id stands in for the subscription id.
	assert.Equal(t, "sale_2", applied.SubscriptionID)
}

func TestProcessWebhookEvent_ProductIDSelectsDuration(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event billing.WebhookEvent
		want  time.Time
	}{
		{
			name:  "annual product without recurrence hints",
			event: billing.WebhookEvent{Email: "buyer@example.com", ID: "sale_1", ProductID: "prod_annual"},
			want:  now.AddDate(1, 0, 0),
		},
		{
			name:  "monthly product without recurrence hints",
			event: billing.WebhookEvent{Email: "buyer@example.com", ID: "sale_2", ProductID: "prod_monthly"},
			want:  now.AddDate(0, 1, 0),
		},
		{
			name: "configured product id outranks recurrence",
			event: billing.WebhookEvent{
				Email:      "buyer@example.com",
				ID:         "sale_3",
				ProductID:  "prod_annual",
				Recurrence: "monthly",
			},
			want: now.AddDate(1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var applied domain.ProState
			users := &mockUserService{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return &domain.User{ID: uuid.New(), Email: email}, nil
				},
				ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
					applied = state
					return &domain.User{ID: id}, nil
				},
			}

			svc := newTestPaymentService(users, now)

			err := svc.ProcessWebhookEvent(context.Background(), tt.event)
			require.NoError(t, err)
			require.NotNil(t, applied.ExpiresAt)
			assert.Equal(t, tt.want, *applied.ExpiresAt)
		})
	}
}

func TestProcessWebhookEvent_UnknownProductDefaultsToMonth(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	var applied domain.ProState
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: uuid.New(), Email: email}, nil
		},
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			applied = state
			return &domain.User{ID: id}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	err := svc.ProcessWebhookEvent(context.Background(), billing.WebhookEvent{
		Email:     "buyer@example.com",
		ProductID: "prod_mystery",
		ID:        "sale_3",
	})
	require.NoError(t, err)
	require.NotNil(t, applied.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 1, 0), *applied.ExpiresAt)
}

func TestProcessWebhookEvent_RefundClearsProState(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 1, 0)

	var applied domain.ProState
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{
				ID:                uuid.New(),
				Email:             email,
				IsPro:             true,
				ProSubscriptionID: "sub_1",
				ProExpiresAt:      &expiry,
			}, nil
		},
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			applied = state
			return &domain.User{ID: id}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	err := svc.ProcessWebhookEvent(context.Background(), billing.WebhookEvent{
		Email:    "buyer@example.com",
		ID:       "sale_1",
		Refunded: "true",
	})
	require.NoError(t, err)

	assert.False(t, applied.IsPro)
	assert.Empty(t, applied.SubscriptionID)
	assert.Nil(t, applied.ExpiresAt)
}

func TestProcessWebhookEvent_ChargebackClearsProState(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	var applied domain.ProState
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: uuid.New(), Email: email, IsPro: true}, nil
		},
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			applied = state
			return &domain.User{ID: id}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	err := svc.ProcessWebhookEvent(context.Background(), billing.WebhookEvent{
		Email:       "buyer@example.com",
		ID:          "sale_1",
		Chargedback: "true",
	})
	require.NoError(t, err)
	assert.False(t, applied.IsPro)
}

func TestProcessWebhookEvent_UnknownUser(t *testing.T) {
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, domain.NotFound("UserService.GetByEmail", "user", email)
		},
	}

	svc := newTestPaymentService(users, time.Now())

	err := svc.ProcessWebhookEvent(context.Background(), billing.WebhookEvent{
		Email: "stranger@example.com",
		ID:    "sale_1",
	})
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestCancelSubscription(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 1, 0)
	userID := uuid.New()

	var applied domain.ProState
	users := &mockUserService{
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			applied = state
			return &domain.User{ID: id}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	user := &domain.User{
		ID:                userID,
		IsPro:             true,
		ProSubscriptionID: "sub_1",
		ProExpiresAt:      &expiry,
	}
	err := svc.CancelSubscription(context.Background(), user)
	require.NoError(t, err)

	// Access continues until expiry, only the subscription link is removed.
	assert.True(t, applied.IsPro)
	assert.Empty(t, applied.SubscriptionID)
	require.NotNil(t, applied.ExpiresAt)
	assert.Equal(t, expiry, *applied.ExpiresAt)
}

func TestCancelSubscription_NoSubscription(t *testing.T) {
	svc := newTestPaymentService(&mockUserService{}, time.Now())

	err := svc.CancelSubscription(context.Background(), &domain.User{ID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestGrantPro(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	var applied domain.ProState
	users := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: userID, Email: email}, nil
		},
		ApplyProStateFunc: func(ctx context.Context, id uuid.UUID, state domain.ProState) (*domain.User, error) {
			applied = state
			return &domain.User{ID: id, IsPro: state.IsPro, ProExpiresAt: state.ExpiresAt}, nil
		},
	}

	svc := newTestPaymentService(users, now)

	user, err := svc.GrantPro(context.Background(), "vip@example.com", 365*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, user.IsPro)
	assert.True(t, applied.IsPro)
	require.NotNil(t, applied.ExpiresAt)
	assert.Equal(t, now.Add(365*24*time.Hour), *applied.ExpiresAt)
}
