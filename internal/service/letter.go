// Package service contains the business logic layer.
//
// This file implements the cover letter service: generation, history,
// sharing, and analytics.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mpettersen/lettersmith/internal/ai"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/email"
	"github.com/mpettersen/lettersmith/internal/metrics"
	"github.com/mpettersen/lettersmith/internal/repository"
	"github.com/mpettersen/lettersmith/internal/storage"
	"github.com/sqlc-dev/pqtype"
)

// =============================================================================
// Interface Definition
// =============================================================================

// LetterService defines operations on cover letters.
type LetterService interface {
	// Generate checks the user's entitlement, produces a cover letter via
	// the AI provider, and persists it to history.
	// Returns domain.EPAYMENT when the monthly free limit is exhausted.
	// Returns domain.EINVALID for bad generation parameters.
	Generate(ctx context.Context, user *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error)

	// List returns the user's letters, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.CoverLetter, error)

	// Get retrieves one of the user's letters.
	// Returns domain.ENOTFOUND if the letter does not exist or belongs
	// to a different user.
	Get(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error)

	// Delete removes one of the user's letters.
	// Returns domain.ENOTFOUND if the letter does not exist or belongs
	// to a different user.
	Delete(ctx context.Context, userID, letterID uuid.UUID) error

	// Share assigns a public share ID to a letter and stores an HTML
	// snapshot. Sharing an already-shared letter returns the existing link.
	Share(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error)

	// GetShared retrieves a letter by its public share ID.
	// Returns domain.ENOTFOUND for unknown share IDs.
	GetShared(ctx context.Context, shareID uuid.UUID) (*domain.CoverLetter, error)

	// Analytics summarizes the user's generation history.
	Analytics(ctx context.Context, user *domain.User) (*domain.Analytics, error)

	// EmailLetter sends one of the user's letters to a recipient address.
	EmailLetter(ctx context.Context, user *domain.User, letterID uuid.UUID, recipient string) error
}

// =============================================================================
// Implementation
// =============================================================================

type letterService struct {
	queries      *repository.Queries
	provider     ai.Provider
	entitlements EntitlementService
	store        storage.Storage
	emails       email.EmailService
	logger       *slog.Logger
	now          func() time.Time
}

// NewLetterService creates a new LetterService.
//
// Dependencies:
// - queries: sqlc-generated database queries
// - provider: AI backend that writes the letters
// - entitlements: monthly limit enforcement
// - store: snapshot storage for shared letters
// - emails: outbound mail for the send-by-email feature
func NewLetterService(
	queries *repository.Queries,
	provider ai.Provider,
	entitlements EntitlementService,
	store storage.Storage,
	emails email.EmailService,
	logger *slog.Logger,
) LetterService {
	return &letterService{
		queries:      queries,
		provider:     provider,
		entitlements: entitlements,
		store:        store,
		emails:       emails,
		logger:       logger,
		now:          time.Now,
	}
}

// =============================================================================
// Generate Implementation
// =============================================================================

// Generate produces and persists a new cover letter.
//
// Flow:
// 1. Normalize and validate the request parameters
// 2. Check the entitlement (free accounts: 3 letters per UTC calendar month)
// 3. Call the AI provider
// 4. Persist the letter with its token usage (best effort; a failed save
//    is logged and the generated text is still returned)
// 5. Return the letter and the entitlement state after this generation
//
// The entitlement check and the insert are not transactional. Two racing
// requests can both pass the check at the boundary; the worst case is one
// extra free letter, which we accept over locking the user row.
func (s *letterService) Generate(ctx context.Context, user *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error) {
	const op = "LetterService.Generate"

	params.Normalize()
	if err := params.Validate(op); err != nil {
		return nil, err
	}

	entitlement, err := s.entitlements.Check(ctx, user)
	if err != nil {
		if domain.ErrorCode(err) == domain.EPAYMENT {
			metrics.QuotaDenialsTotal.Inc()
		}
		return nil, err
	}

	result, err := s.provider.GenerateLetter(ctx, ai.GenerateLetterParams{
		JobTitle:        params.JobTitle,
		CompanyName:     params.CompanyName,
		UserInfo:        params.UserInfo,
		Tone:            params.Tone,
		ExperienceLevel: params.ExperienceLevel,
		Language:        params.Language,
	})
	if err != nil {
		metrics.GenerationFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, mapProviderError(op, err)
	}

	metrics.AITokensTotal.WithLabelValues("prompt").Add(float64(result.PromptTokens))
	metrics.AITokensTotal.WithLabelValues("completion").Add(float64(result.CompletionTokens))

	// History is best effort. The user already paid for the provider call
	// in tokens and wait time, so a failed insert must not discard the
	// text; the letter is returned from memory and only the save is lost.
	letter := &domain.CoverLetter{
		ID:              uuid.New(),
		UserID:          user.ID,
		Title:           params.LetterTitle(),
		Content:         result.Text,
		Tone:            params.Tone,
		ExperienceLevel: params.ExperienceLevel,
		Language:        params.Language,
		TokensUsed:      result.TotalTokens,
		CreatedAt:       s.now(),
	}

	requestParams, _ := json.Marshal(params)
	repoLetter, err := s.queries.CreateCoverLetter(ctx, repository.CreateCoverLetterParams{
		UserID:          user.ID,
		Title:           letter.Title,
		Content:         result.Text,
		Tone:            params.Tone,
		ExperienceLevel: params.ExperienceLevel,
		Language:        params.Language,
		TokensUsed:      int32(result.TotalTokens),
		RequestParams:   pqtype.NullRawMessage{RawMessage: requestParams, Valid: len(requestParams) > 0},
	})
	if err != nil {
		metrics.GenerationFailuresTotal.WithLabelValues("persistence").Inc()
		s.logger.Error("failed to save cover letter, returning unsaved result",
			"user_id", user.ID,
			"error", err,
		)
	} else {
		letter = repoLetterToDomain(repoLetter)
	}

	metrics.LettersGeneratedTotal.Inc()

	s.logger.Info("cover letter generated",
		"user_id", user.ID,
		"letter_id", letter.ID,
		"model", result.Model,
		"tokens", result.TotalTokens,
		"duration", result.Duration,
	)

	// Reflect this generation in the returned usage count.
	after := *entitlement
	if !after.Unmetered {
		after.Used++
	}

	return &domain.GenerationOutcome{
		Letter:      letter,
		Entitlement: after,
	}, nil
}

// =============================================================================
// History Implementation
// =============================================================================

// List returns the user's letters, newest first.
func (s *letterService) List(ctx context.Context, userID uuid.UUID) ([]domain.CoverLetter, error) {
	const op = "LetterService.List"

	repoLetters, err := s.queries.ListCoverLettersByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list cover letters")
	}

	letters := make([]domain.CoverLetter, 0, len(repoLetters))
	for _, rl := range repoLetters {
		letters = append(letters, *repoLetterToDomain(rl))
	}

	return letters, nil
}

// Get retrieves one of the user's letters.
func (s *letterService) Get(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error) {
	const op = "LetterService.Get"

	repoLetter, err := s.queries.GetCoverLetterByID(ctx, letterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "cover letter", letterID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve cover letter")
	}

	// Ownership check reports not-found rather than forbidden so letter
	// IDs cannot be probed across accounts.
	if repoLetter.UserID != userID {
		return nil, domain.NotFound(op, "cover letter", letterID.String())
	}

	return repoLetterToDomain(repoLetter), nil
}

// Delete removes one of the user's letters.
func (s *letterService) Delete(ctx context.Context, userID, letterID uuid.UUID) error {
	const op = "LetterService.Delete"

	deleted, err := s.queries.DeleteCoverLetter(ctx, repository.DeleteCoverLetterParams{
		ID:     letterID,
		UserID: userID,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to delete cover letter")
	}
	if deleted == 0 {
		return domain.NotFound(op, "cover letter", letterID.String())
	}

	s.logger.Info("cover letter deleted", "user_id", userID, "letter_id", letterID)

	return nil
}

// =============================================================================
// Share Implementation
// =============================================================================

// Share assigns a public share ID to a letter and stores an HTML snapshot.
func (s *letterService) Share(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error) {
	const op = "LetterService.Share"

	letter, err := s.Get(ctx, userID, letterID)
	if err != nil {
		return nil, err
	}

	// Sharing is idempotent - reuse the existing link.
	if letter.IsShared() {
		return letter, nil
	}

	shareID := uuid.New()
	repoLetter, err := s.queries.SetCoverLetterShareID(ctx, repository.SetCoverLetterShareIDParams{
		ID:      letterID,
		ShareID: uuid.NullUUID{UUID: shareID, Valid: true},
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to assign share ID")
	}

	letter = repoLetterToDomain(repoLetter)

	// Store a standalone HTML snapshot for the public link. The database
	// row remains the source of truth, so a snapshot failure is logged
	// but does not fail the share.
	snapshot := renderShareSnapshot(letter)
	err = s.store.Put(ctx, storage.SnapshotKey(shareID), strings.NewReader(snapshot), storage.PutOptions{
		ContentType: "text/html; charset=utf-8",
		Overwrite:   true,
		Public:      true,
	})
	if err != nil {
		s.logger.Warn("failed to store share snapshot", "letter_id", letterID, "error", err)
	}

	s.logger.Info("cover letter shared", "user_id", userID, "letter_id", letterID, "share_id", shareID)

	return letter, nil
}

// GetShared retrieves a letter by its public share ID.
func (s *letterService) GetShared(ctx context.Context, shareID uuid.UUID) (*domain.CoverLetter, error) {
	const op = "LetterService.GetShared"

	repoLetter, err := s.queries.GetCoverLetterByShareID(ctx, uuid.NullUUID{UUID: shareID, Valid: true})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "shared letter", shareID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve shared letter")
	}

	return repoLetterToDomain(repoLetter), nil
}

// =============================================================================
// Analytics Implementation
// =============================================================================

// Analytics summarizes the user's generation history.
func (s *letterService) Analytics(ctx context.Context, user *domain.User) (*domain.Analytics, error) {
	const op = "LetterService.Analytics"

	total, err := s.queries.CountCoverLettersByUser(ctx, user.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to count cover letters")
	}

	tokens, err := s.queries.SumTokensByUser(ctx, user.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to sum token usage")
	}

	toneRows, err := s.queries.CountLettersByTone(ctx, user.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to group letters by tone")
	}

	languageRows, err := s.queries.CountLettersByLanguage(ctx, user.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to group letters by language")
	}

	entitlement, err := s.entitlements.Usage(ctx, user)
	if err != nil {
		return nil, err
	}

	byTone := make([]domain.UsageBucket, 0, len(toneRows))
	for _, row := range toneRows {
		byTone = append(byTone, domain.UsageBucket{Key: row.Tone, Count: row.Count})
	}

	byLanguage := make([]domain.UsageBucket, 0, len(languageRows))
	for _, row := range languageRows {
		byLanguage = append(byLanguage, domain.UsageBucket{Key: row.Language, Count: row.Count})
	}

	return &domain.Analytics{
		TotalLetters: total,
		TotalTokens:  tokens,
		MonthlyUsage: entitlement.Used,
		MonthlyLimit: entitlement.Limit,
		Unmetered:    entitlement.Unmetered,
		Plan:         user.Plan(s.now()),
		ByTone:       byTone,
		ByLanguage:   byLanguage,
	}, nil
}

// =============================================================================
// EmailLetter Implementation
// =============================================================================

// EmailLetter sends one of the user's letters to a recipient address.
func (s *letterService) EmailLetter(ctx context.Context, user *domain.User, letterID uuid.UUID, recipient string) error {
	const op = "LetterService.EmailLetter"

	recipient = strings.ToLower(strings.TrimSpace(recipient))
	if err := validateEmail(recipient); err != nil {
		return domain.Wrap(err, domain.EINVALID, op, "Invalid recipient address")
	}

	letter, err := s.Get(ctx, user.ID, letterID)
	if err != nil {
		return err
	}

	err = s.emails.SendCoverLetterEmail(ctx, recipient, user.DisplayName(), letter.Title, letter.Content)
	if err != nil {
		return domain.Internal(err, op, "Failed to send cover letter email")
	}

	s.logger.Info("cover letter emailed", "user_id", user.ID, "letter_id", letterID)

	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// mapProviderError translates AI provider failures into domain errors.
func mapProviderError(op string, err error) error {
	switch {
	case errors.Is(err, ai.EAIRateLimit):
		return domain.RateLimit(op)
	case errors.Is(err, ai.EAIQuota), errors.Is(err, ai.EAIUnavailable), errors.Is(err, ai.EAITimeout):
		return domain.Upstream(err, op, "The letter writer is temporarily unavailable. Please try again later.")
	default:
		return domain.Internal(err, op, "Failed to generate cover letter")
	}
}

// failureReason labels a provider error for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ai.EAIRateLimit):
		return "rate_limit"
	case errors.Is(err, ai.EAIQuota):
		return "quota"
	case errors.Is(err, ai.EAITimeout):
		return "timeout"
	case errors.Is(err, ai.EAIUnavailable):
		return "unavailable"
	case errors.Is(err, ai.EAIUnauthorized):
		return "unauthorized"
	default:
		return "other"
	}
}

// repoLetterToDomain converts a repository.CoverLetter to domain.CoverLetter.
func repoLetterToDomain(l repository.CoverLetter) *domain.CoverLetter {
	var shareID *uuid.UUID
	if l.ShareID.Valid {
		id := l.ShareID.UUID
		shareID = &id
	}

	var createdAt time.Time
	if l.CreatedAt.Valid {
		createdAt = l.CreatedAt.Time
	}

	return &domain.CoverLetter{
		ID:              l.ID,
		UserID:          l.UserID,
		Title:           l.Title,
		Content:         l.Content,
		Tone:            l.Tone,
		ExperienceLevel: l.ExperienceLevel,
		Language:        l.Language,
		TokensUsed:      int(l.TokensUsed),
		ShareID:         shareID,
		CreatedAt:       createdAt,
	}
}

// renderShareSnapshot produces the standalone HTML page stored for a
// public share link.
func renderShareSnapshot(letter *domain.CoverLetter) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(htmlEscape(letter.Title))
	b.WriteString("</title>\n</head>\n<body>\n<h1>")
	b.WriteString(htmlEscape(letter.Title))
	b.WriteString("</h1>\n<pre>")
	b.WriteString(htmlEscape(letter.Content))
	b.WriteString("</pre>\n</body>\n</html>\n")
	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

// Ensure letterService implements LetterService
var _ LetterService = (*letterService)(nil)
