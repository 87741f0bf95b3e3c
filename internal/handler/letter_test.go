package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mpettersen/lettersmith/internal/domain"
)

// =============================================================================
// Mock LetterService Implementation
// =============================================================================

type mockLetterService struct {
	GenerateFunc    func(ctx context.Context, user *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error)
	ListFunc        func(ctx context.Context, userID uuid.UUID) ([]domain.CoverLetter, error)
	GetFunc         func(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error)
	DeleteFunc      func(ctx context.Context, userID, letterID uuid.UUID) error
	ShareFunc       func(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error)
	GetSharedFunc   func(ctx context.Context, shareID uuid.UUID) (*domain.CoverLetter, error)
	AnalyticsFunc   func(ctx context.Context, user *domain.User) (*domain.Analytics, error)
	EmailLetterFunc func(ctx context.Context, user *domain.User, letterID uuid.UUID, recipient string) error
}

func (m *mockLetterService) Generate(ctx context.Context, user *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, user, params)
	}
	return nil, errors.New("GenerateFunc not implemented")
}

func (m *mockLetterService) List(ctx context.Context, userID uuid.UUID) ([]domain.CoverLetter, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return nil, errors.New("ListFunc not implemented")
}

func (m *mockLetterService) Get(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, letterID)
	}
	return nil, errors.New("GetFunc not implemented")
}

func (m *mockLetterService) Delete(ctx context.Context, userID, letterID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, letterID)
	}
	return errors.New("DeleteFunc not implemented")
}

func (m *mockLetterService) Share(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error) {
	if m.ShareFunc != nil {
		return m.ShareFunc(ctx, userID, letterID)
	}
	return nil, errors.New("ShareFunc not implemented")
}

func (m *mockLetterService) GetShared(ctx context.Context, shareID uuid.UUID) (*domain.CoverLetter, error) {
	if m.GetSharedFunc != nil {
		return m.GetSharedFunc(ctx, shareID)
	}
	return nil, errors.New("GetSharedFunc not implemented")
}

func (m *mockLetterService) Analytics(ctx context.Context, user *domain.User) (*domain.Analytics, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, user)
	}
	return nil, errors.New("AnalyticsFunc not implemented")
}

func (m *mockLetterService) EmailLetter(ctx context.Context, user *domain.User, letterID uuid.UUID, recipient string) error {
	if m.EmailLetterFunc != nil {
		return m.EmailLetterFunc(ctx, user, letterID, recipient)
	}
	return errors.New("EmailLetterFunc not implemented")
}

// =============================================================================
// Mock EntitlementService Implementation
// =============================================================================

type mockEntitlementService struct {
	UsageFunc func(ctx context.Context, user *domain.User) (*domain.Entitlement, error)
	CheckFunc func(ctx context.Context, user *domain.User) (*domain.Entitlement, error)
}

func (m *mockEntitlementService) Usage(ctx context.Context, user *domain.User) (*domain.Entitlement, error) {
	if m.UsageFunc != nil {
		return m.UsageFunc(ctx, user)
	}
	return nil, errors.New("UsageFunc not implemented")
}

func (m *mockEntitlementService) Check(ctx context.Context, user *domain.User) (*domain.Entitlement, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, user)
	}
	return nil, errors.New("CheckFunc not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

func newTestLetterHandler(letters *mockLetterService, entitlements *mockEntitlementService) *LetterHandler {
	if entitlements == nil {
		entitlements = &mockEntitlementService{}
	}
	return NewLetterHandler(letters, entitlements, newTestLogger())
}

func testLetter(owner uuid.UUID) *domain.CoverLetter {
	return &domain.CoverLetter{
		ID:              uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		UserID:          owner,
		Title:           "Backend Engineer at Acme",
		Content:         "Dear Hiring Manager,\n\nI am excited to apply.",
		Tone:            "professional",
		ExperienceLevel: "mid-level",
		Language:        "en",
		TokensUsed:      512,
		CreatedAt:       time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// Generate Tests
// =============================================================================

func TestGenerate_Success(t *testing.T) {
	user := testUser()
	letter := testLetter(user.ID)

	letters := &mockLetterService{
		GenerateFunc: func(ctx context.Context, u *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error) {
			if params.JobTitle != "Backend Engineer" {
				t.Errorf("jobTitle = %q, want Backend Engineer", params.JobTitle)
			}
			return &domain.GenerationOutcome{
				Letter:      letter,
				Entitlement: domain.Entitlement{Allowed: true, Used: 2, Limit: 3},
			}, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	body := strings.NewReader(`{"jobTitle":"Backend Engineer","companyName":"Acme","userInfo":"5 years of Go"}`)
	req := withUser(httptest.NewRequest("POST", "/generate", body), user)
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CoverLetter  string `json:"coverLetter"`
		Title        string `json:"title"`
		MonthlyUsage int64  `json:"monthlyUsage"`
		Limit        int64  `json:"limit"`
		TokensUsed   int    `json:"tokensUsed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.CoverLetter == "" {
		t.Error("coverLetter is empty")
	}
	if resp.Title != "Backend Engineer at Acme" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.MonthlyUsage != 2 || resp.Limit != 3 {
		t.Errorf("usage = %d/%d, want 2/3", resp.MonthlyUsage, resp.Limit)
	}
	if resp.TokensUsed != 512 {
		t.Errorf("tokensUsed = %d, want 512", resp.TokensUsed)
	}
}

func TestGenerate_QuotaExceeded_Returns402WithUsage(t *testing.T) {
	user := testUser()

	letters := &mockLetterService{
		GenerateFunc: func(ctx context.Context, u *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error) {
			return nil, domain.QuotaExceeded("LetterService.Generate", 3, 3)
		},
	}
	entitlements := &mockEntitlementService{
		UsageFunc: func(ctx context.Context, u *domain.User) (*domain.Entitlement, error) {
			return &domain.Entitlement{Allowed: false, Used: 3, Limit: 3}, nil
		},
	}

	handler := newTestLetterHandler(letters, entitlements)

	body := strings.NewReader(`{"jobTitle":"Backend Engineer","companyName":"Acme","userInfo":"5 years of Go"}`)
	req := withUser(httptest.NewRequest("POST", "/generate", body), user)
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status code = %d, want 402; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error        string `json:"error"`
		MonthlyUsage int64  `json:"monthlyUsage"`
		Limit        int64  `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.MonthlyUsage != 3 || resp.Limit != 3 {
		t.Errorf("usage = %d/%d, want 3/3", resp.MonthlyUsage, resp.Limit)
	}
	if !strings.Contains(resp.Error, "Upgrade to Pro") {
		t.Errorf("error message should mention the upgrade path: %q", resp.Error)
	}
}

func TestGenerate_ValidationError_Returns400WithFields(t *testing.T) {
	user := testUser()

	letters := &mockLetterService{
		GenerateFunc: func(ctx context.Context, u *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error) {
			params.Normalize()
			return nil, params.Validate("LetterService.Generate")
		},
	}

	handler := newTestLetterHandler(letters, nil)

	body := strings.NewReader(`{"companyName":"Acme"}`)
	req := withUser(httptest.NewRequest("POST", "/generate", body), user)
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "jobTitle") {
		t.Errorf("response should name the missing field: %s", rec.Body.String())
	}
}

func TestGenerate_Unauthenticated(t *testing.T) {
	handler := newTestLetterHandler(&mockLetterService{}, nil)

	req := httptest.NewRequest("POST", "/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want 401", rec.Code)
	}
}

func TestGenerateInLanguage_PathOverridesBody(t *testing.T) {
	user := testUser()

	var gotLanguage string
	letters := &mockLetterService{
		GenerateFunc: func(ctx context.Context, u *domain.User, params domain.GenerateParams) (*domain.GenerationOutcome, error) {
			gotLanguage = params.Language
			return &domain.GenerationOutcome{
				Letter:      testLetter(u.ID),
				Entitlement: domain.Entitlement{Allowed: true, Used: 1, Limit: 3},
			}, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	body := strings.NewReader(`{"jobTitle":"Backend Engineer","companyName":"Acme","userInfo":"5 years of Go","language":"en"}`)
	req := withUser(httptest.NewRequest("POST", "/generate/de", body), user)
	req.SetPathValue("language", "de")
	rec := httptest.NewRecorder()

	handler.GenerateInLanguage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if gotLanguage != "de" {
		t.Errorf("language = %q, want de (path value wins)", gotLanguage)
	}
}

// =============================================================================
// History Tests
// =============================================================================

func TestList_ReturnsLetters(t *testing.T) {
	user := testUser()

	letters := &mockLetterService{
		ListFunc: func(ctx context.Context, userID uuid.UUID) ([]domain.CoverLetter, error) {
			return []domain.CoverLetter{*testLetter(userID)}, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	req := withUser(httptest.NewRequest("GET", "/coverletters", nil), user)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestGet_MalformedID_NotFound(t *testing.T) {
	handler := newTestLetterHandler(&mockLetterService{}, nil)

	req := withUser(httptest.NewRequest("GET", "/coverletters/not-a-uuid", nil), testUser())
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", rec.Code)
	}
}

func TestDelete_Success(t *testing.T) {
	user := testUser()
	letter := testLetter(user.ID)

	deleted := false
	letters := &mockLetterService{
		DeleteFunc: func(ctx context.Context, userID, letterID uuid.UUID) error {
			deleted = true
			if letterID != letter.ID {
				t.Errorf("letterID = %s, want %s", letterID, letter.ID)
			}
			return nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	req := withUser(httptest.NewRequest("DELETE", "/coverletters/"+letter.ID.String(), nil), user)
	req.SetPathValue("id", letter.ID.String())
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if !deleted {
		t.Error("delete service method was not called")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status code = %d, want 204", rec.Code)
	}
}

func TestDownload_PlainTextAttachment(t *testing.T) {
	user := testUser()
	letter := testLetter(user.ID)

	letters := &mockLetterService{
		GetFunc: func(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error) {
			return letter, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	req := withUser(httptest.NewRequest("GET", "/coverletters/"+letter.ID.String()+"/download", nil), user)
	req.SetPathValue("id", letter.ID.String())
	rec := httptest.NewRecorder()

	handler.Download(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
	if rec.Body.String() != letter.Content {
		t.Error("download body should be the letter content")
	}
}

// =============================================================================
// Share Tests
// =============================================================================

func TestShare_ReturnsShareLink(t *testing.T) {
	user := testUser()
	letter := testLetter(user.ID)
	shareID := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	letter.ShareID = &shareID

	letters := &mockLetterService{
		ShareFunc: func(ctx context.Context, userID, letterID uuid.UUID) (*domain.CoverLetter, error) {
			return letter, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	req := withUser(httptest.NewRequest("POST", "/coverletters/"+letter.ID.String()+"/share", nil), user)
	req.SetPathValue("id", letter.ID.String())
	rec := httptest.NewRecorder()

	handler.Share(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/share/"+shareID.String()) {
		t.Errorf("response should contain the share URL: %s", rec.Body.String())
	}
}

func TestGetShared_PublicLetterOmitsOwner(t *testing.T) {
	letter := testLetter(uuid.New())
	shareID := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	letter.ShareID = &shareID

	letters := &mockLetterService{
		GetSharedFunc: func(ctx context.Context, id uuid.UUID) (*domain.CoverLetter, error) {
			if id != shareID {
				t.Errorf("shareID = %s, want %s", id, shareID)
			}
			return letter, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	// No authenticated user on purpose
	req := httptest.NewRequest("GET", "/share/"+shareID.String(), nil)
	req.SetPathValue("shareID", shareID.String())
	rec := httptest.NewRecorder()

	handler.GetShared(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), letter.UserID.String()) {
		t.Error("shared response must not expose the owner's user ID")
	}
}

// =============================================================================
// Analytics / Languages Tests
// =============================================================================

func TestAnalytics_ReturnsSummary(t *testing.T) {
	user := testUser()

	letters := &mockLetterService{
		AnalyticsFunc: func(ctx context.Context, u *domain.User) (*domain.Analytics, error) {
			return &domain.Analytics{
				TotalLetters: 7,
				TotalTokens:  3584,
				MonthlyUsage: 2,
				MonthlyLimit: 3,
				Plan:         "free",
				ByTone:       []domain.UsageBucket{{Key: "professional", Count: 7}},
			}, nil
		},
	}

	handler := newTestLetterHandler(letters, nil)

	req := withUser(httptest.NewRequest("GET", "/analytics", nil), user)
	rec := httptest.NewRecorder()

	handler.Analytics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var resp domain.Analytics
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.TotalLetters != 7 {
		t.Errorf("totalLetters = %d, want 7", resp.TotalLetters)
	}
}

func TestLanguages_ListsSupportedLanguages(t *testing.T) {
	handler := newTestLetterHandler(&mockLetterService{}, nil)

	req := httptest.NewRequest("GET", "/languages", nil)
	rec := httptest.NewRecorder()

	handler.Languages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var resp struct {
		Languages []languageEntry `json:"languages"`
		Default   string          `json:"default"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(resp.Languages) != len(domain.Languages) {
		t.Fatalf("got %d languages, want %d", len(resp.Languages), len(domain.Languages))
	}
	if resp.Default != "en" {
		t.Errorf("default = %q, want en", resp.Default)
	}

	names := map[string]string{}
	for _, entry := range resp.Languages {
		names[entry.Code] = entry.Name
	}
	if names["de"] != "German" {
		t.Errorf("display name for de = %q, want German", names["de"])
	}
}
