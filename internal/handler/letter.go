// This file implements cover letter handlers: generation, history, sharing,
// download, email delivery, and usage analytics.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/mpettersen/lettersmith/internal/auth"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/service"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// LetterHandler handles cover letter HTTP requests.
//
// Routes handled:
// - POST   /generate                    -> Generate
// - POST   /generate/{language}         -> GenerateInLanguage
// - GET    /coverletters                -> List
// - GET    /coverletters/{id}           -> Get
// - DELETE /coverletters/{id}           -> Delete
// - GET    /coverletters/{id}/download  -> Download
// - POST   /coverletters/{id}/share     -> Share
// - POST   /coverletters/{id}/email     -> Email
// - GET    /share/{shareID}             -> GetShared (public)
// - GET    /analytics                   -> Analytics
// - GET    /languages                   -> Languages (public)
type LetterHandler struct {
	letters      service.LetterService
	entitlements service.EntitlementService
	logger       *slog.Logger
}

// NewLetterHandler creates a new LetterHandler with the required dependencies.
func NewLetterHandler(
	letters service.LetterService,
	entitlements service.EntitlementService,
	logger *slog.Logger,
) *LetterHandler {
	return &LetterHandler{
		letters:      letters,
		entitlements: entitlements,
		logger:       logger,
	}
}

// =============================================================================
// Response Types
// =============================================================================

// letterResponse is the public representation of a stored letter.
type letterResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Tone            string    `json:"tone"`
	ExperienceLevel string    `json:"experienceLevel"`
	Language        string    `json:"language"`
	TokensUsed      int       `json:"tokensUsed"`
	ShareID         string    `json:"shareId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toLetterResponse(l *domain.CoverLetter) letterResponse {
	resp := letterResponse{
		ID:              l.ID.String(),
		Title:           l.Title,
		Content:         l.Content,
		Tone:            l.Tone,
		ExperienceLevel: l.ExperienceLevel,
		Language:        l.Language,
		TokensUsed:      l.TokensUsed,
		CreatedAt:       l.CreatedAt,
	}
	if l.ShareID != nil {
		resp.ShareID = l.ShareID.String()
	}
	return resp
}

// =============================================================================
// POST /generate
// =============================================================================

// generateRequest is the JSON body for a generation request.
type generateRequest struct {
	JobTitle        string `json:"jobTitle"`
	CompanyName     string `json:"companyName"`
	UserInfo        string `json:"userInfo"`
	Tone            string `json:"tone"`
	ExperienceLevel string `json:"experienceLevel"`
	Language        string `json:"language"`
}

// Generate produces a new cover letter for the authenticated user.
//
// Flow:
// 1. Decode the request body
// 2. Call letterService.Generate (entitlement check, AI call, persist)
// 3. On EPAYMENT, respond 402 with the current usage numbers
// 4. On success, respond 200 with the letter and updated usage
//
// Response (200):
//
//	{"coverLetter": "...", "title": "...", "monthlyUsage": 2, "limit": 3, "tokensUsed": 512}
//
// Response (402):
//
//	{"error": "...", "monthlyUsage": 3, "limit": 3}
func (h *LetterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "")
}

// GenerateInLanguage produces a letter in the language given in the path.
// The path value overrides any language field in the body.
func (h *LetterHandler) GenerateInLanguage(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, r.PathValue("language"))
}

func (h *LetterHandler) generate(w http.ResponseWriter, r *http.Request, lang string) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("LetterHandler.Generate", "Invalid request body"))
		return
	}
	if lang != "" {
		req.Language = lang
	}

	outcome, err := h.letters.Generate(r.Context(), user, domain.GenerateParams{
		JobTitle:        req.JobTitle,
		CompanyName:     req.CompanyName,
		UserInfo:        req.UserInfo,
		Tone:            req.Tone,
		ExperienceLevel: req.ExperienceLevel,
		Language:        req.Language,
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.EPAYMENT {
			h.quotaExceededResponse(w, r, user, err)
			return
		}
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coverLetter":  outcome.Letter.Content,
		"title":        outcome.Letter.Title,
		"monthlyUsage": outcome.Entitlement.Used,
		"limit":        outcome.Entitlement.Limit,
		"tokensUsed":   outcome.Letter.TokensUsed,
	})
}

// quotaExceededResponse writes the 402 body with the user's current usage.
// The usage lookup may itself fail; the 402 still goes out with the numbers
// carried in the error message rather than turning into a 500.
func (h *LetterHandler) quotaExceededResponse(w http.ResponseWriter, r *http.Request, user *domain.User, quotaErr error) {
	body := map[string]interface{}{
		"error": domain.ErrorMessage(quotaErr),
	}

	if ent, err := h.entitlements.Usage(r.Context(), user); err == nil {
		body["monthlyUsage"] = ent.Used
		body["limit"] = ent.Limit
	} else {
		h.logger.Warn("usage lookup for quota response failed", "error", err, "user_id", user.ID)
		body["monthlyUsage"] = domain.FreeMonthlyLimit
		body["limit"] = domain.FreeMonthlyLimit
	}

	h.logger.Info("generation denied: monthly limit reached",
		"user_id", user.ID,
		"path", r.URL.Path,
	)

	writeJSON(w, http.StatusPaymentRequired, body)
}

// =============================================================================
// GET /coverletters
// =============================================================================

// List returns the user's letters, newest first.
func (h *LetterHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	letters, err := h.letters.List(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	responses := make([]letterResponse, 0, len(letters))
	for i := range letters {
		responses = append(responses, toLetterResponse(&letters[i]))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coverLetters": responses,
		"count":        len(responses),
	})
}

// =============================================================================
// GET /coverletters/{id}
// =============================================================================

// Get returns one of the user's letters.
func (h *LetterHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	letterID, err := parseIDParam(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	letter, err := h.letters.Get(r.Context(), user.ID, letterID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coverLetter": toLetterResponse(letter),
	})
}

// =============================================================================
// DELETE /coverletters/{id}
// =============================================================================

// Delete removes one of the user's letters.
func (h *LetterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	letterID, err := parseIDParam(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.letters.Delete(r.Context(), user.ID, letterID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GET /coverletters/{id}/download
// =============================================================================

// Download streams the letter as a plain text attachment.
func (h *LetterHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	letterID, err := parseIDParam(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	letter, err := h.letters.Get(r.Context(), user.ID, letterID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	filename := fmt.Sprintf("cover-letter-%s.txt", letter.ID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(letter.Content))
}

// =============================================================================
// POST /coverletters/{id}/share
// =============================================================================

// Share assigns a public share link to a letter.
// Sharing an already-shared letter returns the existing link unchanged.
func (h *LetterHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	letterID, err := parseIDParam(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	letter, err := h.letters.Share(r.Context(), user.ID, letterID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shareId":  letter.ShareID.String(),
		"shareUrl": "/share/" + letter.ShareID.String(),
	})
}

// =============================================================================
// POST /coverletters/{id}/email
// =============================================================================

// emailRequest is the JSON body for emailing a letter.
type emailRequest struct {
	Recipient string `json:"recipient"`
}

// Email sends one of the user's letters to a recipient address.
func (h *LetterHandler) Email(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	letterID, err := parseIDParam(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("LetterHandler.Email", "Invalid request body"))
		return
	}

	if err := h.letters.EmailLetter(r.Context(), user, letterID, req.Recipient); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sent": true,
	})
}

// =============================================================================
// GET /share/{shareID} - Public
// =============================================================================

// GetShared returns a letter by its public share ID. No authentication.
// Only the title, content, and creation date are exposed.
func (h *LetterHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	shareID, err := uuid.Parse(r.PathValue("shareID"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NotFound("LetterHandler.GetShared", "shared letter", r.PathValue("shareID")))
		return
	}

	letter, err := h.letters.GetShared(r.Context(), shareID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":     letter.Title,
		"content":   letter.Content,
		"createdAt": letter.CreatedAt,
	})
}

// =============================================================================
// GET /analytics
// =============================================================================

// Analytics summarizes the user's generation history and current usage.
func (h *LetterHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analytics, err := h.letters.Analytics(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

// =============================================================================
// GET /languages - Public
// =============================================================================

// languageEntry describes one supported generation language.
type languageEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the supported generation languages with English display
// names. Unknown tags would fall back to the raw code, but the supported
// set is fixed and all resolve.
func (h *LetterHandler) Languages(w http.ResponseWriter, r *http.Request) {
	namer := display.English.Languages()

	entries := make([]languageEntry, 0, len(domain.Languages))
	for _, code := range domain.Languages {
		name := code
		if tag, err := language.Parse(code); err == nil {
			name = namer.Name(tag)
		}
		entries = append(entries, languageEntry{Code: code, Name: name})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": entries,
		"default":   domain.DefaultLanguage,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// parseIDParam parses a UUID path parameter, returning ENOTFOUND for
// malformed values so probing with junk IDs looks like a missing resource.
func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NotFound("", "cover letter", r.PathValue(name))
	}
	return id, nil
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers letter routes on the provided ServeMux.
// requireUser wraps everything except the public share and languages routes.
// limitGenerate throttles generation bursts per client IP.
func (h *LetterHandler) RegisterRoutes(mux *http.ServeMux, requireUser, limitGenerate func(http.Handler) http.Handler) {
	mux.Handle("POST /generate", requireUser(limitGenerate(http.HandlerFunc(h.Generate))))
	mux.Handle("POST /generate/{language}", requireUser(limitGenerate(http.HandlerFunc(h.GenerateInLanguage))))

	mux.Handle("GET /coverletters", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("GET /coverletters/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /coverletters/{id}", requireUser(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /coverletters/{id}/download", requireUser(http.HandlerFunc(h.Download)))
	mux.Handle("POST /coverletters/{id}/share", requireUser(http.HandlerFunc(h.Share)))
	mux.Handle("POST /coverletters/{id}/email", requireUser(http.HandlerFunc(h.Email)))

	mux.Handle("GET /analytics", requireUser(http.HandlerFunc(h.Analytics)))

	mux.HandleFunc("GET /share/{shareID}", h.GetShared)
	mux.HandleFunc("GET /languages", h.Languages)
}
