package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/BradenHooton/breachwatch/internal/services"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
	pkglogger "github.com/BradenHooton/breachwatch/pkg/logger"
)

const (
	msgInvalidEmail        = "Invalid email format send correct email"
	msgLimitExceeded       = "Limit exceeded for today"
	msgLookupFailed        = "Failed to fetch breach data from external API"
	msgDetailedLookup      = "Failed to fetch detailed breach data from external API"
	msgCounterInit         = "Failed to initialize search record"
	msgLedgerWrite         = "Failed to insert to searches table"
	msgBreachesFound       = "Breaches found"
	msgNoBreaches          = "No breaches found"
	msgDetailedFound       = "Detailed breaches found"
	msgNoDetailedBreaches  = "No detailed breaches found for this email"
	msgSearchInternal      = "Internal server error during search"
	msgDetailedInternal    = "Internal server error during detailed search"
	emptyBreachesJSONArray = "[]"
)

// SearchService defines the search operations used by SearchHandler
type SearchService interface {
	Search(ctx context.Context, identity models.Identity, email string) (*services.SearchResult, error)
	DetailedSearch(ctx context.Context, identity models.Identity, email string) (*services.DetailedSearchResult, error)
}

// SearchHandler serves breach lookups for authenticated callers
type SearchHandler struct {
	service SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(service SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger,
	}
}

// SearchRequest is the body of both search endpoints
type SearchRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SearchResponse is returned by /search when the provider reports breaches
type SearchResponse struct {
	Email    string          `json:"email"`
	Breaches json.RawMessage `json:"breaches"`
	Message  string          `json:"message"`
	Count    int             `json:"count"`
}

// NoBreachesResponse is returned by /search when the address is clean
type NoBreachesResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// DetailedSearchResponse mirrors the provider's analytics sections
type DetailedSearchResponse struct {
	Message           string          `json:"message"`
	Industries        json.RawMessage `json:"industries"`
	PasswordsStrength json.RawMessage `json:"passwords_strength"`
	RiskScore         json.RawMessage `json:"riskScore"`
	YearwiseBreaches  json.RawMessage `json:"yearwiseBreaches"`
	ExposedBreaches   json.RawMessage `json:"ExposedBreaches"`
	BreachesSummary   json.RawMessage `json:"BreachesSummary"`
}

// RegisterRoutes registers the search routes with the chi router
func (h *SearchHandler) RegisterRoutes(router chi.Router) {
	router.Post("/search", h.Search)                  // POST /search
	router.Post("/detailed-search", h.DetailedSearch) // POST /detailed-search
}

// Search checks the caller's daily quota and looks an address up
//
// @Summary Search an email address for breaches
// @Accept json
// @Param request body SearchRequest true "Search request"
// @Produce json
// @Success 200 {object} SearchResponse
// @Failure 500 {object} pkghttp.MessageResponse
// @Router /search [post]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	result, err := h.service.Search(r.Context(), identity, email)
	if err != nil {
		h.writeSearchError(w, err, msgSearchInternal)
		return
	}

	if !result.Breached {
		pkghttp.WriteJSON(w, http.StatusOK, NoBreachesResponse{Message: msgNoBreaches, Count: 0})
		return
	}

	breaches := result.Breaches
	if len(breaches) == 0 {
		breaches = json.RawMessage(emptyBreachesJSONArray)
	}

	message := msgNoBreaches
	if result.Count > 0 {
		message = msgBreachesFound
	}

	pkghttp.WriteJSON(w, http.StatusOK, SearchResponse{
		Email:    result.Email,
		Breaches: breaches,
		Message:  message,
		Count:    result.Count,
	})
}

// DetailedSearch returns the provider's breach analytics for an address.
// It does not count against the daily quota.
//
// @Summary Detailed breach analytics for an email address
// @Accept json
// @Param request body SearchRequest true "Search request"
// @Produce json
// @Success 200 {object} DetailedSearchResponse
// @Failure 500 {object} pkghttp.MessageResponse
// @Router /detailed-search [post]
func (h *SearchHandler) DetailedSearch(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	result, err := h.service.DetailedSearch(r.Context(), identity, email)
	if err != nil {
		if errors.Is(err, models.ErrLookupFailed) {
			pkghttp.WriteMessage(w, msgDetailedLookup)
			return
		}
		h.writeSearchError(w, err, msgDetailedInternal)
		return
	}

	if !result.Found {
		pkghttp.WriteMessage(w, msgNoDetailedBreaches)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DetailedSearchResponse{
		Message:           msgDetailedFound,
		Industries:        result.Industries,
		PasswordsStrength: result.PasswordsStrength,
		RiskScore:         result.RiskScore,
		YearwiseBreaches:  result.YearwiseBreaches,
		ExposedBreaches:   result.ExposedBreaches,
		BreachesSummary:   result.BreachesSummary,
	})
}

// decodeEmail reads and validates the request body. On failure it has
// already written the response.
func (h *SearchHandler) decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteMessage(w, msgInvalidEmail)
		return "", false
	}

	if err := ValidateRequest(req); err != nil {
		h.logger.Debug("search request rejected",
			slog.String("email", pkglogger.SanitizedEmail(req.Email)),
			slog.String("reason", err.Error()))
		pkghttp.WriteMessage(w, msgInvalidEmail)
		return "", false
	}

	return req.Email, true
}

func (h *SearchHandler) writeSearchError(w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, models.ErrQuotaExceeded):
		pkghttp.WriteMessage(w, msgLimitExceeded)
	case errors.Is(err, models.ErrLookupFailed):
		pkghttp.WriteMessage(w, msgLookupFailed)
	case errors.Is(err, models.ErrCounterInit):
		pkghttp.WriteMessage(w, msgCounterInit)
	case errors.Is(err, models.ErrLedgerWrite):
		pkghttp.WriteMessage(w, msgLedgerWrite)
	default:
		h.logger.Error("search failed", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusInternalServerError, pkghttp.MessageResponse{Message: internalMessage})
	}
}
