package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/models"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

// UsageService reports a caller's quota position
type UsageService interface {
	Usage(ctx context.Context, identity models.Identity) (*models.UsageSummary, error)
}

type UsageHandler struct {
	service UsageService
	logger  *slog.Logger
}

func NewUsageHandler(service UsageService, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		service: service,
		logger:  logger,
	}
}

// UsageResponse represents the caller's quota and lifetime totals
type UsageResponse struct {
	Subscription     string `json:"subscription"`
	SearchCountToday int    `json:"search_count_today"`
	DailyLimit       int    `json:"daily_limit"`
	TotalSearches    int    `json:"total_searches"`
	TotalBreached    int    `json:"total_breached"`
}

func (h *UsageHandler) RegisterRoutes(router chi.Router) {
	router.Get("/usage", h.GetUsage) // GET /usage
}

// GetUsage returns today's search count and the lifetime aggregate
//
// @Summary Current usage
// @Produce json
// @Success 200 {object} UsageResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /usage [get]
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	summary, err := h.service.Usage(r.Context(), identity)
	if err != nil {
		h.logger.Error("failed to load usage",
			slog.String("user_id", identity.UserID),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UsageResponse{
		Subscription:     string(summary.Subscription),
		SearchCountToday: summary.SearchCountToday,
		DailyLimit:       summary.DailyLimit,
		TotalSearches:    summary.TotalSearches,
		TotalBreached:    summary.TotalBreached,
	})
}
