package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/models"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

const msgMonitorProOnly = "Email monitoring is only available for Pro users"

// MonitorService defines the monitored-email operations used by MonitorHandler
type MonitorService interface {
	Add(ctx context.Context, identity models.Identity, email string) (*models.MonitoredEmail, error)
	List(ctx context.Context, identity models.Identity) ([]*models.MonitoredEmail, error)
	Remove(ctx context.Context, identity models.Identity, id string) error
}

// MonitorHandler manages the addresses a pro user watches
type MonitorHandler struct {
	service MonitorService
	logger  *slog.Logger
}

// NewMonitorHandler creates a new MonitorHandler
func NewMonitorHandler(service MonitorService, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		service: service,
		logger:  logger,
	}
}

// AddMonitorRequest is the body of POST /monitor/add
type AddMonitorRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// MonitoredEmailResponse represents a monitored email in the HTTP response
type MonitoredEmailResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	LastBreachCount int     `json:"last_breach_count"`
	LastCheckedAt   *string `json:"last_checked_at"`
	CreatedAt       string  `json:"created_at"`
}

// ListMonitoredResponse wraps the caller's monitored emails
type ListMonitoredResponse struct {
	Emails []*MonitoredEmailResponse `json:"emails"`
	Total  int                       `json:"total"`
}

func monitoredModelToResponse(m *models.MonitoredEmail) *MonitoredEmailResponse {
	resp := &MonitoredEmailResponse{
		ID:              m.ID,
		Email:           m.Email,
		LastBreachCount: m.LastBreachCount,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
	if m.LastCheckedAt != nil {
		checked := m.LastCheckedAt.Format(time.RFC3339)
		resp.LastCheckedAt = &checked
	}
	return resp
}

// RegisterRoutes registers the monitor routes with the chi router
func (h *MonitorHandler) RegisterRoutes(router chi.Router) {
	router.Route("/monitor", func(r chi.Router) {
		r.Get("/", h.List)                 // GET /monitor
		r.Post("/add", h.Add)              // POST /monitor/add
		r.Delete("/delete/{id}", h.Remove) // DELETE /monitor/delete/{id}
	})
}

// Add starts monitoring an address for the caller
//
// @Summary Monitor an email address
// @Accept json
// @Param request body AddMonitorRequest true "Monitor request"
// @Produce json
// @Success 201 {object} MonitoredEmailResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /monitor/add [post]
func (h *MonitorHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	var req AddMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	monitored, err := h.service.Add(r.Context(), identity, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProRequired):
			pkghttp.WriteForbidden(w, msgMonitorProOnly)
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email is already being monitored")
		default:
			h.logger.Error("failed to add monitored email",
				slog.String("user_id", identity.UserID),
				slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, monitoredModelToResponse(monitored))
}

// List returns the caller's monitored emails
//
// @Summary List monitored email addresses
// @Produce json
// @Success 200 {object} ListMonitoredResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /monitor [get]
func (h *MonitorHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	rows, err := h.service.List(r.Context(), identity)
	if err != nil {
		h.logger.Error("failed to list monitored emails",
			slog.String("user_id", identity.UserID),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := &ListMonitoredResponse{
		Emails: make([]*MonitoredEmailResponse, len(rows)),
		Total:  len(rows),
	}
	for i, row := range rows {
		resp.Emails[i] = monitoredModelToResponse(row)
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Remove stops monitoring one of the caller's addresses
//
// @Summary Stop monitoring an email address
// @Param id path string true "Monitored email ID"
// @Success 204
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /monitor/delete/{id} [delete]
func (h *MonitorHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Monitored email ID is required")
		return
	}
	// Row IDs are UUIDs; anything else cannot match a row
	if _, err := uuid.Parse(id); err != nil {
		pkghttp.WriteNotFound(w, "Monitored email not found")
		return
	}

	if err := h.service.Remove(r.Context(), identity, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Monitored email not found")
			return
		}
		h.logger.Error("failed to remove monitored email",
			slog.String("user_id", identity.UserID),
			slog.String("id", id),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
