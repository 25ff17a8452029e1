package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/models"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

// maxWebhookBodyBytes caps the webhook payload read from Stripe
const maxWebhookBodyBytes = 65536

// BillingService defines the billing operations used by BillingHandler
type BillingService interface {
	CreateCheckout(ctx context.Context, identity models.Identity) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// BillingHandler serves checkout sessions and Stripe webhooks
type BillingHandler struct {
	service BillingService
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(service BillingService, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		logger:  logger,
	}
}

// CheckoutResponse carries the hosted checkout URL
type CheckoutResponse struct {
	URL string `json:"url"`
}

// WebhookResponse acknowledges a processed webhook
type WebhookResponse struct {
	Received bool `json:"received"`
}

// RegisterRoutes registers the authenticated checkout route
func (h *BillingHandler) RegisterRoutes(router chi.Router) {
	router.Post("/stripe/stripe-checkout", h.CreateCheckout) // POST /stripe/stripe-checkout
}

// RegisterWebhookRoutes registers the webhook route. Stripe calls it without
// a session token so it must sit outside the identity middleware.
func (h *BillingHandler) RegisterWebhookRoutes(router chi.Router) {
	router.Post("/webhook/order", h.Webhook) // POST /webhook/order
}

// CreateCheckout starts a Pro subscription checkout for the caller
//
// @Summary Create a subscription checkout session
// @Produce json
// @Success 200 {object} CheckoutResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Failure 503 {object} pkghttp.ErrorResponse
// @Router /stripe/stripe-checkout [post]
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteMessage(w, auth.VerificationFailedMessage)
		return
	}

	url, err := h.service.CreateCheckout(r.Context(), identity)
	if err != nil {
		if errors.Is(err, models.ErrBillingConfig) {
			pkghttp.WriteError(w, http.StatusServiceUnavailable, "billing_unavailable", "Billing is not configured")
			return
		}
		h.logger.Error("failed to create checkout session",
			slog.String("user_id", identity.UserID),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to create checkout session")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CheckoutResponse{URL: url})
}

// Webhook verifies and applies a Stripe event
//
// @Summary Stripe webhook receiver
// @Accept json
// @Produce json
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} pkghttp.MessageResponse
// @Failure 404 {object} pkghttp.MessageResponse
// @Router /webhook/order [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		pkghttp.WriteJSON(w, http.StatusBadRequest, pkghttp.MessageResponse{Message: "Error reading request body"})
		return
	}

	err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		pkghttp.WriteJSON(w, http.StatusOK, WebhookResponse{Received: true})
	case errors.Is(err, models.ErrWebhookSecretMissing):
		pkghttp.WriteJSON(w, http.StatusNotFound, pkghttp.MessageResponse{Message: models.ErrWebhookSecretMissing.Error()})
	case errors.Is(err, models.ErrSignatureMissing):
		pkghttp.WriteJSON(w, http.StatusNotFound, pkghttp.MessageResponse{Message: models.ErrSignatureMissing.Error()})
	case errors.Is(err, models.ErrSignatureInvalid):
		h.logger.Warn("stripe webhook rejected", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusBadRequest, pkghttp.MessageResponse{Message: models.ErrSignatureInvalid.Error()})
	case errors.Is(err, models.ErrUnknownPayload):
		h.logger.Warn("stripe webhook payload not usable", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusBadRequest, pkghttp.MessageResponse{Message: "Unrecognized webhook payload"})
	default:
		h.logger.Error("stripe webhook processing failed", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusInternalServerError, pkghttp.MessageResponse{Message: "Failed to process webhook"})
	}
}
