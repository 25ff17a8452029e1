package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/breachwatch/internal/handlers"
	"github.com/BradenHooton/breachwatch/internal/models"
)

func TestCreateCheckout_Success(t *testing.T) {
	mock := &handlers.MockBillingService{
		CreateCheckoutFunc: func(ctx context.Context, identity models.Identity) (string, error) {
			assert.Equal(t, "user1", identity.UserID)
			return "https://checkout.stripe.com/c/pay/cs_test_123", nil
		},
	}

	handler := handlers.NewBillingHandler(mock, slog.Default())
	req := handlers.WithIdentityContext(httptest.NewRequest("POST", "/api/stripe/stripe-checkout", nil), "user1", models.TierFree)

	w := httptest.NewRecorder()
	handler.CreateCheckout(w, req)

	var resp handlers.CheckoutResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", resp.URL)
}

func TestCreateCheckout_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorCode string
	}{
		{"not configured", models.ErrBillingConfig, http.StatusServiceUnavailable, "billing_unavailable"},
		{"stripe failure", errors.New("card_declined"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &handlers.MockBillingService{
				CreateCheckoutFunc: func(ctx context.Context, identity models.Identity) (string, error) {
					return "", tt.err
				},
			}

			handler := handlers.NewBillingHandler(mock, slog.Default())
			req := handlers.WithIdentityContext(httptest.NewRequest("POST", "/api/stripe/stripe-checkout", nil), "user1", models.TierFree)

			w := httptest.NewRecorder()
			handler.CreateCheckout(w, req)

			handlers.AssertErrorResponse(t, w, tt.status, tt.errorCode)
		})
	}
}

func TestWebhook_PassesPayloadAndSignature(t *testing.T) {
	var gotPayload, gotSignature string
	mock := &handlers.MockBillingService{
		HandleWebhookFunc: func(ctx context.Context, payload []byte, signature string) error {
			gotPayload = string(payload)
			gotSignature = signature
			return nil
		},
	}

	handler := handlers.NewBillingHandler(mock, slog.Default())
	req := httptest.NewRequest("POST", "/api/webhook/order", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")

	w := httptest.NewRecorder()
	handler.Webhook(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, `{"id":"evt_1"}`, gotPayload)
	assert.Equal(t, "t=1,v1=abc", gotSignature)
}

func TestWebhook_LimitsBody(t *testing.T) {
	var size int
	mock := &handlers.MockBillingService{
		HandleWebhookFunc: func(ctx context.Context, payload []byte, signature string) error {
			size = len(payload)
			return nil
		},
	}

	handler := handlers.NewBillingHandler(mock, slog.Default())
	req := httptest.NewRequest("POST", "/api/webhook/order", strings.NewReader(strings.Repeat("a", 70000)))

	handler.Webhook(httptest.NewRecorder(), req)

	assert.Equal(t, 65536, size)
}

func TestWebhook_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"secret missing", models.ErrWebhookSecretMissing, http.StatusNotFound, "STRIPE_WEBHOOK_SECRET not found"},
		{"signature missing", models.ErrSignatureMissing, http.StatusNotFound, "stripe signature not found"},
		{"bad signature", fmt.Errorf("%w: no valid signature", models.ErrSignatureInvalid), http.StatusBadRequest, "something is wrong in webhooks"},
		{"bad payload", fmt.Errorf("%w: missing customer id", models.ErrUnknownPayload), http.StatusBadRequest, "Unrecognized webhook payload"},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "Failed to process webhook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &handlers.MockBillingService{
				HandleWebhookFunc: func(ctx context.Context, payload []byte, signature string) error {
					return tt.err
				},
			}

			handler := handlers.NewBillingHandler(mock, slog.Default())
			req := httptest.NewRequest("POST", "/api/webhook/order", strings.NewReader(`{}`))

			w := httptest.NewRecorder()
			handler.Webhook(w, req)

			var resp map[string]string
			handlers.AssertJSONResponse(t, w, tt.status, &resp)
			assert.Equal(t, tt.message, resp["message"])
		})
	}
}
