package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/breachwatch/internal/handlers"
	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/BradenHooton/breachwatch/internal/services"
)

type staticVerifier struct{}

func (staticVerifier) Verify(token string) (*models.TokenClaims, error) {
	if token != "good-token" {
		return nil, errors.New("bad token")
	}
	return &models.TokenClaims{
		Email:            "caller@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_ext_1"},
	}, nil
}

type staticResolver struct{}

func (staticResolver) ResolveIdentity(ctx context.Context, externalID, email string) (*models.Identity, error) {
	return &models.Identity{UserID: "user1", ExternalID: externalID, Email: email, Subscription: models.TierFree}, nil
}

func newTestRouter(searchLimit int) (http.Handler, *int) {
	webhookCalls := 0
	search := &handlers.MockSearchService{
		SearchFunc: func(ctx context.Context, identity models.Identity, email string) (*services.SearchResult, error) {
			return &services.SearchResult{Email: email}, nil
		},
	}
	billing := &handlers.MockBillingService{
		HandleWebhookFunc: func(ctx context.Context, payload []byte, signature string) error {
			webhookCalls++
			return nil
		},
	}
	logger := slog.Default()

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		RegisterRoutes(api, Dependencies{
			Verifier:                staticVerifier{},
			Resolver:                staticResolver{},
			SearchHandler:           handlers.NewSearchHandler(search, logger),
			MonitorHandler:          handlers.NewMonitorHandler(&handlers.MockMonitorService{}, logger),
			BillingHandler:          handlers.NewBillingHandler(billing, logger),
			UsageHandler:            handlers.NewUsageHandler(search, logger),
			SearchRequestsPerMinute: searchLimit,
			Logger:                  logger,
		})
	})
	return r, &webhookCalls
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	router, _ := newTestRouter(30)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/search"},
		{"POST", "/api/detailed-search"},
		{"GET", "/api/monitor"},
		{"POST", "/api/monitor/add"},
		{"DELETE", "/api/monitor/delete/abc"},
		{"POST", "/api/stripe/stripe-checkout"},
		{"GET", "/api/usage"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRoutes_SearchWithToken(t *testing.T) {
	router, _ := newTestRouter(30)

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"email":"clean@example.com"}`))
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"No breaches found","count":0}`, w.Body.String())
}

func TestRoutes_WebhookIsPublic(t *testing.T) {
	router, calls := newTestRouter(30)

	req := httptest.NewRequest("POST", "/api/webhook/order", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *calls)
}

func TestRoutes_SearchRateLimitedPerUser(t *testing.T) {
	router, _ := newTestRouter(1)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"email":"clean@example.com"}`))
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	// Usage is outside the search limiter
	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
