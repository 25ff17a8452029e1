package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/BradenHooton/breachwatch/internal/services"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithIdentityContext attaches a resolved caller to the request
func WithIdentityContext(req *http.Request, userID string, tier models.Tier) *http.Request {
	identity := models.Identity{
		UserID:       userID,
		ExternalID:   "ext_" + userID,
		Email:        userID + "@example.com",
		Subscription: tier,
	}
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

// WithURLParam sets a chi URL parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertMessage checks a 200 {message} body
func AssertMessage(t *testing.T, w *httptest.ResponseRecorder, expected string) {
	var resp pkghttp.MessageResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, expected, resp.Message)
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockSearchService implements SearchService and UsageService for testing
type MockSearchService struct {
	SearchFunc         func(ctx context.Context, identity models.Identity, email string) (*services.SearchResult, error)
	DetailedSearchFunc func(ctx context.Context, identity models.Identity, email string) (*services.DetailedSearchResult, error)
	UsageFunc          func(ctx context.Context, identity models.Identity) (*models.UsageSummary, error)
}

func (m *MockSearchService) Search(ctx context.Context, identity models.Identity, email string) (*services.SearchResult, error) {
	if m.SearchFunc == nil {
		return &services.SearchResult{Email: email}, nil
	}
	return m.SearchFunc(ctx, identity, email)
}

func (m *MockSearchService) DetailedSearch(ctx context.Context, identity models.Identity, email string) (*services.DetailedSearchResult, error) {
	if m.DetailedSearchFunc == nil {
		return &services.DetailedSearchResult{}, nil
	}
	return m.DetailedSearchFunc(ctx, identity, email)
}

func (m *MockSearchService) Usage(ctx context.Context, identity models.Identity) (*models.UsageSummary, error) {
	if m.UsageFunc == nil {
		return &models.UsageSummary{Subscription: identity.Subscription}, nil
	}
	return m.UsageFunc(ctx, identity)
}

// MockMonitorService implements MonitorService for testing
type MockMonitorService struct {
	AddFunc    func(ctx context.Context, identity models.Identity, email string) (*models.MonitoredEmail, error)
	ListFunc   func(ctx context.Context, identity models.Identity) ([]*models.MonitoredEmail, error)
	RemoveFunc func(ctx context.Context, identity models.Identity, id string) error
}

func (m *MockMonitorService) Add(ctx context.Context, identity models.Identity, email string) (*models.MonitoredEmail, error) {
	if m.AddFunc == nil {
		return nil, models.ErrProRequired
	}
	return m.AddFunc(ctx, identity, email)
}

func (m *MockMonitorService) List(ctx context.Context, identity models.Identity) ([]*models.MonitoredEmail, error) {
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx, identity)
}

func (m *MockMonitorService) Remove(ctx context.Context, identity models.Identity, id string) error {
	if m.RemoveFunc == nil {
		return models.ErrNotFound
	}
	return m.RemoveFunc(ctx, identity, id)
}

// MockBillingService implements BillingService for testing
type MockBillingService struct {
	CreateCheckoutFunc func(ctx context.Context, identity models.Identity) (string, error)
	HandleWebhookFunc  func(ctx context.Context, payload []byte, signature string) error
}

func (m *MockBillingService) CreateCheckout(ctx context.Context, identity models.Identity) (string, error) {
	if m.CreateCheckoutFunc == nil {
		return "", models.ErrBillingConfig
	}
	return m.CreateCheckoutFunc(ctx, identity)
}

func (m *MockBillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.HandleWebhookFunc == nil {
		return nil
	}
	return m.HandleWebhookFunc(ctx, payload, signature)
}
