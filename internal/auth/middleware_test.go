package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockIdentityResolver implements IdentityResolver for testing
type MockIdentityResolver struct {
	ResolveIdentityFunc func(ctx context.Context, externalID, email string) (*models.Identity, error)
	calls               int
}

func (m *MockIdentityResolver) ResolveIdentity(ctx context.Context, externalID, email string) (*models.Identity, error) {
	m.calls++
	if m.ResolveIdentityFunc != nil {
		return m.ResolveIdentityFunc(ctx, externalID, email)
	}
	return &models.Identity{UserID: "user-123", ExternalID: externalID, Email: email, Subscription: models.TierFree}, nil
}

func newTestMiddleware(t *testing.T, resolver IdentityResolver) (func(http.Handler) http.Handler, *TokenManager) {
	t.Helper()
	tm := NewTokenManager("test-secret-key-at-least-32-bytes-long!", "", "")
	return Authenticate(tm, resolver, slog.Default()), tm
}

func TestAuthenticate_ValidToken_InjectsIdentity(t *testing.T) {
	resolver := &MockIdentityResolver{
		ResolveIdentityFunc: func(ctx context.Context, externalID, email string) (*models.Identity, error) {
			assert.Equal(t, "auth0|abc", externalID)
			assert.Equal(t, "user@example.com", email)
			return &models.Identity{UserID: "user-123", ExternalID: externalID, Subscription: models.TierPro}, nil
		},
	}
	mw, tm := newTestMiddleware(t, resolver)

	token, err := tm.GenerateToken("auth0|abc", "user@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	var got models.Identity
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mw(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, found)
	assert.Equal(t, "user-123", got.UserID)
	assert.Equal(t, models.TierPro, got.Subscription)
}

func TestAuthenticate_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &MockIdentityResolver{}
			mw, _ := newTestMiddleware(t, resolver)

			req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler must not run")
			})).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, 0, resolver.calls)
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	mw, tm := newTestMiddleware(t, &MockIdentityResolver{})

	token, err := tm.GenerateToken("auth0|abc", "", -time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	mw(http.NotFoundHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	mw, _ := newTestMiddleware(t, &MockIdentityResolver{})

	other := NewTokenManager("a-completely-different-secret-of-32-bytes", "", "")
	token, err := other.GenerateToken("auth0|abc", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	mw(http.NotFoundHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ResolutionFailure_ReturnsMessage(t *testing.T) {
	resolver := &MockIdentityResolver{
		ResolveIdentityFunc: func(ctx context.Context, externalID, email string) (*models.Identity, error) {
			return nil, errors.New("db down")
		},
	}
	mw, tm := newTestMiddleware(t, resolver)

	token, err := tm.GenerateToken("auth0|abc", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, VerificationFailedMessage, body["message"])
}

func TestIdentityFromContext_Missing(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), models.Identity{UserID: "u1"})
	identity, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", identity.UserID)
}
