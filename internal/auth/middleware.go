package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/breachwatch/internal/models"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// IdentityContextKey is the key for storing the resolved caller in context
	IdentityContextKey contextKey = "identity"

	// VerificationFailedMessage is returned when a valid token cannot be
	// mapped onto a local user
	VerificationFailedMessage = "there is something wrong in verifying you"
)

// IdentityResolver maps a verified subject onto a local user and tier
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, externalID, email string) (*models.Identity, error)
}

// Authenticate verifies the bearer token, resolves the caller and stores the
// identity in the request context.
func Authenticate(verifier TokenVerifier, resolver IdentityResolver, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Debug("token verification failed", slog.Any("error", err))
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), claims.Subject, claims.Email)
			if err != nil {
				logger.Error("failed to resolve identity",
					slog.String("subject", claims.Subject),
					slog.Any("error", err))
				pkghttp.WriteMessage(w, VerificationFailedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext extracts the caller identity from ctx
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(models.Identity)
	return identity, ok
}
