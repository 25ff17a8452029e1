package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultLeeway = 30 * time.Second

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(tokenString string) (*models.TokenClaims, error)
}

// TokenManager verifies HS256 tokens signed with a shared secret
type TokenManager struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenManager creates a TokenManager. Issuer and audience are enforced
// only when non-empty.
func NewTokenManager(secret, issuer, audience string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		parser: jwt.NewParser(parserOptions([]string{jwt.SigningMethodHS256.Name}, issuer, audience)...),
	}
}

// GenerateToken signs a token for subject. Used by tooling and tests that need
// a session token without the identity provider.
func (tm *TokenManager) GenerateToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates a token, returning its claims
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := tm.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return checkClaims(token, claims)
}

func parserOptions(methods []string, issuer, audience string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func checkClaims(token *jwt.Token, claims *models.TokenClaims) (*models.TokenClaims, error) {
	if !token.Valid {
		return nil, models.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing sub")
	}
	return claims, nil
}
