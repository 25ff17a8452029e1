package auth

import (
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BradenHooton/breachwatch/internal/models"
)

// JWKSVerifier validates RS-signed tokens issued by an external identity
// provider against its published key set.
type JWKSVerifier struct {
	keyfunc keyfunc.Keyfunc
	parser  *jwt.Parser
}

// NewJWKSVerifier fetches the key set at jwksURL and keeps it refreshed in
// the background.
func NewJWKSVerifier(jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	if strings.TrimSpace(jwksURL) == "" {
		return nil, fmt.Errorf("jwks url must be set")
	}

	keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}

	return newJWKSVerifier(keyProvider, issuer, audience), nil
}

func newJWKSVerifier(kf keyfunc.Keyfunc, issuer, audience string) *JWKSVerifier {
	methods := []string{
		jwt.SigningMethodRS256.Name,
		jwt.SigningMethodRS384.Name,
		jwt.SigningMethodRS512.Name,
	}
	return &JWKSVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(parserOptions(methods, issuer, audience)...),
	}
}

// Verify parses and validates a token, returning its claims
func (v *JWKSVerifier) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return checkClaims(token, claims)
}
