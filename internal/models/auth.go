package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims read from identity provider session tokens.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the resolved caller attached to an authenticated request.
type Identity struct {
	UserID       string
	ExternalID   string
	Email        string
	Subscription Tier
}
