package models

import (
	"time"
)

// Tier is the subscription level that gates quota enforcement.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPro
}

type User struct {
	ID               string
	ExternalID       string // Subject issued by the identity provider
	Email            string
	Subscription     Tier
	StripeCustomerID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
