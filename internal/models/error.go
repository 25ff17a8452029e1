package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Search pipeline errors
	ErrQuotaExceeded = errors.New("daily search limit exceeded")
	ErrCounterInit   = errors.New("failed to initialize search counter")
	ErrLookupFailed  = errors.New("breach lookup failed")
	ErrLedgerWrite   = errors.New("failed to record search")

	// Subscription errors
	ErrProRequired    = errors.New("pro subscription required")
	ErrBillingConfig  = errors.New("billing not configured")
	ErrUnknownPayload = errors.New("unrecognized webhook payload")

	// Webhook verification errors
	ErrWebhookSecretMissing = errors.New("STRIPE_WEBHOOK_SECRET not found")
	ErrSignatureMissing     = errors.New("stripe signature not found")
	ErrSignatureInvalid     = errors.New("something is wrong in webhooks")
)
