package models

import "encoding/json"

// BreachResult is the outcome of a check-email lookup.
type BreachResult struct {
	// Email is the address as the provider reports it, or the queried
	// address when the provider does not echo one
	Email    string
	Breached bool
	Count    int
	// Breaches is the provider's raw breaches array, nil when nothing was found
	Breaches json.RawMessage
}

// DetailedBreachResult carries the breach-analytics payload sections verbatim.
type DetailedBreachResult struct {
	Found             bool
	BreachCount       int
	Industries        json.RawMessage
	PasswordsStrength json.RawMessage
	RiskScore         json.RawMessage
	YearwiseBreaches  json.RawMessage
	ExposedBreaches   json.RawMessage
	BreachesSummary   json.RawMessage
}
