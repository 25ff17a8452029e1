package models

import "time"

// UsageCounter is the per-user daily search counter (user_search).
// SearchCountToday only means something relative to LastSearchDate.
type UsageCounter struct {
	UserID           string
	SearchCountToday int
	LastSearchDate   time.Time
}

// SearchRecord is one append-only ledger row (searches).
type SearchRecord struct {
	ID          string
	UserID      string
	Email       string
	Breached    bool
	BreachCount int
	CreatedAt   time.Time
}

// AnalyticsAggregate holds a user's running totals (analytics_cache).
// TotalBreached sums breach counts, not breach events.
type AnalyticsAggregate struct {
	UserID        string
	TotalSearches int
	TotalBreached int
	UpdatedAt     time.Time
}

// QuotaDecision is the result of evaluating a user's daily allowance.
type QuotaDecision struct {
	Allowed bool
	Counter UsageCounter
	Limit   int
}

// RecordOutcome describes how a completed search was persisted.
// Degraded is set when the ledger row was written but the aggregate was not.
type RecordOutcome struct {
	Degraded bool
	Reason   string
}

// UsageSummary is the read-only view of a user's quota and totals.
type UsageSummary struct {
	Subscription     Tier
	SearchCountToday int
	DailyLimit       int
	TotalSearches    int
	TotalBreached    int
}
