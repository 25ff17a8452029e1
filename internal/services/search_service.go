package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/breachwatch/internal/metrics"
	"github.com/BradenHooton/breachwatch/internal/models"
	pkglogger "github.com/BradenHooton/breachwatch/pkg/logger"
)

// BreachLookup is the external breach API as seen by the search pipeline
type BreachLookup interface {
	CheckEmail(ctx context.Context, email string) (*models.BreachResult, error)
	BreachAnalytics(ctx context.Context, email string) (*models.DetailedBreachResult, error)
}

// SearchLedger appends one row per completed search
type SearchLedger interface {
	Insert(ctx context.Context, record *models.SearchRecord) error
}

// AnalyticsStore holds the per-user running totals
type AnalyticsStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.AnalyticsAggregate, error)
	Create(ctx context.Context, agg *models.AnalyticsAggregate) error
	Update(ctx context.Context, agg *models.AnalyticsAggregate) error
}

// SearchResult is what a permitted /search returns to the caller
type SearchResult struct {
	Email    string
	Breached bool
	Count    int
	Breaches json.RawMessage
	Quota    models.UsageCounter
	Outcome  models.RecordOutcome
}

// DetailedSearchResult is what /detailed-search returns to the caller
type DetailedSearchResult struct {
	models.DetailedBreachResult
	Outcome models.RecordOutcome
}

// SearchService runs a search end to end: quota, lookup, ledger, aggregate
type SearchService struct {
	quota     *QuotaService
	lookup    BreachLookup
	ledger    SearchLedger
	analytics AnalyticsStore
	logger    *slog.Logger
	metrics   metrics.Recorder
}

func NewSearchService(
	quota *QuotaService,
	lookup BreachLookup,
	ledger SearchLedger,
	analytics AnalyticsStore,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *SearchService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &SearchService{
		quota:     quota,
		lookup:    lookup,
		ledger:    ledger,
		analytics: analytics,
		logger:    logger,
		metrics:   recorder,
	}
}

// Search checks the caller's quota, looks the address up and records the result.
func (s *SearchService) Search(ctx context.Context, identity models.Identity, email string) (*SearchResult, error) {
	decision, err := s.quota.Authorize(ctx, identity.UserID, identity.Subscription)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrQuotaExceeded
	}

	lookup, err := s.lookup.CheckEmail(ctx, email)
	if err != nil {
		s.metrics.IncLookupFailures("check-email")
		s.logger.Error("breach lookup failed",
			slog.String("user_id", identity.UserID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, wrapLookupError(err)
	}

	outcome, err := s.RecordSearch(ctx, identity.UserID, email, lookup.Breached, lookup.Count)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSearches("search", lookup.Breached)

	return &SearchResult{
		Email:    lookup.Email,
		Breached: lookup.Breached,
		Count:    lookup.Count,
		Breaches: lookup.Breaches,
		Quota:    decision.Counter,
		Outcome:  outcome,
	}, nil
}

// DetailedSearch fetches breach analytics for an address. It does not consume
// the daily quota.
func (s *SearchService) DetailedSearch(ctx context.Context, identity models.Identity, email string) (*DetailedSearchResult, error) {
	detail, err := s.lookup.BreachAnalytics(ctx, email)
	if err != nil {
		s.metrics.IncLookupFailures("breach-analytics")
		s.logger.Error("detailed breach lookup failed",
			slog.String("user_id", identity.UserID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, wrapLookupError(err)
	}

	// Nothing found is answered without touching the ledger
	if !detail.Found {
		s.metrics.IncSearches("detailed", false)
		return &DetailedSearchResult{DetailedBreachResult: *detail}, nil
	}

	outcome, err := s.RecordSearch(ctx, identity.UserID, email, detail.Found, detail.BreachCount)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSearches("detailed", detail.Found)

	return &DetailedSearchResult{DetailedBreachResult: *detail, Outcome: outcome}, nil
}

// RecordSearch appends a ledger row and then folds the result into the user's
// aggregate. The two writes are independent: a ledger failure fails the
// search, an aggregate failure only degrades the outcome.
func (s *SearchService) RecordSearch(ctx context.Context, userID, email string, breached bool, count int) (models.RecordOutcome, error) {
	record := &models.SearchRecord{
		UserID:      userID,
		Email:       email,
		Breached:    breached,
		BreachCount: count,
	}
	if err := s.ledger.Insert(ctx, record); err != nil {
		s.logger.Error("failed to insert search record",
			slog.String("user_id", userID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Bool("breached", breached),
			slog.Int("breach_count", count),
			slog.Any("error", err))
		return models.RecordOutcome{}, fmt.Errorf("%w: %v", models.ErrLedgerWrite, err)
	}

	if err := s.bumpAggregate(ctx, userID, count); err != nil {
		s.metrics.IncAggregateFailures()
		s.logger.Error("failed to update analytics aggregate",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return models.RecordOutcome{Degraded: true, Reason: err.Error()}, nil
	}

	return models.RecordOutcome{}, nil
}

// Usage reports the caller's current quota position and lifetime totals
func (s *SearchService) Usage(ctx context.Context, identity models.Identity) (*models.UsageSummary, error) {
	counter, err := s.quota.Current(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	summary := &models.UsageSummary{
		Subscription:     identity.Subscription,
		SearchCountToday: counter.SearchCountToday,
		DailyLimit:       s.quota.DailyLimit(),
	}

	agg, err := s.analytics.GetByUserID(ctx, identity.UserID)
	switch {
	case err == nil:
		summary.TotalSearches = agg.TotalSearches
		summary.TotalBreached = agg.TotalBreached
	case errors.Is(err, models.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to read analytics aggregate: %w", err)
	}

	return summary, nil
}

func (s *SearchService) bumpAggregate(ctx context.Context, userID string, count int) error {
	agg, err := s.analytics.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("select aggregate: %w", err)
		}
		return s.analytics.Create(ctx, &models.AnalyticsAggregate{
			UserID:        userID,
			TotalSearches: 1,
			TotalBreached: count,
		})
	}

	agg.TotalSearches++
	agg.TotalBreached += count
	if err := s.analytics.Update(ctx, agg); err != nil {
		return fmt.Errorf("update aggregate: %w", err)
	}
	return nil
}

func wrapLookupError(err error) error {
	if errors.Is(err, models.ErrLookupFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrLookupFailed, err)
}
