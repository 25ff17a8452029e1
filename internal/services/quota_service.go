package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/breachwatch/internal/metrics"
	"github.com/BradenHooton/breachwatch/internal/models"
)

// UsageCounterRepository defines the persistence needed by the quota policy
type UsageCounterRepository interface {
	Get(ctx context.Context, userID string) (*models.UsageCounter, error)
	Create(ctx context.Context, counter *models.UsageCounter) error
	Update(ctx context.Context, userID string, count int, lastSearch time.Time) error
}

// QuotaService decides whether a search may proceed and keeps the daily
// counter up to date. Reads and writes are independent statements, so two
// concurrent searches by one user can both pass on the same stale count.
type QuotaService struct {
	repo       UsageCounterRepository
	dailyLimit int
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewQuotaService creates a QuotaService. Free-tier users are denied once their
// stored count is strictly greater than dailyLimit.
func NewQuotaService(repo UsageCounterRepository, dailyLimit int, logger *slog.Logger, recorder metrics.Recorder) *QuotaService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &QuotaService{
		repo:       repo,
		dailyLimit: dailyLimit,
		logger:     logger,
		metrics:    recorder,
		now:        time.Now,
	}
}

// DailyLimit returns the configured free-tier threshold
func (s *QuotaService) DailyLimit() int {
	return s.dailyLimit
}

// Authorize evaluates and consumes one search from the user's daily allowance.
// The increment is persisted before the caller performs the lookup, so a
// failed lookup still costs a search.
func (s *QuotaService) Authorize(ctx context.Context, userID string, tier models.Tier) (*models.QuotaDecision, error) {
	now := s.now()

	counter, created, err := s.loadOrCreate(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if tier != models.TierPro {
		if isStale(counter.LastSearchDate, now) {
			if err := s.repo.Update(ctx, userID, 0, now); err != nil {
				s.logger.Error("failed to reset daily search count",
					slog.String("user_id", userID),
					slog.Any("error", err))
			}
			counter.SearchCountToday = 0
			counter.LastSearchDate = now
		}

		if counter.SearchCountToday > s.dailyLimit {
			s.metrics.IncQuotaDenied(string(models.TierFree))
			s.logger.Info("daily search limit exceeded",
				slog.String("user_id", userID),
				slog.Int("search_count_today", counter.SearchCountToday))
			return &models.QuotaDecision{Allowed: false, Counter: *counter, Limit: s.dailyLimit}, nil
		}
	}

	// A freshly created row already accounts for this search
	if !created {
		counter.SearchCountToday++
		counter.LastSearchDate = now
		if err := s.repo.Update(ctx, userID, counter.SearchCountToday, now); err != nil {
			s.logger.Error("failed to update search count",
				slog.String("user_id", userID),
				slog.Int("search_count", counter.SearchCountToday),
				slog.Any("error", err))
		}
	}

	return &models.QuotaDecision{Allowed: true, Counter: *counter, Limit: s.dailyLimit}, nil
}

// Current returns the user's counter as it applies today, without mutating it.
// A stale counter reads as zero.
func (s *QuotaService) Current(ctx context.Context, userID string) (models.UsageCounter, error) {
	now := s.now()

	counter, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.UsageCounter{UserID: userID}, nil
		}
		return models.UsageCounter{}, fmt.Errorf("failed to read search counter: %w", err)
	}

	if isStale(counter.LastSearchDate, now) {
		counter.SearchCountToday = 0
	}
	return *counter, nil
}

func (s *QuotaService) loadOrCreate(ctx context.Context, userID string, now time.Time) (*models.UsageCounter, bool, error) {
	counter, err := s.repo.Get(ctx, userID)
	if err == nil {
		return counter, false, nil
	}

	// A failed read is treated like a missing row; the insert below then
	// decides whether the request can continue.
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to fetch search counter",
			slog.String("user_id", userID),
			slog.Any("error", err))
	}

	counter = &models.UsageCounter{
		UserID:           userID,
		SearchCountToday: 1,
		LastSearchDate:   now,
	}
	if err := s.repo.Create(ctx, counter); err != nil {
		s.logger.Error("failed to create search counter",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return nil, false, fmt.Errorf("%w: %v", models.ErrCounterInit, err)
	}

	return counter, true, nil
}

// isStale reports whether last falls on an earlier UTC calendar day than now
func isStale(last, now time.Time) bool {
	return utcDay(last).Before(utcDay(now))
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
