package repositories

import (
	"context"

	"github.com/BradenHooton/breachwatch/internal/database"
	"github.com/BradenHooton/breachwatch/internal/models"
)

// AnalyticsRepository persists per-user running totals (analytics_cache)
type AnalyticsRepository struct {
	db *database.DB
}

func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) GetByUserID(ctx context.Context, userID string) (*models.AnalyticsAggregate, error) {
	query := `SELECT user_id, total_searches, total_breached, updated_at FROM analytics_cache WHERE user_id = $1`

	var a models.AnalyticsAggregate
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&a.UserID, &a.TotalSearches, &a.TotalBreached, &a.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

func (r *AnalyticsRepository) Create(ctx context.Context, agg *models.AnalyticsAggregate) error {
	query := `
		INSERT INTO analytics_cache (user_id, total_searches, total_breached, updated_at)
		VALUES ($1, $2, $3, now())
	`
	_, err := r.db.Pool.Exec(ctx, query, agg.UserID, agg.TotalSearches, agg.TotalBreached)
	return database.MapPostgresError(err)
}

// Update writes absolute totals computed by the caller from a prior read
func (r *AnalyticsRepository) Update(ctx context.Context, agg *models.AnalyticsAggregate) error {
	query := `
		UPDATE analytics_cache
		SET total_searches = $1, total_breached = $2, updated_at = now()
		WHERE user_id = $3
	`
	tag, err := r.db.Pool.Exec(ctx, query, agg.TotalSearches, agg.TotalBreached, agg.UserID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
