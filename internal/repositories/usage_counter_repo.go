package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/breachwatch/internal/database"
	"github.com/BradenHooton/breachwatch/internal/models"
)

// UsageCounterRepository persists the per-user daily search counter (user_search)
type UsageCounterRepository struct {
	db *database.DB
}

func NewUsageCounterRepository(db *database.DB) *UsageCounterRepository {
	return &UsageCounterRepository{db: db}
}

// Get returns the counter row for a user, or models.ErrNotFound
func (r *UsageCounterRepository) Get(ctx context.Context, userID string) (*models.UsageCounter, error) {
	query := `SELECT id, search_count_today, last_search_date FROM user_search WHERE id = $1`

	var c models.UsageCounter
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.SearchCountToday, &c.LastSearchDate)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func (r *UsageCounterRepository) Create(ctx context.Context, counter *models.UsageCounter) error {
	query := `INSERT INTO user_search (id, search_count_today, last_search_date) VALUES ($1, $2, $3)`

	_, err := r.db.Pool.Exec(ctx, query, counter.UserID, counter.SearchCountToday, counter.LastSearchDate)
	return database.MapPostgresError(err)
}

// Update overwrites the stored count and date. It is a plain write, not a
// compare-and-set; concurrent callers can lose increments.
func (r *UsageCounterRepository) Update(ctx context.Context, userID string, count int, lastSearch time.Time) error {
	query := `UPDATE user_search SET search_count_today = $1, last_search_date = $2 WHERE id = $3`

	tag, err := r.db.Pool.Exec(ctx, query, count, lastSearch, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
