package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/breachwatch/internal/database"
	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/google/uuid"
)

// SearchRepository is the append-only search ledger (searches)
type SearchRepository struct {
	db *database.DB
}

func NewSearchRepository(db *database.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

func (r *SearchRepository) Insert(ctx context.Context, record *models.SearchRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO searches (id, user_id, email, breached, breach_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Email,
		record.Breached,
		record.BreachCount,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search record: %w", database.MapPostgresError(err))
	}
	return nil
}
