package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/breachwatch/internal/database"
	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MonitoredEmailRepository handles database operations for monitored addresses
type MonitoredEmailRepository struct {
	db *database.DB
}

func NewMonitoredEmailRepository(db *database.DB) *MonitoredEmailRepository {
	return &MonitoredEmailRepository{db: db}
}

const monitoredColumns = `id, user_id, email, last_breach_count, last_checked_at, created_at`

func scanMonitoredRows(rows pgx.Rows) ([]*models.MonitoredEmail, error) {
	defer rows.Close()

	out := make([]*models.MonitoredEmail, 0)
	for rows.Next() {
		var m models.MonitoredEmail
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.LastBreachCount, &m.LastCheckedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monitored email: %w", err)
		}
		out = append(out, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// ListAll returns every monitored email across all users
func (r *MonitoredEmailRepository) ListAll(ctx context.Context) ([]*models.MonitoredEmail, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+monitoredColumns+` FROM monitored_emails ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitored emails: %w", err)
	}
	return scanMonitoredRows(rows)
}

func (r *MonitoredEmailRepository) ListByUser(ctx context.Context, userID string) ([]*models.MonitoredEmail, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+monitoredColumns+` FROM monitored_emails WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitored emails: %w", err)
	}
	return scanMonitoredRows(rows)
}

func (r *MonitoredEmailRepository) Create(ctx context.Context, m *models.MonitoredEmail) error {
	m.ID = uuid.New().String()
	m.CreatedAt = time.Now()

	query := `
		INSERT INTO monitored_emails (` + monitoredColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Pool.Exec(ctx, query, m.ID, m.UserID, m.Email, m.LastBreachCount, m.LastCheckedAt, m.CreatedAt)
	return database.MapPostgresError(err)
}

// Delete removes a monitored email only if it belongs to userID
func (r *MonitoredEmailRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM monitored_emails WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MonitoredEmailRepository) UpdateBreachCount(ctx context.Context, id string, count int, checkedAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE monitored_emails SET last_breach_count = $1, last_checked_at = $2 WHERE id = $3`,
		count, checkedAt, id)
	return database.MapPostgresError(err)
}

func (r *MonitoredEmailRepository) TouchCheckedAt(ctx context.Context, id string, checkedAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE monitored_emails SET last_checked_at = $1 WHERE id = $2`,
		checkedAt, id)
	return database.MapPostgresError(err)
}
