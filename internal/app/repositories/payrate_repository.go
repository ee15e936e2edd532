package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// PayRateRepository handles database operations for the versioned hourly rate
type PayRateRepository struct {
	db *pgxpool.Pool
}

// NewPayRateRepository creates a new pay rate repository
func NewPayRateRepository(db *pgxpool.Pool) *PayRateRepository {
	return &PayRateRepository{
		db: db,
	}
}

// GetCurrent retrieves the single current rate. A missing row means no rate
// has ever been configured.
func (r *PayRateRepository) GetCurrent(ctx context.Context) (*models.PayRate, error) {
	query := `
		SELECT id, rate_per_hour, is_current, set_by, notes, created_at
		FROM payment_rates
		WHERE is_current = true
		LIMIT 1
	`

	var rate models.PayRate
	err := r.db.QueryRow(ctx, query).Scan(
		&rate.ID,
		&rate.RatePerHour,
		&rate.IsCurrent,
		&rate.SetByID,
		&rate.Notes,
		&rate.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRateNotConfigured
		}
		return nil, fmt.Errorf("error retrieving current rate: %w", err)
	}

	return &rate, nil
}

// SetCurrent supersedes the current rate with a new version. The old row's
// is_current flag is cleared and the new row inserted in one transaction, so
// readers never observe zero or two current rates.
func (r *PayRateRepository) SetCurrent(ctx context.Context, rate *models.PayRate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE payment_rates SET is_current = false WHERE is_current = true`)
	if err != nil {
		return fmt.Errorf("error superseding current rate: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO payment_rates (rate_per_hour, is_current, set_by, notes)
		VALUES ($1, true, $2, $3)
		RETURNING id, created_at`,
		rate.RatePerHour, rate.SetByID, rate.Notes,
	).Scan(&rate.ID, &rate.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating rate: %w", err)
	}

	rate.IsCurrent = true

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing rate change: %w", err)
	}

	return nil
}

// ListHistory retrieves all rate versions, newest first
func (r *PayRateRepository) ListHistory(ctx context.Context) ([]*models.PayRate, error) {
	query := `
		SELECT id, rate_per_hour, is_current, set_by, notes, created_at
		FROM payment_rates
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []*models.PayRate
	for rows.Next() {
		var rate models.PayRate
		if err := rows.Scan(
			&rate.ID,
			&rate.RatePerHour,
			&rate.IsCurrent,
			&rate.SetByID,
			&rate.Notes,
			&rate.CreatedAt,
		); err != nil {
			return nil, err
		}
		rates = append(rates, &rate)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rates, nil
}
