package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

const tripColumns = `trip_id, user_id, name, home_currency, target_currency, exchange_rate,
	home_balance, target_balance, budget_limit, notification_threshold, created_at`

// TripRepository handles trip database operations.
type TripRepository struct {
	db database.PGXDB
}

// NewTripRepository creates a new TripRepository.
func NewTripRepository(db database.PGXDB) *TripRepository {
	return &TripRepository{db: db}
}

// Create adds a new trip and fills in its id and creation time.
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO trips (user_id, name, home_currency, target_currency, exchange_rate,
			home_balance, target_balance, budget_limit, notification_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING trip_id, created_at
	`, trip.UserID, trip.Name, trip.HomeCurrency, trip.TargetCurrency, trip.ExchangeRate,
		trip.HomeBalance, trip.TargetBalance, trip.BudgetLimit, trip.NotificationThreshold,
	).Scan(&trip.ID, &trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE trip_id = $1`, id).
		Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.HomeCurrency, &trip.TargetCurrency, &trip.ExchangeRate,
			&trip.HomeBalance, &trip.TargetBalance, &trip.BudgetLimit, &trip.NotificationThreshold, &trip.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", mapNoRows(err))
	}
	return &trip, nil
}

// ListByUser retrieves all trips owned by a user, oldest first.
func (r *TripRepository) ListByUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tripColumns+` FROM trips WHERE user_id = $1 ORDER BY trip_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		var trip models.Trip
		if err := rows.Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.HomeCurrency, &trip.TargetCurrency, &trip.ExchangeRate,
			&trip.HomeBalance, &trip.TargetBalance, &trip.BudgetLimit, &trip.NotificationThreshold, &trip.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return trips, nil
}

// UpdateBudget sets the overall budget limit and notification threshold.
func (r *TripRepository) UpdateBudget(ctx context.Context, id int64, limit, threshold decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips SET budget_limit = $2, notification_threshold = $3 WHERE trip_id = $1
	`, id, limit, threshold)
	if err != nil {
		return fmt.Errorf("failed to update trip budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update trip budget: %w", store.ErrNotFound)
	}
	return nil
}

// AdjustBalances adds the deltas to the primary balance pair.
func (r *TripRepository) AdjustBalances(ctx context.Context, id int64, homeDelta, targetDelta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips SET
			home_balance = home_balance + $2,
			target_balance = target_balance + $3
		WHERE trip_id = $1
	`, id, homeDelta, targetDelta)
	if err != nil {
		return fmt.Errorf("failed to adjust trip balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to adjust trip balances: %w", store.ErrNotFound)
	}
	return nil
}

// Delete removes a trip row. Dependent rows must be removed first.
func (r *TripRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE trip_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete trip: %w", store.ErrNotFound)
	}
	return nil
}
