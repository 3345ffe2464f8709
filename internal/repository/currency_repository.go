package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

// CurrencyRepository handles trip currency database operations.
type CurrencyRepository struct {
	db database.PGXDB
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(db database.PGXDB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// Create registers a currency on a trip.
func (r *CurrencyRepository) Create(ctx context.Context, currency *models.TripCurrency) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO trip_currencies (trip_id, currency_code, balance, exchange_rate_to_home)
		VALUES ($1, $2, $3, $4)
		RETURNING currency_id, created_at
	`, currency.TripID, currency.Code, currency.Balance, currency.RateToHome,
	).Scan(&currency.ID, &currency.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip currency: %w", err)
	}
	return nil
}

// GetByID retrieves a trip currency by ID.
func (r *CurrencyRepository) GetByID(ctx context.Context, id int64) (*models.TripCurrency, error) {
	var c models.TripCurrency
	err := r.db.QueryRow(ctx, `
		SELECT currency_id, trip_id, currency_code, balance, exchange_rate_to_home, created_at
		FROM trip_currencies WHERE currency_id = $1
	`, id).Scan(&c.ID, &c.TripID, &c.Code, &c.Balance, &c.RateToHome, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip currency: %w", mapNoRows(err))
	}
	return &c, nil
}

// GetByCode retrieves a trip currency by its code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, tripID int64, code string) (*models.TripCurrency, error) {
	var c models.TripCurrency
	err := r.db.QueryRow(ctx, `
		SELECT currency_id, trip_id, currency_code, balance, exchange_rate_to_home, created_at
		FROM trip_currencies WHERE trip_id = $1 AND currency_code = $2
	`, tripID, code).Scan(&c.ID, &c.TripID, &c.Code, &c.Balance, &c.RateToHome, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip currency by code: %w", mapNoRows(err))
	}
	return &c, nil
}

// ListByTrip retrieves all currencies of a trip in registration order.
func (r *CurrencyRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.TripCurrency, error) {
	rows, err := r.db.Query(ctx, `
		SELECT currency_id, trip_id, currency_code, balance, exchange_rate_to_home, created_at
		FROM trip_currencies WHERE trip_id = $1
		ORDER BY currency_id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip currencies: %w", err)
	}
	defer rows.Close()

	var currencies []models.TripCurrency
	for rows.Next() {
		var c models.TripCurrency
		if err := rows.Scan(&c.ID, &c.TripID, &c.Code, &c.Balance, &c.RateToHome, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip currencies: %w", err)
	}
	return currencies, nil
}

// SetBalance overwrites the stored balance.
func (r *CurrencyRepository) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE trip_currencies SET balance = $2 WHERE currency_id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("failed to set currency balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set currency balance: %w", store.ErrNotFound)
	}
	return nil
}

// AdjustBalance adds delta to the stored balance.
func (r *CurrencyRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE trip_currencies SET balance = balance + $2 WHERE currency_id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust currency balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to adjust currency balance: %w", store.ErrNotFound)
	}
	return nil
}

// Delete removes a trip currency by ID.
func (r *CurrencyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trip_currencies WHERE currency_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip currency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete trip currency: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteByTrip removes every currency of a trip.
func (r *CurrencyRepository) DeleteByTrip(ctx context.Context, tripID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM trip_currencies WHERE trip_id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip currencies: %w", err)
	}
	return nil
}
