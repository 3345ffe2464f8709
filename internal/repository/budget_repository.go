package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// BudgetRepository handles per-category budget database operations.
type BudgetRepository struct {
	db database.PGXDB
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db database.PGXDB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Get retrieves the budget row of one category.
func (r *BudgetRepository) Get(ctx context.Context, tripID int64, categoryID int) (*models.CategoryBudget, error) {
	var b models.CategoryBudget
	err := r.db.QueryRow(ctx, `
		SELECT budget_id, trip_id, category_id, planned_amount, spent_amount, currency_code
		FROM category_budgets WHERE trip_id = $1 AND category_id = $2
	`, tripID, categoryID).Scan(&b.ID, &b.TripID, &b.CategoryID, &b.PlannedAmount, &b.SpentAmount, &b.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get category budget: %w", mapNoRows(err))
	}
	return &b, nil
}

// AddSpent adds delta to the spent amount, creating the row if needed.
func (r *BudgetRepository) AddSpent(ctx context.Context, tripID int64, categoryID int, delta decimal.Decimal, currency string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO category_budgets (trip_id, category_id, planned_amount, spent_amount, currency_code)
		VALUES ($1, $2, 0, $3, $4)
		ON CONFLICT (trip_id, category_id)
		DO UPDATE SET spent_amount = category_budgets.spent_amount + EXCLUDED.spent_amount
	`, tripID, categoryID, delta, currency)
	if err != nil {
		return fmt.Errorf("failed to add category spending: %w", err)
	}
	return nil
}

// SetPlanned upserts the planned amount, leaving the spent amount untouched.
func (r *BudgetRepository) SetPlanned(ctx context.Context, tripID int64, categoryID int, planned decimal.Decimal, currency string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO category_budgets (trip_id, category_id, planned_amount, spent_amount, currency_code)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (trip_id, category_id)
		DO UPDATE SET planned_amount = EXCLUDED.planned_amount, currency_code = EXCLUDED.currency_code
	`, tripID, categoryID, planned, currency)
	if err != nil {
		return fmt.Errorf("failed to set category budget: %w", err)
	}
	return nil
}

// ResetSpent zeroes a trip's spent amounts and writes the given totals.
func (r *BudgetRepository) ResetSpent(ctx context.Context, tripID int64, totals map[int]decimal.Decimal, currency string) error {
	if _, err := r.db.Exec(ctx, `UPDATE category_budgets SET spent_amount = 0 WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to reset category spending: %w", err)
	}
	for categoryID, total := range totals {
		_, err := r.db.Exec(ctx, `
			INSERT INTO category_budgets (trip_id, category_id, planned_amount, spent_amount, currency_code)
			VALUES ($1, $2, 0, $3, $4)
			ON CONFLICT (trip_id, category_id)
			DO UPDATE SET spent_amount = EXCLUDED.spent_amount
		`, tripID, categoryID, total, currency)
		if err != nil {
			return fmt.Errorf("failed to write category spending: %w", err)
		}
	}
	return nil
}

// ListByTrip retrieves every budget row of a trip ordered by category.
func (r *BudgetRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.CategoryBudget, error) {
	rows, err := r.db.Query(ctx, `
		SELECT budget_id, trip_id, category_id, planned_amount, spent_amount, currency_code
		FROM category_budgets WHERE trip_id = $1
		ORDER BY category_id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.CategoryBudget
	for rows.Next() {
		var b models.CategoryBudget
		if err := rows.Scan(&b.ID, &b.TripID, &b.CategoryID, &b.PlannedAmount, &b.SpentAmount, &b.CurrencyCode); err != nil {
			return nil, fmt.Errorf("failed to scan category budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category budgets: %w", err)
	}
	return budgets, nil
}

// DeleteByTrip removes every budget row of a trip.
func (r *BudgetRepository) DeleteByTrip(ctx context.Context, tripID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM category_budgets WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to delete category budgets: %w", err)
	}
	return nil
}
