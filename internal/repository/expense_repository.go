package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

const expenseSelect = `
	SELECT e.expense_id, e.trip_id, e.amount_target, e.amount_home, e.currency_target, e.currency_home,
		COALESCE(e.category_id, 0), e.created_at, c.category_id, c.name, c.description
	FROM expenses e
	LEFT JOIN expense_categories c ON e.category_id = c.category_id`

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create adds a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (trip_id, amount_target, amount_home, currency_target, currency_home, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING expense_id, created_at
	`, expense.TripID, expense.AmountTarget, expense.AmountHome, expense.CurrencyTarget,
		expense.CurrencyHome, expense.CategoryID,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var e models.Expense
	var catID *int
	var catName, catDesc *string
	if err := row.Scan(&e.ID, &e.TripID, &e.AmountTarget, &e.AmountHome, &e.CurrencyTarget, &e.CurrencyHome,
		&e.CategoryID, &e.CreatedAt, &catID, &catName, &catDesc); err != nil {
		return nil, err
	}
	if catID != nil && catName != nil {
		e.Category = &models.Category{ID: *catID, Name: *catName}
		if catDesc != nil {
			e.Category.Description = *catDesc
		}
	}
	return &e, nil
}

// GetByID retrieves an expense by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*models.Expense, error) {
	e, err := scanExpense(r.db.QueryRow(ctx, expenseSelect+` WHERE e.expense_id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", mapNoRows(err))
	}
	return e, nil
}

// ListByTrip retrieves a trip's expenses newest first, optionally filtered by category.
func (r *ExpenseRepository) ListByTrip(ctx context.Context, tripID int64, categoryID *int) ([]models.Expense, error) {
	query := expenseSelect + ` WHERE e.trip_id = $1`
	args := []any{tripID}
	if categoryID != nil {
		query += ` AND e.category_id = $2`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY e.created_at DESC, e.expense_id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// UpdateAmounts rewrites the amounts and category of an expense.
func (r *ExpenseRepository) UpdateAmounts(ctx context.Context, id int64, amountHome, amountTarget decimal.Decimal, categoryID int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE expenses SET amount_home = $2, amount_target = $3, category_id = $4
		WHERE expense_id = $1
	`, id, amountHome, amountTarget, categoryID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update expense: %w", store.ErrNotFound)
	}
	return nil
}

// Delete removes an expense by ID.
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE expense_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete expense: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteByTrip removes every expense of a trip.
func (r *ExpenseRepository) DeleteByTrip(ctx context.Context, tripID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to delete trip expenses: %w", err)
	}
	return nil
}

// CountByCurrency counts a trip's expenses recorded in the given currency.
func (r *ExpenseRepository) CountByCurrency(ctx context.Context, tripID int64, code string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM expenses WHERE trip_id = $1 AND currency_target = $2
	`, tripID, code).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}

// TotalHome sums the home-currency amounts of a trip's expenses.
func (r *ExpenseRepository) TotalHome(ctx context.Context, tripID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_home), 0) FROM expenses WHERE trip_id = $1
	`, tripID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// TotalsHomeByCategory sums the home-currency amounts per category.
func (r *ExpenseRepository) TotalsHomeByCategory(ctx context.Context, tripID int64) (map[int]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(category_id, 0), SUM(amount_home)
		FROM expenses WHERE trip_id = $1
		GROUP BY COALESCE(category_id, 0)
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int]decimal.Decimal)
	for rows.Next() {
		var categoryID int
		var total decimal.Decimal
		if err := rows.Scan(&categoryID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals[categoryID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}
	return totals, nil
}
