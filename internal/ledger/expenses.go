package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// NewExpense holds the values of an expense to record.
type NewExpense struct {
	TripID     int64
	CategoryID int
	// AmountHome is the home-currency equivalent of AmountTarget.
	AmountHome     decimal.Decimal
	AmountTarget   decimal.Decimal
	CurrencyHome   string
	CurrencyTarget string
}

func (n *NewExpense) validate() error {
	if err := positive("amount", n.AmountTarget); err != nil {
		return err
	}
	if err := positive("home amount", n.AmountHome); err != nil {
		return err
	}
	var err error
	if n.CurrencyHome, err = currencyCode(n.CurrencyHome); err != nil {
		return err
	}
	n.CurrencyTarget, err = currencyCode(n.CurrencyTarget)
	return err
}

// RecordExpense stores an expense and applies it to the category spending,
// the currency balance and, for the primary currency, the trip balances.
// It returns the threshold and limit crossings the expense caused.
func (l *Ledger) RecordExpense(ctx context.Context, in NewExpense) (*models.Expense, []Notification, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		TripID:         in.TripID,
		AmountTarget:   in.AmountTarget,
		AmountHome:     in.AmountHome,
		CurrencyTarget: in.CurrencyTarget,
		CurrencyHome:   in.CurrencyHome,
		CategoryID:     in.CategoryID,
	}
	var notifications []Notification

	err := l.mutate(ctx, "record_expense", func(ctx context.Context, tx store.Tx) error {
		trip, err := tx.Trips().GetByID(ctx, in.TripID)
		if err != nil {
			return err
		}
		category, err := tx.Categories().GetByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}

		spentBefore, err := tx.Expenses().TotalHome(ctx, trip.ID)
		if err != nil {
			return err
		}
		budgetBefore, err := budgetOrZero(ctx, tx, trip.ID, category.ID)
		if err != nil {
			return err
		}

		if err := tx.Expenses().Create(ctx, expense); err != nil {
			return err
		}
		expense.Category = category
		if err := apply(ctx, tx, trip, expense, decimal.NewFromInt(1)); err != nil {
			return err
		}

		notifications = append(notifications,
			EvaluateOverall(*trip, spentBefore, spentBefore.Add(expense.AmountHome))...)
		notifications = append(notifications,
			EvaluateCategory(*budgetBefore, *category, budgetBefore.SpentAmount,
				budgetBefore.SpentAmount.Add(expense.AmountHome), models.DefaultThresholdRatio)...)
		return nil
	}, attribute.Int64("trip_id", in.TripID), attribute.Int("category_id", in.CategoryID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record expense: %w", err)
	}

	l.expensesRecorded.Add(ctx, 1, metricCurrency(expense.CurrencyTarget))
	l.emitted(ctx, notifications)
	logger.Log.Info().
		Int64("trip_id", expense.TripID).
		Int64("expense_id", expense.ID).
		Str("amount", expense.AmountTarget.String()).
		Str("currency", expense.CurrencyTarget).
		Str("amount_home", expense.AmountHome.String()).
		Int("category_id", expense.CategoryID).
		Int("notifications", len(notifications)).
		Msg("Expense recorded")
	return expense, notifications, nil
}

// UpdateExpense rewrites the amounts and category of an expense. The old
// contribution is reversed and the new one applied, so the aggregates end up
// as if the expense had been deleted and recorded again.
func (l *Ledger) UpdateExpense(ctx context.Context, expenseID int64, amountHome, amountTarget decimal.Decimal, categoryID int) (*models.Expense, []Notification, error) {
	if err := positive("amount", amountTarget); err != nil {
		return nil, nil, err
	}
	if err := positive("home amount", amountHome); err != nil {
		return nil, nil, err
	}

	var updated *models.Expense
	var notifications []Notification

	err := l.mutate(ctx, "update_expense", func(ctx context.Context, tx store.Tx) error {
		old, err := tx.Expenses().GetByID(ctx, expenseID)
		if err != nil {
			return err
		}
		trip, err := tx.Trips().GetByID(ctx, old.TripID)
		if err != nil {
			return err
		}
		category, err := tx.Categories().GetByID(ctx, categoryID)
		if err != nil {
			return err
		}

		spentBefore, err := tx.Expenses().TotalHome(ctx, trip.ID)
		if err != nil {
			return err
		}
		budgetBefore, err := budgetOrZero(ctx, tx, trip.ID, categoryID)
		if err != nil {
			return err
		}

		if err := tx.Expenses().UpdateAmounts(ctx, expenseID, amountHome, amountTarget, categoryID); err != nil {
			return err
		}
		next := *old
		next.AmountHome = amountHome
		next.AmountTarget = amountTarget
		next.CategoryID = categoryID
		next.Category = category

		if err := apply(ctx, tx, trip, old, decimal.NewFromInt(-1)); err != nil {
			return err
		}
		if err := apply(ctx, tx, trip, &next, decimal.NewFromInt(1)); err != nil {
			return err
		}

		budgetAfter, err := budgetOrZero(ctx, tx, trip.ID, categoryID)
		if err != nil {
			return err
		}
		notifications = append(notifications,
			EvaluateOverall(*trip, spentBefore, spentBefore.Sub(old.AmountHome).Add(amountHome))...)
		notifications = append(notifications,
			EvaluateCategory(*budgetAfter, *category, budgetBefore.SpentAmount,
				budgetAfter.SpentAmount, models.DefaultThresholdRatio)...)
		updated = &next
		return nil
	}, attribute.Int64("expense_id", expenseID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update expense: %w", err)
	}

	l.emitted(ctx, notifications)
	logger.Log.Info().
		Int64("trip_id", updated.TripID).
		Int64("expense_id", expenseID).
		Str("amount", amountTarget.String()).
		Str("amount_home", amountHome.String()).
		Int("category_id", categoryID).
		Msg("Expense updated")
	return updated, notifications, nil
}

// DeleteExpense reverses an expense's effect on every aggregate and removes it.
func (l *Ledger) DeleteExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	var expense *models.Expense
	err := l.mutate(ctx, "delete_expense", func(ctx context.Context, tx store.Tx) error {
		var err error
		if expense, err = tx.Expenses().GetByID(ctx, expenseID); err != nil {
			return err
		}
		trip, err := tx.Trips().GetByID(ctx, expense.TripID)
		if err != nil {
			return err
		}
		if err := apply(ctx, tx, trip, expense, decimal.NewFromInt(-1)); err != nil {
			return err
		}
		return tx.Expenses().Delete(ctx, expenseID)
	}, attribute.Int64("expense_id", expenseID))
	if err != nil {
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}

	logger.Log.Info().
		Int64("trip_id", expense.TripID).
		Int64("expense_id", expenseID).
		Msg("Expense deleted")
	return expense, nil
}

// Expense returns one expense with its category.
func (l *Ledger) Expense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	var expense *models.Expense
	err := l.read(ctx, "expense", func(ctx context.Context, tx store.Tx) error {
		var err error
		expense, err = tx.Expenses().GetByID(ctx, expenseID)
		return err
	}, attribute.Int64("expense_id", expenseID))
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// Expenses returns a trip's expenses newest first, optionally for one category.
func (l *Ledger) Expenses(ctx context.Context, tripID int64, categoryID *int) ([]models.Expense, error) {
	var expenses []models.Expense
	err := l.read(ctx, "expenses", func(ctx context.Context, tx store.Tx) error {
		var err error
		expenses, err = tx.Expenses().ListByTrip(ctx, tripID, categoryID)
		return err
	}, attribute.Int64("trip_id", tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// apply adds sign times the expense to the category spending and subtracts it
// from the balances. sign is 1 when recording and -1 when reversing.
func apply(ctx context.Context, tx store.Tx, trip *models.Trip, e *models.Expense, sign decimal.Decimal) error {
	home := e.AmountHome.Mul(sign)
	target := e.AmountTarget.Mul(sign)

	if err := tx.Budgets().AddSpent(ctx, trip.ID, e.CategoryID, home, e.CurrencyHome); err != nil {
		return err
	}

	currency, err := tx.Currencies().GetByCode(ctx, trip.ID, e.CurrencyTarget)
	switch {
	case err == nil:
		if err := tx.Currencies().AdjustBalance(ctx, currency.ID, target.Neg()); err != nil {
			return err
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if e.CurrencyTarget == trip.TargetCurrency {
		return tx.Trips().AdjustBalances(ctx, trip.ID, home.Neg(), target.Neg())
	}
	return nil
}

// budgetOrZero returns the category budget row, or an empty one if none exists yet.
func budgetOrZero(ctx context.Context, tx store.Tx, tripID int64, categoryID int) (*models.CategoryBudget, error) {
	budget, err := tx.Budgets().Get(ctx, tripID, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.CategoryBudget{TripID: tripID, CategoryID: categoryID}, nil
	}
	return budget, err
}
