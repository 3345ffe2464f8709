package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// SetBudgetLimit sets the overall budget limit in target currency and resets
// the notification threshold to the configured share of it.
func (l *Ledger) SetBudgetLimit(ctx context.Context, tripID int64, limit decimal.Decimal) (*models.Trip, error) {
	if err := nonNegative("budget limit", limit); err != nil {
		return nil, err
	}
	threshold := thresholdFor(limit, l.thresholdRatio)
	return l.updateBudget(ctx, "set_budget_limit", tripID, func(*models.Trip) (decimal.Decimal, decimal.Decimal, error) {
		return limit, threshold, nil
	})
}

// SetNotificationThreshold overrides the overall notification threshold.
// While a limit is set the threshold may not exceed it.
func (l *Ledger) SetNotificationThreshold(ctx context.Context, tripID int64, threshold decimal.Decimal) (*models.Trip, error) {
	if err := nonNegative("threshold", threshold); err != nil {
		return nil, err
	}
	return l.updateBudget(ctx, "set_notification_threshold", tripID, func(trip *models.Trip) (decimal.Decimal, decimal.Decimal, error) {
		if trip.HasBudget() && threshold.GreaterThan(trip.BudgetLimit) {
			return decimal.Zero, decimal.Zero, invalid("threshold %s is above the budget limit %s", threshold, trip.BudgetLimit)
		}
		return trip.BudgetLimit, threshold, nil
	})
}

func (l *Ledger) updateBudget(ctx context.Context, op string, tripID int64, next func(*models.Trip) (decimal.Decimal, decimal.Decimal, error)) (*models.Trip, error) {
	var trip *models.Trip
	err := l.mutate(ctx, op, func(ctx context.Context, tx store.Tx) error {
		var err error
		if trip, err = tx.Trips().GetByID(ctx, tripID); err != nil {
			return err
		}
		limit, threshold, err := next(trip)
		if err != nil {
			return err
		}
		if err := tx.Trips().UpdateBudget(ctx, tripID, limit, threshold); err != nil {
			return err
		}
		trip.BudgetLimit = limit
		trip.NotificationThreshold = threshold
		return nil
	}, attribute.Int64("trip_id", tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to update trip budget: %w", err)
	}

	logger.Log.Info().
		Int64("trip_id", tripID).
		Str("limit", trip.BudgetLimit.String()).
		Str("threshold", trip.NotificationThreshold.String()).
		Msg("Trip budget updated")
	return trip, nil
}

// SetCategoryBudget sets the planned amount of a category. Spending already
// recorded in the category is kept. An empty currency means the trip's
// target currency.
func (l *Ledger) SetCategoryBudget(ctx context.Context, tripID int64, categoryID int, planned decimal.Decimal, currency string) error {
	if err := nonNegative("planned amount", planned); err != nil {
		return err
	}
	if currency != "" {
		var err error
		if currency, err = currencyCode(currency); err != nil {
			return err
		}
	}

	err := l.mutate(ctx, "set_category_budget", func(ctx context.Context, tx store.Tx) error {
		trip, err := tx.Trips().GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if _, err := tx.Categories().GetByID(ctx, categoryID); err != nil {
			return err
		}
		if currency == "" {
			currency = trip.TargetCurrency
		}
		return tx.Budgets().SetPlanned(ctx, tripID, categoryID, planned, currency)
	}, attribute.Int64("trip_id", tripID), attribute.Int("category_id", categoryID))
	if err != nil {
		return fmt.Errorf("failed to set category budget: %w", err)
	}

	logger.Log.Info().
		Int64("trip_id", tripID).
		Int("category_id", categoryID).
		Str("planned", planned.String()).
		Msg("Category budget set")
	return nil
}

// Categories returns the category catalog.
func (l *Ledger) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := l.read(ctx, "categories", func(ctx context.Context, tx store.Tx) error {
		var err error
		categories, err = tx.Categories().GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// CategoryBudgets returns every catalog category with its budget figures.
// Categories without a budget row report zero planned and spent.
func (l *Ledger) CategoryBudgets(ctx context.Context, tripID int64) ([]CategoryStatus, error) {
	var out []CategoryStatus
	err := l.read(ctx, "category_budgets", func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = categoryStatuses(ctx, tx, tripID)
		return err
	}, attribute.Int64("trip_id", tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to get category budgets: %w", err)
	}
	return out, nil
}

func categoryStatuses(ctx context.Context, tx store.Tx, tripID int64) ([]CategoryStatus, error) {
	categories, err := tx.Categories().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := tx.Budgets().ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[int]models.CategoryBudget, len(budgets))
	for _, b := range budgets {
		byCategory[b.CategoryID] = b
	}

	out := make([]CategoryStatus, 0, len(categories))
	for _, c := range categories {
		b := byCategory[c.ID]
		out = append(out, CategoryStatus{
			Category: c,
			BudgetStatus: newBudgetStatus(b.PlannedAmount, b.PlannedAmount.Mul(models.DefaultThresholdRatio),
				b.SpentAmount, b.CurrencyCode),
		})
	}
	return out, nil
}

// RecomputeCategorySpending rebuilds every category's spent amount from the
// trip's expenses.
func (l *Ledger) RecomputeCategorySpending(ctx context.Context, tripID int64) error {
	err := l.mutate(ctx, "recompute_category_spending", func(ctx context.Context, tx store.Tx) error {
		trip, err := tx.Trips().GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		totals, err := tx.Expenses().TotalsHomeByCategory(ctx, tripID)
		if err != nil {
			return err
		}
		return tx.Budgets().ResetSpent(ctx, tripID, totals, trip.HomeCurrency)
	}, attribute.Int64("trip_id", tripID))
	if err != nil {
		return fmt.Errorf("failed to recompute category spending: %w", err)
	}

	logger.Log.Info().Int64("trip_id", tripID).Msg("Category spending recomputed")
	return nil
}
