package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// NewTrip holds the values collected for a trip before it is created.
type NewTrip struct {
	UserID         int64
	Name           string
	HomeCurrency   string
	TargetCurrency string
	// Rate is the number of target units per one home unit.
	Rate        decimal.Decimal
	HomeInitial decimal.Decimal
	// BudgetLimit in target currency; zero disables the overall budget.
	BudgetLimit decimal.Decimal
}

func (n *NewTrip) validate() error {
	n.Name = strings.TrimSpace(n.Name)
	if n.Name == "" {
		return invalid("trip name is empty")
	}
	var err error
	if n.HomeCurrency, err = currencyCode(n.HomeCurrency); err != nil {
		return err
	}
	if n.TargetCurrency, err = currencyCode(n.TargetCurrency); err != nil {
		return err
	}
	if err := positive("exchange rate", n.Rate); err != nil {
		return err
	}
	if err := nonNegative("initial amount", n.HomeInitial); err != nil {
		return err
	}
	return nonNegative("budget limit", n.BudgetLimit)
}

// CreateTrip creates a trip with its primary currency and makes it the user's
// active trip. The target balance starts at HomeInitial * Rate.
func (l *Ledger) CreateTrip(ctx context.Context, in NewTrip) (*models.Trip, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	targetInitial := in.HomeInitial.Mul(in.Rate)
	trip := &models.Trip{
		UserID:                in.UserID,
		Name:                  in.Name,
		HomeCurrency:          in.HomeCurrency,
		TargetCurrency:        in.TargetCurrency,
		ExchangeRate:          in.Rate,
		HomeBalance:           in.HomeInitial,
		TargetBalance:         targetInitial,
		BudgetLimit:           in.BudgetLimit,
		NotificationThreshold: thresholdFor(in.BudgetLimit, l.thresholdRatio),
	}

	err := l.mutate(ctx, "create_trip", func(ctx context.Context, tx store.Tx) error {
		if err := tx.Trips().Create(ctx, trip); err != nil {
			return err
		}
		primary := models.TripCurrency{
			TripID:     trip.ID,
			Code:       trip.TargetCurrency,
			Balance:    targetInitial,
			RateToHome: trip.ExchangeRate,
		}
		if err := tx.Currencies().Create(ctx, &primary); err != nil {
			return err
		}
		trip.Currencies = []models.TripCurrency{primary}
		return tx.Users().SetActiveTrip(ctx, trip.UserID, trip.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(trip.UserID)).
		Int64("trip_id", trip.ID).
		Str("home", trip.HomeCurrency).
		Str("target", trip.TargetCurrency).
		Str("rate", trip.ExchangeRate.String()).
		Msg("Trip created")
	return trip, nil
}

// DeleteTrip removes a trip with all its expenses, currencies and category
// budgets, and clears it as anyone's active trip.
func (l *Ledger) DeleteTrip(ctx context.Context, tripID int64) error {
	err := l.mutate(ctx, "delete_trip", func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Trips().GetByID(ctx, tripID); err != nil {
			return err
		}
		if err := tx.Expenses().DeleteByTrip(ctx, tripID); err != nil {
			return err
		}
		if err := tx.Budgets().DeleteByTrip(ctx, tripID); err != nil {
			return err
		}
		if err := tx.Currencies().DeleteByTrip(ctx, tripID); err != nil {
			return err
		}
		if err := tx.Users().ClearActiveTrip(ctx, tripID); err != nil {
			return err
		}
		return tx.Trips().Delete(ctx, tripID)
	}, attribute.Int64("trip_id", tripID))
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}

	logger.Log.Info().Int64("trip_id", tripID).Msg("Trip deleted")
	return nil
}

// SetActiveTrip points the user at tripID.
func (l *Ledger) SetActiveTrip(ctx context.Context, userID, tripID int64) error {
	err := l.mutate(ctx, "set_active_trip", func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Trips().GetByID(ctx, tripID); err != nil {
			return err
		}
		return tx.Users().SetActiveTrip(ctx, userID, tripID)
	}, attribute.Int64("trip_id", tripID))
	if err != nil {
		return fmt.Errorf("failed to set active trip: %w", err)
	}
	return nil
}

// ActiveTrip returns the user's active trip with its currencies.
// It returns ErrNoActiveTrip when none is selected.
func (l *Ledger) ActiveTrip(ctx context.Context, userID int64) (*models.Trip, error) {
	var trip *models.Trip
	err := l.read(ctx, "active_trip", func(ctx context.Context, tx store.Tx) error {
		tripID, err := tx.Users().GetActiveTripID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoActiveTrip
		}
		if err != nil {
			return err
		}
		trip, err = loadTrip(ctx, tx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// Trip returns a trip with its currencies.
func (l *Ledger) Trip(ctx context.Context, tripID int64) (*models.Trip, error) {
	var trip *models.Trip
	err := l.read(ctx, "trip", func(ctx context.Context, tx store.Tx) error {
		var err error
		trip, err = loadTrip(ctx, tx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// ListTrips returns every trip owned by the user, oldest first.
func (l *Ledger) ListTrips(ctx context.Context, userID int64) ([]models.Trip, error) {
	var trips []models.Trip
	err := l.read(ctx, "list_trips", func(ctx context.Context, tx store.Tx) error {
		var err error
		trips, err = tx.Trips().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// ActiveUsers returns the users that currently have an active trip.
func (l *Ledger) ActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := l.read(ctx, "active_users", func(ctx context.Context, tx store.Tx) error {
		var err error
		users, err = tx.Users().ListWithActiveTrip(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}

func loadTrip(ctx context.Context, tx store.Tx, tripID int64) (*models.Trip, error) {
	trip, err := tx.Trips().GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	currencies, err := tx.Currencies().ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	trip.Currencies = currencies
	return trip, nil
}
