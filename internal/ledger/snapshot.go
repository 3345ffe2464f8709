package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

// CurrencyView is a trip currency with its balance in home currency.
type CurrencyView struct {
	models.TripCurrency
	HomeEquivalent decimal.Decimal
}

// Snapshot is the read-only view of a trip used by every display surface.
type Snapshot struct {
	Trip       models.Trip
	Currencies []CurrencyView
	// TotalHome is the sum of all currency balances in home currency.
	TotalHome decimal.Decimal
	// SpentHome is the sum of all expenses in home currency.
	SpentHome decimal.Decimal
	// Overall is in target currency.
	Overall BudgetStatus
	// Categories lists only categories with a planned amount.
	Categories []CategoryStatus
}

// Snapshot returns the user's active trip with computed budget figures.
func (l *Ledger) Snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := l.read(ctx, "snapshot", func(ctx context.Context, tx store.Tx) error {
		tripID, err := tx.Users().GetActiveTripID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoActiveTrip
		}
		if err != nil {
			return err
		}
		snap, err = buildSnapshot(ctx, tx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	return snap, nil
}

// TripSnapshot returns the snapshot of a specific trip.
func (l *Ledger) TripSnapshot(ctx context.Context, tripID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := l.read(ctx, "trip_snapshot", func(ctx context.Context, tx store.Tx) error {
		var err error
		snap, err = buildSnapshot(ctx, tx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	return snap, nil
}

func buildSnapshot(ctx context.Context, tx store.Tx, tripID int64) (*Snapshot, error) {
	trip, err := loadTrip(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	spent, err := tx.Expenses().TotalHome(ctx, tripID)
	if err != nil {
		return nil, err
	}
	statuses, err := categoryStatuses(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Trip:      *trip,
		SpentHome: spent,
		TotalHome: decimal.Zero,
		Overall: newBudgetStatus(trip.BudgetLimit, trip.NotificationThreshold,
			spent.Mul(trip.ExchangeRate), trip.TargetCurrency),
	}
	for _, c := range trip.Currencies {
		view := CurrencyView{TripCurrency: c, HomeEquivalent: c.HomeEquivalent()}
		snap.TotalHome = snap.TotalHome.Add(view.HomeEquivalent)
		snap.Currencies = append(snap.Currencies, view)
	}
	for _, s := range statuses {
		if s.Limit.IsPositive() {
			snap.Categories = append(snap.Categories, s)
		}
	}
	return snap, nil
}
