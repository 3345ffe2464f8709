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

// AddCurrency registers another currency on a trip.
// rateToHome is the number of units of code per one home unit.
func (l *Ledger) AddCurrency(ctx context.Context, tripID int64, code string, initialBalance, rateToHome decimal.Decimal) (*models.TripCurrency, error) {
	code, err := currencyCode(code)
	if err != nil {
		return nil, err
	}
	if err := positive("exchange rate", rateToHome); err != nil {
		return nil, err
	}
	if err := nonNegative("balance", initialBalance); err != nil {
		return nil, err
	}

	currency := &models.TripCurrency{
		TripID:     tripID,
		Code:       code,
		Balance:    initialBalance,
		RateToHome: rateToHome,
	}
	err = l.mutate(ctx, "add_currency", func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Trips().GetByID(ctx, tripID); err != nil {
			return err
		}
		_, err := tx.Currencies().GetByCode(ctx, tripID, code)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrDuplicateCurrency, code)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		return tx.Currencies().Create(ctx, currency)
	}, attribute.Int64("trip_id", tripID), attribute.String("currency", code))
	if err != nil {
		return nil, fmt.Errorf("failed to add currency: %w", err)
	}

	logger.Log.Info().
		Int64("trip_id", tripID).
		Str("currency", code).
		Str("balance", initialBalance.String()).
		Msg("Currency added")
	return currency, nil
}

// SetBalance overwrites a currency balance. Nothing else changes.
func (l *Ledger) SetBalance(ctx context.Context, currencyID int64, balance decimal.Decimal) (*models.TripCurrency, error) {
	var currency *models.TripCurrency
	err := l.mutate(ctx, "set_balance", func(ctx context.Context, tx store.Tx) error {
		var err error
		if currency, err = tx.Currencies().GetByID(ctx, currencyID); err != nil {
			return err
		}
		if err := tx.Currencies().SetBalance(ctx, currencyID, balance); err != nil {
			return err
		}
		currency.Balance = balance
		return nil
	}, attribute.Int64("currency_id", currencyID))
	if err != nil {
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}

	logger.Log.Info().
		Int64("trip_id", currency.TripID).
		Str("currency", currency.Code).
		Str("balance", balance.String()).
		Msg("Currency balance set")
	return currency, nil
}

// RemoveCurrency deletes a currency from its trip. The trip's primary
// currency and currencies referenced by expenses cannot be removed.
func (l *Ledger) RemoveCurrency(ctx context.Context, currencyID int64) error {
	err := l.mutate(ctx, "remove_currency", func(ctx context.Context, tx store.Tx) error {
		currency, err := tx.Currencies().GetByID(ctx, currencyID)
		if err != nil {
			return err
		}
		trip, err := tx.Trips().GetByID(ctx, currency.TripID)
		if err != nil {
			return err
		}
		if currency.Code == trip.TargetCurrency {
			return fmt.Errorf("%w: %s", ErrProtectedCurrency, currency.Code)
		}
		n, err := tx.Expenses().CountByCurrency(ctx, currency.TripID, currency.Code)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s has %d", ErrCurrencyInUse, currency.Code, n)
		}
		return tx.Currencies().Delete(ctx, currencyID)
	}, attribute.Int64("currency_id", currencyID))
	if err != nil {
		return fmt.Errorf("failed to remove currency: %w", err)
	}

	logger.Log.Info().Int64("currency_id", currencyID).Msg("Currency removed")
	return nil
}

// Currency returns a registered currency by id.
func (l *Ledger) Currency(ctx context.Context, currencyID int64) (*models.TripCurrency, error) {
	var currency *models.TripCurrency
	err := l.read(ctx, "currency", func(ctx context.Context, tx store.Tx) error {
		var err error
		currency, err = tx.Currencies().GetByID(ctx, currencyID)
		return err
	}, attribute.Int64("currency_id", currencyID))
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return currency, nil
}

// ToHome converts amount of code into the trip's home currency. The home
// currency itself converts one to one.
func (l *Ledger) ToHome(ctx context.Context, trip *models.Trip, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	code = models.NormalizeCurrencyCode(code)
	if code == trip.HomeCurrency {
		return amount, nil
	}
	var currency *models.TripCurrency
	err := l.read(ctx, "to_home", func(ctx context.Context, tx store.Tx) error {
		var err error
		currency, err = tx.Currencies().GetByCode(ctx, trip.ID, code)
		return err
	}, attribute.Int64("trip_id", trip.ID), attribute.String("currency", code))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get currency %s: %w", code, err)
	}
	return models.HomeEquivalent(amount, currency.RateToHome), nil
}
