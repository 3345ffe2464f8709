package ledger

import (
	"errors"
	"fmt"

	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

// Named failures returned by ledger operations. Match them with errors.Is.
var (
	// ErrNotFound means a trip, currency, expense or category does not exist.
	ErrNotFound = store.ErrNotFound
	// ErrNoActiveTrip means the user has not selected a trip yet.
	ErrNoActiveTrip = fmt.Errorf("no active trip: %w", store.ErrNotFound)
	// ErrInvalidInput covers malformed amounts, rates and currency codes.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProtectedCurrency is returned when removing a trip's primary currency.
	ErrProtectedCurrency = errors.New("currency is the trip's primary currency")
	// ErrCurrencyInUse is returned when removing a currency that expenses reference.
	ErrCurrencyInUse = errors.New("currency has recorded expenses")
	// ErrDuplicateCurrency is returned when a currency is already registered on the trip.
	ErrDuplicateCurrency = errors.New("currency already registered on trip")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
