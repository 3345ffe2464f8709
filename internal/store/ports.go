// Package store defines the persistence ports used by the ledger engine.
//
// Implementations live in internal/repository (PostgreSQL) and
// internal/store/memory (in-process, used by tests).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// ErrNotFound is returned when a row referenced by id does not exist.
var ErrNotFound = errors.New("not found")

// Ports for the ledger store.
type (
	// TripStore persists trips.
	TripStore interface {
		Create(ctx context.Context, trip *models.Trip) error
		GetByID(ctx context.Context, id int64) (*models.Trip, error)
		ListByUser(ctx context.Context, userID int64) ([]models.Trip, error)
		UpdateBudget(ctx context.Context, id int64, limit, threshold decimal.Decimal) error
		// AdjustBalances adds the deltas to the trip's home and target balances.
		AdjustBalances(ctx context.Context, id int64, homeDelta, targetDelta decimal.Decimal) error
		Delete(ctx context.Context, id int64) error
	}

	// UserStore persists the active-trip pointer of each user.
	UserStore interface {
		SetActiveTrip(ctx context.Context, userID, tripID int64) error
		// GetActiveTripID returns ErrNotFound when the user has no active trip.
		GetActiveTripID(ctx context.Context, userID int64) (int64, error)
		// ClearActiveTrip unsets the pointer for every user that points at tripID.
		ClearActiveTrip(ctx context.Context, tripID int64) error
		ListWithActiveTrip(ctx context.Context) ([]models.User, error)
	}

	// CurrencyStore persists the currencies registered on a trip.
	CurrencyStore interface {
		Create(ctx context.Context, currency *models.TripCurrency) error
		GetByID(ctx context.Context, id int64) (*models.TripCurrency, error)
		GetByCode(ctx context.Context, tripID int64, code string) (*models.TripCurrency, error)
		ListByTrip(ctx context.Context, tripID int64) ([]models.TripCurrency, error)
		SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error
		AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error
		Delete(ctx context.Context, id int64) error
		DeleteByTrip(ctx context.Context, tripID int64) error
	}

	// CategoryStore reads the fixed category catalog.
	CategoryStore interface {
		GetAll(ctx context.Context) ([]models.Category, error)
		GetByID(ctx context.Context, id int) (*models.Category, error)
	}

	// ExpenseStore persists expenses.
	ExpenseStore interface {
		Create(ctx context.Context, expense *models.Expense) error
		GetByID(ctx context.Context, id int64) (*models.Expense, error)
		// ListByTrip returns expenses newest first, optionally filtered by category.
		ListByTrip(ctx context.Context, tripID int64, categoryID *int) ([]models.Expense, error)
		UpdateAmounts(ctx context.Context, id int64, amountHome, amountTarget decimal.Decimal, categoryID int) error
		Delete(ctx context.Context, id int64) error
		DeleteByTrip(ctx context.Context, tripID int64) error
		CountByCurrency(ctx context.Context, tripID int64, code string) (int, error)
		TotalHome(ctx context.Context, tripID int64) (decimal.Decimal, error)
		TotalsHomeByCategory(ctx context.Context, tripID int64) (map[int]decimal.Decimal, error)
	}

	// BudgetStore persists per-category budgets.
	BudgetStore interface {
		// Get returns ErrNotFound when the category has no budget row for the trip.
		Get(ctx context.Context, tripID int64, categoryID int) (*models.CategoryBudget, error)
		// AddSpent adds delta to spent_amount, creating the row with planned 0 and
		// currency when it does not exist yet.
		AddSpent(ctx context.Context, tripID int64, categoryID int, delta decimal.Decimal, currency string) error
		// SetPlanned upserts planned_amount and currency without touching spent_amount.
		SetPlanned(ctx context.Context, tripID int64, categoryID int, planned decimal.Decimal, currency string) error
		// ResetSpent zeroes every spent_amount of the trip, then writes the given totals,
		// creating missing rows with currency.
		ResetSpent(ctx context.Context, tripID int64, totals map[int]decimal.Decimal, currency string) error
		ListByTrip(ctx context.Context, tripID int64) ([]models.CategoryBudget, error)
		DeleteByTrip(ctx context.Context, tripID int64) error
	}

	// Tx groups the stores bound to one unit of work.
	Tx interface {
		Trips() TripStore
		Users() UserStore
		Currencies() CurrencyStore
		Categories() CategoryStore
		Expenses() ExpenseStore
		Budgets() BudgetStore
	}

	// Store exposes non-transactional reads and runs mutations atomically.
	Store interface {
		Tx
		// WithinTx runs fn in a single transaction. Any error returned by fn
		// rolls back every write made through tx.
		WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	}
)
