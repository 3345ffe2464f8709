package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

func newTrip(t *testing.T, s *Store) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		UserID:         1,
		Name:           "Almaty",
		HomeCurrency:   "RUB",
		TargetCurrency: "KZT",
		ExchangeRate:   decimal.NewFromInt(5),
		HomeBalance:    decimal.NewFromInt(1000),
		TargetBalance:  decimal.NewFromInt(5000),
	}
	require.NoError(t, s.Trips().Create(context.Background(), trip))
	return trip
}

func TestNew_SeedsCategories(t *testing.T) {
	t.Parallel()
	s := New()

	cats, err := s.Categories().GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, len(models.DefaultCategories))
	require.Equal(t, 1, cats[0].ID)

	_, err = s.Categories().GetByID(context.Background(), 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	trip := newTrip(t, s)

	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Trips().AdjustBalances(ctx, trip.ID, decimal.NewFromInt(-100), decimal.NewFromInt(-500))
	})
	require.NoError(t, err)

	got, err := s.Trips().GetByID(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, got.HomeBalance.Equal(decimal.NewFromInt(900)))
	require.True(t, got.TargetBalance.Equal(decimal.NewFromInt(4500)))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	trip := newTrip(t, s)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Trips().AdjustBalances(ctx, trip.ID, decimal.NewFromInt(-100), decimal.Zero); err != nil {
			return err
		}
		if err := tx.Users().SetActiveTrip(ctx, 1, trip.ID); err != nil {
			return err
		}
		if err := tx.Budgets().AddSpent(ctx, trip.ID, 1, decimal.NewFromInt(100), "RUB"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Trips().GetByID(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, got.HomeBalance.Equal(decimal.NewFromInt(1000)))

	_, err = s.Users().GetActiveTripID(ctx, 1)
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.Budgets().ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCurrencies_UniquePerTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	trip := newTrip(t, s)

	require.NoError(t, s.Currencies().Create(ctx, &models.TripCurrency{TripID: trip.ID, Code: "KZT", RateToHome: decimal.NewFromInt(5)}))
	require.Error(t, s.Currencies().Create(ctx, &models.TripCurrency{TripID: trip.ID, Code: "KZT", RateToHome: decimal.NewFromInt(5)}))

	other := newTrip(t, s)
	require.NoError(t, s.Currencies().Create(ctx, &models.TripCurrency{TripID: other.ID, Code: "KZT", RateToHome: decimal.NewFromInt(5)}))
}

func TestExpenses_ListNewestFirstAndTotals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	trip := newTrip(t, s)

	var ids []int64
	for i, cat := range []int{1, 2, 1} {
		e := &models.Expense{
			TripID:         trip.ID,
			AmountTarget:   decimal.NewFromInt(int64(50 * (i + 1))),
			AmountHome:     decimal.NewFromInt(int64(10 * (i + 1))),
			CurrencyTarget: "KZT",
			CurrencyHome:   "RUB",
			CategoryID:     cat,
		}
		require.NoError(t, s.Expenses().Create(ctx, e))
		ids = append(ids, e.ID)
	}

	list, err := s.Expenses().ListByTrip(ctx, trip.ID, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, ids[2], list[0].ID)
	require.NotNil(t, list[0].Category)

	cat := 1
	list, err = s.Expenses().ListByTrip(ctx, trip.ID, &cat)
	require.NoError(t, err)
	require.Len(t, list, 2)

	total, err := s.Expenses().TotalHome(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(60)))

	byCat, err := s.Expenses().TotalsHomeByCategory(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, byCat[1].Equal(decimal.NewFromInt(40)))
	require.True(t, byCat[2].Equal(decimal.NewFromInt(20)))

	n, err := s.Expenses().CountByCurrency(ctx, trip.ID, "KZT")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.Error(t, s.Expenses().Create(ctx, &models.Expense{TripID: trip.ID, CategoryID: 999}))
}

func TestBudgets_SetPlannedKeepsSpent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	trip := newTrip(t, s)

	require.NoError(t, s.Budgets().AddSpent(ctx, trip.ID, 3, decimal.NewFromInt(25), "RUB"))
	require.NoError(t, s.Budgets().SetPlanned(ctx, trip.ID, 3, decimal.NewFromInt(100), "RUB"))

	b, err := s.Budgets().Get(ctx, trip.ID, 3)
	require.NoError(t, err)
	require.True(t, b.SpentAmount.Equal(decimal.NewFromInt(25)))
	require.True(t, b.PlannedAmount.Equal(decimal.NewFromInt(100)))

	require.NoError(t, s.Budgets().ResetSpent(ctx, trip.ID, map[int]decimal.Decimal{4: decimal.NewFromInt(9)}, "RUB"))
	list, err := s.Budgets().ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].SpentAmount.IsZero())
	require.True(t, list[1].SpentAmount.Equal(decimal.NewFromInt(9)))
}

func TestTripDelete_ClearsActivePointer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	trip := newTrip(t, s)

	require.NoError(t, s.Users().SetActiveTrip(ctx, 1, trip.ID))
	require.NoError(t, s.Trips().Delete(ctx, trip.ID))

	_, err := s.Users().GetActiveTripID(ctx, 1)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Trips().Delete(ctx, trip.ID), store.ErrNotFound)
}
