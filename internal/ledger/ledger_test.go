package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store/memory"
)

const testUser int64 = 42

func setupLedger(t testing.TB) (*Ledger, *memory.Store) {
	t.Helper()
	s := memory.New()
	return New(s, Options{}), s
}

// createTestTrip creates RUB→KZT at 5 KZT per RUB with 1000 RUB and the given limit in KZT.
func createTestTrip(t testing.TB, l *Ledger, limit string) *models.Trip {
	t.Helper()
	trip, err := l.CreateTrip(context.Background(), NewTrip{
		UserID:         testUser,
		Name:           "Almaty",
		HomeCurrency:   "rub",
		TargetCurrency: "KZT",
		Rate:           d("5"),
		HomeInitial:    d("1000"),
		BudgetLimit:    d(limit),
	})
	require.NoError(t, err)
	return trip
}

func categoryID(t testing.TB, l *Ledger, name string) int {
	t.Helper()
	cats, err := l.Categories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func record(t testing.TB, l *Ledger, trip *models.Trip, code, target, home string, cat int) (*models.Expense, []Notification) {
	t.Helper()
	e, n, err := l.RecordExpense(context.Background(), NewExpense{
		TripID:         trip.ID,
		CategoryID:     cat,
		AmountHome:     d(home),
		AmountTarget:   d(target),
		CurrencyHome:   trip.HomeCurrency,
		CurrencyTarget: code,
	})
	require.NoError(t, err)
	return e, n
}

func TestCreateTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)

	trip := createTestTrip(t, l, "1000")
	require.Equal(t, "RUB", trip.HomeCurrency)
	require.True(t, trip.TargetBalance.Equal(d("5000")))
	require.True(t, trip.NotificationThreshold.Equal(d("800")))
	require.Len(t, trip.Currencies, 1)
	require.Equal(t, "KZT", trip.Currencies[0].Code)
	require.True(t, trip.Currencies[0].Balance.Equal(d("5000")))
	require.True(t, trip.Currencies[0].RateToHome.Equal(d("5")))

	active, err := l.ActiveTrip(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, trip.ID, active.ID)
	require.Len(t, active.Currencies, 1)

	t.Run("no budget means no threshold", func(t *testing.T) {
		free := createTestTrip(t, l, "0")
		require.True(t, free.NotificationThreshold.IsZero())
	})

	t.Run("custom threshold percent", func(t *testing.T) {
		l := New(memory.New(), Options{ThresholdPercent: 90})
		trip := createTestTrip(t, l, "1000")
		require.True(t, trip.NotificationThreshold.Equal(d("900")))
	})
}

func TestCreateTrip_InvalidInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	valid := NewTrip{UserID: testUser, Name: "x", HomeCurrency: "RUB", TargetCurrency: "KZT", Rate: d("5"), HomeInitial: d("1")}
	tests := []struct {
		name   string
		mutate func(*NewTrip)
	}{
		{"empty name", func(n *NewTrip) { n.Name = "  " }},
		{"bad home code", func(n *NewTrip) { n.HomeCurrency = "RU" }},
		{"bad target code", func(n *NewTrip) { n.TargetCurrency = "K1T" }},
		{"zero rate", func(n *NewTrip) { n.Rate = decimal.Zero }},
		{"negative initial", func(n *NewTrip) { n.HomeInitial = d("-1") }},
		{"negative limit", func(n *NewTrip) { n.BudgetLimit = d("-1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, _ := setupLedger(t)
			in := valid
			tt.mutate(&in)

			_, err := l.CreateTrip(ctx, in)
			require.ErrorIs(t, err, ErrInvalidInput)

			trips, err := l.ListTrips(ctx, testUser)
			require.NoError(t, err)
			require.Empty(t, trips)
		})
	}
}

func TestActiveTrip_None(t *testing.T) {
	t.Parallel()
	l, _ := setupLedger(t)

	_, err := l.ActiveTrip(context.Background(), testUser)
	require.ErrorIs(t, err, ErrNoActiveTrip)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.Snapshot(context.Background(), testUser)
	require.ErrorIs(t, err, ErrNoActiveTrip)
}

func TestSetActiveTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)

	first := createTestTrip(t, l, "0")
	second := createTestTrip(t, l, "0")

	active, err := l.ActiveTrip(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	require.NoError(t, l.SetActiveTrip(ctx, testUser, first.ID))
	require.NoError(t, l.SetActiveTrip(ctx, testUser, first.ID))
	active, err = l.ActiveTrip(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, first.ID, active.ID)

	require.ErrorIs(t, l.SetActiveTrip(ctx, testUser, 9999), ErrNotFound)

	trips, err := l.ListTrips(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, trips, 2)
}

func TestRecordExpense_PrimaryCurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, s := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")

	e, n := record(t, l, trip, "KZT", "500", "100", food)
	require.NotZero(t, e.ID)
	require.Equal(t, "Food", e.Category.Name)
	require.Empty(t, n)

	got, err := l.Trip(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, got.TargetBalance.Equal(d("4500")))
	require.True(t, got.HomeBalance.Equal(d("900")))
	require.True(t, got.Currencies[0].Balance.Equal(d("4500")))

	b, err := s.Budgets().Get(ctx, trip.ID, food)
	require.NoError(t, err)
	require.True(t, b.SpentAmount.Equal(d("100")))
	require.True(t, b.PlannedAmount.IsZero())
	require.Equal(t, "RUB", b.CurrencyCode)
}

func TestRecordExpense_SecondaryCurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	other := categoryID(t, l, models.FallbackCategoryName)

	usd, err := l.AddCurrency(ctx, trip.ID, "usd", d("100"), d("0.01"))
	require.NoError(t, err)
	require.Equal(t, "USD", usd.Code)

	home, err := l.ToHome(ctx, trip, "USD", d("10"))
	require.NoError(t, err)
	require.True(t, home.Equal(d("1000")))

	record(t, l, trip, "USD", "10", "1000", other)

	got, err := l.Trip(ctx, trip.ID)
	require.NoError(t, err)
	// Primary balances only follow the primary currency.
	require.True(t, got.TargetBalance.Equal(d("5000")))
	require.True(t, got.HomeBalance.Equal(d("1000")))

	cur, err := l.Currency(ctx, usd.ID)
	require.NoError(t, err)
	require.True(t, cur.Balance.Equal(d("90")))
}

func TestRecordExpense_Rejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	before := aggregatesOf(t, l, trip.ID)

	_, _, err := l.RecordExpense(ctx, NewExpense{
		TripID: trip.ID, CategoryID: 999, AmountHome: d("1"), AmountTarget: d("5"),
		CurrencyHome: "RUB", CurrencyTarget: "KZT",
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = l.RecordExpense(ctx, NewExpense{
		TripID: trip.ID, CategoryID: 1, AmountHome: d("0"), AmountTarget: d("5"),
		CurrencyHome: "RUB", CurrencyTarget: "KZT",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = l.RecordExpense(ctx, NewExpense{
		TripID: 9999, CategoryID: 1, AmountHome: d("1"), AmountTarget: d("5"),
		CurrencyHome: "RUB", CurrencyTarget: "KZT",
	})
	require.ErrorIs(t, err, ErrNotFound)

	requireSameAggregates(t, before, aggregatesOf(t, l, trip.ID))
}

func TestCategoryThresholdEdgeTriggering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")

	require.NoError(t, l.SetCategoryBudget(ctx, trip.ID, food, d("100"), "RUB"))

	_, n := record(t, l, trip, "KZT", "250", "50", food)
	require.Empty(t, n)

	_, n = record(t, l, trip, "KZT", "200", "40", food)
	require.Len(t, n, 1)
	require.Equal(t, Approaching, n[0].Kind)
	require.Equal(t, food, n[0].CategoryID)
	require.True(t, n[0].Spent.Equal(d("90")))

	_, n = record(t, l, trip, "KZT", "100", "20", food)
	require.Len(t, n, 1)
	require.Equal(t, Exceeded, n[0].Kind)
	require.True(t, n[0].Overspent().Equal(d("10")))

	_, n = record(t, l, trip, "KZT", "100", "20", food)
	require.Empty(t, n)
}

func TestOverallThresholdEdgeTriggering(t *testing.T) {
	t.Parallel()
	l, _ := setupLedger(t)
	// Limit 1000 KZT, threshold 800 KZT, 5 KZT per RUB.
	trip := createTestTrip(t, l, "1000")
	other := categoryID(t, l, models.FallbackCategoryName)

	_, n := record(t, l, trip, "KZT", "750", "150", other)
	require.Empty(t, n)

	_, n = record(t, l, trip, "KZT", "50", "10", other)
	require.Len(t, n, 1)
	require.Equal(t, Approaching, n[0].Kind)
	require.True(t, n[0].Overall())
	require.Equal(t, "KZT", n[0].Currency)

	_, n = record(t, l, trip, "KZT", "100", "20", other)
	require.Empty(t, n)

	_, n = record(t, l, trip, "KZT", "250", "50", other)
	require.Len(t, n, 1)
	require.Equal(t, Exceeded, n[0].Kind)
	require.True(t, n[0].Overspent().Equal(d("150")))
}

func TestUpdateExpense(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, s := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")
	transport := categoryID(t, l, "Transport")

	e, _ := record(t, l, trip, "KZT", "500", "100", food)

	updated, _, err := l.UpdateExpense(ctx, e.ID, d("60"), d("300"), transport)
	require.NoError(t, err)
	require.Equal(t, "Transport", updated.Category.Name)

	foodBudget, err := s.Budgets().Get(ctx, trip.ID, food)
	require.NoError(t, err)
	require.True(t, foodBudget.SpentAmount.IsZero())

	transportBudget, err := s.Budgets().Get(ctx, trip.ID, transport)
	require.NoError(t, err)
	require.True(t, transportBudget.SpentAmount.Equal(d("60")))

	got, err := l.Trip(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, got.TargetBalance.Equal(d("4700")))
	require.True(t, got.HomeBalance.Equal(d("940")))
	require.True(t, got.Currencies[0].Balance.Equal(d("4700")))

	stored, err := l.Expense(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, stored.AmountHome.Equal(d("60")))

	_, _, err = l.UpdateExpense(ctx, 9999, d("1"), d("1"), food)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateExpense_CrossesCategoryBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")
	require.NoError(t, l.SetCategoryBudget(ctx, trip.ID, food, d("100"), ""))

	e, _ := record(t, l, trip, "KZT", "250", "50", food)
	_, n, err := l.UpdateExpense(ctx, e.ID, d("120"), d("600"), food)
	require.NoError(t, err)
	require.Len(t, n, 1)
	require.Equal(t, Exceeded, n[0].Kind)
	require.Equal(t, "KZT", n[0].Currency)
}

func TestDeleteExpense(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")

	before := aggregatesOf(t, l, trip.ID)
	e, _ := record(t, l, trip, "KZT", "500", "100", food)

	deleted, err := l.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, e.ID, deleted.ID)
	requireSameAggregates(t, before, aggregatesOf(t, l, trip.ID))

	_, err = l.DeleteExpense(ctx, e.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddCurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")

	_, err := l.AddCurrency(ctx, trip.ID, "USD", d("10"), d("0.011"))
	require.NoError(t, err)

	_, err = l.AddCurrency(ctx, trip.ID, "usd", d("10"), d("0.011"))
	require.ErrorIs(t, err, ErrDuplicateCurrency)

	_, err = l.AddCurrency(ctx, trip.ID, "KZT", d("10"), d("5"))
	require.ErrorIs(t, err, ErrDuplicateCurrency)

	_, err = l.AddCurrency(ctx, trip.ID, "EUR", d("10"), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.AddCurrency(ctx, trip.ID, "EURO", d("10"), d("1"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.AddCurrency(ctx, 9999, "EUR", d("10"), d("1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	before := aggregatesOf(t, l, trip.ID)

	cur, err := l.SetBalance(ctx, trip.Currencies[0].ID, d("1234.5"))
	require.NoError(t, err)
	require.True(t, cur.Balance.Equal(d("1234.5")))

	after := aggregatesOf(t, l, trip.ID)
	require.True(t, after.currencies["KZT"].Equal(d("1234.5")))
	// Manual overrides leave the trip's primary balances alone.
	require.True(t, after.targetBalance.Equal(before.targetBalance))

	_, err = l.SetBalance(ctx, 9999, d("1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveCurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	other := categoryID(t, l, models.FallbackCategoryName)

	t.Run("primary currency is protected", func(t *testing.T) {
		err := l.RemoveCurrency(ctx, trip.Currencies[0].ID)
		require.ErrorIs(t, err, ErrProtectedCurrency)
	})

	t.Run("currency with expenses is in use", func(t *testing.T) {
		usd, err := l.AddCurrency(ctx, trip.ID, "USD", d("100"), d("0.01"))
		require.NoError(t, err)
		record(t, l, trip, "USD", "1", "100", other)

		require.ErrorIs(t, l.RemoveCurrency(ctx, usd.ID), ErrCurrencyInUse)
	})

	t.Run("unused currency is removed", func(t *testing.T) {
		eur, err := l.AddCurrency(ctx, trip.ID, "EUR", d("100"), d("0.01"))
		require.NoError(t, err)
		require.NoError(t, l.RemoveCurrency(ctx, eur.ID))

		_, err = l.Currency(ctx, eur.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing currency", func(t *testing.T) {
		require.ErrorIs(t, l.RemoveCurrency(ctx, 9999), ErrNotFound)
	})
}

func TestDeleteTrip_Cascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, s := setupLedger(t)
	keep := createTestTrip(t, l, "0")
	trip := createTestTrip(t, l, "1000")
	food := categoryID(t, l, "Food")

	_, err := l.AddCurrency(ctx, trip.ID, "USD", d("100"), d("0.01"))
	require.NoError(t, err)
	require.NoError(t, l.SetCategoryBudget(ctx, trip.ID, food, d("100"), ""))
	record(t, l, trip, "KZT", "500", "100", food)
	record(t, l, trip, "USD", "1", "100", food)
	record(t, l, keep, "KZT", "5", "1", food)

	require.NoError(t, l.DeleteTrip(ctx, trip.ID))

	expenses, err := s.Expenses().ListByTrip(ctx, trip.ID, nil)
	require.NoError(t, err)
	require.Empty(t, expenses)

	currencies, err := s.Currencies().ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Empty(t, currencies)

	budgets, err := s.Budgets().ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Empty(t, budgets)

	_, err = l.ActiveTrip(ctx, testUser)
	require.ErrorIs(t, err, ErrNoActiveTrip)

	kept, err := s.Expenses().ListByTrip(ctx, keep.ID, nil)
	require.NoError(t, err)
	require.Len(t, kept, 1)

	require.ErrorIs(t, l.DeleteTrip(ctx, trip.ID), ErrNotFound)
}

func TestSetBudgetLimitAndThreshold(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")

	got, err := l.SetBudgetLimit(ctx, trip.ID, d("2000"))
	require.NoError(t, err)
	require.True(t, got.BudgetLimit.Equal(d("2000")))
	require.True(t, got.NotificationThreshold.Equal(d("1600")))

	got, err = l.SetNotificationThreshold(ctx, trip.ID, d("1500"))
	require.NoError(t, err)
	require.True(t, got.BudgetLimit.Equal(d("2000")))
	require.True(t, got.NotificationThreshold.Equal(d("1500")))

	_, err = l.SetNotificationThreshold(ctx, trip.ID, d("2000.01"))
	require.ErrorIs(t, err, ErrInvalidInput)
	unchanged, err := l.Trip(ctx, trip.ID)
	require.NoError(t, err)
	require.True(t, unchanged.NotificationThreshold.Equal(d("1500")))

	got, err = l.SetNotificationThreshold(ctx, trip.ID, d("2000"))
	require.NoError(t, err)
	require.True(t, got.NotificationThreshold.Equal(d("2000")))

	got, err = l.SetBudgetLimit(ctx, trip.ID, decimal.Zero)
	require.NoError(t, err)
	require.True(t, got.NotificationThreshold.IsZero())

	// Without a limit any threshold is accepted.
	got, err = l.SetNotificationThreshold(ctx, trip.ID, d("5000"))
	require.NoError(t, err)
	require.True(t, got.NotificationThreshold.Equal(d("5000")))

	_, err = l.SetBudgetLimit(ctx, trip.ID, d("-1"))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.SetNotificationThreshold(ctx, 9999, d("1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetCategoryBudget_KeepsSpent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")

	record(t, l, trip, "KZT", "150", "30", food)
	require.NoError(t, l.SetCategoryBudget(ctx, trip.ID, food, d("200"), ""))

	statuses, err := l.CategoryBudgets(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, statuses, len(models.DefaultCategories))

	var found bool
	for _, s := range statuses {
		if s.Category.ID != food {
			require.True(t, s.Limit.IsZero())
			continue
		}
		found = true
		require.True(t, s.Limit.Equal(d("200")))
		require.True(t, s.Spent.Equal(d("30")))
		require.True(t, s.Percent.Equal(d("15")))
		require.Equal(t, "KZT", s.Currency)
	}
	require.True(t, found)

	require.ErrorIs(t, l.SetCategoryBudget(ctx, trip.ID, 999, d("1"), ""), ErrNotFound)
	require.ErrorIs(t, l.SetCategoryBudget(ctx, trip.ID, food, d("-1"), ""), ErrInvalidInput)
}

func TestRecomputeCategorySpending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, s := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")
	transport := categoryID(t, l, "Transport")

	record(t, l, trip, "KZT", "150", "30", food)
	record(t, l, trip, "KZT", "50", "10", transport)

	// Drift the denormalized totals.
	require.NoError(t, s.Budgets().AddSpent(ctx, trip.ID, food, d("999"), "RUB"))
	require.NoError(t, s.Budgets().AddSpent(ctx, trip.ID, categoryID(t, l, "Shopping"), d("5"), "RUB"))

	require.NoError(t, l.RecomputeCategorySpending(ctx, trip.ID))
	requireConservation(t, l, s, trip.ID)

	b, err := s.Budgets().Get(ctx, trip.ID, food)
	require.NoError(t, err)
	require.True(t, b.SpentAmount.Equal(d("30")))
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "1000")
	food := categoryID(t, l, "Food")

	_, err := l.AddCurrency(ctx, trip.ID, "USD", d("20"), d("0.01"))
	require.NoError(t, err)
	require.NoError(t, l.SetCategoryBudget(ctx, trip.ID, food, d("100"), ""))
	record(t, l, trip, "KZT", "500", "100", food)

	snap, err := l.Snapshot(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, trip.ID, snap.Trip.ID)
	require.Len(t, snap.Currencies, 2)
	// 4500 KZT / 5 + 20 USD / 0.01
	require.True(t, snap.TotalHome.Equal(d("2900")))
	require.True(t, snap.SpentHome.Equal(d("100")))
	require.True(t, snap.Overall.Spent.Equal(d("500")))
	require.True(t, snap.Overall.Remaining.Equal(d("500")))
	require.True(t, snap.Overall.Percent.Equal(d("50")))
	require.Len(t, snap.Categories, 1)
	require.Equal(t, "Food", snap.Categories[0].Category.Name)

	byID, err := l.TripSnapshot(ctx, trip.ID)
	require.NoError(t, err)
	require.Equal(t, snap.Trip.ID, byID.Trip.ID)
}

func TestExpensesHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := setupLedger(t)
	trip := createTestTrip(t, l, "0")
	food := categoryID(t, l, "Food")
	transport := categoryID(t, l, "Transport")

	first, _ := record(t, l, trip, "KZT", "5", "1", food)
	second, _ := record(t, l, trip, "KZT", "10", "2", transport)

	all, err := l.Expenses(ctx, trip.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)

	onlyFood, err := l.Expenses(ctx, trip.ID, &food)
	require.NoError(t, err)
	require.Len(t, onlyFood, 1)
	require.Equal(t, first.ID, onlyFood[0].ID)
}

func TestActiveUsers(t *testing.T) {
	t.Parallel()
	l, _ := setupLedger(t)
	createTestTrip(t, l, "0")

	users, err := l.ActiveUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, testUser, users[0].ID)
}
