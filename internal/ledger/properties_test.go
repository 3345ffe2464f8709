package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store/memory"
	"pgregory.net/rapid"
)

// aggregates holds every denormalized figure an expense mutation touches.
type aggregates struct {
	homeBalance   decimal.Decimal
	targetBalance decimal.Decimal
	currencies    map[string]decimal.Decimal
	spent         map[int]decimal.Decimal
}

func aggregatesOf(t require.TestingT, l *Ledger, tripID int64) aggregates {
	ctx := context.Background()
	trip, err := l.Trip(ctx, tripID)
	require.NoError(t, err)

	agg := aggregates{
		homeBalance:   trip.HomeBalance,
		targetBalance: trip.TargetBalance,
		currencies:    map[string]decimal.Decimal{},
		spent:         map[int]decimal.Decimal{},
	}
	for _, c := range trip.Currencies {
		agg.currencies[c.Code] = c.Balance
	}
	statuses, err := l.CategoryBudgets(ctx, tripID)
	require.NoError(t, err)
	for _, s := range statuses {
		agg.spent[s.Category.ID] = s.Spent
	}
	return agg
}

func requireSameAggregates(t require.TestingT, want, got aggregates) {
	require.True(t, want.homeBalance.Equal(got.homeBalance), "home balance %s != %s", want.homeBalance, got.homeBalance)
	require.True(t, want.targetBalance.Equal(got.targetBalance), "target balance %s != %s", want.targetBalance, got.targetBalance)
	require.Len(t, got.currencies, len(want.currencies))
	for code, v := range want.currencies {
		require.True(t, v.Equal(got.currencies[code]), "currency %s: %s != %s", code, v, got.currencies[code])
	}
	for id, v := range want.spent {
		require.True(t, v.Equal(got.spent[id]), "category %d: %s != %s", id, v, got.spent[id])
	}
}

func requireConservation(t require.TestingT, l *Ledger, s *memory.Store, tripID int64) {
	ctx := context.Background()
	total, err := s.Expenses().TotalHome(ctx, tripID)
	require.NoError(t, err)
	byCategory, err := s.Expenses().TotalsHomeByCategory(ctx, tripID)
	require.NoError(t, err)

	budgets, err := s.Budgets().ListByTrip(ctx, tripID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, b := range budgets {
		sum = sum.Add(b.SpentAmount)
		require.True(t, b.SpentAmount.Equal(byCategory[b.CategoryID]),
			"category %d spent %s, expenses %s", b.CategoryID, b.SpentAmount, byCategory[b.CategoryID])
	}
	require.True(t, sum.Equal(total), "spent %s != expenses %s", sum, total)
}

func drawAmount(t *rapid.T, label string) decimal.Decimal {
	return decimal.New(rapid.Int64Range(1, 10_000_000).Draw(t, label), -2)
}

func drawCategory(t *rapid.T, label string) int {
	return rapid.IntRange(1, len(models.DefaultCategories)).Draw(t, label)
}

// propertyTrip creates a RUB→GEL trip with an extra USD currency.
func propertyTrip(t *rapid.T, l *Ledger) *models.Trip {
	ctx := context.Background()
	trip, err := l.CreateTrip(ctx, NewTrip{
		UserID:         testUser,
		Name:           "Tbilisi",
		HomeCurrency:   "RUB",
		TargetCurrency: "GEL",
		Rate:           d("0.03"),
		HomeInitial:    d("100000"),
		BudgetLimit:    d("2000"),
	})
	require.NoError(t, err)
	_, err = l.AddCurrency(ctx, trip.ID, "USD", d("500"), d("0.011"))
	require.NoError(t, err)
	return trip
}

func drawExpense(t *rapid.T, trip *models.Trip, label string) NewExpense {
	return NewExpense{
		TripID:         trip.ID,
		CategoryID:     drawCategory(t, label+"_category"),
		AmountHome:     drawAmount(t, label+"_home"),
		AmountTarget:   drawAmount(t, label+"_target"),
		CurrencyHome:   trip.HomeCurrency,
		CurrencyTarget: rapid.SampledFrom([]string{"GEL", "USD", "EUR"}).Draw(t, label+"_currency"),
	}
}

func TestProperty_Conservation(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		s := memory.New()
		l := New(s, Options{})
		trip := propertyTrip(t, l)
		var ids []int64

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.IntRange(0, 2).Draw(t, "op")
			switch {
			case op == 0 || len(ids) == 0:
				e, _, err := l.RecordExpense(ctx, drawExpense(t, trip, "record"))
				require.NoError(t, err)
				ids = append(ids, e.ID)
			case op == 1:
				id := rapid.SampledFrom(ids).Draw(t, "update_id")
				_, _, err := l.UpdateExpense(ctx, id, drawAmount(t, "new_home"), drawAmount(t, "new_target"), drawCategory(t, "new_category"))
				require.NoError(t, err)
			default:
				idx := rapid.IntRange(0, len(ids)-1).Draw(t, "delete_idx")
				_, err := l.DeleteExpense(ctx, ids[idx])
				require.NoError(t, err)
				ids = append(ids[:idx], ids[idx+1:]...)
			}
			requireConservation(t, l, s, trip.ID)
		}
	})
}

func TestProperty_UpdateEqualsDeleteAndRecord(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		edited := New(memory.New(), Options{})
		recreated := New(memory.New(), Options{})
		tripA := propertyTrip(t, edited)
		tripB := propertyTrip(t, recreated)

		prior := rapid.IntRange(0, 5).Draw(t, "prior")
		for i := 0; i < prior; i++ {
			in := drawExpense(t, tripA, "prior")
			_, _, err := edited.RecordExpense(ctx, in)
			require.NoError(t, err)
			in.TripID = tripB.ID
			_, _, err = recreated.RecordExpense(ctx, in)
			require.NoError(t, err)
		}

		original := drawExpense(t, tripA, "original")
		a, _, err := edited.RecordExpense(ctx, original)
		require.NoError(t, err)
		original.TripID = tripB.ID
		b, _, err := recreated.RecordExpense(ctx, original)
		require.NoError(t, err)

		newHome := drawAmount(t, "new_home")
		newTarget := drawAmount(t, "new_target")
		newCategory := drawCategory(t, "new_category")

		_, _, err = edited.UpdateExpense(ctx, a.ID, newHome, newTarget, newCategory)
		require.NoError(t, err)

		_, err = recreated.DeleteExpense(ctx, b.ID)
		require.NoError(t, err)
		replacement := original
		replacement.AmountHome = newHome
		replacement.AmountTarget = newTarget
		replacement.CategoryID = newCategory
		_, _, err = recreated.RecordExpense(ctx, replacement)
		require.NoError(t, err)

		requireSameAggregates(t, aggregatesOf(t, recreated, tripB.ID), aggregatesOf(t, edited, tripA.ID))
	})
}

func TestProperty_DeleteInvertsRecord(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		l := New(memory.New(), Options{})
		trip := propertyTrip(t, l)

		prior := rapid.IntRange(0, 5).Draw(t, "prior")
		for i := 0; i < prior; i++ {
			_, _, err := l.RecordExpense(ctx, drawExpense(t, trip, "prior"))
			require.NoError(t, err)
		}

		before := aggregatesOf(t, l, trip.ID)
		e, _, err := l.RecordExpense(ctx, drawExpense(t, trip, "expense"))
		require.NoError(t, err)
		_, err = l.DeleteExpense(ctx, e.ID)
		require.NoError(t, err)

		requireSameAggregates(t, before, aggregatesOf(t, l, trip.ID))
	})
}

func TestProperty_ProtectedAndInUseCurrencies(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		l := New(memory.New(), Options{})
		trip := propertyTrip(t, l)

		n := rapid.IntRange(0, 5).Draw(t, "expenses")
		for i := 0; i < n; i++ {
			in := drawExpense(t, trip, "expense")
			in.CurrencyTarget = rapid.SampledFrom([]string{"GEL", "USD"}).Draw(t, "currency")
			_, _, err := l.RecordExpense(ctx, in)
			require.NoError(t, err)
		}

		current, err := l.Trip(ctx, trip.ID)
		require.NoError(t, err)
		for _, c := range current.Currencies {
			used, err := l.store.Expenses().CountByCurrency(ctx, trip.ID, c.Code)
			require.NoError(t, err)

			err = l.RemoveCurrency(ctx, c.ID)
			switch {
			case c.Code == trip.TargetCurrency:
				require.ErrorIs(t, err, ErrProtectedCurrency)
			case used > 0:
				require.ErrorIs(t, err, ErrCurrencyInUse)
			default:
				require.NoError(t, err)
			}
		}
	})
}

func FuzzParseAmount(f *testing.F) {
	for _, seed := range []string{"12.50", "12,50", "", "abc", "1e3", "1e50000000", " 7 ", "-0", "9999999999999999"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, input string) {
		amount, err := ParseAmount(input)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidInput)
			require.True(t, amount.IsZero())
			return
		}
		// sign, integer digits, point, fraction digits
		require.LessOrEqual(t, len(amount.String()), 1+maxIntegerDigits+1+maxFractionDigits)
	})
}
