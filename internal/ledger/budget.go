package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// NotificationKind tells which boundary a mutation crossed.
type NotificationKind int

const (
	// Approaching means spending reached the notification threshold.
	Approaching NotificationKind = iota + 1
	// Exceeded means spending reached the limit.
	Exceeded
)

func (k NotificationKind) String() string {
	switch k {
	case Approaching:
		return "approaching"
	case Exceeded:
		return "exceeded"
	default:
		return fmt.Sprintf("NotificationKind(%d)", int(k))
	}
}

// Notification reports one threshold or limit crossing.
type Notification struct {
	Kind NotificationKind
	// CategoryID is zero for the overall trip budget.
	CategoryID   int
	CategoryName string
	Spent        decimal.Decimal
	Limit        decimal.Decimal
	Currency     string
}

// Overall reports whether the notification concerns the whole trip budget.
func (n Notification) Overall() bool {
	return n.CategoryID == 0
}

// Overspent returns how far spending went past the limit, or zero.
func (n Notification) Overspent() decimal.Decimal {
	return decimal.Max(n.Spent.Sub(n.Limit), decimal.Zero)
}

// crossed reports whether moving from before to after reaches line from below.
func crossed(before, after, line decimal.Decimal) bool {
	return line.IsPositive() && before.LessThan(line) && after.GreaterThanOrEqual(line)
}

// evaluate returns the single boundary crossed by a before/after pair.
// When one mutation passes both lines only the limit is reported.
func evaluate(before, after, threshold, limit decimal.Decimal) (NotificationKind, bool) {
	switch {
	case crossed(before, after, limit):
		return Exceeded, true
	case crossed(before, after, threshold):
		return Approaching, true
	default:
		return 0, false
	}
}

// EvaluateOverall checks the trip budget. Spending is given in home units and
// converted to the target currency with the trip's exchange rate.
func EvaluateOverall(trip models.Trip, spentBeforeHome, spentAfterHome decimal.Decimal) []Notification {
	if !trip.HasBudget() {
		return nil
	}
	before := spentBeforeHome.Mul(trip.ExchangeRate)
	after := spentAfterHome.Mul(trip.ExchangeRate)

	kind, ok := evaluate(before, after, trip.NotificationThreshold, trip.BudgetLimit)
	if !ok {
		return nil
	}
	return []Notification{{
		Kind:     kind,
		Spent:    after,
		Limit:    trip.BudgetLimit,
		Currency: trip.TargetCurrency,
	}}
}

// EvaluateCategory checks a category budget against its planned amount, with
// the approaching line at ratio of planned.
func EvaluateCategory(budget models.CategoryBudget, category models.Category, spentBefore, spentAfter, ratio decimal.Decimal) []Notification {
	if !budget.HasPlan() {
		return nil
	}
	threshold := budget.PlannedAmount.Mul(ratio)

	kind, ok := evaluate(spentBefore, spentAfter, threshold, budget.PlannedAmount)
	if !ok {
		return nil
	}
	return []Notification{{
		Kind:         kind,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Spent:        spentAfter,
		Limit:        budget.PlannedAmount,
		Currency:     budget.CurrencyCode,
	}}
}

// BudgetStatus summarizes spending against a limit.
type BudgetStatus struct {
	Limit     decimal.Decimal
	Threshold decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	// Percent is spent/limit in percent, capped at 100.
	Percent  decimal.Decimal
	Currency string
}

// Over reports whether spending reached the limit.
func (s BudgetStatus) Over() bool {
	return s.Limit.IsPositive() && s.Spent.GreaterThanOrEqual(s.Limit)
}

var hundred = decimal.NewFromInt(100)

func newBudgetStatus(limit, threshold, spent decimal.Decimal, currency string) BudgetStatus {
	status := BudgetStatus{
		Limit:     limit,
		Threshold: threshold,
		Spent:     spent,
		Remaining: limit.Sub(spent),
		Currency:  currency,
	}
	if limit.IsPositive() {
		status.Percent = decimal.Min(spent.Div(limit).Mul(hundred), hundred).Round(1)
	}
	return status
}

// CategoryStatus is a catalog category with its budget figures.
type CategoryStatus struct {
	Category models.Category
	BudgetStatus
}

// thresholdFor derives the approaching line from a limit.
func thresholdFor(limit, ratio decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return limit.Mul(ratio)
}
