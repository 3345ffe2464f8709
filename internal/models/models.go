// Package models defines the domain entities for the trip ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultThresholdRatio is the share of a limit at which an "approaching" notification fires.
var DefaultThresholdRatio = decimal.RequireFromString("0.8")

// FallbackCategoryName is the catalog entry assigned to legacy uncategorized expenses.
const FallbackCategoryName = "Other"

// DefaultCategories is the fixed category catalog seeded at storage initialization.
// The fallback category must stay in the list.
var DefaultCategories = []Category{
	{Name: "Transport", Description: "Buses, metro, taxis, flights and other transport"},
	{Name: "Accommodation", Description: "Hotels, rentals and other lodging"},
	{Name: "Food", Description: "Restaurants, cafes and groceries"},
	{Name: "Entertainment", Description: "Museums, tours and other activities"},
	{Name: "Shopping", Description: "Souvenirs, clothes and other purchases"},
	{Name: FallbackCategoryName, Description: "Everything else"},
}

// User represents a Telegram user and the trip they are currently working with.
type User struct {
	ID           int64
	ActiveTripID *int64
	UpdatedAt    time.Time
}

// Trip is a bounded travel period with one home currency and one primary target currency.
//
// HomeBalance and TargetBalance track the primary currency pair only; expenses in other
// registered currencies leave them untouched.
type Trip struct {
	ID                    int64
	UserID                int64
	Name                  string
	HomeCurrency          string
	TargetCurrency        string
	ExchangeRate          decimal.Decimal
	HomeBalance           decimal.Decimal
	TargetBalance         decimal.Decimal
	BudgetLimit           decimal.Decimal
	NotificationThreshold decimal.Decimal
	CreatedAt             time.Time

	// Currencies is populated by reads that return the full trip view.
	Currencies []TripCurrency
}

// HasBudget reports whether an overall budget limit is configured.
func (t *Trip) HasBudget() bool {
	return t.BudgetLimit.IsPositive()
}

// TripCurrency is a currency registered on a trip together with the amount held in it.
type TripCurrency struct {
	ID     int64
	TripID int64
	Code   string
	// Balance is the current amount held in this currency.
	Balance decimal.Decimal
	// RateToHome is the number of units of this currency per one home unit.
	RateToHome decimal.Decimal
	CreatedAt  time.Time
}

// HomeEquivalent returns the balance expressed in the trip's home currency.
func (c TripCurrency) HomeEquivalent() decimal.Decimal {
	return HomeEquivalent(c.Balance, c.RateToHome)
}

// Category represents an expense category from the fixed catalog.
type Category struct {
	ID          int
	Name        string
	Description string
}

// Expense is a single spending entry recorded against a trip.
type Expense struct {
	ID     int64
	TripID int64
	// AmountTarget is the amount in the transaction currency.
	AmountTarget decimal.Decimal
	// AmountHome is the home-currency equivalent at recording time.
	AmountHome     decimal.Decimal
	CurrencyTarget string
	CurrencyHome   string
	CategoryID     int
	Category       *Category
	CreatedAt      time.Time
}

// CategoryBudget holds the planned and spent amounts for one category of a trip.
//
// SpentAmount is a denormalized running total of AmountHome over the trip's expenses
// in that category. PlannedAmount of zero means no budget is set.
type CategoryBudget struct {
	ID            int64
	TripID        int64
	CategoryID    int
	PlannedAmount decimal.Decimal
	SpentAmount   decimal.Decimal
	CurrencyCode  string
}

// HasPlan reports whether a planned amount is configured for the category.
func (b *CategoryBudget) HasPlan() bool {
	return b.PlannedAmount.IsPositive()
}
