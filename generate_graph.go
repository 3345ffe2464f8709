//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/bot"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

func main() {
	spent := func(id int, name string, amount float64) ledger.CategoryStatus {
		return ledger.CategoryStatus{
			Category:     models.Category{ID: id, Name: name},
			BudgetStatus: ledger.BudgetStatus{Spent: decimal.NewFromFloat(amount), Currency: "RUB"},
		}
	}
	statuses := []ledger.CategoryStatus{
		spent(1, "Transport", 4200),
		spent(2, "Accommodation", 18000),
		spent(3, "Food", 7350.5),
		spent(4, "Entertainment", 2500),
		spent(5, "Shopping", 3100),
	}

	chartData, err := bot.GenerateCategoryChart(statuses, "Spending in Almaty (RUB)")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example trip spending chart")
}
