package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// HomeAmountPlaces is the number of decimal places kept when converting into the home currency.
const HomeAmountPlaces = 8

// SupportedCurrencies maps known currency codes to display symbols.
// Codes outside this map are still accepted as long as they are well formed.
var SupportedCurrencies = map[string]string{
	"SGD": "S$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"MYR": "RM",
	"THB": "฿",
	"IDR": "Rp",
	"PHP": "₱",
	"VND": "₫",
	"KRW": "₩",
	"INR": "₹",
	"AUD": "A$",
	"NZD": "NZ$",
	"HKD": "HK$",
	"TWD": "NT$",
	"RUB": "₽",
	"KZT": "₸",
	"TRY": "₺",
	"AED": "د.إ",
	"GEL": "₾",
	"AMD": "֏",
	"CHF": "Fr",
}

// NormalizeCurrencyCode upper-cases and trims a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCurrencyCode reports whether code is a three-letter ISO-style code.
// The code is expected to be normalized already.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CurrencySymbol returns the display symbol for a code, or the code itself when unknown.
func CurrencySymbol(code string) string {
	if symbol, ok := SupportedCurrencies[code]; ok {
		return symbol
	}
	return code
}

// HomeEquivalent converts an amount held in a trip currency into home units.
// rateToHome is "1 home unit = rateToHome units of the currency", so the conversion divides.
func HomeEquivalent(amount, rateToHome decimal.Decimal) decimal.Decimal {
	if rateToHome.IsZero() {
		return decimal.Zero
	}
	return amount.DivRound(rateToHome, HomeAmountPlaces)
}

// FromHome converts a home-currency amount into a trip currency.
func FromHome(amountHome, rateToHome decimal.Decimal) decimal.Decimal {
	return amountHome.Mul(rateToHome)
}
