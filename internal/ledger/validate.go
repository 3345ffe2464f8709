package ledger

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

const (
	maxIntegerDigits  = 15
	maxFractionDigits = 10
)

// amountPattern is plain decimal notation. Exponents are not accepted.
var amountPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount parses a user-entered amount. Both "12.50" and "12,50" are accepted.
// At most 15 integer and 10 fractional digits are allowed.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, invalid("empty amount")
	}
	if !amountPattern.MatchString(s) {
		return decimal.Zero, invalid("%q is not a number", s)
	}

	intPart, fracPart, _ := strings.Cut(strings.TrimLeft(s, "+-"), ".")
	if len(strings.TrimLeft(intPart, "0")) > maxIntegerDigits {
		return decimal.Zero, invalid("amount is too large")
	}
	if len(strings.TrimRight(fracPart, "0")) > maxFractionDigits {
		return decimal.Zero, invalid("amount has too many decimal places")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("%q is not a number", s)
	}
	return amount, nil
}

// ParsePositiveAmount parses an amount that must be greater than zero.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	amount, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, invalid("amount must be positive")
	}
	return amount, nil
}

func currencyCode(code string) (string, error) {
	code = models.NormalizeCurrencyCode(code)
	if !models.IsValidCurrencyCode(code) {
		return "", invalid("%q is not a currency code", code)
	}
	return code, nil
}

func positive(name string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return invalid("%s must be positive", name)
	}
	return nil
}

func nonNegative(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid("%s must not be negative", name)
	}
	return nil
}
