package exchange

import (
	"strings"

	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// countryCurrencies maps lower-cased country names (English and Russian) and
// ISO country codes to the local currency.
var countryCurrencies = map[string]string{
	"russia": "RUB", "ru": "RUB", "рф": "RUB", "россия": "RUB",
	"usa": "USD", "united states": "USD", "us": "USD", "сша": "USD",
	"eu": "EUR", "europe": "EUR", "германия": "EUR", "germany": "EUR", "de": "EUR",
	"france": "EUR", "fr": "EUR", "франция": "EUR", "italy": "EUR", "it": "EUR", "италия": "EUR",
	"spain": "EUR", "es": "EUR", "испания": "EUR",
	"china": "CNY", "cn": "CNY", "китай": "CNY",
	"turkey": "TRY", "türkiye": "TRY", "tr": "TRY", "турция": "TRY",
	"thailand": "THB", "th": "THB", "таиланд": "THB",
	"uae": "AED", "ae": "AED", "united arab emirates": "AED", "оаэ": "AED",
	"uk": "GBP", "united kingdom": "GBP", "gb": "GBP", "великобритания": "GBP",
	"kazakhstan": "KZT", "kz": "KZT", "казахстан": "KZT",
	"georgia": "GEL", "ge": "GEL", "грузия": "GEL",
	"armenia": "AMD", "am": "AMD", "армения": "AMD",
	"japan": "JPY", "jp": "JPY", "япония": "JPY",
	"singapore": "SGD", "sg": "SGD", "сингапур": "SGD",
	"malaysia": "MYR", "my": "MYR", "малайзия": "MYR",
	"myanmar": "MMK", "mm": "MMK", "мьянма": "MMK",
	"switzerland": "CHF", "ch": "CHF", "швейцария": "CHF",
	"india": "INR", "in": "INR", "индия": "INR",
	"vietnam": "VND", "vn": "VND", "вьетнам": "VND",
	"indonesia": "IDR", "id": "IDR", "индонезия": "IDR",
	"australia": "AUD", "au": "AUD", "австралия": "AUD",
}

// GuessCurrency returns a best-effort currency code for a place name. A
// valid three-letter currency code is returned as is.
func GuessCurrency(place string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(place))
	key = strings.TrimSuffix(key, ".")
	if key == "" {
		return "", false
	}
	if code, ok := countryCurrencies[key]; ok {
		return code, true
	}

	code := models.NormalizeCurrencyCode(place)
	if _, known := models.SupportedCurrencies[code]; known {
		return code, true
	}
	return "", false
}
