// Package exchange looks up currency exchange rates for trip setup.
//
// Rates are quoted as "1 unit of From buys Rate units of To". Lookups are
// best effort: any failure surfaces as ErrRateUnavailable and the caller is
// expected to ask the user for a manual rate.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrRateUnavailable means no rate could be obtained for the pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

var (
	errRateMissing            = errors.New("conversion rate missing in response")
	errInvalidNonPositiveRate = errors.New("conversion rate must be positive")
)

// Provider names accepted by NewProvider.
const (
	ProviderFrankfurter      = "frankfurter"
	ProviderExchangeRateHost = "exchangeratehost"
	ProviderNone             = "none"
)

const defaultTimeout = 5 * time.Second

// Quote is one exchange rate observation.
type Quote struct {
	From string
	To   string
	Rate decimal.Decimal
	Date time.Time
}

// Provider returns the current rate for a currency pair.
type Provider interface {
	Rate(ctx context.Context, from, to string) (Quote, error)
}

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Name     string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NewProvider builds the configured provider wrapped in a rate cache.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	var inner Provider
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", ProviderFrankfurter:
		inner = NewFrankfurterClient(cfg.BaseURL, cfg.Timeout)
	case ProviderExchangeRateHost:
		inner = NewExchangeRateHostClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	case ProviderNone:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown exchange provider %q", cfg.Name)
	}
	return NewCachedProvider(inner, cfg.CacheTTL), nil
}

// Disabled is a Provider that never has a rate.
type Disabled struct{}

// Rate always fails with ErrRateUnavailable.
func (Disabled) Rate(_ context.Context, from, to string) (Quote, error) {
	return Quote{}, fmt.Errorf("%w: lookups disabled for %s->%s", ErrRateUnavailable, from, to)
}

// LookupRate asks p for the from→to rate and folds every failure into
// ErrRateUnavailable. Identical codes yield a rate of 1 without a lookup.
func LookupRate(ctx context.Context, p Provider, from, to string) (decimal.Decimal, error) {
	from = models.NormalizeCurrencyCode(from)
	to = models.NormalizeCurrencyCode(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if p == nil {
		return decimal.Zero, fmt.Errorf("%w: no provider", ErrRateUnavailable)
	}

	q, err := p.Rate(ctx, from, to)
	if err != nil {
		if errors.Is(err, ErrRateUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %s->%s: %w", ErrRateUnavailable, from, to, err)
	}
	return q.Rate, nil
}

func validateConversionRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return errInvalidNonPositiveRate
	}
	return nil
}

func normalizePair(from, to string) (string, string, error) {
	from = models.NormalizeCurrencyCode(from)
	to = models.NormalizeCurrencyCode(to)
	if from == "" || to == "" {
		return "", "", errors.New("from and to currencies are required")
	}
	return from, to, nil
}

// newHTTPClient returns a client whose requests are traced.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
