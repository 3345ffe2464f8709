package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FrankfurterClient is a client for the frankfurter.app exchange rates API.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
}

type frankfurterResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewFrankfurterClient creates a Frankfurter API client.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://api.frankfurter.app"
	}

	return &FrankfurterClient{
		baseURL:    trimmed,
		httpClient: newHTTPClient(timeout),
	}
}

// Rate returns the latest from→to rate.
func (c *FrankfurterClient) Rate(ctx context.Context, from, to string) (Quote, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return Quote{}, err
	}
	if from == to {
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1), Date: time.Now().UTC()}, nil
	}

	endpoint := fmt.Sprintf("%s/latest?from=%s&to=%s",
		c.baseURL,
		url.QueryEscape(from),
		url.QueryEscape(to),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to request rate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("exchange API returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload frankfurterResponse
	if err := decoder.Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return Quote{}, errRateMissing
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Quote{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if err := validateConversionRate(rate); err != nil {
		return Quote{}, err
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to parse rate date: %w", err)
	}

	return Quote{From: from, To: to, Rate: rate, Date: date}, nil
}
