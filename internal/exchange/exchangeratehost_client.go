package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateHostClient is a client for the exchangerate.host /convert API.
type ExchangeRateHostClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type exchangeRateHostResponse struct {
	Success bool `json:"success"`
	Info    struct {
		Timestamp int64       `json:"timestamp"`
		Quote     json.Number `json:"quote"`
	} `json:"info"`
	Error *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}

// NewExchangeRateHostClient creates an exchangerate.host client.
func NewExchangeRateHostClient(baseURL, apiKey string, timeout time.Duration) *ExchangeRateHostClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://api.exchangerate.host"
	}

	return &ExchangeRateHostClient{
		baseURL:    trimmed,
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
	}
}

// Rate converts one unit of from and reports the quote.
func (c *ExchangeRateHostClient) Rate(ctx context.Context, from, to string) (Quote, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return Quote{}, err
	}
	if from == to {
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1), Date: time.Now().UTC()}, nil
	}

	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("amount", "1")
	if c.apiKey != "" {
		params.Set("access_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/convert?"+params.Encode(), nil)
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

	var payload exchangeRateHostResponse
	if err := decoder.Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if !payload.Success {
		if payload.Error != nil {
			return Quote{}, fmt.Errorf("exchange API error %d (%s): %s", payload.Error.Code, payload.Error.Type, payload.Error.Info)
		}
		return Quote{}, errors.New("exchange API reported failure")
	}
	if payload.Info.Quote == "" {
		return Quote{}, errRateMissing
	}

	rate, err := decimal.NewFromString(payload.Info.Quote.String())
	if err != nil {
		return Quote{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if err := validateConversionRate(rate); err != nil {
		return Quote{}, err
	}

	date := time.Now().UTC()
	if payload.Info.Timestamp > 0 {
		date = time.Unix(payload.Info.Timestamp, 0).UTC()
	}
	return Quote{From: from, To: to, Rate: rate, Date: date}, nil
}
