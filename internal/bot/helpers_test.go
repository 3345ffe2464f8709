package bot

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/config"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store/memory"
)

const (
	testUserID int64 = 123456
	testChatID int64 = 123456
	otherUser  int64 = 654321

	catTransport = 1
	catFood      = 3
	catOther     = 6
)

var _ TelegramAPI = (*mocks.MockBot)(nil)

// stubRates returns a fixed rate, or err when set.
type stubRates struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (s *stubRates) Rate(_ context.Context, from, to string) (exchange.Quote, error) {
	s.calls++
	if s.err != nil {
		return exchange.Quote{}, s.err
	}
	return exchange.Quote{From: from, To: to, Rate: s.rate}, nil
}

// setupTestBot creates a Bot over an in-memory ledger with a whitelisted test user.
func setupTestBot(t *testing.T) (*Bot, *mocks.MockBot) {
	t.Helper()

	cfg := &config.Config{
		TelegramBotToken:   "test-token",
		DatabaseURL:        "test-url",
		WhitelistedUserIDs: []int64{testUserID},
		DigestHour:         20,
		DigestTimezone:     "UTC",
	}

	b := newBot(cfg, ledger.New(memory.New(), ledger.Options{}), &stubRates{rate: d("5")})
	b.now = func() time.Time { return time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC) }

	mockBot := mocks.NewMockBot()
	b.messageSender = mockBot
	return b, mockBot
}

// createTrip creates RUB→KZT at 5 KZT per RUB with 1000 RUB and the given limit in KZT.
func createTrip(t *testing.T, b *Bot, userID int64, name, limit string) *models.Trip {
	t.Helper()
	trip, err := b.ledger.CreateTrip(context.Background(), ledger.NewTrip{
		UserID:         userID,
		Name:           name,
		HomeCurrency:   "RUB",
		TargetCurrency: "KZT",
		Rate:           d("5"),
		HomeInitial:    d("1000"),
		BudgetLimit:    d(limit),
	})
	require.NoError(t, err)
	return trip
}

// sendText feeds a plain message or command through the matching handler.
func sendText(b *Bot, tg TelegramAPI, text string) {
	b.handleTextCore(context.Background(), tg, mocks.MessageUpdate(testChatID, testUserID, text))
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func primaryCurrency(t *testing.T, b *Bot, tripID int64) models.TripCurrency {
	t.Helper()
	trip, err := b.ledger.Trip(context.Background(), tripID)
	require.NoError(t, err)
	for _, c := range trip.Currencies {
		if c.Code == trip.TargetCurrency {
			return c
		}
	}
	t.Fatalf("primary currency of trip %d not found", tripID)
	return models.TripCurrency{}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
