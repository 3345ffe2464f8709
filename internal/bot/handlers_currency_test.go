package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
)

func findCurrency(t *testing.T, b *Bot, tripID int64, code string) (int64, bool) {
	t.Helper()
	trip, err := b.ledger.Trip(context.Background(), tripID)
	require.NoError(t, err)
	for _, c := range trip.Currencies {
		if c.Code == code {
			return c.ID, true
		}
	}
	return 0, false
}

func TestAddCurrencyFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("suggested rate", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		b.rates = &stubRates{rate: d("0.011")}
		trip := createTrip(t, b, testUserID, "Almaty", "0")

		b.handleAddCurrencyCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/addcurrency"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Adding a currency to <b>Almaty</b>")

		sendText(b, mockBot, "usa")
		require.Equal(t, "How much USD do you have?", mockBot.LastSentMessage().Text)

		sendText(b, mockBot, "100")
		last := mockBot.LastSentMessage()
		require.Contains(t, last.Text, "1 RUB = <b>0.011 USD</b>")
		require.IsType(t, &models.InlineKeyboardMarkup{}, last.ReplyMarkup)

		b.handleRateCallbackCore(ctx, mockBot, mocks.CallbackQueryUpdate(testChatID, testUserID, 1000, callbackRate+actionUse))
		require.Contains(t, mockBot.LastEditedMessage().Text, "0.011 USD per home unit ✅")
		require.Contains(t, mockBot.LastSentMessage().Text, "✅ USD added: 100.00 USD")

		id, ok := findCurrency(t, b, trip.ID, "USD")
		require.True(t, ok)
		currency, err := b.ledger.Currency(ctx, id)
		require.NoError(t, err)
		requireDecimal(t, "100", currency.Balance)
		requireDecimal(t, "0.011", currency.RateToHome)

		_, open := b.sessions.get(testUserID)
		require.False(t, open)
	})

	t.Run("manual rate", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		b.rates = &stubRates{err: errors.New("timeout")}
		trip := createTrip(t, b, testUserID, "Almaty", "0")

		b.handleAddCurrencyCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/addcurrency"))
		sendText(b, mockBot, "EUR")
		sendText(b, mockBot, "50")
		require.Contains(t, mockBot.LastSentMessage().Text, "How many EUR do you get for 1 RUB?")

		sendText(b, mockBot, "0")
		require.Equal(t, msgPositiveInput, mockBot.LastSentMessage().Text)

		sendText(b, mockBot, "0.01")
		require.Contains(t, mockBot.LastSentMessage().Text, "✅ EUR added")

		_, ok := findCurrency(t, b, trip.ID, "EUR")
		require.True(t, ok)
	})

	t.Run("duplicate code is asked again", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		createTrip(t, b, testUserID, "Almaty", "0")

		b.handleAddCurrencyCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/addcurrency"))
		sendText(b, mockBot, "kz")

		require.Contains(t, mockBot.LastSentMessage().Text, "already added")
		sess, _ := b.sessions.get(testUserID)
		require.IsType(t, awaitCurrencyCode{}, sess)
	})

	t.Run("negative balance", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		createTrip(t, b, testUserID, "Almaty", "0")

		b.handleAddCurrencyCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/addcurrency"))
		sendText(b, mockBot, "USD")
		sendText(b, mockBot, "-10")

		require.Equal(t, msgAmountInput, mockBot.LastSentMessage().Text)
	})

	t.Run("no active trip", func(t *testing.T) {
		b, mockBot := setupTestBot(t)

		b.handleAddCurrencyCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/addcurrency"))

		require.Equal(t, msgNoActiveTrip, mockBot.LastSentMessage().Text)
		_, open := b.sessions.get(testUserID)
		require.False(t, open)
	})
}

func TestCurrencies(t *testing.T) {
	ctx := context.Background()
	b, mockBot := setupTestBot(t)
	trip := createTrip(t, b, testUserID, "Almaty", "0")
	_, err := b.ledger.AddCurrency(ctx, trip.ID, "USD", d("100"), d("0.01"))
	require.NoError(t, err)

	b.handleCurrenciesCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/currencies"))

	last := mockBot.LastSentMessage()
	require.Contains(t, last.Text, "5000.00 KZT ≈ 1000.00 RUB")
	require.Contains(t, last.Text, "⭐")
	require.Contains(t, last.Text, "100.00 USD ≈ 10000.00 RUB")
	kb, ok := last.ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 3)
	require.Equal(t, callbackCurrency+actionAdd, kb.InlineKeyboard[2][0].CallbackData)
}

func TestCurrencyCallback(t *testing.T) {
	ctx := context.Background()

	press := func(b *Bot, mockBot *mocks.MockBot, action string, id int64) {
		b.handleCurrencyCallbackCore(ctx, mockBot, mocks.CallbackQueryUpdate(testChatID, testUserID, 1000,
			callbackData(callbackCurrency, action, id)))
	}

	t.Run("set balance", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		trip := createTrip(t, b, testUserID, "Almaty", "0")
		usd, err := b.ledger.AddCurrency(ctx, trip.ID, "USD", d("100"), d("0.01"))
		require.NoError(t, err)

		press(b, mockBot, actionBalance, usd.ID)
		require.Contains(t, mockBot.LastSentMessage().Text, "Current USD balance: 100.00 USD")

		sendText(b, mockBot, "abc")
		require.Equal(t, msgAmountInput, mockBot.LastSentMessage().Text)

		sendText(b, mockBot, "250")
		require.Equal(t, "✅ USD balance set to 250.00 USD.", mockBot.LastSentMessage().Text)

		currency, err := b.ledger.Currency(ctx, usd.ID)
		require.NoError(t, err)
		requireDecimal(t, "250", currency.Balance)
	})

	t.Run("remove", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		trip := createTrip(t, b, testUserID, "Almaty", "0")
		usd, err := b.ledger.AddCurrency(ctx, trip.ID, "USD", d("100"), d("0.01"))
		require.NoError(t, err)

		press(b, mockBot, actionDelete, usd.ID)

		require.Equal(t, "🗑 USD removed from the trip.", mockBot.LastEditedMessage().Text)
		_, ok := findCurrency(t, b, trip.ID, "USD")
		require.False(t, ok)
	})

	t.Run("primary currency is protected", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		trip := createTrip(t, b, testUserID, "Almaty", "0")

		press(b, mockBot, actionDelete, primaryCurrency(t, b, trip.ID).ID)

		require.Equal(t, userMessage(ledger.ErrProtectedCurrency), mockBot.LastSentMessage().Text)
		_, ok := findCurrency(t, b, trip.ID, "KZT")
		require.True(t, ok)
	})

	t.Run("currency with expenses is kept", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		trip := createTrip(t, b, testUserID, "Almaty", "0")
		usd, err := b.ledger.AddCurrency(ctx, trip.ID, "USD", d("100"), d("0.01"))
		require.NoError(t, err)
		_, _, err = b.ledger.RecordExpense(ctx, ledger.NewExpense{
			TripID: trip.ID, CategoryID: catFood,
			AmountHome: d("500"), AmountTarget: d("5"),
			CurrencyHome: "RUB", CurrencyTarget: "USD",
		})
		require.NoError(t, err)

		press(b, mockBot, actionDelete, usd.ID)

		require.Equal(t, userMessage(ledger.ErrCurrencyInUse), mockBot.LastSentMessage().Text)
	})

	t.Run("add button starts the flow", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		createTrip(t, b, testUserID, "Almaty", "0")

		b.handleCurrencyCallbackCore(ctx, mockBot, mocks.CallbackQueryUpdate(testChatID, testUserID, 1000, callbackCurrency+actionAdd))

		sess, ok := b.sessions.get(testUserID)
		require.True(t, ok)
		require.IsType(t, awaitCurrencyCode{}, sess)
	})

	t.Run("another user's currency", func(t *testing.T) {
		b, mockBot := setupTestBot(t)
		trip := createTrip(t, b, otherUser, "Theirs", "0")

		press(b, mockBot, actionDelete, primaryCurrency(t, b, trip.ID).ID)

		require.Equal(t, msgNotFound, mockBot.LastEditedMessage().Text)
	})
}
