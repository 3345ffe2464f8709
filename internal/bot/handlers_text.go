package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

const (
	msgPickButton    = "Please pick one of the buttons above, or /cancel."
	msgStepExpired   = "This step has expired."
	msgUnknownInput  = "I understand numbers (recorded as expenses) and commands. Use /help to see them."
	msgUnknownCmd    = "Unknown command. Use /help to see available commands."
	msgPositiveInput = "❌ Please send a positive number, e.g. <code>5.25</code>."
	msgAmountInput   = "❌ Please send a number, e.g. <code>1500</code> or <code>0</code>."
)

// messageContext extracts the ids every message handler needs.
func messageContext(update *models.Update) (chatID, userID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.Chat.ID, update.Message.From.ID, true
}

// callbackContext is an inline button press.
type callbackContext struct {
	id        string
	chatID    int64
	userID    int64
	messageID int
	data      string
}

func newCallbackContext(update *models.Update) (callbackContext, bool) {
	q := update.CallbackQuery
	if q == nil || q.Message.Message == nil {
		return callbackContext{}, false
	}
	return callbackContext{
		id:        q.ID,
		chatID:    q.Message.Message.Chat.ID,
		userID:    q.From.ID,
		messageID: q.Message.Message.ID,
		data:      q.Data,
	}, true
}

func answer(ctx context.Context, tg TelegramAPI, cb callbackContext, text string) {
	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.id,
		Text:            text,
	})
}

// resolveCurrency accepts a country name, an ISO country code or a currency code.
func resolveCurrency(input string) (string, bool) {
	if code, ok := exchange.GuessCurrency(input); ok {
		return code, true
	}
	code := appmodels.NormalizeCurrencyCode(input)
	return code, appmodels.IsValidCurrencyCode(code)
}

// handleTextCore routes plain text to the user's open session, or treats a
// number as a new expense.
func (b *Bot) handleTextCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		sendHTML(ctx, tg, chatID, msgUnknownCmd, nil)
		return
	}

	if sess, ok := b.sessions.get(userID); ok {
		b.continueSessionCore(ctx, tg, chatID, userID, sess, text)
		return
	}

	amount, err := ledger.ParsePositiveAmount(text)
	if err != nil {
		sendHTML(ctx, tg, chatID, msgUnknownInput, nil)
		return
	}
	b.startExpenseCore(ctx, tg, chatID, userID, amount)
}

// continueSessionCore feeds text to the step the user is in.
func (b *Bot) continueSessionCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, sess session, text string) {
	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Str("step", stepName(sess)).
		Msg("Continuing session")

	switch s := sess.(type) {
	case awaitTripName:
		b.tripNameStep(ctx, tg, chatID, userID, text)
	case awaitHomeCurrency:
		b.homeCurrencyStep(ctx, tg, chatID, userID, s, text)
	case awaitTargetCurrency:
		b.targetCurrencyStep(ctx, tg, chatID, userID, s, text)
	case awaitTripRate:
		b.tripRateStep(ctx, tg, chatID, userID, s, text)
	case awaitHomeInitial:
		b.homeInitialStep(ctx, tg, chatID, userID, s, text)
	case awaitBudgetLimit:
		b.budgetLimitStep(ctx, tg, chatID, userID, s, text)
	case awaitExpenseCurrency, awaitExpenseCategory:
		sendHTML(ctx, tg, chatID, msgPickButton, nil)
	case awaitCurrencyCode:
		b.currencyCodeStep(ctx, tg, chatID, userID, s, text)
	case awaitCurrencyBalance:
		b.currencyBalanceStep(ctx, tg, chatID, userID, s, text)
	case awaitCurrencyRate:
		b.currencyRateStep(ctx, tg, chatID, userID, s, text)
	case awaitCurrencySetBalance:
		b.currencySetBalanceStep(ctx, tg, chatID, userID, s, text)
	}
}

func stepName(sess session) string {
	switch sess.(type) {
	case awaitTripName:
		return "trip_name"
	case awaitHomeCurrency:
		return "home_currency"
	case awaitTargetCurrency:
		return "target_currency"
	case awaitTripRate:
		return "trip_rate"
	case awaitHomeInitial:
		return "home_initial"
	case awaitBudgetLimit:
		return "budget_limit"
	case awaitExpenseCurrency:
		return "expense_currency"
	case awaitExpenseCategory:
		return "expense_category"
	case awaitCurrencyCode:
		return "currency_code"
	case awaitCurrencyBalance:
		return "currency_balance"
	case awaitCurrencyRate:
		return "currency_rate"
	case awaitCurrencySetBalance:
		return "currency_set_balance"
	default:
		return "unknown"
	}
}

// ownedTrip loads a trip and checks it belongs to userID. Trips of other
// users are reported as not found.
func (b *Bot) ownedTrip(ctx context.Context, tripID, userID int64) (*appmodels.Trip, error) {
	trip, err := b.ledger.Trip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(userID)).
			Int64("trip_id", tripID).
			Msg("User mismatch")
		return nil, ledger.ErrNotFound
	}
	return trip, nil
}
