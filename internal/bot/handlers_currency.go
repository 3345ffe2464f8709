package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
)

// handleAddCurrency handles the /addcurrency command.
func (b *Bot) handleAddCurrency(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddCurrencyCore(ctx, tgBot, update)
}

// handleAddCurrencyCore is the testable implementation of handleAddCurrency.
func (b *Bot) handleAddCurrencyCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}
	b.startAddCurrency(ctx, tg, chatID, userID)
}

func (b *Bot) startAddCurrency(ctx context.Context, tg TelegramAPI, chatID, userID int64) {
	trip, err := b.ledger.ActiveTrip(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "active_trip", err)
		return
	}
	b.sessions.set(userID, awaitCurrencyCode{tripID: trip.ID})
	sendHTML(ctx, tg, chatID, fmt.Sprintf(
		"➕ Adding a currency to <b>%s</b>.\n\nSend a currency code like <code>USD</code> or a country name.",
		escapeHTML(trip.Name)), nil)
}

func (b *Bot) currencyCodeStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitCurrencyCode, text string) {
	code, ok := resolveCurrency(text)
	if !ok {
		sendHTML(ctx, tg, chatID, msgUnknownPlace, nil)
		return
	}

	trip, err := b.ownedTrip(ctx, s.tripID, userID)
	if err != nil {
		b.sessions.clear(userID)
		replyError(ctx, tg, chatID, "trip", err)
		return
	}
	for _, c := range trip.Currencies {
		if c.Code == code {
			sendHTML(ctx, tg, chatID, userMessage(ledger.ErrDuplicateCurrency)+" Send another code or /cancel.", nil)
			return
		}
	}

	b.sessions.set(userID, awaitCurrencyBalance{tripID: s.tripID, code: code})
	sendHTML(ctx, tg, chatID, fmt.Sprintf("How much %s do you have?", code), nil)
}

func (b *Bot) currencyBalanceStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitCurrencyBalance, text string) {
	balance, err := ledger.ParseAmount(text)
	if err != nil || balance.IsNegative() {
		sendHTML(ctx, tg, chatID, msgAmountInput, nil)
		return
	}

	trip, err := b.ownedTrip(ctx, s.tripID, userID)
	if err != nil {
		b.sessions.clear(userID)
		replyError(ctx, tg, chatID, "trip", err)
		return
	}

	next := awaitCurrencyRate{tripID: s.tripID, code: s.code, balance: balance}
	rate, err := exchange.LookupRate(ctx, b.rates, trip.HomeCurrency, s.code)
	if err != nil {
		logger.Log.Warn().Err(err).Str("from", trip.HomeCurrency).Str("to", s.code).Msg("Rate lookup failed, asking for manual rate")
		b.sessions.set(userID, next)
		sendHTML(ctx, tg, chatID, fmt.Sprintf(
			"⚠️ Couldn't fetch the exchange rate.\n\nHow many %s do you get for 1 %s?", s.code, trip.HomeCurrency), nil)
		return
	}

	next.suggested = rate
	b.sessions.set(userID, next)
	sendHTML(ctx, tg, chatID, fmt.Sprintf(
		"💱 1 %s = <b>%s %s</b>\n\nUse this rate or type your own.", trip.HomeCurrency, rate.String(), s.code),
		rateKeyboard())
}

func (b *Bot) currencyRateStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitCurrencyRate, text string) {
	rate, err := ledger.ParsePositiveAmount(text)
	if err != nil {
		sendHTML(ctx, tg, chatID, msgPositiveInput, nil)
		return
	}
	b.finishAddCurrency(ctx, tg, chatID, userID, s, rate)
}

func (b *Bot) finishAddCurrency(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitCurrencyRate, rate decimal.Decimal) {
	b.sessions.clear(userID)

	currency, err := b.ledger.AddCurrency(ctx, s.tripID, s.code, s.balance, rate)
	if err != nil {
		replyError(ctx, tg, chatID, "add_currency", err)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ %s added: %s (rate %s per home unit).",
		currency.Code, money(currency.Balance, currency.Code), currency.RateToHome.String()), nil)
}

// handleCurrencies handles the /currencies command.
func (b *Bot) handleCurrencies(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCurrenciesCore(ctx, tgBot, update)
}

// handleCurrenciesCore is the testable implementation of handleCurrencies.
func (b *Bot) handleCurrenciesCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}

	trip, err := b.ledger.ActiveTrip(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "active_trip", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💱 <b>Currencies of %s</b>\n\n", escapeHTML(trip.Name))
	for _, c := range trip.Currencies {
		marker := ""
		if c.Code == trip.TargetCurrency {
			marker = " ⭐"
		}
		fmt.Fprintf(&sb, "• %s ≈ %s (1 %s = %s %s)%s\n",
			money(c.Balance, c.Code), money(c.HomeEquivalent(), trip.HomeCurrency),
			trip.HomeCurrency, c.RateToHome.String(), c.Code, marker)
	}
	sendHTML(ctx, tg, chatID, sb.String(), currenciesKeyboard(trip.Currencies))
}

// handleCurrencyCallback handles the buttons of /currencies.
func (b *Bot) handleCurrencyCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCurrencyCallbackCore(ctx, tgBot, update)
}

// handleCurrencyCallbackCore is the testable implementation of handleCurrencyCallback.
func (b *Bot) handleCurrencyCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cb, ok := newCallbackContext(update)
	if !ok {
		return
	}
	answer(ctx, tg, cb, "")

	action, arg := parseCallback(cb.data, callbackCurrency)
	if action == actionAdd {
		b.startAddCurrency(ctx, tg, cb.chatID, cb.userID)
		return
	}

	currencyID, ok := parseID(arg)
	if !ok {
		return
	}
	currency, err := b.ledger.Currency(ctx, currencyID)
	if err == nil {
		_, err = b.ownedTrip(ctx, currency.TripID, cb.userID)
	}
	if err != nil {
		editHTML(ctx, tg, cb.chatID, cb.messageID, userMessage(err), nil)
		return
	}

	switch action {
	case actionBalance:
		b.sessions.set(cb.userID, awaitCurrencySetBalance{currencyID: currency.ID, code: currency.Code})
		sendHTML(ctx, tg, cb.chatID, fmt.Sprintf(
			"Current %s balance: %s\n\nSend the new balance:", currency.Code, money(currency.Balance, currency.Code)), nil)

	case actionDelete:
		if err := b.ledger.RemoveCurrency(ctx, currency.ID); err != nil {
			replyError(ctx, tg, cb.chatID, "remove_currency", err)
			return
		}
		editHTML(ctx, tg, cb.chatID, cb.messageID, fmt.Sprintf("🗑 %s removed from the trip.", currency.Code), nil)
	}
}

func (b *Bot) currencySetBalanceStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitCurrencySetBalance, text string) {
	balance, err := ledger.ParseAmount(text)
	if err != nil {
		sendHTML(ctx, tg, chatID, msgAmountInput, nil)
		return
	}
	b.sessions.clear(userID)

	currency, err := b.ledger.SetBalance(ctx, s.currencyID, balance)
	if err != nil {
		replyError(ctx, tg, chatID, "set_balance", err)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ %s balance set to %s.", currency.Code, money(currency.Balance, currency.Code)), nil)
}
