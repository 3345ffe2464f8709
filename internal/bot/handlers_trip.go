package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
)

const (
	maxTripNameLength = 64
	msgUnknownPlace   = "❌ I don't recognise that country or currency. Send a 3-letter code like <code>EUR</code>."
)

// handleNewTrip handles the /newtrip command.
func (b *Bot) handleNewTrip(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewTripCore(ctx, tgBot, update)
}

// handleNewTripCore is the testable implementation of handleNewTrip.
func (b *Bot) handleNewTripCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}
	b.sessions.set(userID, awaitTripName{})
	sendHTML(ctx, tg, chatID, "🧳 <b>New trip</b>\n\nWhat's the trip called?", nil)
}

func (b *Bot) tripNameStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, text string) {
	name := strings.TrimSpace(text)
	if utf8.RuneCountInString(name) > maxTripNameLength {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Please keep the name under %d characters.", maxTripNameLength), nil)
		return
	}
	b.sessions.set(userID, awaitHomeCurrency{draft: tripDraft{Name: name}})
	sendHTML(ctx, tg, chatID,
		"Where are you travelling from? Send a country or a currency code, e.g. <code>Russia</code> or <code>RUB</code>.", nil)
}

func (b *Bot) homeCurrencyStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitHomeCurrency, text string) {
	code, ok := resolveCurrency(text)
	if !ok {
		sendHTML(ctx, tg, chatID, msgUnknownPlace, nil)
		return
	}
	s.draft.Home = code
	b.sessions.set(userID, awaitTargetCurrency{draft: s.draft})
	sendHTML(ctx, tg, chatID, fmt.Sprintf(
		"Home currency: <b>%s</b>.\n\nWhere are you going? Send a country or a currency code.", code), nil)
}

func (b *Bot) targetCurrencyStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitTargetCurrency, text string) {
	code, ok := resolveCurrency(text)
	if !ok {
		sendHTML(ctx, tg, chatID, msgUnknownPlace, nil)
		return
	}
	s.draft.Target = code

	rate, err := exchange.LookupRate(ctx, b.rates, s.draft.Home, s.draft.Target)
	if err != nil {
		logger.Log.Warn().Err(err).Str("from", s.draft.Home).Str("to", code).Msg("Rate lookup failed, asking for manual rate")
		b.sessions.set(userID, awaitTripRate{draft: s.draft})
		sendHTML(ctx, tg, chatID, fmt.Sprintf(
			"⚠️ Couldn't fetch the exchange rate.\n\nHow many %s do you get for 1 %s?", s.draft.Target, s.draft.Home), nil)
		return
	}

	b.sessions.set(userID, awaitTripRate{draft: s.draft, suggested: rate})
	sendHTML(ctx, tg, chatID, fmt.Sprintf(
		"💱 1 %s = <b>%s %s</b>\n\nUse this rate or type your own.", s.draft.Home, rate.String(), s.draft.Target),
		rateKeyboard())
}

func (b *Bot) tripRateStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitTripRate, text string) {
	rate, err := ledger.ParsePositiveAmount(text)
	if err != nil {
		sendHTML(ctx, tg, chatID, msgPositiveInput, nil)
		return
	}
	b.acceptTripRate(ctx, tg, chatID, userID, s.draft, rate)
}

func (b *Bot) acceptTripRate(ctx context.Context, tg TelegramAPI, chatID, userID int64, draft tripDraft, rate decimal.Decimal) {
	draft.Rate = rate
	b.sessions.set(userID, awaitHomeInitial{draft: draft})
	sendHTML(ctx, tg, chatID, fmt.Sprintf(
		"How much %s are you bringing? It is converted into your starting %s balance.", draft.Home, draft.Target), nil)
}

func (b *Bot) homeInitialStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitHomeInitial, text string) {
	initial, err := ledger.ParseAmount(text)
	if err != nil || initial.IsNegative() {
		sendHTML(ctx, tg, chatID, msgAmountInput, nil)
		return
	}
	s.draft.Initial = initial
	b.sessions.set(userID, awaitBudgetLimit{draft: s.draft})
	sendHTML(ctx, tg, chatID, fmt.Sprintf(
		"Budget limit for the trip in %s? Send <code>0</code> for no limit.", s.draft.Target), nil)
}

func (b *Bot) budgetLimitStep(ctx context.Context, tg TelegramAPI, chatID, userID int64, s awaitBudgetLimit, text string) {
	limit, err := ledger.ParseAmount(text)
	if err != nil || limit.IsNegative() {
		sendHTML(ctx, tg, chatID, msgAmountInput, nil)
		return
	}
	b.sessions.clear(userID)

	trip, err := b.ledger.CreateTrip(ctx, ledger.NewTrip{
		UserID:         userID,
		Name:           s.draft.Name,
		HomeCurrency:   s.draft.Home,
		TargetCurrency: s.draft.Target,
		Rate:           s.draft.Rate,
		HomeInitial:    s.draft.Initial,
		BudgetLimit:    limit,
	})
	if err != nil {
		replyError(ctx, tg, chatID, "create_trip", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Trip <b>%s</b> created and set as active!\n\n", escapeHTML(trip.Name))
	fmt.Fprintf(&sb, "Rate: 1 %s = %s %s\n", trip.HomeCurrency, trip.ExchangeRate.String(), trip.TargetCurrency)
	fmt.Fprintf(&sb, "Balance: %s (%s)\n", money(trip.TargetBalance, trip.TargetCurrency), money(trip.HomeBalance, trip.HomeCurrency))
	if trip.HasBudget() {
		fmt.Fprintf(&sb, "Budget: %s, notify at %s\n",
			money(trip.BudgetLimit, trip.TargetCurrency), money(trip.NotificationThreshold, trip.TargetCurrency))
	}
	sb.WriteString("\nSend a number to record an expense.")
	sendHTML(ctx, tg, chatID, sb.String(), nil)
}

// handleTrips handles the /trips command.
func (b *Bot) handleTrips(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleTripsCore(ctx, tgBot, update)
}

// handleTripsCore is the testable implementation of handleTrips.
func (b *Bot) handleTripsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.sendTripList(ctx, tg, update, actionSwitch, "Tap a trip to make it active.")
}

// handleDeleteTrip handles the /deletetrip command.
func (b *Bot) handleDeleteTrip(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteTripCore(ctx, tgBot, update)
}

// handleDeleteTripCore is the testable implementation of handleDeleteTrip.
func (b *Bot) handleDeleteTripCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.sendTripList(ctx, tg, update, actionDelete, "Which trip do you want to delete?")
}

func (b *Bot) sendTripList(ctx context.Context, tg TelegramAPI, update *models.Update, action, prompt string) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}

	trips, err := b.ledger.ListTrips(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "list_trips", err)
		return
	}
	if len(trips) == 0 {
		sendHTML(ctx, tg, chatID, "You have no trips yet. Start one with /newtrip.", nil)
		return
	}

	var activeID int64
	active, err := b.ledger.ActiveTrip(ctx, userID)
	switch {
	case err == nil:
		activeID = active.ID
	case !errors.Is(err, ledger.ErrNoActiveTrip):
		replyError(ctx, tg, chatID, "active_trip", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("🧳 <b>Your trips</b>\n\n")
	for _, t := range trips {
		fmt.Fprintf(&sb, "• %s (%s → %s)\n", escapeHTML(t.Name), t.HomeCurrency, t.TargetCurrency)
	}
	sb.WriteString("\n" + prompt)
	sendHTML(ctx, tg, chatID, sb.String(), tripsKeyboard(trips, action, activeID))
}

// handleTripCallback handles trip switch and delete buttons.
func (b *Bot) handleTripCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleTripCallbackCore(ctx, tgBot, update)
}

// handleTripCallbackCore is the testable implementation of handleTripCallback.
func (b *Bot) handleTripCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cb, ok := newCallbackContext(update)
	if !ok {
		return
	}
	answer(ctx, tg, cb, "")

	action, arg := parseCallback(cb.data, callbackTrip)
	if action == actionDeleteNo {
		editHTML(ctx, tg, cb.chatID, cb.messageID, "👍 Trip kept.", nil)
		return
	}

	tripID, ok := parseID(arg)
	if !ok {
		return
	}
	trip, err := b.ownedTrip(ctx, tripID, cb.userID)
	if err != nil {
		editHTML(ctx, tg, cb.chatID, cb.messageID, userMessage(err), nil)
		return
	}

	switch action {
	case actionSwitch:
		if err := b.ledger.SetActiveTrip(ctx, cb.userID, trip.ID); err != nil {
			replyError(ctx, tg, cb.chatID, "set_active_trip", err)
			return
		}
		editHTML(ctx, tg, cb.chatID, cb.messageID,
			fmt.Sprintf("✅ Active trip: <b>%s</b>", escapeHTML(trip.Name)), nil)

	case actionDelete:
		editHTML(ctx, tg, cb.chatID, cb.messageID,
			fmt.Sprintf("Delete <b>%s</b> with all its expenses and currencies? This cannot be undone.", escapeHTML(trip.Name)),
			confirmDeleteTripKeyboard(trip.ID))

	case actionDeleteOK:
		if err := b.ledger.DeleteTrip(ctx, trip.ID); err != nil {
			replyError(ctx, tg, cb.chatID, "delete_trip", err)
			return
		}
		editHTML(ctx, tg, cb.chatID, cb.messageID,
			fmt.Sprintf("🗑 Trip <b>%s</b> deleted.", escapeHTML(trip.Name)), nil)
	}
}
