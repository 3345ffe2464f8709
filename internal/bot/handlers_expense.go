package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// startExpenseCore begins recording amount against the user's active trip.
// With a single currency the category picker is shown right away.
func (b *Bot) startExpenseCore(ctx context.Context, tg TelegramAPI, chatID, userID int64, amount decimal.Decimal) {
	trip, err := b.ledger.ActiveTrip(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "active_trip", err)
		return
	}

	if len(trip.Currencies) == 1 {
		b.askExpenseCategory(ctx, tg, chatID, 0, userID, trip, amount, trip.Currencies[0].Code)
		return
	}

	b.sessions.set(userID, awaitExpenseCurrency{tripID: trip.ID, amount: amount})
	sendHTML(ctx, tg, chatID,
		fmt.Sprintf("You entered <b>%s</b>. Which currency did you pay in?", amount.String()),
		expenseCurrencyKeyboard(trip.Currencies))
}

// askExpenseCategory converts the amount to home currency and shows the
// category picker. A zero messageID sends a new message instead of editing.
func (b *Bot) askExpenseCategory(
	ctx context.Context,
	tg TelegramAPI,
	chatID int64,
	messageID int,
	userID int64,
	trip *appmodels.Trip,
	amount decimal.Decimal,
	code string,
) {
	home, err := b.ledger.ToHome(ctx, trip, code, amount)
	if err != nil {
		b.sessions.clear(userID)
		replyError(ctx, tg, chatID, "to_home", err)
		return
	}
	categories, err := b.ledger.Categories(ctx)
	if err != nil {
		b.sessions.clear(userID)
		replyError(ctx, tg, chatID, "categories", err)
		return
	}

	b.sessions.set(userID, awaitExpenseCategory{tripID: trip.ID, amount: amount, code: code, home: home})

	text := fmt.Sprintf("%s = %s\n\nChoose a category:",
		money(amount, code), money(home, trip.HomeCurrency))
	if messageID == 0 {
		sendHTML(ctx, tg, chatID, text, categoryKeyboard(categories))
		return
	}
	editHTML(ctx, tg, chatID, messageID, text, categoryKeyboard(categories))
}

// handleExpenseCallback handles currency and category buttons of the expense flow.
func (b *Bot) handleExpenseCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExpenseCallbackCore(ctx, tgBot, update)
}

// handleExpenseCallbackCore is the testable implementation of handleExpenseCallback.
func (b *Bot) handleExpenseCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cb, ok := newCallbackContext(update)
	if !ok {
		return
	}
	action, arg := parseCallback(cb.data, callbackExpense)

	if action == actionCancel {
		answer(ctx, tg, cb, "")
		b.sessions.clear(cb.userID)
		editHTML(ctx, tg, cb.chatID, cb.messageID, "❌ Expense not recorded.", nil)
		return
	}

	sess, _ := b.sessions.get(cb.userID)
	switch s := sess.(type) {
	case awaitExpenseCurrency:
		if action != actionCurrency {
			answer(ctx, tg, cb, msgStepExpired)
			return
		}
		answer(ctx, tg, cb, "")
		trip, err := b.ownedTrip(ctx, s.tripID, cb.userID)
		if err != nil {
			b.sessions.clear(cb.userID)
			editHTML(ctx, tg, cb.chatID, cb.messageID, userMessage(err), nil)
			return
		}
		b.askExpenseCategory(ctx, tg, cb.chatID, cb.messageID, cb.userID, trip, s.amount, arg)

	case awaitExpenseCategory:
		categoryID, err := strconv.Atoi(arg)
		if action != actionCategory || err != nil {
			answer(ctx, tg, cb, msgStepExpired)
			return
		}
		answer(ctx, tg, cb, "")
		b.recordExpense(ctx, tg, cb, s, categoryID)

	default:
		answer(ctx, tg, cb, msgStepExpired+" Send the amount again.")
	}
}

func (b *Bot) recordExpense(ctx context.Context, tg TelegramAPI, cb callbackContext, s awaitExpenseCategory, categoryID int) {
	b.sessions.clear(cb.userID)

	trip, err := b.ownedTrip(ctx, s.tripID, cb.userID)
	if err != nil {
		editHTML(ctx, tg, cb.chatID, cb.messageID, userMessage(err), nil)
		return
	}

	expense, notifications, err := b.ledger.RecordExpense(ctx, ledger.NewExpense{
		TripID:         trip.ID,
		CategoryID:     categoryID,
		AmountHome:     s.home,
		AmountTarget:   s.amount,
		CurrencyHome:   trip.HomeCurrency,
		CurrencyTarget: s.code,
	})
	if err != nil {
		logger.Log.Warn().Err(err).Int64("trip_id", trip.ID).Msg("Failed to record expense")
		editHTML(ctx, tg, cb.chatID, cb.messageID, userMessage(err), nil)
		return
	}

	editHTML(ctx, tg, cb.chatID, cb.messageID, fmt.Sprintf(
		"✅ Recorded <code>#%d</code>: %s (%s)\nCategory: %s",
		expense.ID,
		money(expense.AmountTarget, expense.CurrencyTarget),
		money(expense.AmountHome, expense.CurrencyHome),
		escapeHTML(categoryName(*expense))), nil)
	sendNotifications(ctx, tg, cb.chatID, notifications)
}
