package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// handleRateCallback handles the "use rate" and "enter manually" buttons shown
// by /newtrip and /addcurrency.
func (b *Bot) handleRateCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRateCallbackCore(ctx, tgBot, update)
}

// handleRateCallbackCore is the testable implementation of handleRateCallback.
func (b *Bot) handleRateCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cb, ok := newCallbackContext(update)
	if !ok {
		return
	}
	action, _ := parseCallback(cb.data, callbackRate)

	sess, _ := b.sessions.get(cb.userID)
	switch s := sess.(type) {
	case awaitTripRate:
		answer(ctx, tg, cb, "")
		if action == actionUse && s.suggested.IsPositive() {
			editHTML(ctx, tg, cb.chatID, cb.messageID,
				fmt.Sprintf("💱 Rate: 1 %s = %s %s ✅", s.draft.Home, s.suggested.String(), s.draft.Target), nil)
			b.acceptTripRate(ctx, tg, cb.chatID, cb.userID, s.draft, s.suggested)
			return
		}
		editHTML(ctx, tg, cb.chatID, cb.messageID,
			fmt.Sprintf("How many %s do you get for 1 %s?", s.draft.Target, s.draft.Home), nil)

	case awaitCurrencyRate:
		answer(ctx, tg, cb, "")
		if action == actionUse && s.suggested.IsPositive() {
			editHTML(ctx, tg, cb.chatID, cb.messageID,
				fmt.Sprintf("💱 Rate: %s %s per home unit ✅", s.suggested.String(), s.code), nil)
			b.finishAddCurrency(ctx, tg, cb.chatID, cb.userID, s, s.suggested)
			return
		}
		editHTML(ctx, tg, cb.chatID, cb.messageID,
			fmt.Sprintf("How many %s do you get for one unit of your home currency?", s.code), nil)

	default:
		answer(ctx, tg, cb, msgStepExpired)
	}
}
