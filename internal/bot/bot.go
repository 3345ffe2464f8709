// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/config"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	ledger   *ledger.Ledger
	rates    exchange.Provider
	sessions *sessionStore

	messageSender digestSender
	now           func() time.Time
}

// New creates a new Bot instance.
func New(cfg *config.Config, l *ledger.Ledger, rates exchange.Provider) (*Bot, error) {
	b := newBot(cfg, l, rates)

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, l *ledger.Ledger, rates exchange.Provider) *Bot {
	if rates == nil {
		rates = exchange.Disabled{}
	}
	return &Bot{
		cfg:      cfg,
		ledger:   l,
		rates:    rates,
		sessions: newSessionStore(),
		now:      time.Now,
	}
}

// Start begins polling for updates and blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	commands := map[string]bot.HandlerFunc{
		"start":        b.handleStart,
		"help":         b.handleHelp,
		"cancel":       b.handleCancel,
		"newtrip":      b.handleNewTrip,
		"trips":        b.handleTrips,
		"deletetrip":   b.handleDeleteTrip,
		"addcurrency":  b.handleAddCurrency,
		"currencies":   b.handleCurrencies,
		"balance":      b.handleBalance,
		"history":      b.handleHistory,
		"budget":       b.handleBudget,
		"setlimit":     b.handleSetLimit,
		"setthreshold": b.handleSetThreshold,
		"catbudgets":   b.handleCategoryBudgets,
		"setcatbudget": b.handleSetCategoryBudget,
		"edit":         b.handleEdit,
		"delete":       b.handleDelete,
		"chart":        b.handleChart,
		"recalc":       b.handleRecalc,
	}
	for name, h := range commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeCommand, h)
	}

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackRate, bot.MatchTypePrefix, b.handleRateCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackExpense, bot.MatchTypePrefix, b.handleExpenseCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackTrip, bot.MatchTypePrefix, b.handleTripCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackCurrency, bot.MatchTypePrefix, b.handleCurrencyCallback)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.allowed(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// allowed reports whether the update comes from a whitelisted user, telling
// everyone else they are not authorized.
func (b *Bot) allowed(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if b.cfg.IsUserWhitelisted(userID, username) {
		return true
	}

	logger.Log.Warn().
		Str("user_hash", logger.HashUserID(userID)).
		Msg("Blocked non-whitelisted user")
	if update.Message != nil {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "⛔ Sorry, you are not authorized to use this bot.",
		})
	}
	if update.CallbackQuery != nil {
		_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            "Not authorized",
		})
	}
	return false
}

// logUserAction logs the user's input without the raw user id or free text.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
			Str("text", logger.SanitizeText(update.Message.Text)).
			Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// defaultHandler handles plain text: session answers and expense amounts.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleTextCore(ctx, tgBot, update)
}
