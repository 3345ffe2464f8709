package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

const (
	msgNoActiveTrip   = "🧳 You have no active trip. Start one with /newtrip or pick one with /trips."
	msgGenericFailure = "❌ Something went wrong. Please try again."
	msgNotFound       = "❌ Not found."
	historyLimit      = 20
)

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// money formats an amount with two decimals followed by its currency code.
func money(amount decimal.Decimal, code string) string {
	return amount.StringFixed(2) + " " + code
}

// sendHTML sends an HTML message, logging delivery failures.
func sendHTML(ctx context.Context, tg TelegramAPI, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// editHTML replaces the text of a message the bot sent earlier.
func editHTML(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to edit message")
	}
}

// userMessage maps a ledger or rate failure to the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNoActiveTrip):
		return msgNoActiveTrip
	case errors.Is(err, ledger.ErrInvalidInput):
		msg := err.Error()
		if i := strings.Index(msg, ledger.ErrInvalidInput.Error()); i >= 0 {
			msg = msg[i:]
		}
		return "❌ " + escapeHTML(upperFirst(msg)) + "."
	case errors.Is(err, ledger.ErrProtectedCurrency):
		return "❌ The trip's main currency cannot be removed."
	case errors.Is(err, ledger.ErrCurrencyInUse):
		return "❌ This currency has recorded expenses and cannot be removed."
	case errors.Is(err, ledger.ErrDuplicateCurrency):
		return "❌ This currency is already added to the trip."
	case errors.Is(err, ledger.ErrNotFound):
		return msgNotFound
	case errors.Is(err, exchange.ErrRateUnavailable):
		return "⚠️ Couldn't fetch the exchange rate."
	default:
		return msgGenericFailure
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// replyError logs err and tells the user what went wrong.
func replyError(ctx context.Context, tg TelegramAPI, chatID int64, op string, err error) {
	event := logger.Log.Warn()
	if userMessage(err) == msgGenericFailure {
		event = logger.Log.Error()
	}
	event.Err(err).Str("op", op).Str("chat_hash", logger.HashChatID(chatID)).Msg("Request failed")
	sendHTML(ctx, tg, chatID, userMessage(err), nil)
}

// formatNotification renders one threshold or limit crossing.
func formatNotification(n ledger.Notification) string {
	switch {
	case n.Overall() && n.Kind == ledger.Exceeded:
		return fmt.Sprintf("🚨 You have exceeded your budget limit! Over by %s (limit %s).",
			money(n.Overspent(), n.Currency), money(n.Limit, n.Currency))
	case n.Overall():
		return fmt.Sprintf("⚠️ You are approaching your budget limit! Spent %s of %s.",
			money(n.Spent, n.Currency), money(n.Limit, n.Currency))
	case n.Kind == ledger.Exceeded:
		return fmt.Sprintf("🚨 Category <b>%s</b> is over budget by %s (planned %s).",
			escapeHTML(n.CategoryName), money(n.Overspent(), n.Currency), money(n.Limit, n.Currency))
	default:
		return fmt.Sprintf("⚠️ Category <b>%s</b> is close to its budget: spent %s of %s.",
			escapeHTML(n.CategoryName), money(n.Spent, n.Currency), money(n.Limit, n.Currency))
	}
}

func sendNotifications(ctx context.Context, tg TelegramAPI, chatID int64, notifications []ledger.Notification) {
	for _, n := range notifications {
		sendHTML(ctx, tg, chatID, formatNotification(n), nil)
	}
}

func categoryName(e appmodels.Expense) string {
	if e.Category != nil {
		return e.Category.Name
	}
	return appmodels.FallbackCategoryName
}

// formatExpense renders one history line.
func formatExpense(e appmodels.Expense) string {
	return fmt.Sprintf("<code>#%d</code> %s · %s (%s) · %s",
		e.ID,
		e.CreatedAt.Format("Jan 2 15:04"),
		money(e.AmountTarget, e.CurrencyTarget),
		money(e.AmountHome, e.CurrencyHome),
		escapeHTML(categoryName(e)))
}

// formatBalance renders the currencies and totals of a trip.
func formatBalance(snap *ledger.Snapshot) string {
	trip := snap.Trip
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧳 <b>%s</b>\n", escapeHTML(trip.Name))
	fmt.Fprintf(&sb, "Rate: 1 %s = %s %s\n\n", trip.HomeCurrency, trip.ExchangeRate.String(), trip.TargetCurrency)

	sb.WriteString("<b>Balances</b>\n")
	for _, c := range snap.Currencies {
		marker := ""
		if c.Code == trip.TargetCurrency {
			marker = " ⭐"
		}
		fmt.Fprintf(&sb, "• %s ≈ %s%s\n", money(c.Balance, c.Code), money(c.HomeEquivalent, trip.HomeCurrency), marker)
	}
	fmt.Fprintf(&sb, "\nTotal: %s\n", money(snap.TotalHome, trip.HomeCurrency))
	fmt.Fprintf(&sb, "Spent: %s", money(snap.SpentHome, trip.HomeCurrency))
	return sb.String()
}

// formatBudget renders the overall and per-category budget status.
func formatBudget(snap *ledger.Snapshot) string {
	trip := snap.Trip
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Budget: %s</b>\n\n", escapeHTML(trip.Name))

	if !trip.HasBudget() {
		sb.WriteString("No overall limit. Set one with <code>/setlimit &lt;amount&gt;</code>.\n")
	} else {
		o := snap.Overall
		fmt.Fprintf(&sb, "Spent: %s of %s (%s%%)\n", money(o.Spent, o.Currency), money(o.Limit, o.Currency), o.Percent.String())
		if o.Over() {
			fmt.Fprintf(&sb, "🚨 Over by %s\n", money(o.Spent.Sub(o.Limit), o.Currency))
		} else {
			fmt.Fprintf(&sb, "Remaining: %s\n", money(o.Remaining, o.Currency))
		}
		fmt.Fprintf(&sb, "Notify at: %s\n", money(o.Threshold, o.Currency))
	}

	if len(snap.Categories) > 0 {
		sb.WriteString("\n<b>Categories</b>\n")
		for _, c := range snap.Categories {
			sb.WriteString(formatCategoryStatus(c) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCategoryStatus(c ledger.CategoryStatus) string {
	icon := "•"
	if c.Over() {
		icon = "🚨"
	} else if c.Limit.IsPositive() && c.Spent.GreaterThanOrEqual(c.Threshold) {
		icon = "⚠️"
	}
	if !c.Limit.IsPositive() {
		return fmt.Sprintf("%s %d. %s: spent %s, no plan", icon, c.Category.ID, escapeHTML(c.Category.Name), c.Spent.StringFixed(2))
	}
	return fmt.Sprintf("%s %d. %s: %s / %s (%s%%)", icon, c.Category.ID, escapeHTML(c.Category.Name),
		c.Spent.StringFixed(2), money(c.Limit, c.Currency), c.Percent.String())
}

const helpText = `📚 <b>Available Commands</b>

<b>Trips:</b>
• <code>/newtrip</code> - Start a new trip
• <code>/trips</code> - List and switch trips
• <code>/deletetrip</code> - Delete a trip
• <code>/balance</code> - Balances of the active trip

<b>Expenses:</b>
• Send a number like <code>1500</code> to record an expense
• <code>/history [category id]</code> - Recent expenses
• <code>/edit &lt;id&gt; &lt;amount&gt; [category id]</code> - Change an expense
• <code>/delete &lt;id&gt;</code> - Delete an expense
• <code>/chart</code> - Spending by category

<b>Currencies:</b>
• <code>/addcurrency</code> - Add a currency to the trip
• <code>/currencies</code> - Manage trip currencies

<b>Budget:</b>
• <code>/budget</code> - Budget status
• <code>/setlimit &lt;amount&gt;</code> - Overall limit in the trip currency
• <code>/setthreshold &lt;amount&gt;</code> - Notify when spending reaches this amount
• <code>/catbudgets</code> - Category budgets
• <code>/setcatbudget &lt;category id&gt; &lt;amount&gt;</code> - Plan a category
• <code>/recalc</code> - Rebuild category totals from expenses

<b>Other:</b>
• <code>/cancel</code> - Abort the current step
• <code>/help</code> - Show this help message`
