package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// activeTrip resolves the chat and the sender's active trip, replying with
// the failure when there is none.
func (b *Bot) activeTrip(ctx context.Context, tg TelegramAPI, update *models.Update) (int64, *appmodels.Trip, bool) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return 0, nil, false
	}
	trip, err := b.ledger.ActiveTrip(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "active_trip", err)
		return chatID, nil, false
	}
	return chatID, trip, true
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep the books for your trips: balances in every currency you carry, expenses by category and a budget that warns you before you overspend.

<b>Quick Start:</b>
• Create a trip with /newtrip
• Send an amount like <code>1500</code> to record an expense
• Check /balance and /budget any time

Use /help to see all available commands.`,
		formatGreeting(firstName))

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	sendHTML(ctx, tg, update.Message.Chat.ID, text, nil)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	sendHTML(ctx, tg, update.Message.Chat.ID, helpText, nil)
}

// handleCancel handles the /cancel command.
func (b *Bot) handleCancel(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCancelCore(ctx, tgBot, update)
}

// handleCancelCore is the testable implementation of handleCancel.
func (b *Bot) handleCancelCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}
	if b.sessions.clear(userID) {
		sendHTML(ctx, tg, chatID, "❌ Cancelled.", nil)
		return
	}
	sendHTML(ctx, tg, chatID, "Nothing to cancel.", nil)
}

// handleBalance handles the /balance command.
func (b *Bot) handleBalance(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBalanceCore(ctx, tgBot, update)
}

// handleBalanceCore is the testable implementation of handleBalance.
func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}
	snap, err := b.ledger.Snapshot(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "snapshot", err)
		return
	}
	sendHTML(ctx, tg, chatID, formatBalance(snap), nil)
}

// handleBudget handles the /budget command.
func (b *Bot) handleBudget(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBudgetCore(ctx, tgBot, update)
}

// handleBudgetCore is the testable implementation of handleBudget.
func (b *Bot) handleBudgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}
	snap, err := b.ledger.Snapshot(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "snapshot", err)
		return
	}
	sendHTML(ctx, tg, chatID, formatBudget(snap), nil)
}

// handleHistory handles the /history [category id] command.
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

// handleHistoryCore is the testable implementation of handleHistory.
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, trip, ok := b.activeTrip(ctx, tg, update)
	if !ok {
		return
	}

	var categoryID *int
	if args := extractCommandArgs(update.Message.Text, "/history"); args != "" {
		id, err := strconv.Atoi(args)
		if err != nil || id <= 0 {
			sendHTML(ctx, tg, chatID, "Usage: <code>/history [category id]</code>", nil)
			return
		}
		categoryID = &id
	}

	expenses, err := b.ledger.Expenses(ctx, trip.ID, categoryID)
	if err != nil {
		replyError(ctx, tg, chatID, "history", err)
		return
	}
	if len(expenses) == 0 {
		sendHTML(ctx, tg, chatID, "📭 No expenses recorded yet.", nil)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 <b>Expenses of %s</b>\n\n", escapeHTML(trip.Name))
	for i, e := range expenses {
		if i == historyLimit {
			fmt.Fprintf(&sb, "… and %d more", len(expenses)-historyLimit)
			break
		}
		sb.WriteString(formatExpense(e) + "\n")
	}
	sendHTML(ctx, tg, chatID, strings.TrimRight(sb.String(), "\n"), nil)
}

// handleSetLimit handles the /setlimit <amount> command.
func (b *Bot) handleSetLimit(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetLimitCore(ctx, tgBot, update)
}

// handleSetLimitCore is the testable implementation of handleSetLimit.
func (b *Bot) handleSetLimitCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, trip, ok := b.activeTrip(ctx, tg, update)
	if !ok {
		return
	}
	limit, err := ledger.ParseAmount(extractCommandArgs(update.Message.Text, "/setlimit"))
	if err != nil {
		sendHTML(ctx, tg, chatID, "Usage: <code>/setlimit &lt;amount&gt;</code> (0 removes the limit)", nil)
		return
	}

	updated, err := b.ledger.SetBudgetLimit(ctx, trip.ID, limit)
	if err != nil {
		replyError(ctx, tg, chatID, "set_limit", err)
		return
	}
	if !updated.HasBudget() {
		sendHTML(ctx, tg, chatID, "✅ Budget limit removed.", nil)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ Budget limit set to %s. You will be notified at %s.",
		money(updated.BudgetLimit, updated.TargetCurrency),
		money(updated.NotificationThreshold, updated.TargetCurrency)), nil)
}

// handleSetThreshold handles the /setthreshold <amount> command.
func (b *Bot) handleSetThreshold(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetThresholdCore(ctx, tgBot, update)
}

// handleSetThresholdCore is the testable implementation of handleSetThreshold.
func (b *Bot) handleSetThresholdCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, trip, ok := b.activeTrip(ctx, tg, update)
	if !ok {
		return
	}
	threshold, err := ledger.ParseAmount(extractCommandArgs(update.Message.Text, "/setthreshold"))
	if err != nil {
		sendHTML(ctx, tg, chatID, "Usage: <code>/setthreshold &lt;amount&gt;</code>", nil)
		return
	}

	updated, err := b.ledger.SetNotificationThreshold(ctx, trip.ID, threshold)
	if err != nil {
		replyError(ctx, tg, chatID, "set_threshold", err)
		return
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ You will be notified when spending reaches %s.",
		money(updated.NotificationThreshold, updated.TargetCurrency)), nil)
}

// handleCategoryBudgets handles the /catbudgets command.
func (b *Bot) handleCategoryBudgets(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCategoryBudgetsCore(ctx, tgBot, update)
}

// handleCategoryBudgetsCore is the testable implementation of handleCategoryBudgets.
func (b *Bot) handleCategoryBudgetsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, trip, ok := b.activeTrip(ctx, tg, update)
	if !ok {
		return
	}
	statuses, err := b.ledger.CategoryBudgets(ctx, trip.ID)
	if err != nil {
		replyError(ctx, tg, chatID, "category_budgets", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📂 <b>Category budgets of %s</b>\n\n", escapeHTML(trip.Name))
	for _, s := range statuses {
		sb.WriteString(formatCategoryStatus(s) + "\n")
	}
	sb.WriteString("\nPlan one with <code>/setcatbudget &lt;category id&gt; &lt;amount&gt;</code>")
	sendHTML(ctx, tg, chatID, sb.String(), nil)
}

// handleSetCategoryBudget handles the /setcatbudget <category id> <amount> [currency] command.
func (b *Bot) handleSetCategoryBudget(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetCategoryBudgetCore(ctx, tgBot, update)
}

// handleSetCategoryBudgetCore is the testable implementation of handleSetCategoryBudget.
func (b *Bot) handleSetCategoryBudgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, trip, ok := b.activeTrip(ctx, tg, update)
	if !ok {
		return
	}

	const usage = "Usage: <code>/setcatbudget &lt;category id&gt; &lt;amount&gt; [currency]</code>\nSee /catbudgets for the ids."
	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/setcatbudget"))
	if len(fields) < 2 || len(fields) > 3 {
		sendHTML(ctx, tg, chatID, usage, nil)
		return
	}
	categoryID, err := strconv.Atoi(fields[0])
	if err != nil {
		sendHTML(ctx, tg, chatID, usage, nil)
		return
	}
	planned, err := ledger.ParseAmount(fields[1])
	if err != nil {
		sendHTML(ctx, tg, chatID, usage, nil)
		return
	}
	currency := ""
	if len(fields) == 3 {
		currency = fields[2]
	}

	if err := b.ledger.SetCategoryBudget(ctx, trip.ID, categoryID, planned, currency); err != nil {
		replyError(ctx, tg, chatID, "set_category_budget", err)
		return
	}
	if currency == "" {
		currency = trip.TargetCurrency
	}
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ Category %d planned at %s.",
		categoryID, money(planned, appmodels.NormalizeCurrencyCode(currency))), nil)
}

// handleRecalc handles the /recalc command.
func (b *Bot) handleRecalc(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRecalcCore(ctx, tgBot, update)
}

// handleRecalcCore is the testable implementation of handleRecalc.
func (b *Bot) handleRecalcCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, trip, ok := b.activeTrip(ctx, tg, update)
	if !ok {
		return
	}
	if err := b.ledger.RecomputeCategorySpending(ctx, trip.ID); err != nil {
		replyError(ctx, tg, chatID, "recalc", err)
		return
	}
	sendHTML(ctx, tg, chatID, "✅ Category totals rebuilt from the recorded expenses.", nil)
}

// handleEdit handles the /edit <id> <amount> [category id] command.
func (b *Bot) handleEdit(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditCore(ctx, tgBot, update)
}

// handleEditCore is the testable implementation of handleEdit.
func (b *Bot) handleEditCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}

	const usage = "Usage: <code>/edit &lt;id&gt; &lt;amount&gt; [category id]</code>"
	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/edit"))
	if len(fields) < 2 || len(fields) > 3 {
		sendHTML(ctx, tg, chatID, usage, nil)
		return
	}
	expenseID, ok := parseID(strings.TrimPrefix(fields[0], "#"))
	if !ok {
		sendHTML(ctx, tg, chatID, usage, nil)
		return
	}
	amount, err := ledger.ParsePositiveAmount(fields[1])
	if err != nil {
		sendHTML(ctx, tg, chatID, msgPositiveInput, nil)
		return
	}

	expense, err := b.ledger.Expense(ctx, expenseID)
	if err != nil {
		replyError(ctx, tg, chatID, "edit", err)
		return
	}
	trip, err := b.ownedTrip(ctx, expense.TripID, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "edit", err)
		return
	}

	categoryID := expense.CategoryID
	if len(fields) == 3 {
		if categoryID, err = strconv.Atoi(fields[2]); err != nil {
			sendHTML(ctx, tg, chatID, usage, nil)
			return
		}
	}

	home, err := b.ledger.ToHome(ctx, trip, expense.CurrencyTarget, amount)
	if err != nil {
		replyError(ctx, tg, chatID, "edit", err)
		return
	}
	updated, notifications, err := b.ledger.UpdateExpense(ctx, expenseID, home, amount, categoryID)
	if err != nil {
		replyError(ctx, tg, chatID, "edit", err)
		return
	}

	sendHTML(ctx, tg, chatID, "✏️ Updated "+formatExpense(*updated), nil)
	sendNotifications(ctx, tg, chatID, notifications)
}

// handleDelete handles the /delete <id> command.
func (b *Bot) handleDelete(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteCore(ctx, tgBot, update)
}

// handleDeleteCore is the testable implementation of handleDelete.
func (b *Bot) handleDeleteCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}

	expenseID, ok := parseID(strings.TrimPrefix(extractCommandArgs(update.Message.Text, "/delete"), "#"))
	if !ok {
		sendHTML(ctx, tg, chatID, "Usage: <code>/delete &lt;id&gt;</code>", nil)
		return
	}

	expense, err := b.ledger.Expense(ctx, expenseID)
	if err == nil {
		_, err = b.ownedTrip(ctx, expense.TripID, userID)
	}
	if err != nil {
		replyError(ctx, tg, chatID, "delete", err)
		return
	}

	deleted, err := b.ledger.DeleteExpense(ctx, expenseID)
	if err != nil {
		replyError(ctx, tg, chatID, "delete", err)
		return
	}
	sendHTML(ctx, tg, chatID, "🗑 Deleted "+formatExpense(*deleted), nil)
}
