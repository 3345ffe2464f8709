package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
)

// handleChart handles the /chart command: spending per category of the active trip.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageContext(update)
	if !ok {
		return
	}

	snap, err := b.ledger.Snapshot(ctx, userID)
	if err != nil {
		replyError(ctx, tg, chatID, "chart", err)
		return
	}
	trip := snap.Trip

	statuses, err := b.ledger.CategoryBudgets(ctx, trip.ID)
	if err != nil {
		replyError(ctx, tg, chatID, "chart", err)
		return
	}

	chartData, err := GenerateCategoryChart(statuses, fmt.Sprintf("Spending in %s (%s)", trip.Name, trip.HomeCurrency))
	if errors.Is(err, errNothingToChart) {
		sendHTML(ctx, tg, chatID, "📊 No spending recorded yet.", nil)
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Int64("trip_id", trip.ID).Msg("Failed to generate chart")
		sendHTML(ctx, tg, chatID, msgGenericFailure, nil)
		return
	}

	caption := fmt.Sprintf("📊 <b>%s</b>\n\nSpent: %s\nBalance: %s",
		escapeHTML(trip.Name), money(snap.SpentHome, trip.HomeCurrency), money(snap.TotalHome, trip.HomeCurrency))

	_, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileUpload{Filename: chartFilename(trip.ID, b.now()), Data: bytes.NewReader(chartData)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
		sendHTML(ctx, tg, chatID, "❌ Failed to send chart. Please try again.", nil)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int64("trip_id", trip.ID).
		Str("spent_home", snap.SpentHome.String()).
		Msg("Chart generated successfully")
}
