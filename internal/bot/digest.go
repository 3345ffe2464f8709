package bot

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
)

const (
	// DigestCheckInterval is how often the digest loop checks whether to send digests.
	DigestCheckInterval = 30 * time.Minute
	// DigestTimeout is the maximum time a single digest run can take.
	DigestTimeout = 2 * time.Minute
)

// RunDigestLoop sends every user with an active trip a daily budget summary
// at the configured hour. It returns when ctx is cancelled.
func (b *Bot) RunDigestLoop(ctx context.Context) error {
	if !b.cfg.DailyDigestEnabled {
		logger.Log.Info().Msg("Daily digest is disabled")
		return nil
	}

	loc, err := time.LoadLocation(b.cfg.DigestTimezone)
	if err != nil {
		logger.Log.Error().Err(err).Str("timezone", b.cfg.DigestTimezone).Msg("Failed to load digest timezone, disabling digest")
		return nil
	}

	logger.Log.Info().
		Int("hour", b.cfg.DigestHour).
		Str("timezone", b.cfg.DigestTimezone).
		Msg("Daily digest loop started")

	sent := make(map[int64]string)
	ticker := time.NewTicker(DigestCheckInterval)
	defer ticker.Stop()

	b.checkAndSendDigests(ctx, sent, b.now().In(loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Daily digest loop stopped")
			return nil
		case <-ticker.C:
			b.checkAndSendDigests(ctx, sent, b.now().In(loc))
		}
	}
}

// checkAndSendDigests sends the digest once per user per day when now falls
// in the digest hour. sent maps user ids to the date they last got one.
func (b *Bot) checkAndSendDigests(ctx context.Context, sent map[int64]string, now time.Time) {
	if now.Hour() != b.cfg.DigestHour {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, DigestTimeout)
	defer cancel()

	today := now.Format("2006-01-02")
	for uid, day := range sent {
		if day != today {
			delete(sent, uid)
		}
	}

	users, err := b.ledger.ActiveUsers(checkCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch users for daily digest")
		return
	}

	for _, user := range users {
		if sent[user.ID] == today || user.ActiveTripID == nil {
			continue
		}

		snap, err := b.ledger.TripSnapshot(checkCtx, *user.ActiveTripID)
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(user.ID)).Msg("Failed to build digest")
			continue
		}

		// Private chats share the user's id.
		_, err = b.messageSender.SendMessage(checkCtx, &tgbot.SendMessageParams{
			ChatID:    user.ID,
			Text:      "🌙 <b>Daily digest</b>\n\n" + formatBudget(snap),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(user.ID)).Msg("Failed to send daily digest")
			continue
		}

		sent[user.ID] = today
		logger.Log.Debug().Str("user_hash", logger.HashUserID(user.ID)).Msg("Sent daily digest")
	}
}
