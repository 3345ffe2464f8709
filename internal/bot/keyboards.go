package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	appmodels "gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// Callback data is "<prefix><action>[:<arg>]".
const (
	callbackRate     = "rate:"
	callbackExpense  = "exp:"
	callbackTrip     = "trip:"
	callbackCurrency = "curr:"

	actionUse       = "use"
	actionManual    = "manual"
	actionCurrency  = "cur"
	actionCategory  = "cat"
	actionCancel    = "cancel"
	actionSwitch    = "switch"
	actionDelete    = "del"
	actionDeleteOK  = "delok"
	actionDeleteNo  = "delno"
	actionBalance   = "bal"
	actionAdd       = "add"
	categoryColumns = 2
)

// parseCallback splits callback data after prefix into action and argument.
func parseCallback(data, prefix string) (action, arg string) {
	rest := strings.TrimPrefix(data, prefix)
	action, arg, _ = strings.Cut(rest, ":")
	return action, arg
}

func callbackData(prefix, action string, arg any) string {
	return fmt.Sprintf("%s%s:%v", prefix, action, arg)
}

func parseID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	return id, err == nil && id > 0
}

func rateKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "✅ Use this rate", CallbackData: callbackRate + actionUse},
			{Text: "✏️ Enter manually", CallbackData: callbackRate + actionManual},
		}},
	}
}

func cancelExpenseButton() []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{{Text: "❌ Cancel", CallbackData: callbackExpense + actionCancel}}
}

func expenseCurrencyKeyboard(currencies []appmodels.TripCurrency) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(currencies)+1)
	for _, c := range currencies {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s (%s)", c.Code, c.Balance.StringFixed(2)),
			CallbackData: callbackData(callbackExpense, actionCurrency, c.Code),
		}})
	}
	rows = append(rows, cancelExpenseButton())
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func categoryKeyboard(categories []appmodels.Category) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, c := range categories {
		row = append(row, models.InlineKeyboardButton{
			Text:         c.Name,
			CallbackData: callbackData(callbackExpense, actionCategory, c.ID),
		})
		if len(row) == categoryColumns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, cancelExpenseButton())
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func tripsKeyboard(trips []appmodels.Trip, action string, activeID int64) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(trips))
	for _, t := range trips {
		label := t.Name
		if t.ID == activeID {
			label = "✅ " + label
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         label,
			CallbackData: callbackData(callbackTrip, action, t.ID),
		}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func confirmDeleteTripKeyboard(tripID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "🗑 Yes, delete", CallbackData: callbackData(callbackTrip, actionDeleteOK, tripID)},
			{Text: "⬅️ Keep it", CallbackData: callbackTrip + actionDeleteNo},
		}},
	}
}

func currenciesKeyboard(currencies []appmodels.TripCurrency) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(currencies)+1)
	for _, c := range currencies {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "💰 " + c.Code + " balance", CallbackData: callbackData(callbackCurrency, actionBalance, c.ID)},
			{Text: "🗑 " + c.Code, CallbackData: callbackData(callbackCurrency, actionDelete, c.ID)},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "➕ Add currency", CallbackData: callbackCurrency + actionAdd},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
