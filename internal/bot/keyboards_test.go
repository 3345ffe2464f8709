package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	appmodels "gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

func TestCallbackData(t *testing.T) {
	t.Parallel()

	data := callbackData(callbackTrip, actionSwitch, int64(42))
	assert.Equal(t, "trip:switch:42", data)

	action, arg := parseCallback(data, callbackTrip)
	assert.Equal(t, actionSwitch, action)
	assert.Equal(t, "42", arg)

	action, arg = parseCallback(callbackRate+actionUse, callbackRate)
	assert.Equal(t, actionUse, action)
	assert.Empty(t, arg)

	// Telegram limits callback data to 64 bytes.
	assert.LessOrEqual(t, len(callbackData(callbackCurrency, actionBalance, int64(1<<62))), 64)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"-1", -1, false},
		{"x", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := parseID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, id)
		}
	}
}

func TestCategoryKeyboard(t *testing.T) {
	t.Parallel()

	cats := make([]appmodels.Category, len(appmodels.DefaultCategories))
	for i, c := range appmodels.DefaultCategories {
		c.ID = i + 1
		cats[i] = c
	}

	kb := categoryKeyboard(cats)

	// Six categories in rows of two plus the cancel row.
	assert.Len(t, kb.InlineKeyboard, 4)
	assert.Len(t, kb.InlineKeyboard[0], categoryColumns)
	assert.Equal(t, "exp:cat:1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, callbackExpense+actionCancel, kb.InlineKeyboard[3][0].CallbackData)
}

func TestTripsKeyboard_MarksActive(t *testing.T) {
	t.Parallel()

	kb := tripsKeyboard([]appmodels.Trip{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, actionDelete, 2)

	assert.Equal(t, "A", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "✅ B", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "trip:del:2", kb.InlineKeyboard[1][0].CallbackData)
}
