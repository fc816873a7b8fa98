package handlers

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/keyboards"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/menus"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

func handle(t *testing.T, h *harness, update tgbotapi.Update) {
	t.Helper()
	require.NoError(t, h.handler.Handle(context.Background(), update))
}

func keyboardData(markup interface{}) []string {
	kb, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				data = append(data, *b.CallbackData)
			}
		}
	}
	return data
}

func TestStartShowsUserPicker(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, command("/start"))

	msg, ok := h.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Select a user")
	assert.Contains(t, msg.Text, "2023-12-17")
	assert.Equal(t, []string{"sel:1:0", "sel:1:1", keyboards.CallbackDate}, keyboardData(msg.ReplyMarkup))
}

func TestStartWithNoUsersShowsNotice(t *testing.T) {
	h := newHarness(&fakeVitalz{})

	handle(t, h, command("/start"))

	assert.Equal(t, []string{"⚠️ " + menus.Escape(dashboard.NoUsersNotice)}, h.bot.texts())
}

func TestSelectRendersDashboard(t *testing.T) {
	h := newHarness(fullVitalz())
	handle(t, h, command("/start"))
	h.bot.reset()

	handle(t, h, callback("sel:1:0"))

	texts := h.bot.texts()
	require.Len(t, texts, 4)
	assert.Equal(t, loadingText, texts[0])
	assert.Contains(t, texts[1], "Alice")
	assert.Contains(t, texts[1], "▰▰▰▰▰▰▰▰▱▱ 77")
	assert.Contains(t, texts[2], "Sleep")
	assert.Contains(t, texts[3], "2 samples from 00:00:00 to 00:05:00")

	photos := h.bot.photos()
	require.Len(t, photos, 2)
	assert.Equal(t, []string{keyboards.CallbackRefresh, keyboards.CallbackDate, keyboards.CallbackClear},
		keyboardData(photos[1].ReplyMarkup))
	assert.Nil(t, photos[0].ReplyMarkup)

	assert.Equal(t, 1, h.bot.deletes())
	assert.Equal(t, []string{"2023-12-17"}, h.vitalz.statisticsDates())

	email, ok, err := h.operators.LastSelection(context.Background(), testTelegramID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice.LoginEmail, email)
}

func TestSelectWithoutRecordsShowsNoData(t *testing.T) {
	h := newHarness(&fakeVitalz{users: []domain.User{alice}})
	handle(t, h, command("/start"))
	h.bot.reset()

	handle(t, h, callback("sel:1:0"))

	texts := h.bot.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], menus.Escape(dashboard.NoDataNotice))
	assert.Empty(t, h.bot.photos())
}

func TestSelectFailedJoinShowsError(t *testing.T) {
	vitalz := fullVitalz()
	vitalz.panicSleep = true
	h := newHarness(vitalz)
	handle(t, h, command("/start"))
	h.bot.reset()

	handle(t, h, callback("sel:1:0"))

	msg, ok := h.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "❌")
	assert.Contains(t, msg.Text, "panicked")
	assert.Equal(t, []string{keyboards.CallbackRefresh, keyboards.CallbackDate, keyboards.CallbackClear},
		keyboardData(msg.ReplyMarkup))
}

func TestSelectUnknownIndex(t *testing.T) {
	h := newHarness(fullVitalz())
	handle(t, h, command("/start"))
	h.bot.reset()

	handle(t, h, callback("sel:1:9"))

	assert.Equal(t, []string{loadingText, goneUserText}, h.bot.texts())
}

func TestPageCallbackEditsPicker(t *testing.T) {
	vitalz := fullVitalz()
	vitalz.users = nil
	for i := 0; i < keyboards.PageSize+2; i++ {
		vitalz.users = append(vitalz.users, domain.User{LoginEmail: string(rune('a'+i)) + "@x.com", UserName: "U"})
	}
	h := newHarness(vitalz)
	handle(t, h, command("/start"))
	h.bot.reset()

	handle(t, h, callback("page:1"))

	edit, ok := h.bot.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 100, edit.MessageID)
	assert.Contains(t, edit.Text, "Page 2 of 2")
	raw, ok := h.states.GetTempData(testTelegramID, state.KeyUserPage)
	assert.True(t, ok)
	assert.Equal(t, "1", raw)
}

func TestDateCommand(t *testing.T) {
	h := newHarness(fullVitalz())

	t.Run("invalid", func(t *testing.T) {
		handle(t, h, command("/date 17.12.2023"))
		assert.Equal(t, []string{invalidDateText}, h.bot.texts())
		_, ok := h.states.GetTempData(testTelegramID, state.KeyStatisticsDate)
		assert.False(t, ok)
	})

	t.Run("reloads selection", func(t *testing.T) {
		handle(t, h, command("/start"))
		handle(t, h, callback("sel:1:0"))
		h.bot.reset()

		handle(t, h, command("/date 2024-01-05"))

		raw, ok := h.states.GetTempData(testTelegramID, state.KeyStatisticsDate)
		assert.True(t, ok)
		assert.Equal(t, "2024-01-05", raw)
		assert.Equal(t, []string{"2023-12-17", "2024-01-05"}, h.vitalz.statisticsDates())
		assert.Contains(t, h.bot.texts()[0], "2024-01-05")
	})
}

func TestDatePromptThenText(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, command("/date"))
	assert.Equal(t, state.WaitingForDate, h.states.GetUserState(testTelegramID))

	handle(t, h, textMessage("2023-11-30"))

	assert.Equal(t, state.None, h.states.GetUserState(testTelegramID))
	raw, _ := h.states.GetTempData(testTelegramID, state.KeyStatisticsDate)
	assert.Equal(t, "2023-11-30", raw)
	// nothing selected, so nothing is loaded
	assert.Empty(t, h.vitalz.statisticsDates())
}

func TestTextEmailSelectsUser(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, textMessage("a@x.com"))

	snap := h.dashboard.Snapshot(sessionKey(testChatID))
	_, ok := snap.State.(dashboard.Loaded)
	assert.True(t, ok)
	assert.Len(t, h.bot.photos(), 2)
}

func TestTextHint(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, textMessage("hello"))

	assert.Equal(t, []string{hintText}, h.bot.texts())
}

func TestClearCallback(t *testing.T) {
	h := newHarness(fullVitalz())
	handle(t, h, command("/start"))
	handle(t, h, callback("sel:1:1"))
	h.bot.reset()

	handle(t, h, callback(keyboards.CallbackClear))

	_, ok := h.dashboard.Snapshot(sessionKey(testChatID)).State.(dashboard.NoSelection)
	assert.True(t, ok)

	// the picker offers to resume the cleared selection
	msg, ok := h.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, keyboards.CallbackResume, keyboardData(msg.ReplyMarkup)[0])
}

func TestCancelDatePromptKeepsSelection(t *testing.T) {
	h := newHarness(fullVitalz())
	handle(t, h, command("/start"))
	handle(t, h, callback("sel:1:0"))
	handle(t, h, callback(keyboards.CallbackDate))
	require.Equal(t, state.WaitingForDate, h.states.GetUserState(testTelegramID))
	h.bot.reset()

	handle(t, h, callback(keyboards.CallbackCancel))

	assert.Equal(t, state.None, h.states.GetUserState(testTelegramID))
	assert.Equal(t, []string{dateCanceledText}, h.bot.texts())
	user, ok := dashboard.SelectedUser(h.dashboard.Snapshot(sessionKey(testChatID)).State)
	require.True(t, ok)
	assert.Equal(t, alice.LoginEmail, user.LoginEmail)
}

func TestSelectFromReloadedListIsRejected(t *testing.T) {
	vitalz := fullVitalz()
	h := newHarness(vitalz)
	handle(t, h, command("/start"))

	vitalz.users = []domain.User{bob, alice}
	handle(t, h, command("/users"))
	h.bot.reset()

	// a button from the first picker points at alice's old position
	handle(t, h, callback("sel:1:0"))

	texts := h.bot.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, loadingText, texts[0])
	assert.Equal(t, staleListText, texts[1])
	assert.Contains(t, texts[2], "Select a user")
	msg, ok := h.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, []string{"sel:2:0", "sel:2:1", keyboards.CallbackDate}, keyboardData(msg.ReplyMarkup))
	assert.IsType(t, dashboard.NoSelection{}, h.dashboard.Snapshot(sessionKey(testChatID)).State)
	assert.Empty(t, h.vitalz.statisticsDates())

	handle(t, h, callback("sel:2:0"))

	user, ok := dashboard.SelectedUser(h.dashboard.Snapshot(sessionKey(testChatID)).State)
	require.True(t, ok)
	assert.Equal(t, bob.LoginEmail, user.LoginEmail)
}

func TestResumeCallback(t *testing.T) {
	h := newHarness(fullVitalz())
	require.NoError(t, h.operators.RecordSelection(context.Background(), testTelegramID, bob.LoginEmail))

	handle(t, h, callback(keyboards.CallbackResume))

	user, ok := dashboard.SelectedUser(h.dashboard.Snapshot(sessionKey(testChatID)).State)
	require.True(t, ok)
	assert.Equal(t, bob.LoginEmail, user.LoginEmail)
}

func TestRefreshWithoutSelectionShowsPicker(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, callback(keyboards.CallbackRefresh))

	msg, ok := h.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Select a user")
}

func TestUnknownCommandAndHelp(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, command("/nope"))
	handle(t, h, command("/help"))

	assert.Equal(t, []string{unknownCommandText, menus.HelpText}, h.bot.texts())
}

func TestCallbackIsAnswered(t *testing.T) {
	h := newHarness(fullVitalz())

	handle(t, h, callback("bogus"))

	require.Len(t, h.bot.requests, 1)
	_, ok := h.bot.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, ok)
}
