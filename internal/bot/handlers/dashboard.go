package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/keyboards"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/menus"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/charts"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/utils"
)

const (
	loadingText    = "⏳ Loading…"
	noSelectedText = "No user selected. Use /users to pick one."
	goneUserText   = "That user is no longer in the list. Use /users to reload it."
	noEmailText    = "This user has no login email and cannot be loaded."
	staleListText  = "The user list has changed since that button was sent. Pick the user again."
)

// DashboardRenderer loads selections and renders dashboards into a chat
type DashboardRenderer struct {
	api          interfaces.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewDashboardRenderer creates a new dashboard renderer
func NewDashboardRenderer(api interfaces.BotAPI, deps Dependencies, stateManager state.StateManager) *DashboardRenderer {
	return &DashboardRenderer{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// ShowUsers sends the user picker. reload fetches the user list again.
func (r *DashboardRenderer) ShowUsers(ctx context.Context, chatID int64, operator *database.Operator, reload bool) error {
	key := sessionKey(chatID)
	snap := r.deps.DashboardSvc.Snapshot(key)
	if reload || len(snap.Users) == 0 {
		snap = r.deps.DashboardSvc.Start(ctx, key)
		r.stateManager.SetTempData(operator.TelegramID, state.KeyUserPage, "0")
	}

	page := r.page(operator.TelegramID)
	date := utils.FormatDate(statisticsDate(r.deps, r.stateManager, operator.TelegramID))
	return menus.SendUserPicker(r.api, chatID, snap.Users, snap.ListVersion, snap.Notice, date, page, r.resumeLabel(ctx, operator, snap.Users))
}

// TurnPage switches the picker message to another page
func (r *DashboardRenderer) TurnPage(ctx context.Context, chatID int64, messageID int, operator *database.Operator, page int) error {
	snap := r.deps.DashboardSvc.Snapshot(sessionKey(chatID))
	page = keyboards.ClampPage(page, len(snap.Users))
	r.stateManager.SetTempData(operator.TelegramID, state.KeyUserPage, strconv.Itoa(page))

	date := utils.FormatDate(statisticsDate(r.deps, r.stateManager, operator.TelegramID))
	return menus.UpdateUserPicker(r.api, chatID, messageID, snap.Users, snap.ListVersion, snap.Notice, date, page, r.resumeLabel(ctx, operator, snap.Users))
}

func (r *DashboardRenderer) page(telegramID int64) int {
	raw, ok := r.stateManager.GetTempData(telegramID, state.KeyUserPage)
	if !ok {
		return 0
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return page
}

func (r *DashboardRenderer) resumeLabel(ctx context.Context, operator *database.Operator, users []domain.User) string {
	email, ok, err := r.deps.OperatorSvc.LastSelection(ctx, operator.TelegramID)
	if err != nil || !ok {
		return ""
	}
	for _, u := range users {
		if u.LoginEmail == email {
			return u.Label()
		}
	}
	return ""
}

// SelectIndex loads the user at index of the chat's user list. A button
// from an older version of the list re-sends the current picker instead.
func (r *DashboardRenderer) SelectIndex(ctx context.Context, chatID int64, operator *database.Operator, version uint64, index int) error {
	date := statisticsDate(r.deps, r.stateManager, operator.TelegramID)
	return r.load(ctx, chatID, operator, func() (dashboard.Snapshot, error) {
		return r.deps.DashboardSvc.SelectIndex(ctx, sessionKey(chatID), version, index, date)
	})
}

// SelectEmail loads the user with the given login email. The user list is
// fetched first when the chat has none yet.
func (r *DashboardRenderer) SelectEmail(ctx context.Context, chatID int64, operator *database.Operator, email string) error {
	key := sessionKey(chatID)
	if len(r.deps.DashboardSvc.Snapshot(key).Users) == 0 {
		r.deps.DashboardSvc.Start(ctx, key)
	}
	date := statisticsDate(r.deps, r.stateManager, operator.TelegramID)
	return r.load(ctx, chatID, operator, func() (dashboard.Snapshot, error) {
		return r.deps.DashboardSvc.Select(ctx, key, email, date)
	})
}

// Refresh reloads the chat's current selection
func (r *DashboardRenderer) Refresh(ctx context.Context, chatID int64, operator *database.Operator) error {
	snap := r.deps.DashboardSvc.Snapshot(sessionKey(chatID))
	user, ok := dashboard.SelectedUser(snap.State)
	if !ok {
		return r.ShowUsers(ctx, chatID, operator, false)
	}
	return r.SelectEmail(ctx, chatID, operator, user.LoginEmail)
}

func (r *DashboardRenderer) load(ctx context.Context, chatID int64, operator *database.Operator, run func() (dashboard.Snapshot, error)) error {
	loading, sendErr := r.api.Send(tgbotapi.NewMessage(chatID, loadingText))

	snap, err := run()

	if sendErr == nil {
		if _, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, loading.MessageID)); err != nil {
			logger.Debug("Failed to delete loading message", "chat_id", chatID, "error", err)
		}
	}

	switch {
	case errors.Is(err, dashboard.ErrSuperseded):
		// a newer selection renders instead
		return nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return r.sendText(chatID, goneUserText, nil)
	case errors.Is(err, apperrors.ErrMissingLoginEmail):
		return r.sendText(chatID, noEmailText, nil)
	case errors.Is(err, apperrors.ErrStaleUserList):
		if err := r.sendText(chatID, staleListText, nil); err != nil {
			return err
		}
		return r.ShowUsers(ctx, chatID, operator, false)
	case err != nil:
		return err
	}

	if user, ok := dashboard.SelectedUser(snap.State); ok {
		if err := r.deps.OperatorSvc.RecordSelection(ctx, operator.TelegramID, user.LoginEmail); err != nil {
			logger.Warn("Failed to record selection", "telegram_id", operator.TelegramID, "error", err)
		}
	}
	return r.Render(ctx, chatID, snap)
}

// outgoing is one message of a rendered dashboard
type outgoing struct {
	text  string
	image []byte
	name  string
}

// Render sends the view of a snapshot
func (r *DashboardRenderer) Render(ctx context.Context, chatID int64, snap dashboard.Snapshot) error {
	summary := dashboard.Summarize(snap, r.deps.Location)

	switch snap.State.(type) {
	case dashboard.NoSelection:
		return r.sendText(chatID, noSelectedText, nil)
	case dashboard.Loading:
		return r.sendText(chatID, loadingText, nil)
	case dashboard.LoadError:
		actions := keyboards.DashboardActions()
		return r.sendText(chatID, "❌ "+menus.Escape(summary.Notice), &actions)
	}

	header := menus.Header(*summary.User, summary.Date)
	if _, ok := snap.State.(dashboard.LoadedEmpty); ok {
		text := header + "\n\nℹ️ " + menus.Escape(summary.Notice)
		if note := menus.FailureNote(summary.Failures); note != "" {
			text += "\n" + note
		}
		actions := keyboards.DashboardActions()
		return r.sendText(chatID, text, &actions)
	}

	messages := r.cards(summary)
	if insight := r.insight(ctx, summary); insight != "" {
		messages = append(messages, outgoing{text: "💡 " + menus.Escape(insight)})
	}

	for i, m := range messages {
		var markup *tgbotapi.InlineKeyboardMarkup
		if i == len(messages)-1 {
			actions := keyboards.DashboardActions()
			markup = &actions
		}
		if err := r.send(chatID, m, markup); err != nil {
			return err
		}
	}
	return nil
}

func (r *DashboardRenderer) cards(summary dashboard.Summary) []outgoing {
	top := menus.Header(*summary.User, summary.Date) + "\n\n" + menus.ScoreCard(summary.Score)
	if note := menus.FailureNote(summary.Failures); note != "" {
		top += "\n\n" + note
	}
	messages := []outgoing{{text: top}}

	sleep := outgoing{text: menus.SleepCard(summary.Sleep)}
	if summary.Sleep != nil {
		img, err := charts.SleepPie("Sleep stages", summary.Sleep.Stages)
		sleep.image, sleep.name = chartOrNil(img, err, "sleep.png")
	}
	messages = append(messages, sleep)

	stats := outgoing{text: menus.StatisticsCard(summary.HeartRate)}
	if summary.HeartRate != nil {
		img, err := charts.HeartRateLine("Heart rate and HRV", *summary.HeartRate)
		stats.image, stats.name = chartOrNil(img, err, "heart-rate.png")
	}
	return append(messages, stats)
}

func chartOrNil(img []byte, err error, name string) ([]byte, string) {
	if err != nil {
		if !errors.Is(err, charts.ErrNoData) {
			logger.Warn("Chart rendering failed", "chart", name, "error", err)
		}
		return nil, ""
	}
	return img, name
}

func (r *DashboardRenderer) insight(ctx context.Context, summary dashboard.Summary) string {
	if r.deps.InsightSvc == nil || !r.deps.InsightSvc.Enabled() {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	insight, err := r.deps.InsightSvc.Summarize(ctx, summary)
	if err != nil {
		logger.Warn("Insight unavailable", "error", err)
		return ""
	}
	return strings.TrimSpace(insight.Text)
}

func (r *DashboardRenderer) send(chatID int64, m outgoing, markup *tgbotapi.InlineKeyboardMarkup) error {
	if m.image == nil {
		return r.sendText(chatID, m.text, markup)
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: m.name, Bytes: m.image})
	photo.Caption = m.text
	photo.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		photo.ReplyMarkup = *markup
	}
	if _, err := r.api.Send(photo); err != nil {
		// retry without Markdown, like text messages
		photo.ParseMode = ""
		if _, err := r.api.Send(photo); err != nil {
			return err
		}
	}
	return nil
}

func (r *DashboardRenderer) sendText(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := r.api.Send(msg); err != nil {
		msg.ParseMode = ""
		_, err = r.api.Send(msg)
		return err
	}
	return nil
}
