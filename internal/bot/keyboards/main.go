package keyboards

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

// Callback data. Users are addressed by list version and index because
// Telegram limits callback data to 64 bytes.
const (
	CallbackSelectPrefix = "sel:"
	CallbackPagePrefix   = "page:"
	CallbackClear        = "clear"
	CallbackRefresh      = "refresh"
	CallbackDate         = "date"
	CallbackResume       = "resume"
	CallbackCancel       = "cancel"
)

// SelectData encodes a picker button for index in version of a user list
func SelectData(version uint64, index int) string {
	return fmt.Sprintf("%s%d:%d", CallbackSelectPrefix, version, index)
}

// ParseSelectData decodes data produced by SelectData
func ParseSelectData(data string) (version uint64, index int, ok bool) {
	rest, found := strings.CutPrefix(data, CallbackSelectPrefix)
	if !found {
		return 0, 0, false
	}
	rawVersion, rawIndex, found := strings.Cut(rest, ":")
	if !found {
		return 0, 0, false
	}
	version, err := strconv.ParseUint(rawVersion, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	index, err = strconv.Atoi(rawIndex)
	if err != nil {
		return 0, 0, false
	}
	return version, index, true
}

// PageSize is the number of users per picker page
const PageSize = 8

// Pages returns the number of picker pages for n users
func Pages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage keeps page inside the picker for n users
func ClampPage(page, n int) int {
	if page < 0 {
		return 0
	}
	if last := Pages(n) - 1; page > last {
		return last
	}
	return page
}

// UserPicker lists one page of users from version of the user list.
// resumeLabel, when set, adds a button that reopens the operator's last
// selection.
func UserPicker(users []domain.User, version uint64, page int, resumeLabel string) tgbotapi.InlineKeyboardMarkup {
	page = ClampPage(page, len(users))
	start := page * PageSize
	end := start + PageSize
	if end > len(users) {
		end = len(users)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if resumeLabel != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ "+resumeLabel, CallbackResume),
		))
	}

	for i := start; i < end; i++ {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(users[i].Label(), SelectData(version, i)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Prev", fmt.Sprintf("%s%d", CallbackPagePrefix, page-1)))
	}
	if page < Pages(len(users))-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", fmt.Sprintf("%s%d", CallbackPagePrefix, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📅 Statistics date", CallbackDate),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// DashboardActions is attached to a rendered dashboard
func DashboardActions() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", CallbackRefresh),
			tgbotapi.NewInlineKeyboardButtonData("📅 Date", CallbackDate),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Clear selection", CallbackClear),
		),
	)
}

// Cancel leaves date input and keeps the current selection
func Cancel() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", CallbackCancel),
		),
	)
}
