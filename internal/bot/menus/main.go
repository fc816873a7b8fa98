package menus

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/keyboards"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
)

// Fallbacks shown when a section has no records.
const (
	NoScoreText      = "No score data available for this user."
	NoSleepText      = "No sleep data available for this user."
	NoStatisticsText = "No statistics data available for this user."
)

const HelpText = `Vitalz dashboard

/start - show the user list
/users - reload the user list
/date YYYY-MM-DD - set the statistics date
/clear - clear the current selection
/help - show this message

Pick a user to see their score, sleep breakdown and heart rate for the selected date.`

// Escape escapes operator-visible values for Markdown messages
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// SendUserPicker sends the user list, or the empty-list notice
func SendUserPicker(api interfaces.BotAPI, chatID int64, users []domain.User, version uint64, notice, date string, page int, resumeLabel string) error {
	msg := tgbotapi.NewMessage(chatID, UserPickerText(len(users), notice, date, page))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.UserPicker(users, version, page, resumeLabel)
	_, err := api.Send(msg)
	return err
}

// UpdateUserPicker switches an existing picker message to another page
func UpdateUserPicker(api interfaces.BotAPI, chatID int64, messageID int, users []domain.User, version uint64, notice, date string, page int, resumeLabel string) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		UserPickerText(len(users), notice, date, page),
		keyboards.UserPicker(users, version, page, resumeLabel),
	)
	edit.ParseMode = tgbotapi.ModeMarkdown
	_, err := api.Send(edit)
	return err
}

func UserPickerText(count int, notice, date string, page int) string {
	if notice != "" {
		return "⚠️ " + Escape(notice)
	}
	text := "👥 *Select a user*\n\n"
	text += fmt.Sprintf("📅 Statistics date: %s\n", Escape(date))
	if pages := keyboards.Pages(count); pages > 1 {
		text += fmt.Sprintf("Page %d of %d\n", keyboards.ClampPage(page, count)+1, pages)
	}
	return text
}

// SendHelp sends the command overview
func SendHelp(api interfaces.BotAPI, chatID int64) error {
	_, err := api.Send(tgbotapi.NewMessage(chatID, HelpText))
	return err
}

// Header opens every rendered dashboard
func Header(user domain.User, date string) string {
	return fmt.Sprintf("📊 *%s*\n%s · %s\n📅 %s",
		Escape(user.UserName), Escape(user.LoginEmail), Escape(user.DeviceCompany), Escape(date))
}

// ScoreCard renders the score section
func ScoreCard(score *dashboard.ScoreSummary) string {
	if score == nil {
		return "🏅 *Score*\n" + NoScoreText
	}
	return fmt.Sprintf("🏅 *Score*\n%s %s\nType: %s\nDate: %s",
		ProgressBar(score.Progress),
		formatNumber(score.Value),
		Escape(score.Type),
		Escape(orNA(score.Date)),
	)
}

// SleepCard renders the sleep section without the chart
func SleepCard(sleep *dashboard.SleepSummary) string {
	if sleep == nil {
		return "😴 *Sleep*\n" + NoSleepText
	}

	var b strings.Builder
	b.WriteString("😴 *Sleep*\n")
	for _, s := range sleep.Stages {
		if !s.Parsed {
			fmt.Fprintf(&b, "• %s: %s%% (not reported)\n", s.Stage, s.PercentText)
			continue
		}
		fmt.Fprintf(&b, "• %s: %s%%\n", s.Stage, s.PercentText)
	}
	fmt.Fprintf(&b, "Total sleep: %d hours\n", sleep.TotalHours)
	fmt.Fprintf(&b, "Sleep onset: %s\n", sleep.Onset)
	fmt.Fprintf(&b, "Wake-up: %s", sleep.WakeUp)
	return b.String()
}

// StatisticsCard renders the statistics section without the chart
func StatisticsCard(series *dashboard.HeartRateSeries) string {
	if series == nil || series.Len() == 0 {
		return "❤️ *Statistics*\n" + NoStatisticsText
	}
	return fmt.Sprintf("❤️ *Statistics*\n%d samples from %s to %s\nHeart rate: %s\nHRV: %s",
		series.Len(),
		Escape(series.Labels[0]),
		Escape(series.Labels[series.Len()-1]),
		rangeText(series.HR, "bpm"),
		rangeText(series.HRV, "ms"),
	)
}

// FailureNote lists the datasets that could not be fetched
func FailureNote(failures map[string]string) string {
	if len(failures) == 0 {
		return ""
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return "⚠️ Could not fetch: " + strings.Join(names, ", ")
}

// ProgressBar draws progress (0..100) as ten blocks
func ProgressBar(progress float64) string {
	filled := int(math.Round(math.Max(0, math.Min(100, progress)) / 10))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

func rangeText(values []float64, unit string) string {
	if len(values) == 0 {
		return dashboard.NotAvailable
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return fmt.Sprintf("%s–%s %s", formatNumber(lo), formatNumber(hi), unit)
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return dashboard.NotAvailable
	}
	return s
}
