package handlers

import (
	"fmt"
	"time"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/utils"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	OperatorSvc  interfaces.OperatorServiceInterface
	DashboardSvc interfaces.DashboardServiceInterface
	InsightSvc   interfaces.InsightServiceInterface
	Location     *time.Location
	// DefaultDate is used when the operator has not picked a statistics date
	DefaultDate func() time.Time
}

// sessionKey gives every chat its own dashboard session
func sessionKey(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// statisticsDate returns the operator's chosen date, or the default one
func statisticsDate(deps Dependencies, stateManager state.StateManager, telegramID int64) time.Time {
	if raw, ok := stateManager.GetTempData(telegramID, state.KeyStatisticsDate); ok {
		if d, err := utils.ParseDate(raw, deps.Location); err == nil {
			return d
		}
	}
	return deps.DefaultDate()
}

// dashboardUser returns the login email of the chat's selected user
func dashboardUser(snap dashboard.Snapshot) (string, bool) {
	user, ok := dashboard.SelectedUser(snap.State)
	if !ok {
		return "", false
	}
	return user.LoginEmail, true
}
