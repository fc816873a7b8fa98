package utils

import (
	"strings"
	"time"

	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
)

// DateLayout is the YYYY-MM-DD format used by the Vitalz API
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date at midnight in loc
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidDateError(value)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
