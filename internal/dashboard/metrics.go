package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

// NotAvailable replaces values that are missing from a record.
const NotAvailable = "N/A"

// Sleep stages in display order.
const (
	StageDeep  = "Deep"
	StageLight = "Light"
	StageAwake = "Awake"
)

// StageShare is one slice of the sleep breakdown
type StageShare struct {
	Stage       string  `json:"stage"`
	Value       int     `json:"value"`
	Parsed      bool    `json:"parsed"`
	Percent     float64 `json:"percent"`
	PercentText string  `json:"percent_text"`
}

// Label is the pie chart label, e.g. "Deep: 22.22%"
func (s StageShare) Label() string {
	return fmt.Sprintf("%s: %s%%", s.Stage, s.PercentText)
}

// ScoreSummary is the score card
type ScoreSummary struct {
	Value    float64 `json:"value"`
	Progress float64 `json:"progress"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
}

// SleepSummary is the sleep card
type SleepSummary struct {
	Date       string       `json:"date"`
	Stages     []StageShare `json:"stages"`
	TotalHours int          `json:"total_hours"`
	Onset      string       `json:"onset"`
	WakeUp     string       `json:"wake_up"`
}

// HeartRateSeries feeds the statistics line chart
type HeartRateSeries struct {
	Labels []string  `json:"labels"`
	HR     []float64 `json:"hr"`
	HRV    []float64 `json:"hrv"`
	Oxygen []float64 `json:"oxygen_saturation"`
}

// Len returns the number of samples
func (s HeartRateSeries) Len() int {
	return len(s.Labels)
}

// FirstSleep returns the first sleep record, or a zero-duration placeholder.
func FirstSleep(records []domain.SleepRecord) domain.SleepRecord {
	if len(records) == 0 {
		return domain.SleepRecord{TotalTimeAsleep: "0", Deep: "0", Light: "0", Awake: "0"}
	}
	return records[0]
}

// FirstScore returns the first score record, or a zero score.
func FirstScore(records []domain.ScoreRecord) domain.ScoreRecord {
	if len(records) == 0 {
		return domain.ScoreRecord{}
	}
	return records[0]
}

// ParseLeadingInt parses like JavaScript's parseInt in base 10: leading
// whitespace and an optional sign are skipped, then the longest run of
// digits is used. Anything else is not a number.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseInt(sign+s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// SleepBreakdown computes each stage's share of the parseable total.
// Stages that do not parse are kept with Parsed=false and "0.00" so the
// breakdown always lists Deep, Light and Awake.
func SleepBreakdown(rec domain.SleepRecord) []StageShare {
	shares := []StageShare{
		{Stage: StageDeep},
		{Stage: StageLight},
		{Stage: StageAwake},
	}
	raw := []domain.Text{rec.Deep, rec.Light, rec.Awake}

	total := 0
	for i := range shares {
		v, ok := ParseLeadingInt(raw[i].String())
		shares[i].Value = v
		shares[i].Parsed = ok
		if ok {
			total += v
		}
	}

	for i := range shares {
		if shares[i].Parsed && total > 0 {
			shares[i].Percent = float64(shares[i].Value) / float64(total) * 100
		}
		shares[i].PercentText = strconv.FormatFloat(roundHalfUp(shares[i].Percent, 2), 'f', 2, 64)
	}
	return shares
}

// roundHalfUp rounds ties away from zero for positive values, matching
// JavaScript's toFixed on the shares we produce.
func roundHalfUp(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(v*scale+0.5) / scale
}

// TotalSleepHours converts seconds asleep to whole hours, rounding half up
// like JavaScript's Math.round. Unparseable input yields 0.
func TotalSleepHours(seconds string) int {
	v, ok := ParseLeadingInt(seconds)
	if !ok {
		return 0
	}
	return int(math.Floor(float64(v)/3600 + 0.5))
}

var zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05Z0700"}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses ISO-8601 timestamps. Timestamps without a zone are
// read in loc.
func ParseTimestamp(ts string, loc *time.Location) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatClock renders a timestamp as a time of day in loc, or NotAvailable.
func FormatClock(ts string, loc *time.Location) string {
	t, ok := ParseTimestamp(ts, loc)
	if !ok {
		return NotAvailable
	}
	return t.Format("15:04:05")
}

// ScoreView builds the score card. Progress is clamped to 0..100 for the
// progress bar; Value is shown unclamped.
func ScoreView(rec domain.ScoreRecord) ScoreSummary {
	value := rec.VitalzScore.Float()
	scoreType := strings.TrimSpace(rec.ScoreType)
	if scoreType == "" {
		scoreType = NotAvailable
	}
	return ScoreSummary{
		Value:    value,
		Progress: math.Max(0, math.Min(100, value)),
		Type:     scoreType,
		Date:     rec.Date,
	}
}

// SleepView builds the sleep card from the first record
func SleepView(rec domain.SleepRecord, loc *time.Location) SleepSummary {
	return SleepSummary{
		Date:       rec.Date,
		Stages:     SleepBreakdown(rec),
		TotalHours: TotalSleepHours(rec.TotalTimeAsleep.String()),
		Onset:      FormatClock(rec.SleepOnset, loc),
		WakeUp:     FormatClock(rec.WakeUpTime, loc),
	}
}

// HeartRate keeps the samples in API order
func HeartRate(samples []domain.StatisticsSample) HeartRateSeries {
	series := HeartRateSeries{
		Labels: make([]string, 0, len(samples)),
		HR:     make([]float64, 0, len(samples)),
		HRV:    make([]float64, 0, len(samples)),
		Oxygen: make([]float64, 0, len(samples)),
	}
	for _, s := range samples {
		series.Labels = append(series.Labels, s.Time)
		series.HR = append(series.HR, s.HR.Float())
		series.HRV = append(series.HRV, s.HRV.Float())
		series.Oxygen = append(series.Oxygen, s.OxygenSaturation.Float())
	}
	return series
}
