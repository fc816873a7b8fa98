package dashboard

import (
	"sort"
	"time"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

// Summary is the view model rendered by the bot and the HTTP API
type Summary struct {
	State     string            `json:"state"`
	Notice    string            `json:"notice,omitempty"`
	User      *domain.User      `json:"user,omitempty"`
	Date      string            `json:"date,omitempty"`
	Score     *ScoreSummary     `json:"score,omitempty"`
	Sleep     *SleepSummary     `json:"sleep,omitempty"`
	HeartRate *HeartRateSeries  `json:"heart_rate,omitempty"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// FailedDatasets returns the names of failed datasets in a stable order
func (s Summary) FailedDatasets() []string {
	names := make([]string, 0, len(s.Failures))
	for name := range s.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summarize derives the view model from a snapshot. Sections are only
// present for datasets that have at least one record.
func Summarize(snap Snapshot, loc *time.Location) Summary {
	summary := Summary{State: snap.State.Name(), Notice: snap.Notice}
	if u, ok := SelectedUser(snap.State); ok {
		summary.User = &u
	}

	switch st := snap.State.(type) {
	case LoadError:
		summary.Notice = st.Message
		return summary
	case LoadedEmpty:
		summary.Notice = NoDataNotice
	}

	data, ok := DataOf(snap.State)
	if !ok {
		return summary
	}

	if !data.Date.IsZero() {
		summary.Date = data.Date.Format("2006-01-02")
	}
	if !data.Score.Empty() {
		score := ScoreView(FirstScore(data.Score.Items))
		summary.Score = &score
	}
	if !data.Sleep.Empty() {
		sleep := SleepView(FirstSleep(data.Sleep.Items), loc)
		summary.Sleep = &sleep
	}
	if !data.Statistics.Empty() {
		series := HeartRate(data.Statistics.Items)
		summary.HeartRate = &series
	}
	if failures := data.Failures(); len(failures) > 0 {
		summary.Failures = make(map[string]string, len(failures))
		for name, err := range failures {
			summary.Failures[name] = err.Error()
		}
	}
	return summary
}
