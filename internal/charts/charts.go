package charts

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
)

// ErrNoData is returned when a chart would have nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	width  = 800
	height = 480

	maxTicks = 8
)

var stageColors = map[string]drawing.Color{
	dashboard.StageDeep:  drawing.ColorFromHex("00D4FF"),
	dashboard.StageLight: drawing.ColorFromHex("A100F2"),
	dashboard.StageAwake: drawing.ColorFromHex("FF6666"),
}

var (
	heartRateColor = drawing.ColorFromHex("FF6666")
	hrvColor       = drawing.ColorFromHex("00D4FF")
)

// SleepPie renders the sleep stage breakdown as a PNG pie chart. Stages
// with a zero share are left out.
func SleepPie(title string, shares []dashboard.StageShare) ([]byte, error) {
	values := make([]chart.Value, 0, len(shares))
	for _, s := range shares {
		if s.Percent <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: s.Label(),
			Value: s.Percent,
			Style: chart.Style{
				FillColor:   stageColors[s.Stage],
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
				FontColor:   drawing.ColorWhite,
				FontSize:    12,
			},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  height,
		Height: height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render sleep chart: %w", err)
	}
	return buf.Bytes(), nil
}

// HeartRateLine renders heart rate and HRV over the day as a PNG line chart.
func HeartRateLine(title string, series dashboard.HeartRateSeries) ([]byte, error) {
	n := series.Len()
	if n == 0 {
		return nil, ErrNoData
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	hr := series.HR
	hrv := series.HRV

	// go-chart needs a non-zero x range
	if n == 1 {
		xs = []float64{0, 1}
		hr = []float64{hr[0], hr[0]}
		hrv = []float64{hrv[0], hrv[0]}
	}

	c := chart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Time", Ticks: timeTicks(series.Labels)},
		YAxis:      chart.YAxis{Name: "bpm / ms"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Heart Rate",
				XValues: xs,
				YValues: hr,
				Style:   chart.Style{StrokeColor: heartRateColor, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    "HRV",
				XValues: xs,
				YValues: hrv,
				Style:   chart.Style{StrokeColor: hrvColor, StrokeWidth: 2},
			},
		},
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render heart rate chart: %w", err)
	}
	return buf.Bytes(), nil
}

// timeTicks labels at most maxTicks evenly spaced samples.
func timeTicks(labels []string) []chart.Tick {
	n := len(labels)
	if n <= 1 {
		label := ""
		if n == 1 {
			label = labels[0]
		}
		return []chart.Tick{{Value: 0, Label: label}, {Value: 1, Label: ""}}
	}

	step := 1
	if n > maxTicks {
		step = (n + maxTicks - 1) / maxTicks
	}
	ticks := make([]chart.Tick, 0, maxTicks+1)
	for i := 0; i < n; i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	if last := float64(n - 1); ticks[len(ticks)-1].Value != last {
		ticks = append(ticks, chart.Tick{Value: last, Label: labels[n-1]})
	}
	return ticks
}
