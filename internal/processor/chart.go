package processor

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/qlty-go/qlty/internal/issue"
)

// HistoryPoint is one run's summary: one labelled bar group in
// RenderTrendChart.
type HistoryPoint struct {
	Label string // e.g. a short commit SHA or run timestamp
	Stats Stats
}

// RenderTrendChart builds an HTML bar chart of issue counts by level across
// a history of runs, rendered by the dashboard command.
func RenderTrendChart(history []HistoryPoint) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Issues over time", Subtitle: "by severity level"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	labels := make([]string, len(history))
	for i, p := range history {
		labels[i] = p.Label
	}

	bar.SetXAxis(labels)

	for _, level := range []issue.Level{issue.LevelHigh, issue.LevelMedium, issue.LevelLow, issue.LevelFmt} {
		data := make([]opts.BarData, len(history))

		for i, p := range history {
			data[i] = opts.BarData{Value: p.Stats.ByLevel[level]}
		}

		bar.AddSeries(level.String(), data, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	}

	return bar
}

// WriteTrendChartHTML renders the trend chart as a standalone HTML page.
func WriteTrendChartHTML(w io.Writer, history []HistoryPoint) error {
	return RenderTrendChart(history).Render(w)
}
