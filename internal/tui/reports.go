package tui

import (
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/store"
)

const chartDays = 7

// weekChart draws the tracked minutes of the last seven days.
type weekChart struct {
	chart barchart.Model
	days  []history.DayTotal
}

func newWeekChart() weekChart {
	return weekChart{chart: barchart.New(60, 10)}
}

// build recomputes the totals ending on the day of now and redraws.
func (c *weekChart) build(entries []store.Entry, now time.Time, width, height int) {
	from := history.StartOfDay(now).AddDate(0, 0, -(chartDays - 1))
	c.days = history.DailyTotals(entries, from, now, now.Location())

	chartWidth := max(width-8, 20)
	chartHeight := 8
	if height > 30 {
		chartHeight = 12
	}
	c.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(c.days))
	for _, d := range c.days {
		style := chartBarStyle
		if d.TrackedMs == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Day.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  d.Day.Format(time.DateOnly),
				Value: float64(d.TrackedMs) / float64(time.Minute/time.Millisecond),
				Style: style,
			}},
		})
	}

	c.chart.PushAll(bars)
	c.chart.Draw()
}

func (c weekChart) view() string {
	return c.chart.View()
}
