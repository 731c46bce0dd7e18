package tui

import (
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type analyticsState struct {
	period  string
	loading bool
	loaded  bool
	err     string
	data    analyticsData
}

var analyticsPeriods = []string{api.PeriodAll, api.PeriodYear, api.PeriodMonth}

func nextPeriod(p string) string {
	for i, v := range analyticsPeriods {
		if v == p {
			return analyticsPeriods[(i+1)%len(analyticsPeriods)]
		}
	}
	return api.PeriodAll
}

func (a App) handleAnalyticsLoaded(msg analyticsLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Done(msg.ticket) {
		return a, nil
	}
	a.analytics.loading = false
	if msg.err != nil {
		a.analytics.err = a.fetchFailed("analytics", msg.err)
		return a, nil
	}
	a.analytics.err = ""
	a.analytics.data = msg.data
	a.analytics.loaded = true
	a.markRefreshed()
	return a, nil
}

func (a App) renderAnalyticsTab(cw int) string {
	t := theme.Active
	as := a.analytics

	if !as.loaded {
		return a.renderPending("Analytics", as.loading, as.err, cw)
	}

	cur := a.currency()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	if as.err != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Red).Background(t.Background).Render(" " + as.err))
		b.WriteString("\n")
	}

	// Category shares
	shares, total := finance.Shares(as.data.summary)
	var shareBody string
	if len(shares) == 0 {
		shareBody = muted.Render("No spending recorded for this period")
	} else {
		slices := make([]components.ShareSlice, 0, len(shares))
		for _, s := range shares {
			slices = append(slices, components.ShareSlice{
				Name:   s.Name,
				Share:  s.Share,
				Amount: finance.FormatMoney(cur, s.Total),
			})
		}
		shareW := cw
		if !a.isCompactLayout() {
			shareW = cw / 2
		}
		shareBody = components.ShareChart(slices, finance.FormatMoney(cur, total), components.CardInnerWidth(shareW))
	}

	forecast := dashboardData{forecast: as.data.forecast, summary: as.data.summary}

	title := "Spending by Category · " + as.period + " (v to change)"
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(title, shareBody, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Forecast", a.renderForecast(forecast, cw), cw))
	} else {
		w := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard(title, shareBody, w[0]),
			components.ContentCard("Forecast", a.renderForecast(forecast, w[1]), w[1]),
		}))
	}
	b.WriteString("\n")

	// Daily trend across all expenses, oldest first.
	trend := finance.DailyTrend(as.data.txs, time.Local)
	var trendBody string
	if len(trend) == 0 {
		trendBody = muted.Render(finance.MsgForecastGathering)
	} else {
		values := make([]float64, len(trend))
		labels := make([]string, len(trend))
		for i, p := range trend {
			values[i] = p.Amount.InexactFloat64()
			labels[i] = p.Label
		}
		if a.isCompactLayout() {
			trendBody = components.Sparkline(values, t.Accent) + "\n" +
				muted.Render(trend[0].Label+" to "+trend[len(trend)-1].Label)
		} else {
			trendBody = components.BarChart(values, labels, t.Accent, components.CardInnerWidth(cw), 10)
		}
	}
	b.WriteString(components.ContentCard("Daily Spending Trend", trendBody, cw))

	return b.String()
}
