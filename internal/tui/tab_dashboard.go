package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const recentLimit = 5

type dashboardState struct {
	month     finance.Month
	loading   bool
	loaded    bool
	err       string
	data      dashboardData
	exporting bool
}

func (a App) handleDashboardLoaded(msg dashboardLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Done(msg.ticket) {
		return a, nil
	}
	a.dash.loading = false
	if msg.err != nil {
		a.dash.err = a.fetchFailed("dashboard", msg.err)
		return a, nil
	}
	a.dash.err = ""
	a.dash.data = msg.data
	a.dash.loaded = true
	a.markRefreshed()
	return a, nil
}

func (a App) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	a.dash.exporting = false
	if msg.err != nil {
		a.log.Warn("export failed", "err", msg.err)
		a.setFlash(finance.MsgExportFailed, true)
		return a, nil
	}
	a.setFlash(fmt.Sprintf("Exported %s to %s", humanize.Bytes(uint64(msg.bytes)), msg.path), false)
	return a, nil
}

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	ds := a.dash

	if !ds.loaded {
		return a.renderPending("Dashboard", ds.loading, ds.err, cw)
	}

	d := ds.data
	cur := a.currency()
	ov := finance.ComputeOverview(a.user, d.budgets, d.summary)

	var b strings.Builder

	// Error from a later refresh keeps the last good data on screen.
	if ds.err != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Red).Background(t.Background).Render(" " + ds.err))
		b.WriteString("\n")
	}

	// Row 1: headline metrics
	budgetValue := finance.FormatMoney(cur, ov.Budget)
	budgetDelta := "monthly budget"
	if !ov.HasBudget() {
		budgetValue = "-"
		budgetDelta = finance.MsgNoBudget
	}
	level := d.game.Level
	if level == 0 {
		level = d.game.Points/finance.PointsPerLevel + 1
	}
	metrics := []components.Metric{
		{Label: "Spent", Value: finance.FormatMoney(cur, ov.Spent), Delta: ds.month.String()},
		{Label: "Budget", Value: budgetValue, Delta: budgetDelta},
		{Label: "Remaining", Value: finance.FormatMoney(cur, ov.Remaining.Abs()), Delta: ov.RemainingLabel(cur), Color: t.Balance(ov.Overspent())},
		{Label: "Level", Value: fmt.Sprintf("%d", level), Delta: fmt.Sprintf("%d pts · %d day streak", d.game.Points, d.game.StreakCount), Color: t.Magenta},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:2], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[2:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	// Row 2: budget utilization
	b.WriteString(components.ContentCard("Budget Utilization", a.renderUtilization(ov, cw), cw))
	b.WriteString("\n")

	// Row 3: category budgets + recent transactions
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Category Budgets", renderBudgets(d.budgets, cur, cw), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Recent Transactions", renderRecent(d.recent, cur, cw), cw))
	} else {
		w := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Category Budgets", renderBudgets(d.budgets, cur, w[0]), w[0]),
			components.ContentCard("Recent Transactions", renderRecent(d.recent, cur, w[1]), w[1]),
		}))
	}
	b.WriteString("\n")

	// Row 4: forecast and top category
	b.WriteString(components.ContentCard("Forecast", a.renderForecast(d, cw), cw))

	return b.String()
}

func (a App) renderUtilization(ov finance.Overview, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	if !ov.HasBudget() {
		return muted.Render(finance.MsgNoBudget + ". Set one on the Profile tab (p).")
	}

	barW := innerW - 6
	if barW < 10 {
		barW = 10
	}
	balance := lipgloss.NewStyle().Foreground(t.Balance(ov.Overspent())).Background(t.Surface).Bold(true)
	return components.ProgressBar(ov.Utilization, barW) + "\n" +
		muted.Render(ov.UtilizedLabel()) + space.Render("  ·  ") + balance.Render(ov.RemainingLabel(a.currency()))
}

func renderBudgets(budgets []model.Budget, cur string, w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(budgets) == 0 {
		return muted.Render("No category budgets")
	}

	innerW := components.CardInnerWidth(w)
	labelW := 12
	detailW := 22
	barW := innerW - labelW - detailW - 3
	if barW < 6 {
		barW = 6
	}

	var b strings.Builder
	for i, bud := range budgets {
		pct := finance.Utilization(bud.Spent, bud.Limit)
		detail := finance.FormatMoney(cur, bud.Spent) + " / " + finance.FormatMoney(cur, bud.Limit)
		b.WriteString(components.BudgetBar(bud.Category, pct, detail, bud.Alert, labelW, barW))
		if i < len(budgets)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderRecent(txs []model.Transaction, cur string, w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amount := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	if len(txs) == 0 {
		return muted.Render("No transactions this month")
	}

	innerW := components.CardInnerWidth(w)
	amtW := 12
	descW := innerW - 7 - amtW - 2
	if descW < 8 {
		descW = 8
	}

	var b strings.Builder
	n := len(txs)
	if n > recentLimit {
		n = recentLimit
	}
	for i, tx := range txs[:n] {
		date := "      "
		if !tx.Date.IsZero() {
			date = tx.Date.Local().Format("Jan 02")
		}
		b.WriteString(muted.Render(date + " "))
		b.WriteString(row.Render(fmt.Sprintf("%-*s", descW, truncStr(tx.Description, descW))))
		b.WriteString(amount.Render(fmt.Sprintf("%*s", amtW+2, finance.FormatAmount(cur, tx.Amount))))
		if i < n-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderForecast(d dashboardData, cw int) string {
	t := theme.Active
	cur := a.currency()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(components.CardInnerWidth(cw))

	var b strings.Builder
	if d.forecast.PredictedAmount.IsPositive() {
		b.WriteString(muted.Render("Next month: "))
		b.WriteString(value.Render(finance.FormatMoney(cur, d.forecast.PredictedAmount)))
	} else {
		b.WriteString(muted.Render(finance.MsgForecastGathering))
	}
	if top, ok := finance.TopCategory(d.summary); ok {
		b.WriteString(muted.Render("   Top category: "))
		b.WriteString(value.Render(top.Category))
		b.WriteString(muted.Render(" (" + finance.FormatMoney(cur, top.Total) + ")"))
	}
	if d.forecast.Advice != "" {
		b.WriteString("\n")
		b.WriteString(text.Render(d.forecast.Advice))
	}
	return b.String()
}

// renderPending is the card shown before a view's first successful load.
func (a App) renderPending(title string, loading bool, errText string, cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	switch {
	case errText != "":
		body := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(errText) + "\n" +
			muted.Render("Press ctrl+r to retry.")
		return components.ContentCard(title, body, cw)
	case loading:
		return components.ContentCard(title, a.spinner.View()+muted.Render(" Loading..."), cw)
	}
	return components.ContentCard(title, muted.Render("Nothing loaded yet."), cw)
}
