package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type transactionsState struct {
	all      []model.Transaction
	filter   textinput.Model
	cursor   int
	offset   int
	loading  bool
	loaded   bool
	err      string
	deleting string // id of the row being deleted
}

// visible is the filtered list the cursor indexes into.
func (s transactionsState) visible() []model.Transaction {
	return finance.Filter(s.all, s.filter.Value())
}

func (a App) handleTransactionsLoaded(msg transactionsLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Done(msg.ticket) {
		return a, nil
	}
	a.txs.loading = false
	if msg.err != nil {
		a.txs.err = a.fetchFailed("transactions", msg.err)
		return a, nil
	}
	a.txs.err = ""
	a.txs.all = msg.txs
	a.txs.loaded = true
	a.txs.cursor = clampCursor(a.txs.cursor, len(a.txs.visible()))
	a.markRefreshed()
	return a, nil
}

func (a App) handleTransactionDeleted(msg transactionDeletedMsg) (tea.Model, tea.Cmd) {
	a.txs.deleting = ""
	if msg.err != nil {
		a.log.Warn("deleting transaction", "id", msg.id, "err", msg.err)
		a.setFlash(finance.MsgDeleteFailed, true)
		return a, nil
	}
	a.txs.all = finance.RemoveByID(a.txs.all, msg.id)
	a.txs.cursor = clampCursor(a.txs.cursor, len(a.txs.visible()))
	a.setFlash("Transaction deleted", false)
	return a, nil
}

func (a App) renderTransactionsTab(cw, h int) string {
	t := theme.Active
	ts := a.txs

	if !ts.loaded {
		return a.renderPending("Transactions", ts.loading, ts.err, cw)
	}

	rows := ts.visible()
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	dateW, catW, amtW, kindW := 11, 14, 12, 8
	descW := innerW - dateW - catW - amtW - kindW - 4
	if descW < 10 {
		descW = 10
	}

	var body strings.Builder
	if ts.filter.Focused() || ts.filter.Value() != "" {
		body.WriteString(ts.filter.View())
		body.WriteString("\n")
	}
	if ts.err != "" {
		body.WriteString(errStyle.Render(ts.err))
		body.WriteString("\n")
	}

	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %-*s %*s",
		dateW, "Date", descW, "Description", catW, "Category", kindW, "Type", amtW, "Amount")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	if len(rows) == 0 {
		if ts.filter.Value() != "" {
			body.WriteString(mutedStyle.Render("No transactions match the filter"))
		} else {
			body.WriteString(mutedStyle.Render("No transactions yet. Add one with n on the Dashboard."))
		}
		return components.ContentCard("Transactions", body.String(), cw)
	}

	visible := h - 8
	start, end := scrollWindow(ts.cursor, ts.offset, visible, len(rows))
	cur := a.currency()
	for i := start; i < end; i++ {
		tx := rows[i]
		date := ""
		if !tx.Date.IsZero() {
			date = tx.Date.Local().Format("2006-01-02")
		}
		kind := tx.Type
		if ts.deleting != "" && tx.ID == ts.deleting {
			kind = "deleting"
		}
		line := fmt.Sprintf("%-*s %-*s %-*s %-*s %*s",
			dateW, date,
			descW, truncStr(tx.Description, descW),
			catW, truncStr(tx.Category, catW),
			kindW, kind,
			amtW, finance.FormatAmount(cur, tx.Amount))
		if i == ts.cursor {
			body.WriteString(selectedStyle.Render(line))
		} else {
			body.WriteString(rowStyle.Render(line))
		}
		body.WriteString("\n")
	}

	total := finance.Sum(rows, func(tx model.Transaction) decimal.Decimal { return tx.Amount })
	body.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d · total %s · / filter · x delete",
		len(rows), len(ts.all), finance.FormatMoney(cur, total))))

	return components.ContentCard("Transactions", body.String(), cw)
}
