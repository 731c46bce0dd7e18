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
)

// galleryState holds the receipts tab. query is the term the current
// receipts were fetched with; search is what is being typed.
type galleryState struct {
	receipts []model.Receipt
	search   textinput.Model
	query    string
	cursor   int
	offset   int
	loading  bool
	loaded   bool
	err      string
	deleting string
}

func (a App) handleReceiptsLoaded(msg receiptsLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Done(msg.ticket) {
		return a, nil
	}
	a.gallery.loading = false
	if msg.err != nil {
		a.gallery.err = a.fetchFailed("receipts", msg.err)
		return a, nil
	}
	a.gallery.err = ""
	a.gallery.receipts = msg.receipts
	a.gallery.loaded = true
	a.gallery.cursor = clampCursor(a.gallery.cursor, len(msg.receipts))
	a.markRefreshed()
	return a, nil
}

func (a App) handleReceiptDeleted(msg receiptDeletedMsg) (tea.Model, tea.Cmd) {
	a.gallery.deleting = ""
	if msg.err != nil {
		a.log.Warn("deleting receipt", "id", msg.id, "err", msg.err)
		a.setFlash(finance.MsgDeleteReceiptFailed, true)
		return a, nil
	}
	a.gallery.receipts = finance.RemoveReceipt(a.gallery.receipts, msg.id)
	a.gallery.cursor = clampCursor(a.gallery.cursor, len(a.gallery.receipts))
	a.setFlash("Receipt deleted", false)
	return a, nil
}

func (a App) renderReceiptsTab(cw, h int) string {
	t := theme.Active
	gs := a.gallery

	if !gs.loaded {
		return a.renderPending("Receipts", gs.loading, gs.err, cw)
	}

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	leftW := cw / 2
	if a.isCompactLayout() {
		leftW = cw
	}
	innerW := components.CardInnerWidth(leftW)
	cur := a.currency()

	var list strings.Builder
	if gs.search.Focused() || gs.query != "" {
		list.WriteString(gs.search.View())
		if gs.loading {
			list.WriteString(" " + a.spinner.View())
		}
		list.WriteString("\n")
	}
	if gs.err != "" {
		list.WriteString(errStyle.Render(gs.err))
		list.WriteString("\n")
	}

	if len(gs.receipts) == 0 {
		if gs.query != "" {
			list.WriteString(mutedStyle.Render(fmt.Sprintf("No receipts match %q", gs.query)))
		} else {
			list.WriteString(mutedStyle.Render("No receipts yet. Upload one on the Upload tab (u)."))
		}
		return components.ContentCard("Receipts", list.String(), cw)
	}

	amtW := 12
	dateW := 7
	nameW := innerW - amtW - dateW - 2
	if nameW < 8 {
		nameW = 8
	}

	start, end := scrollWindow(gs.cursor, gs.offset, h-6, len(gs.receipts))
	for i := start; i < end; i++ {
		r := gs.receipts[i]
		date := ""
		if d := r.Date(); !d.IsZero() {
			date = d.Local().Format("Jan 02")
		}
		name := r.Merchant()
		if r.ID == gs.deleting {
			name = "deleting..."
		}
		line := fmt.Sprintf("%-*s %-*s %*s", dateW, date, nameW, truncStr(name, nameW), amtW, finance.FormatAmount(cur, r.TotalAmount))
		if i == gs.cursor {
			list.WriteString(selectedStyle.Render(line))
		} else {
			list.WriteString(rowStyle.Render(line))
		}
		list.WriteString("\n")
	}
	list.WriteString(mutedStyle.Render(fmt.Sprintf("%d receipts · / search · x delete", len(gs.receipts))))

	title := "Receipts"
	if gs.query != "" {
		title = fmt.Sprintf("Receipts matching %q", gs.query)
	}
	listCard := components.ContentCard(title, list.String(), leftW)
	if a.isCompactLayout() || gs.cursor >= len(gs.receipts) {
		return listCard
	}

	sel := gs.receipts[gs.cursor]
	detailW := cw - leftW
	return components.CardRow([]string{listCard, components.ContentCard(sel.Merchant(), renderReceiptDetail(sel, cur, detailW), detailW)})
}

func renderReceiptDetail(r model.Receipt, cur string, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Total:"), valueStyle.Bold(true).Render(finance.FormatMoney(cur, r.TotalAmount)))
	if d := r.Date(); !d.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Date: "), valueStyle.Render(d.Local().Format("Mon Jan 2, 2006")))
	}
	if r.ImageURL != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Image:"), valueStyle.Render(truncStr(r.ImageURL, innerW-7)))
	}
	b.WriteString(renderItems(r.Items, cur, innerW, headerStyle, labelStyle, valueStyle))
	return strings.TrimRight(b.String(), "\n")
}

func renderItems(items []model.ReceiptItem, cur string, innerW int, headerStyle, labelStyle, valueStyle lipgloss.Style) string {
	if len(items) == 0 {
		return ""
	}
	amtW := 12
	descW := innerW - amtW - 6
	if descW < 8 {
		descW = 8
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("ITEMS"))
	b.WriteString("\n")
	for _, it := range items {
		qty := ""
		if it.Quantity > 1 {
			qty = fmt.Sprintf("%dx ", it.Quantity)
		}
		b.WriteString(valueStyle.Render(fmt.Sprintf("%-*s", descW, truncStr(qty+it.Description, descW))))
		b.WriteString(labelStyle.Render(fmt.Sprintf("%*s", amtW+6, finance.FormatAmount(cur, it.Amount))))
		b.WriteString("\n")
	}
	return b.String()
}
