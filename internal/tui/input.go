package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/tally/internal/finance"
)

func newFilterInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40
	return ti
}

// updateTabInput hands keys to whatever text field the active tab has
// focused. ok is false when nothing has focus.
func (a App) updateTabInput(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()

	switch {
	case a.activeTab == tabTransactions && a.txs.filter.Focused():
		switch key {
		case "esc":
			a.txs.filter.Blur()
			a.txs.filter.SetValue("")
			a.txs.cursor, a.txs.offset = 0, 0
			return a, nil, true
		case "enter":
			a.txs.filter.Blur()
			return a, nil, true
		}
		var cmd tea.Cmd
		a.txs.filter, cmd = a.txs.filter.Update(msg)
		a.txs.cursor, a.txs.offset = 0, 0
		return a, cmd, true

	case a.activeTab == tabReceipts && a.gallery.search.Focused():
		switch key {
		case "esc":
			a.gallery.search.Blur()
			a.gallery.search.SetValue("")
		case "enter":
			a.gallery.search.Blur()
		default:
			var cmd tea.Cmd
			a.gallery.search, cmd = a.gallery.search.Update(msg)
			if q := strings.TrimSpace(a.gallery.search.Value()); q != a.gallery.query {
				a.gallery.query = q
				a.gallery.cursor, a.gallery.offset = 0, 0
				return a, tea.Batch(cmd, a.loadTabCmd(tabReceipts)), true
			}
			return a, cmd, true
		}
		if q := strings.TrimSpace(a.gallery.search.Value()); q != a.gallery.query {
			a.gallery.query = q
			return a, a.loadTabCmd(tabReceipts), true
		}
		return a, nil, true

	case a.activeTab == tabUpload && a.upload.path.Focused():
		switch key {
		case "esc", "enter", "tab":
			a.upload.path.Blur()
			return a, nil, true
		}
		var cmd tea.Cmd
		a.upload.path, cmd = a.upload.path.Update(msg)
		return a, cmd, true

	case a.activeTab == tabProfile && a.profile.form != nil:
		return a.updateProfileForm(msg)
	}
	return a, nil, false
}

// updateTabKey handles the single-key shortcuts of the active tab.
func (a App) updateTabKey(key string) (tea.Model, tea.Cmd, bool) {
	switch a.activeTab {
	case tabDashboard:
		switch key {
		case "[":
			return a.setMonth(a.dash.month.Prev())
		case "]":
			return a.setMonth(a.dash.month.Next())
		case "n":
			a.modal = newAddExpenseModal(a.now(), a.width)
			return a, a.modal.form.Init(), true
		case "e":
			if a.dash.exporting {
				return a, nil, true
			}
			a.dash.exporting = true
			a.setFlash("Exporting...", false)
			return a, exportCmd(a.client, a.exportDir), true
		case "i":
			m, cmd := a.openAdvice()
			return m, cmd, true
		}

	case tabTransactions:
		switch key {
		case "j", "down":
			a.moveCursor(1)
			return a, nil, true
		case "k", "up":
			a.moveCursor(-1)
			return a, nil, true
		case "/":
			return a, a.txs.filter.Focus(), true
		case "x", "delete":
			rows := a.txs.visible()
			if a.txs.deleting != "" || a.txs.cursor >= len(rows) {
				return a, nil, true
			}
			a.modal = newDeleteTransactionModal(rows[a.txs.cursor], a.width)
			return a, a.modal.form.Init(), true
		}

	case tabReceipts:
		switch key {
		case "j", "down":
			a.moveCursor(1)
			return a, nil, true
		case "k", "up":
			a.moveCursor(-1)
			return a, nil, true
		case "/":
			return a, a.gallery.search.Focus(), true
		case "x", "delete":
			if a.gallery.deleting != "" || a.gallery.cursor >= len(a.gallery.receipts) {
				return a, nil, true
			}
			a.modal = newDeleteReceiptModal(a.gallery.receipts[a.gallery.cursor].ID, a.width)
			return a, a.modal.form.Init(), true
		}

	case tabUpload:
		switch key {
		case "f", "enter":
			return a, a.upload.path.Focus(), true
		case "j", "down":
			a.moveCursor(1)
			return a, nil, true
		case "k", "up":
			a.moveCursor(-1)
			return a, nil, true
		case " ", "space":
			a.upload.category = categoryAt(a.upload.cursor)
			return a, nil, true
		case "s":
			m, cmd := a.submitUpload()
			return m, cmd, true
		}

	case tabAnalytics:
		if key == "v" {
			a.analytics.period = nextPeriod(a.analytics.period)
			return a, a.loadTabCmd(tabAnalytics), true
		}

	case tabProfile:
		if key == "e" {
			a.profile = newProfileEdit(a.user, a.width)
			return a, a.profile.form.Init(), true
		}
	}
	return a, nil, false
}

// setMonth moves the dashboard to m, kept within the selectable range.
func (a App) setMonth(m finance.Month) (tea.Model, tea.Cmd, bool) {
	m = finance.ClampMonth(m, a.now())
	if m == a.dash.month {
		return a, nil, true
	}
	a.dash.month = m
	return a, a.loadTabCmd(tabDashboard), true
}

func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabTransactions:
		a.txs.cursor = clampCursor(a.txs.cursor+delta, len(a.txs.visible()))
	case tabReceipts:
		a.gallery.cursor = clampCursor(a.gallery.cursor+delta, len(a.gallery.receipts))
	case tabUpload:
		a.upload.cursor = clampCursor(a.upload.cursor+delta, len(uploadCategories()))
	}
}

func clampCursor(c, n int) int {
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// scrollWindow returns the first visible row for a list of n rows shown
// visible at a time, keeping cursor in view.
func scrollWindow(cursor, offset, visible, n int) (start, end int) {
	if visible < 1 {
		visible = 1
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	if offset < 0 {
		offset = 0
	}
	end = offset + visible
	if end > n {
		end = n
	}
	return offset, end
}

// updateProfileForm drives the inline profile editor.
func (a App) updateProfileForm(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.profile.form = nil
		return a, nil, true
	}

	form, cmd := a.profile.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.profile.form = f
	}

	switch a.profile.form.State {
	case huh.StateAborted:
		a.profile.form = nil
		return a, nil, true
	case huh.StateCompleted:
		in, err := a.profile.vals.update()
		a.profile.form = nil
		if err != nil {
			a.profile.message, a.profile.failed = finance.MsgProfileSaveFailed+" "+err.Error(), true
			return a, nil, true
		}
		a.profile.saving = true
		return a, saveProfileCmd(a.client, in), true
	}
	return a, cmd, true
}
