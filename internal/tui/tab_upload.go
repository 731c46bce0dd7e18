package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type uploadState struct {
	path     textinput.Model
	cursor   int
	category string // "" until one is chosen
	busy     bool
	result   *model.UploadResult
	err      string
}

func newUploadState() uploadState {
	ti := textinput.New()
	ti.Placeholder = "~/Pictures/receipt.jpg"
	ti.Prompt = "File: "
	ti.CharLimit = 512
	ti.Width = 50
	return uploadState{path: ti}
}

func uploadCategories() []string {
	return model.ReceiptCategories
}

func categoryAt(i int) string {
	cats := uploadCategories()
	if i < 0 || i >= len(cats) {
		return ""
	}
	return cats[i]
}

// canSubmit reports whether both a file and a category are chosen.
func (s uploadState) canSubmit() bool {
	return strings.TrimSpace(s.path.Value()) != "" && s.category != "" && !s.busy
}

// submitUpload sends the receipt. Nothing is sent until a file and a
// category are both chosen.
func (a App) submitUpload() (tea.Model, tea.Cmd) {
	if !a.upload.canSubmit() {
		return a, nil
	}
	a.upload.busy = true
	a.upload.err = ""
	a.upload.result = nil
	return a, uploadCmd(a.client, api.UploadRequest{
		Path:     expandHome(strings.TrimSpace(a.upload.path.Value())),
		Category: a.upload.category,
	})
}

func (a App) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	a.upload.busy = false
	if msg.err != nil {
		a.log.Warn("upload failed", "err", msg.err)
		a.upload.err = finance.MsgUploadFailed
		return a, nil
	}
	a.upload.result = msg.result
	a.upload.path.SetValue("")
	a.upload.category = ""
	a.setFlash(msg.result.Message, false)
	return a, nil
}

func (a App) renderUploadTab(cw int) string {
	t := theme.Active
	us := a.upload

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var b strings.Builder
	b.WriteString(us.path.View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Category"))
	b.WriteString("\n")
	for i, c := range uploadCategories() {
		mark := "( )"
		if c == us.category {
			mark = "(o)"
		}
		line := fmt.Sprintf("  %s %s", mark, c)
		if i == us.cursor {
			b.WriteString(accentStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case us.busy:
		b.WriteString(a.spinner.View() + mutedStyle.Render(" Uploading and scanning..."))
	case us.canSubmit():
		b.WriteString(accentStyle.Render("[ s ] Upload Receipt"))
	default:
		b.WriteString(dimStyle.Render("[ s ] Upload Receipt  (choose a file and a category)"))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("f: edit path · j/k: move · space: choose category"))
	if us.err != "" {
		b.WriteString("\n\n")
		b.WriteString(errStyle.Render(us.err))
	}

	form := components.ContentCard("Upload Receipt", b.String(), cw)
	if us.result == nil {
		return form
	}
	return form + "\n" + components.ContentCard("Scanned Receipt", a.renderParsed(us.result, cw), cw)
}

func (a App) renderParsed(res *model.UploadResult, cw int) string {
	t := theme.Active
	cur := a.currency()
	p := res.ParsedData
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	merchant := p.MerchantName
	if merchant == "" {
		merchant = "Unknown Merchant"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Merchant:"), valueStyle.Bold(true).Render(merchant))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Total:   "), valueStyle.Render(finance.FormatMoney(cur, p.TotalAmount)))
	if !p.DateExtracted.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Date:    "), valueStyle.Render(p.DateExtracted.Local().Format("Mon Jan 2, 2006")))
	}
	b.WriteString(renderItems(p.Items, cur, components.CardInnerWidth(cw), headerStyle, labelStyle, valueStyle))
	return strings.TrimRight(b.String(), "\n")
}

// expandHome resolves a leading ~/ against the home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
