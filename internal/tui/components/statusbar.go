package components

import (
	"strings"

	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar shows.
type Status struct {
	User        string
	Currency    string
	Updated     string // e.g. "updated 2 minutes ago"
	Message     string // transient notice
	MessageErr  bool
	Refreshing  bool
	AutoRefresh bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	msgStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	if s.MessageErr {
		msgStyle = msgStyle.Foreground(t.Red)
	}

	left := base.Render(" ") + keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("q") + base.Render(" quit  ") +
		keyStyle.Render("L") + base.Render(" logout")
	if s.Message != "" {
		left += base.Render("  │ ") + msgStyle.Render(s.Message)
	}

	var right []string
	if s.User != "" {
		right = append(right, s.User)
	}
	if s.Currency != "" {
		right = append(right, s.Currency)
	}
	switch {
	case s.Refreshing:
		right = append(right, "refreshing…")
	case s.Updated != "":
		right = append(right, s.Updated)
	}
	if s.AutoRefresh {
		right = append(right, "auto")
	}
	rightStr := base.Render(strings.Join(right, " · ") + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 1 {
		padding = 1
	}

	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
