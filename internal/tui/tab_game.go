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
)

type gameState struct {
	loading  bool
	loaded   bool
	err      string
	progress model.GameProgress
}

func (a App) handleGameLoaded(msg gameLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Done(msg.ticket) {
		return a, nil
	}
	a.game.loading = false
	if msg.err != nil {
		a.game.err = a.fetchFailed("game", msg.err)
		return a, nil
	}
	a.game.err = ""
	a.game.progress = msg.progress
	a.game.loaded = true
	a.markRefreshed()
	return a, nil
}

func (a App) renderGameTab(cw int) string {
	t := theme.Active
	gs := a.game

	if !gs.loaded {
		return a.renderPending("Game", gs.loading, gs.err, cw)
	}

	g := gs.progress
	level := g.Level
	if level == 0 {
		level = g.Points/finance.PointsPerLevel + 1
	}
	current, span := finance.LevelProgress(g.Points)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Level", Value: fmt.Sprintf("%d", level), Color: t.Magenta},
		{Label: "Points", Value: fmt.Sprintf("%d", g.Points), Delta: fmt.Sprintf("%d to next level", span-current)},
		{Label: "Streak", Value: fmt.Sprintf("%d days", g.StreakCount), Color: t.Orange},
	}, cw))
	b.WriteString("\n")

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)
	barW := components.CardInnerWidth(cw) - 14
	if barW < 10 {
		barW = 10
	}
	xp := components.XPBar(current, span, barW) + space.Render(" ") +
		muted.Render(fmt.Sprintf("%d / %d XP", current, span))
	b.WriteString(components.ContentCard(fmt.Sprintf("Level %d Progress", level), xp, cw))
	b.WriteString("\n")

	done := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	open := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	reward := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface)

	var quests strings.Builder
	for i, q := range finance.Quests(g) {
		mark, style := "○", open
		if q.Completed {
			mark, style = "●", done
		}
		quests.WriteString(style.Render(mark + " " + q.Title))
		quests.WriteString(reward.Render(fmt.Sprintf("  +%d XP", q.Points)))
		if q.Description != "" {
			quests.WriteString("\n")
			quests.WriteString(muted.Render("  " + q.Description))
		}
		if i < len(finance.Quests(g))-1 {
			quests.WriteString("\n")
		}
	}
	b.WriteString(components.ContentCard("Active Quests", quests.String(), cw))
	return b.String()
}
