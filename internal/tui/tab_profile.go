package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/session"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type profileValues struct {
	fullName string
	budget   string
	currency string
}

type profileState struct {
	form    *huh.Form // non-nil while editing
	vals    *profileValues
	saving  bool
	message string
	failed  bool
}

func newProfileEdit(u model.User, width int) profileState {
	vals := &profileValues{
		fullName: u.FullName,
		budget:   u.MonthlyBudget.StringFixed(2),
		currency: u.CurrencyCode(),
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Full Name").
			CharLimit(100).
			Value(&vals.fullName),
		huh.NewInput().
			Title("Monthly Budget").
			Description("0 to use the sum of category limits").
			Value(&vals.budget).
			Validate(func(s string) error {
				_, err := parseBudget(s)
				return err
			}),
		huh.NewSelect[string]().
			Title("Currency").
			Options(huh.NewOptions(api.Currencies...)...).
			Value(&vals.currency),
	)).WithShowHelp(false).WithWidth(formWidth(width))
	return profileState{form: form, vals: vals}
}

func parseBudget(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("enter a number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("budget cannot be negative")
	}
	return d, nil
}

func (v *profileValues) update() (api.ProfileUpdate, error) {
	budget, err := parseBudget(v.budget)
	if err != nil {
		return api.ProfileUpdate{}, err
	}
	return api.ProfileUpdate{
		FullName:      strings.TrimSpace(v.fullName),
		MonthlyBudget: budget,
		Currency:      v.currency,
	}, nil
}

func (a App) handleProfileSaved(msg profileSavedMsg) (tea.Model, tea.Cmd) {
	a.profile.saving = false
	if msg.err != nil {
		a.log.Warn("updating profile", "err", msg.err)
		a.profile.message, a.profile.failed = finance.MsgProfileSaveFailed, true
		return a, nil
	}
	a.sess.UpdateUser(msg.patch)
	_, a.user = a.sess.Snapshot()
	a.profile.message, a.profile.failed = finance.MsgProfileSaved, false
	return a, nil
}

func (a App) renderProfileTab(cw int) string {
	t := theme.Active
	ps := a.profile
	u := a.user

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	if ps.form != nil {
		b.WriteString(ps.form.View())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter: next / save · esc: cancel"))
		return components.ContentCard("Edit Profile", b.String(), cw)
	}

	budget := finance.MsgNoBudget
	if u.MonthlyBudget.IsPositive() {
		budget = finance.FormatMoney(u.CurrencyCode(), u.MonthlyBudget)
	}
	rows := [][2]string{
		{"Username", u.Username},
		{"Email", u.Email},
		{"Full Name", u.FullName},
		{"Monthly Budget", budget},
		{"Currency", fmt.Sprintf("%s (%s)", u.CurrencyCode(), finance.CurrencySymbol(u.CurrencyCode()))},
		{"Points", fmt.Sprintf("%d", u.Points)},
		{"Streak", fmt.Sprintf("%d days", u.StreakCount)},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", r[0])))
		b.WriteString(valueStyle.Render(r[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", "Server")))
	b.WriteString(valueStyle.Render(a.client.BaseURL()))
	b.WriteString("\n")
	if exp, ok := session.TokenExpiry(a.client.Token()); ok {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", "Session")))
		b.WriteString(valueStyle.Render(cli.FormatExpiry(exp, a.now())))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", "Config")))
	b.WriteString(valueStyle.Render(config.ConfigPath()))
	b.WriteString("\n\n")

	switch {
	case ps.saving:
		b.WriteString(a.spinner.View() + labelStyle.Render(" Saving..."))
		b.WriteString("\n")
	case ps.message != "":
		color := t.Green
		if ps.failed {
			color = t.Red
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(ps.message))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("e: edit profile · L: log out"))

	return components.ContentCard("Profile", b.String(), cw)
}
