package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type authMode int

const (
	authLogin authMode = iota
	authRegister
)

func (m authMode) String() string {
	if m == authRegister {
		return "Create Account"
	}
	return "Sign In"
}

// authValues outlives the form so a failed attempt keeps what was typed.
type authValues struct {
	username string
	email    string
	password string
}

type authScreen struct {
	mode   authMode
	vals   *authValues
	form   *huh.Form
	busy   bool
	err    string
	notice string
}

func newAuthScreen(mode authMode, width int) *authScreen {
	s := &authScreen{mode: mode, vals: &authValues{}}
	s.form = s.build(width)
	return s
}

func (s *authScreen) build(width int) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Username").
			Value(&s.vals.username).
			Validate(huh.ValidateNotEmpty()),
	}
	if s.mode == authRegister {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&s.vals.email).
			Validate(func(v string) error {
				if !strings.Contains(v, "@") {
					return errors.New("enter a valid email")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&s.vals.password).
		Validate(huh.ValidateNotEmpty()))

	return huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(false).
		WithWidth(formWidth(width))
}

// toggle flips between sign-in and registration, keeping the username.
func (s *authScreen) toggle(width int) tea.Cmd {
	if s.mode == authLogin {
		s.mode = authRegister
	} else {
		s.mode = authLogin
	}
	s.err, s.notice = "", ""
	s.vals.password = ""
	s.form = s.build(width)
	return s.form.Init()
}

func (a App) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := a.auth
	if s.busy {
		return a, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+t" {
		return a, s.toggle(a.width)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.busy = true
		s.err, s.notice = "", ""
		username := strings.TrimSpace(s.vals.username)
		if s.mode == authRegister {
			return a, registerCmd(a.sess, username, strings.TrimSpace(s.vals.email), s.vals.password)
		}
		return a, loginCmd(a.sess, username, s.vals.password)
	case huh.StateAborted:
		s.form = s.build(a.width)
		return a, s.form.Init()
	}
	return a, cmd
}

// handleAuthDone reports the outcome of a sign-in or registration. A
// successful login needs nothing here; the session update routes to content.
func (a App) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	s := a.auth
	if s == nil {
		return a, nil
	}
	s.busy = false
	s.vals.password = ""

	if msg.err != nil {
		a.log.Info("authentication failed", "mode", msg.mode.String(), "err", msg.err)
		s.err = authErrorText(msg.mode, msg.err)
		s.form = s.build(a.width)
		return a, s.form.Init()
	}

	if msg.mode == authRegister {
		s.mode = authLogin
		s.notice = "Account created. Please sign in."
		s.form = s.build(a.width)
		return a, s.form.Init()
	}
	return a, nil
}

func authErrorText(mode authMode, err error) string {
	if d := api.Detail(err); d != "" {
		return d
	}
	if errors.Is(err, api.ErrInvalidInput) {
		return strings.TrimPrefix(err.Error(), api.ErrInvalidInput.Error()+": ")
	}
	if mode == authRegister {
		return "Registration failed. Please try again."
	}
	return finance.MsgLoginFailed
}

func (a App) viewAuth() string {
	t := theme.Active
	s := a.auth
	if s == nil {
		return a.viewLoading()
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)
	okStyle := lipgloss.NewStyle().Foreground(t.Green)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ tally"))
	b.WriteString(mutedStyle.Render(" · " + s.mode.String()))
	b.WriteString("\n\n")

	if s.busy {
		b.WriteString(a.spinner.View())
		if s.mode == authRegister {
			b.WriteString(mutedStyle.Render(" Creating account..."))
		} else {
			b.WriteString(mutedStyle.Render(" Signing in..."))
		}
	} else {
		b.WriteString(s.form.View())
	}

	if s.err != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(s.err))
	}
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(okStyle.Render(s.notice))
	}
	if a.flash != "" && s.err == "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(a.flash))
	}

	b.WriteString("\n\n")
	hint := "ctrl+t: create an account"
	if s.mode == authRegister {
		hint = "ctrl+t: sign in instead"
	}
	b.WriteString(dimStyle.Render(hint + " · enter: submit · ctrl+c: quit"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}
