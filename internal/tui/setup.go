package tui

import (
	"errors"
	"net/url"
	"strings"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// SetupValues are the answers collected by the first-run wizard.
type SetupValues struct {
	ServerURL   string
	Theme       string
	AutoRefresh bool
}

// NewSetupValues seeds the wizard from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		ServerURL:   cfg.Server.URL,
		Theme:       cfg.Appearance.Theme,
		AutoRefresh: cfg.TUI.AutoRefresh,
	}
}

// Apply writes the answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) {
	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(v.ServerURL), "/")
	cfg.Appearance.Theme = v.Theme
	cfg.TUI.AutoRefresh = v.AutoRefresh
}

// NewSetupForm builds the wizard. It runs embedded in the TUI on first
// launch and standalone from `tally setup`.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themes = append(themes, huh.NewOption(th.Name, th.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tally").
				Description("Track spending, receipts and budgets from your terminal.\nA few questions and you are ready to go."),
			huh.NewInput().
				Title("Backend URL").
				Description("Root of the finance API, including /api").
				Placeholder(config.DefaultServerURL).
				Value(&v.ServerURL).
				Validate(validateServerURL),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
			huh.NewConfirm().
				Title("Refresh the dashboard automatically?").
				Affirmative("Yes").
				Negative("No").
				Value(&v.AutoRefresh),
		),
	)
}

func validateServerURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("a URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("use http://host[:port]/api")
	}
	return nil
}

// setupScreen is the embedded first-run wizard.
type setupScreen struct {
	vals *SetupValues
	form *huh.Form
}

func newSetupScreen(cfg config.Config) *setupScreen {
	v := NewSetupValues(cfg)
	return &setupScreen{vals: v, form: NewSetupForm(v)}
}

func (a App) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setup.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setup.form = f
	}

	switch a.setup.form.State {
	case huh.StateCompleted:
		cfg := a.cfg
		a.setup.vals.Apply(&cfg)
		theme.SetActive(cfg.Appearance.Theme)
		a.autoRefresh = cfg.TUI.AutoRefresh
		if err := config.Save(cfg); err != nil {
			a.log.Warn("saving setup", "err", err)
			a.setFlash("Could not save config: "+err.Error(), true)
		}
		if cfg.Server.URL != a.cfg.Server.URL {
			a.setFlash("Server URL saved. Restart tally to connect to it.", false)
		}
		a.cfg = cfg
		a.setup = nil
		return a, nil
	case huh.StateAborted:
		a.setup = nil
		return a, nil
	}
	return a, cmd
}
