// Package tui provides the interactive Bubble Tea client for tally.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/session"
	"github.com/theirongolddev/tally/internal/store"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	tabDashboard = iota
	tabTransactions
	tabReceipts
	tabUpload
	tabAnalytics
	tabGame
	tabProfile
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	flashTTL       = 5 * time.Second
	settingLastTab = "tui.last_tab"
)

// Deps are the collaborators the app is built from.
type Deps struct {
	Client  *api.Client
	Session *session.Store
	Store   *store.DB // optional; remembers the last tab
	Config  config.Config
	Logger  *slog.Logger
	Now     func() time.Time
	// ExportDir is where the CSV report is written. Defaults to ".".
	ExportDir string
	// FirstRun shows the setup wizard before anything else.
	FirstRun bool
}

// App is the root Bubble Tea model.
type App struct {
	client    *api.Client
	sess      *session.Store
	db        *store.DB
	cfg       config.Config
	log       *slog.Logger
	now       func() time.Time
	exportDir string
	tracker   *fetch.Tracker
	updates   <-chan session.State
	unsub     func()

	// Session
	state        session.State
	user         model.User
	manualLogout bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time

	// Transient notice in the status bar
	flash    string
	flashErr bool
	flashAt  time.Time

	spinner spinner.Model
	auth    *authScreen
	modal   *modal
	setup   *setupScreen

	// Per-tab state
	dash      dashboardState
	txs       transactionsState
	gallery   galleryState
	upload    uploadState
	analytics analyticsState
	game      gameState
	profile   profileState
}

// NewApp creates a new TUI app model.
func NewApp(d Deps) App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ExportDir == "" {
		d.ExportDir = "."
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(d.Config.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < 10*time.Second {
		refreshInterval = 60 * time.Second
	}

	updates, unsub := d.Session.Subscribe()

	a := App{
		client:          d.Client,
		sess:            d.Session,
		db:              d.Store,
		cfg:             d.Config,
		log:             d.Logger.With("component", "tui"),
		now:             d.Now,
		exportDir:       d.ExportDir,
		tracker:         &fetch.Tracker{},
		updates:         updates,
		unsub:           unsub,
		autoRefresh:     d.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
		dash:            dashboardState{month: finance.MonthOf(d.Now())},
		analytics:       analyticsState{period: api.PeriodAll},
		upload:          newUploadState(),
		txs:             transactionsState{filter: newFilterInput("filter by description or category")},
		gallery:         galleryState{search: newFilterInput("search merchant or text")},
	}
	a.state, a.user = d.Session.Snapshot()
	a.activeTab = a.loadLastTab()

	if d.FirstRun {
		a.setup = newSetupScreen(d.Config)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
		waitForSession(a.updates),
	}
	switch a.state {
	case session.Pending:
		cmds = append(cmds, resolveCmd(a.sess))
	case session.Resolved:
		cmds = append(cmds, a.loadTabCmd(a.activeTab))
	}
	if a.setup != nil {
		cmds = append(cmds, a.setup.form.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setup != nil {
			a.setup.form = a.setup.form.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.auth != nil {
			a.auth.form = a.auth.form.WithWidth(formWidth(msg.Width))
		}
		if a.modal != nil && a.modal.form != nil {
			a.modal.form = a.modal.form.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case sessionMsg:
		return a.applySession()

	case resolvedMsg:
		if msg.err != nil {
			a.log.Warn("restoring session", "err", msg.err)
			a.setFlash("Could not reach the server: "+describeErr(msg.err), true)
		}
		return a.applySession()

	case authDoneMsg:
		return a.handleAuthDone(msg)

	case dashboardLoadedMsg:
		return a.handleDashboardLoaded(msg)
	case transactionsLoadedMsg:
		return a.handleTransactionsLoaded(msg)
	case receiptsLoadedMsg:
		return a.handleReceiptsLoaded(msg)
	case analyticsLoadedMsg:
		return a.handleAnalyticsLoaded(msg)
	case gameLoadedMsg:
		return a.handleGameLoaded(msg)
	case adviceLoadedMsg:
		return a.handleAdviceLoaded(msg)

	case transactionDeletedMsg:
		return a.handleTransactionDeleted(msg)
	case receiptDeletedMsg:
		return a.handleReceiptDeleted(msg)
	case expenseAddedMsg:
		return a.handleExpenseAdded(msg)
	case uploadDoneMsg:
		return a.handleUploadDone(msg)
	case profileSavedMsg:
		return a.handleProfileSaved(msg)
	case exportDoneMsg:
		return a.handleExportDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.flash != "" && a.now().Sub(a.flashAt) >= flashTTL {
			a.flash = ""
		}
		if a.autoRefresh && a.state == session.Resolved && a.modal == nil &&
			!a.lastRefresh.IsZero() && a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.lastRefresh = a.now()
			cmds = append(cmds, a.loadTabCmd(a.activeTab))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages (cursor blinks, etc.) to whichever form is up.
	switch {
	case a.setup != nil:
		return a.updateSetup(msg)
	case a.modal != nil && a.modal.form != nil:
		return a.updateModal(msg)
	case a.auth != nil && session.Decide(a.state) == session.RouteLogin:
		return a.updateAuth(msg)
	case a.activeTab == tabProfile && a.profile.form != nil:
		m, cmd, _ := a.updateProfileForm(msg)
		return m, cmd
	}
	return a.updateFocusedInput(msg)
}

// updateFocusedInput forwards cursor blinks to the focused text field.
func (a App) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case a.txs.filter.Focused():
		a.txs.filter, cmd = a.txs.filter.Update(msg)
	case a.gallery.search.Focused():
		a.gallery.search, cmd = a.gallery.search.Update(msg)
	case a.upload.path.Focused():
		a.upload.path, cmd = a.upload.path.Update(msg)
	}
	return a, cmd
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a.quit()
	}

	// First-run setup wizard intercepts all keys
	if a.setup != nil {
		return a.updateSetup(msg)
	}

	switch session.Decide(a.state) {
	case session.RoutePlaceholder:
		return a, nil
	case session.RouteLogin:
		if a.auth == nil {
			return a, nil
		}
		return a.updateAuth(msg)
	}

	if a.modal != nil {
		return a.updateModal(msg)
	}

	// Text inputs own the keyboard while focused.
	if m, cmd, ok := a.updateTabInput(msg); ok {
		return m, cmd
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if m, cmd, ok := a.updateTabKey(key); ok {
		return m, cmd
	}

	switch key {
	case "q":
		return a.quit()
	case "L":
		a.manualLogout = true
		a.sess.Logout()
		a.setFlash("Logged out", false)
		return a, nil
	case "ctrl+r":
		return a, a.loadTabCmd(a.activeTab)
	case "R":
		a.autoRefresh = !a.autoRefresh
		cfg := a.cfg
		cfg.TUI.AutoRefresh = a.autoRefresh
		if err := config.Save(cfg); err != nil {
			a.log.Warn("saving auto-refresh setting", "err", err)
		} else {
			a.cfg = cfg
		}
		return a, nil
	case "left":
		return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right":
		return a.switchTab((a.activeTab + 1) % len(components.Tabs))
	}

	if idx := components.TabIdxByKey(key); idx >= 0 {
		return a.switchTab(idx)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.state != session.Resolved || a.showHelp || a.modal != nil || a.setup != nil {
		return a, nil
	}
	if msg.Action != tea.MouseActionPress {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 && tab != a.activeTab {
				return a.switchTab(tab)
			}
		}
	}
	return a, nil
}

// quit drops the session subscription before the program exits.
func (a App) quit() (tea.Model, tea.Cmd) {
	if a.unsub != nil {
		a.unsub()
	}
	return a, tea.Quit
}

// switchTab activates tab and fetches its data, the way a view mounts.
func (a App) switchTab(tab int) (tea.Model, tea.Cmd) {
	a.activeTab = tab
	a.showHelp = false
	a.saveLastTab()
	return a, a.loadTabCmd(tab)
}

// applySession re-reads the session and routes accordingly.
func (a App) applySession() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForSession(a.updates)}
	prev := a.state
	a.state, a.user = a.sess.Snapshot()

	switch session.Decide(a.state) {
	case session.RouteLogin:
		a.tracker.Reset()
		a.modal = nil
		a.resetViews()
		if a.auth == nil {
			a.auth = newAuthScreen(authLogin, a.width)
			cmds = append(cmds, a.auth.form.Init())
		}
		if prev == session.Resolved && !a.manualLogout {
			a.setFlash("Session expired. Please log in again.", true)
		}
		a.manualLogout = false
	case session.RouteContent:
		a.auth = nil
		if prev != session.Resolved {
			a.profile = profileState{}
			cmds = append(cmds, a.loadTabCmd(a.activeTab))
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) resetViews() {
	a.dash = dashboardState{month: a.dash.month}
	a.txs = transactionsState{filter: newFilterInput("filter by description or category")}
	a.gallery = galleryState{search: newFilterInput("search merchant or text")}
	a.upload = newUploadState()
	a.analytics = analyticsState{period: a.analytics.period}
	a.game = gameState{}
	a.profile = profileState{}
}

// loadTabCmd issues the fetch for tab under a fresh ticket.
func (a *App) loadTabCmd(tab int) tea.Cmd {
	if a.state != session.Resolved {
		return nil
	}
	switch tab {
	case tabDashboard:
		tk := a.tracker.Begin(slotDashboard, fetch.Key(a.dash.month.Year, int(a.dash.month.Month)))
		a.dash.loading = true
		return loadDashboardCmd(a.client, tk, a.dash.month)
	case tabTransactions:
		tk := a.tracker.Begin(slotTransactions, "")
		a.txs.loading = true
		return loadTransactionsCmd(a.client, tk)
	case tabReceipts:
		tk := a.tracker.Begin(slotReceipts, fetch.Key(a.gallery.query))
		a.gallery.loading = true
		return loadReceiptsCmd(a.client, tk, a.gallery.query)
	case tabAnalytics:
		tk := a.tracker.Begin(slotAnalytics, fetch.Key(a.analytics.period))
		a.analytics.loading = true
		return loadAnalyticsCmd(a.client, tk, a.analytics.period)
	case tabGame:
		tk := a.tracker.Begin(slotGame, "")
		a.game.loading = true
		return loadGameCmd(a.client, tk)
	}
	return nil
}

// fetchFailed logs a failed read and returns the inline message.
func (a *App) fetchFailed(view string, err error) string {
	a.log.Warn("fetch failed", "view", view, "err", err)
	return describeErr(err)
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashErr = isErr
	a.flashAt = a.now()
}

func (a *App) markRefreshed() {
	a.lastRefresh = a.now()
}

func (a App) loadLastTab() int {
	if a.db == nil {
		return tabDashboard
	}
	name, err := a.db.Setting(context.Background(), a.client.BaseURL(), settingLastTab, "")
	if err != nil {
		a.log.Debug("reading last tab", "err", err)
		return tabDashboard
	}
	for i, t := range components.Tabs {
		if t.Name == name {
			return i
		}
	}
	return tabDashboard
}

func (a App) saveLastTab() {
	if a.db == nil {
		return
	}
	name := components.Tabs[a.activeTab].Name
	if err := a.db.SetSetting(context.Background(), a.client.BaseURL(), settingLastTab, name); err != nil {
		a.log.Debug("saving last tab", "err", err)
	}
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) currency() string {
	return a.user.CurrencyCode()
}

// View implements tea.Model. A panic while rendering is contained here and
// replaced by a fallback card so one bad view cannot take the program down.
func (a App) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("render panic", "panic", r, "stack", string(debug.Stack()))
			out = a.viewCrashed(fmt.Sprint(r))
		}
	}()

	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setup != nil {
		return a.setup.form.View()
	}

	switch session.Decide(a.state) {
	case session.RoutePlaceholder:
		return a.viewLoading()
	case session.RouteLogin:
		return a.viewAuth()
	}

	if a.showHelp {
		return a.viewHelp()
	}
	if a.modal != nil {
		return a.viewModal()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  tally needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewCrashed(reason string) string {
	t := theme.Active
	body := lipgloss.NewStyle().Foreground(t.Red).Bold(true).Render("Something went wrong.") + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(truncStr(reason, 60)) + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextDim).Render("Press a tab key to switch views, or q to quit.")
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Padding(1, 3).
		Render(body)
	if a.width == 0 || a.height == 0 {
		return card
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ tally"))
	b.WriteString(subtitleStyle.Render(" · Personal Finance"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Restoring session..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"d t r u a g p", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in lists"},
		}},
		{"Dashboard", [][2]string{
			{"[ ]", "Previous / Next month"},
			{"n", "Add expense"},
			{"e", "Export CSV"},
			{"i", "AI advice"},
		}},
		{"Lists", [][2]string{
			{"/", "Filter / Search"},
			{"x", "Delete selected"},
			{"v", "Cycle period (Analytics)"},
		}},
		{"General", [][2]string{
			{"^r", "Refresh"},
			{"R", "Toggle auto-refresh"},
			{"L", "Log out"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-14s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar, then title and context line
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	name := a.user.FullName
	if name == "" {
		name = a.user.Username
	}
	info := mutedStyle.Render(" ") + titleStyle.Render("◈ tally") +
		mutedStyle.Render(" │ "+finance.Greeting(a.now())+", ") + accentStyle.Render(name)
	if a.activeTab == tabDashboard {
		info += mutedStyle.Render(" │ ") + accentStyle.Render(a.dash.month.String())
	}
	if a.activeTab == tabAnalytics {
		info += mutedStyle.Render(" │ period: ") + accentStyle.Render(a.analytics.period)
	}

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(info)

	// 2. Status bar
	updated := ""
	if !a.lastRefresh.IsZero() {
		updated = "updated " + humanize.RelTime(a.lastRefresh, a.now(), "ago", "from now")
	}
	statusBar := components.RenderStatusBar(w, components.Status{
		User:        a.user.Username,
		Currency:    a.currency(),
		Updated:     updated,
		Message:     a.flash,
		MessageErr:  a.flashErr,
		Refreshing:  a.activeLoading(),
		AutoRefresh: a.autoRefresh,
	})

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabDashboard:
		content = a.renderDashboardTab(cw)
	case tabTransactions:
		content = a.renderTransactionsTab(cw, contentH)
	case tabReceipts:
		content = a.renderReceiptsTab(cw, contentH)
	case tabUpload:
		content = a.renderUploadTab(cw)
	case tabAnalytics:
		content = a.renderAnalyticsTab(cw)
	case tabGame:
		content = a.renderGameTab(cw)
	case tabProfile:
		content = a.renderProfileTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) activeLoading() bool {
	switch a.activeTab {
	case tabDashboard:
		return a.dash.loading
	case tabTransactions:
		return a.txs.loading
	case tabReceipts:
		return a.gallery.loading
	case tabAnalytics:
		return a.analytics.loading
	case tabGame:
		return a.game.loading
	}
	return false
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func formWidth(w int) int {
	switch {
	case w <= 0:
		return 60
	case w > 70:
		return 60
	}
	return w - 10
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
