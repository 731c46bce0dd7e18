package tui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/apitest"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/session"
	"github.com/theirongolddev/tally/internal/store"
	"github.com/theirongolddev/tally/internal/tui/components"
)

type harness struct {
	app    App
	srv    *apitest.Server
	client *api.Client
	sess   *session.Store
	db     *store.DB
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)

	srv := apitest.New(t)
	srv.AddUser(t, "ana", "s3cret!", model.User{FullName: "Ana", MonthlyBudget: decimal.NewFromInt(1000)})

	db, err := store.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	client := api.NewClient(srv.BaseURL())
	sess := session.New(client, db)
	if _, err := sess.Login(context.Background(), "ana", "s3cret!"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	h := &harness{srv: srv, client: client, sess: sess, db: db}
	h.app = h.newApp(now)
	return h
}

func (h *harness) newApp(now time.Time) App {
	a := NewApp(Deps{
		Client:  h.client,
		Session: h.sess,
		Store:   h.db,
		Config:  config.DefaultConfig(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return now },
	})
	a.width, a.height = 140, 50
	return a
}

// run executes cmd synchronously and feeds its message back into the app.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ := h.app.Update(cmd())
	h.app = m.(App)
}

func key(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := len(tab.Name) + 2
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Fatalf("tabAtX past the bar = %d, want -1", got)
		}
	}
}

func TestUploadNeedsFileAndCategory(t *testing.T) {
	a := App{upload: newUploadState()}

	if _, cmd := a.submitUpload(); cmd != nil {
		t.Fatal("upload sent with nothing chosen")
	}

	a.upload.path.SetValue("receipt.jpg")
	if _, cmd := a.submitUpload(); cmd != nil {
		t.Fatal("upload sent without a category")
	}

	a.upload.path.SetValue("")
	a.upload.category = "Food"
	if _, cmd := a.submitUpload(); cmd != nil {
		t.Fatal("upload sent without a file")
	}

	a.upload.path.SetValue("receipt.jpg")
	m, cmd := a.submitUpload()
	if cmd == nil {
		t.Fatal("upload not sent with file and category")
	}
	if !m.(App).upload.busy {
		t.Fatal("upload not marked busy")
	}
}

func TestUploadKeyWithoutCategorySendsNothing(t *testing.T) {
	h := newHarness(t, time.Now())
	h.app.activeTab = tabUpload
	h.app.upload.path.SetValue(filepath.Join(t.TempDir(), "r.jpg"))

	m, cmd := h.app.Update(key("s"))
	h.app = m.(App)
	if cmd != nil {
		cmd()
	}
	if n := h.srv.Hits("/api/receipts/upload"); n != 0 {
		t.Fatalf("upload endpoint hit %d times", n)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	a := App{tracker: &fetch.Tracker{}, log: slog.New(slog.NewTextHandler(io.Discard, nil)), now: time.Now}

	first := a.tracker.Begin(slotTransactions, "")
	second := a.tracker.Begin(slotTransactions, "")

	m, _ := a.handleTransactionsLoaded(transactionsLoadedMsg{
		ticket: first,
		txs:    []model.Transaction{{ID: "old"}},
	})
	a = m.(App)
	if a.txs.loaded {
		t.Fatal("stale response was applied")
	}

	m, _ = a.handleTransactionsLoaded(transactionsLoadedMsg{
		ticket: second,
		txs:    []model.Transaction{{ID: "new"}},
	})
	a = m.(App)
	if !a.txs.loaded || len(a.txs.all) != 1 || a.txs.all[0].ID != "new" {
		t.Fatalf("current response not applied: %+v", a.txs)
	}
}

func TestDeleteRemovesExactlyOneRow(t *testing.T) {
	a := App{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: time.Now,
		txs: transactionsState{
			filter: textinput.New(),
			all: []model.Transaction{
				{ID: "a", Description: "Lunch"},
				{ID: "b", Description: "Lunch"},
				{ID: "c", Description: "Lunch"},
			},
			cursor: 2,
		},
	}

	m, _ := a.handleTransactionDeleted(transactionDeletedMsg{id: "b"})
	a = m.(App)
	if len(a.txs.all) != 2 || a.txs.all[0].ID != "a" || a.txs.all[1].ID != "c" {
		t.Fatalf("rows after delete = %+v", a.txs.all)
	}
	if a.txs.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", a.txs.cursor)
	}

	m, _ = a.handleTransactionDeleted(transactionDeletedMsg{id: "a", err: &api.APIError{Status: http.StatusNotFound}})
	a = m.(App)
	if len(a.txs.all) != 2 {
		t.Fatal("rows removed after a failed delete")
	}
	if a.flash != finance.MsgDeleteFailed || !a.flashErr {
		t.Fatalf("flash = %q, want %q", a.flash, finance.MsgDeleteFailed)
	}
}

func TestDeleteThroughConfirmation(t *testing.T) {
	h := newHarness(t, time.Now())
	id := h.srv.AddExpense("ana", "Coffee", "Food", 4.5, time.Now())
	h.srv.AddExpense("ana", "Coffee", "Food", 4.5, time.Now())

	h.app.activeTab = tabTransactions
	h.run(t, h.app.loadTabCmd(tabTransactions))
	if len(h.app.txs.all) != 2 {
		t.Fatalf("loaded %d transactions, want 2", len(h.app.txs.all))
	}
	h.app.txs.cursor = indexOf(h.app.txs.all, id)

	m, _ := h.app.Update(key("x"))
	h.app = m.(App)
	if h.app.modal == nil || h.app.modal.kind != modalDeleteTransaction {
		t.Fatal("delete did not ask for confirmation")
	}
	if n := len(h.srv.Expenses("ana")); n != 2 {
		t.Fatalf("expense deleted before confirmation (%d left)", n)
	}

	*h.app.modal.confirmed = true
	m, cmd := h.app.submitModal(h.app.modal)
	h.app = m.(App)
	h.run(t, cmd)

	left := h.srv.Expenses("ana")
	if len(left) != 1 || left[0].ID == id {
		t.Fatalf("server expenses after delete = %+v", left)
	}
	if len(h.app.txs.all) != 1 || h.app.txs.all[0].ID == id {
		t.Fatalf("local rows after delete = %+v", h.app.txs.all)
	}
}

func TestUnauthorizedFetchRoutesToLogin(t *testing.T) {
	h := newHarness(t, time.Now())
	h.srv.Fail("/api/game/progress", http.StatusUnauthorized)
	h.app.activeTab = tabGame

	cmd := h.app.loadTabCmd(tabGame)
	msg := cmd()

	if st := h.sess.State(); st != session.Absent {
		t.Fatalf("session state = %v, want absent", st)
	}

	m, _ := h.app.Update(sessionMsg{state: session.Absent})
	h.app = m.(App)
	if session.Decide(h.app.state) != session.RouteLogin {
		t.Fatalf("route = %v, want login", session.Decide(h.app.state))
	}
	if h.app.auth == nil {
		t.Fatal("login form not shown")
	}

	// The failed fetch lands after the logout and must not repopulate the view.
	m, _ = h.app.Update(msg)
	h.app = m.(App)
	if h.app.game.err != "" || h.app.game.loaded {
		t.Fatalf("game state after logout = %+v", h.app.game)
	}
	if !strings.Contains(h.app.View(), "Sign In") {
		t.Fatal("view does not show the sign-in form")
	}
	if !h.app.flashErr || !strings.Contains(h.app.flash, "Session expired") {
		t.Fatalf("flash = %q, want session expired", h.app.flash)
	}
}

func TestManualLogoutIsNotReportedAsExpiry(t *testing.T) {
	h := newHarness(t, time.Now())

	m, _ := h.app.Update(key("L"))
	h.app = m.(App)
	if st := h.sess.State(); st != session.Absent {
		t.Fatalf("session state = %v, want absent", st)
	}

	// The notice may already be gone by the time the update arrives.
	h.app.flash = ""
	m, _ = h.app.Update(sessionMsg{state: session.Absent})
	h.app = m.(App)
	if strings.Contains(h.app.flash, "Session expired") {
		t.Fatalf("manual logout reported as %q", h.app.flash)
	}
	if h.app.manualLogout {
		t.Fatal("manual logout flag not cleared after routing to login")
	}
}

func TestQuitDropsSessionSubscription(t *testing.T) {
	h := newHarness(t, time.Now())
	updates := h.app.updates

	m, cmd := h.app.Update(key("q"))
	h.app = m.(App)
	if cmd == nil {
		t.Fatal("q did not quit")
	}

	h.sess.Logout()
	select {
	case st := <-updates:
		t.Fatalf("received %v after quitting", st)
	default:
	}
}

func TestRenderPanicShowsFallback(t *testing.T) {
	h := newHarness(t, time.Now())
	// A delete modal without its form cannot render.
	h.app.modal = &modal{kind: modalDeleteTransaction}

	var view string
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("View panicked: %v", r)
			}
		}()
		view = h.app.View()
	}()
	if !strings.Contains(view, "Something went wrong.") {
		t.Fatalf("fallback card not shown:\n%s", view)
	}
}

func TestDashboardLoad(t *testing.T) {
	now := time.Now()
	h := newHarness(t, now)
	h.srv.AddExpense("ana", "Rent share", "Housing", 750, now)

	h.run(t, h.app.loadTabCmd(tabDashboard))
	if !h.app.dash.loaded {
		t.Fatalf("dashboard not loaded: %q", h.app.dash.err)
	}

	view := h.app.View()
	for _, want := range []string{"75% Utilized", "$250 Remaining", "Rent share"} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}
}

func TestMonthNavigationIsClamped(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local)
	h := newHarness(t, now)

	m, cmd := h.app.Update(key("]"))
	h.app = m.(App)
	if cmd != nil || h.app.dash.month != (finance.Month{Year: 2024, Month: time.March}) {
		t.Fatalf("moved past the current month to %v", h.app.dash.month)
	}

	m, cmd = h.app.Update(key("["))
	h.app = m.(App)
	if cmd == nil || h.app.dash.month != (finance.Month{Year: 2024, Month: time.February}) {
		t.Fatalf("month = %v, want February 2024 with a fetch", h.app.dash.month)
	}

	h.app.dash.month = finance.Month{Year: 2020, Month: time.January}
	m, cmd = h.app.Update(key("["))
	h.app = m.(App)
	if cmd != nil || h.app.dash.month != (finance.Month{Year: 2020, Month: time.January}) {
		t.Fatalf("moved before the earliest selectable month to %v", h.app.dash.month)
	}
}

func TestLastTabRemembered(t *testing.T) {
	now := time.Now()
	h := newHarness(t, now)

	m, _ := h.app.Update(key("g"))
	h.app = m.(App)
	if h.app.activeTab != tabGame {
		t.Fatalf("activeTab = %d, want game", h.app.activeTab)
	}

	if again := h.newApp(now); again.activeTab != tabGame {
		t.Fatalf("restored tab = %d, want game", again.activeTab)
	}
}

func TestPendingSessionShowsPlaceholder(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	srv := apitest.New(t)
	client := api.NewClient(srv.BaseURL())
	a := NewApp(Deps{
		Client:  client,
		Session: session.New(client, nil),
		Config:  config.DefaultConfig(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	a.width, a.height = 100, 30
	if !strings.Contains(a.View(), "Restoring session") {
		t.Fatal("pending session does not show the placeholder")
	}
}

func TestNarrowTerminal(t *testing.T) {
	a := App{width: 60, height: 20}
	if !strings.Contains(a.View(), "Terminal too narrow") {
		t.Fatal("narrow terminal message not shown")
	}
}

func indexOf(txs []model.Transaction, id string) int {
	for i, tx := range txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
