package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/session"
)

const loadTimeout = 30 * time.Second

// Fetch slots, one per view.
const (
	slotDashboard    = "dashboard"
	slotTransactions = "transactions"
	slotReceipts     = "receipts"
	slotAnalytics    = "analytics"
	slotGame         = "game"
	slotAdvice       = "advice"
)

type sessionMsg struct{ state session.State }

type resolvedMsg struct {
	state session.State
	err   error
}

type dashboardData struct {
	game     model.GameProgress
	budgets  []model.Budget
	recent   []model.Transaction
	forecast model.Forecast
	summary  []model.CategoryTotal
}

type dashboardLoadedMsg struct {
	ticket fetch.Ticket
	data   dashboardData
	err    error
}

type transactionsLoadedMsg struct {
	ticket fetch.Ticket
	txs    []model.Transaction
	err    error
}

type receiptsLoadedMsg struct {
	ticket   fetch.Ticket
	receipts []model.Receipt
	err      error
}

type analyticsData struct {
	summary  []model.CategoryTotal
	forecast model.Forecast
	txs      []model.Transaction
}

type analyticsLoadedMsg struct {
	ticket fetch.Ticket
	data   analyticsData
	err    error
}

type gameLoadedMsg struct {
	ticket   fetch.Ticket
	progress model.GameProgress
	err      error
}

type adviceLoadedMsg struct {
	ticket fetch.Ticket
	advice model.Advice
	err    error
}

type transactionDeletedMsg struct {
	id  string
	err error
}

type receiptDeletedMsg struct {
	id  string
	err error
}

type expenseAddedMsg struct{ err error }

type uploadDoneMsg struct {
	result *model.UploadResult
	err    error
}

type profileSavedMsg struct {
	patch model.ProfilePatch
	err   error
}

type exportDoneMsg struct {
	path  string
	bytes int64
	err   error
}

type authDoneMsg struct {
	mode authMode
	err  error
}

// waitForSession blocks until the session store reports a transition.
func waitForSession(ch <-chan session.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return sessionMsg{state: st}
	}
}

func resolveCmd(s *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		st, err := s.Resolve(ctx)
		return resolvedMsg{state: st, err: err}
	}
}

func loadDashboardCmd(c *api.Client, tk fetch.Ticket, m finance.Month) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var d dashboardData
		p := api.Period{Year: m.Year, Month: int(m.Month)}
		err := fetch.All(ctx,
			func(ctx context.Context) error {
				g, err := c.GameProgress(ctx)
				if err == nil {
					d.game = *g
				}
				return err
			},
			func(ctx context.Context) (err error) {
				d.budgets, err = c.BudgetStatus(ctx)
				return err
			},
			func(ctx context.Context) (err error) {
				d.recent, err = c.RecentTransactions(ctx, p)
				return err
			},
			func(ctx context.Context) error {
				f, err := c.Forecast(ctx)
				if err == nil {
					d.forecast = *f
				}
				return err
			},
			func(ctx context.Context) (err error) {
				d.summary, err = c.Summary(ctx, api.SummaryQuery{Period: api.PeriodMonth, Year: p.Year, Month: p.Month})
				return err
			},
		)
		return dashboardLoadedMsg{ticket: tk, data: d, err: err}
	}
}

func loadTransactionsCmd(c *api.Client, tk fetch.Ticket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		txs, err := c.Expenses(ctx, api.Period{})
		return transactionsLoadedMsg{ticket: tk, txs: txs, err: err}
	}
}

func loadReceiptsCmd(c *api.Client, tk fetch.Ticket, search string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		rs, err := c.Receipts(ctx, api.DefaultGalleryLimit, search)
		return receiptsLoadedMsg{ticket: tk, receipts: rs, err: err}
	}
}

func loadAnalyticsCmd(c *api.Client, tk fetch.Ticket, period string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var d analyticsData
		err := fetch.All(ctx,
			func(ctx context.Context) (err error) {
				d.summary, err = c.Summary(ctx, api.SummaryQuery{Period: period})
				return err
			},
			func(ctx context.Context) error {
				f, err := c.Forecast(ctx)
				if err == nil {
					d.forecast = *f
				}
				return err
			},
			func(ctx context.Context) (err error) {
				d.txs, err = c.Expenses(ctx, api.Period{})
				return err
			},
		)
		return analyticsLoadedMsg{ticket: tk, data: d, err: err}
	}
}

func loadGameCmd(c *api.Client, tk fetch.Ticket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		g, err := c.GameProgress(ctx)
		if err != nil {
			return gameLoadedMsg{ticket: tk, err: err}
		}
		return gameLoadedMsg{ticket: tk, progress: *g}
	}
}

func loadAdviceCmd(c *api.Client, tk fetch.Ticket, m finance.Month) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		adv, err := c.Advice(ctx, api.Period{Year: m.Year, Month: int(m.Month)})
		if err != nil {
			return adviceLoadedMsg{ticket: tk, err: err}
		}
		return adviceLoadedMsg{ticket: tk, advice: *adv}
	}
}

func deleteTransactionCmd(c *api.Client, tx model.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return transactionDeletedMsg{id: tx.ID, err: c.DeleteTransaction(ctx, tx)}
	}
}

func deleteReceiptCmd(c *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return receiptDeletedMsg{id: id, err: c.DeleteReceipt(ctx, id)}
	}
}

func addExpenseCmd(c *api.Client, in api.ExpenseInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		_, err := c.AddExpense(ctx, in)
		return expenseAddedMsg{err: err}
	}
}

func uploadCmd(c *api.Client, in api.UploadRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*loadTimeout)
		defer cancel()
		res, err := c.UploadReceipt(ctx, in)
		return uploadDoneMsg{result: res, err: err}
	}
}

func saveProfileCmd(c *api.Client, in api.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		budget := in.MonthlyBudget
		patch := model.ProfilePatch{FullName: &in.FullName, MonthlyBudget: &budget, Currency: &in.Currency}
		return profileSavedMsg{patch: patch, err: c.UpdateMe(ctx, in)}
	}
}

// exportCmd downloads the CSV report into dir. A partial file is removed on
// failure.
func exportCmd(c *api.Client, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*loadTimeout)
		defer cancel()

		path := filepath.Join(dir, api.ExportFilename)
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{err: fmt.Errorf("creating %s: %w", path, err)}
		}
		n, err := c.Export(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path, bytes: n}
	}
}

func loginCmd(s *session.Store, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		_, err := s.Login(ctx, username, password)
		return authDoneMsg{mode: authLogin, err: err}
	}
}

func registerCmd(s *session.Store, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return authDoneMsg{mode: authRegister, err: s.Register(ctx, username, email, password)}
	}
}

// describeErr turns a fetch error into inline text.
func describeErr(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrNoToken):
		return "Session expired. Please log in again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond."
	}
	if d := api.Detail(err); d != "" {
		return d
	}
	return err.Error()
}
