package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type modalKind int

const (
	modalDeleteTransaction modalKind = iota
	modalDeleteReceipt
	modalAddExpense
	modalAdvice
)

const dateLayout = "2006-01-02"

type expenseValues struct {
	description string
	amount      string
	category    string
	date        string
}

// modal is a blocking overlay. Forms are nil for the advice card.
type modal struct {
	kind modalKind
	form *huh.Form

	confirmed *bool
	expense   *expenseValues
	tx        model.Transaction
	receiptID string

	advice  *model.Advice
	loading bool
	err     string
}

func newDeleteTransactionModal(tx model.Transaction, width int) *modal {
	m := &modal{kind: modalDeleteTransaction, tx: tx, confirmed: new(bool)}
	m.form = confirmForm(finance.DeletePrompt(tx), m.confirmed, width)
	return m
}

func newDeleteReceiptModal(id string, width int) *modal {
	m := &modal{kind: modalDeleteReceipt, receiptID: id, confirmed: new(bool)}
	m.form = confirmForm(finance.MsgDeleteReceipt, m.confirmed, width)
	return m
}

func confirmForm(prompt string, v *bool, width int) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Delete").
			Negative("Cancel").
			Value(v),
	)).WithShowHelp(false).WithWidth(formWidth(width))
}

func newAddExpenseModal(now time.Time, width int) *modal {
	vals := &expenseValues{category: api.DefaultCategory, date: now.Format(dateLayout)}
	categories := append([]string{api.DefaultCategory}, model.ReceiptCategories...)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Description").
			Placeholder("Coffee with Sam").
			CharLimit(200).
			Value(&vals.description).
			Validate(huh.ValidateNotEmpty()),
		huh.NewInput().
			Title("Amount").
			Placeholder("12.50").
			Value(&vals.amount).
			Validate(func(s string) error {
				_, err := parseAmount(s)
				return err
			}),
		huh.NewSelect[string]().
			Title("Category").
			Options(huh.NewOptions(categories...)...).
			Value(&vals.category),
		huh.NewInput().
			Title("Date").
			Description("YYYY-MM-DD, blank for today").
			Value(&vals.date).
			Validate(func(s string) error {
				_, err := parseDate(s)
				return err
			}),
	)).WithShowHelp(false).WithWidth(formWidth(width))

	return &modal{kind: modalAddExpense, form: form, expense: vals}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.New("enter a number")
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("amount must be greater than zero")
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD")
	}
	return t, nil
}

func (v *expenseValues) input() (api.ExpenseInput, error) {
	amount, err := parseAmount(v.amount)
	if err != nil {
		return api.ExpenseInput{}, err
	}
	date, err := parseDate(v.date)
	if err != nil {
		return api.ExpenseInput{}, err
	}
	return api.ExpenseInput{
		Description: strings.TrimSpace(v.description),
		Amount:      amount,
		Category:    v.category,
		Date:        date,
	}, nil
}

// openAdvice shows the advice card and requests advice for the dashboard month.
func (a App) openAdvice() (tea.Model, tea.Cmd) {
	a.modal = &modal{kind: modalAdvice, loading: true}
	tk := a.tracker.Begin(slotAdvice, fetch.Key(a.dash.month.Year, int(a.dash.month.Month)))
	return a, loadAdviceCmd(a.client, tk, a.dash.month)
}

func (a App) handleAdviceLoaded(msg adviceLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.tracker.Done(msg.ticket) {
		return a, nil
	}
	if a.modal == nil || a.modal.kind != modalAdvice {
		return a, nil
	}
	a.modal.loading = false
	if msg.err != nil {
		a.log.Warn("fetch failed", "view", "advice", "err", msg.err)
		a.modal.err = finance.MsgAdviceFailed
		return a, nil
	}
	adv := msg.advice
	a.modal.advice = &adv
	return a, nil
}

func (a App) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := a.modal

	if km, ok := msg.(tea.KeyMsg); ok {
		if m.kind == modalAdvice {
			switch km.String() {
			case "esc", "enter", "q", "i":
				a.modal = nil
			}
			return a, nil
		}
		if km.String() == "esc" {
			a.modal = nil
			return a, nil
		}
	}
	if m.form == nil {
		return a, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		a.modal = nil
		return a, nil
	case huh.StateCompleted:
		a.modal = nil
		return a.submitModal(m)
	}
	return a, cmd
}

func (a App) submitModal(m *modal) (tea.Model, tea.Cmd) {
	switch m.kind {
	case modalDeleteTransaction:
		if !*m.confirmed {
			return a, nil
		}
		a.txs.deleting = m.tx.ID
		return a, deleteTransactionCmd(a.client, m.tx)

	case modalDeleteReceipt:
		if !*m.confirmed {
			return a, nil
		}
		a.gallery.deleting = m.receiptID
		return a, deleteReceiptCmd(a.client, m.receiptID)

	case modalAddExpense:
		in, err := m.expense.input()
		if err != nil {
			a.setFlash(finance.MsgAddExpenseFailed+": "+err.Error(), true)
			return a, nil
		}
		return a, addExpenseCmd(a.client, in)
	}
	return a, nil
}

func (a App) handleExpenseAdded(msg expenseAddedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.log.Warn("adding expense", "err", msg.err)
		a.setFlash(finance.MsgAddExpenseFailed, true)
		return a, nil
	}
	a.setFlash("Expense added", false)
	return a, a.loadTabCmd(a.activeTab)
}

func (a App) viewModal() string {
	t := theme.Active
	m := a.modal

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	switch m.kind {
	case modalDeleteTransaction, modalDeleteReceipt:
		cardStyle = cardStyle.BorderForeground(t.Red)
		b.WriteString(titleStyle.Foreground(t.Red).Render("Delete"))
		b.WriteString("\n\n")
		b.WriteString(m.form.View())
	case modalAddExpense:
		b.WriteString(titleStyle.Render("Add Expense"))
		b.WriteString("\n\n")
		b.WriteString(m.form.View())
	case modalAdvice:
		b.WriteString(titleStyle.Render("AI Financial Advice · " + a.dash.month.String()))
		b.WriteString("\n\n")
		b.WriteString(a.renderAdviceBody(m))
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("esc: close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) renderAdviceBody(m *modal) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Width(formWidth(a.width))
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)

	switch {
	case m.loading:
		return a.spinner.View() + mutedStyle.Render(" Analyzing your spending...")
	case m.err != "":
		return lipgloss.NewStyle().Foreground(t.Red).Render(m.err)
	case m.advice == nil:
		return ""
	}

	adv := m.advice
	cur := a.currency()
	var b strings.Builder
	b.WriteString(textStyle.Render(adv.RawAdvice))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		mutedStyle.Render("Spent (30 days):"), valueStyle.Render(finance.FormatMoney(cur, adv.TotalSpent30Days)),
		mutedStyle.Render("Transactions:"), valueStyle.Render(fmt.Sprintf("%d", adv.TransactionCount)))

	cats := make([]string, 0, len(adv.CategoryBreakdown))
	for c := range adv.CategoryBreakdown {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		return adv.CategoryBreakdown[cats[i]].GreaterThan(adv.CategoryBreakdown[cats[j]])
	})
	for _, c := range cats {
		fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-16s", truncStr(c, 16))),
			finance.FormatMoney(cur, adv.CategoryBreakdown[c]))
	}
	if adv.Mock {
		b.WriteString(mutedStyle.Render("\n(sample advice; the AI service is not configured)"))
	}
	return strings.TrimRight(b.String(), "\n")
}
