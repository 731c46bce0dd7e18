package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagYear     int
	flagMonth    int
	flagFilter   string
	flagLimit    int
	flagCategory string
	flagDate     string
	flagYes      bool
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"tx", "transactions"},
	Short:   "List expenses and receipts",
	RunE:    withSession(runExpensesList),
}

var expensesAddCmd = &cobra.Command{
	Use:   "add <description> <amount>",
	Short: "Record a manual expense",
	Args:  cobra.ExactArgs(2),
	RunE:  withSession(runExpensesAdd),
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an expense, or a receipt with all its items",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runExpensesDelete),
}

func init() {
	expensesCmd.Flags().IntVar(&flagYear, "year", 0, "Only this year")
	expensesCmd.Flags().IntVar(&flagMonth, "month", 0, "Only this month (1-12, needs --year)")
	expensesCmd.Flags().StringVarP(&flagFilter, "filter", "f", "", "Case-insensitive match on description or category")
	expensesCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Show at most n rows")

	expensesAddCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "Category (auto-detected when empty)")
	expensesAddCmd.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD (default today)")

	expensesDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation")

	expensesCmd.AddCommand(expensesAddCmd, expensesDeleteCmd)
	rootCmd.AddCommand(expensesCmd)
}

func runExpensesList(ctx context.Context, a *app, u model.User, _ []string) error {
	if flagMonth != 0 && flagYear == 0 {
		return errors.New("--month needs --year")
	}
	txs, err := a.client.Expenses(ctx, api.Period{Year: flagYear, Month: flagMonth})
	if err != nil {
		return fmt.Errorf("loading expenses: %w", err)
	}
	txs = finance.Filter(txs, flagFilter)

	if len(txs) == 0 {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	total := finance.Sum(txs, func(tx model.Transaction) decimal.Decimal { return tx.Amount })
	shown := txs
	if flagLimit > 0 && len(shown) > flagLimit {
		shown = shown[:flagLimit]
	}

	cur := u.CurrencyCode()
	rows := make([][]string, 0, len(shown)+2)
	for _, tx := range shown {
		rows = append(rows, []string{
			cli.FormatDate(tx.Date.Time),
			cli.Truncate(tx.Description, 40),
			tx.Category,
			tx.Type,
			finance.FormatAmount(cur, tx.Amount),
			tx.ID,
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"", fmt.Sprintf("%d transactions", len(txs)), "", "", finance.FormatAmount(cur, total), ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Transactions",
		Headers: []string{"Date", "Description", "Category", "Type", "Amount", "ID"},
		Rows:    rows,
	}))
	return nil
}

func runExpensesAdd(ctx context.Context, a *app, u model.User, args []string) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(args[1]))
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}

	var date time.Time
	if flagDate != "" {
		date, err = time.ParseInLocation("2006-01-02", flagDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", flagDate)
		}
	}

	id, err := a.client.AddExpense(ctx, api.ExpenseInput{
		Description: strings.TrimSpace(args[0]),
		Amount:      amount,
		Category:    flagCategory,
		Date:        date,
	})
	if err != nil {
		a.log.Warn("adding expense", "err", err)
		return fmt.Errorf("%s: %w", finance.MsgAddExpenseFailed, err)
	}

	fmt.Printf("  Added %s for %s (id %s)\n", args[0], finance.FormatAmount(u.CurrencyCode(), amount), id)
	return nil
}

func runExpensesDelete(ctx context.Context, a *app, _ model.User, args []string) error {
	id := args[0]

	txs, err := a.client.Expenses(ctx, api.Period{})
	if err != nil {
		return fmt.Errorf("loading expenses: %w", err)
	}
	tx := model.Transaction{ID: id, Type: model.TypeExpense}
	for _, t := range txs {
		if t.ID == id {
			tx = t
			break
		}
	}

	if !flagYes {
		ok, err := confirm(finance.DeletePrompt(tx))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("  Canceled")
			return nil
		}
	}

	if err := a.client.DeleteTransaction(ctx, tx); err != nil {
		a.log.Warn("deleting transaction", "id", id, "err", err)
		return errors.New(finance.MsgDeleteFailed)
	}
	fmt.Printf("  Deleted %s\n", id)
	return nil
}

// confirm asks a yes/no question on the terminal.
func confirm(prompt string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
