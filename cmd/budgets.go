package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/spf13/cobra"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Per-category budget status for this month",
	RunE:  withSession(runBudgets),
}

func init() {
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgets(ctx context.Context, a *app, u model.User, _ []string) error {
	budgets, err := a.client.BudgetStatus(ctx)
	if err != nil {
		return fmt.Errorf("loading budgets: %w", err)
	}
	if len(budgets) == 0 {
		fmt.Println("\n  No category budgets set.")
		return nil
	}

	cur := u.CurrencyCode()
	rows := make([][]string, 0, len(budgets))
	alerts := 0
	for _, b := range budgets {
		pct := finance.Utilization(b.Spent, b.Limit)
		status := "ok"
		if b.Alert {
			status = "alert"
			alerts++
		}
		rows = append(rows, []string{
			b.Category,
			finance.FormatAmount(cur, b.Spent),
			finance.FormatAmount(cur, b.Limit),
			finance.FormatAmount(cur, b.Remaining),
			cli.RenderProgressBar(pct, 16),
			status,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Category Budgets",
		Headers: []string{"Category", "Spent", "Limit", "Remaining", "Used", "Status"},
		Rows:    rows,
	}))
	if alerts > 0 {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%d %s over the alert threshold", alerts, plural(alerts, "category", "categories"))))
		fmt.Println()
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
