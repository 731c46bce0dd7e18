package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Monthly budget overview",
	RunE:  withSession(runSummary),
}

func init() {
	summaryCmd.Flags().IntVar(&flagYear, "year", 0, "Year (default current)")
	summaryCmd.Flags().IntVar(&flagMonth, "month", 0, "Month 1-12 (default current)")
	rootCmd.AddCommand(summaryCmd)
}

// monthArg resolves --year/--month to a month no later than the current one.
func monthArg(now time.Time) (finance.Month, error) {
	m := finance.MonthOf(now)
	if flagYear != 0 {
		m.Year = flagYear
	}
	if flagMonth != 0 {
		if flagMonth < 1 || flagMonth > 12 {
			return m, fmt.Errorf("invalid --month %d", flagMonth)
		}
		m.Month = time.Month(flagMonth)
	}
	return finance.ClampMonth(m, now), nil
}

func runSummary(ctx context.Context, a *app, u model.User, _ []string) error {
	now := time.Now()
	m, err := monthArg(now)
	if err != nil {
		return err
	}
	p := api.Period{Year: m.Year, Month: int(m.Month)}

	progress("Loading %s...", m)

	var (
		budgets []model.Budget
		summary []model.CategoryTotal
		recent  []model.Transaction
	)
	err = fetch.All(ctx,
		func(ctx context.Context) (err error) {
			budgets, err = a.client.BudgetStatus(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			summary, err = a.client.Summary(ctx, api.SummaryQuery{Period: api.PeriodMonth, Year: p.Year, Month: p.Month})
			return err
		},
		func(ctx context.Context) (err error) {
			recent, err = a.client.RecentTransactions(ctx, p)
			return err
		},
	)
	if err != nil {
		return fmt.Errorf("loading summary: %w", err)
	}

	cur := u.CurrencyCode()
	ov := finance.ComputeOverview(u, budgets, summary)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s, %s  |  %s", finance.Greeting(now), displayName(u), m)))
	fmt.Println()

	fmt.Println(cli.RenderKV("Spent", finance.FormatMoney(cur, ov.Spent), 12))
	if ov.HasBudget() {
		fmt.Println(cli.RenderKV("Budget", finance.FormatMoney(cur, ov.Budget), 12))
		if ov.Overspent() {
			fmt.Println(cli.RenderError(ov.RemainingLabel(cur)))
		} else {
			fmt.Println(cli.RenderKV("Remaining", ov.RemainingLabel(cur), 12))
		}
		fmt.Printf("  %s  %s\n", cli.RenderProgressBar(ov.Utilization, 30), ov.UtilizedLabel())
	} else {
		fmt.Println(cli.RenderWarning(finance.MsgNoBudget))
	}
	fmt.Println()

	if slices, total := finance.Shares(summary); len(slices) > 0 {
		maxVal := slices[0].Total.InexactFloat64()
		fmt.Printf("  Spending by category (%s)\n", finance.FormatMoney(cur, total))
		for _, s := range slices {
			fmt.Println(cli.RenderHorizontalBar(s.Name, s.Total.InexactFloat64(), maxVal, 14, 30,
				fmt.Sprintf("%s  %s", finance.FormatAmount(cur, s.Total), cli.FormatPercent(s.Share*100))))
		}
		fmt.Println()
	}

	if len(recent) > 0 {
		rows := make([][]string, 0, len(recent))
		for _, tx := range recent {
			rows = append(rows, []string{
				cli.FormatDate(tx.Date.Time),
				cli.Truncate(tx.Description, 36),
				tx.Category,
				finance.FormatAmount(cur, tx.Amount),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Recent",
			Headers: []string{"Date", "Description", "Category", "Amount"},
			Rows:    rows,
		}))
	}
	return nil
}

func displayName(u model.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
