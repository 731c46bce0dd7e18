package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/spf13/cobra"
)

var flagPeriod string

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Category shares and daily spending trend",
	RunE:  withSession(runAnalytics),
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Predicted spending for next month",
	RunE:  withSession(runForecast),
}

var adviceCmd = &cobra.Command{
	Use:   "advice",
	Short: "Spending advice for a month",
	RunE:  withSession(runAdvice),
}

func init() {
	analyticsCmd.Flags().StringVarP(&flagPeriod, "period", "p", api.PeriodAll,
		"Aggregation window: "+strings.Join([]string{api.PeriodAll, api.PeriodYear, api.PeriodMonth}, ", "))
	adviceCmd.Flags().IntVar(&flagYear, "year", 0, "Year (default current)")
	adviceCmd.Flags().IntVar(&flagMonth, "month", 0, "Month 1-12 (default current)")
	rootCmd.AddCommand(analyticsCmd, forecastCmd, adviceCmd)
}

func runAnalytics(ctx context.Context, a *app, u model.User, _ []string) error {
	var (
		summary []model.CategoryTotal
		txs     []model.Transaction
	)
	progress("Loading analytics...")
	err := fetch.All(ctx,
		func(ctx context.Context) (err error) {
			summary, err = a.client.Summary(ctx, api.SummaryQuery{Period: flagPeriod})
			return err
		},
		func(ctx context.Context) (err error) {
			txs, err = a.client.Expenses(ctx, api.Period{})
			return err
		},
	)
	if err != nil {
		return fmt.Errorf("loading analytics: %w", err)
	}

	cur := u.CurrencyCode()
	fmt.Println()
	fmt.Println(cli.RenderTitle("ANALYTICS  |  " + strings.ToUpper(flagPeriod)))
	fmt.Println()

	slices, total := finance.Shares(summary)
	if len(slices) == 0 {
		fmt.Println("  No spending recorded for this period.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(slices)+2)
	for _, s := range slices {
		rows = append(rows, []string{
			s.Name,
			finance.FormatAmount(cur, s.Total),
			cli.RenderProgressBar(s.Share*100, 20),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", finance.FormatAmount(cur, total), ""})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Spending by Category",
		Headers: []string{"Category", "Total", "Share"},
		Rows:    rows,
	}))

	trend := finance.DailyTrend(txs, time.Local)
	if len(trend) > 0 {
		values := make([]float64, len(trend))
		for i, p := range trend {
			values[i] = p.Amount.InexactFloat64()
		}
		peak := trend[0]
		for _, p := range trend[1:] {
			if p.Amount.GreaterThan(peak.Amount) {
				peak = p
			}
		}
		fmt.Printf("  Daily trend  %s to %s\n", trend[0].Label, trend[len(trend)-1].Label)
		fmt.Printf("  %s\n", cli.RenderSparkline(values))
		fmt.Printf("  Peak %s on %s\n\n", finance.FormatAmount(cur, peak.Amount), peak.Label)
	}
	return nil
}

func runForecast(ctx context.Context, a *app, u model.User, _ []string) error {
	f, err := a.client.Forecast(ctx)
	if err != nil {
		return fmt.Errorf("loading forecast: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FORECAST"))
	fmt.Println()
	if !f.PredictedAmount.IsPositive() {
		fmt.Println("  " + finance.MsgForecastGathering)
	} else {
		fmt.Println(cli.RenderKV("Next month", cli.RenderMoney(finance.FormatMoney(u.CurrencyCode(), f.PredictedAmount)), 12))
	}
	if f.Advice != "" {
		fmt.Println()
		fmt.Println(cli.Indent(f.Advice, "  "))
	}
	fmt.Println()
	return nil
}

func runAdvice(ctx context.Context, a *app, u model.User, _ []string) error {
	m, err := monthArg(time.Now())
	if err != nil {
		return err
	}

	progress("Asking for advice on %s...", m)
	adv, err := a.client.Advice(ctx, api.Period{Year: m.Year, Month: int(m.Month)})
	if err != nil {
		a.log.Warn("loading advice", "month", m.String(), "err", err)
		return fmt.Errorf("%s: %w", finance.MsgAdviceFailed, err)
	}

	cur := u.CurrencyCode()
	fmt.Println()
	fmt.Println(cli.RenderTitle("ADVICE  |  " + m.String()))
	fmt.Println()
	fmt.Println(cli.RenderKV("Spent (30d)", finance.FormatMoney(cur, adv.TotalSpent30Days), 14))
	fmt.Println(cli.RenderKV("Transactions", cli.FormatNumber(int64(adv.TransactionCount)), 14))

	if len(adv.CategoryBreakdown) > 0 {
		names := make([]string, 0, len(adv.CategoryBreakdown))
		for name := range adv.CategoryBreakdown {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return adv.CategoryBreakdown[names[i]].GreaterThan(adv.CategoryBreakdown[names[j]])
		})
		fmt.Println()
		for _, name := range names {
			fmt.Println(cli.RenderKV(name, finance.FormatAmount(cur, adv.CategoryBreakdown[name]), 14))
		}
	}

	fmt.Println()
	fmt.Println(cli.Indent(strings.TrimSpace(adv.RawAdvice), "  "))
	if adv.Mock {
		fmt.Println()
		fmt.Println(cli.RenderWarning("Sample advice; the server has no AI provider configured."))
	}
	fmt.Println()
	return nil
}
