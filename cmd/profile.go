package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagFullName string
	flagBudget   string
	flagCurrency string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	RunE:  withSession(runProfileShow),
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update name, monthly budget or currency",
	RunE:  withSession(runProfileSet),
}

func init() {
	profileSetCmd.Flags().StringVar(&flagFullName, "name", "", "Full name")
	profileSetCmd.Flags().StringVar(&flagBudget, "budget", "", "Monthly budget (0 clears it)")
	profileSetCmd.Flags().StringVar(&flagCurrency, "currency", "", "Currency: "+strings.Join(api.Currencies, ", "))

	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(_ context.Context, a *app, u model.User, _ []string) error {
	cur := u.CurrencyCode()
	budget := finance.MsgNoBudget
	if u.MonthlyBudget.IsPositive() {
		budget = finance.FormatMoney(cur, u.MonthlyBudget)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROFILE"))
	fmt.Println()
	fmt.Println(cli.RenderKV("Username", u.Username, 10))
	fmt.Println(cli.RenderKV("Email", u.Email, 10))
	fmt.Println(cli.RenderKV("Name", orDash(u.FullName), 10))
	fmt.Println(cli.RenderKV("Budget", budget, 10))
	fmt.Println(cli.RenderKV("Currency", cur, 10))
	fmt.Println(cli.RenderKV("Points", cli.FormatNumber(int64(u.Points)), 10))
	fmt.Println(cli.RenderKV("Streak", fmt.Sprintf("%d %s", u.StreakCount, plural(u.StreakCount, "day", "days")), 10))
	fmt.Println(cli.RenderKV("Server", a.client.BaseURL(), 10))
	fmt.Println()
	return nil
}

func runProfileSet(ctx context.Context, a *app, u model.User, _ []string) error {
	if flagFullName == "" && flagBudget == "" && flagCurrency == "" {
		return errors.New("nothing to update; pass --name, --budget or --currency")
	}

	in := api.ProfileUpdate{
		FullName:      u.FullName,
		MonthlyBudget: u.MonthlyBudget,
		Currency:      u.CurrencyCode(),
	}
	if flagFullName != "" {
		in.FullName = strings.TrimSpace(flagFullName)
	}
	if flagBudget != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(flagBudget))
		if err != nil {
			return fmt.Errorf("invalid --budget %q", flagBudget)
		}
		in.MonthlyBudget = d
	}
	if flagCurrency != "" {
		in.Currency = strings.ToUpper(strings.TrimSpace(flagCurrency))
	}

	if err := a.client.UpdateMe(ctx, in); err != nil {
		a.log.Warn("updating profile", "err", err)
		if errors.Is(err, api.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%s: %w", finance.MsgProfileSaveFailed, err)
	}

	budget := in.MonthlyBudget
	a.sess.UpdateUser(model.ProfilePatch{FullName: &in.FullName, MonthlyBudget: &budget, Currency: &in.Currency})
	fmt.Println("  " + finance.MsgProfileSaved)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
