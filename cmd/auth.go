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
	"github.com/theirongolddev/tally/internal/session"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagUsername string
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  withSession(runWhoami),
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&flagUsername, "username", "u", "", "Username (prompted when empty)")
		c.Flags().StringVar(&flagPassword, "password", "", "Password (prompted when empty)")
	}
	registerCmd.Flags().StringVar(&flagEmail, "email", "", "Email (prompted when empty)")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// promptMissing asks for any credential not given on the command line.
func promptMissing(withEmail bool) error {
	var fields []huh.Field
	if flagUsername == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&flagUsername).Validate(huh.ValidateNotEmpty()))
	}
	if withEmail && flagEmail == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&flagEmail).Validate(huh.ValidateNotEmpty()))
	}
	if flagPassword == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&flagPassword).Validate(huh.ValidateNotEmpty()))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("canceled")
		}
		return err
	}
	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := promptMissing(false); err != nil {
		return err
	}

	u, err := a.sess.Login(cmd.Context(), strings.TrimSpace(flagUsername), flagPassword)
	if err != nil {
		a.log.Info("login failed", "username", flagUsername, "err", err)
		if d := api.Detail(err); d != "" {
			return errors.New(d)
		}
		if errors.Is(err, api.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%s (%w)", finance.MsgLoginFailed, err)
	}

	fmt.Printf("  Signed in as %s on %s\n", displayName(u), a.client.BaseURL())
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := promptMissing(true); err != nil {
		return err
	}

	err = a.sess.Register(cmd.Context(), strings.TrimSpace(flagUsername), strings.TrimSpace(flagEmail), flagPassword)
	if err != nil {
		if d := api.Detail(err); d != "" {
			return errors.New(d)
		}
		return err
	}
	fmt.Printf("  Account %s created. Run `tally login` to sign in.\n", flagUsername)
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	// Restore first so the client carries the token being discarded.
	if _, err := a.sess.Resolve(context.Background()); err != nil {
		a.log.Debug("restoring before logout", "err", err)
	}
	a.sess.Logout()
	fmt.Println("  Logged out")
	return nil
}

func runWhoami(_ context.Context, a *app, u model.User, _ []string) error {
	fmt.Println()
	fmt.Println(cli.RenderKV("Username", u.Username, 16))
	fmt.Println(cli.RenderKV("Email", u.Email, 16))
	if u.FullName != "" {
		fmt.Println(cli.RenderKV("Name", u.FullName, 16))
	}
	fmt.Println(cli.RenderKV("Currency", u.CurrencyCode(), 16))
	fmt.Println(cli.RenderKV("Server", a.client.BaseURL(), 16))
	if exp, ok := session.TokenExpiry(a.client.Token()); ok {
		fmt.Println(cli.RenderKV("Session", cli.FormatExpiry(exp, time.Now()), 16))
	}
	fmt.Println()
	return nil
}
