package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/session"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, session and saved logins",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	progress("Checking session...")
	st, resolveErr := a.sess.Resolve(ctx)

	fmt.Println()
	fmt.Println(cli.RenderTitle("TALLY STATUS"))
	fmt.Println()

	fmt.Println(cli.RenderKV("Server", a.client.BaseURL(), 10))
	fmt.Println(cli.RenderKV("Config", configStatus(), 10))
	fmt.Println(cli.RenderKV("Log", config.LogPath(), 10))
	fmt.Println()

	switch {
	case resolveErr != nil:
		fmt.Println(cli.RenderKV("Session", "unknown", 10))
		fmt.Println(cli.RenderWarning(describeServerErr(resolveErr)))
	case st == session.Resolved:
		_, u := a.sess.Snapshot()
		fmt.Println(cli.RenderKV("Session", "signed in as "+u.Username, 10))
		if exp, ok := session.TokenExpiry(a.client.Token()); ok {
			fmt.Println(cli.RenderKV("Expires", cli.FormatExpiry(exp, time.Now()), 10))
		}
	default:
		fmt.Println(cli.RenderKV("Session", "signed out", 10))
	}
	fmt.Println()

	creds, err := a.db.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("listing saved logins: %w", err)
	}
	if len(creds) > 0 {
		rows := make([][]string, 0, len(creds))
		for _, c := range creds {
			expiry := "-"
			if exp, ok := session.TokenExpiry(c.Token); ok {
				expiry = cli.FormatExpiry(exp, time.Now())
			}
			rows = append(rows, []string{c.ServerURL, c.Username, cli.FormatAge(c.SavedAt), expiry})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Saved Logins",
			Headers: []string{"Server", "User", "Saved", "Token"},
			Rows:    rows,
		}))
	}

	if pid, err := readPID(flagDaemonPIDFile); err == nil && processAlive(pid) {
		fmt.Printf("  Daemon running (pid %d); see `tally daemon status`\n\n", pid)
	}
	return nil
}

func configStatus() string {
	if config.Exists() {
		return config.ConfigPath()
	}
	return "defaults (no config file)"
}

// describeServerErr explains a failed backend call in one line.
func describeServerErr(err error) string {
	if d := api.Detail(err); d != "" {
		return "Server said: " + d
	}
	return "Server unreachable: " + err.Error()
}
