package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    URL:               %s%s\n", cfg.Server.URL, envNote(config.EnvAPIURL))
	fmt.Printf("    Timeout:           %ds\n", cfg.Server.TimeoutSeconds)
	fmt.Printf("    Requests/second:   %g\n", cfg.Server.RequestsPerSecond)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh:      %v\n", cfg.TUI.AutoRefresh)
	fmt.Printf("    Refresh interval:  %ds\n", cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:     %s%s\n", cfg.Appearance.Theme, envNote(config.EnvTheme))
	fmt.Printf("    Available: %s\n", strings.Join(theme.Names(), ", "))
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s%s\n", cfg.Log.Level, envNote(config.EnvLogLevel))
	fmt.Printf("    File:  %s\n", config.LogPath())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSeconds)
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Println()

	fmt.Printf("  Credentials: %s\n", config.CredentialsPath())
	fmt.Println("  Run `tally setup` to reconfigure.")
	return nil
}

func envNote(name string) string {
	if os.Getenv(name) != "" {
		return "  (from " + name + ")"
	}
	return ""
}
