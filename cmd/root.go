// Package cmd implements the tally CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/session"
	"github.com/theirongolddev/tally/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagServer string
	flagDebug  bool
	flagQuiet  bool
)

// errNotLoggedIn is returned by commands that need a session when none exists.
var errNotLoggedIn = errors.New("not logged in; run `tally login` first")

var rootCmd = &cobra.Command{
	Use:           "tally",
	Short:         "Personal finance tracker",
	Long:          "Track expenses, scan receipts and watch your monthly budget from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Backend API URL (default from config or "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// app bundles what a command needs to talk to the backend.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	client  *api.Client
	db      *store.DB
	sess    *session.Store
	logFile io.Closer
}

// bootstrap loads configuration, opens the log and credential store, and
// wires the API client to a session.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.Server.URL = strings.TrimRight(flagServer, "/")
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	db, err := store.Open(config.CredentialsPath())
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	client := api.NewClient(cfg.Server.URL,
		api.WithTimeout(time.Duration(cfg.Server.TimeoutSeconds)*time.Second),
		api.WithRateLimit(cfg.Server.RequestsPerSecond, 5),
		api.WithLogger(logger),
	)

	return &app{
		cfg:     cfg,
		log:     logger,
		client:  client,
		db:      db,
		sess:    session.New(client, db, session.WithLogger(logger)),
		logFile: logFile,
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
	_ = a.logFile.Close()
}

// newLogger writes JSON logs to the cache directory. The terminal is left
// to the command output and the TUI.
func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	path := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	//nolint:gosec // log path is derived from the user's cache dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	if flagDebug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("pid", os.Getpid()), f, nil
}

// requireSession restores the saved session or fails with a hint to log in.
func (a *app) requireSession(ctx context.Context) (model.User, error) {
	st, err := a.sess.Resolve(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("restoring session: %w", err)
	}
	if session.Decide(st) != session.RouteContent {
		return model.User{}, errNotLoggedIn
	}
	return a.sess.Require()
}

// withSession runs fn with a bootstrapped app and a restored session.
func withSession(fn func(ctx context.Context, a *app, u model.User, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		u, err := a.requireSession(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a, u, args)
	}
}

// progress writes a status line to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}
