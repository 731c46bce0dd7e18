package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/spf13/cobra"
)

var flagOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all expenses as CSV",
	RunE:  withSession(runExport),
}

func init() {
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", api.ExportFilename, "Output file, or - for stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, a *app, _ model.User, _ []string) error {
	if flagOutput == "-" {
		_, err := a.client.Export(ctx, os.Stdout)
		return err
	}

	path := flagOutput
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, api.ExportFilename)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := a.client.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		a.log.Warn("export failed", "path", path, "err", err)
		return errors.Join(errors.New(finance.MsgExportFailed), err)
	}

	fmt.Printf("  Saved %s (%s)\n", path, cli.FormatBytes(n))
	return nil
}
