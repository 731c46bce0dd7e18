package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagSearch       string
	flagReceiptLimit int
)

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List scanned receipts",
	RunE:  withSession(runReceiptsList),
}

var receiptsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a receipt with its extracted items",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runReceiptsShow),
}

var receiptsUploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Upload a receipt image for extraction",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runReceiptsUpload),
}

var receiptsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a receipt and the expenses derived from it",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runReceiptsDelete),
}

func init() {
	receiptsCmd.Flags().StringVar(&flagSearch, "search", "", "Match merchant name or receipt text")
	receiptsCmd.Flags().IntVarP(&flagReceiptLimit, "limit", "n", api.DefaultGalleryLimit, "Number of receipts to fetch")

	receiptsUploadCmd.Flags().StringVarP(&flagCategory, "category", "c", "",
		"Category: "+strings.Join(model.ReceiptCategories, ", "))

	receiptsDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation")

	receiptsCmd.AddCommand(receiptsShowCmd, receiptsUploadCmd, receiptsDeleteCmd)
	rootCmd.AddCommand(receiptsCmd)
}

func runReceiptsList(ctx context.Context, a *app, u model.User, _ []string) error {
	rs, err := a.client.Receipts(ctx, flagReceiptLimit, strings.TrimSpace(flagSearch))
	if err != nil {
		return fmt.Errorf("loading receipts: %w", err)
	}
	if len(rs) == 0 {
		fmt.Println("\n  No receipts found.")
		return nil
	}

	cur := u.CurrencyCode()
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []string{
			cli.FormatDate(r.Date().Time),
			cli.Truncate(r.Merchant(), 30),
			fmt.Sprintf("%d", len(r.Items)),
			finance.FormatAmount(cur, r.TotalAmount),
			r.ID,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Receipts (%d)", len(rs)),
		Headers: []string{"Date", "Merchant", "Items", "Total", "ID"},
		Rows:    rows,
	}))
	return nil
}

func findReceipt(ctx context.Context, a *app, id string) (model.Receipt, error) {
	rs, err := a.client.Receipts(ctx, api.DefaultGalleryLimit, "")
	if err != nil {
		return model.Receipt{}, fmt.Errorf("loading receipts: %w", err)
	}
	for _, r := range rs {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Receipt{}, fmt.Errorf("receipt %s not found among the latest %d", id, api.DefaultGalleryLimit)
}

func runReceiptsShow(ctx context.Context, a *app, u model.User, args []string) error {
	r, err := findReceipt(ctx, a, args[0])
	if err != nil {
		return err
	}
	printReceipt(u.CurrencyCode(), r.Merchant(), r.Date(), r.TotalAmount, r.Items)
	return nil
}

func runReceiptsUpload(ctx context.Context, a *app, u model.User, args []string) error {
	path := args[0]
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if flagCategory == "" {
		if err := huh.NewSelect[string]().
			Title("Category").
			Options(huh.NewOptions(model.ReceiptCategories...)...).
			Value(&flagCategory).
			Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	progress("Uploading %s...", filepath.Base(path))
	res, err := a.client.UploadReceipt(ctx, api.UploadRequest{Path: path, Category: flagCategory})
	if err != nil {
		a.log.Warn("uploading receipt", "path", path, "err", err)
		if errors.Is(err, api.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%s: %w", finance.MsgUploadFailed, err)
	}

	fmt.Printf("\n  %s (id %s)\n", res.Message, res.ReceiptID)
	p := res.ParsedData
	merchant := p.MerchantName
	if merchant == "" {
		merchant = "Unknown Merchant"
	}
	printReceipt(u.CurrencyCode(), merchant, p.DateExtracted, p.TotalAmount, p.Items)
	return nil
}

func printReceipt(cur, merchant string, date model.Time, total decimal.Decimal, items []model.ReceiptItem) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(merchant))
	fmt.Println()
	if !date.IsZero() {
		fmt.Println(cli.RenderKV("Date", cli.FormatDate(date.Time), 8))
	}
	fmt.Println(cli.RenderKV("Total", finance.FormatAmount(cur, total), 8))
	fmt.Println()

	if len(items) == 0 {
		fmt.Println("  No items extracted.")
		fmt.Println()
		return
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		rows = append(rows, []string{
			cli.Truncate(it.Description, 36),
			fmt.Sprintf("%d", qty),
			it.Category,
			finance.FormatAmount(cur, it.Amount),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Items",
		Headers: []string{"Item", "Qty", "Category", "Amount"},
		Rows:    rows,
	}))
}

func runReceiptsDelete(ctx context.Context, a *app, _ model.User, args []string) error {
	id := args[0]
	if !flagYes {
		ok, err := confirm(finance.MsgDeleteReceipt)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("  Canceled")
			return nil
		}
	}
	if err := a.client.DeleteReceipt(ctx, id); err != nil {
		a.log.Warn("deleting receipt", "id", id, "err", err)
		return errors.New(finance.MsgDeleteReceiptFailed)
	}
	fmt.Printf("  Deleted receipt %s\n", id)
	return nil
}
