package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/theirongolddev/tally/internal/model"
)

// ExportFilename is the name the backend suggests for CSV downloads.
const ExportFilename = "expenses_report.csv"

func (p Period) values() url.Values {
	q := url.Values{}
	if p.Year > 0 {
		q.Set("year", strconv.Itoa(p.Year))
	}
	if p.Month > 0 {
		q.Set("month", strconv.Itoa(p.Month))
	}
	return q
}

// Expenses returns the merged receipt and manual expense feed, newest first.
// Without a year the backend returns the latest 100 rows.
func (c *Client) Expenses(ctx context.Context, p Period) ([]model.Transaction, error) {
	var out []model.Transaction
	if err := c.getJSON(ctx, "/expenses/", p.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentTransactions returns the five newest rows for the given month.
func (c *Client) RecentTransactions(ctx context.Context, p Period) ([]model.Transaction, error) {
	var out []model.Transaction
	if err := c.getJSON(ctx, "/expenses/recent-transactions", p.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddExpense records a manual expense and returns its id.
func (c *Client) AddExpense(ctx context.Context, in ExpenseInput) (string, error) {
	if err := Validate(in); err != nil {
		return "", err
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	var out messageResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/expenses/", true, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteExpense removes one manual expense.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: expense id is required", ErrInvalidInput)
	}
	return c.send(ctx, request{method: http.MethodDelete, path: "/expenses/" + url.PathEscape(id), auth: true}, nil)
}

// DeleteTransaction deletes a feed row through the right endpoint. Receipt
// rows go through DeleteReceipt, which also removes derived expenses.
func (c *Client) DeleteTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.IsReceipt() {
		return c.DeleteReceipt(ctx, tx.DeleteTargetID())
	}
	return c.DeleteExpense(ctx, tx.DeleteTargetID())
}

// Summary returns per-category totals for the requested window.
func (c *Client) Summary(ctx context.Context, q SummaryQuery) ([]model.CategoryTotal, error) {
	period := q.Period
	if period == "" {
		period = PeriodAll
	}
	switch period {
	case PeriodAll, PeriodYear, PeriodMonth:
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, period)
	}

	v := Period{Year: q.Year, Month: q.Month}.values()
	v.Set("period", period)

	var out []model.CategoryTotal
	if err := c.getJSON(ctx, "/expenses/summary", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Forecast returns the next-month prediction.
func (c *Client) Forecast(ctx context.Context) (*model.Forecast, error) {
	var f model.Forecast
	if err := c.getJSON(ctx, "/expenses/forecast", nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Export streams the CSV report into w and returns the byte count.
func (c *Client) Export(ctx context.Context, w io.Writer) (int64, error) {
	var n int64
	err := c.send(ctx, request{method: http.MethodGet, path: "/expenses/export", auth: true}, func(resp *http.Response) error {
		var err error
		n, err = io.Copy(w, io.LimitReader(resp.Body, maxExportSize))
		if err != nil {
			return fmt.Errorf("api: downloading export: %w", err)
		}
		return nil
	})
	return n, err
}
