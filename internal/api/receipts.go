package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/theirongolddev/tally/internal/model"
)

// DefaultGalleryLimit is how many receipts the gallery asks for.
const DefaultGalleryLimit = 50

// Receipts returns the newest receipts, optionally filtered server-side by
// merchant or OCR text.
func (c *Client) Receipts(ctx context.Context, limit int, search string) ([]model.Receipt, error) {
	if limit <= 0 {
		limit = DefaultGalleryLimit
	}
	q := url.Values{}
	q.Set("amount", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}
	var out []model.Receipt
	if err := c.getJSON(ctx, "/receipts/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadReceipt sends a receipt image for extraction. Nothing is sent
// unless both the file and the category are present.
func (c *Client) UploadReceipt(ctx context.Context, in UploadRequest) (*model.UploadResult, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("api: opening receipt: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Stream the multipart body rather than buffering whole images.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(in.Path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	q := url.Values{}
	q.Set("manual_category", in.Category)

	var out model.UploadResult
	err = c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/receipts/upload",
		query:       q,
		body:        pr,
		contentType: mw.FormDataContentType(),
		auth:        true,
	}, decodeInto("/receipts/upload", &out))
	// Unblock the writer goroutine if the request ended early.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteReceipt removes a receipt; the backend cascades to its expenses.
func (c *Client) DeleteReceipt(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: receipt id is required", ErrInvalidInput)
	}
	return c.send(ctx, request{method: http.MethodDelete, path: "/receipts/" + url.PathEscape(id), auth: true}, nil)
}

// BudgetStatus returns the per-category budgets for the current month.
func (c *Client) BudgetStatus(ctx context.Context) ([]model.Budget, error) {
	var out []model.Budget
	if err := c.getJSON(ctx, "/budgets/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GameProgress returns level, points, streak and quests.
func (c *Client) GameProgress(ctx context.Context) (*model.GameProgress, error) {
	var g model.GameProgress
	if err := c.getJSON(ctx, "/game/progress", nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Advice returns AI spending advice for the given month.
func (c *Client) Advice(ctx context.Context, p Period) (*model.Advice, error) {
	var a model.Advice
	if err := c.getJSON(ctx, "/ai/advice", p.values(), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
