package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/apitest"
	"github.com/theirongolddev/tally/internal/model"
)

func loggedIn(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(t, "ana", "s3cret!", model.User{Email: "ana@example.com", MonthlyBudget: decimal.NewFromInt(1000)})
	c := NewClient(srv.BaseURL())
	tok, err := c.Login(context.Background(), Credentials{Username: "ana", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	c.SetToken(tok.AccessToken)
	return c, srv
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, ErrUnauthorized},
		{http.StatusForbidden, `{}`, ErrUnauthorized},
		{http.StatusTooManyRequests, ``, ErrRateLimited},
		{http.StatusNotFound, `{"detail":"Receipt not found"}`, ErrNotFound},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))
		c := NewClient(srv.URL)
		c.SetToken("tok")
		_, err := c.BudgetStatus(context.Background())
		srv.Close()

		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestServerErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"OCR engine offline"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok")
	_, err := c.Forecast(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.Status != 500 || apiErr.Detail != "OCR engine offline" {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if Detail(err) != "OCR engine offline" {
		t.Fatalf("Detail = %q", Detail(err))
	}
}

func TestParseDetail_ValidationList(t *testing.T) {
	got := parseDetail([]byte(`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"},{"msg":"field required"}]}`))
	want := "value is not a valid email address; field required"
	if got != want {
		t.Fatalf("parseDetail = %q, want %q", got, want)
	}
}

func TestHeaders(t *testing.T) {
	var gotAuth, gotReqID, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithUserAgent("tally-test"))
	c.SetToken("abc")
	if _, err := c.BudgetStatus(context.Background()); err != nil {
		t.Fatalf("BudgetStatus: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", gotAuth)
	}
	if len(gotReqID) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", gotReqID)
	}
	if gotUA != "tally-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestLoginSendsNoAuthorization(t *testing.T) {
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"bearer","username":"ana"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("stale")
	if _, err := c.Login(context.Background(), Credentials{Username: "ana", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sawAuth.Load() {
		t.Fatal("login request carried an Authorization header")
	}
}

func TestUnauthorizedHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var calls atomic.Int32
	var rejected atomic.Value
	c.OnUnauthorized(func(token string) {
		calls.Add(1)
		rejected.Store(token)
	})

	// Login failures are the caller's business, not a session expiry.
	_, err := c.Login(context.Background(), Credentials{Username: "ana", Password: "wrong"})
	if Detail(err) != "Invalid credentials" {
		t.Fatalf("login err = %v, want Invalid credentials detail", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("hook ran %d times after login failure, want 0", calls.Load())
	}

	c.SetToken("expired")
	if _, err := c.GameProgress(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("GameProgress err = %v, want ErrUnauthorized", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("hook ran %d times, want 1", calls.Load())
	}
	if got, _ := rejected.Load().(string); got != "expired" {
		t.Fatalf("hook token = %q, want expired", got)
	}
}

func TestNoTokenShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Me(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server saw %d requests, want 0", hits.Load())
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	c.SetToken("tok")
	if _, err := c.Forecast(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestExpensesRoundTrip(t *testing.T) {
	c, srv := loggedIn(t)
	ctx := context.Background()

	id, err := c.AddExpense(ctx, ExpenseInput{Description: "Lunch", Amount: decimal.RequireFromString("12.50"), Category: "Food"})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if id == "" {
		t.Fatal("AddExpense returned empty id")
	}

	txs, err := c.Expenses(ctx, Period{})
	if err != nil {
		t.Fatalf("Expenses: %v", err)
	}
	if len(txs) != 1 || txs[0].Description != "Lunch" || !txs[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("Expenses = %+v", txs)
	}

	if err := c.DeleteTransaction(ctx, txs[0]); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if got := srv.Expenses("ana"); len(got) != 0 {
		t.Fatalf("server still has %d expenses", len(got))
	}
}

func TestAddExpense_ValidationSendsNothing(t *testing.T) {
	c, srv := loggedIn(t)

	tests := []ExpenseInput{
		{Description: "", Amount: decimal.NewFromInt(5)},
		{Description: "Coffee", Amount: decimal.Zero},
		{Description: "Coffee", Amount: decimal.NewFromInt(-3)},
	}
	for _, in := range tests {
		if _, err := c.AddExpense(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("AddExpense(%+v) err = %v, want ErrInvalidInput", in, err)
		}
	}
	if n := srv.Hits("/api/expenses/"); n != 0 {
		t.Fatalf("server saw %d expense requests, want 0", n)
	}
}

func TestSummary(t *testing.T) {
	c, srv := loggedIn(t)
	now := time.Now()
	srv.AddExpense("ana", "Groceries", "Food", 120, now)
	srv.AddExpense("ana", "Bus pass", "Transport", 80, now)

	got, err := c.Summary(context.Background(), SummaryQuery{Period: PeriodMonth, Year: now.Year(), Month: int(now.Month())})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	total := got[0].Total.Add(got[1].Total)
	if !total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("total = %s, want 200", total)
	}

	if _, err := c.Summary(context.Background(), SummaryQuery{Period: "week"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown period err = %v, want ErrInvalidInput", err)
	}
}

func TestUploadReceipt(t *testing.T) {
	c, srv := loggedIn(t)
	path := filepath.Join(t.TempDir(), "corner-cafe.jpg")
	if err := os.WriteFile(path, []byte("fake image bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := c.UploadReceipt(context.Background(), UploadRequest{Path: path, Category: "Food"})
	if err != nil {
		t.Fatalf("UploadReceipt: %v", err)
	}
	if res.ReceiptID == "" || res.ParsedData.MerchantName != "corner-cafe" {
		t.Fatalf("result = %+v", res)
	}
	if len(srv.Receipts("ana")) != 1 {
		t.Fatal("server did not store the receipt")
	}
}

func TestUploadReceipt_NoCategorySendsNothing(t *testing.T) {
	c, srv := loggedIn(t)
	path := filepath.Join(t.TempDir(), "r.png")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := c.UploadReceipt(context.Background(), UploadRequest{Path: path})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "manual category is required") {
		t.Fatalf("err = %q, want category message", err)
	}
	if n := srv.Hits("/api/receipts/upload"); n != 0 {
		t.Fatalf("server saw %d uploads, want 0", n)
	}
}

func TestDeleteReceiptCascades(t *testing.T) {
	c, srv := loggedIn(t)
	id := srv.AddReceipt("ana", model.Receipt{MerchantName: "Mart", TotalAmount: decimal.NewFromInt(30)})

	receipts, err := c.Receipts(context.Background(), 0, "mart")
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].ID != id {
		t.Fatalf("Receipts = %+v", receipts)
	}
	if err := c.DeleteReceipt(context.Background(), id); err != nil {
		t.Fatalf("DeleteReceipt: %v", err)
	}
	if err := c.DeleteReceipt(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestExport(t *testing.T) {
	c, srv := loggedIn(t)
	srv.AddExpense("ana", "Rent", "Housing", 900, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	n, err := c.Export(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("n = %d, buffer has %d", n, buf.Len())
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Date,Merchant/Description,Category,Amount,Source" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-05-01,Rent,Housing,900") {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestUpdateMe(t *testing.T) {
	c, srv := loggedIn(t)
	err := c.UpdateMe(context.Background(), ProfileUpdate{FullName: "Ana L", MonthlyBudget: decimal.NewFromInt(1500), Currency: "EUR"})
	if err != nil {
		t.Fatalf("UpdateMe: %v", err)
	}
	u, _ := srv.User("ana")
	if u.Currency != "EUR" || !u.MonthlyBudget.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("stored profile = %+v", u)
	}

	err = c.UpdateMe(context.Background(), ProfileUpdate{Currency: "BTC"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad currency err = %v, want ErrInvalidInput", err)
	}
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRateLimit(20, 1))
	c.SetToken("tok")
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.BudgetStatus(context.Background()); err != nil {
			t.Fatalf("BudgetStatus: %v", err)
		}
	}
	// burst 1 at 20/s: two waits of ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("3 requests took %v, want rate limiting", elapsed)
	}
}
