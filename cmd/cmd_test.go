package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/apitest"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
)

// env isolates config, cache and credentials in temp dirs and points the
// CLI at a fake backend with one user.
func env(t *testing.T) *apitest.Server {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	srv := apitest.New(t)
	srv.AddUser(t, "ana", "s3cret!", model.User{
		Email:         "ana@example.com",
		FullName:      "Ana",
		Currency:      "USD",
		MonthlyBudget: decimal.NewFromInt(1000),
	})
	t.Setenv("TALLY_API_URL", srv.BaseURL())

	resetFlags()
	t.Cleanup(resetFlags)
	return srv
}

func resetFlags() {
	flagServer, flagDebug, flagQuiet = "", false, true
	flagUsername, flagEmail, flagPassword = "", "", ""
	flagYear, flagMonth, flagFilter, flagLimit = 0, 0, "", 0
	flagCategory, flagDate, flagYes = "", "", false
	flagFullName, flagBudget, flagCurrency = "", "", ""
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func login(t *testing.T) {
	t.Helper()
	if err := run(t, "login", "-u", "ana", "--password", "s3cret!"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginPersistsAcrossCommands(t *testing.T) {
	env(t)

	if err := run(t, "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("whoami before login err = %v, want errNotLoggedIn", err)
	}
	login(t)
	if err := run(t, "whoami"); err != nil {
		t.Fatalf("whoami after login: %v", err)
	}
	if err := run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := run(t, "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("whoami after logout err = %v, want errNotLoggedIn", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env(t)
	err := run(t, "login", "-u", "ana", "--password", "wrong")
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("err = %v, want Invalid credentials", err)
	}
}

func TestExpensesAddAndDelete(t *testing.T) {
	srv := env(t)
	login(t)

	if err := run(t, "expenses", "add", "Coffee", "4.50", "--category", "Food", "--date", "2024-03-05"); err != nil {
		t.Fatalf("add: %v", err)
	}
	txs := srv.Expenses("ana")
	if len(txs) != 1 || txs[0].Description != "Coffee" || !txs[0].Amount.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("expenses after add = %+v", txs)
	}

	if err := run(t, "expenses", "add", "Nothing", "0"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("zero amount err = %v, want ErrInvalidInput", err)
	}

	keep := srv.AddExpense("ana", "Bus", "Transport", 2, time.Now())
	if err := run(t, "expenses", "delete", txs[0].ID, "--yes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	left := srv.Expenses("ana")
	if len(left) != 1 || left[0].ID != keep {
		t.Fatalf("expenses after delete = %+v, want only %s", left, keep)
	}
}

func TestExpensesListNeedsYearForMonth(t *testing.T) {
	env(t)
	login(t)
	if err := run(t, "expenses", "--month", "3"); err == nil {
		t.Fatal("expected an error for --month without --year")
	}
}

func TestReceiptsUploadAndDelete(t *testing.T) {
	srv := env(t)
	login(t)

	img := filepath.Join(t.TempDir(), "corner-shop.jpg")
	if err := os.WriteFile(img, []byte("fake image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "receipts", "upload", img, "--category", "Food"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	rs := srv.Receipts("ana")
	if len(rs) != 1 || rs[0].MerchantName != "corner-shop" {
		t.Fatalf("receipts after upload = %+v", rs)
	}

	if err := run(t, "receipts", "delete", rs[0].ID, "--yes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := len(srv.Receipts("ana")); n != 0 {
		t.Fatalf("receipts after delete = %d, want 0", n)
	}
}

func TestUploadMissingFileSendsNothing(t *testing.T) {
	srv := env(t)
	login(t)

	missing := filepath.Join(t.TempDir(), "nope.jpg")
	if err := run(t, "receipts", "upload", missing, "--category", "Food"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if n := srv.Hits("/api/receipts/upload"); n != 0 {
		t.Fatalf("upload endpoint hit %d times", n)
	}
}

func TestProfileSet(t *testing.T) {
	srv := env(t)
	login(t)

	if err := run(t, "profile", "set", "--budget", "1500", "--currency", "eur"); err != nil {
		t.Fatalf("profile set: %v", err)
	}
	u, _ := srv.User("ana")
	if !u.MonthlyBudget.Equal(decimal.NewFromInt(1500)) || u.Currency != "EUR" || u.FullName != "Ana" {
		t.Fatalf("profile after set = %+v", u)
	}

	resetFlags()
	if err := run(t, "profile", "set", "--currency", "XYZ"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("bad currency err = %v, want ErrInvalidInput", err)
	}
	resetFlags()
	if err := run(t, "profile", "set"); err == nil {
		t.Fatal("expected an error with nothing to update")
	}
}

func TestExportWritesFile(t *testing.T) {
	srv := env(t)
	login(t)
	srv.AddExpense("ana", "Groceries", "Food", 42, time.Now())

	out := filepath.Join(t.TempDir(), api.ExportFilename)
	if err := run(t, "export", "-o", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat export: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("export file is empty")
	}
}

func TestExportFailureRemovesPartialFile(t *testing.T) {
	srv := env(t)
	login(t)
	srv.Fail("/api/expenses/export", 500)

	out := filepath.Join(t.TempDir(), "report.csv")
	err := run(t, "export", "-o", out)
	if err == nil {
		t.Fatal("expected export error")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("partial file left behind: %v", statErr)
	}
}

func TestReadOnlyCommands(t *testing.T) {
	srv := env(t)
	login(t)
	srv.AddExpense("ana", "Rent", "Housing", 750, time.Now())
	srv.SetBudgets("ana", []model.Budget{{Category: "Housing", Limit: decimal.NewFromInt(800), Spent: decimal.NewFromInt(750)}})

	for _, args := range [][]string{
		{"summary"},
		{"expenses", "-f", "rent"},
		{"receipts"},
		{"analytics", "--period", "month"},
		{"forecast"},
		{"advice"},
		{"budgets"},
		{"game"},
		{"profile"},
		{"status"},
		{"config"},
	} {
		if err := run(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}

func TestMonthArg(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	t.Cleanup(resetFlags)

	tests := []struct {
		year, month int
		want        finance.Month
		wantErr     bool
	}{
		{0, 0, finance.Month{Year: 2024, Month: time.March}, false},
		{2023, 7, finance.Month{Year: 2023, Month: time.July}, false},
		{2030, 1, finance.Month{Year: 2024, Month: time.March}, false},
		{2024, 13, finance.Month{}, true},
	}
	for _, tt := range tests {
		flagYear, flagMonth = tt.year, tt.month
		got, err := monthArg(now)
		if tt.wantErr {
			if err == nil {
				t.Errorf("monthArg(%d, %d) err = nil, want error", tt.year, tt.month)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("monthArg(%d, %d) = %v, %v; want %v", tt.year, tt.month, got, err, tt.want)
		}
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", "x", "--detach=true"})
	want := []string{"daemon", "--addr", "x"}
	if len(got) != len(want) {
		t.Fatalf("filterDetachArg = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filterDetachArg = %v, want %v", got, want)
		}
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tallyd.pid")
	if err := writePID(path, os.Getpid()); err != nil {
		t.Fatal(err)
	}
	pid, err := readPID(path)
	if err != nil || pid != os.Getpid() {
		t.Fatalf("readPID = %d, %v; want %d", pid, err, os.Getpid())
	}
	if !processAlive(pid) {
		t.Fatal("own process reported dead")
	}
	if err := ensureDaemonNotRunning(path); err == nil {
		t.Fatal("expected already running error")
	}
}
