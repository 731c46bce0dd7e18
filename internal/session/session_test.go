package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/apitest"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/store"
)

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemTokens() *memTokens { return &memTokens{tokens: map[string]string{}} }

func (m *memTokens) LoadToken(_ context.Context, server string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[server], nil
}

func (m *memTokens) SaveToken(_ context.Context, server, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[server] = token
	return nil
}

func (m *memTokens) DeleteToken(_ context.Context, server string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, server)
	return nil
}

func setup(t *testing.T) (*Store, *apitest.Server, *memTokens) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(t, "ana", "s3cret!", model.User{
		Email:         "ana@example.com",
		FullName:      "Ana",
		MonthlyBudget: decimal.NewFromInt(1000),
	})
	tokens := newMemTokens()
	return New(api.NewClient(srv.BaseURL()), tokens), srv, tokens
}

func TestNewIsPending(t *testing.T) {
	s, _, _ := setup(t)
	if st := s.State(); st != Pending {
		t.Fatalf("State = %v, want pending", st)
	}
	if Decide(s.State()) != RoutePlaceholder {
		t.Fatal("pending session should route to placeholder")
	}
}

func TestLogin_Valid(t *testing.T) {
	s, srv, tokens := setup(t)

	u, err := s.Login(context.Background(), "ana", "s3cret!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Username != "ana" || u.Email != "ana@example.com" {
		t.Fatalf("user = %+v", u)
	}
	st, got := s.Snapshot()
	if st != Resolved || got.Username != "ana" {
		t.Fatalf("Snapshot = %v %+v, want resolved ana", st, got)
	}
	if tok, _ := tokens.LoadToken(context.Background(), srv.BaseURL()); tok == "" {
		t.Fatal("token was not persisted")
	}
	if Decide(st) != RouteContent {
		t.Fatal("resolved session should route to content")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s, srv, tokens := setup(t)
	s.Logout()

	for _, pw := range []string{"wrong", "S3CRET!", "s3cret"} {
		_, err := s.Login(context.Background(), "ana", pw)
		if api.Detail(err) != "Invalid credentials" {
			t.Fatalf("Login(%q) err = %v, want Invalid credentials", pw, err)
		}
		if st := s.State(); st != Absent {
			t.Fatalf("State after bad login = %v, want absent", st)
		}
		if _, err := s.Require(); !errors.Is(err, ErrNotLoggedIn) {
			t.Fatalf("Require err = %v", err)
		}
	}
	if tok, _ := tokens.LoadToken(context.Background(), srv.BaseURL()); tok != "" {
		t.Fatal("a token was persisted for invalid credentials")
	}

	if _, err := s.Login(context.Background(), "nobody", "x"); api.Detail(err) != "Invalid credentials" {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	s, srv, tokens := setup(t)
	if _, err := s.Login(context.Background(), "ana", "s3cret!"); err != nil {
		t.Fatal(err)
	}

	s.Logout()
	s.Logout()

	st, u := s.Snapshot()
	if st != Absent || u.Username != "" {
		t.Fatalf("Snapshot = %v %+v, want absent with no user", st, u)
	}
	if tok, _ := tokens.LoadToken(context.Background(), srv.BaseURL()); tok != "" {
		t.Fatal("token still persisted after logout")
	}
	if s.client.Token() != "" {
		t.Fatal("client still carries a token after logout")
	}
	if Decide(st) != RouteLogin {
		t.Fatal("absent session should route to login")
	}
}

func TestUnauthorizedFetchLogsOut(t *testing.T) {
	paths := []string{"/api/budgets/status", "/api/game/progress", "/api/expenses/forecast"}
	for _, path := range paths {
		s, srv, tokens := setup(t)
		if _, err := s.Login(context.Background(), "ana", "s3cret!"); err != nil {
			t.Fatal(err)
		}
		srv.Fail(path, http.StatusUnauthorized)

		var err error
		switch path {
		case "/api/budgets/status":
			_, err = s.client.BudgetStatus(context.Background())
		case "/api/game/progress":
			_, err = s.client.GameProgress(context.Background())
		default:
			_, err = s.client.Forecast(context.Background())
		}
		if !errors.Is(err, api.ErrUnauthorized) {
			t.Fatalf("%s err = %v, want unauthorized", path, err)
		}
		if st := s.State(); st != Absent {
			t.Fatalf("%s: State = %v, want absent", path, st)
		}
		if tok, _ := tokens.LoadToken(context.Background(), srv.BaseURL()); tok != "" {
			t.Fatalf("%s: token survived a 401", path)
		}
	}
}

func TestStaleUnauthorizedIgnored(t *testing.T) {
	s, _, _ := setup(t)
	if _, err := s.Login(context.Background(), "ana", "s3cret!"); err != nil {
		t.Fatal(err)
	}
	s.expire("some-older-token")
	if st := s.State(); st != Resolved {
		t.Fatalf("State = %v, want resolved after stale 401", st)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		s, _, _ := setup(t)
		st, err := s.Resolve(ctx)
		if err != nil || st != Absent {
			t.Fatalf("Resolve = %v, %v; want absent", st, err)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		s, srv, tokens := setup(t)
		_ = tokens.SaveToken(ctx, srv.BaseURL(), "ana", srv.Token(t, "ana", time.Hour))
		st, err := s.Resolve(ctx)
		if err != nil || st != Resolved {
			t.Fatalf("Resolve = %v, %v; want resolved", st, err)
		}
		if _, u := s.Snapshot(); u.FullName != "Ana" {
			t.Fatalf("user = %+v", u)
		}
	})

	t.Run("expired token skips network", func(t *testing.T) {
		s, srv, tokens := setup(t)
		_ = tokens.SaveToken(ctx, srv.BaseURL(), "ana", srv.Token(t, "ana", -time.Minute))
		st, err := s.Resolve(ctx)
		if err != nil || st != Absent {
			t.Fatalf("Resolve = %v, %v; want absent", st, err)
		}
		if n := srv.Hits("/api/users/me"); n != 0 {
			t.Fatalf("profile fetched %d times for an expired token", n)
		}
		if tok, _ := tokens.LoadToken(ctx, srv.BaseURL()); tok != "" {
			t.Fatal("expired token not discarded")
		}
	})

	t.Run("rejected token discarded", func(t *testing.T) {
		s, srv, tokens := setup(t)
		_ = tokens.SaveToken(ctx, srv.BaseURL(), "ana", "not-a-jwt")
		st, err := s.Resolve(ctx)
		if err != nil || st != Absent {
			t.Fatalf("Resolve = %v, %v; want absent", st, err)
		}
		if tok, _ := tokens.LoadToken(ctx, srv.BaseURL()); tok != "" {
			t.Fatal("rejected token not discarded")
		}
	})

	t.Run("server error discards token", func(t *testing.T) {
		s, srv, tokens := setup(t)
		_ = tokens.SaveToken(ctx, srv.BaseURL(), "ana", srv.Token(t, "ana", time.Hour))
		srv.Fail("/api/users/me", http.StatusBadGateway)

		st, err := s.Resolve(ctx)
		if err == nil || st != Absent {
			t.Fatalf("Resolve = %v, %v; want absent with error", st, err)
		}
		if tok, _ := tokens.LoadToken(ctx, srv.BaseURL()); tok != "" {
			t.Fatal("token survived a failed profile fetch")
		}
		if s.client.Token() != "" {
			t.Fatal("client still carries the token")
		}
	})
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	s, _, _ := setup(t)
	s.Logout()

	if err := s.Register(context.Background(), "bo", "bo@example.com", "hunter22"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if st := s.State(); st != Absent {
		t.Fatalf("State after register = %v, want absent", st)
	}

	err := s.Register(context.Background(), "bo2", "bo@example.com", "hunter22")
	if api.Detail(err) != "Email already registered" {
		t.Fatalf("duplicate email err = %v", err)
	}
	err = s.Register(context.Background(), "bo", "other@example.com", "hunter22")
	if api.Detail(err) != "Username already taken" {
		t.Fatalf("duplicate username err = %v", err)
	}
	if err := s.Register(context.Background(), "x", "not-an-email", "1"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("invalid input err = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s, _, _ := setup(t)

	name := "ignored"
	s.UpdateUser(model.ProfilePatch{FullName: &name})
	if st := s.State(); st != Pending {
		t.Fatalf("UpdateUser changed state to %v", st)
	}

	if _, err := s.Login(context.Background(), "ana", "s3cret!"); err != nil {
		t.Fatal(err)
	}
	name = "Ana Lopez"
	budget := decimal.NewFromInt(1500)
	s.UpdateUser(model.ProfilePatch{FullName: &name, MonthlyBudget: &budget})

	_, u := s.Snapshot()
	if u.FullName != "Ana Lopez" || !u.MonthlyBudget.Equal(budget) || u.Email != "ana@example.com" {
		t.Fatalf("user after patch = %+v", u)
	}
}

func TestSubscribe(t *testing.T) {
	s, _, _ := setup(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	if _, err := s.Login(context.Background(), "ana", "s3cret!"); err != nil {
		t.Fatal(err)
	}
	select {
	case st := <-ch:
		if st != Resolved {
			t.Fatalf("first update = %v, want resolved", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no update after login")
	}

	s.Logout()
	if st := <-ch; st != Absent {
		t.Fatalf("update after logout = %v, want absent", st)
	}
}

func TestWithSQLiteStore(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(t, "ana", "s3cret!", model.User{})
	db, err := store.Open(filepath.Join(t.TempDir(), "credentials.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	first := New(api.NewClient(srv.BaseURL()), db)
	if _, err := first.Login(context.Background(), "ana", "s3cret!"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A second process resolves from the same file.
	second := New(api.NewClient(srv.BaseURL()), db)
	st, err := second.Resolve(context.Background())
	if err != nil || st != Resolved {
		t.Fatalf("Resolve = %v, %v; want resolved", st, err)
	}
}

func TestTokenExpiry(t *testing.T) {
	srv := apitest.New(t)
	tok := srv.Token(t, "ana", time.Hour)
	exp, ok := TokenExpiry(tok)
	if !ok {
		t.Fatal("TokenExpiry ok = false for a JWT")
	}
	if d := time.Until(exp); d < 59*time.Minute || d > time.Hour+time.Second {
		t.Fatalf("expiry in %v, want about 1h", d)
	}
	if _, ok := TokenExpiry("opaque"); ok {
		t.Fatal("TokenExpiry ok = true for an opaque token")
	}
}
