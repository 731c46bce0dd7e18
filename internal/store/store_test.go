package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "credentials.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestTokenRoundTrip(t *testing.T) {
	db, _ := openTemp(t)
	ctx := context.Background()
	const server = "http://localhost:8000/api"

	tok, err := db.LoadToken(ctx, server)
	if err != nil || tok != "" {
		t.Fatalf("LoadToken on empty db = %q, %v; want empty, nil", tok, err)
	}

	if err := db.SaveToken(ctx, server, "ana", "t1"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := db.SaveToken(ctx, server, "ana", "t2"); err != nil {
		t.Fatalf("SaveToken replace: %v", err)
	}
	if err := db.SaveToken(ctx, "https://other.example/api", "bo", "x"); err != nil {
		t.Fatalf("SaveToken other: %v", err)
	}

	c, err := db.Credential(ctx, server)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if c.Token != "t2" || c.Username != "ana" {
		t.Fatalf("Credential = %+v, want token t2 for ana", c)
	}
	if c.SavedAt.IsZero() {
		t.Fatal("SavedAt not set")
	}

	all, err := db.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(Credentials) = %d, want 2", len(all))
	}

	if err := db.DeleteToken(ctx, server); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if err := db.DeleteToken(ctx, server); err != nil {
		t.Fatalf("DeleteToken twice: %v", err)
	}
	if tok, _ := db.LoadToken(ctx, server); tok != "" {
		t.Fatalf("token after delete = %q", tok)
	}
	if tok, _ := db.LoadToken(ctx, "https://other.example/api"); tok != "x" {
		t.Fatalf("other server token = %q, want untouched", tok)
	}
}

func TestReopenKeepsToken(t *testing.T) {
	db, path := openTemp(t)
	ctx := context.Background()
	if err := db.SaveToken(ctx, "s", "ana", "persisted"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	if tok, _ := db2.LoadToken(ctx, "s"); tok != "persisted" {
		t.Fatalf("token after reopen = %q", tok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("db perm = %o, want 600", perm)
	}
}

func TestSettings(t *testing.T) {
	db, _ := openTemp(t)
	ctx := context.Background()

	v, err := db.Setting(ctx, "s", "last_tab", "dashboard")
	if err != nil || v != "dashboard" {
		t.Fatalf("Setting default = %q, %v", v, err)
	}
	if err := db.SetSetting(ctx, "s", "last_tab", "analytics"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := db.SetSetting(ctx, "s", "last_tab", "game"); err != nil {
		t.Fatalf("SetSetting update: %v", err)
	}
	if v, _ := db.Setting(ctx, "s", "last_tab", ""); v != "game" {
		t.Fatalf("Setting = %q, want game", v)
	}
	if v, _ := db.Setting(ctx, "other", "last_tab", "none"); v != "none" {
		t.Fatalf("other server Setting = %q, want default", v)
	}
}
