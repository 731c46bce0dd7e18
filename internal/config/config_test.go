package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvTheme, "")
	t.Setenv(EnvLogLevel, "")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != DefaultServerURL {
		t.Fatalf("Server.URL = %q, want %q", cfg.Server.URL, DefaultServerURL)
	}
	if cfg.Appearance.Theme != "flexoki-dark" {
		t.Fatalf("Theme = %q, want flexoki-dark", cfg.Appearance.Theme)
	}
	if Exists() {
		t.Fatal("Exists() = true before Save")
	}
}

func TestSaveThenLoad(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.Server.URL = "https://budget.example.com/"
	cfg.Server.TimeoutSeconds = 5
	cfg.Appearance.Theme = "tokyo-night"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perm = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.URL != "https://budget.example.com" {
		t.Fatalf("Server.URL = %q, want trailing slash trimmed", got.Server.URL)
	}
	if got.Server.TimeoutSeconds != 5 {
		t.Fatalf("TimeoutSeconds = %d, want 5", got.Server.TimeoutSeconds)
	}
	if got.Appearance.Theme != "tokyo-night" {
		t.Fatalf("Theme = %q, want tokyo-night", got.Appearance.Theme)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.Server.URL = "http://file.example"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Setenv(EnvAPIURL, "http://env.example")
	t.Setenv(EnvLogLevel, "debug")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.URL != "http://env.example" {
		t.Fatalf("Server.URL = %q, want env value", got.Server.URL)
	}
	if got.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", got.Log.Level)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	// godotenv never overrides variables that are already set, even to "".
	if err := os.Unsetenv(EnvTheme); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(EnvTheme) })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvTheme+"=catppuccin-mocha\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Appearance.Theme != "catppuccin-mocha" {
		t.Fatalf("Theme = %q, want value from .env", got.Appearance.Theme)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	isolate(t)
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(), []byte("[server\nurl="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded on malformed TOML")
	}
}
