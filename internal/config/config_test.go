package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "PORT", "LOG_LEVEL", "SWEEP_SCHEDULE", "LEGACY_BOOKING_MATCH", "VALIDATE_WINDOW")
	t.Setenv("DATABASE_URL", "sqlite://tickets.db")

	c, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DatabaseURL != "sqlite://tickets.db" {
		t.Fatalf("unexpected database url %q", c.DatabaseURL)
	}
	if c.Port != "8080" || c.LogLevel != "info" || c.SweepSchedule != "" || c.LegacyBookingMatch {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	unsetEnv(t, "DATABASE_URL")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "DATABASE_URL=sqlite://from-file.db\nSWEEP_SCHEDULE=\"@every 1m\"\nPORT=9000\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PORT", "7000")
	unsetEnv(t, "DATABASE_URL", "SWEEP_SCHEDULE")

	c, err := Load(filepath.Join(dir, "missing.env"), path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DatabaseURL != "sqlite://from-file.db" || c.SweepSchedule != "@every 1m" {
		t.Fatalf("expected values from env file, got %+v", c)
	}
	if c.Port != "7000" {
		t.Fatalf("expected environment to win, got port %q", c.Port)
	}
}

func TestApp_Helpers(t *testing.T) {
	t.Parallel()

	c := App{LogLevel: "DEBUG", CORSOrigins: " http://a , ,http://b"}
	if c.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level")
	}
	if got := c.CORSList(); !reflect.DeepEqual(got, []string{"http://a", "http://b"}) {
		t.Fatalf("unexpected origins %v", got)
	}
	if (App{LogLevel: "bogus"}).SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info fallback")
	}
}
