package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	// SweepSchedule is a cron expression for removing expired tickets; empty disables it.
	SweepSchedule      string `envconfig:"SWEEP_SCHEDULE"`
	LegacyBookingMatch bool   `envconfig:"LEGACY_BOOKING_MATCH" default:"false"`
	ValidateWindow     bool   `envconfig:"VALIDATE_WINDOW" default:"false"`
}

// Load reads the environment, after filling unset variables from the given
// .env files. Missing files are ignored.
func Load(envFiles ...string) (App, error) {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return App{}, err
		}
	}
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

func (c App) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c App) CORSList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
