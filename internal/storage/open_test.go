package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ramachandrajr/ticket-boy/internal/clock"
	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		kind   string
		target string
		err    bool
	}{
		{raw: "postgres://u:p@localhost:5432/db?sslmode=disable", kind: "postgres", target: "postgres://u:p@localhost:5432/db?sslmode=disable"},
		{raw: "postgresql://localhost/db", kind: "postgres", target: "postgresql://localhost/db"},
		{raw: "sqlite://tickets.db", kind: "sqlite", target: "tickets.db"},
		{raw: "sqlite:///var/lib/ticketboy/tickets.db", kind: "sqlite", target: "/var/lib/ticketboy/tickets.db"},
		{raw: "sqlite://:memory:", kind: "sqlite", target: ":memory:"},
		{raw: "file:tickets.db?cache=shared", kind: "sqlite", target: "file:tickets.db?cache=shared"},
		{raw: "mongodb://localhost/shopDB", err: true},
		{raw: "postgres:///db", err: true},
		{raw: "sqlite://", err: true},
		{raw: "", err: true},
		{raw: "::not a url", err: true},
	}
	for _, tt := range tests {
		kind, target, err := parseURL(tt.raw)
		if tt.err {
			if !errors.Is(err, ErrUnsupportedURL) {
				t.Fatalf("%q: expected ErrUnsupportedURL, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: expected no error, got %v", tt.raw, err)
		}
		if kind != tt.kind || target != tt.target {
			t.Fatalf("%q: expected %s %s, got %s %s", tt.raw, tt.kind, tt.target, kind, target)
		}
	}
}

func TestOpen_SQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tickets.db")
	store, err := Open(context.Background(), "sqlite://"+path, clock.NewSystem())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	if store.Kind != "sqlite" || store.Repo == nil {
		t.Fatalf("unexpected store %+v", store)
	}
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := Open(ctx, "sqlite://:memory:", clock.NewSystem())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	if _, err := store.Repo.Insert(ctx, domain.Ticket{Tag: "mem", Start: time.Now()}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	found, err := store.Repo.Find(ctx, domain.Filter{Tag: "mem"})
	if err != nil || len(found) != 1 {
		t.Fatalf("expected 1 ticket in memory store, got %d err=%v", len(found), err)
	}
}

func TestOpen_RejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mongodb://localhost/shopDB", clock.NewSystem())
	if !errors.Is(err, ErrUnsupportedURL) {
		t.Fatalf("expected ErrUnsupportedURL, got %v", err)
	}
}
