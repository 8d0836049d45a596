// Package storage selects a ticket store from a connection URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramachandrajr/ticket-boy/internal/app"
	"github.com/ramachandrajr/ticket-boy/internal/clock"
	"github.com/ramachandrajr/ticket-boy/internal/storage/postgres"
	"github.com/ramachandrajr/ticket-boy/internal/storage/sqlite"
	"github.com/ramachandrajr/ticket-boy/migrations"
)

var ErrUnsupportedURL = errors.New("unsupported store url")

const memoryDB = ":memory:"

// Store is an opened ticket repository together with its cleanup.
type Store struct {
	Repo  app.TicketRepository
	Kind  string
	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the store named by rawURL and applies its schema.
// postgres:// and postgresql:// use Postgres; sqlite://path, sqlite://:memory:
// and file:path use SQLite.
func Open(ctx context.Context, rawURL string, clk clock.Clock) (*Store, error) {
	kind, target, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "postgres":
		pool, err := pgxpool.New(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("connect to db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return &Store{Repo: postgres.NewTicketRepository(pool), Kind: kind, close: pool.Close}, nil
	default:
		s, err := sqlite.Open(target, clk)
		if err != nil {
			return nil, err
		}
		return &Store{Repo: s, Kind: kind, close: func() { _ = s.Close() }}, nil
	}
}

func parseURL(rawURL string) (kind, target string, err error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", "", fmt.Errorf("%w: empty", ErrUnsupportedURL)
	}
	// url.Parse reads ":memory:" as a bad port.
	if rawURL == "sqlite://"+memoryDB {
		return "sqlite", memoryDB, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		if u.Host == "" {
			return "", "", fmt.Errorf("%w: missing host in %q", ErrUnsupportedURL, rawURL)
		}
		return "postgres", rawURL, nil
	case "sqlite":
		path := u.Host + u.Path
		if path == "" {
			return "", "", fmt.Errorf("%w: missing path in %q", ErrUnsupportedURL, rawURL)
		}
		return "sqlite", path, nil
	case "file":
		return "sqlite", rawURL, nil
	default:
		return "", "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
}
