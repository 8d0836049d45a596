package sweep

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubRemover struct {
	mu    sync.Mutex
	calls int
	n     int64
	err   error
}

func (r *stubRemover) SweepExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.n, r.err
}

func (r *stubRemover) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestNew_InvalidSchedule(t *testing.T) {
	t.Parallel()

	if _, err := New("invalid-cron", &stubRemover{}); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestRunOnce(t *testing.T) {
	t.Parallel()

	t.Run("returns removed count", func(t *testing.T) {
		t.Parallel()

		r := &stubRemover{n: 3}
		s, err := New("@every 1h", r)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if got := s.RunOnce(context.Background()); got != 3 {
			t.Fatalf("expected 3, got %d", got)
		}
	})

	t.Run("logs failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		r := &stubRemover{err: errors.New("db down")}
		s, err := New("@every 1h", r, WithLogger(logger))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if got := s.RunOnce(context.Background()); got != 0 {
			t.Fatalf("expected 0, got %d", got)
		}
		if !strings.Contains(buf.String(), "sweep failed") || !strings.Contains(buf.String(), "db down") {
			t.Fatalf("expected failure to be logged, got %q", buf.String())
		}
	})
}

func TestStart_FiresAndStops(t *testing.T) {
	r := &stubRemover{n: 1}
	s, err := New("@every 1s", r, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(1500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("sweeper did not stop")
	}
	if r.Calls() == 0 {
		t.Fatalf("expected at least one sweep")
	}
}
