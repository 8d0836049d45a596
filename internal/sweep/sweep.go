package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Remover deletes every expired ticket and reports how many it removed.
type Remover interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper removes expired tickets on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	remover  Remover
	logger   *slog.Logger
	timeout  time.Duration
	schedule string
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds each run. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		s.timeout = d
	}
}

// New accepts a standard 5-field cron expression or a descriptor such as
// "@every 1m".
func New(schedule string, remover Remover, opts ...Option) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		remover:  remover,
		logger:   slog.Default(),
		timeout:  30 * time.Second,
		schedule: schedule,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("sweep: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule and blocks until ctx is cancelled. In-flight runs
// are allowed to finish before it returns.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("sweeper started", "schedule", s.schedule)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
	return ctx.Err()
}

// RunOnce performs a single sweep. Failures are logged, not returned, so a
// bad run does not stop the schedule.
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	n, err := s.remover.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info("sweep finished", "removed", n)
	}
	return n
}
