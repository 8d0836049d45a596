package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramachandrajr/ticket-boy/internal/app"
	"github.com/ramachandrajr/ticket-boy/internal/clock"
	"github.com/ramachandrajr/ticket-boy/internal/config"
	"github.com/ramachandrajr/ticket-boy/internal/storage"
	"github.com/ramachandrajr/ticket-boy/internal/sweep"
	"github.com/ramachandrajr/ticket-boy/internal/tag"
	transporthttp "github.com/ramachandrajr/ticket-boy/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.App, logger *slog.Logger) error {
	clk := clock.NewSystem()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := storage.Open(startupCtx, cfg.DatabaseURL, clk)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("store opened", "kind", store.Kind)

	opts := []app.TicketServiceOption{app.WithLogger(logger)}
	if cfg.LegacyBookingMatch {
		opts = append(opts, app.WithLegacyBookingMatch())
	}
	if cfg.ValidateWindow {
		opts = append(opts, app.WithWindowValidation())
	}
	svc := app.NewTicketService(store.Repo, clk, tag.NewHasher(), opts...)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweepDone := make(chan struct{})
	if cfg.SweepSchedule != "" {
		sweeper, err := sweep.New(cfg.SweepSchedule, svc, sweep.WithLogger(logger))
		if err != nil {
			return err
		}
		go func() {
			defer close(sweepDone)
			_ = sweeper.Start(stopCtx)
		}()
	} else {
		close(sweepDone)
	}

	mux := transporthttp.NewMux(svc, svc)
	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSList(), mux), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("api listening", "port", cfg.Port)

	err = serve(stopCtx, server, logger)
	stop()
	<-sweepDone
	logger.Info("server stopped")
	return err
}

// serve runs server until it fails or ctx is cancelled, then shuts it down.
// A listen failure is returned so the process exits non-zero.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "error", err)
	}
	return serveErr
}
