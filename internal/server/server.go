// Package server is cellflowd's composition root: it wires the Cell
// Store + Propagation Worker (via internal/engine), the websocket
// connection registry (internal/transport), and an http.Server
// together, and runs them under context cancellation for graceful
// shutdown — the same signal-driven shutdown shape as
// marmos91-dittofs/cmd/dittofs/main.go's runStart, translated from a
// select-on-channels loop into a context.Context passed down to
// http.Server.Shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rlayton/cellflow/internal/cellid"
	"github.com/rlayton/cellflow/internal/config"
	"github.com/rlayton/cellflow/internal/engine"
	"github.com/rlayton/cellflow/internal/transport"
)

// Server owns the engine, transport registry, and HTTP listener for
// the lifetime of one run.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	engine   *engine.Engine
	registry *transport.Registry
	http     *http.Server
}

// New builds a Server from cfg. The Propagation Worker goroutine
// starts immediately (via engine.New); it does not accept
// connections until Run is called.
func New(cfg *config.Config, log *slog.Logger) *Server {
	eng := engine.New(nil)
	if cfg.DemoSeed {
		seedDemoCells(eng)
	}

	reg := transport.NewRegistry(eng, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", reg)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		cfg:      cfg,
		log:      log,
		engine:   eng,
		registry: reg,
		http: &http.Server{
			Addr:    cfg.Listen,
			Handler: mux,
		},
	}
}

// Run starts accepting connections and blocks until ctx is canceled,
// then drains in-flight sessions and the Propagation Worker before
// returning. A listener failure other than a clean shutdown is
// returned as an error.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Listen)
		serveErr <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received, draining connections")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("forced listener close", "err", err)
	}

	s.registry.Wait()
	s.engine.Shutdown()
	s.log.Info("shutdown complete")
	return nil
}

// seedDemoCells populates a small starter sheet so a client connecting
// to a fresh server immediately sees dependent cells and propagation
// in action, rather than an entirely blank grid.
func seedDemoCells(eng *engine.Engine) {
	demo := []struct {
		cell cellid.ID
		expr string
	}{
		{cellid.New(0, 0), "10"},
		{cellid.New(1, 0), "20"},
		{cellid.New(2, 0), "A1 + B1"},
		{cellid.New(2, 1), "sum(A1_B1)"},
	}
	for _, d := range demo {
		_ = eng.Set(d.cell, d.expr)
	}
}
