// Package factory wires the application object graph.
package factory

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/laserchess/relay/internal/core"
	"github.com/laserchess/relay/internal/dependencies/clock"
	"github.com/laserchess/relay/internal/dependencies/random"
	"github.com/laserchess/relay/internal/metrics"
	"github.com/laserchess/relay/internal/services/names"
	"github.com/laserchess/relay/internal/ws"
)

// App contains all wired application components
type App struct {
	Clock    clock.Clock
	Random   random.Random
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Names    *names.Generator
	Core     *core.Core
	WS       *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()
	return newWithDependencies(clk, rnd, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	nameGen := names.NewGenerator(rnd)
	c := core.New(nameGen, rnd, clk, m, logger)
	wsHandler := ws.NewHandler(c, m, logger)

	return &App{
		Clock:    clk,
		Random:   rnd,
		Registry: registry,
		Metrics:  m,
		Names:    nameGen,
		Core:     c,
		WS:       wsHandler,
	}
}
