package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eric7237cire/poker-eval/internal/config"
	"github.com/eric7237cire/poker-eval/internal/server"
)

// ServeCmd runs the server.
type ServeCmd struct {
	Config string `short:"c" default:"poker-eval.hcl" env:"POKER_EVAL_CONFIG" help:"HCL configuration file"`
	Addr   string `env:"POKER_EVAL_ADDR" help:"Listen address, overrides the config file"`
}

func (c *ServeCmd) Run(g *globals) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := g.logger
	if lvl, err := log.ParseLevel(cfg.Server.LogLevel); err == nil && lvl < logger.GetLevel() {
		logger.SetLevel(lvl)
	}

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	s := server.NewServer(addr, settingsFromConfig(cfg), logger)
	s.BuildEngine()

	logger.Info("Starting poker-eval server",
		"address", addr,
		"seats", cfg.Simulation.Seats,
		"batch_size", cfg.Simulation.BatchSize,
		"trials_per_combo", cfg.Narrowing.TrialsPerCombo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func settingsFromConfig(cfg *config.Config) server.Settings {
	return server.Settings{
		Seats:          cfg.Simulation.Seats,
		Workers:        cfg.Simulation.Workers,
		BatchSize:      cfg.Simulation.BatchSize,
		Seed:           cfg.Simulation.Seed,
		TrialsPerCombo: cfg.Narrowing.TrialsPerCombo,
		NarrowWorkers:  cfg.Narrowing.Workers,
		Thresholds:     cfg.Thresholds(),
	}
}
