package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/results"
	"github.com/eric7237cire/poker-eval/internal/simulation"
	"github.com/eric7237cire/poker-eval/internal/table"
	"github.com/eric7237cire/poker-eval/poker"
)

// EquityCmd simulates a table of hole cards and ranges.
type EquityCmd struct {
	Players    []string      `arg:"" help:"Hole cards ('AsKd') or range notation ('TT+,AKs') per player" required:"true"`
	Board      string        `short:"b" help:"Community board cards (e.g., 'Td7s8h')"`
	Trials     int           `short:"n" default:"100000" help:"Number of Monte Carlo trials"`
	Duration   time.Duration `short:"d" help:"Keep simulating for this long, printing progress after every batch"`
	Batch      int           `default:"20000" help:"Trials per batch when running for a duration"`
	Workers    int           `short:"w" help:"Worker goroutines (default: CPU count, at most 8)"`
	Seed       *int64        `help:"Random seed for reproducible results"`
	Histograms bool          `short:"p" help:"Show win and loss hand families and draws for the first player"`
	Server     string        `env:"POKER_EVAL_SERVER" help:"Run on a poker-eval server (e.g. http://localhost:8080) instead of locally"`
}

func (c *EquityCmd) Run(g *globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	var (
		snap   *results.Snapshot
		labels []string
		board  []poker.Card
		err    error
	)
	if c.Server != "" {
		snap, labels, err = c.runRemote(ctx, g)
		if err == nil && c.Board != "" {
			board, err = poker.ParseCards(c.Board)
		}
	} else {
		snap, labels, board, err = c.runLocal(ctx, g)
	}
	if err != nil {
		return err
	}

	displayEquity(os.Stdout, snap, labels, board)
	if c.Histograms {
		fmt.Println()
		displayHistograms(os.Stdout, snap.Players[0], labels[0])
		fmt.Println()
		displayDraws(os.Stdout, snap.Players[0], labels[0])
	}
	fmt.Printf("\n%d trials in %v\n", snap.Trials, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func (c *EquityCmd) runLocal(ctx context.Context, g *globals) (*results.Snapshot, []string, []poker.Card, error) {
	eng, err := engine.New(g.logger)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, labels, err := buildTable(eng, c.Players, c.Board, g)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []simulation.Option{simulation.WithLogger(g.logger)}
	if c.Workers > 0 {
		opts = append(opts, simulation.WithWorkers(c.Workers))
	}
	if c.Seed != nil {
		opts = append(opts, simulation.WithSeed(*c.Seed))
	}
	orch := simulation.New(eng, opts...)
	if err := orch.Configure(cfg); err != nil {
		return nil, nil, nil, err
	}

	if c.Duration > 0 {
		err = orch.RunFor(ctx, c.Duration, c.Batch, func(snap *results.Snapshot) {
			printProgress(os.Stderr, snap)
		})
	} else {
		err = orch.Simulate(ctx, c.Trials)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	snap, err := orch.Snapshot()
	return snap, labels, cfg.Board, err
}

// buildTable seats one player per argument. Two cards make a fixed seat,
// anything else is parsed as a range.
func buildTable(eng *engine.Engine, players []string, board string, g *globals) (simulation.Config, []string, error) {
	tbl, err := table.New(eng, len(players), g.logger)
	if err != nil {
		return simulation.Config{}, nil, err
	}

	labels := make([]string, len(players))
	for i, arg := range players {
		arg = strings.TrimSpace(arg)
		if cards, err := poker.ParseCards(arg); err == nil && len(cards) == 2 {
			if err := tbl.SetHoleCards(i, cards); err != nil {
				return simulation.Config{}, nil, fmt.Errorf("player %d: %w", i+1, err)
			}
			if err := tbl.SetState(i, table.FixedHoleCards); err != nil {
				return simulation.Config{}, nil, err
			}
			labels[i] = poker.FormatCards(cards)
			continue
		}
		if err := tbl.SetRange(i, arg, false); err != nil {
			return simulation.Config{}, nil, fmt.Errorf("player %d: %w", i+1, err)
		}
		if err := tbl.SetState(i, table.UseRange); err != nil {
			return simulation.Config{}, nil, err
		}
		p, err := tbl.Player(i)
		if err != nil {
			return simulation.Config{}, nil, err
		}
		labels[i] = p.RangeText
	}

	if board != "" {
		cards, err := poker.ParseCards(board)
		if err != nil {
			return simulation.Config{}, nil, fmt.Errorf("board: %w", err)
		}
		if err := tbl.SetBoard(cards); err != nil {
			return simulation.Config{}, nil, err
		}
	}

	cfg, err := tbl.SimulationConfig()
	return cfg, labels, err
}

func printProgress(w io.Writer, snap *results.Snapshot) {
	parts := make([]string, len(snap.Players))
	for i, p := range snap.Players {
		parts[i] = fmt.Sprintf("%.2f%%", p.Streets[engine.River].Equity*100)
	}
	fmt.Fprintf(w, "%d trials: %s\n", snap.Trials, strings.Join(parts, " / "))
}
