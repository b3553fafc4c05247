package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/narrow"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/poker"
)

// NarrowCmd groups the narrowing modes.
type NarrowCmd struct {
	Equity     NarrowEquityCmd     `cmd:"" help:"Keep combos with enough equity against opponent ranges"`
	Preference NarrowPreferenceCmd `cmd:"" help:"Keep combos a player would put money in with"`
}

// NarrowFlags are shared by both narrowing modes.
type NarrowFlags struct {
	Board          string `short:"b" help:"Community board cards"`
	TrialsPerCombo int    `short:"n" name:"trials" default:"1000" help:"Trials per candidate combo"`
	Workers        int    `short:"w" help:"Combos evaluated at once (default: CPU count, at most 8)"`
	Seed           int64  `help:"Random seed; equal seeds give equal results"`
}

func (f NarrowFlags) narrower(g *globals) (*narrow.Narrower, []poker.Card, error) {
	eng, err := engine.New(g.logger)
	if err != nil {
		return nil, nil, err
	}
	var board []poker.Card
	if f.Board != "" {
		if board, err = poker.ParseCards(f.Board); err != nil {
			return nil, nil, err
		}
	}
	n := narrow.New(eng,
		narrow.WithLogger(g.logger),
		narrow.WithWorkers(f.Workers),
		narrow.WithTrialsPerCombo(f.TrialsPerCombo),
	)
	return n, board, nil
}

// NarrowEquityCmd narrows by a minimum equity.
type NarrowEquityCmd struct {
	Flags NarrowFlags `embed:""`

	Candidate string   `arg:"" help:"Range to narrow"`
	Versus    []string `short:"V" required:"" help:"Opponent range, repeat for each opponent"`
	MinEquity float64  `short:"m" name:"min-equity" default:"0.5" help:"Minimum equity in [0,1]"`
}

func (c *NarrowEquityCmd) Run(g *globals) error {
	n, board, err := c.Flags.narrower(g)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := n.ByEquity(ctx, narrow.EquityRequest{
		Candidate: c.Candidate,
		Opponents: c.Versus,
		MinEquity: c.MinEquity,
		Board:     board,
		Seed:      c.Flags.Seed,
	})
	if err != nil {
		return err
	}
	return printNarrowed(out)
}

// NarrowPreferenceCmd narrows by the least a player is willing to do.
type NarrowPreferenceCmd struct {
	Flags NarrowFlags `embed:""`

	Candidate string       `arg:"" help:"Range to narrow"`
	Level     narrow.Level `short:"l" default:"small_bet" help:"Minimum level: any, call_small_bet, small_bet, large_bet, all_in"`
	Opponents int          `short:"o" default:"1" help:"Number of opponents holding random hands"`
}

func (c *NarrowPreferenceCmd) Run(g *globals) error {
	n, board, err := c.Flags.narrower(g)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := n.ByPreference(ctx, narrow.PreferenceRequest{
		Candidate: c.Candidate,
		MinLevel:  c.Level,
		Opponents: c.Opponents,
		Board:     board,
		Seed:      c.Flags.Seed,
	})
	if err != nil {
		return err
	}
	return printNarrowed(out)
}

func printNarrowed(notation string) error {
	r, err := ranges.Parse(notation)
	if err != nil {
		return err
	}
	displayRange(os.Stdout, r)
	return nil
}

// RangeCmd prints a range in canonical form with its grid.
type RangeCmd struct {
	Notation string `arg:"" help:"Range notation, e.g. 'TT+,AQs+,KQo'"`
}

func (c *RangeCmd) Run(g *globals) error {
	r, err := ranges.Parse(c.Notation)
	if err != nil {
		return err
	}
	displayRange(os.Stdout, r)
	return nil
}
