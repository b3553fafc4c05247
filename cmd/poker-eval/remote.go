package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/eric7237cire/poker-eval/internal/client"
	"github.com/eric7237cire/poker-eval/internal/results"
	"github.com/eric7237cire/poker-eval/poker"
)

// runRemote plays the equity command against a server session. Batches are
// issued one after another so the server folds them in order.
func (c *EquityCmd) runRemote(ctx context.Context, g *globals) (*results.Snapshot, []string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cl, err := client.Dial(dialCtx, c.Server, g.logger)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = cl.Close() }()

	labels := make([]string, len(c.Players))
	for i, arg := range c.Players {
		arg = strings.TrimSpace(arg)
		if cards, err := poker.ParseCards(arg); err == nil && len(cards) == 2 {
			p, err := cl.SeatHole(ctx, i, poker.FormatCards(cards))
			if err != nil {
				return nil, nil, fmt.Errorf("player %d: %w", i+1, err)
			}
			labels[i] = p.HoleCards
			continue
		}
		p, err := cl.SeatRange(ctx, i, arg)
		if err != nil {
			return nil, nil, fmt.Errorf("player %d: %w", i+1, err)
		}
		labels[i] = p.Range
	}
	if err := cl.SetBoard(ctx, c.Board); err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}
	if _, err := cl.Configure(ctx); err != nil {
		return nil, nil, err
	}

	if c.Duration <= 0 {
		snap, err := cl.Simulate(ctx, c.Trials)
		return snap, labels, err
	}

	deadline := time.Now().Add(c.Duration)
	var snap *results.Snapshot
	for snap == nil || time.Until(deadline) > 0 {
		if snap, err = cl.Simulate(ctx, c.Batch); err != nil {
			return nil, nil, err
		}
		printProgress(os.Stderr, snap)
	}
	return snap, labels, nil
}
