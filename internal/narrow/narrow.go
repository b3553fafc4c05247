// Package narrow trims a candidate range down to the combos that hold enough
// equity against opponent ranges or random hands.
package narrow

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/randutil"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/poker"
)

// ErrInvalidRangeInput is returned for empty or unparsable inputs, before
// any trial runs.
var ErrInvalidRangeInput = ranges.ErrInvalidRangeInput

// DefaultTrialsPerCombo is used when a request leaves TrialsPerCombo unset.
const DefaultTrialsPerCombo = 1000

// Narrower runs narrowing requests. It keeps no state between calls.
type Narrower struct {
	engine     *engine.Engine
	logger     *log.Logger
	workers    int
	trials     int
	thresholds Thresholds
}

// Option configures a Narrower.
type Option func(*Narrower)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(n *Narrower) { n.logger = logger }
}

// WithWorkers limits how many combos are evaluated at once.
func WithWorkers(workers int) Option {
	return func(n *Narrower) {
		if workers > 0 {
			n.workers = workers
		}
	}
}

// WithTrialsPerCombo sets the default trial budget per combo.
func WithTrialsPerCombo(trials int) Option {
	return func(n *Narrower) {
		if trials > 0 {
			n.trials = trials
		}
	}
}

// WithThresholds replaces the heads-up equity bars of the preference levels.
func WithThresholds(t Thresholds) Option {
	return func(n *Narrower) { n.thresholds = t }
}

// New returns a Narrower using eng.
func New(eng *engine.Engine, opts ...Option) *Narrower {
	n := &Narrower{
		engine:     eng,
		logger:     log.Default(),
		workers:    min(runtime.NumCPU(), 8),
		trials:     DefaultTrialsPerCombo,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.WithPrefix("narrow")
	return n
}

// EquityRequest keeps the candidate combos whose equity against every
// opponent range reaches MinEquity.
type EquityRequest struct {
	Candidate      string
	Opponents      []string
	MinEquity      float64
	Board          []poker.Card
	TrialsPerCombo int
	Seed           int64
}

// ByEquity returns the canonical notation of the surviving combos.
func (n *Narrower) ByEquity(ctx context.Context, req EquityRequest) (string, error) {
	if !(req.MinEquity >= 0 && req.MinEquity <= 1) {
		return "", fmt.Errorf("%w: minimum equity %v outside [0,1]", ErrInvalidRangeInput, req.MinEquity)
	}
	candidate, err := n.parseCandidate(req.Candidate)
	if err != nil {
		return "", err
	}
	if len(req.Opponents) == 0 {
		return "", fmt.Errorf("%w: no opponent ranges", ErrInvalidRangeInput)
	}
	if len(req.Opponents)+1 > engine.MaxSeats {
		return "", fmt.Errorf("%w: %d opponents exceeds the table size", ErrInvalidRangeInput, len(req.Opponents))
	}
	opponents := make([]*engine.Sampler, len(req.Opponents))
	for i, notation := range req.Opponents {
		if strings.TrimSpace(notation) == "" {
			return "", fmt.Errorf("%w: opponent %d range is empty", ErrInvalidRangeInput, i+1)
		}
		r, err := n.engine.ParseRange(notation)
		if err != nil {
			return "", fmt.Errorf("%w: opponent %d: %v", ErrInvalidRangeInput, i+1, err)
		}
		if opponents[i], err = n.engine.NewSampler(r); err != nil {
			return "", fmt.Errorf("opponent %d: %w", i+1, err)
		}
	}
	if err := checkBoard(req.Board); err != nil {
		return "", err
	}

	return n.filter(ctx, filterParams{
		candidate: candidate,
		opponents: opponents,
		board:     req.Board,
		bar:       req.MinEquity,
		trials:    n.trialBudget(req.TrialsPerCombo),
		seed:      req.Seed,
	})
}

func (n *Narrower) parseCandidate(notation string) (ranges.Range, error) {
	r, err := n.engine.ParseRange(notation)
	if err != nil {
		return ranges.Range{}, fmt.Errorf("%w: candidate: %v", ErrInvalidRangeInput, err)
	}
	if r.IsEmpty() {
		return ranges.Range{}, fmt.Errorf("%w: candidate range has no combos", ErrInvalidRangeInput)
	}
	return r, nil
}

func (n *Narrower) trialBudget(requested int) int {
	if requested > 0 {
		return requested
	}
	return n.trials
}

func checkBoard(board []poker.Card) error {
	switch len(board) {
	case 0, 3, 4, 5:
	default:
		return fmt.Errorf("%w: board must have 0, 3, 4 or 5 cards, has %d", ErrInvalidRangeInput, len(board))
	}
	if poker.NewHand(board...).CountCards() != len(board) {
		return fmt.Errorf("%w: board repeats a card", ErrInvalidRangeInput)
	}
	return nil
}

type filterParams struct {
	candidate ranges.Range
	opponents []*engine.Sampler
	board     []poker.Card
	bar       float64
	trials    int
	seed      int64
}

// filter measures every candidate combo on its own random stream, so a
// combo's equity depends only on the seed and not on scheduling.
func (n *Narrower) filter(ctx context.Context, p filterParams) (string, error) {
	boardHand := poker.NewHand(p.board...)
	var kept ranges.Weights
	var tested, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for c := poker.Combo(0); c < poker.NumCombos; c++ {
		if p.candidate.Weight(c) <= 0 {
			continue
		}
		if c.Hand().Overlaps(boardHand) {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			eq, ok, err := n.comboEquity(gctx, c, p)
			if err != nil {
				return err
			}
			if !ok {
				skipped.Add(1)
				return nil
			}
			tested.Add(1)
			if eq >= p.bar {
				// each goroutine owns a distinct index
				kept[c] = 1
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	out := n.engine.EncodeRange(kept)
	n.logger.Debug("Narrowed range",
		"bar", p.bar,
		"tested", tested.Load(),
		"skipped", skipped.Load(),
		"kept", ranges.FromCombos(kept).ComboCount())
	return out, nil
}

func (n *Narrower) comboEquity(ctx context.Context, c poker.Combo, p filterParams) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	dead := c.Hand() | poker.NewHand(p.board...)
	for _, opp := range p.opponents {
		if !opp.Available(dead) {
			return 0, false, nil
		}
	}

	hole1, hole2 := c.Cards()
	seats := make([]engine.Seat, 0, len(p.opponents)+1)
	seats = append(seats, engine.FixedSeat(hole1, hole2))
	for _, opp := range p.opponents {
		seats = append(seats, engine.RangeSeat(opp))
	}

	rng := randutil.Derive(p.seed, uint64(c))
	var trial engine.Trial
	var credit float64
	valid := 0
	for range p.trials {
		err := n.engine.EvaluateTrial(rng, seats, p.board, &trial)
		if errors.Is(err, engine.ErrNoCombo) {
			// opponents' ranges can block each other on some deals
			continue
		}
		if err != nil {
			return 0, false, err
		}
		credit += trial.Seats[0].Credit[engine.River]
		valid++
	}
	if valid == 0 {
		return 0, false, nil
	}
	return credit / float64(valid), true, nil
}
