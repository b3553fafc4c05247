// Package simulation runs Monte Carlo trials in batches and keeps the running
// accumulator for the current table configuration.
package simulation

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/randutil"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/results"
	"github.com/eric7237cire/poker-eval/poker"
)

var (
	// ErrNotConfigured is returned by Simulate and Snapshot before Configure succeeds.
	ErrNotConfigured = errors.New("simulation not configured")
	// ErrCardCollision is returned when a card appears twice across hole cards and board.
	ErrCardCollision = errors.New("card collision")
	// ErrInvalidConfig is returned for seat counts or board sizes that cannot be simulated.
	ErrInvalidConfig = errors.New("invalid simulation config")
)

const (
	// ctxCheckInterval is how many trials a worker runs between context checks.
	ctxCheckInterval = 256
	// maxRedeals bounds how often one trial is dealt again when seat ranges
	// block each other.
	maxRedeals = 100
)

// SeatConfig describes one active seat. Hole holds exactly two cards for a
// seat with known cards; otherwise Range is sampled.
type SeatConfig struct {
	ID    int
	Hole  []poker.Card
	Range ranges.Range
}

// Config is the table as one batch sees it.
type Config struct {
	Seats []SeatConfig
	Board []poker.Card
}

// Orchestrator owns the accumulator for one configuration. Configure replaces
// it; Simulate folds more trials into it.
type Orchestrator struct {
	engine  *engine.Engine
	logger  *log.Logger
	clock   quartz.Clock
	workers int
	rng     *rand.Rand

	mu    sync.Mutex
	seats []engine.Seat
	board []poker.Card
	acc   *results.Accumulator
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock sets the clock used for timing and RunFor.
func WithClock(clock quartz.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithWorkers sets how many goroutines share a batch.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithSeed makes trial sampling reproducible.
func WithSeed(seed int64) Option {
	return func(o *Orchestrator) { o.rng = randutil.New(seed) }
}

// New returns an unconfigured orchestrator.
func New(eng *engine.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:  eng,
		logger:  log.Default(),
		clock:   quartz.NewReal(),
		workers: defaultWorkers(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = randutil.New(time.Now().UnixNano())
	}
	o.logger = o.logger.WithPrefix("sim")
	return o
}

func defaultWorkers() int {
	return min(runtime.NumCPU(), 8)
}

// Configure validates cfg and starts a fresh accumulator. On error the
// previous configuration and accumulator are kept.
func (o *Orchestrator) Configure(cfg Config) error {
	seats, board, err := o.prepare(cfg)
	if err != nil {
		return err
	}

	ids := make([]int, len(cfg.Seats))
	for i, s := range cfg.Seats {
		ids[i] = s.ID
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.seats = seats
	o.board = board
	o.acc = results.NewAccumulator(ids)
	o.logger.Debug("Configured", "seats", len(seats), "board", poker.FormatCards(board))
	return nil
}

func (o *Orchestrator) prepare(cfg Config) ([]engine.Seat, []poker.Card, error) {
	if len(cfg.Seats) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 active seats, have %d", ErrInvalidConfig, len(cfg.Seats))
	}
	if len(cfg.Seats) > engine.MaxSeats {
		return nil, nil, fmt.Errorf("%w: at most %d seats, have %d", ErrInvalidConfig, engine.MaxSeats, len(cfg.Seats))
	}
	switch len(cfg.Board) {
	case 0, 3, 4, 5:
	default:
		return nil, nil, fmt.Errorf("%w: board must have 0, 3, 4 or 5 cards, has %d", ErrInvalidConfig, len(cfg.Board))
	}

	var dead poker.Hand
	use := func(c poker.Card, owner string) error {
		if c.Index() >= poker.NumCards || poker.Hand(c).CountCards() != 1 {
			return fmt.Errorf("%w: %s has an invalid card", ErrInvalidConfig, owner)
		}
		if dead.HasCard(c) {
			return fmt.Errorf("%w: %s used twice (%s)", ErrCardCollision, c, owner)
		}
		dead.AddCard(c)
		return nil
	}
	for _, c := range cfg.Board {
		if err := use(c, "board"); err != nil {
			return nil, nil, err
		}
	}

	seats := make([]engine.Seat, len(cfg.Seats))
	for i, s := range cfg.Seats {
		if len(s.Hole) == 0 {
			continue
		}
		if len(s.Hole) != 2 {
			return nil, nil, fmt.Errorf("%w: seat %d needs 2 hole cards, has %d", ErrInvalidConfig, s.ID, len(s.Hole))
		}
		for _, c := range s.Hole {
			if err := use(c, fmt.Sprintf("seat %d", s.ID)); err != nil {
				return nil, nil, err
			}
		}
		seats[i] = engine.FixedSeat(s.Hole[0], s.Hole[1])
	}

	for i, s := range cfg.Seats {
		if len(s.Hole) != 0 {
			continue
		}
		sampler, err := o.engine.NewSampler(s.Range)
		if err != nil {
			return nil, nil, fmt.Errorf("seat %d: %w", s.ID, err)
		}
		if !sampler.Available(dead) {
			return nil, nil, fmt.Errorf("seat %d: %w: every combo is blocked by known cards", s.ID, ranges.ErrInvalidRangeInput)
		}
		seats[i] = engine.RangeSeat(sampler)
	}

	board := append([]poker.Card(nil), cfg.Board...)
	return seats, board, nil
}

// Configured reports whether Configure has succeeded.
func (o *Orchestrator) Configured() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acc != nil
}

// Trials returns how many trials the accumulator holds.
func (o *Orchestrator) Trials() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.acc == nil {
		return 0
	}
	return o.acc.Trials
}

// Simulate runs n more trials and folds them into the accumulator. The
// batch is all or nothing: on any error the accumulator is unchanged.
func (o *Orchestrator) Simulate(ctx context.Context, n int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.acc == nil {
		return ErrNotConfigured
	}
	if n <= 0 {
		return nil
	}

	start := o.clock.Now()
	workers := min(o.workers, n)
	perWorker, remainder := n/workers, n%workers
	partials := make([]*results.Accumulator, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		count := perWorker
		if w < remainder {
			count++
		}
		rng := randutil.Fork(o.rng)
		partial := results.NewAccumulator(o.acc.Seats)
		partials[w] = partial

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d panicked: %v", w, r)
				}
			}()
			return o.runWorker(gctx, rng, partial, count)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Warn("Batch discarded", "trials", n, "error", err)
		return err
	}

	folded, err := results.Fold(o.acc, partials...)
	if err != nil {
		return err
	}
	o.acc = folded
	o.logger.Debug("Batch complete",
		"trials", n,
		"total", folded.Trials,
		"workers", workers,
		"elapsed", o.clock.Since(start))
	return nil
}

func (o *Orchestrator) runWorker(ctx context.Context, rng *rand.Rand, acc *results.Accumulator, count int) error {
	var trial engine.Trial
	for i := range count {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		err := o.engine.EvaluateTrial(rng, o.seats, o.board, &trial)
		for redeal := 0; errors.Is(err, engine.ErrNoCombo) && redeal < maxRedeals; redeal++ {
			err = o.engine.EvaluateTrial(rng, o.seats, o.board, &trial)
		}
		if errors.Is(err, engine.ErrNoCombo) {
			return fmt.Errorf("%w: seat ranges leave no valid deal", ranges.ErrInvalidRangeInput)
		}
		if err != nil {
			return err
		}
		if err := acc.Record(&trial); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot derives results from the accumulator without changing it.
func (o *Orchestrator) Snapshot() (*results.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.acc == nil {
		return nil, ErrNotConfigured
	}
	return results.Build(o.acc), nil
}

// RunFor simulates in batches until d has elapsed on the orchestrator's
// clock, handing a snapshot to fn after every batch.
func (o *Orchestrator) RunFor(ctx context.Context, d time.Duration, batch int, fn func(*results.Snapshot)) error {
	if batch <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batch)
	}
	deadline := o.clock.Now().Add(d)
	for o.clock.Until(deadline) > 0 {
		if err := o.Simulate(ctx, batch); err != nil {
			return err
		}
		snap, err := o.Snapshot()
		if err != nil {
			return err
		}
		if fn != nil {
			fn(snap)
		}
	}
	return nil
}
