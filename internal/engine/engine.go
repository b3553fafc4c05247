// Package engine samples hole cards from weighted ranges, completes boards
// and ranks every seat street by street.
package engine

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/poker"
)

const (
	// MaxSampleAttempts bounds rejection sampling before the exact fallback.
	MaxSampleAttempts = 1000

	// MaxSeats is the largest table the engine deals to.
	MaxSeats = 10
)

var (
	// ErrEngineUnavailable is returned while the engine is still being built.
	ErrEngineUnavailable = errors.New("evaluation engine unavailable")
	// ErrNoCombo is returned when a range has no combo left after dead cards.
	ErrNoCombo = errors.New("no combo available")
)

// Street is a board milestone.
type Street int

const (
	Flop Street = iota
	Turn
	River
)

// NumStreets is the number of evaluated streets.
const NumStreets = 3

var streetNames = [NumStreets]string{"flop", "turn", "river"}

func (s Street) String() string {
	if s < 0 || int(s) >= NumStreets {
		return "unknown"
	}
	return streetNames[s]
}

// boardSize is how many board cards a street shows.
func (s Street) boardSize() int {
	return int(s) + 3
}

// Engine is the evaluation capability. Build it once with New and share it;
// it holds no per-trial state.
type Engine struct {
	logger *log.Logger
}

// New builds the engine and checks its hand ranking tables.
func New(logger *log.Logger) (*Engine, error) {
	e := &Engine{logger: logger.WithPrefix("engine")}
	if err := e.selfCheck(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	e.logger.Debug("Engine ready")
	return e, nil
}

func (e *Engine) selfCheck() error {
	checks := []struct {
		cards string
		want  poker.HandType
	}{
		{"AsKsQsJsTs", poker.StraightFlush},
		{"As2d3h4c5s", poker.Straight},
		{"AsKd9h7c2s3d4h", poker.HighCard},
	}
	for _, c := range checks {
		cards, err := poker.ParseCards(c.cards)
		if err != nil {
			return err
		}
		if got := poker.Evaluate(poker.NewHand(cards...)).Type(); got != c.want {
			return fmt.Errorf("%s ranked %s, want %s", c.cards, got, c.want)
		}
	}
	return nil
}

// ParseRange parses range notation into combo weights.
func (e *Engine) ParseRange(notation string) (ranges.Range, error) {
	return ranges.Parse(notation)
}

// EncodeRange returns the canonical notation for combo weights.
func (e *Engine) EncodeRange(weights ranges.Weights) string {
	return ranges.FromCombos(weights).String()
}

// Sampler draws combos from a range in proportion to their weights.
type Sampler struct {
	combos     []poker.Combo
	weights    []float64
	cumulative []float64
	total      float64
}

// NewSampler prepares a range for sampling. Ranges without any combo are
// rejected with ranges.ErrInvalidRangeInput.
func (e *Engine) NewSampler(r ranges.Range) (*Sampler, error) {
	s := &Sampler{}
	for c := poker.Combo(0); c < poker.NumCombos; c++ {
		w := r.Weight(c)
		if w <= 0 {
			continue
		}
		s.total += w
		s.combos = append(s.combos, c)
		s.weights = append(s.weights, w)
		s.cumulative = append(s.cumulative, s.total)
	}
	if len(s.combos) == 0 {
		return nil, fmt.Errorf("%w: range has no combos", ranges.ErrInvalidRangeInput)
	}
	return s, nil
}

// Size returns the number of combos the sampler can produce.
func (s *Sampler) Size() int {
	return len(s.combos)
}

// Available reports whether any combo survives the dead cards.
func (s *Sampler) Available(dead poker.Hand) bool {
	for _, c := range s.combos {
		if !c.Hand().Overlaps(dead) {
			return true
		}
	}
	return false
}

// SampleCombo draws a combo that shares no card with dead.
func (e *Engine) SampleCombo(rng *rand.Rand, s *Sampler, dead poker.Hand) (poker.Combo, error) {
	for range MaxSampleAttempts {
		x := rng.Float64() * s.total
		i := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] > x })
		if i == len(s.combos) {
			i--
		}
		if c := s.combos[i]; !c.Hand().Overlaps(dead) {
			return c, nil
		}
	}

	// exact draw over the surviving combos
	var total float64
	for i, c := range s.combos {
		if !c.Hand().Overlaps(dead) {
			total += s.weights[i]
		}
	}
	if total == 0 {
		return 0, ErrNoCombo
	}
	x := rng.Float64() * total
	var last poker.Combo
	for i, c := range s.combos {
		if c.Hand().Overlaps(dead) {
			continue
		}
		last = c
		x -= s.weights[i]
		if x < 0 {
			return c, nil
		}
	}
	return last, nil
}

// Seat is one active player as the engine sees it: fixed hole cards or a
// range to sample from.
type Seat struct {
	Combo   poker.Combo
	Sampler *Sampler
}

// FixedSeat returns a seat holding two known cards.
func FixedSeat(a, b poker.Card) Seat {
	return Seat{Combo: poker.NewCombo(a, b)}
}

// RangeSeat returns a seat whose cards are drawn from s every trial.
func RangeSeat(s *Sampler) Seat {
	return Seat{Sampler: s}
}

// IsRange reports whether the seat samples its hole cards.
func (s Seat) IsRange() bool {
	return s.Sampler != nil
}

// SeatResult is what one seat made in one trial.
type SeatResult struct {
	Combo  poker.Combo
	Bucket poker.Bucket
	Ranks  [NumStreets]poker.HandRank
	// Credit is the pot share won on each street: 1 for a sole winner,
	// 1/k for each of k tied winners, 0 otherwise.
	Credit [NumStreets]float64
	// Draws is set on the flop and turn only.
	Draws [NumStreets]poker.Draws
}

// Trial is the outcome of one random deal.
type Trial struct {
	Seats []SeatResult
	Board [5]poker.Card
}

// EvaluateTrial deals one random completion and ranks every seat on the
// flop, turn and river. out is reused to avoid allocation.
func (e *Engine) EvaluateTrial(rng *rand.Rand, seats []Seat, board []poker.Card, out *Trial) error {
	if len(board) > 5 {
		return fmt.Errorf("board has %d cards", len(board))
	}
	if len(seats) > MaxSeats {
		return fmt.Errorf("%d seats exceeds the maximum of %d", len(seats), MaxSeats)
	}
	if cap(out.Seats) < len(seats) {
		out.Seats = make([]SeatResult, len(seats))
	}
	out.Seats = out.Seats[:len(seats)]

	dead := poker.NewHand(board...)
	for i, s := range seats {
		if !s.IsRange() {
			dead |= s.Combo.Hand()
			out.Seats[i].Combo = s.Combo
		}
	}

	// range seats draw in a random order so no seat gets first pick
	var order [MaxSeats]int
	n := 0
	for i, s := range seats {
		if s.IsRange() {
			order[n] = i
			n++
		}
	}
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, i := range order[:n] {
		c, err := e.SampleCombo(rng, seats[i].Sampler, dead)
		if err != nil {
			return fmt.Errorf("seat %d: %w", i, err)
		}
		dead |= c.Hand()
		out.Seats[i].Combo = c
	}

	copy(out.Board[:], board)
	if missing := 5 - len(board); missing > 0 {
		drawn := poker.NewDeckWithout(rng, dead).Draw(missing, 0)
		if len(drawn) != missing {
			return fmt.Errorf("deck exhausted completing the board")
		}
		copy(out.Board[len(board):], drawn)
	}

	for street := Flop; street <= River; street++ {
		shown := poker.NewHand(out.Board[:street.boardSize()]...)
		best := poker.NoRank
		winners := 0
		for i := range out.Seats {
			a, b := out.Seats[i].Combo.Cards()
			rank := poker.Evaluate(shown | poker.NewHand(a, b))
			out.Seats[i].Ranks[street] = rank
			out.Seats[i].Draws[street] = poker.ClassifyDraws(a, b, shown)
			switch {
			case rank < best:
				best = rank
				winners = 1
			case rank == best:
				winners++
			}
		}
		share := 1 / float64(winners)
		for i := range out.Seats {
			if out.Seats[i].Ranks[street] == best {
				out.Seats[i].Credit[street] = share
			} else {
				out.Seats[i].Credit[street] = 0
			}
		}
	}

	for i := range out.Seats {
		out.Seats[i].Bucket = out.Seats[i].Combo.Bucket()
	}
	return nil
}
