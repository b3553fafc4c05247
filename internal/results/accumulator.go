// Package results accumulates trial outcomes and derives reportable
// snapshots from them.
package results

import (
	"fmt"
	"math"
	"slices"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/poker"
)

// StreetTally holds the raw counters for one player on one street.
type StreetTally struct {
	Trials uint64
	Wins   uint64
	Ties   uint64
	Losses uint64
	// Credit is the summed pot share, so Credit/Trials is equity.
	Credit float64

	// WinFamily gets the credit of every won or split trial under the
	// family reached. LoseFamily counts outright losses only.
	WinFamily  [poker.NumHandTypes]float64
	LoseFamily [poker.NumHandTypes]float64

	BucketCredit [poker.NumBuckets]float64
	BucketTrials [poker.NumBuckets]uint64

	// Draws counts trials holding each draw, indexed like poker.DrawKind.
	Draws [poker.NumDrawKinds]uint64
}

func (s *StreetTally) record(family poker.HandType, bucket poker.Bucket, credit float64, draws poker.Draws) {
	s.Trials++
	switch {
	case credit >= 1:
		s.Wins++
	case credit > 0:
		s.Ties++
	default:
		s.Losses++
	}
	s.Credit += credit
	if credit > 0 {
		s.WinFamily[family] += credit
	} else {
		s.LoseFamily[family]++
	}
	s.BucketCredit[bucket] += credit
	s.BucketTrials[bucket]++
	for i := range s.Draws {
		if draws.Has(poker.DrawKind(i)) {
			s.Draws[i]++
		}
	}
}

func (s *StreetTally) merge(o *StreetTally) {
	s.Trials += o.Trials
	s.Wins += o.Wins
	s.Ties += o.Ties
	s.Losses += o.Losses
	s.Credit += o.Credit
	for i := range s.WinFamily {
		s.WinFamily[i] += o.WinFamily[i]
		s.LoseFamily[i] += o.LoseFamily[i]
	}
	for i := range s.BucketCredit {
		s.BucketCredit[i] += o.BucketCredit[i]
		s.BucketTrials[i] += o.BucketTrials[i]
	}
	for i := range s.Draws {
		s.Draws[i] += o.Draws[i]
	}
}

// Equity returns Credit/Trials, or 0 before any trial.
func (s *StreetTally) Equity() float64 {
	if s.Trials == 0 {
		return 0
	}
	return s.Credit / float64(s.Trials)
}

// WinRate returns the share of trials won outright.
func (s *StreetTally) WinRate() float64 {
	return ratio(s.Wins, s.Trials)
}

// TieRate returns the share of trials that split the pot.
func (s *StreetTally) TieRate() float64 {
	return ratio(s.Ties, s.Trials)
}

// LossRate returns the share of trials lost.
func (s *StreetTally) LossRate() float64 {
	return ratio(s.Losses, s.Trials)
}

// ConfidenceInterval returns the 95% confidence interval for equity.
func (s *StreetTally) ConfidenceInterval() (lower, upper float64) {
	if s.Trials == 0 {
		return 0, 0
	}
	equity := s.Equity()
	se := math.Sqrt(equity * (1 - equity) / float64(s.Trials))
	margin := 1.96 * se
	return math.Max(0, equity-margin), math.Min(1, equity+margin)
}

// DrawRate returns the share of trials holding draw kind i.
func (s *StreetTally) DrawRate(i int) float64 {
	return ratio(s.Draws[i], s.Trials)
}

// BucketEquity returns the equity of one starting hand bucket and false
// when the bucket was never dealt.
func (s *StreetTally) BucketEquity(b poker.Bucket) (float64, bool) {
	if s.BucketTrials[b] == 0 {
		return 0, false
	}
	return s.BucketCredit[b] / float64(s.BucketTrials[b]), true
}

func ratio(n, d uint64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// PlayerTally is one player's counters for the flop, turn and river.
type PlayerTally [engine.NumStreets]StreetTally

// Accumulator collects trials for one configuration. The first seat is the
// hero; Villain tracks the best hand among everyone else, and the draws
// any of them hold.
type Accumulator struct {
	Seats   []int
	Players []PlayerTally
	Villain PlayerTally
	Trials  uint64
}

// NewAccumulator returns an empty accumulator for the given seat ids.
func NewAccumulator(seats []int) *Accumulator {
	return &Accumulator{
		Seats:   slices.Clone(seats),
		Players: make([]PlayerTally, len(seats)),
	}
}

// Record folds a single trial in.
func (a *Accumulator) Record(t *engine.Trial) error {
	if len(t.Seats) != len(a.Players) {
		return fmt.Errorf("trial has %d seats, accumulator %d", len(t.Seats), len(a.Players))
	}
	for i := range t.Seats {
		seat := &t.Seats[i]
		for street := range engine.NumStreets {
			a.Players[i][street].record(seat.Ranks[street].Type(), seat.Bucket, seat.Credit[street], seat.Draws[street])
		}
	}
	if len(t.Seats) > 1 {
		for street := range engine.NumStreets {
			best := 1
			credit := 0.0
			var draws poker.Draws
			for i := 1; i < len(t.Seats); i++ {
				if t.Seats[i].Ranks[street] < t.Seats[best].Ranks[street] {
					best = i
				}
				credit += t.Seats[i].Credit[street]
				draws = draws.Merge(t.Seats[i].Draws[street])
			}
			v := &t.Seats[best]
			a.Villain[street].record(v.Ranks[street].Type(), v.Bucket, credit, draws)
		}
	}
	a.Trials++
	return nil
}

// Merge adds another accumulator for the same seats into a.
func (a *Accumulator) Merge(o *Accumulator) error {
	if !slices.Equal(a.Seats, o.Seats) {
		return fmt.Errorf("cannot merge accumulators for seats %v and %v", a.Seats, o.Seats)
	}
	for i := range a.Players {
		for street := range engine.NumStreets {
			a.Players[i][street].merge(&o.Players[i][street])
		}
	}
	for street := range engine.NumStreets {
		a.Villain[street].merge(&o.Villain[street])
	}
	a.Trials += o.Trials
	return nil
}

// Clone returns a deep copy.
func (a *Accumulator) Clone() *Accumulator {
	return &Accumulator{
		Seats:   slices.Clone(a.Seats),
		Players: slices.Clone(a.Players),
		Villain: a.Villain,
		Trials:  a.Trials,
	}
}

// Fold returns a new accumulator holding acc plus every batch. acc is left
// untouched, so a failed fold never disturbs the caller's state.
func Fold(acc *Accumulator, batches ...*Accumulator) (*Accumulator, error) {
	out := acc.Clone()
	for _, b := range batches {
		if err := out.Merge(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}
