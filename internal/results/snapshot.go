package results

import (
	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/poker"
)

// FamilyShare reports one hand family: Perc is the share of trials ending
// in exactly this family, Better the share ending in it or anything stronger.
type FamilyShare struct {
	Perc   float64 `json:"perc"`
	Better float64 `json:"better"`
}

// StreetResult is the reportable view of a StreetTally.
type StreetResult struct {
	Street         string  `json:"street"`
	Trials         uint64  `json:"trials"`
	Equity         float64 `json:"equity"`
	WinRate        float64 `json:"winRate"`
	TieRate        float64 `json:"tieRate"`
	LossRate       float64 `json:"lossRate"`
	ConfidenceLow  float64 `json:"confidenceLow"`
	ConfidenceHigh float64 `json:"confidenceHigh"`

	WinRankHistogram  [poker.NumHandTypes]FamilyShare `json:"winRankHistogram"`
	LoseRankHistogram [poker.NumHandTypes]FamilyShare `json:"loseRankHistogram"`

	// PerBucketEquity is nil for buckets that were never dealt.
	PerBucketEquity  [poker.NumBuckets]*float64 `json:"perBucketEquity"`
	PerBucketSamples [poker.NumBuckets]uint64   `json:"perBucketSamples"`

	// Draws maps each draw kind to the share of trials holding it. It is
	// nil on the river.
	Draws map[string]float64 `json:"draws,omitempty"`
}

// PlayerResult holds one seat's results per street.
type PlayerResult struct {
	Seat    int                              `json:"seat"`
	Streets [engine.NumStreets]StreetResult `json:"streets"`
}

// Snapshot is an immutable view of an accumulator.
type Snapshot struct {
	Trials  uint64         `json:"trials"`
	Players []PlayerResult `json:"players"`
	// Villain is the best hand among all seats but the first.
	Villain *PlayerResult `json:"villain,omitempty"`
}

// Build derives a snapshot. It does not modify acc.
func Build(acc *Accumulator) *Snapshot {
	snap := &Snapshot{
		Trials:  acc.Trials,
		Players: make([]PlayerResult, len(acc.Players)),
	}
	for i := range acc.Players {
		snap.Players[i] = buildPlayer(acc.Seats[i], &acc.Players[i])
	}
	if len(acc.Players) > 1 {
		v := buildPlayer(-1, &acc.Villain)
		snap.Villain = &v
	}
	return snap
}

func buildPlayer(seat int, p *PlayerTally) PlayerResult {
	out := PlayerResult{Seat: seat}
	for street := range engine.NumStreets {
		out.Streets[street] = buildStreet(engine.Street(street), &p[street])
	}
	return out
}

func buildStreet(street engine.Street, s *StreetTally) StreetResult {
	r := StreetResult{
		Street:   street.String(),
		Trials:   s.Trials,
		Equity:   s.Equity(),
		WinRate:  s.WinRate(),
		TieRate:  s.TieRate(),
		LossRate: s.LossRate(),
	}
	r.ConfidenceLow, r.ConfidenceHigh = s.ConfidenceInterval()
	r.WinRankHistogram = histogram(&s.WinFamily, s.Trials)
	r.LoseRankHistogram = histogram(&s.LoseFamily, s.Trials)

	for b := poker.Bucket(0); b < poker.NumBuckets; b++ {
		r.PerBucketSamples[b] = s.BucketTrials[b]
		if eq, ok := s.BucketEquity(b); ok {
			r.PerBucketEquity[b] = &eq
		}
	}
	if street != engine.River {
		r.Draws = make(map[string]float64, poker.NumDrawKinds)
		for i := range poker.NumDrawKinds {
			r.Draws[poker.DrawName(i)] = s.DrawRate(i)
		}
	}
	return r
}

func histogram(counts *[poker.NumHandTypes]float64, trials uint64) [poker.NumHandTypes]FamilyShare {
	var out [poker.NumHandTypes]FamilyShare
	if trials == 0 {
		return out
	}
	n := float64(trials)
	better := 0.0
	for f := poker.NumHandTypes - 1; f >= 0; f-- {
		perc := counts[f] / n
		better += perc
		out[f] = FamilyShare{Perc: perc, Better: better}
	}
	return out
}
