package narrow

import (
	"context"
	"fmt"
	"strings"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/poker"
)

// Level is how much a player is willing to put in with a hand.
type Level int

const (
	Any Level = iota
	CallSmallBet
	SmallBet
	LargeBet
	AllIn
)

var levelNames = [...]string{"any", "call_small_bet", "small_bet", "large_bet", "all_in"}

func (l Level) String() string {
	if l < Any || l > AllIn {
		return "unknown"
	}
	return levelNames[l]
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if l < Any || l > AllIn {
		return nil, fmt.Errorf("unknown level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses a level name such as "small_bet".
func ParseLevel(name string) (Level, error) {
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}
	return Any, fmt.Errorf("unknown level %q", name)
}

// Thresholds are the heads-up equities a hand needs for each level.
type Thresholds struct {
	CallSmallBet float64
	SmallBet     float64
	LargeBet     float64
	AllIn        float64
}

// DefaultThresholds returns the standard bars.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CallSmallBet: 0.15,
		SmallBet:     0.30,
		LargeBet:     0.50,
		AllIn:        0.75,
	}
}

// Validate checks the bars are in [0,1] and non-decreasing.
func (t Thresholds) Validate() error {
	bars := []float64{0, t.CallSmallBet, t.SmallBet, t.LargeBet, t.AllIn}
	for i, b := range bars {
		if !(b >= 0 && b <= 1) {
			return fmt.Errorf("threshold for %s is %v, outside [0,1]", Level(i), b)
		}
		if i > 0 && b < bars[i-1] {
			return fmt.Errorf("threshold for %s is below %s", Level(i), Level(i-1))
		}
	}
	return nil
}

// Bar returns the equity a hand needs for level against n opponents. The
// heads-up bar scales by 2/(n+1), the fair share against n+1 players
// relative to heads-up.
func (t Thresholds) Bar(level Level, opponents int) float64 {
	var bar float64
	switch level {
	case CallSmallBet:
		bar = t.CallSmallBet
	case SmallBet:
		bar = t.SmallBet
	case LargeBet:
		bar = t.LargeBet
	case AllIn:
		bar = t.AllIn
	default:
		return 0
	}
	if opponents < 1 {
		opponents = 1
	}
	return bar * 2 / float64(opponents+1)
}

// PreferenceRequest keeps the candidate combos a player would play at
// MinLevel or above against Opponents random hands.
type PreferenceRequest struct {
	Candidate      string
	MinLevel       Level
	Board          []poker.Card
	Opponents      int
	TrialsPerCombo int
	Seed           int64
}

// ByPreference returns the canonical notation of the surviving combos.
// Raising MinLevel never adds combos.
func (n *Narrower) ByPreference(ctx context.Context, req PreferenceRequest) (string, error) {
	if req.MinLevel < Any || req.MinLevel > AllIn {
		return "", fmt.Errorf("%w: unknown level %d", ErrInvalidRangeInput, int(req.MinLevel))
	}
	if req.Opponents < 1 || req.Opponents+1 > engine.MaxSeats {
		return "", fmt.Errorf("%w: opponents must be between 1 and %d, got %d", ErrInvalidRangeInput, engine.MaxSeats-1, req.Opponents)
	}
	candidate, err := n.parseCandidate(req.Candidate)
	if err != nil {
		return "", err
	}
	if err := checkBoard(req.Board); err != nil {
		return "", err
	}

	random, err := n.engine.NewSampler(anyTwo)
	if err != nil {
		return "", err
	}
	opponents := make([]*engine.Sampler, req.Opponents)
	for i := range opponents {
		opponents[i] = random
	}

	return n.filter(ctx, filterParams{
		candidate: candidate,
		opponents: opponents,
		board:     req.Board,
		bar:       n.thresholds.Bar(req.MinLevel, req.Opponents),
		trials:    n.trialBudget(req.TrialsPerCombo),
		seed:      req.Seed,
	})
}

// anyTwo holds every combo at full weight.
var anyTwo = func() ranges.Range {
	var w ranges.Weights
	for i := range w {
		w[i] = 1
	}
	return ranges.FromCombos(w)
}()
