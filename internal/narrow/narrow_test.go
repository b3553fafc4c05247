package narrow

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/poker"
)

func newTestNarrower(t *testing.T, opts ...Option) *Narrower {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	eng, err := engine.New(logger)
	require.NoError(t, err)
	return New(eng, append([]Option{WithLogger(logger), WithWorkers(4)}, opts...)...)
}

func cards(t *testing.T, s string) []poker.Card {
	t.Helper()
	c, err := poker.ParseCards(s)
	require.NoError(t, err)
	return c
}

func TestByEquityRejectsBadInput(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  EquityRequest
	}{
		{"empty candidate", EquityRequest{Candidate: "", Opponents: []string{"AA"}, MinEquity: 0.5}},
		{"unparsable candidate", EquityRequest{Candidate: "AKx", Opponents: []string{"AA"}, MinEquity: 0.5}},
		{"no opponents", EquityRequest{Candidate: "AA", MinEquity: 0.5}},
		{"empty opponent", EquityRequest{Candidate: "AA", Opponents: []string{"KK", " "}, MinEquity: 0.5}},
		{"unparsable opponent", EquityRequest{Candidate: "AA", Opponents: []string{"KK,"}, MinEquity: 0.5}},
		{"threshold above one", EquityRequest{Candidate: "AA", Opponents: []string{"KK"}, MinEquity: 1.5}},
		{"negative threshold", EquityRequest{Candidate: "AA", Opponents: []string{"KK"}, MinEquity: -0.1}},
		{"NaN threshold", EquityRequest{Candidate: "AA", Opponents: []string{"KK"}, MinEquity: math.NaN()}},
		{"bad board", EquityRequest{Candidate: "AA", Opponents: []string{"KK"}, Board: cards(t, "2c3c")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := n.ByEquity(ctx, tt.req)
			require.ErrorIs(t, err, ErrInvalidRangeInput)
		})
	}
}

func TestByEquityKeepsStrongCombos(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)

	got, err := n.ByEquity(context.Background(), EquityRequest{
		Candidate:      "AA,72o",
		Opponents:      []string{"KK"},
		MinEquity:      0.5,
		TrialsPerCombo: 300,
		Seed:           1,
	})
	require.NoError(t, err)
	assert.Equal(t, "AA", got)
}

func TestByEquityShrinksAsThresholdRises(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)
	candidate := ranges.MustParse("22+,A2+")

	var previous ranges.Range
	counts := make([]int, 0, 6)
	for _, minEquity := range []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5} {
		got, err := n.ByEquity(context.Background(), EquityRequest{
			Candidate:      candidate.String(),
			Opponents:      []string{"AA"},
			MinEquity:      minEquity,
			TrialsPerCombo: 200,
			Seed:           3,
		})
		require.NoError(t, err)
		r := ranges.MustParse(got)

		if len(counts) > 0 {
			for c := poker.Combo(0); c < poker.NumCombos; c++ {
				if r.Weight(c) > 0 {
					assert.Positive(t, previous.Weight(c), "%s kept at %.1f but dropped below it", c, minEquity)
				}
			}
			assert.LessOrEqual(t, r.ComboCount(), counts[len(counts)-1])
		}
		counts = append(counts, r.ComboCount())
		previous = r
	}
	assert.Equal(t, candidate.ComboCount(), counts[0])
	assert.Less(t, counts[len(counts)-1], counts[0])
}

func TestByEquityDropsSmallPairsAgainstAces(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)

	got, err := n.ByEquity(context.Background(), EquityRequest{
		Candidate:      "22+,A2+",
		Opponents:      []string{"AA"},
		MinEquity:      0.9,
		TrialsPerCombo: 200,
		Seed:           3,
	})
	require.NoError(t, err)
	grid := ranges.MustParse(got).Grid()
	for rank := poker.Two; rank <= poker.Six; rank++ {
		pair := poker.BucketFor(rank, rank, false)
		assert.Zero(t, grid[pair], "%s survived", pair)
	}
	assert.Empty(t, got, "nothing reaches 90%% against aces")
}

func TestByEquitySkipsBoardCombos(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)

	got, err := n.ByEquity(context.Background(), EquityRequest{
		Candidate:      "AA",
		Opponents:      []string{"22"},
		MinEquity:      0,
		Board:          cards(t, "As9d4c"),
		TrialsPerCombo: 50,
	})
	require.NoError(t, err)
	r := ranges.MustParse(got)
	assert.Equal(t, 3, r.ComboCount())
	for c := poker.Combo(0); c < poker.NumCombos; c++ {
		if r.Weight(c) > 0 {
			assert.False(t, c.Hand().HasCard(poker.NewCard(poker.Ace, poker.Spades)))
		}
	}
}

func TestByEquityIsDeterministic(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)
	req := EquityRequest{
		Candidate:      "22+,A2s+,KTs+,QTs+,JTs,ATo+",
		Opponents:      []string{"TT+,AK", "22+"},
		MinEquity:      0.3,
		Board:          cards(t, "Kh8d3s"),
		TrialsPerCombo: 100,
		Seed:           99,
	}

	first, err := n.ByEquity(context.Background(), req)
	require.NoError(t, err)
	second, err := n.ByEquity(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestByEquityHonoursCancellation(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.ByEquity(ctx, EquityRequest{
		Candidate: "22+",
		Opponents: []string{"AA"},
		MinEquity: 0.5,
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestByPreferenceIsMonotonic(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)
	candidate := "22+,A2s+,K9s+,Q9s+,J9s+,T8s+,ATo+,KJo+,72o"

	var previous ranges.Range
	for level := Any; level <= AllIn; level++ {
		got, err := n.ByPreference(context.Background(), PreferenceRequest{
			Candidate:      candidate,
			MinLevel:       level,
			Opponents:      2,
			TrialsPerCombo: 200,
			Seed:           7,
		})
		require.NoError(t, err, level.String())
		r := ranges.MustParse(got)

		if level == Any {
			assert.Equal(t, ranges.MustParse(candidate).ComboCount(), r.ComboCount())
		} else {
			for c := poker.Combo(0); c < poker.NumCombos; c++ {
				if r.Weight(c) > 0 {
					assert.Positive(t, previous.Weight(c), "%s kept %s but a lower level dropped it", level, c)
				}
			}
		}
		previous = r
	}
	assert.Less(t, previous.ComboCount(), ranges.MustParse(candidate).ComboCount())
}

func TestByPreferenceRejectsBadInput(t *testing.T) {
	t.Parallel()
	n := newTestNarrower(t)
	ctx := context.Background()

	_, err := n.ByPreference(ctx, PreferenceRequest{Candidate: "", MinLevel: SmallBet, Opponents: 1})
	require.ErrorIs(t, err, ErrInvalidRangeInput)
	_, err = n.ByPreference(ctx, PreferenceRequest{Candidate: "AA", MinLevel: SmallBet, Opponents: 0})
	require.ErrorIs(t, err, ErrInvalidRangeInput)
	_, err = n.ByPreference(ctx, PreferenceRequest{Candidate: "AA", MinLevel: Level(9), Opponents: 1})
	require.ErrorIs(t, err, ErrInvalidRangeInput)
}

func TestThresholdBars(t *testing.T) {
	t.Parallel()
	th := DefaultThresholds()
	require.NoError(t, th.Validate())

	assert.Equal(t, 0.0, th.Bar(Any, 1))
	assert.InDelta(t, 0.75, th.Bar(AllIn, 1), 1e-12)
	assert.InDelta(t, 0.50, th.Bar(AllIn, 2), 1e-12)
	assert.InDelta(t, 0.15, th.Bar(SmallBet, 3), 1e-12)

	for opp := 1; opp <= 5; opp++ {
		for level := CallSmallBet; level <= AllIn; level++ {
			assert.GreaterOrEqual(t, th.Bar(level, opp), th.Bar(level-1, opp))
		}
	}

	bad := th
	bad.LargeBet = 0.1
	require.Error(t, bad.Validate())
	bad = th
	bad.AllIn = 1.2
	require.Error(t, bad.Validate())
	bad = th
	bad.SmallBet = math.NaN()
	require.Error(t, bad.Validate())
}

func TestLevelText(t *testing.T) {
	t.Parallel()
	for level := Any; level <= AllIn; level++ {
		text, err := level.MarshalText()
		require.NoError(t, err)
		var back Level
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, level, back)
	}
	_, err := ParseLevel("shove")
	require.Error(t, err)
}
