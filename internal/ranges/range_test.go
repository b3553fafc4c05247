package ranges

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eric7237cire/poker-eval/poker"
)

func bucket(t *testing.T, label string) poker.Bucket {
	t.Helper()
	for b := poker.Bucket(0); b < poker.NumBuckets; b++ {
		if b.String() == label {
			return b
		}
	}
	t.Fatalf("unknown bucket %q", label)
	return 0
}

func TestParseCombos(t *testing.T) {
	t.Parallel()

	tests := []struct {
		notation string
		combos   int
	}{
		{"", 0},
		{"   ", 0},
		{"AA", 6},
		{"AKs", 4},
		{"AKo", 12},
		{"AK", 16},
		{"AA,KK,QQ", 18},
		{"TT+", 30},
		{"22-66", 30},
		{"66-22", 30},
		{"ATs+", 16},
		{"A5s-A2s", 16},
		{"KJo+", 24},
		{"Q4o+", 8 * 12},
		{"A2+", 12 * 16},
		{"K9-K6", 4 * 16},
		{"AhKh", 1},
		{"AhKh, AsKs", 2},
		{" 77+ , AJs+ ", 8*6 + 3*4},
		{"AKo:0.5", 12},
	}

	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			t.Parallel()
			r, err := Parse(tt.notation)
			require.NoError(t, err)
			assert.Equal(t, tt.combos, r.ComboCount())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, notation := range []string{
		"AA,",
		",AA",
		"AA,,KK",
		"XX",
		"AKx",
		"AAs",
		"AAo+",
		"AK+s",
		"A+K",
		"22-",
		"-22",
		"22-AKs",
		"AKs-QJs",
		"A5s-A2o",
		"AK:0",
		"AK:1.5",
		"AK:abc",
		"AhAh",
		"AhKx",
		"AKQJ",
	} {
		t.Run(notation, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(notation)
			require.ErrorIs(t, err, ErrInvalidRangeSyntax)
		})
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	r := MustParse("AA,KK,QQ")
	assert.InDelta(t, 18.0/1326.0, r.Percent(), 1e-12)

	w := r.Combos()
	total := 0
	for c, v := range w {
		switch v {
		case 1:
			total++
			assert.True(t, poker.Combo(c).Bucket().IsPair())
		case 0:
		default:
			t.Fatalf("unexpected weight %v", v)
		}
	}
	assert.Equal(t, 18, total)

	assert.Zero(t, Empty().Percent())
	assert.InDelta(t, 1.0, MustParse("22+,A2+,K2+,Q2+,J2+,T2+,92+,82+,72+,62+,52+,42+,32").Percent(), 1e-12)
}

func TestLaterTokensOverwrite(t *testing.T) {
	t.Parallel()

	r := MustParse("AK,AKo:0.25")
	grid := r.Grid()
	assert.InDelta(t, 100, grid[bucket(t, "AKs")], 1e-9)
	assert.InDelta(t, 25, grid[bucket(t, "AKo")], 1e-9)
}

func TestCanonicalString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"QQ,KK,AA", "QQ+"},
		{"77+,AJs+", "77+,AJs+"},
		{"66,55,44", "66-44"},
		{"AA,99", "AA,99"},
		{"AKs,AKo", "AK"},
		{"A2s+,A2o+", "A2+"},
		{"A5s-A2s,KQo", "A5s-A2s,KQo"},
		{"KTs+,KJo+", "KTs+,KJo+"},
		{"K9-K6", "K9-K6"},
		{"AKo:0.5,AKs", "AKs,AKo:0.5"},
		{"T2o:0.45", "T2o:0.45"},
		{"AhKh", "AhKh"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MustParse(tt.in).String())
		})
	}
}

func TestCanonicalMixedBucket(t *testing.T) {
	t.Parallel()

	got := MustParse("AKs,AhKh:0.5").String()
	assert.ElementsMatch(t, []string{"AhKh:0.5", "AdKd", "AcKc", "AsKs"}, strings.Split(got, ","))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, notation := range []string{
		"77+,AJs+",
		"22+,A2s+,KTs+,QTs+,JTs,ATo+,KJo+",
		"TT-55,A9s-A6s:0.5,KQ,T2o:0.45",
		"AhKh,AsKs,QJs:0.33",
		"Q4o+,32",
	} {
		t.Run(notation, func(t *testing.T) {
			t.Parallel()
			r := MustParse(notation)
			again, err := Parse(r.String())
			require.NoError(t, err)

			want, got := r.Grid(), again.Grid()
			for b := range want {
				assert.InDelta(t, want[b], got[b], 0.5, "bucket %s", poker.Bucket(b))
			}
		})
	}
}

func TestFromGrid(t *testing.T) {
	t.Parallel()

	var g Grid
	g[bucket(t, "AA")] = 100
	g[bucket(t, "AKs")] = 50
	g[bucket(t, "72o")] = 100

	r := FromGrid(g)
	assert.Equal(t, "AA,AKs:0.5,72o", r.String())
	assert.Equal(t, r.String(), r.Source())
	assert.Equal(t, 6+4+12, r.ComboCount())
	assert.Equal(t, g, r.Grid())
}

func TestWithCell(t *testing.T) {
	t.Parallel()

	r := MustParse("AA")
	next, err := r.WithCell(0, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, "AA,AKs", next.String())
	assert.Equal(t, "AA", r.String(), "original range must not change")

	removed, err := next.WithCell(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "AKs", removed.String())

	_, err = r.WithCell(13, 0, 50)
	require.Error(t, err)
	_, err = r.WithCell(0, 0, 101)
	require.Error(t, err)
}

func TestFromCombosClamps(t *testing.T) {
	t.Parallel()

	var w Weights
	w[0] = 2
	w[1] = -1
	r := FromCombos(w)
	assert.Equal(t, 1.0, r.Weight(0))
	assert.Equal(t, 0.0, r.Weight(1))
	assert.Equal(t, 1, r.ComboCount())
}
