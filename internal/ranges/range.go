// Package ranges converts between range notation, the 13x13 bucket grid and
// per-combo weights.
package ranges

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eric7237cire/poker-eval/poker"
)

var (
	// ErrInvalidRangeSyntax is returned for malformed range notation.
	ErrInvalidRangeSyntax = errors.New("invalid range syntax")
	// ErrInvalidRangeInput is returned when a range cannot supply any combo.
	ErrInvalidRangeInput = errors.New("invalid range input")
)

// Weights holds one inclusion weight in [0,1] per combo.
type Weights [poker.NumCombos]float64

// Grid holds one weight in [0,100] per starting hand bucket.
type Grid [poker.NumBuckets]float64

// Range is an immutable set of weighted combos. The grid and the canonical
// string are always derived from the combo weights.
type Range struct {
	weights *Weights
	source  string
}

// Empty returns a range without any combos.
func Empty() Range {
	return Range{}
}

// Parse reads comma separated range notation such as "77+,AJs+,KQo:0.5,AhKh".
func Parse(notation string) (Range, error) {
	source := strings.TrimSpace(notation)
	if source == "" {
		return Range{source: source}, nil
	}

	w := new(Weights)
	for i, token := range strings.Split(source, ",") {
		token = strings.Join(strings.Fields(token), "")
		if token == "" {
			return Range{}, fmt.Errorf("%w: empty token at position %d", ErrInvalidRangeSyntax, i+1)
		}
		if err := w.applyToken(token); err != nil {
			return Range{}, fmt.Errorf("%w: token %q: %v", ErrInvalidRangeSyntax, token, err)
		}
	}

	return Range{weights: w, source: source}, nil
}

// MustParse is Parse for notation known to be valid.
func MustParse(notation string) Range {
	r, err := Parse(notation)
	if err != nil {
		panic(err)
	}
	return r
}

// FromCombos builds a range from raw combo weights, clamped to [0,1].
func FromCombos(weights Weights) Range {
	w := new(Weights)
	for i, v := range weights {
		w[i] = clamp01(v)
	}
	r := Range{weights: w}
	r.source = r.String()
	return r
}

// FromGrid builds a range from bucket weights in [0,100].
func FromGrid(grid Grid) Range {
	w := new(Weights)
	for b := poker.Bucket(0); b < poker.NumBuckets; b++ {
		v := clamp01(grid[b] / 100)
		for _, c := range b.Combos() {
			w[c] = v
		}
	}
	r := Range{weights: w}
	r.source = r.String()
	return r
}

// Source returns the notation the range was parsed from, or its canonical
// form when built from weights.
func (r Range) Source() string {
	return r.source
}

// Weight returns the weight of a single combo.
func (r Range) Weight(c poker.Combo) float64 {
	if r.weights == nil {
		return 0
	}
	return r.weights[c]
}

// Combos returns a copy of the combo weights.
func (r Range) Combos() Weights {
	if r.weights == nil {
		return Weights{}
	}
	return *r.weights
}

// Grid returns the average weight of each bucket scaled to [0,100].
func (r Range) Grid() Grid {
	var g Grid
	if r.weights == nil {
		return g
	}
	for b := poker.Bucket(0); b < poker.NumBuckets; b++ {
		combos := b.Combos()
		var sum float64
		for _, c := range combos {
			sum += r.weights[c]
		}
		g[b] = 100 * sum / float64(len(combos))
	}
	return g
}

// Percent returns the weighted share of all 1326 combos included, in [0,1].
func (r Range) Percent() float64 {
	if r.weights == nil {
		return 0
	}
	var sum float64
	for _, v := range r.weights {
		sum += v
	}
	return sum / poker.NumCombos
}

// ComboCount returns how many combos carry a positive weight.
func (r Range) ComboCount() int {
	if r.weights == nil {
		return 0
	}
	n := 0
	for _, v := range r.weights {
		if v > 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no combo has a positive weight.
func (r Range) IsEmpty() bool {
	return r.ComboCount() == 0
}

// WithBucket returns a copy of the range with every combo of one bucket set
// to pct/100.
func (r Range) WithBucket(b poker.Bucket, pct float64) (Range, error) {
	if b >= poker.NumBuckets {
		return r, fmt.Errorf("%w: bucket %d out of range", ErrInvalidRangeInput, b)
	}
	if pct < 0 || pct > 100 || math.IsNaN(pct) {
		return r, fmt.Errorf("%w: bucket weight %v outside [0,100]", ErrInvalidRangeInput, pct)
	}
	w := r.Combos()
	for _, c := range b.Combos() {
		w[c] = pct / 100
	}
	return FromCombos(w), nil
}

// WithCell is WithBucket addressed by grid row and column.
func (r Range) WithCell(row, col int, pct float64) (Range, error) {
	if row < 0 || row >= poker.NumRanks || col < 0 || col >= poker.NumRanks {
		return r, fmt.Errorf("%w: cell (%d,%d) outside the grid", ErrInvalidRangeInput, row, col)
	}
	return r.WithBucket(poker.BucketAt(row, col), pct)
}

func (w *Weights) applyToken(token string) error {
	body, weight, err := splitWeight(token)
	if err != nil {
		return err
	}

	if isSpecificCombo(body) {
		c, err := poker.ParseCombo(body)
		if err != nil {
			return err
		}
		w[c] = weight
		return nil
	}

	buckets, err := expandToken(body)
	if err != nil {
		return err
	}
	for _, b := range buckets {
		for _, c := range b.Combos() {
			w[c] = weight
		}
	}
	return nil
}

func splitWeight(token string) (string, float64, error) {
	body, ws, found := strings.Cut(token, ":")
	if !found {
		return body, 1, nil
	}
	v, err := strconv.ParseFloat(ws, 64)
	if err != nil || math.IsNaN(v) {
		return "", 0, fmt.Errorf("invalid weight %q", ws)
	}
	if v <= 0 || v > 1 {
		return "", 0, fmt.Errorf("weight %v outside (0,1]", v)
	}
	return body, v, nil
}

func isSpecificCombo(body string) bool {
	return len(body) == 4 && isSuitChar(body[1]) && isSuitChar(body[3])
}

func isSuitChar(ch byte) bool {
	switch ch {
	case 'c', 'd', 'h', 's', 'C', 'D', 'H', 'S':
		return true
	}
	return false
}

// hand is one parsed "AK", "AKs", "AKo" or "TT" group.
type hand struct {
	hi, lo          uint8
	suited, offsuit bool
	suffix          byte
}

func parseHand(s string) (hand, error) {
	if len(s) < 2 || len(s) > 3 {
		return hand{}, fmt.Errorf("invalid hand %q", s)
	}
	r1, err := poker.ParseRank(s[0])
	if err != nil {
		return hand{}, err
	}
	r2, err := poker.ParseRank(s[1])
	if err != nil {
		return hand{}, err
	}
	h := hand{hi: max(r1, r2), lo: min(r1, r2), suited: true, offsuit: true}
	if len(s) == 3 {
		h.suffix = s[2]
		switch s[2] {
		case 's', 'S':
			h.offsuit = false
		case 'o', 'O':
			h.suited = false
		default:
			return hand{}, fmt.Errorf("invalid modifier %q", s[2])
		}
		if h.hi == h.lo {
			return hand{}, fmt.Errorf("pair %q cannot be suited or offsuit", s)
		}
	}
	return h, nil
}

func (h hand) buckets(lo uint8) []poker.Bucket {
	if h.hi == lo {
		return []poker.Bucket{poker.BucketFor(lo, lo, false)}
	}
	var out []poker.Bucket
	if h.suited {
		out = append(out, poker.BucketFor(h.hi, lo, true))
	}
	if h.offsuit {
		out = append(out, poker.BucketFor(h.hi, lo, false))
	}
	return out
}

func expandToken(body string) ([]poker.Bucket, error) {
	switch {
	case strings.Contains(body, "+"):
		return expandPlus(body)
	case strings.Contains(body, "-"):
		return expandDash(body)
	}
	h, err := parseHand(body)
	if err != nil {
		return nil, err
	}
	return h.buckets(h.lo), nil
}

// expandPlus handles "TT+" (TT through AA) and "ATs+" (AT through AK).
func expandPlus(body string) ([]poker.Bucket, error) {
	base, ok := strings.CutSuffix(body, "+")
	if !ok || strings.ContainsAny(base, "+-") {
		return nil, fmt.Errorf("misplaced '+'")
	}
	h, err := parseHand(base)
	if err != nil {
		return nil, err
	}

	var out []poker.Bucket
	if h.hi == h.lo {
		for rank := h.lo; rank <= poker.Ace; rank++ {
			out = append(out, poker.BucketFor(rank, rank, false))
		}
		return out, nil
	}
	for lo := h.lo; lo < h.hi; lo++ {
		out = append(out, h.buckets(lo)...)
	}
	return out, nil
}

// expandDash handles "22-66" and "A5s-A2s".
func expandDash(body string) ([]poker.Bucket, error) {
	left, right, _ := strings.Cut(body, "-")
	if left == "" || right == "" || strings.Contains(right, "-") {
		return nil, fmt.Errorf("malformed '-' range")
	}
	start, err := parseHand(left)
	if err != nil {
		return nil, err
	}
	end, err := parseHand(right)
	if err != nil {
		return nil, err
	}

	startPair, endPair := start.hi == start.lo, end.hi == end.lo
	var out []poker.Bucket
	switch {
	case startPair && endPair:
		for rank := min(start.lo, end.lo); rank <= max(start.lo, end.lo); rank++ {
			out = append(out, poker.BucketFor(rank, rank, false))
		}
	case !startPair && !endPair && start.hi == end.hi && start.suited == end.suited && start.offsuit == end.offsuit:
		for lo := min(start.lo, end.lo); lo <= max(start.lo, end.lo); lo++ {
			out = append(out, start.buckets(lo)...)
		}
	default:
		return nil, fmt.Errorf("mismatched range endpoints %q and %q", left, right)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}
