package ranges

import (
	"math"
	"strconv"
	"strings"

	"github.com/eric7237cire/poker-eval/poker"
)

// weightPrecision is the resolution weights are written with.
const weightPrecision = 1e4

// String returns the canonical notation: pairs from the top down, then each
// high card from Ace down with suited groups before offsuit ones. A bucket
// whose combos carry different weights is written as explicit combos.
func (r Range) String() string {
	if r.weights == nil {
		return ""
	}

	// uniform bucket weight, or -1 when the combos disagree
	var cell [poker.NumBuckets]float64
	for b := poker.Bucket(0); b < poker.NumBuckets; b++ {
		combos := b.Combos()
		v := roundWeight(r.weights[combos[0]])
		for _, c := range combos[1:] {
			if roundWeight(r.weights[c]) != v {
				v = -1
				break
			}
		}
		cell[b] = v
	}

	var tokens []string
	tokens = appendPairs(tokens, &cell)
	for hi := int(poker.Ace); hi >= int(poker.Three); hi-- {
		tokens = appendHighCard(tokens, &cell, uint8(hi))
	}
	for b := poker.Bucket(0); b < poker.NumBuckets; b++ {
		if cell[b] >= 0 {
			continue
		}
		for _, c := range b.Combos() {
			if w := roundWeight(r.weights[c]); w > 0 {
				tokens = append(tokens, c.String()+weightSuffix(w))
			}
		}
	}
	return strings.Join(tokens, ",")
}

func roundWeight(v float64) float64 {
	return math.Round(v*weightPrecision) / weightPrecision
}

func weightSuffix(w float64) string {
	if w >= 1 {
		return ""
	}
	return ":" + strconv.FormatFloat(w, 'f', -1, 64)
}

// run is a maximal stretch of equally weighted ranks, top is the higher one.
type run struct {
	top, bottom uint8
	weight      float64
}

// runs groups ranks from top down to bottom by the weight reported by at.
func runs(top, bottom uint8, at func(rank uint8) float64) []run {
	var out []run
	var cur *run
	for rank := int(top); rank >= int(bottom); rank-- {
		w := at(uint8(rank))
		if w <= 0 {
			cur = nil
			continue
		}
		if cur != nil && cur.weight == w {
			cur.bottom = uint8(rank)
			continue
		}
		out = append(out, run{top: uint8(rank), bottom: uint8(rank), weight: w})
		cur = &out[len(out)-1]
	}
	return out
}

func appendPairs(tokens []string, cell *[poker.NumBuckets]float64) []string {
	pairs := runs(poker.Ace, poker.Two, func(rank uint8) float64 {
		return cell[poker.BucketFor(rank, rank, false)]
	})
	for _, p := range pairs {
		top := pairLabel(p.top)
		bottom := pairLabel(p.bottom)
		var tok string
		switch {
		case p.top == p.bottom:
			tok = top
		case p.top == poker.Ace:
			tok = bottom + "+"
		default:
			tok = top + "-" + bottom
		}
		tokens = append(tokens, tok+weightSuffix(p.weight))
	}
	return tokens
}

func appendHighCard(tokens []string, cell *[poker.NumBuckets]float64, hi uint8) []string {
	suited := func(lo uint8) float64 { return cell[poker.BucketFor(hi, lo, true)] }
	offsuit := func(lo uint8) float64 { return cell[poker.BucketFor(hi, lo, false)] }

	same := true
	for lo := uint8(0); lo < hi; lo++ {
		if suited(lo) != offsuit(lo) {
			same = false
			break
		}
	}
	if same {
		return appendKickerRuns(tokens, hi, "", runs(hi-1, poker.Two, suited))
	}
	tokens = appendKickerRuns(tokens, hi, "s", runs(hi-1, poker.Two, suited))
	return appendKickerRuns(tokens, hi, "o", runs(hi-1, poker.Two, offsuit))
}

func appendKickerRuns(tokens []string, hi uint8, suffix string, kickers []run) []string {
	for _, k := range kickers {
		top := handLabel(hi, k.top) + suffix
		bottom := handLabel(hi, k.bottom) + suffix
		var tok string
		switch {
		case k.top == k.bottom:
			tok = top
		case k.top == hi-1:
			tok = bottom + "+"
		default:
			tok = top + "-" + bottom
		}
		tokens = append(tokens, tok+weightSuffix(k.weight))
	}
	return tokens
}

func pairLabel(rank uint8) string {
	return handLabel(rank, rank)
}

func handLabel(hi, lo uint8) string {
	return string([]byte{poker.RankChar(hi), poker.RankChar(lo)})
}
