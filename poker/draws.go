package poker

import (
	"math/bits"
	"strings"
)

// Draws is the set of drawing and pairing features a starting hand has on
// a flop or turn.
type Draws uint16

const (
	// GutShot needs one specific rank to make a straight.
	GutShot Draws = 1 << iota
	// StraightDraw is open ended or a double gut shot: two ranks complete it.
	StraightDraw
	FlushDraw
	// BackdoorFlushDraw needs both the turn and river on a flop.
	BackdoorFlushDraw
	OneOvercard
	TwoOvercards
	LowCardPaired
	HighCardPaired
	PocketPair
)

// NumDrawKinds is the number of distinct Draws flags.
const NumDrawKinds = 9

var drawNames = [NumDrawKinds]string{
	"gutShot",
	"straightDraw",
	"flushDraw",
	"backdoorFlushDraw",
	"oneOvercard",
	"twoOvercards",
	"loPaired",
	"hiPaired",
	"ppPaired",
}

// DrawKind returns the single flag with index i.
func DrawKind(i int) Draws {
	return 1 << i
}

// DrawName returns the report key of the flag with index i.
func DrawName(i int) string {
	if i < 0 || i >= NumDrawKinds {
		return "unknown"
	}
	return drawNames[i]
}

// Has reports whether every flag in k is set.
func (d Draws) Has(k Draws) bool {
	return d&k == k
}

// Merge combines the draws of several hands, keeping only the stronger of
// two related flags.
func (d Draws) Merge(o Draws) Draws {
	m := d | o
	if m.Has(FlushDraw) {
		m &^= BackdoorFlushDraw
	}
	if m.Has(StraightDraw) {
		m &^= GutShot
	}
	if m.Has(TwoOvercards) {
		m &^= OneOvercard
	}
	return m
}

func (d Draws) String() string {
	var names []string
	for i := range NumDrawKinds {
		if d.Has(DrawKind(i)) {
			names = append(names, drawNames[i])
		}
	}
	return strings.Join(names, ",")
}

// ClassifyDraws describes hole cards a and b against a flop or turn board.
// Other board sizes have no draws.
func ClassifyDraws(a, b Card, board Hand) Draws {
	n := board.CountCards()
	if n < 3 || n > 4 {
		return 0
	}
	hole := NewHand(a, b)
	var d Draws

	for suit := range uint8(4) {
		held := bits.OnesCount16(hole.GetSuitMask(suit))
		shown := bits.OnesCount16(board.GetSuitMask(suit))
		if held == 0 || shown == 0 {
			continue
		}
		switch {
		case held+shown == 4:
			d |= FlushDraw
		case held+shown == 3 && n == 3:
			d |= BackdoorFlushDraw
		}
	}
	if d.Has(FlushDraw) {
		d &^= BackdoorFlushDraw
	}

	boardRanks := rankMask(board)
	switch outs := bits.OnesCount16(straightOuts(boardRanks, rankMask(hole))); {
	case outs == 1:
		d |= GutShot
	case outs > 1:
		d |= StraightDraw
	}

	hi, lo := a.Rank(), b.Rank()
	if lo > hi {
		hi, lo = lo, hi
	}
	if hi == lo {
		return d | PocketPair
	}
	hiPaired := boardRanks&(1<<hi) != 0
	loPaired := boardRanks&(1<<lo) != 0
	if hiPaired {
		d |= HighCardPaired
	}
	if loPaired {
		d |= LowCardPaired
	}
	top := highest(boardRanks)
	if !hiPaired && int(hi) > top {
		if int(lo) > top {
			d |= TwoOvercards
		} else {
			d |= OneOvercard
		}
	}
	return d
}

func rankMask(h Hand) uint16 {
	var m uint16
	for suit := range uint8(4) {
		m |= h.GetSuitMask(suit)
	}
	return m
}

// straightOuts returns the ranks that complete a five rank window holding
// two or three board ranks and four ranks in total.
func straightOuts(board, hole uint16) uint16 {
	// bit 0 is the ace played low, bit r+1 is rank r
	aceLow := func(m uint16) uint16 { return m<<1 | (m>>Ace)&1 }
	b, all := aceLow(board), aceLow(board|hole)

	var outs uint16
	for low := range 10 {
		w := uint16(0x1f) << low
		shown := bits.OnesCount16(b & w)
		if shown < 2 || shown > 3 || bits.OnesCount16(all&w) != 4 {
			continue
		}
		missing := w &^ all
		outs |= missing>>1 | (missing&1)<<Ace
	}
	return outs
}
