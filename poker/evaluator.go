package poker

import (
	"math"
	"math/bits"
)

// HandRank orders made hands. Lower values are stronger; equal values tie.
type HandRank uint32

// NoRank is weaker than every real hand. Evaluate returns it for hands
// that are not 5 to 7 cards.
const NoRank HandRank = math.MaxUint32

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// NumHandTypes is the number of rank families.
const NumHandTypes = 9

var handTypeNames = [NumHandTypes]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

func (t HandType) String() string {
	if int(t) >= NumHandTypes {
		return "Unknown"
	}
	return handTypeNames[t]
}

// A score packs the category into bits 20-23 and up to five deciding ranks
// into the nibbles below it, most significant first. Larger scores win, so
// ranks are stored inverted.
const topScore = uint32(NumHandTypes) << 20

// Type returns the family of the hand.
func (hr HandRank) Type() HandType {
	if uint32(hr) >= topScore {
		return HighCard
	}
	return HandType((topScore - uint32(hr)) >> 20)
}

func (hr HandRank) String() string {
	return hr.Type().String()
}

// CompareHands returns 1 if a wins, -1 if b wins and 0 for a tie.
func CompareHands(a, b HandRank) int {
	switch {
	case a < b:
		return 1
	case a > b:
		return -1
	}
	return 0
}

type score struct {
	v uint32
	n int
}

func made(t HandType) score { return score{v: uint32(t)} }

func (s score) rank(r int) score {
	s.v = s.v<<4 | uint32(r)
	s.n++
	return s
}

// kickers appends the k highest ranks of mask.
func (s score) kickers(mask uint16, k int) score {
	for ; k > 0 && mask != 0; k-- {
		r := highest(mask)
		mask &^= 1 << r
		s = s.rank(r)
	}
	return s
}

func (s score) hand() HandRank {
	return HandRank(topScore - s.v<<(4*(5-s.n)))
}

// Evaluate returns the rank of the best five cards in a 5, 6 or 7 card hand.
func Evaluate(hand Hand) HandRank {
	if n := hand.CountCards(); n < 5 || n > 7 {
		return NoRank
	}

	// seen[k] has a bit for every rank held at least k+1 times.
	var seen [4]uint16
	flushSuit := uint16(0)
	for suit := uint8(0); suit < 4; suit++ {
		m := hand.GetSuitMask(suit)
		if bits.OnesCount16(m) >= 5 {
			flushSuit = m
		}
		seen[3] |= seen[2] & m
		seen[2] |= seen[1] & m
		seen[1] |= seen[0] & m
		seen[0] |= m
	}
	all, twos, threes, fours := seen[0], seen[1], seen[2], seen[3]

	// Seven cards hold at most one five-card suit, and a flush already
	// beats anything quads or a full house could make alongside it.
	if flushSuit != 0 {
		if hi := straightHigh(flushSuit); hi >= 0 {
			return made(StraightFlush).rank(hi).hand()
		}
		return made(Flush).kickers(flushSuit, 5).hand()
	}

	if fours != 0 {
		q := highest(fours)
		return made(FourOfAKind).rank(q).kickers(all&^(1<<q), 1).hand()
	}

	if threes != 0 {
		t := highest(threes)
		if rest := twos &^ (1 << t); rest != 0 {
			return made(FullHouse).rank(t).rank(highest(rest)).hand()
		}
	}

	if hi := straightHigh(all); hi >= 0 {
		return made(Straight).rank(hi).hand()
	}

	if threes != 0 {
		t := highest(threes)
		return made(ThreeOfAKind).rank(t).kickers(all&^(1<<t), 2).hand()
	}

	if twos != 0 {
		p1 := highest(twos)
		if rest := twos &^ (1 << p1); rest != 0 {
			p2 := highest(rest)
			return made(TwoPair).rank(p1).rank(p2).kickers(all&^(1<<p1|1<<p2), 1).hand()
		}
		return made(Pair).rank(p1).kickers(all&^(1<<p1), 3).hand()
	}

	return made(HighCard).kickers(all, 5).hand()
}

func highest(mask uint16) int {
	return bits.Len16(mask) - 1
}

// straightHigh returns the top rank of the best straight in a rank mask,
// or -1. The wheel counts as five high.
func straightHigh(mask uint16) int {
	const wheel = 1<<Ace | 1<<Two | 1<<Three | 1<<Four | 1<<Five
	if run := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4); run != 0 {
		return highest(run) + 4
	}
	if mask&wheel == wheel {
		return int(Five)
	}
	return -1
}
