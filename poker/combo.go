package poker

import "fmt"

// NumCombos is the number of distinct two-card holdings (52 choose 2).
const NumCombos = 1326

// NumBuckets is the number of cells in the 13x13 starting hand grid.
const NumBuckets = 169

// Combo identifies a two-card holding. The index of cards with bit
// positions hi > lo is hi*(hi-1)/2 + lo.
type Combo uint16

var comboCards = func() [NumCombos][2]uint8 {
	var table [NumCombos][2]uint8
	for hi := uint8(1); hi < NumCards; hi++ {
		for lo := uint8(0); lo < hi; lo++ {
			table[int(hi)*int(hi-1)/2+int(lo)] = [2]uint8{hi, lo}
		}
	}
	return table
}()

// NewCombo returns the combo holding both cards. The cards must differ.
func NewCombo(a, b Card) Combo {
	hi, lo := a.Index(), b.Index()
	if hi < lo {
		hi, lo = lo, hi
	}
	return Combo(int(hi)*int(hi-1)/2 + int(lo))
}

// ParseCombo parses a holding such as "AhKh".
func ParseCombo(s string) (Combo, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("invalid combo: %q", s)
	}
	a, err := ParseCard(s[:2])
	if err != nil {
		return 0, err
	}
	b, err := ParseCard(s[2:])
	if err != nil {
		return 0, err
	}
	if a == b {
		return 0, fmt.Errorf("invalid combo %q: duplicate card", s)
	}
	return NewCombo(a, b), nil
}

// Cards returns the two cards, higher rank first (suit breaks ties).
func (c Combo) Cards() (Card, Card) {
	pair := comboCards[c]
	a, b := CardFromIndex(pair[0]), CardFromIndex(pair[1])
	if a.Rank() < b.Rank() || (a.Rank() == b.Rank() && a.Suit() < b.Suit()) {
		a, b = b, a
	}
	return a, b
}

// Hand returns the combo as a two-card hand.
func (c Combo) Hand() Hand {
	a, b := c.Cards()
	return NewHand(a, b)
}

// Bucket returns the grid cell the combo belongs to.
func (c Combo) Bucket() Bucket {
	a, b := c.Cards()
	return BucketOf(a, b)
}

func (c Combo) String() string {
	a, b := c.Cards()
	return a.String() + b.String()
}

// Bucket is a cell of the 13x13 starting hand grid. Rows and columns run
// from Ace (0) down to Two (12); the diagonal holds pairs, cells above it
// suited hands and cells below it offsuit hands.
type Bucket uint8

// BucketAt returns the bucket for a grid row and column.
func BucketAt(row, col int) Bucket {
	return Bucket(row*NumRanks + col)
}

// BucketFor returns the bucket for two ranks and suitedness. Pairs ignore suited.
func BucketFor(r1, r2 uint8, suited bool) Bucket {
	hi, lo := r1, r2
	if hi < lo {
		hi, lo = lo, hi
	}
	row, col := int(Ace-hi), int(Ace-lo)
	if hi != lo && !suited {
		row, col = col, row
	}
	return BucketAt(row, col)
}

// BucketOf returns the bucket two hole cards fall into.
func BucketOf(a, b Card) Bucket {
	return BucketFor(a.Rank(), b.Rank(), a.Suit() == b.Suit())
}

// Row returns the grid row (0 = Ace).
func (b Bucket) Row() int { return int(b) / NumRanks }

// Col returns the grid column (0 = Ace).
func (b Bucket) Col() int { return int(b) % NumRanks }

// IsPair reports whether the bucket is on the diagonal.
func (b Bucket) IsPair() bool { return b.Row() == b.Col() }

// IsSuited reports whether the bucket is above the diagonal.
func (b Bucket) IsSuited() bool { return b.Row() < b.Col() }

// Ranks returns the high and low rank of the bucket.
func (b Bucket) Ranks() (hi, lo uint8) {
	r1, r2 := Ace-uint8(b.Row()), Ace-uint8(b.Col())
	if r1 < r2 {
		r1, r2 = r2, r1
	}
	return r1, r2
}

// ComboCount returns how many combos the bucket holds (6, 4 or 12).
func (b Bucket) ComboCount() int {
	switch {
	case b.IsPair():
		return 6
	case b.IsSuited():
		return 4
	default:
		return 12
	}
}

// Combos lists the combos belonging to the bucket.
func (b Bucket) Combos() []Combo {
	return bucketCombos[b]
}

// String returns the grid label, e.g. "AA", "AKs", "T9o".
func (b Bucket) String() string {
	hi, lo := b.Ranks()
	label := string([]byte{RankChar(hi), RankChar(lo)})
	switch {
	case b.IsPair():
		return label
	case b.IsSuited():
		return label + "s"
	default:
		return label + "o"
	}
}

var bucketCombos = func() [NumBuckets][]Combo {
	var table [NumBuckets][]Combo
	for c := Combo(0); c < NumCombos; c++ {
		b := c.Bucket()
		table[b] = append(table[b], c)
	}
	return table
}()
