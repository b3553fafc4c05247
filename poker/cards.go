package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Card is a single card stored as one bit of a uint64.
// Layout: [13 spades][13 hearts][13 diamonds][13 clubs]
type Card uint64

// Hand is a set of cards; multiple bits may be set.
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

const (
	// NumCards is the size of a standard deck.
	NumCards = 52
	// NumRanks is the number of distinct ranks.
	NumRanks = 13

	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// NewCard creates a card from rank and suit.
func NewCard(rank, suit uint8) Card {
	return Card(1) << (suit*13 + rank)
}

// CardFromIndex returns the card at bit position idx (0-51).
func CardFromIndex(idx uint8) Card {
	return Card(1) << idx
}

// Index returns which bit position this card occupies (0-51), or 255 for the zero card.
func (c Card) Index() uint8 {
	if c == 0 {
		return 255
	}
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Rank returns the rank of the card (0-12).
func (c Card) Rank() uint8 {
	pos := c.Index()
	if pos == 255 {
		return 255
	}
	return pos % 13
}

// Suit returns the suit of the card (0-3).
func (c Card) Suit() uint8 {
	pos := c.Index()
	if pos == 255 {
		return 255
	}
	return pos / 13
}

// String returns the string representation (e.g., "As", "Kh").
func (c Card) String() string {
	rank := c.Rank()
	suit := c.Suit()
	if rank > 12 || suit > 3 {
		return "??"
	}
	return string(rankChars[rank]) + string(suitChars[suit])
}

// MarshalText encodes the card as "As".
func (c Card) MarshalText() ([]byte, error) {
	if c.Index() >= NumCards {
		return nil, fmt.Errorf("invalid card %#x", uint64(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card in "As" form.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseRank parses a single rank character such as 'A' or 't'.
func ParseRank(ch byte) (uint8, error) {
	switch ch {
	case 't':
		ch = 'T'
	case 'j':
		ch = 'J'
	case 'q':
		ch = 'Q'
	case 'k':
		ch = 'K'
	case 'a':
		ch = 'A'
	}
	idx := strings.IndexByte(rankChars, ch)
	if idx < 0 {
		return 0, fmt.Errorf("invalid rank: %c", ch)
	}
	return uint8(idx), nil
}

// ParseSuit parses a single suit character.
func ParseSuit(ch byte) (uint8, error) {
	switch ch {
	case 'c', 'C':
		return Clubs, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'h', 'H':
		return Hearts, nil
	case 's', 'S':
		return Spades, nil
	default:
		return 0, fmt.Errorf("invalid suit: %c", ch)
	}
}

// RankChar returns the display character of a rank.
func RankChar(rank uint8) byte {
	return rankChars[rank]
}

// ParseCard parses a string like "As" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}
	rank, err := ParseRank(s[0])
	if err != nil {
		return 0, err
	}
	suit, err := ParseSuit(s[1])
	if err != nil {
		return 0, err
	}
	return NewCard(rank, suit), nil
}

// ParseCards parses a run of cards like "AsKhQd" or "As Kh Qd".
func ParseCards(s string) ([]Card, error) {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, ",", " ")), "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card list: %q", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// FormatCards joins cards without separators, e.g. "AsKh".
func FormatCards(cards []Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

// NewHand creates a hand from multiple cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard checks if the hand contains a specific card.
func (h Hand) HasCard(c Card) bool {
	return (h & Hand(c)) != 0
}

// Overlaps reports whether the two hands share any card.
func (h Hand) Overlaps(other Hand) bool {
	return h&other != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the cards of a specific suit as a rank bitmask.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16((h >> (suit * 13)) & 0x1FFF)
}

// Cards lists the cards of the hand in ascending bit order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		cards = append(cards, Card(rest&-rest))
	}
	return cards
}
