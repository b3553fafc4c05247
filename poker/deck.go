package poker

import (
	rand "math/rand/v2"
)

// Deck holds the cards still available for dealing.
type Deck struct {
	cards [NumCards]Card
	size  int
	next  int
	rng   *rand.Rand
}

// NewDeckWithout creates a deck missing the dead cards. Draw picks cards at
// random, so the deck is never shuffled up front.
func NewDeckWithout(rng *rand.Rand, dead Hand) *Deck {
	d := &Deck{rng: rng}
	for idx := range uint8(NumCards) {
		if c := CardFromIndex(idx); !dead.HasCard(c) {
			d.cards[d.size] = c
			d.size++
		}
	}
	return d
}

// Draw deals n random cards, skipping any in skip, until n have been
// dealt or the deck runs out.
func (d *Deck) Draw(n int, skip Hand) []Card {
	out := make([]Card, 0, n)
	for len(out) < n && d.next < d.size {
		// partial Fisher-Yates on the remaining cards
		j := d.next + d.rng.IntN(d.size-d.next)
		d.cards[d.next], d.cards[j] = d.cards[j], d.cards[d.next]
		c := d.cards[d.next]
		d.next++
		if skip.HasCard(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CardsRemaining returns the number of cards left in the deck.
func (d *Deck) CardsRemaining() int {
	return d.size - d.next
}
