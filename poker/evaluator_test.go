package poker

import "testing"

func mustHand(t *testing.T, s string) Hand {
	t.Helper()
	cards, err := ParseCards(s)
	if err != nil {
		t.Fatalf("ParseCards(%q): %v", s, err)
	}
	return NewHand(cards...)
}

func TestEvaluateHandTypes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  HandType
	}{
		{"high card", "AsKd9h7c2s", HighCard},
		{"pair", "AsAd9h7c2s", Pair},
		{"two pair", "AsAd9h9c2s", TwoPair},
		{"trips", "AsAdAh9c2s", ThreeOfAKind},
		{"wheel", "As2d3h4c5s", Straight},
		{"flush", "AsKs9s7s2s", Flush},
		{"full house", "AsAdAh9c9s", FullHouse},
		{"quads", "AsAdAhAc9s", FourOfAKind},
		{"straight flush", "9s8s7s6s5s", StraightFlush},
		{"six cards", "AsKs9s7s2s2d", Flush},
		{"seven cards", "2c3d4h5s6cKdKh", Straight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(mustHand(t, tt.cards)).Type()
			if got != tt.want {
				t.Errorf("Evaluate(%s) = %s, want %s", tt.cards, got, tt.want)
			}
		})
	}
}

func TestEvaluateRejectsWrongSize(t *testing.T) {
	t.Parallel()
	for _, cards := range []string{"AsKs", "AsKsQsJsTs9s8s7s"} {
		if got := Evaluate(mustHand(t, cards)); got != NoRank {
			t.Errorf("Evaluate(%s) = %d, want NoRank", cards, got)
		}
	}
	if NoRank.Type() != HighCard {
		t.Errorf("NoRank.Type() = %s", NoRank.Type())
	}
}

func TestEvaluateOrdering(t *testing.T) {
	t.Parallel()
	// Strongest first.
	hands := []string{
		"AsKsQsJsTs",
		"6s5s4s3s2s",
		"5d4d3d2dAd",
		"AsAdAhAcKs",
		"AsAdAhAc2s",
		"KsKdKhAcAs",
		"KsKdKh2c2s",
		"AsKs9s7s3s",
		"AsKs9s7s2s",
		"AsKdQhJcTs",
		"6s5d4h3c2s",
		"5s4d3h2cAs",
		"QsQdQhAcKs",
		"QsQdQhAc2s",
		"AsAdKhKc2s",
		"AsAdQhQcKs",
		"AsAdQhQc3s",
		"AsAdKh9c7s",
		"AsAdKh9c6s",
		"KsKdAh9c7s",
		"AsKdQh9c7s",
		"7s5d4h3c2s",
	}
	prev := HandRank(0)
	for i, cards := range hands {
		rank := Evaluate(mustHand(t, cards))
		if i > 0 && rank <= prev {
			t.Errorf("%s (%d) should be weaker than %s (%d)", cards, rank, hands[i-1], prev)
		}
		prev = rank
	}
}

func TestEvaluateBestFiveOfSeven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, a, b string
		want       int
	}{
		{"six high straight beats wheel", "As2d3h4c5s6dKh", "As2d3h4c5sKhQd", 1},
		{"best five of seven suited cards", "AhKh9h7h2h3h4h", "AhKh9h7h2hQsJs", 1},
		{"third pair does not play", "AsAdKhKc2s2dQh", "AsAdKhKcQh3s4d", 0},
		{"two trips make a full house", "AsAdAhKcKsKd2h", "AsAdAhKcKs2d3h", 0},
		{"board plays", "AsKdQhJcTs2d3h", "AsKdQhJcTs4d5h", 0},
		{"kicker decides", "AsAd9h7c2sKh3d", "AsAd9h7c2sQh3d", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, b := Evaluate(mustHand(t, tt.a)), Evaluate(mustHand(t, tt.b))
			if got := CompareHands(a, b); got != tt.want {
				t.Errorf("CompareHands(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEvaluateAllFiveCardHands(t *testing.T) {
	if testing.Short() {
		t.Skip("enumerates every five card hand")
	}
	t.Parallel()

	want := [NumHandTypes]int{
		HighCard:      1302540,
		Pair:          1098240,
		TwoPair:       123552,
		ThreeOfAKind:  54912,
		Straight:      10200,
		Flush:         5108,
		FullHouse:     3744,
		FourOfAKind:   624,
		StraightFlush: 40,
	}
	var got [NumHandTypes]int
	distinct := make(map[HandRank]struct{})
	for a := uint8(0); a < NumCards; a++ {
		for b := a + 1; b < NumCards; b++ {
			for c := b + 1; c < NumCards; c++ {
				for d := c + 1; d < NumCards; d++ {
					for e := d + 1; e < NumCards; e++ {
						rank := Evaluate(NewHand(CardFromIndex(a), CardFromIndex(b), CardFromIndex(c), CardFromIndex(d), CardFromIndex(e)))
						got[rank.Type()]++
						distinct[rank] = struct{}{}
					}
				}
			}
		}
	}
	if got != want {
		t.Errorf("family counts = %v, want %v", got, want)
	}
	if len(distinct) != 7462 {
		t.Errorf("distinct ranks = %d, want 7462", len(distinct))
	}
}

func TestCompareHands(t *testing.T) {
	t.Parallel()
	board := "Ts9h4c2d3s"
	aces := Evaluate(mustHand(t, board+"AhAd"))
	kings := Evaluate(mustHand(t, board+"KhKd"))
	acesAgain := Evaluate(mustHand(t, board+"AcAs"))

	if CompareHands(aces, kings) != 1 {
		t.Error("aces should beat kings")
	}
	if CompareHands(kings, aces) != -1 {
		t.Error("kings should lose to aces")
	}
	if CompareHands(aces, acesAgain) != 0 {
		t.Error("equal hands should tie")
	}
}

func TestHandTypeString(t *testing.T) {
	t.Parallel()
	if StraightFlush.String() != "Straight Flush" {
		t.Errorf("got %q", StraightFlush.String())
	}
	if HandType(20).String() != "Unknown" {
		t.Errorf("got %q", HandType(20).String())
	}
}
