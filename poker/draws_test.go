package poker

import "testing"

func TestClassifyDraws(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		hole  string
		board string
		want  Draws
	}{
		{"flush draw", "AhKh", "Qh7h2c", FlushDraw | TwoOvercards},
		{"gut shot", "9c8d", "Jh7s2c", GutShot},
		{"open ended", "9c8d", "7h6s2c", StraightDraw | TwoOvercards},
		{"double gut shot", "9c5d", "7h6s3c", StraightDraw | OneOvercard},
		{"wheel gut shot", "Ac2d", "4h5s9c", GutShot | OneOvercard},
		{"backdoor flush", "AhKh", "Qh7c2d", BackdoorFlushDraw | TwoOvercards},
		{"no backdoor on the turn", "AhKh", "Qh7c2d3s", TwoOvercards},
		{"one card flush draw", "As2d", "Ks9s5s3h", FlushDraw | GutShot | OneOvercard},
		{"made flush", "AsKs", "Qs7s2s", TwoOvercards},
		{"pocket pair", "8c8d", "8h4s2c", PocketPair},
		{"both paired", "KcTd", "Kh7sTc", HighCardPaired | LowCardPaired},
		{"low card paired", "AcTd", "Kh7sTc", LowCardPaired | OneOvercard},
		{"nothing", "3c2d", "KhJs8c", 0},
		{"river", "AhKh", "Qh7h2c3d4s", 0},
		{"preflop", "AhKh", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hole := mustHand(t, tt.hole).Cards()
			got := ClassifyDraws(hole[0], hole[1], mustHand(t, tt.board))
			if got != tt.want {
				t.Errorf("ClassifyDraws(%s, %s) = %q, want %q", tt.hole, tt.board, got, tt.want)
			}
		})
	}
}

func TestMergeDraws(t *testing.T) {
	t.Parallel()
	got := (GutShot | BackdoorFlushDraw).Merge(StraightDraw | OneOvercard)
	if want := StraightDraw | BackdoorFlushDraw | OneOvercard; got != want {
		t.Errorf("merged %q, want %q", got, want)
	}
	got = FlushDraw.Merge(BackdoorFlushDraw | TwoOvercards).Merge(OneOvercard | HighCardPaired)
	if want := FlushDraw | TwoOvercards | HighCardPaired; got != want {
		t.Errorf("merged %q, want %q", got, want)
	}
	if s := (FlushDraw | PocketPair).String(); s != "flushDraw,ppPaired" {
		t.Errorf("String() = %q", s)
	}
}
