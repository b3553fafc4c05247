package table

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/simulation"
	"github.com/eric7237cire/poker-eval/poker"
)

func newTestTable(t *testing.T, seats int) *Table {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	eng, err := engine.New(logger)
	require.NoError(t, err)
	tbl, err := New(eng, seats, logger)
	require.NoError(t, err)
	return tbl
}

func rangeText(t *testing.T, tbl *Table, id int) string {
	t.Helper()
	p, err := tbl.Player(id)
	require.NoError(t, err)
	return p.RangeText
}

func TestNewRequiresEngine(t *testing.T) {
	t.Parallel()
	_, err := New(nil, 2, log.Default())
	require.ErrorIs(t, err, engine.ErrEngineUnavailable)
}

func TestNewSeatBounds(t *testing.T) {
	t.Parallel()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	eng, err := engine.New(logger)
	require.NoError(t, err)

	_, err = New(eng, 1, logger)
	require.Error(t, err)
	_, err = New(eng, engine.MaxSeats+1, logger)
	require.Error(t, err)
}

func TestSetRangeUpdatesPercent(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	require.NoError(t, tbl.SetRange(0, "AA,KK,QQ", true))
	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, "AA,KK,QQ", p.RangeText)
	assert.InDelta(t, 18.0/1326.0, p.Percent, 1e-12)
	assert.Equal(t, []string{""}, p.History)
}

func TestSetRangeFailureKeepsRange(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	require.NoError(t, tbl.SetRange(0, "TT+", true))
	err := tbl.SetRange(0, "TT+,", true)
	require.ErrorIs(t, err, ranges.ErrInvalidRangeSyntax)

	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, "TT+", p.RangeText)
	assert.Equal(t, 30, p.Range.ComboCount())
	assert.Len(t, p.History, 1)
}

func TestUnknownPlayer(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	require.ErrorIs(t, tbl.SetRange(2, "AA", true), ErrUnknownPlayer)
	_, err := tbl.Undo(-1)
	require.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = tbl.Player(9)
	require.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestHistoryEvictsOldest(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	for _, r := range []string{"AA", "KK", "QQ", "JJ", "TT", "99", "88"} {
		require.NoError(t, tbl.SetRange(0, r, true))
	}
	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"KK", "QQ", "JJ", "TT", "99"}, p.History)
	assert.Equal(t, "88", p.RangeText)
}

func TestUndoRedo(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	for _, r := range []string{"AA", "KK", "QQ"} {
		require.NoError(t, tbl.SetRange(0, r, true))
	}
	// history: "", AA, KK; live: QQ

	moved, err := tbl.Undo(0)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "KK", rangeText(t, tbl, 0))

	_, err = tbl.Undo(0)
	require.NoError(t, err)
	assert.Equal(t, "AA", rangeText(t, tbl, 0))

	_, err = tbl.Undo(0)
	require.NoError(t, err)
	assert.Equal(t, "", rangeText(t, tbl, 0))

	moved, err = tbl.Undo(0)
	require.NoError(t, err)
	assert.False(t, moved, "already at the oldest entry")

	_, err = tbl.Redo(0)
	require.NoError(t, err)
	assert.Equal(t, "AA", rangeText(t, tbl, 0))
	_, err = tbl.Redo(0)
	require.NoError(t, err)
	assert.Equal(t, "KK", rangeText(t, tbl, 0))
	_, err = tbl.Redo(0)
	require.NoError(t, err)
	assert.Equal(t, "QQ", rangeText(t, tbl, 0), "redo past the newest entry restores the live range")

	moved, err = tbl.Redo(0)
	require.NoError(t, err)
	assert.False(t, moved)

	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, noCursor, p.Cursor)
	assert.Equal(t, []string{"", "AA", "KK"}, p.History, "navigation does not record history")
}

func TestEditResetsCursor(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	for _, r := range []string{"AA", "KK", "QQ"} {
		require.NoError(t, tbl.SetRange(0, r, true))
	}
	_, err := tbl.Undo(0)
	require.NoError(t, err)
	require.NoError(t, tbl.SetRange(0, "JJ", false))

	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, noCursor, p.Cursor)
	assert.Equal(t, "JJ", p.RangeText)

	moved, err := tbl.Redo(0)
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = tbl.Undo(0)
	require.NoError(t, err)
	assert.Equal(t, "KK", rangeText(t, tbl, 0))
}

func TestSetCell(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	require.NoError(t, tbl.SetRange(0, "AA", true))
	require.NoError(t, tbl.SetCell(0, poker.Ace, poker.King, 100))
	assert.Equal(t, "AA,AKs", rangeText(t, tbl, 0))

	require.NoError(t, tbl.SetCell(0, poker.King, poker.Ace, 50))
	assert.Equal(t, "AA,AKs,AKo:0.5", rangeText(t, tbl, 0))

	require.NoError(t, tbl.SetCell(0, poker.Ace, poker.Ace, 0))
	assert.Equal(t, "AKs,AKo:0.5", rangeText(t, tbl, 0))

	require.Error(t, tbl.SetCell(0, 13, 0, 10))
	require.Error(t, tbl.SetCell(0, poker.Ace, poker.King, 120))

	_, err := tbl.Undo(0)
	require.NoError(t, err)
	assert.Equal(t, "AA,AKs,AKo:0.5", rangeText(t, tbl, 0))
}

func TestSimulationConfig(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 4)

	hole, err := poker.ParseCards("AsKs")
	require.NoError(t, err)
	board, err := poker.ParseCards("Qs7d2c")
	require.NoError(t, err)

	require.NoError(t, tbl.SetState(0, FixedHoleCards))
	require.NoError(t, tbl.SetHoleCards(0, hole))
	require.NoError(t, tbl.SetState(2, UseRange))
	require.NoError(t, tbl.SetRange(2, "TT+", true))
	require.NoError(t, tbl.SetBoard(board))

	cfg, err := tbl.SimulationConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Seats, 2)
	assert.Equal(t, 0, cfg.Seats[0].ID)
	assert.Equal(t, hole, cfg.Seats[0].Hole)
	assert.Equal(t, 2, cfg.Seats[1].ID)
	assert.Equal(t, 30, cfg.Seats[1].Range.ComboCount())
	assert.Equal(t, board, cfg.Board)

	// later edits must not reach a config already handed out
	cfg.Seats[0].Hole[0] = poker.NewCard(poker.Two, poker.Clubs)
	require.NoError(t, tbl.SetRange(2, "AA", true))
	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, hole, p.Hole)
	assert.Equal(t, 30, cfg.Seats[1].Range.ComboCount())

	require.NoError(t, tbl.SetState(1, FixedHoleCards))
	_, err = tbl.SimulationConfig()
	require.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestUpdatePlayerIsAllOrNothing(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)
	before, err := tbl.Player(0)
	require.NoError(t, err)

	pair, err := poker.ParseCards("AsAs")
	require.NoError(t, err)
	three, err := poker.ParseCards("AsKsQs")
	require.NoError(t, err)
	rejected := []PlayerUpdate{
		{Name: ptr("Hero"), State: ptr(FixedHoleCards), Hole: &pair},
		{Name: ptr("Hero"), Hole: &three},
		{Name: ptr("Hero"), State: ptr(State(9))},
	}
	for _, u := range rejected {
		require.Error(t, tbl.UpdatePlayer(0, u))
		after, err := tbl.Player(0)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
	require.ErrorIs(t, tbl.UpdatePlayer(5, PlayerUpdate{Name: ptr("Hero")}), ErrUnknownPlayer)

	hole, err := poker.ParseCards("AsKs")
	require.NoError(t, err)
	require.NoError(t, tbl.UpdatePlayer(0, PlayerUpdate{Name: ptr("Hero"), State: ptr(FixedHoleCards), Hole: &hole}))
	p, err := tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, "Hero", p.Name)
	assert.Equal(t, FixedHoleCards, p.State)
	assert.Equal(t, hole, p.Hole)

	require.NoError(t, tbl.UpdatePlayer(0, PlayerUpdate{State: ptr(UseRange)}))
	p, err = tbl.Player(0)
	require.NoError(t, err)
	assert.Equal(t, "Hero", p.Name, "unset fields are kept")
	assert.Equal(t, hole, p.Hole)
}

func ptr[T any](v T) *T { return &v }

func TestBoardValidation(t *testing.T) {
	t.Parallel()
	tbl := newTestTable(t, 2)

	two, err := poker.ParseCards("AsKs")
	require.NoError(t, err)
	require.ErrorIs(t, tbl.SetBoard(two), simulation.ErrInvalidConfig)

	dup, err := poker.ParseCards("AsKsAs")
	require.NoError(t, err)
	require.ErrorIs(t, tbl.SetBoard(dup), simulation.ErrCardCollision)

	require.NoError(t, tbl.SetBoard(nil))
	assert.Empty(t, tbl.Board())
}

func TestStateText(t *testing.T) {
	t.Parallel()
	for _, s := range []State{Disabled, FixedHoleCards, UseRange} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back State
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	_, err := ParseState("sometimes")
	require.Error(t, err)
}
