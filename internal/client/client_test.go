package client

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/server"
	"github.com/eric7237cire/poker-eval/internal/simulation"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func dialTestServer(t *testing.T) *Client {
	t.Helper()
	settings := server.DefaultSettings()
	settings.Seats = 3
	settings.Workers = 2
	settings.Seed = 11
	settings.TrialsPerCombo = 100

	srv := server.NewServer("", settings, testLogger())
	eng, err := engine.New(testLogger())
	require.NoError(t, err)
	srv.SetEngine(eng)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Stop(context.Background())
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, ts.URL, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientSimulation(t *testing.T) {
	t.Parallel()
	c := dialTestServer(t)
	ctx := context.Background()

	p, err := c.SeatHole(ctx, 0, "AhKh")
	require.NoError(t, err)
	assert.Equal(t, "AhKh", p.HoleCards)

	p, err = c.SeatRange(ctx, 1, "22+")
	require.NoError(t, err)
	assert.Equal(t, "22+", p.Range)

	require.NoError(t, c.SetBoard(ctx, "Qh7h2c"))
	cfg, err := c.Configure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Seats)
	assert.Equal(t, "Qh7h2c", cfg.Board)

	snap, err := c.Simulate(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), snap.Trials)

	snap, err = c.Simulate(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), snap.Trials)

	again, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Players[0].Streets[engine.River].Equity, again.Players[0].Streets[engine.River].Equity)
}

func TestClientHistory(t *testing.T) {
	t.Parallel()
	c := dialTestServer(t)
	ctx := context.Background()

	for _, r := range []string{"AA", "KK"} {
		_, err := c.SetRange(ctx, 2, r)
		require.NoError(t, err)
	}
	move, err := c.Undo(ctx, 2)
	require.NoError(t, err)
	assert.True(t, move.Moved)
	assert.Equal(t, "AA", move.Player.Range)

	move, err = c.Redo(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "KK", move.Player.Range)

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Len(t, players.Players, 3)
}

func TestClientErrorsMatchSentinels(t *testing.T) {
	t.Parallel()
	c := dialTestServer(t)
	ctx := context.Background()

	_, err := c.Simulate(ctx, 10)
	require.ErrorIs(t, err, simulation.ErrNotConfigured)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, server.CodeNotConfigured, remote.Code)

	_, err = c.SetRange(ctx, 0, "AKQ")
	require.ErrorIs(t, err, ranges.ErrInvalidRangeSyntax)

	_, err = c.NarrowEquity(ctx, server.NarrowEquityData{Candidate: "AA"})
	require.ErrorIs(t, err, ranges.ErrInvalidRangeInput)
}

func TestClientNarrow(t *testing.T) {
	t.Parallel()
	c := dialTestServer(t)

	got, err := c.NarrowEquity(context.Background(), server.NarrowEquityData{
		Candidate: "AA,72o",
		Opponents: []string{"QQ"},
		MinEquity: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "AA", got.Range)
}

func TestClientClosed(t *testing.T) {
	t.Parallel()
	c := dialTestServer(t)
	require.NoError(t, c.Close())

	_, err := c.Players(context.Background())
	require.Error(t, err)
}
