package server

import (
	"context"
	"fmt"

	"github.com/eric7237cire/poker-eval/internal/narrow"
	"github.com/eric7237cire/poker-eval/internal/results"
	"github.com/eric7237cire/poker-eval/internal/simulation"
	"github.com/eric7237cire/poker-eval/internal/table"
	"github.com/eric7237cire/poker-eval/poker"
)

// session is the editable table and running simulation of one connection.
// Its handlers run on the connection's read loop, one message at a time.
type session struct {
	table *table.Table
	orch  *simulation.Orchestrator
	batch int
}

func (s *Server) newSession() (*session, error) {
	eng, err := s.Engine()
	if err != nil {
		return nil, err
	}
	tbl, err := table.New(eng, s.settings.Seats, s.logger)
	if err != nil {
		return nil, err
	}
	opts := []simulation.Option{
		simulation.WithLogger(s.logger),
		simulation.WithClock(s.clock),
		simulation.WithWorkers(s.settings.Workers),
	}
	if s.settings.Seed != 0 {
		opts = append(opts, simulation.WithSeed(s.settings.Seed))
	}
	return &session{
		table: tbl,
		orch:  simulation.New(eng, opts...),
		batch: s.settings.BatchSize,
	}, nil
}

func (ss *session) player(id int) (PlayerState, error) {
	p, err := ss.table.Player(id)
	if err != nil {
		return PlayerState{}, err
	}
	return PlayerStateFromTable(p), nil
}

func (ss *session) players() PlayersData {
	players := ss.table.Players()
	out := PlayersData{
		Players: make([]PlayerState, len(players)),
		Board:   poker.FormatCards(ss.table.Board()),
	}
	for i, p := range players {
		out.Players[i] = PlayerStateFromTable(p)
	}
	return out
}

func (ss *session) setPlayer(data SetPlayerData) (PlayerState, error) {
	u := table.PlayerUpdate{Name: data.Name, State: data.State}
	if data.HoleCards != nil {
		cards, err := parseCards(*data.HoleCards)
		if err != nil {
			return PlayerState{}, err
		}
		u.Hole = &cards
	}
	if err := ss.table.UpdatePlayer(data.PlayerID, u); err != nil {
		return PlayerState{}, err
	}
	return ss.player(data.PlayerID)
}

func (ss *session) setRange(data SetRangeData) (PlayerState, error) {
	if err := ss.table.SetRange(data.PlayerID, data.Range, true); err != nil {
		return PlayerState{}, err
	}
	return ss.player(data.PlayerID)
}

func (ss *session) setCell(data SetCellData) (PlayerState, error) {
	if len(data.Rank1) != 1 || len(data.Rank2) != 1 {
		return PlayerState{}, errInvalidCards(fmt.Errorf("ranks must be single characters, got %q and %q", data.Rank1, data.Rank2))
	}
	r1, err := poker.ParseRank(data.Rank1[0])
	if err != nil {
		return PlayerState{}, errInvalidCards(err)
	}
	r2, err := poker.ParseRank(data.Rank2[0])
	if err != nil {
		return PlayerState{}, errInvalidCards(err)
	}
	if err := ss.table.SetCell(data.PlayerID, r1, r2, data.Percent); err != nil {
		return PlayerState{}, err
	}
	return ss.player(data.PlayerID)
}

func (ss *session) move(id int, step func(int) (bool, error)) (HistoryMoveData, error) {
	moved, err := step(id)
	if err != nil {
		return HistoryMoveData{}, err
	}
	p, err := ss.player(id)
	if err != nil {
		return HistoryMoveData{}, err
	}
	return HistoryMoveData{Moved: moved, Player: p}, nil
}

func (ss *session) setBoard(data SetBoardData) (PlayersData, error) {
	cards, err := parseCards(data.Board)
	if err != nil {
		return PlayersData{}, err
	}
	if err := ss.table.SetBoard(cards); err != nil {
		return PlayersData{}, err
	}
	return ss.players(), nil
}

// configure hands a copy of the table to the orchestrator, discarding any
// accumulated results.
func (ss *session) configure() (ConfiguredData, error) {
	cfg, err := ss.table.SimulationConfig()
	if err != nil {
		return ConfiguredData{}, err
	}
	if err := ss.orch.Configure(cfg); err != nil {
		return ConfiguredData{}, err
	}
	return ConfiguredData{Seats: len(cfg.Seats), Board: poker.FormatCards(cfg.Board)}, nil
}

func (ss *session) simulate(ctx context.Context, data SimulateData) (*results.Snapshot, error) {
	trials := data.Trials
	if trials <= 0 {
		trials = ss.batch
	}
	if err := ss.orch.Simulate(ctx, trials); err != nil {
		return nil, err
	}
	return ss.orch.Snapshot()
}

func narrowEquity(ctx context.Context, n *narrow.Narrower, data NarrowEquityData) (RangeData, error) {
	board, err := parseCards(data.Board)
	if err != nil {
		return RangeData{}, err
	}
	out, err := n.ByEquity(ctx, narrow.EquityRequest{
		Candidate:      data.Candidate,
		Opponents:      data.Opponents,
		MinEquity:      data.MinEquity,
		Board:          board,
		TrialsPerCombo: data.TrialsPerCombo,
		Seed:           data.Seed,
	})
	if err != nil {
		return RangeData{}, err
	}
	return narrowedRange(out)
}

func narrowPreference(ctx context.Context, n *narrow.Narrower, data NarrowPreferenceData) (RangeData, error) {
	board, err := parseCards(data.Board)
	if err != nil {
		return RangeData{}, err
	}
	out, err := n.ByPreference(ctx, narrow.PreferenceRequest{
		Candidate:      data.Candidate,
		MinLevel:       data.MinLevel,
		Opponents:      data.Opponents,
		Board:          board,
		TrialsPerCombo: data.TrialsPerCombo,
		Seed:           data.Seed,
	})
	if err != nil {
		return RangeData{}, err
	}
	return narrowedRange(out)
}

func narrowedRange(notation string) (RangeData, error) {
	r, err := parseRange(notation)
	if err != nil {
		return RangeData{}, err
	}
	return RangeDataFrom(r), nil
}
