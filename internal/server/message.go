package server

import (
	"encoding/json"
	"time"

	"github.com/eric7237cire/poker-eval/internal/narrow"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/table"
	"github.com/eric7237cire/poker-eval/poker"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message. The timestamp is set when it is sent.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type: messageType,
		Data: dataBytes,
	}, nil
}

// Client → Server Messages

type SetPlayerData struct {
	PlayerID  int          `json:"playerId"`
	Name      *string      `json:"name,omitempty"`
	State     *table.State `json:"state,omitempty"`
	HoleCards *string      `json:"holeCards,omitempty"`
}

type SetRangeData struct {
	PlayerID int    `json:"playerId"`
	Range    string `json:"range"`
}

// SetCellData addresses a grid cell by its two rank characters. A first rank
// above the second selects the suited cell.
type SetCellData struct {
	PlayerID int     `json:"playerId"`
	Rank1    string  `json:"rank1"`
	Rank2    string  `json:"rank2"`
	Percent  float64 `json:"percent"`
}

type PlayerRefData struct {
	PlayerID int `json:"playerId"`
}

type SetBoardData struct {
	Board string `json:"board"`
}

type SimulateData struct {
	Trials int `json:"trials"`
}

type NarrowEquityData struct {
	Candidate      string   `json:"candidate"`
	Opponents      []string `json:"opponents"`
	MinEquity      float64  `json:"minEquity"`
	Board          string   `json:"board,omitempty"`
	TrialsPerCombo int      `json:"trialsPerCombo,omitempty"`
	Seed           int64    `json:"seed,omitempty"`
}

type NarrowPreferenceData struct {
	Candidate      string       `json:"candidate"`
	MinLevel       narrow.Level `json:"minLevel"`
	Opponents      int          `json:"opponents"`
	Board          string       `json:"board,omitempty"`
	TrialsPerCombo int          `json:"trialsPerCombo,omitempty"`
	Seed           int64        `json:"seed,omitempty"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlayerState struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	State     table.State `json:"state"`
	HoleCards string      `json:"holeCards,omitempty"`
	Range     string      `json:"range"`
	Percent   float64     `json:"percent"`
	History   []string    `json:"history"`
	Cursor    int         `json:"cursor"`
}

// PlayerStateFromTable converts a table seat for the wire.
func PlayerStateFromTable(p table.Player) PlayerState {
	history := p.History
	if history == nil {
		history = []string{}
	}
	return PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		State:     p.State,
		HoleCards: poker.FormatCards(p.Hole),
		Range:     p.RangeText,
		Percent:   p.Percent,
		History:   history,
		Cursor:    p.Cursor,
	}
}

type PlayersData struct {
	Players []PlayerState `json:"players"`
	Board   string        `json:"board"`
}

type HistoryMoveData struct {
	Moved  bool        `json:"moved"`
	Player PlayerState `json:"player"`
}

type ConfiguredData struct {
	Seats int    `json:"seats"`
	Board string `json:"board"`
}

type RangeData struct {
	Range   string      `json:"range"`
	Percent float64     `json:"percent"`
	Combos  int         `json:"combos"`
	Grid    ranges.Grid `json:"grid"`
}

// RangeDataFrom describes a parsed range in canonical form.
func RangeDataFrom(r ranges.Range) RangeData {
	return RangeData{
		Range:   r.String(),
		Percent: r.Percent(),
		Combos:  r.ComboCount(),
		Grid:    r.Grid(),
	}
}
