// Package table holds per-seat configuration: state, hole cards, ranges and
// their edit history, plus the shared board.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/simulation"
	"github.com/eric7237cire/poker-eval/poker"
)

// HistoryCapacity is how many previous range strings each seat remembers.
const HistoryCapacity = 5

// noCursor marks a seat that is not navigating its history.
const noCursor = -1

// ErrUnknownPlayer is returned for seat ids outside the table.
var ErrUnknownPlayer = errors.New("unknown player")

// State is how a seat takes part in a simulation.
type State int

const (
	Disabled State = iota
	FixedHoleCards
	UseRange
)

var stateNames = map[State]string{
	Disabled:       "disabled",
	FixedHoleCards: "hole_cards",
	UseRange:       "range",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState parses "disabled", "hole_cards" or "range".
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return Disabled, fmt.Errorf("unknown player state %q", name)
}

// Player is one seat. Values returned by Table are copies.
type Player struct {
	ID    int
	Name  string
	State State
	Hole  []poker.Card

	RangeText string
	Range     ranges.Range
	Percent   float64

	History []string
	Cursor  int
	live    string
}

func (p *Player) clone() Player {
	c := *p
	c.Hole = slices.Clone(p.Hole)
	c.History = slices.Clone(p.History)
	return c
}

// Table is the editable configuration shared by the simulation and
// narrowing requests of one session.
type Table struct {
	mu      sync.RWMutex
	engine  *engine.Engine
	logger  *log.Logger
	players []*Player
	board   []poker.Card
}

// New creates a table with the given number of disabled seats. The engine
// must already be built.
func New(eng *engine.Engine, seats int, logger *log.Logger) (*Table, error) {
	if eng == nil {
		return nil, engine.ErrEngineUnavailable
	}
	if seats < 2 || seats > engine.MaxSeats {
		return nil, fmt.Errorf("seats must be between 2 and %d, got %d", engine.MaxSeats, seats)
	}
	t := &Table{
		engine:  eng,
		logger:  logger.WithPrefix("table"),
		players: make([]*Player, seats),
	}
	for i := range t.players {
		t.players[i] = &Player{
			ID:     i,
			Name:   fmt.Sprintf("Player %d", i+1),
			Cursor: noCursor,
		}
	}
	return t, nil
}

func (t *Table) player(id int) (*Player, error) {
	if id < 0 || id >= len(t.players) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	return t.players[id], nil
}

// Player returns a copy of one seat.
func (t *Table) Player(id int) (Player, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, err := t.player(id)
	if err != nil {
		return Player{}, err
	}
	return p.clone(), nil
}

// Players returns copies of every seat.
func (t *Table) Players() []Player {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Player, len(t.players))
	for i, p := range t.players {
		out[i] = p.clone()
	}
	return out
}

// Board returns a copy of the known board cards.
func (t *Table) Board() []poker.Card {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.board)
}

func checkState(state State) error {
	if _, ok := stateNames[state]; !ok {
		return fmt.Errorf("%w: unknown player state %d", simulation.ErrInvalidConfig, int(state))
	}
	return nil
}

func checkHole(cards []poker.Card) error {
	if len(cards) != 0 && len(cards) != 2 {
		return fmt.Errorf("%w: hole cards must be 2 cards, got %d", simulation.ErrInvalidConfig, len(cards))
	}
	if len(cards) == 2 && cards[0] == cards[1] {
		return fmt.Errorf("%w: %s twice in hole cards", simulation.ErrCardCollision, cards[0])
	}
	return nil
}

// PlayerUpdate lists the seat fields to change. Nil fields are left alone.
type PlayerUpdate struct {
	Name  *string
	State *State
	Hole  *[]poker.Card
}

// UpdatePlayer checks every field of u before touching the seat, so a
// rejected update changes nothing.
func (t *Table) UpdatePlayer(id int, u PlayerUpdate) error {
	if u.State != nil {
		if err := checkState(*u.State); err != nil {
			return err
		}
	}
	if u.Hole != nil {
		if err := checkHole(*u.Hole); err != nil {
			return err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return err
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Hole != nil {
		p.Hole = slices.Clone(*u.Hole)
	}
	if u.State != nil {
		p.State = *u.State
	}
	return nil
}

// SetState switches a seat between disabled, fixed hole cards and range.
func (t *Table) SetState(id int, state State) error {
	if err := checkState(state); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return err
	}
	p.State = state
	return nil
}

// SetHoleCards sets a seat's known cards. An empty slice clears them.
func (t *Table) SetHoleCards(id int, cards []poker.Card) error {
	if err := checkHole(cards); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return err
	}
	p.Hole = slices.Clone(cards)
	return nil
}

// SetBoard sets the known board cards (0, 3, 4 or 5).
func (t *Table) SetBoard(cards []poker.Card) error {
	switch len(cards) {
	case 0, 3, 4, 5:
	default:
		return fmt.Errorf("%w: board must have 0, 3, 4 or 5 cards, has %d", simulation.ErrInvalidConfig, len(cards))
	}
	if poker.NewHand(cards...).CountCards() != len(cards) {
		return fmt.Errorf("%w: board repeats a card", simulation.ErrCardCollision)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.board = slices.Clone(cards)
	return nil
}

// SetRange parses notation and makes it the seat's range. With record set,
// the previous string is pushed onto the history. A parse failure leaves the
// seat unchanged.
func (t *Table) SetRange(id int, notation string, record bool) error {
	r, err := t.engine.ParseRange(notation)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return err
	}
	t.edit(p, strings.TrimSpace(notation), r, record)
	return nil
}

// SetCell sets one grid bucket to pct (0-100). rank1 > rank2 addresses the
// suited bucket, rank1 < rank2 the offsuit one and equal ranks the pair.
func (t *Table) SetCell(id int, rank1, rank2 uint8, pct float64) error {
	if rank1 > poker.Ace || rank2 > poker.Ace {
		return fmt.Errorf("rank out of range: %d, %d", rank1, rank2)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return err
	}
	next, err := p.Range.WithBucket(poker.BucketFor(rank1, rank2, rank1 > rank2), pct)
	if err != nil {
		return err
	}
	t.edit(p, next.String(), next, true)
	return nil
}

func (t *Table) edit(p *Player, text string, r ranges.Range, record bool) {
	if record && text != p.RangeText {
		p.History = append(p.History, p.RangeText)
		if len(p.History) > HistoryCapacity {
			p.History = slices.Delete(p.History, 0, len(p.History)-HistoryCapacity)
		}
	}
	p.Cursor = noCursor
	p.live = ""
	t.apply(p, text, r)
}

func (t *Table) apply(p *Player, text string, r ranges.Range) {
	p.RangeText = text
	p.Range = r
	p.Percent = r.Percent()
	t.logger.Debug("Range set", "player", p.ID, "range", text, "percent", p.Percent)
}

// Undo steps one entry back in the seat's history. It reports whether the
// range changed.
func (t *Table) Undo(id int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return false, err
	}

	switch {
	case len(p.History) == 0:
		return false, nil
	case p.Cursor == noCursor:
		p.live = p.RangeText
		p.Cursor = len(p.History) - 1
	case p.Cursor == 0:
		return false, nil
	default:
		p.Cursor--
	}
	return true, t.navigate(p, p.History[p.Cursor])
}

// Redo steps one entry forward. Moving past the newest entry restores the
// range held before Undo was first called.
func (t *Table) Redo(id int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.player(id)
	if err != nil {
		return false, err
	}

	if p.Cursor == noCursor {
		return false, nil
	}
	p.Cursor++
	if p.Cursor >= len(p.History) {
		live := p.live
		p.Cursor = noCursor
		p.live = ""
		return true, t.navigate(p, live)
	}
	return true, t.navigate(p, p.History[p.Cursor])
}

func (t *Table) navigate(p *Player, text string) error {
	r, err := t.engine.ParseRange(text)
	if err != nil {
		return err
	}
	t.apply(p, text, r)
	return nil
}

// SimulationConfig copies the active seats and board for a simulation batch.
func (t *Table) SimulationConfig() (simulation.Config, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cfg := simulation.Config{Board: slices.Clone(t.board)}
	for _, p := range t.players {
		switch p.State {
		case Disabled:
			continue
		case FixedHoleCards:
			if len(p.Hole) != 2 {
				return simulation.Config{}, fmt.Errorf("%w: seat %d has no hole cards", simulation.ErrInvalidConfig, p.ID)
			}
			cfg.Seats = append(cfg.Seats, simulation.SeatConfig{ID: p.ID, Hole: slices.Clone(p.Hole)})
		case UseRange:
			cfg.Seats = append(cfg.Seats, simulation.SeatConfig{ID: p.ID, Range: p.Range})
		}
	}
	return cfg, nil
}
