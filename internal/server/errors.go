package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/ranges"
	"github.com/eric7237cire/poker-eval/internal/simulation"
	"github.com/eric7237cire/poker-eval/internal/table"
	"github.com/eric7237cire/poker-eval/poker"
)

// ErrInvalidCards is returned for card or rank strings that do not parse.
var ErrInvalidCards = errors.New("invalid cards")

func errInvalidCards(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidCards, err)
}

func parseCards(s string) ([]poker.Card, error) {
	cards, err := poker.ParseCards(s)
	if err != nil {
		return nil, errInvalidCards(err)
	}
	return cards, nil
}

func parseRange(notation string) (ranges.Range, error) {
	return ranges.Parse(notation)
}

// Error codes sent to clients.
const (
	CodeInvalidMessage     = "invalid_message"
	CodeUnknownMessageType = "unknown_message_type"
	CodeInvalidRangeSyntax = "invalid_range_syntax"
	CodeInvalidRangeInput  = "invalid_range_input"
	CodeInvalidCards       = "invalid_cards"
	CodeCardCollision      = "card_collision"
	CodeInvalidConfig      = "invalid_config"
	CodeNotConfigured      = "not_configured"
	CodeUnknownPlayer      = "unknown_player"
	CodeEngineUnavailable  = "engine_unavailable"
	CodeCancelled          = "cancelled"
	CodeInternal           = "internal_error"
)

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{engine.ErrEngineUnavailable, CodeEngineUnavailable, http.StatusServiceUnavailable},
	{ranges.ErrInvalidRangeSyntax, CodeInvalidRangeSyntax, http.StatusBadRequest},
	{ranges.ErrInvalidRangeInput, CodeInvalidRangeInput, http.StatusBadRequest},
	{ErrInvalidCards, CodeInvalidCards, http.StatusBadRequest},
	{simulation.ErrCardCollision, CodeCardCollision, http.StatusBadRequest},
	{simulation.ErrInvalidConfig, CodeInvalidConfig, http.StatusBadRequest},
	{simulation.ErrNotConfigured, CodeNotConfigured, http.StatusConflict},
	{table.ErrUnknownPlayer, CodeUnknownPlayer, http.StatusNotFound},
	{context.Canceled, CodeCancelled, http.StatusRequestTimeout},
	{context.DeadlineExceeded, CodeCancelled, http.StatusRequestTimeout},
}

// errorCode maps an error to its client code and HTTP status.
func errorCode(err error) (string, int) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code, e.status
		}
	}
	return CodeInternal, http.StatusInternalServerError
}

// ErrorForCode returns the sentinel error behind a client code, or nil for
// codes without one.
func ErrorForCode(code string) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}
