// Package client talks to a poker-eval server over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/eric7237cire/poker-eval/internal/results"
	"github.com/eric7237cire/poker-eval/internal/server" // Reuse message types
	"github.com/eric7237cire/poker-eval/internal/table"
)

// ErrClosed is returned for requests on a closed client.
var ErrClosed = errors.New("client closed")

// RemoteError is an error reply from the server. errors.Is matches it
// against the server's sentinel errors.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return server.ErrorForCode(e.Code)
}

// Client sends requests and waits for the reply carrying the same request ID.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	logger    *log.Logger
	nextID    atomic.Uint64
	writeMu   sync.Mutex
	mu        sync.Mutex
	pending   map[string]chan *server.Message
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the server. http and https URLs are converted to ws and wss.
func Dial(ctx context.Context, serverURL string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		serverURL: serverURL,
		conn:      conn,
		logger:    logger.WithPrefix("client"),
		pending:   make(map[string]chan *server.Message),
		done:      make(chan struct{}),
	}
	go c.readPump()
	c.logger.Debug("Connected to server", "url", u.String())
	return c, nil
}

// Close closes the connection and fails outstanding requests.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readPump() {
	defer func() { _ = c.Close() }()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("Dropping unexpected message", "type", msg.Type, "requestId", msg.RequestID)
			continue
		}
		ch <- &msg
	}
}

// Do sends one request and decodes the reply into out, which may be nil.
func (c *Client) Do(ctx context.Context, typ server.MessageType, data, out any) error {
	msg, err := server.NewMessage(typ, data)
	if err != nil {
		return err
	}
	msg.RequestID = strconv.FormatUint(c.nextID.Add(1), 10)

	reply := make(chan *server.Message, 1)
	c.mu.Lock()
	c.pending[msg.RequestID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err = c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}

	select {
	case resp := <-reply:
		return decodeReply(typ, resp, out)
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func decodeReply(typ server.MessageType, resp *server.Message, out any) error {
	if resp.Type == server.MessageTypeError {
		var e server.ErrorData
		if err := json.Unmarshal(resp.Data, &e); err != nil {
			return fmt.Errorf("decode error reply: %w", err)
		}
		return &RemoteError{Code: e.Code, Message: e.Message}
	}
	if resp.Type != typ.Result() {
		return fmt.Errorf("expected %s, got %s", typ.Result(), resp.Type)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Data, out)
}

// SeatHole puts known cards on a seat.
func (c *Client) SeatHole(ctx context.Context, id int, cards string) (server.PlayerState, error) {
	state := table.FixedHoleCards
	var p server.PlayerState
	err := c.Do(ctx, server.MessageTypeSetPlayer, server.SetPlayerData{PlayerID: id, State: &state, HoleCards: &cards}, &p)
	return p, err
}

// SeatRange gives a seat a range.
func (c *Client) SeatRange(ctx context.Context, id int, notation string) (server.PlayerState, error) {
	state := table.UseRange
	if err := c.Do(ctx, server.MessageTypeSetPlayer, server.SetPlayerData{PlayerID: id, State: &state}, nil); err != nil {
		return server.PlayerState{}, err
	}
	return c.SetRange(ctx, id, notation)
}

func (c *Client) SetRange(ctx context.Context, id int, notation string) (server.PlayerState, error) {
	var p server.PlayerState
	err := c.Do(ctx, server.MessageTypeSetRange, server.SetRangeData{PlayerID: id, Range: notation}, &p)
	return p, err
}

func (c *Client) Undo(ctx context.Context, id int) (server.HistoryMoveData, error) {
	var m server.HistoryMoveData
	err := c.Do(ctx, server.MessageTypeUndo, server.PlayerRefData{PlayerID: id}, &m)
	return m, err
}

func (c *Client) Redo(ctx context.Context, id int) (server.HistoryMoveData, error) {
	var m server.HistoryMoveData
	err := c.Do(ctx, server.MessageTypeRedo, server.PlayerRefData{PlayerID: id}, &m)
	return m, err
}

func (c *Client) SetBoard(ctx context.Context, board string) error {
	return c.Do(ctx, server.MessageTypeSetBoard, server.SetBoardData{Board: board}, nil)
}

func (c *Client) Players(ctx context.Context) (server.PlayersData, error) {
	var p server.PlayersData
	err := c.Do(ctx, server.MessageTypeGetPlayers, nil, &p)
	return p, err
}

// Configure starts a fresh simulation from the server's table.
func (c *Client) Configure(ctx context.Context) (server.ConfiguredData, error) {
	var cfg server.ConfiguredData
	err := c.Do(ctx, server.MessageTypeConfigure, nil, &cfg)
	return cfg, err
}

// Simulate runs one more batch and returns the updated results.
func (c *Client) Simulate(ctx context.Context, trials int) (*results.Snapshot, error) {
	var snap results.Snapshot
	if err := c.Do(ctx, server.MessageTypeSimulate, server.SimulateData{Trials: trials}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Snapshot(ctx context.Context) (*results.Snapshot, error) {
	var snap results.Snapshot
	if err := c.Do(ctx, server.MessageTypeSnapshot, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) NarrowEquity(ctx context.Context, req server.NarrowEquityData) (server.RangeData, error) {
	var r server.RangeData
	err := c.Do(ctx, server.MessageTypeNarrowEquity, req, &r)
	return r, err
}

func (c *Client) NarrowPreference(ctx context.Context, req server.NarrowPreferenceData) (server.RangeData, error) {
	var r server.RangeData
	err := c.Do(ctx, server.MessageTypeNarrowPreference, req, &r)
	return r, err
}
