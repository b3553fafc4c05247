package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client. Each connection
// owns one session, created on first use once the engine is ready.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	logger    *log.Logger
	clock     quartz.Clock
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// session is only touched from the read loop
	session *session
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(server.ctx)

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		server: server,
		logger: server.logger.WithPrefix("conn"),
		clock:  server.clock,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client, stamping it with the
// server clock.
func (c *Connection) SendMessage(msg *Message) error {
	msg.Timestamp = c.clock.Now()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16384
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client. Messages are handled
// in order, so at most one simulation batch runs per connection.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "conn", "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

	if msg.Type == MessageTypeNarrowEquity || msg.Type == MessageTypeNarrowPreference {
		c.handleNarrow(msg)
		return
	}

	if c.session == nil {
		if !isSessionMessage(msg.Type) {
			c.sendError(msg.RequestID, CodeUnknownMessageType, "Unknown message type: "+msg.Type.String())
			return
		}
		sess, err := c.server.newSession()
		if err != nil {
			c.sendFailure(msg.RequestID, err)
			return
		}
		c.session = sess
	}

	var (
		result any
		err    error
	)
	switch msg.Type {
	case MessageTypeSetPlayer:
		var data SetPlayerData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.setPlayer(data)

	case MessageTypeSetRange:
		var data SetRangeData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.setRange(data)

	case MessageTypeSetCell:
		var data SetCellData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.setCell(data)

	case MessageTypeUndo:
		var data PlayerRefData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.move(data.PlayerID, c.session.table.Undo)

	case MessageTypeRedo:
		var data PlayerRefData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.move(data.PlayerID, c.session.table.Redo)

	case MessageTypeSetBoard:
		var data SetBoardData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.setBoard(data)

	case MessageTypeGetPlayers:
		result = c.session.players()

	case MessageTypeConfigure:
		result, err = c.session.configure()

	case MessageTypeSimulate:
		var data SimulateData
		if !c.decode(msg, &data) {
			return
		}
		result, err = c.session.simulate(c.ctx, data)

	case MessageTypeSnapshot:
		result, err = c.session.orch.Snapshot()

	default:
		c.sendError(msg.RequestID, CodeUnknownMessageType, "Unknown message type: "+msg.Type.String())
		return
	}

	if err != nil {
		c.sendFailure(msg.RequestID, err)
		return
	}
	c.sendResult(msg, result)
}

func (c *Connection) handleNarrow(msg *Message) {
	n, err := c.server.Narrower()
	if err != nil {
		c.sendFailure(msg.RequestID, err)
		return
	}

	var result RangeData
	switch msg.Type {
	case MessageTypeNarrowEquity:
		var data NarrowEquityData
		if !c.decode(msg, &data) {
			return
		}
		result, err = narrowEquity(c.ctx, n, data)
	default:
		var data NarrowPreferenceData
		if !c.decode(msg, &data) {
			return
		}
		result, err = narrowPreference(c.ctx, n, data)
	}
	if err != nil {
		c.sendFailure(msg.RequestID, err)
		return
	}
	c.sendResult(msg, result)
}

func isSessionMessage(t MessageType) bool {
	switch t {
	case MessageTypeSetPlayer, MessageTypeSetRange, MessageTypeSetCell,
		MessageTypeUndo, MessageTypeRedo, MessageTypeSetBoard,
		MessageTypeGetPlayers, MessageTypeConfigure, MessageTypeSimulate,
		MessageTypeSnapshot:
		return true
	}
	return false
}

// decode unmarshals the message payload, replying with an error on failure.
// A missing payload decodes as the zero value.
func (c *Connection) decode(msg *Message, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(msg.RequestID, CodeInvalidMessage, "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

func (c *Connection) sendResult(req *Message, data any) {
	response, err := NewMessage(req.Type.Result(), data)
	if err != nil {
		c.logger.Error("Failed to create response", "type", req.Type, "error", err)
		c.sendError(req.RequestID, CodeInternal, "Failed to encode response")
		return
	}
	response.RequestID = req.RequestID
	_ = c.SendMessage(response)
}

func (c *Connection) sendFailure(requestID string, err error) {
	code, _ := errorCode(err)
	if code == CodeInternal {
		c.logger.Error("Request failed", "requestId", requestID, "error", err)
	} else {
		c.logger.Debug("Request rejected", "requestId", requestID, "code", code, "error", err)
	}
	c.sendError(requestID, code, err.Error())
}

// sendError sends an error message to the client
func (c *Connection) sendError(requestID, code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	errorMsg.RequestID = requestID

	_ = c.SendMessage(errorMsg)
}
