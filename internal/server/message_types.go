package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeSetPlayer        MessageType = "set_player"
	MessageTypeSetRange         MessageType = "set_range"
	MessageTypeSetCell          MessageType = "set_cell"
	MessageTypeUndo             MessageType = "undo"
	MessageTypeRedo             MessageType = "redo"
	MessageTypeSetBoard         MessageType = "set_board"
	MessageTypeGetPlayers       MessageType = "get_players"
	MessageTypeConfigure        MessageType = "configure"
	MessageTypeSimulate         MessageType = "simulate"
	MessageTypeSnapshot         MessageType = "snapshot"
	MessageTypeNarrowEquity     MessageType = "narrow_equity"
	MessageTypeNarrowPreference MessageType = "narrow_preference"

	// Server to client messages
	MessageTypeError MessageType = "error"
)

// resultSuffix is appended to a request type to name its reply.
const resultSuffix = "_result"

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Result returns the type of the reply to a request of this type.
func (mt MessageType) Result() MessageType {
	return mt + resultSuffix
}
