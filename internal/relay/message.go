// Package relay defines the JSON wire messages exchanged between peers and
// the relay server. The server never interprets in-match payloads beyond the
// type discriminator; click and response messages pass through verbatim.
package relay

// Message types sent by clients.
const (
	TypeCreateRoom = "create_room"
	TypeJoinRoom   = "join_room"
	TypeStartGame  = "start_game"
	TypeClick      = "click"
	TypeResponse   = "response"
	TypeLeaveRoom  = "leave_room"
)

// Message types sent by the server.
const (
	TypeConnected        = "connected"
	TypeRoomCreated      = "room_created"
	TypeRoomJoined       = "room_joined"
	TypePlayerJoined     = "player_joined"
	TypeGameStart        = "game_start"
	TypeOpponentClick    = "opponent_click"
	TypeOpponentResponse = "opponent_response"
	TypePlayerLeft       = "player_left"
	TypeError            = "error"
)

// Message is the flat wire envelope. Fields are populated per type; CellIndex
// and GameStarted are pointers so an explicit zero survives omitempty.
type Message struct {
	Type         string `json:"type"`
	ClientID     string `json:"clientId,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
	Role         string `json:"role,omitempty"`
	PlayerRole   string `json:"playerRole,omitempty"`
	GameStarted  *bool  `json:"gameStarted,omitempty"`
	CellIndex    *int   `json:"cellIndex,omitempty"`
	ReactionTime int64  `json:"reactionTime,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
	Message      string `json:"message,omitempty"`
}

// NewError builds the error envelope surfaced to a single requester.
func NewError(text string) *Message {
	return &Message{Type: TypeError, Message: text}
}

// Int returns a pointer for optional numeric fields.
func Int(v int) *int { return &v }

// Bool returns a pointer for optional boolean fields.
func Bool(v bool) *bool { return &v }
