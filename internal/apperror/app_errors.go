package apperror

import "errors"

// Room lifecycle errors. Surfaced to the requester only, never broadcast.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrAlreadyHost      = errors.New("player is already the room host")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("waiting for players to join")
)

// Protocol errors. Surfaced back to the sender as an error message; the
// connection stays open.
var (
	ErrMalformedMessage   = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// ErrStaleAction marks an action addressed to a round that is no longer
// current. Expected under network jitter, silently dropped.
var ErrStaleAction = errors.New("action references a stale round")

// ErrMatchNotRunning marks input arriving outside an active match.
var ErrMatchNotRunning = errors.New("match is not running")
