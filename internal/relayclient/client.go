package relayclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
	"github.com/rocketscienceinc/reflexduel-backend/internal/relay"
)

const (
	// MaxConnectAttempts bounds dial retries before the client gives up.
	MaxConnectAttempts = 3

	// ReconnectBackoff is the fixed pause between attempts.
	ReconnectBackoff = 2 * time.Second
)

var ErrNotConnected = errors.New("not connected to relay server")

// Handlers are the callbacks a match wires to inbound relay messages. Nil
// entries are skipped.
type Handlers struct {
	OnConnected        func(clientID string)
	OnRoomCreated      func(roomID string)
	OnRoomJoined       func(roomID string, role entity.Role, gameStarted bool)
	OnPlayerJoined     func(playerRole entity.Role)
	OnGameStart        func()
	OnOpponentClick    func(cellIndex int, timestamp int64)
	OnOpponentResponse func(cellIndex int, reactionMs, timestamp int64)
	OnPlayerLeft       func()
	OnError            func(message string)
	// OnDisconnected fires once reconnection attempts are exhausted; the
	// caller should drop back to the menu with a visible error.
	OnDisconnected func(err error)
}

// Client is the peer side of the relay protocol. It implements the engine's
// PeerNotifier.
type Client struct {
	logger   *slog.Logger
	clock    clockwork.Clock
	url      string
	handlers Handlers
	dialer   *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	closing bool
}

func New(logger *slog.Logger, clock clockwork.Clock, url string, handlers Handlers) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Client{
		logger:   logger.With("component", "relayclient"),
		clock:    clock,
		url:      url,
		handlers: handlers,
		dialer:   websocket.DefaultDialer,
	}
}

// Connect dials the relay with bounded retries and a fixed backoff, then
// starts the read loop.
func (that *Client) Connect(ctx context.Context) error {
	conn, err := that.dial(ctx)
	if err != nil {
		return err
	}

	that.mu.Lock()
	that.conn = conn
	that.closing = false
	that.mu.Unlock()

	go that.readLoop(ctx)

	return nil
}

func (that *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	log := that.logger.With("method", "dial")

	var lastErr error
	for attempt := 1; attempt <= MaxConnectAttempts; attempt++ {
		conn, _, err := that.dialer.DialContext(ctx, that.url, nil)
		if err == nil {
			log.Info("connected to relay server", "url", that.url, "attempt", attempt)
			return conn, nil
		}

		lastErr = err
		log.Info("dial failed", "attempt", attempt, "error", err)

		if attempt < MaxConnectAttempts {
			select {
			case <-that.clock.After(ReconnectBackoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("dial canceled: %w", ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", MaxConnectAttempts, lastErr)
}

// Close tears down the connection deliberately; no reconnect is attempted.
func (that *Client) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closing = true
	if that.conn == nil {
		return nil
	}

	err := that.conn.Close()
	that.conn = nil

	return err
}

func (that *Client) readLoop(ctx context.Context) {
	log := that.logger.With("method", "readLoop")

	for {
		that.mu.Lock()
		conn := that.conn
		that.mu.Unlock()

		if conn == nil {
			return
		}

		var msg relay.Message
		if err := conn.ReadJSON(&msg); err != nil {
			that.mu.Lock()
			deliberate := that.closing
			that.mu.Unlock()

			if deliberate || ctx.Err() != nil {
				return
			}

			log.Info("connection lost, attempting to reconnect", "error", err)

			if reconnErr := that.reconnect(ctx); reconnErr != nil {
				if that.handlers.OnDisconnected != nil {
					that.handlers.OnDisconnected(reconnErr)
				}
				return
			}
			continue
		}

		that.dispatch(&msg)
	}
}

func (that *Client) reconnect(ctx context.Context) error {
	conn, err := that.dial(ctx)
	if err != nil {
		return err
	}

	that.mu.Lock()
	that.conn = conn
	that.mu.Unlock()

	return nil
}

func (that *Client) dispatch(msg *relay.Message) {
	switch msg.Type {
	case relay.TypeConnected:
		if that.handlers.OnConnected != nil {
			that.handlers.OnConnected(msg.ClientID)
		}
	case relay.TypeRoomCreated:
		if that.handlers.OnRoomCreated != nil {
			that.handlers.OnRoomCreated(msg.RoomID)
		}
	case relay.TypeRoomJoined:
		if that.handlers.OnRoomJoined != nil {
			started := msg.GameStarted != nil && *msg.GameStarted
			that.handlers.OnRoomJoined(msg.RoomID, entity.Role(msg.Role), started)
		}
	case relay.TypePlayerJoined:
		if that.handlers.OnPlayerJoined != nil {
			that.handlers.OnPlayerJoined(entity.Role(msg.PlayerRole))
		}
	case relay.TypeGameStart:
		if that.handlers.OnGameStart != nil {
			that.handlers.OnGameStart()
		}
	case relay.TypeOpponentClick:
		if that.handlers.OnOpponentClick != nil && msg.CellIndex != nil {
			that.handlers.OnOpponentClick(*msg.CellIndex, msg.Timestamp)
		}
	case relay.TypeOpponentResponse:
		if that.handlers.OnOpponentResponse != nil && msg.CellIndex != nil {
			that.handlers.OnOpponentResponse(*msg.CellIndex, msg.ReactionTime, msg.Timestamp)
		}
	case relay.TypePlayerLeft:
		if that.handlers.OnPlayerLeft != nil {
			that.handlers.OnPlayerLeft()
		}
	case relay.TypeError:
		if that.handlers.OnError != nil {
			that.handlers.OnError(msg.Message)
		}
	default:
		that.logger.Debug("ignoring unknown message", "type", msg.Type)
	}
}

func (that *Client) send(msg *relay.Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return ErrNotConnected
	}

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}

	return nil
}

// CreateRoom asks the relay for a fresh room.
func (that *Client) CreateRoom() error {
	return that.send(&relay.Message{Type: relay.TypeCreateRoom})
}

// JoinRoom joins an existing room by code.
func (that *Client) JoinRoom(roomID string) error {
	return that.send(&relay.Message{Type: relay.TypeJoinRoom, RoomID: roomID})
}

// StartGame requests the match start; the relay enforces host-only.
func (that *Client) StartGame() error {
	return that.send(&relay.Message{Type: relay.TypeStartGame})
}

// LeaveRoom gives up the room slot.
func (that *Client) LeaveRoom() error {
	return that.send(&relay.Message{Type: relay.TypeLeaveRoom})
}

// SendClick notifies the peer of a local open.
func (that *Client) SendClick(cell int) error {
	return that.send(&relay.Message{
		Type:      relay.TypeClick,
		CellIndex: relay.Int(cell),
		Timestamp: that.clock.Now().UnixMilli(),
	})
}

// SendResponse notifies the peer of a local correct strike and its latency.
func (that *Client) SendResponse(cell int, reactionMs int64) error {
	return that.send(&relay.Message{
		Type:         relay.TypeResponse,
		CellIndex:    relay.Int(cell),
		ReactionTime: reactionMs,
		Timestamp:    that.clock.Now().UnixMilli(),
	})
}
