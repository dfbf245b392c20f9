package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/reflexduel-backend/internal/apperror"
	"github.com/rocketscienceinc/reflexduel-backend/internal/metrics"
	"github.com/rocketscienceinc/reflexduel-backend/internal/relay"
	"github.com/rocketscienceinc/reflexduel-backend/internal/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 1024
)

// Server is the relay: it keeps room membership through the room manager and
// forwards in-match messages verbatim between a room's two occupants. It
// never advances game state itself.
type Server struct {
	logger  *slog.Logger
	rooms   *room.Manager
	metrics *metrics.Metrics

	upgrader websocket.Upgrader
	handlers map[string]func(c *client, msg *relay.Message)
}

func New(logger *slog.Logger, rooms *room.Manager, m *metrics.Metrics) *Server {
	server := &Server{
		logger:  logger.With("component", "relay"),
		rooms:   rooms,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]func(*client, *relay.Message)),
	}

	server.handlers[relay.TypeCreateRoom] = server.handleCreateRoom
	server.handlers[relay.TypeJoinRoom] = server.handleJoinRoom
	server.handlers[relay.TypeStartGame] = server.handleStartGame
	server.handlers[relay.TypeClick] = server.handleClick
	server.handlers[relay.TypeResponse] = server.handleResponse
	server.handlers[relay.TypeLeaveRoom] = server.handleLeaveRoom

	return server
}

// Start runs the relay on its own port until the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start relay server: %w", err)
	}

	return nil
}

// ServeHTTP upgrades the connection and serves it until it closes.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	peer := &client{
		id:     uuid.NewString(),
		conn:   conn,
		server: that,
	}

	that.metrics.ConnectedPlayers.Inc()
	log.Info("peer connected", "clientID", peer.id)

	if err = peer.send(&relay.Message{Type: relay.TypeConnected, ClientID: peer.id}); err != nil {
		log.Error("failed to send welcome message", "error", err)
	}

	go peer.pingLoop()
	that.readLoop(peer)

	that.handleDisconnect(peer)
}

// readLoop processes messages from one peer. A single malformed or unknown
// message is answered with an error envelope; the connection stays open.
func (that *Server) readLoop(peer *client) {
	log := that.logger.With("method", "readLoop", "clientID", peer.id)

	peer.conn.SetReadLimit(maxMessageSize)
	_ = peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	peer.conn.SetPongHandler(func(string) error {
		return peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := peer.conn.ReadMessage()
		if err != nil {
			log.Info("peer disconnected", "error", err)
			return
		}

		var msg relay.Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			peer.sendError(apperror.ErrMalformedMessage.Error())
			continue
		}

		handler, ok := that.handlers[msg.Type]
		if !ok {
			log.Error("unknown message type", "type", msg.Type)
			peer.sendError(apperror.ErrUnknownMessageType.Error())
			continue
		}

		handler(peer, &msg)
	}
}

// handleDisconnect treats a dropped connection as an implicit leave.
func (that *Server) handleDisconnect(peer *client) {
	that.leave(peer)
	that.metrics.ConnectedPlayers.Dec()
	_ = peer.conn.Close()
}
