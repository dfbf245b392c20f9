package websocket

import (
	"github.com/rocketscienceinc/reflexduel-backend/internal/apperror"
	"github.com/rocketscienceinc/reflexduel-backend/internal/relay"
)

func (that *Server) handleCreateRoom(peer *client, _ *relay.Message) {
	log := that.logger.With("method", "handleCreateRoom", "clientID", peer.id)

	created := that.rooms.Create(peer)
	peer.roomCode = created.Code
	that.metrics.LiveRooms.Inc()

	if err := peer.send(&relay.Message{Type: relay.TypeRoomCreated, RoomID: created.Code}); err != nil {
		log.Error("failed to send room_created", "error", err)
	}
}

func (that *Server) handleJoinRoom(peer *client, msg *relay.Message) {
	log := that.logger.With("method", "handleJoinRoom", "clientID", peer.id, "roomID", msg.RoomID)

	role, started, err := that.rooms.Join(msg.RoomID, peer)
	if err != nil {
		log.Info("join rejected", "reason", err)
		peer.sendError(err.Error())
		return
	}

	peer.roomCode = msg.RoomID

	joined := &relay.Message{
		Type:        relay.TypeRoomJoined,
		RoomID:      msg.RoomID,
		Role:        string(role),
		GameStarted: relay.Bool(started),
	}
	if err = peer.send(joined); err != nil {
		log.Error("failed to send room_joined", "error", err)
	}

	that.broadcast(msg.RoomID, &relay.Message{Type: relay.TypePlayerJoined, PlayerRole: string(role)}, peer.id)
}

func (that *Server) handleStartGame(peer *client, _ *relay.Message) {
	log := that.logger.With("method", "handleStartGame", "clientID", peer.id)

	if err := that.rooms.StartGame(peer.roomCode, peer.id); err != nil {
		log.Info("start rejected", "reason", err)
		peer.sendError(err.Error())
		return
	}

	that.broadcast(peer.roomCode, &relay.Message{Type: relay.TypeGameStart}, "")
}

// handleClick forwards an open-cell notification to the other occupant. The
// payload passes through untouched; the relay holds no opinion about it.
func (that *Server) handleClick(peer *client, msg *relay.Message) {
	if msg.CellIndex == nil {
		peer.sendError(apperror.ErrMalformedMessage.Error())
		return
	}

	that.relayToOpponent(peer, &relay.Message{
		Type:      relay.TypeOpponentClick,
		CellIndex: msg.CellIndex,
		Timestamp: msg.Timestamp,
	})
}

// handleResponse forwards a strike notification, latency included.
func (that *Server) handleResponse(peer *client, msg *relay.Message) {
	if msg.CellIndex == nil {
		peer.sendError(apperror.ErrMalformedMessage.Error())
		return
	}

	that.relayToOpponent(peer, &relay.Message{
		Type:         relay.TypeOpponentResponse,
		CellIndex:    msg.CellIndex,
		ReactionTime: msg.ReactionTime,
		Timestamp:    msg.Timestamp,
	})
}

func (that *Server) handleLeaveRoom(peer *client, _ *relay.Message) {
	that.leave(peer)
}

func (that *Server) relayToOpponent(peer *client, msg *relay.Message) {
	target, ok := that.rooms.RelayTarget(peer.roomCode, peer.id)
	if !ok {
		// Room gone or not started; expected during teardown, not an error.
		return
	}

	that.metrics.RelayedMessages.WithLabelValues(msg.Type).Inc()

	if err := target.(*client).send(msg); err != nil {
		that.logger.Error("failed to relay message", "type", msg.Type, "error", err)
	}
}

// leave clears the peer's room slot, migrating the host role when needed,
// and tells whoever stayed behind.
func (that *Server) leave(peer *client) {
	code := peer.roomCode
	if code == "" {
		return
	}
	peer.roomCode = ""

	remaining, migrated, deleted := that.rooms.Leave(code, peer)
	if deleted {
		that.metrics.LiveRooms.Dec()
		return
	}

	if remaining == nil {
		return
	}

	if migrated {
		that.logger.Info("remaining peer promoted to host", "room", code, "clientID", remaining.ID())
	}

	if err := remaining.(*client).send(&relay.Message{Type: relay.TypePlayerLeft}); err != nil {
		that.logger.Error("failed to send player_left", "error", err)
	}
}

// broadcast sends a message to every occupant of a room except excludeID.
func (that *Server) broadcast(code string, msg *relay.Message, excludeID string) {
	for _, member := range that.rooms.Members(code) {
		if member.ID() == excludeID {
			continue
		}

		if err := member.(*client).send(msg); err != nil {
			that.logger.Error("failed to broadcast", "type", msg.Type, "error", err)
		}
	}
}
