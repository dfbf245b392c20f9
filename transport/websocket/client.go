package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/reflexduel-backend/internal/relay"
)

// client is one connected peer. It satisfies room.Occupant. roomCode is only
// touched from the client's own read loop.
type client struct {
	id       string
	conn     *websocket.Conn
	server   *Server
	roomCode string

	writeMu sync.Mutex
}

func (that *client) ID() string {
	return that.id
}

func (that *client) send(msg *relay.Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

	return that.conn.WriteJSON(msg)
}

func (that *client) sendError(text string) {
	if err := that.send(relay.NewError(text)); err != nil {
		that.server.logger.Error("failed to send error message", "clientID", that.id, "error", err)
	}
}

// pingLoop keeps the heartbeat going; the read deadline is refreshed by the
// pong handler. It stops once the connection errors out.
func (that *client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		deadline := time.Now().Add(writeWait)
		if err := that.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}
