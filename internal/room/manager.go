package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/reflexduel-backend/internal/apperror"
	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

// DefaultIdleTTL is how long a never-started room may live before the sweep
// removes it.
const DefaultIdleTTL = time.Hour

// Occupant is one connected peer channel. The websocket server's client
// satisfies this.
type Occupant interface {
	ID() string
}

// Room pairs at most two peers under a short code. The occupant in slot A is
// the host.
type Room struct {
	Code        string
	HostID      string
	PlayerA     Occupant
	PlayerB     Occupant
	GameStarted bool
	CreatedAt   time.Time
}

func (that *Room) Info() entity.RoomInfo {
	return entity.RoomInfo{
		ID:          that.Code,
		HasPlayerA:  that.PlayerA != nil,
		HasPlayerB:  that.PlayerB != nil,
		GameStarted: that.GameStarted,
	}
}

// Manager owns the authoritative code-to-room map. All handlers mutate it
// under one lock; a room record is never read-then-written across a lock
// release.
type Manager struct {
	logger  *slog.Logger
	clock   clockwork.Clock
	idleTTL time.Duration

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewManager(logger *slog.Logger, clock clockwork.Clock, idleTTL time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	return &Manager{
		logger:  logger.With("component", "rooms"),
		clock:   clock,
		idleTTL: idleTTL,
		rooms:   make(map[string]*Room),
	}
}

// Create allocates a room with a fresh code and seats the creator as host.
func (that *Manager) Create(host Occupant) *Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	code := randomCode()
	for _, taken := that.rooms[code]; taken; _, taken = that.rooms[code] {
		code = randomCode()
	}

	created := &Room{
		Code:      code,
		HostID:    host.ID(),
		PlayerA:   host,
		CreatedAt: that.clock.Now(),
	}
	that.rooms[code] = created

	that.logger.Info("room created", "code", code, "host", host.ID())

	return created
}

// Join seats a peer into slot B.
func (that *Manager) Join(code string, peer Occupant) (entity.Role, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[code]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if existing.GameStarted {
		return "", false, apperror.ErrAlreadyStarted
	}

	if existing.PlayerB != nil {
		return "", false, apperror.ErrRoomFull
	}

	if existing.PlayerA != nil && existing.PlayerA.ID() == peer.ID() {
		return "", false, apperror.ErrAlreadyHost
	}

	existing.PlayerB = peer

	that.logger.Info("player joined room", "code", code, "player", peer.ID())

	return entity.RoleB, existing.GameStarted, nil
}

// Leave clears the matching slot. An empty room is deleted; a room that
// loses its host while B remains promotes B into slot A as the new host.
// It reports the remaining occupant, whether a host migration happened and
// whether the room was deleted.
func (that *Manager) Leave(code string, peer Occupant) (Occupant, bool, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[code]
	if !ok {
		return nil, false, false
	}

	if existing.PlayerA != nil && existing.PlayerA.ID() == peer.ID() {
		existing.PlayerA = nil
	}
	if existing.PlayerB != nil && existing.PlayerB.ID() == peer.ID() {
		existing.PlayerB = nil
	}

	if existing.PlayerA == nil && existing.PlayerB == nil {
		delete(that.rooms, code)
		that.logger.Info("room deleted", "code", code)
		return nil, false, true
	}

	if existing.PlayerA == nil && existing.PlayerB != nil {
		existing.PlayerA = existing.PlayerB
		existing.PlayerB = nil
		existing.HostID = existing.PlayerA.ID()
		that.logger.Info("host migrated", "code", code, "host", existing.HostID)
		return existing.PlayerA, true, false
	}

	return existing.PlayerA, false, false
}

// StartGame flips the room into its started state. Only the recorded host
// may start, and only with both slots occupied.
func (that *Manager) StartGame(code, requesterID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[code]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if existing.HostID != requesterID {
		return apperror.ErrNotHost
	}

	if existing.PlayerA == nil || existing.PlayerB == nil {
		return apperror.ErrNotEnoughPlayers
	}

	existing.GameStarted = true

	that.logger.Info("game started", "code", code)

	return nil
}

// RelayTarget returns the other occupant of a started room, the only
// legitimate destination for an in-match message.
func (that *Manager) RelayTarget(code, senderID string) (Occupant, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[code]
	if !ok || !existing.GameStarted {
		return nil, false
	}

	for _, occupant := range []Occupant{existing.PlayerA, existing.PlayerB} {
		if occupant != nil && occupant.ID() != senderID {
			return occupant, true
		}
	}

	return nil, false
}

// Members returns the current occupants of a room.
func (that *Manager) Members(code string) []Occupant {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[code]
	if !ok {
		return nil
	}

	var members []Occupant
	for _, occupant := range []Occupant{existing.PlayerA, existing.PlayerB} {
		if occupant != nil {
			members = append(members, occupant)
		}
	}

	return members
}

// HostID reports the current host identity of a room.
func (that *Manager) HostID(code string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[code]
	if !ok {
		return "", false
	}

	return existing.HostID, true
}

// List projects all live rooms for the read-only listing endpoint.
func (that *Manager) List() []entity.RoomInfo {
	that.mu.Lock()
	defer that.mu.Unlock()

	infos := make([]entity.RoomInfo, 0, len(that.rooms))
	for _, existing := range that.rooms {
		infos = append(infos, existing.Info())
	}

	return infos
}

// PlayerCount counts seated peers across all rooms.
func (that *Manager) PlayerCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	var count int
	for _, existing := range that.rooms {
		if existing.PlayerA != nil {
			count++
		}
		if existing.PlayerB != nil {
			count++
		}
	}

	return count
}

// SweepIdle deletes rooms past the idle TTL that never started. Returns how
// many were removed.
func (that *Manager) SweepIdle() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.clock.Now()

	var removed int
	for code, existing := range that.rooms {
		if !existing.GameStarted && now.Sub(existing.CreatedAt) > that.idleTTL {
			delete(that.rooms, code)
			removed++
			that.logger.Info("idle room swept", "code", code)
		}
	}

	return removed
}

// RunSweeper periodically sweeps idle rooms until the context is canceled.
func (that *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := that.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			that.SweepIdle()
		case <-ctx.Done():
			return
		}
	}
}
