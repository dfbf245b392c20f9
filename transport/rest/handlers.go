package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

const recentHistoryLimit = 10

type roomLister interface {
	List() []entity.RoomInfo
	PlayerCount() int
}

type recordGetter interface {
	GetRecent(ctx context.Context, limit int64) ([]*entity.MatchRecord, error)
}

type Handlers struct {
	rooms   roomLister
	records recordGetter
}

func NewHandlers(rooms roomLister, records recordGetter) Handlers {
	return Handlers{rooms: rooms, records: records}
}

// Health reports liveness and the connected-player count.
func (that Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"players": that.rooms.PlayerCount(),
	})
}

// Rooms lists live rooms.
func (that Handlers) Rooms(w http.ResponseWriter, _ *http.Request) {
	infos := that.rooms.List()
	if infos == nil {
		infos = []entity.RoomInfo{}
	}

	writeJSON(w, infos)
}

// History serves the most recent finished-match records.
func (that Handlers) History(w http.ResponseWriter, r *http.Request) {
	records, err := that.records.GetRecent(r.Context(), recentHistoryLimit)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []*entity.MatchRecord{}
	}

	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
