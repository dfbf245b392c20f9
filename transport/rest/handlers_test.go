package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

type stubRooms struct {
	infos   []entity.RoomInfo
	players int
}

func (that *stubRooms) List() []entity.RoomInfo { return that.infos }
func (that *stubRooms) PlayerCount() int        { return that.players }

type stubRecords struct {
	records []*entity.MatchRecord
	err     error
}

func (that *stubRecords) GetRecent(_ context.Context, _ int64) ([]*entity.MatchRecord, error) {
	return that.records, that.err
}

func TestHandlers_Health(t *testing.T) {
	// Given: three connected players
	handlers := NewHandlers(&stubRooms{players: 3}, &stubRecords{})

	// When: liveness is probed
	rec := httptest.NewRecorder()
	handlers.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Then: the body reports ok with the player count
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["players"])
}

func TestHandlers_Rooms(t *testing.T) {
	t.Run("lists live rooms", func(t *testing.T) {
		// Given: one waiting room and one running room
		handlers := NewHandlers(&stubRooms{infos: []entity.RoomInfo{
			{ID: "AB23CD", HasPlayerA: true},
			{ID: "XY45ZW", HasPlayerA: true, HasPlayerB: true, GameStarted: true},
		}}, &stubRecords{})

		// When: the listing is requested
		rec := httptest.NewRecorder()
		handlers.Rooms(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

		// Then: both rooms come back as JSON
		require.Equal(t, http.StatusOK, rec.Code)

		var infos []entity.RoomInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "AB23CD", infos[0].ID)
		assert.True(t, infos[1].GameStarted)
	})

	t.Run("no rooms is an empty array", func(t *testing.T) {
		handlers := NewHandlers(&stubRooms{}, &stubRecords{})

		rec := httptest.NewRecorder()
		handlers.Rooms(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestHandlers_History(t *testing.T) {
	t.Run("serves recent records", func(t *testing.T) {
		// Given: one finished match on file
		record := &entity.MatchRecord{
			ID:        "rec-1",
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Mode:      entity.ModeAI,
			Duration:  60,
			PlayerA:   entity.PlayerResult{Score: 5, ReactionTimes: []int64{420, 398}},
			PlayerB:   entity.PlayerResult{Score: 3, ReactionTimes: []int64{512}},
		}
		handlers := NewHandlers(&stubRooms{}, &stubRecords{records: []*entity.MatchRecord{record}})

		// When: history is requested
		rec := httptest.NewRecorder()
		handlers.History(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

		// Then: the record round-trips with scores and latencies
		require.Equal(t, http.StatusOK, rec.Code)

		var got []*entity.MatchRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, 5, got[0].PlayerA.Score)
		assert.Equal(t, []int64{512}, got[0].PlayerB.ReactionTimes)
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		handlers := NewHandlers(&stubRooms{}, &stubRecords{})

		rec := httptest.NewRecorder()
		handlers.History(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("storage failure is a 500", func(t *testing.T) {
		handlers := NewHandlers(&stubRooms{}, &stubRecords{err: errors.New("connection refused")})

		rec := httptest.NewRecorder()
		handlers.History(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
