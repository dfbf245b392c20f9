package entity

import "time"

// PlayerResult is one side's slice of a finished-match record.
type PlayerResult struct {
	Score         int     `json:"score"`
	ReactionTimes []int64 `json:"reactionTimes"`
}

// MatchRecord is the persistence-sink payload emitted once per finished match.
type MatchRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Mode      string       `json:"mode"`
	Duration  int          `json:"duration"`
	PlayerA   PlayerResult `json:"playerA"`
	PlayerB   PlayerResult `json:"playerB"`
}

// RoomInfo is the read-only room projection served by the listing endpoint.
type RoomInfo struct {
	ID          string `json:"id"`
	HasPlayerA  bool   `json:"hasPlayerA"`
	HasPlayerB  bool   `json:"hasPlayerB"`
	GameStarted bool   `json:"gameStarted"`
}
