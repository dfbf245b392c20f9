package entity

import "time"

const (
	StateIdle             = "idle"
	StateOpenerTurn       = "opener_turn"
	StateAwaitingResponse = "awaiting_response"
	StateMatchOver        = "match_over"

	ModeAI          = "ai"
	ModeMultiplayer = "multiplayer"

	// GridSize is the number of cells on the board.
	GridSize = 9

	// NoCell marks that no cell is lit.
	NoCell = -1
)

// Match is one timed contest. It is owned by the engine and mutated only
// through its transition methods.
type Match struct {
	Mode          string    `json:"mode"`
	State         string    `json:"state"`
	Opener        Role      `json:"opener"`
	Round         int       `json:"round"`
	TimeLeft      int       `json:"time_left"`
	ActiveCell    int       `json:"active_cell"`
	TurnStartedAt time.Time `json:"-"`
}

func NewMatch(mode string, durationSec int) *Match {
	return &Match{
		Mode:       mode,
		State:      StateIdle,
		Opener:     RoleA,
		TimeLeft:   durationSec,
		ActiveCell: NoCell,
	}
}

func (that *Match) IsIdle() bool {
	return that.State == StateIdle
}

func (that *Match) IsAwaitingResponse() bool {
	return that.State == StateAwaitingResponse
}

func (that *Match) IsOver() bool {
	return that.State == StateMatchOver
}

// Responder is the role that must strike the active cell.
func (that *Match) Responder() Role {
	return that.Opener.Opponent()
}

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < GridSize
}
