package engine

import (
	"context"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Summary is the final-match projection handed to the presentation sink.
type Summary struct {
	ScoreA          int
	ScoreB          int
	FastestReaction int64
	Record          *entity.MatchRecord
}

// Presentation is the excluded UI layer. The engine only emits requests;
// rendering is the sink's business.
type Presentation interface {
	LightCell(cell int, by entity.Role)
	SetEnabledCells(cells []int)
	UpdateCountdown(secondsLeft int, lowTime bool)
	UpdateRound(round int)
	UpdateScore(role entity.Role, score int, avgReactionMs int64)
	ShowMessage(text string, severity Severity)
	ShowSummary(summary Summary)
}

// Recorder is the excluded stats layer. It receives exactly one record per
// finished match.
type Recorder interface {
	SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error
}

// ActionSource produces opener and responder actions for a role the local
// human does not control. Implementations deliver actions asynchronously
// through the engine's OpenCell/Strike methods; they must not call back
// synchronously.
type ActionSource interface {
	GenerateOpenAction(role entity.Role)
	GenerateRespondAction(role entity.Role, correctCell int)
}

// PeerNotifier forwards local actions to the remote peer in multiplayer mode.
type PeerNotifier interface {
	SendClick(cell int) error
	SendResponse(cell int, reactionMs int64) error
}

// NopPresentation discards all presentation requests.
type NopPresentation struct{}

func (NopPresentation) LightCell(int, entity.Role)          {}
func (NopPresentation) SetEnabledCells([]int)               {}
func (NopPresentation) UpdateCountdown(int, bool)           {}
func (NopPresentation) UpdateRound(int)                     {}
func (NopPresentation) UpdateScore(entity.Role, int, int64) {}
func (NopPresentation) ShowMessage(string, Severity)        {}
func (NopPresentation) ShowSummary(Summary)                 {}

// NopRecorder drops finished-match records.
type NopRecorder struct{}

func (NopRecorder) SaveMatchRecord(context.Context, *entity.MatchRecord) error { return nil }

// WaitForInput is the action source for roles driven by a human or by the
// network: it generates nothing and lets real input arrive.
type WaitForInput struct{}

func (WaitForInput) GenerateOpenAction(entity.Role)         {}
func (WaitForInput) GenerateRespondAction(entity.Role, int) {}

// NopPeer is the peer notifier for single-machine matches.
type NopPeer struct{}

func (NopPeer) SendClick(int) error           { return nil }
func (NopPeer) SendResponse(int, int64) error { return nil }
