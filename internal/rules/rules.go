package rules

import (
	"time"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

// TimeoutCell marks a round that expired without any strike.
const TimeoutCell = -1

// Outcome is the result of one resolved round.
type Outcome struct {
	PointTo    entity.Role
	NextOpener entity.Role
	// Correct is true only for an in-time strike on the lit cell; it gates
	// latency recording.
	Correct bool
}

// ResolveOutcome applies the round-resolution rules. The reward is
// asymmetric: a responder who strikes the lit cell in time takes the point
// and the right to open next, while any failure (wrong cell or timeout)
// scores for the opener and leaves the opener in place.
func ResolveOutcome(opener entity.Role, actualCell, struckCell int, elapsed, deadline time.Duration) Outcome {
	if struckCell != actualCell || elapsed > deadline {
		return Outcome{PointTo: opener, NextOpener: opener}
	}

	responder := opener.Opponent()

	return Outcome{PointTo: responder, NextOpener: responder, Correct: true}
}
