package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reflexduel-backend/internal/ai"
	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

// seededRand adapts a seeded math/rand source to the ai.Rand interface.
type seededRand struct{ *rand.Rand }

func (that seededRand) IntN(n int) int { return that.Intn(n) }

func (that *capturePresentation) litList() []int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]int(nil), that.litCells...)
}

// Plays the human side against a wired-in synthetic opponent across a full
// open/respond cycle in each direction.
func TestEngine_AgainstOpponent(t *testing.T) {
	// Given: an AI match where role B is a flawless synthetic opponent
	rig := newTestRig(t, entity.ModeAI, entity.RoleA)

	flawless := entity.DifficultyProfile{
		Name:        "test",
		MinReaction: 300 * time.Millisecond,
		MaxReaction: 400 * time.Millisecond,
		ErrorRate:   0,
	}
	opponent := ai.NewOpponent(nil, rig.clock, flawless, entity.RoleB, rig.engine).
		WithRand(seededRand{rand.New(rand.NewSource(3))})
	rig.engine.SetActionSource(opponent)

	require.NoError(t, rig.engine.Start(context.Background()))

	// When: the human opens cell 4 and the opponent's reaction window passes
	rig.engine.OpenCell(entity.RoleA, 4)
	rig.clock.Advance(flawless.MaxReaction)

	// Then: the opponent strikes correctly, takes the point and the opener turn
	require.Eventually(t, func() bool {
		return rig.engine.Score(entity.RoleB) == 1
	}, eventuallyTimeout, time.Millisecond)

	assert.Equal(t, entity.RoleB, rig.engine.Opener())
	assert.Len(t, rig.engine.ReactionTimes(entity.RoleB), 1)
	require.Equal(t, 2, rig.engine.Round())

	// When: the opponent's think delay elapses
	rig.clock.Advance(ai.OpenerThinkDelay)

	// Then: the opponent opens a cell of its own
	require.Eventually(t, func() bool {
		return len(rig.presentation.litList()) == 2
	}, eventuallyTimeout, time.Millisecond)
	require.Equal(t, entity.StateAwaitingResponse, rig.engine.State())

	lit := rig.presentation.litList()[1]

	// When: the human strikes the lit cell in time
	rig.clock.Advance(200 * time.Millisecond)
	rig.engine.HandleCellClick(lit)

	// Then: the human scores and the match moves on
	assert.Equal(t, 1, rig.engine.Score(entity.RoleA))
	assert.Equal(t, []int64{200}, rig.engine.ReactionTimes(entity.RoleA))
	assert.Equal(t, entity.RoleA, rig.engine.Opener())
	assert.Equal(t, 3, rig.engine.Round())
}
