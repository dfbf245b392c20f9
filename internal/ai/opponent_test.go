package ai

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

const eventuallyTimeout = 2 * time.Second

// seededRand adapts a seeded math/rand source to the Rand interface.
type seededRand struct{ *rand.Rand }

func (that seededRand) IntN(n int) int { return that.Intn(n) }

type actionRecord struct {
	role entity.Role
	cell int
	at   time.Time
}

type captureActor struct {
	clock clockwork.Clock

	mu      sync.Mutex
	opens   []actionRecord
	strikes []actionRecord
}

func (that *captureActor) OpenCell(role entity.Role, cell int) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.opens = append(that.opens, actionRecord{role: role, cell: cell, at: that.clock.Now()})
}

func (that *captureActor) Strike(role entity.Role, cell int) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.strikes = append(that.strikes, actionRecord{role: role, cell: cell, at: that.clock.Now()})
}

func (that *captureActor) openCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.opens)
}

func (that *captureActor) strikeCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.strikes)
}

func (that *captureActor) strikeList() []actionRecord {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]actionRecord(nil), that.strikes...)
}

func newCaptureOpponent(profile entity.DifficultyProfile, seed uint64) (*Opponent, *clockwork.FakeClock, *captureActor) {
	clock := clockwork.NewFakeClock()
	actor := &captureActor{clock: clock}
	opponent := NewOpponent(nil, clock, profile, entity.RoleB, actor).
		WithRand(seededRand{rand.New(rand.NewSource(int64(seed)))})

	return opponent, clock, actor
}

func TestOpponent_GenerateOpenAction(t *testing.T) {
	t.Run("opens after the think delay", func(t *testing.T) {
		// Given: an opponent asked to open
		opponent, clock, actor := newCaptureOpponent(entity.ProfileEasy, 1)
		opponent.GenerateOpenAction(entity.RoleB)

		// When: just under the think delay has passed
		clock.Advance(OpenerThinkDelay - time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		// Then: no cell is opened yet
		require.Zero(t, actor.openCount())

		// When: the delay completes
		clock.Advance(time.Millisecond)

		// Then: exactly one valid cell is opened
		require.Eventually(t, func() bool {
			return actor.openCount() == 1
		}, eventuallyTimeout, time.Millisecond)

		actor.mu.Lock()
		open := actor.opens[0]
		actor.mu.Unlock()

		assert.Equal(t, entity.RoleB, open.role)
		assert.GreaterOrEqual(t, open.cell, 0)
		assert.Less(t, open.cell, entity.GridSize)
	})

	t.Run("ignores the other role's turn", func(t *testing.T) {
		// Given: an opponent bound to role B
		opponent, clock, actor := newCaptureOpponent(entity.ProfileEasy, 1)

		// When: role A's opener turn is announced
		opponent.GenerateOpenAction(entity.RoleA)
		clock.Advance(OpenerThinkDelay)
		time.Sleep(20 * time.Millisecond)

		// Then: nothing happens
		assert.Zero(t, actor.openCount())
	})
}

func TestOpponent_GenerateRespondAction(t *testing.T) {
	t.Run("strikes within the profile bounds", func(t *testing.T) {
		// Given: a hard-profile opponent asked to respond
		opponent, clock, actor := newCaptureOpponent(entity.ProfileHard, 7)
		start := clock.Now()

		opponent.GenerateRespondAction(entity.RoleB, 4)

		// When: just under the minimum reaction has passed
		clock.Advance(entity.ProfileHard.MinReaction - time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		// Then: the strike has not landed yet
		require.Zero(t, actor.strikeCount())

		// When: the maximum reaction has passed
		clock.Advance(entity.ProfileHard.MaxReaction - entity.ProfileHard.MinReaction + time.Millisecond)

		// Then: the strike landed inside [min, max]
		require.Eventually(t, func() bool {
			return actor.strikeCount() == 1
		}, eventuallyTimeout, time.Millisecond)

		strike := actor.strikeList()[0]
		elapsed := strike.at.Sub(start)
		assert.GreaterOrEqual(t, elapsed, entity.ProfileHard.MinReaction)
		assert.LessOrEqual(t, elapsed, entity.ProfileHard.MaxReaction)
	})

	t.Run("ignores the other role's response", func(t *testing.T) {
		opponent, clock, actor := newCaptureOpponent(entity.ProfileEasy, 1)

		opponent.GenerateRespondAction(entity.RoleA, 4)
		clock.Advance(entity.ProfileEasy.MaxReaction)
		time.Sleep(20 * time.Millisecond)

		assert.Zero(t, actor.strikeCount())
	})

	t.Run("deliberate miss never hits the lit cell", func(t *testing.T) {
		// Given: a profile that always errs
		alwaysWrong := entity.DifficultyProfile{
			Name:        "test",
			MinReaction: time.Millisecond,
			MaxReaction: 2 * time.Millisecond,
			ErrorRate:   1.0,
		}

		for correct := 0; correct < entity.GridSize; correct++ {
			opponent, clock, actor := newCaptureOpponent(alwaysWrong, uint64(correct)+1)

			// When: forty responses are generated for the same lit cell
			for i := 0; i < 40; i++ {
				opponent.GenerateRespondAction(entity.RoleB, correct)
			}
			clock.Advance(alwaysWrong.MaxReaction)

			require.Eventually(t, func() bool {
				return actor.strikeCount() == 40
			}, eventuallyTimeout, time.Millisecond)

			// Then: every strike lands on a valid cell other than the lit one
			for _, strike := range actor.strikeList() {
				require.NotEqual(t, correct, strike.cell)
				require.GreaterOrEqual(t, strike.cell, 0)
				require.Less(t, strike.cell, entity.GridSize)
			}
		}
	})

	t.Run("easy profile misses at roughly its error rate", func(t *testing.T) {
		// Given: an easy opponent and a large trial count
		const trials = 2000
		const correct = 4

		opponent, clock, actor := newCaptureOpponent(entity.ProfileEasy, 42)

		// When: all trials are generated and the clock runs past the slowest
		for i := 0; i < trials; i++ {
			opponent.GenerateRespondAction(entity.RoleB, correct)
		}
		clock.Advance(entity.ProfileEasy.MaxReaction)

		require.Eventually(t, func() bool {
			return actor.strikeCount() == trials
		}, eventuallyTimeout, time.Millisecond)

		// Then: the observed miss rate sits near the configured 15%
		var misses int
		for _, strike := range actor.strikeList() {
			if strike.cell != correct {
				misses++
			}
		}

		rate := float64(misses) / float64(trials)
		assert.InDelta(t, entity.ProfileEasy.ErrorRate, rate, 0.03)
	})
}
