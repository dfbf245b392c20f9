package ai

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

// OpenerThinkDelay is the fixed pause before the synthetic opponent opens a
// cell.
const OpenerThinkDelay = 500 * time.Millisecond

// Actor receives the generated actions. The engine satisfies this.
type Actor interface {
	OpenCell(role entity.Role, cell int)
	Strike(role entity.Role, cell int)
}

// Rand is the randomness the opponent consumes. Pinned in tests.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type stdRand struct{}

func (stdRand) IntN(n int) int   { return rand.Intn(n) }
func (stdRand) Float64() float64 { return rand.Float64() }

// Opponent emulates one role as a drop-in substitute for a remote peer. Its
// sampled reaction delay competes against the round deadline exactly as a
// human's would, so a slow profile can time itself out.
type Opponent struct {
	logger  *slog.Logger
	clock   clockwork.Clock
	profile entity.DifficultyProfile
	role    entity.Role
	actor   Actor
	rng     Rand
}

func NewOpponent(logger *slog.Logger, clock clockwork.Clock, profile entity.DifficultyProfile, role entity.Role, actor Actor) *Opponent {
	if logger == nil {
		logger = slog.Default()
	}

	return &Opponent{
		logger:  logger.With("component", "ai", "role", role),
		clock:   clock,
		profile: profile,
		role:    role,
		actor:   actor,
		rng:     stdRand{},
	}
}

// WithRand overrides the randomness source. Test hook.
func (that *Opponent) WithRand(rng Rand) *Opponent {
	that.rng = rng
	return that
}

// GenerateOpenAction schedules an open on a uniformly drawn cell after the
// fixed think delay. Calls for the other role are not this opponent's turn
// and are ignored.
func (that *Opponent) GenerateOpenAction(role entity.Role) {
	if role != that.role {
		return
	}

	cell := that.rng.IntN(entity.GridSize)

	that.clock.AfterFunc(OpenerThinkDelay, func() {
		that.actor.OpenCell(role, cell)
	})
}

// GenerateRespondAction schedules a strike after a reaction delay drawn from
// the difficulty profile. With the profile's error probability the strike
// deliberately lands on a wrong cell.
func (that *Opponent) GenerateRespondAction(role entity.Role, correctCell int) {
	if role != that.role {
		return
	}

	delay := that.sampleReaction()
	cell := correctCell
	if that.rng.Float64() < that.profile.ErrorRate {
		cell = that.wrongCell(correctCell)
	}

	that.logger.Debug("scheduling response", "cell", cell, "delay", delay)

	that.clock.AfterFunc(delay, func() {
		that.actor.Strike(role, cell)
	})
}

// sampleReaction draws a delay uniformly from the profile's bounds.
func (that *Opponent) sampleReaction() time.Duration {
	span := that.profile.MaxReaction - that.profile.MinReaction
	return that.profile.MinReaction + time.Duration(that.rng.IntN(int(span)+1))
}

// wrongCell draws uniformly from the eight cells other than the correct one.
func (that *Opponent) wrongCell(correctCell int) int {
	cell := that.rng.IntN(entity.GridSize - 1)
	if cell >= correctCell {
		cell++
	}
	return cell
}
