package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/reflexduel-backend/internal/apperror"
	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
	"github.com/rocketscienceinc/reflexduel-backend/internal/rules"
)

const (
	// MatchDuration is the fixed contest length.
	MatchDuration = 60 * time.Second

	// ResponseWindow is the per-round strike deadline. It does not depend
	// on difficulty.
	ResponseWindow = 1000 * time.Millisecond

	// LowTimeThreshold is the countdown value at which the low-time signal
	// is raised, in seconds.
	LowTimeThreshold = 10
)

// Engine is the turn state machine for one match. All mutation goes through
// its transition methods; timers and inbound peer messages are the only
// asynchronous entry points. Exactly one round-deadline timer may be armed at
// a time, keyed by the round counter so a stale expiry can never resolve a
// superseded round.
type Engine struct {
	logger *slog.Logger
	clock  clockwork.Clock

	presentation Presentation
	recorder     Recorder
	peer         PeerNotifier
	source       ActionSource

	localRole entity.Role

	mu         sync.Mutex
	match      *entity.Match
	players    map[entity.Role]*entity.Participant
	roundTimer clockwork.Timer
	startedAt  time.Time

	parentCtx context.Context
	runCtx    context.Context
	cancelRun context.CancelFunc
}

// Config wires the engine's collaborators. Mode, LocalRole and the action
// source are fixed at construction; there is no runtime re-binding.
type Config struct {
	Logger       *slog.Logger
	Clock        clockwork.Clock
	Mode         string
	LocalRole    entity.Role
	Source       ActionSource
	Presentation Presentation
	Recorder     Recorder
	Peer         PeerNotifier
}

func New(conf Config) *Engine {
	if conf.Clock == nil {
		conf.Clock = clockwork.NewRealClock()
	}
	if conf.Source == nil {
		conf.Source = WaitForInput{}
	}
	if conf.Presentation == nil {
		conf.Presentation = NopPresentation{}
	}
	if conf.Recorder == nil {
		conf.Recorder = NopRecorder{}
	}
	if conf.Peer == nil {
		conf.Peer = NopPeer{}
	}
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}

	return &Engine{
		logger:       conf.Logger.With("component", "engine"),
		clock:        conf.Clock,
		presentation: conf.Presentation,
		recorder:     conf.Recorder,
		peer:         conf.Peer,
		source:       conf.Source,
		localRole:    conf.LocalRole,
		match:        entity.NewMatch(conf.Mode, int(MatchDuration/time.Second)),
		players: map[entity.Role]*entity.Participant{
			entity.RoleA: entity.NewParticipant(entity.RoleA),
			entity.RoleB: entity.NewParticipant(entity.RoleB),
		},
	}
}

// SetActionSource binds the opponent action source. Called once during match
// configuration, before Start.
func (that *Engine) SetActionSource(source ActionSource) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.source = source
}

// Start begins the match: role A opens first and the countdown starts
// ticking once per second.
func (that *Engine) Start(ctx context.Context) error {
	that.mu.Lock()

	if !that.match.IsIdle() {
		that.mu.Unlock()
		return fmt.Errorf("%w: match already started", apperror.ErrMatchNotRunning)
	}

	that.parentCtx = ctx
	that.runCtx, that.cancelRun = context.WithCancel(ctx)

	that.startedAt = that.clock.Now()
	that.match.State = entity.StateOpenerTurn
	that.match.Opener = entity.RoleA

	effects := that.beginTurnLocked()
	timeLeft := that.match.TimeLeft
	that.mu.Unlock()

	go that.runCountdown(that.runCtx)

	that.presentation.UpdateCountdown(timeLeft, false)
	that.runEffects(effects)

	return nil
}

// Stop aborts the match without emitting a record. This is the only way to
// cancel an in-flight AI action: its delayed delivery will find the match
// over and be dropped.
func (that *Engine) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.cancelRun != nil {
		that.cancelRun()
	}
	that.disarmRoundTimerLocked()
	that.match.State = entity.StateMatchOver
}

// HandleCellClick routes raw local input. A click is an open when it is the
// local player's opener turn and a strike when a response from the local
// player is pending; anything else is ignored.
func (that *Engine) HandleCellClick(cell int) {
	that.mu.Lock()

	var isOpen bool
	switch {
	case that.match.State == entity.StateOpenerTurn && that.match.Opener == that.localRole:
		isOpen = true
	case that.match.State == entity.StateAwaitingResponse && that.match.Responder() == that.localRole:
		isOpen = false
	default:
		that.mu.Unlock()
		return
	}
	that.mu.Unlock()

	if isOpen {
		that.OpenCell(that.localRole, cell)
		return
	}
	that.Strike(that.localRole, cell)
}

// OpenCell lights a cell on behalf of the current opener.
func (that *Engine) OpenCell(role entity.Role, cell int) {
	that.openCell(role, cell, false)
}

// Strike resolves the pending round with a local strike.
func (that *Engine) Strike(role entity.Role, cell int) {
	that.mu.Lock()

	if effects, expired := that.expireIfDueLocked(); expired {
		that.mu.Unlock()
		that.runEffects(effects)
		return
	}

	if that.match.State != entity.StateAwaitingResponse || role != that.match.Responder() {
		that.mu.Unlock()
		that.logger.Debug("dropping stale strike", "role", role, "cell", cell)
		return
	}

	elapsed := that.clock.Now().Sub(that.match.TurnStartedAt)
	effects := that.resolveLocked(cell, elapsed, false)
	that.mu.Unlock()

	that.runEffects(effects)
}

// ApplyOpponentOpen feeds a relayed open-cell notification into the machine.
// The remote peer is always the opposite of the local role; an open that does
// not match the current turn is stale and dropped.
func (that *Engine) ApplyOpponentOpen(cell int) {
	that.openCell(that.localRole.Opponent(), cell, true)
}

// ApplyOpponentResponse feeds a relayed response notification into the
// machine, resolving the round with the latency the peer measured. A
// duplicate delivery finds the round already resolved and is dropped.
func (that *Engine) ApplyOpponentResponse(cell int, reactionMs int64) {
	remote := that.localRole.Opponent()

	that.mu.Lock()

	if effects, expired := that.expireIfDueLocked(); expired {
		that.mu.Unlock()
		that.runEffects(effects)
		return
	}

	if that.match.State != entity.StateAwaitingResponse || remote != that.match.Responder() {
		that.mu.Unlock()
		that.logger.Debug("dropping stale opponent response", "cell", cell)
		return
	}

	effects := that.resolveLocked(cell, time.Duration(reactionMs)*time.Millisecond, true)
	that.mu.Unlock()

	that.runEffects(effects)
}

func (that *Engine) openCell(role entity.Role, cell int, fromRemote bool) {
	that.mu.Lock()

	if effects, expired := that.expireIfDueLocked(); expired {
		that.mu.Unlock()
		that.runEffects(effects)
		return
	}

	if that.match.State != entity.StateOpenerTurn || role != that.match.Opener || !entity.IsValidCell(cell) {
		that.mu.Unlock()
		that.logger.Debug("dropping stale open", "role", role, "cell", cell)
		return
	}

	that.match.State = entity.StateAwaitingResponse
	that.match.ActiveCell = cell
	that.match.TurnStartedAt = that.clock.Now()
	that.armRoundTimerLocked(that.match.Round)

	responder := that.match.Responder()
	effects := []func(){
		func() { that.presentation.LightCell(cell, role) },
		func() { that.presentation.SetEnabledCells([]int{cell}) },
		func() {
			that.presentation.ShowMessage(fmt.Sprintf("player %s, strike the lit cell", responder), SeverityInfo)
		},
	}

	if !fromRemote && that.match.Mode == entity.ModeMultiplayer {
		effects = append(effects, func() {
			if err := that.peer.SendClick(cell); err != nil {
				that.logger.Error("failed to send click to peer", "error", err)
			}
		})
	}

	effects = append(effects, func() { that.source.GenerateRespondAction(responder, cell) })

	that.mu.Unlock()
	that.runEffects(effects)
}

// resolveLocked settles the pending round and steps into the next opener
// turn. The deadline timer is always disarmed first, whatever the cause.
func (that *Engine) resolveLocked(struckCell int, elapsed time.Duration, fromRemote bool) []func() {
	that.disarmRoundTimerLocked()

	opener := that.match.Opener
	responder := that.match.Responder()
	outcome := rules.ResolveOutcome(opener, that.match.ActiveCell, struckCell, elapsed, ResponseWindow)

	that.players[outcome.PointTo].AwardPoint()

	elapsedMs := elapsed.Milliseconds()
	if outcome.Correct {
		that.players[responder].RecordReaction(elapsedMs)
	}

	scored := that.players[outcome.PointTo]
	var effects []func()

	switch {
	case outcome.Correct:
		effects = append(effects, func() {
			that.presentation.ShowMessage(fmt.Sprintf("player %s reacted in %dms", responder, elapsedMs), SeveritySuccess)
		})
	case struckCell == rules.TimeoutCell:
		effects = append(effects, func() {
			that.presentation.ShowMessage(fmt.Sprintf("player %s timed out", responder), SeverityError)
		})
	default:
		effects = append(effects, func() {
			that.presentation.ShowMessage(fmt.Sprintf("wrong cell, player %s scores", opener), SeverityError)
		})
	}

	effects = append(effects, func() {
		that.presentation.UpdateScore(scored.Role, scored.Score, scored.AvgReaction)
	})

	// The original protocol only relays correct strikes; the peer resolves
	// misses and timeouts from its own local deadline.
	if !fromRemote && that.match.Mode == entity.ModeMultiplayer && outcome.Correct {
		effects = append(effects, func() {
			if err := that.peer.SendResponse(struckCell, elapsedMs); err != nil {
				that.logger.Error("failed to send response to peer", "error", err)
			}
		})
	}

	that.match.Opener = outcome.NextOpener
	that.match.ActiveCell = entity.NoCell
	that.match.State = entity.StateOpenerTurn

	return append(effects, that.beginTurnLocked()...)
}

func (that *Engine) beginTurnLocked() []func() {
	that.match.Round++

	round := that.match.Round
	opener := that.match.Opener

	effects := []func(){
		func() { that.presentation.UpdateRound(round) },
		func() { that.presentation.SetEnabledCells(allCells()) },
		func() {
			that.presentation.ShowMessage(fmt.Sprintf("player %s, open a cell", opener), SeverityInfo)
		},
		func() { that.source.GenerateOpenAction(opener) },
	}

	return effects
}

// armRoundTimerLocked replaces any prior deadline timer with one keyed to
// the given round.
func (that *Engine) armRoundTimerLocked(round int) {
	that.disarmRoundTimerLocked()

	timer := that.clock.NewTimer(ResponseWindow)
	that.roundTimer = timer
	ctx := that.runCtx

	go func() {
		select {
		case <-timer.Chan():
			that.handleDeadline(round)
		case <-ctx.Done():
		}
	}()
}

func (that *Engine) disarmRoundTimerLocked() {
	if that.roundTimer == nil {
		return
	}

	if !that.roundTimer.Stop() {
		select {
		case <-that.roundTimer.Chan():
		default:
		}
	}
	that.roundTimer = nil
}

// handleDeadline fires when the response window elapses. A round counter
// mismatch means a strike already resolved this round and the expiry is
// stale.
func (that *Engine) handleDeadline(round int) {
	that.mu.Lock()

	if effects, expired := that.expireIfDueLocked(); expired {
		that.mu.Unlock()
		that.runEffects(effects)
		return
	}

	if that.match.State != entity.StateAwaitingResponse || that.match.Round != round {
		that.mu.Unlock()
		return
	}

	elapsed := that.clock.Now().Sub(that.match.TurnStartedAt)
	effects := that.resolveLocked(rules.TimeoutCell, elapsed, false)
	that.mu.Unlock()

	that.runEffects(effects)
}

func (that *Engine) runCountdown(ctx context.Context) {
	ticker := that.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if that.tick() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tick advances the countdown by one second. Countdown expiry wins over any
// pending round: the round is discarded without awarding its point.
func (that *Engine) tick() bool {
	that.mu.Lock()

	if that.match.IsOver() {
		that.mu.Unlock()
		return true
	}

	that.match.TimeLeft--
	timeLeft := that.match.TimeLeft
	lowTime := timeLeft <= LowTimeThreshold

	if timeLeft > 0 {
		that.mu.Unlock()
		that.presentation.UpdateCountdown(timeLeft, lowTime)
		return false
	}

	effects := that.endMatchLocked()
	that.mu.Unlock()

	that.runEffects(effects)

	return true
}

// expireIfDueLocked ends the match when the countdown has logically run out
// before this event acquired the lock. The match clock outranks any pending
// round resolution that would fire at the same tick.
func (that *Engine) expireIfDueLocked() ([]func(), bool) {
	if that.match.IsOver() || that.startedAt.IsZero() {
		return nil, false
	}

	if that.clock.Now().Sub(that.startedAt) < MatchDuration {
		return nil, false
	}

	return that.endMatchLocked(), true
}

func (that *Engine) endMatchLocked() []func() {
	that.disarmRoundTimerLocked()
	that.match.State = entity.StateMatchOver
	that.match.ActiveCell = entity.NoCell
	that.match.TimeLeft = 0

	if that.cancelRun != nil {
		that.cancelRun()
	}

	playerA := that.players[entity.RoleA]
	playerB := that.players[entity.RoleB]

	record := &entity.MatchRecord{
		ID:        uuid.NewString(),
		Timestamp: that.clock.Now(),
		Mode:      that.match.Mode,
		Duration:  int(MatchDuration / time.Second),
		PlayerA: entity.PlayerResult{
			Score:         playerA.Score,
			ReactionTimes: append([]int64(nil), playerA.ReactionTimes...),
		},
		PlayerB: entity.PlayerResult{
			Score:         playerB.Score,
			ReactionTimes: append([]int64(nil), playerB.ReactionTimes...),
		},
	}

	summary := Summary{
		ScoreA:          playerA.Score,
		ScoreB:          playerB.Score,
		FastestReaction: fastestOf(playerA, playerB),
		Record:          record,
	}

	ctx := that.parentCtx

	return []func(){
		func() { that.presentation.UpdateCountdown(0, true) },
		func() { that.presentation.SetEnabledCells(nil) },
		func() { that.presentation.ShowSummary(summary) },
		func() {
			if err := that.recorder.SaveMatchRecord(ctx, record); err != nil {
				that.logger.Error("failed to save match record", "error", err)
			}
		},
	}
}

func (that *Engine) runEffects(effects []func()) {
	for _, effect := range effects {
		effect()
	}
}

func fastestOf(players ...*entity.Participant) int64 {
	var fastest int64
	for _, p := range players {
		if f := p.FastestReaction(); f > 0 && (fastest == 0 || f < fastest) {
			fastest = f
		}
	}
	return fastest
}

func allCells() []int {
	cells := make([]int, entity.GridSize)
	for i := range cells {
		cells[i] = i
	}
	return cells
}

// State returns the current machine state.
func (that *Engine) State() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.match.State
}

// Opener returns the role currently privileged to open.
func (that *Engine) Opener() entity.Role {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.match.Opener
}

// Round returns the current round counter.
func (that *Engine) Round() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.match.Round
}

// TimeLeft returns the remaining countdown in seconds.
func (that *Engine) TimeLeft() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.match.TimeLeft
}

// Score returns a role's current score.
func (that *Engine) Score(role entity.Role) int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.players[role].Score
}

// ReactionTimes returns a copy of a role's recorded latencies.
func (that *Engine) ReactionTimes(role entity.Role) []int64 {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]int64(nil), that.players[role].ReactionTimes...)
}
