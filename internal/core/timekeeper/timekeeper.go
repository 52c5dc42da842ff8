package timekeeper

import (
	"errors"
	"math"
	"sync"
	"time"

	"focusflow/internal/core/model"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Config contains runtime options for TimeKeeper.
type Config struct {
	TickInterval time.Duration
	Now          func() time.Time
}

// TimeKeeper is a state machine that manages break scheduling.
type TimeKeeper struct {
	mu               sync.Mutex
	config           model.TimeKeeperConfig
	options          Config
	state            State
	previousState    State
	remaining        time.Duration
	nextShort        time.Duration
	nextLong         time.Duration
	idleChecker      IdleChecker
	lastIdleCheck    time.Time
	events           []chan Event
	stopCh           chan struct{}
	running          bool
	paused           bool
	lastProgressSent time.Time
	workElapsed      time.Duration
}

const defaultIdleCheckInterval = 5 * time.Second

func normalize(config model.TimeKeeperConfig) model.TimeKeeperConfig {
	if config.IdleCheckInterval <= 0 {
		config.IdleCheckInterval = defaultIdleCheckInterval
	}
	return config
}

// New creates a TimeKeeper with the provided configuration.
func New(config model.TimeKeeperConfig, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	keeper := &TimeKeeper{
		config:        normalize(config),
		options:       options,
		state:         StateWork,
		previousState: StateWork,
		stopCh:        make(chan struct{}),
	}
	keeper.resetWorkTimersLocked()
	return keeper
}

// SetIdleChecker injects an idle checker.
func (keeper *TimeKeeper) SetIdleChecker(checker IdleChecker) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.idleChecker = checker
}

// Subscribe registers a new observer channel. Events are dropped for a
// subscriber whose buffer is full.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Start launches the ticking loop in a fresh work phase.
func (keeper *TimeKeeper) Start() {
	keeper.mu.Lock()
	if keeper.running {
		keeper.mu.Unlock()
		return
	}
	keeper.running = true
	keeper.paused = false
	keeper.previousState = StateWork
	keeper.lastIdleCheck = time.Time{}
	keeper.state = StateWork
	keeper.remaining = 0
	keeper.workElapsed = 0
	keeper.announceLocked(keeper.options.Now())
	keeper.mu.Unlock()

	go keeper.run()
}

// Stop terminates the ticking loop and closes observers.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}
	close(keeper.stopCh)
	keeper.running = false
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Pause freezes the timer.
func (keeper *TimeKeeper) Pause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.paused {
		return
	}
	keeper.paused = true
	keeper.previousState = keeper.state
	keeper.state = StatePaused
	keeper.announceLocked(keeper.options.Now())
}

// Resume continues the phase that was paused.
func (keeper *TimeKeeper) Resume() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if !keeper.paused {
		return
	}
	keeper.paused = false
	keeper.state = keeper.previousState
	keeper.announceLocked(keeper.options.Now())
}

// UpdateConfig updates runtime configuration and resets work timers.
func (keeper *TimeKeeper) UpdateConfig(config model.TimeKeeperConfig) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.config = normalize(config)
	keeper.resetWorkTimersLocked()
}

// SkipBreak ends the current break early. A skipped break is not reported
// as a completed phase.
func (keeper *TimeKeeper) SkipBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if !keeper.state.isBreak() {
		return
	}
	keeper.returnToWorkLocked()
	keeper.announceLocked(keeper.options.Now())
}

// ForceBreak triggers an immediate short or long break.
func (keeper *TimeKeeper) ForceBreak(state State) {
	if !state.isBreak() {
		return
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if !keeper.running || keeper.paused {
		return
	}
	keeper.enterBreakLocked(state)
}

// ResetForIdle forces the timer to restart work intervals.
func (keeper *TimeKeeper) ResetForIdle() {
	keeper.mu.Lock()
	keeper.resetWorkTimersLocked()
	keeper.mu.Unlock()
}

func (keeper *TimeKeeper) run() {
	ticker := time.NewTicker(keeper.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-keeper.stopCh:
			return
		case tickTime := <-ticker.C:
			keeper.tick(tickTime)
		}
	}
}

func (keeper *TimeKeeper) tick(tickTime time.Time) {
	keeper.mu.Lock()
	if !keeper.running || keeper.paused {
		keeper.mu.Unlock()
		return
	}

	if keeper.state == StateWork {
		keeper.handleIdleCheckLocked(tickTime)
		keeper.advanceWorkLocked(keeper.options.TickInterval)
		keeper.maybeEmitProgressLocked(tickTime)
	} else {
		keeper.advanceBreakLocked(keeper.options.TickInterval, tickTime)
	}
	keeper.mu.Unlock()
}

func (keeper *TimeKeeper) handleIdleCheckLocked(now time.Time) {
	if !keeper.config.IdleResetEnabled || keeper.idleChecker == nil {
		return
	}
	if !keeper.lastIdleCheck.IsZero() && now.Sub(keeper.lastIdleCheck) < keeper.config.IdleCheckInterval {
		return
	}
	keeper.lastIdleCheck = now

	idleDuration, err := keeper.idleChecker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			keeper.config.IdleResetEnabled = false
		}
		keeper.emitLocked(Event{
			Type:    EventIdleError,
			State:   keeper.state,
			Message: err.Error(),
			At:      now,
		})
		return
	}
	if idleDuration >= keeper.config.IdleResetAfter {
		keeper.resetWorkTimersLocked()
		keeper.workElapsed = 0
		keeper.emitLocked(Event{
			Type:    EventIdleReset,
			State:   keeper.state,
			Elapsed: idleDuration,
			Message: "idle reset",
			At:      now,
		})
	}
}

func (keeper *TimeKeeper) advanceWorkLocked(delta time.Duration) {
	keeper.workElapsed += delta
	if keeper.config.Long.Enabled {
		keeper.nextLong -= delta
		if keeper.nextLong <= 0 {
			keeper.enterBreakLocked(StateLongBreak)
			return
		}
	}
	if keeper.config.Short.Enabled {
		keeper.nextShort -= delta
		if keeper.nextShort <= 0 {
			keeper.enterBreakLocked(StateShortBreak)
			return
		}
	}
}

func (keeper *TimeKeeper) advanceBreakLocked(delta time.Duration, now time.Time) {
	keeper.remaining -= delta
	if keeper.remaining > 0 {
		keeper.emitLocked(Event{
			Type:       EventProgress,
			State:      keeper.state,
			Remaining:  keeper.remaining,
			Progress:   keeper.breakProgressLocked(),
			StrictMode: keeper.strictLocked(keeper.state),
			At:         now,
		})
		return
	}

	finished := keeper.state
	keeper.returnToWorkLocked()
	keeper.completePhaseLocked(finished, keeper.breakDurationLocked(finished), now)
	keeper.announceLocked(now)
}

func (keeper *TimeKeeper) enterBreakLocked(state State) {
	now := keeper.options.Now()
	if keeper.state == StateWork && keeper.workElapsed > 0 {
		keeper.state = state
		keeper.completePhaseLocked(StateWork, keeper.workElapsed, now)
	}
	keeper.workElapsed = 0
	keeper.state = state
	keeper.remaining = keeper.breakDurationLocked(state)
	if state == StateLongBreak {
		keeper.resetWorkTimersLocked()
	} else {
		keeper.nextShort = keeper.config.Short.Interval
	}
	keeper.announceLocked(now)
}

// returnToWorkLocked starts a fresh work phase with full intervals.
func (keeper *TimeKeeper) returnToWorkLocked() {
	keeper.state = StateWork
	keeper.remaining = 0
	keeper.workElapsed = 0
	keeper.resetWorkTimersLocked()
}

// completePhaseLocked reports that phase ran for elapsed. The event carries
// the state the keeper moved on to.
func (keeper *TimeKeeper) completePhaseLocked(phase State, elapsed time.Duration, now time.Time) {
	keeper.emitLocked(Event{
		Type:    EventPhaseComplete,
		State:   keeper.state,
		Phase:   phase,
		Elapsed: elapsed,
		At:      now,
	})
}

// announceLocked emits a state change for the current state.
func (keeper *TimeKeeper) announceLocked(now time.Time) {
	event := Event{
		Type:  EventStateChange,
		State: keeper.state,
		At:    now,
	}
	if keeper.state.isBreak() {
		event.Remaining = keeper.remaining
		event.StrictMode = keeper.strictLocked(keeper.state)
	}
	keeper.emitLocked(event)
}

func (keeper *TimeKeeper) strictLocked(state State) bool {
	return state == StateLongBreak && keeper.config.Long.StrictMode
}

func (keeper *TimeKeeper) resetWorkTimersLocked() {
	keeper.nextShort = keeper.config.Short.Interval
	keeper.nextLong = keeper.config.Long.Interval
}

func (keeper *TimeKeeper) breakDurationLocked(state State) time.Duration {
	switch state {
	case StateShortBreak:
		return keeper.config.Short.Duration
	case StateLongBreak:
		return keeper.config.Long.Duration
	}
	return 0
}

func (keeper *TimeKeeper) breakProgressLocked() float64 {
	total := keeper.breakDurationLocked(keeper.state)
	if total <= 0 {
		return 1
	}
	return clampUnit(float64(total-keeper.remaining) / float64(total))
}

func clampUnit(value float64) float64 {
	return math.Max(0, math.Min(1, value))
}

func (keeper *TimeKeeper) maybeEmitProgressLocked(now time.Time) {
	if keeper.lastProgressSent.IsZero() || now.Sub(keeper.lastProgressSent) >= keeper.options.TickInterval {
		keeper.emitLocked(Event{
			Type:      EventProgress,
			State:     keeper.state,
			Remaining: keeper.nextBreakRemainingLocked(),
			Progress:  keeper.workProgressLocked(),
			At:        now,
		})
		keeper.lastProgressSent = now
	}
}

func (keeper *TimeKeeper) nextBreakRemainingLocked() time.Duration {
	if keeper.config.Long.Enabled && keeper.nextLong < keeper.nextShort {
		return keeper.nextLong
	}
	if keeper.config.Short.Enabled {
		return keeper.nextShort
	}
	return 0
}

func (keeper *TimeKeeper) workProgressLocked() float64 {
	if keeper.config.Long.Enabled && keeper.config.Long.Interval > 0 {
		return float64(keeper.config.Long.Interval-keeper.nextLong) / float64(keeper.config.Long.Interval)
	}
	if keeper.config.Short.Enabled && keeper.config.Short.Interval > 0 {
		return float64(keeper.config.Short.Interval-keeper.nextShort) / float64(keeper.config.Short.Interval)
	}
	return 0
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	events := append([]chan Event(nil), keeper.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
