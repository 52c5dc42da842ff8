package analytics

import (
	"sync"
	"time"

	"focusflow/internal/core/events"
	"focusflow/internal/core/model"
	"focusflow/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage keys used by the engine.
const (
	SessionsKey    = "analytics.sessions"
	EnvironmentKey = "analytics.environment"
)

// DefaultSessionCapacity bounds the retained session history.
const DefaultSessionCapacity = 100

// Config contains runtime options for Engine.
type Config struct {
	SessionCapacity int
	Now             func() time.Time
	NewID           func() string
}

// Engine turns completed timer runs into sessions, classifies their flow
// state and keeps the insight view current.
type Engine struct {
	mu           sync.Mutex
	sessions     []model.FocusSession
	environment  model.EnvironmentState
	energy       int
	energySet    bool
	distractions int
	tasks        int
	flowState    model.FlowState
	capacity     int
	now          func() time.Time
	newID        func() string
	store        *storage.SecureStore
	bus          *events.Bus
	log          *zap.Logger
	unsubscribe  []func()
}

// New restores the persisted history and subscribes to the bus.
func New(store *storage.SecureStore, bus *events.Bus, config Config, logger *zap.Logger) *Engine {
	if config.SessionCapacity <= 0 {
		config.SessionCapacity = DefaultSessionCapacity
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		environment: model.DefaultEnvironment(),
		flowState:   model.FlowResting,
		capacity:    config.SessionCapacity,
		now:         config.Now,
		newID:       config.NewID,
		store:       store,
		bus:         bus,
		log:         logger.Named("analytics"),
	}
	engine.restore()

	if bus != nil {
		engine.unsubscribe = []func(){
			events.On(bus, engine.onTimer),
			events.On(bus, engine.onEnvironment),
			events.On(bus, engine.onEnergy),
			events.On(bus, engine.onDistraction),
			events.On(bus, engine.onTask),
		}
	}
	return engine
}

func (engine *Engine) restore() {
	if engine.store == nil {
		return
	}
	if sessions, ok := storage.Load[[]model.FocusSession](engine.store, SessionsKey); ok {
		if len(sessions) > engine.capacity {
			sessions = sessions[len(sessions)-engine.capacity:]
		}
		engine.sessions = sessions
		if len(sessions) > 0 {
			engine.flowState = sessions[len(sessions)-1].Flow.State
		}
	}
	if environment, ok := storage.Load[model.EnvironmentState](engine.store, EnvironmentKey); ok {
		engine.environment = environment
	}
	engine.log.Debug("history restored", zap.Int("sessions", len(engine.sessions)))
}

// Close detaches the engine from the bus.
func (engine *Engine) Close() {
	for _, unsubscribe := range engine.unsubscribe {
		unsubscribe()
	}
}

func (engine *Engine) onTimer(payload events.TimerStateUpdate, _ events.Event) {
	if !payload.Completed {
		return
	}
	engine.RecordSession(payload)
}

func (engine *Engine) onEnvironment(payload events.EnvironmentUpdate, _ events.Event) {
	engine.mu.Lock()
	next := engine.environment
	if payload.Noise != "" {
		next.Noise = payload.Noise
	}
	if payload.Lighting != "" {
		next.Lighting = payload.Lighting
	}
	if payload.Temperature != "" {
		next.Temperature = payload.Temperature
	}
	next.Quality = payload.Quality
	if next.Quality == 0 {
		next.Quality = next.Environment.Quality()
	}
	engine.environment = next
	engine.persistLocked(EnvironmentKey, next)
	engine.mu.Unlock()
}

func (engine *Engine) onEnergy(payload events.EnergyLevelUpdate, _ events.Event) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.energy = clampEnergy(payload.Level)
	engine.energySet = true
}

func (engine *Engine) onDistraction(events.DistractionDetected, events.Event) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.distractions++
}

func (engine *Engine) onTask(events.TaskCompleted, events.Event) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.tasks++
}

// RecordSession stores the session described by a completed timer run,
// persists the history and publishes the results.
func (engine *Engine) RecordSession(run events.TimerStateUpdate) model.FocusSession {
	engine.mu.Lock()
	now := engine.now()
	duration := run.Duration
	if duration < 0 {
		duration = 0
	}
	mode := run.SessionType()

	productivity := Productivity(run.Intensity, duration)
	energy := engine.currentEnergyLocked(now)
	state := ClassifyFlow(recentProductivity(engine.sessions, trendLength), productivity, energy)

	session := model.FocusSession{
		ID:             engine.newID(),
		StartTime:      now.Add(-time.Duration(duration) * time.Minute),
		EndTime:        now,
		Duration:       duration,
		Type:           mode,
		EnergyLevel:    energy,
		Distractions:   engine.distractions,
		Environment:    engine.environment.Environment,
		Productivity:   productivity,
		CompletedTasks: engine.tasks,
	}
	session.Flow = model.Flow{
		State:     state,
		Duration:  flowDuration(state, duration),
		Intensity: productivity * float64(energy) / 10,
		Triggers:  sessionTriggers(session),
	}

	engine.sessions = append(engine.sessions, cloneSession(session))
	if len(engine.sessions) > engine.capacity {
		engine.sessions = append([]model.FocusSession(nil), engine.sessions[len(engine.sessions)-engine.capacity:]...)
	}
	engine.distractions = 0
	engine.tasks = 0
	engine.energySet = false

	previous := engine.flowState
	engine.flowState = state
	sessions := engine.snapshotLocked()
	engine.persistLocked(SessionsKey, sessions)
	engine.mu.Unlock()

	insights := GenerateInsights(sessions, now)

	engine.log.Debug("session recorded",
		zap.String("id", session.ID),
		zap.String("type", string(session.Type)),
		zap.Float64("productivity", productivity),
		zap.String("flow_state", string(state)),
	)

	if engine.bus != nil {
		engine.bus.Emit(events.SessionRecorded{Session: cloneSession(session)})
		if state != previous {
			engine.bus.Emit(events.FlowStateChange{Previous: previous, Current: state})
		}
		engine.bus.Emit(events.InsightsUpdated{Insights: insights})
	}
	return session
}

func (engine *Engine) currentEnergyLocked(now time.Time) int {
	if engine.energySet {
		return engine.energy
	}
	return EstimateEnergy(now.Hour(), recentProductivity(engine.sessions, trendLength))
}

func (engine *Engine) persistLocked(key string, value any) {
	if engine.store == nil {
		return
	}
	if err := engine.store.SetItem(key, value); err != nil {
		engine.log.Warn("analytics state kept in memory only", zap.String("key", key), zap.Error(err))
	}
}

func (engine *Engine) snapshotLocked() []model.FocusSession {
	sessions := make([]model.FocusSession, len(engine.sessions))
	for i, session := range engine.sessions {
		sessions[i] = cloneSession(session)
	}
	return sessions
}

func cloneSession(session model.FocusSession) model.FocusSession {
	session.Flow.Triggers = append([]string(nil), session.Flow.Triggers...)
	return session
}

// GenerateInsights builds insights over the retained history.
func (engine *Engine) GenerateInsights() model.Insights {
	engine.mu.Lock()
	sessions := engine.snapshotLocked()
	now := engine.now()
	engine.mu.Unlock()
	return GenerateInsights(sessions, now)
}

// Sessions returns a copy of the retained history, oldest first.
func (engine *Engine) Sessions() []model.FocusSession {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

// CurrentEnergy returns the reported energy level, or the estimate when
// none was reported since the last session.
func (engine *Engine) CurrentEnergy() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.currentEnergyLocked(engine.now())
}

// Environment returns the current environment snapshot.
func (engine *Engine) Environment() model.EnvironmentState {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.environment
}

// FlowState returns the state of the most recent session.
func (engine *Engine) FlowState() model.FlowState {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.flowState
}
