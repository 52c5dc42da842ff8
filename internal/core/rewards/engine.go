package rewards

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"focusflow/internal/core/events"
	"focusflow/internal/core/model"
	"focusflow/internal/storage"

	"go.uber.org/zap"
)

// StorageKey is where the reward state lives in the secure store.
const StorageKey = "rewards.points"

// DefaultTTL keeps reward state for a year without activity.
const DefaultTTL = 365 * 24 * time.Hour

// Point values of the bus-driven awards.
const (
	FocusSessionPoints       = 10
	DistractionBlockedPoints = 3
)

// Award reasons.
const (
	ReasonFocusSession       = "focus_session"
	ReasonDistractionBlocked = "distraction_blocked"
	reasonAchievementPrefix  = "achievement:"
)

// Milestones are the point totals that trigger a milestone event.
var Milestones = []int{100, 500, 1000, 5000, 10000}

// ErrUnknownAchievement is returned for ids missing from the catalog.
var ErrUnknownAchievement = errors.New("unknown achievement")

const dayLayout = "2006-01-02"

// Config contains runtime options for Engine.
type Config struct {
	TTL time.Duration
	Now func() time.Time
}

// Engine keeps points, achievements and streaks in step with the bus.
type Engine struct {
	mu          sync.Mutex
	points      model.RewardPoints
	enabled     bool
	ttl         time.Duration
	now         func() time.Time
	store       *storage.SecureStore
	bus         *events.Bus
	log         *zap.Logger
	unsubscribe []func()
}

// New loads the persisted state over the catalog and subscribes to bus.
func New(store *storage.SecureStore, bus *events.Bus, config Config, logger *zap.Logger) *Engine {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		enabled: true,
		ttl:     config.TTL,
		now:     config.Now,
		store:   store,
		bus:     bus,
		log:     logger.Named("rewards"),
	}
	if store != nil {
		if stored, ok := storage.Load[model.RewardPoints](store, StorageKey); ok {
			engine.points = stored
		}
	}
	engine.points.Achievements = mergeCatalog(engine.points.Achievements)

	if bus != nil {
		engine.unsubscribe = []func(){
			events.On(bus, engine.onTimer),
			events.On(bus, engine.onDistractionBlocked),
			events.On(bus, engine.onEnvironment),
			events.On(bus, func(payload events.PreferencesChanged, _ events.Event) {
				engine.SetEnabled(payload.Preferences.Gamification.Enabled)
			}),
		}
	}
	return engine
}

// Close detaches the engine from the bus.
func (engine *Engine) Close() {
	for _, unsubscribe := range engine.unsubscribe {
		unsubscribe()
	}
}

// Enabled reports whether bus events earn rewards.
func (engine *Engine) Enabled() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.enabled
}

// SetEnabled toggles bus-driven rewards. Direct calls are unaffected.
func (engine *Engine) SetEnabled(enabled bool) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.enabled = enabled
}

func (engine *Engine) onTimer(payload events.TimerStateUpdate, _ events.Event) {
	if !payload.Completed || payload.SessionType() != model.SessionFocus || !engine.Enabled() {
		return
	}
	engine.CompleteFocusSession()
}

func (engine *Engine) onDistractionBlocked(_ events.DistractionBlocked, _ events.Event) {
	if !engine.Enabled() {
		return
	}
	engine.BlockDistraction()
}

func (engine *Engine) onEnvironment(payload events.EnvironmentUpdate, _ events.Event) {
	if !engine.Enabled() || !payload.Environment().IsOptimal() {
		return
	}
	engine.advance(EnvironmentOptimizer, 1)
}

// CompleteFocusSession applies the rewards of one finished focus session.
func (engine *Engine) CompleteFocusSession() {
	at := engine.now()
	engine.AwardPoints(ReasonFocusSession, FocusSessionPoints)
	engine.recordActiveDay(at)
	engine.advance(FirstFocus, 1)
	if at.Hour() < 10 {
		engine.advance(EarlyRiser, 1)
	}
	engine.advance(FocusMarathon, 1)
}

// BlockDistraction applies the rewards of one resisted distraction.
func (engine *Engine) BlockDistraction() {
	engine.AwardPoints(ReasonDistractionBlocked, DistractionBlockedPoints)
	engine.advance(DistractionMaster, 1)
}

// AwardPoints adds amount to every counter and returns the new total.
// Non-positive amounts are ignored so the total never decreases.
func (engine *Engine) AwardPoints(reason string, amount int) int {
	engine.mu.Lock()
	if amount <= 0 {
		total := engine.points.Total
		engine.mu.Unlock()
		engine.log.Warn("ignored non-positive award", zap.String("reason", reason), zap.Int("amount", amount))
		return total
	}

	previous := engine.points.Total
	at := engine.now()
	engine.points.Daily += amount
	engine.points.Weekly += amount
	engine.points.Total += amount
	engine.points.LastRewardAt = &at
	total := engine.points.Total
	engine.persistLocked()
	engine.mu.Unlock()

	engine.log.Debug("points awarded", zap.String("reason", reason), zap.Int("amount", amount), zap.Int("total", total))

	if threshold := crossedMilestone(previous, total); threshold > 0 {
		engine.emit(events.MilestoneReached{Threshold: threshold, Total: total})
	}
	engine.emit(events.RewardUpdate{Delta: amount, Reason: reason, Total: total})
	return total
}

// crossedMilestone returns the highest threshold in (previous, total], or 0.
func crossedMilestone(previous, total int) int {
	reached := 0
	for _, threshold := range Milestones {
		if previous < threshold && threshold <= total {
			reached = threshold
		}
	}
	return reached
}

// UpdateAchievementProgress advances id by increment. Unlocked achievements
// are left alone, so the unlock award is granted at most once.
func (engine *Engine) UpdateAchievementProgress(id string, increment int) error {
	engine.mu.Lock()
	index := engine.indexLocked(id)
	if index < 0 {
		engine.mu.Unlock()
		return fmt.Errorf("update achievement %q: %w", id, ErrUnknownAchievement)
	}
	achievement := engine.points.Achievements[index]
	unlocked := engine.setProgressLocked(index, achievement.Progress+increment)
	engine.mu.Unlock()

	engine.finishUnlock(unlocked)
	return nil
}

func (engine *Engine) advance(id string, increment int) {
	if err := engine.UpdateAchievementProgress(id, increment); err != nil {
		engine.log.Error("achievement update failed", zap.Error(err))
	}
}

// setProgressLocked moves an achievement to progress, clamped to its
// maximum, and returns the record when this call unlocked it.
func (engine *Engine) setProgressLocked(index int, progress int) *model.Achievement {
	achievement := &engine.points.Achievements[index]
	if achievement.Unlocked() || progress <= achievement.Progress {
		return nil
	}
	if progress > achievement.MaxProgress {
		progress = achievement.MaxProgress
	}
	achievement.Progress = progress

	var unlocked *model.Achievement
	if achievement.Progress >= achievement.MaxProgress {
		at := engine.now()
		achievement.UnlockedAt = &at
		snapshot := *achievement
		stamp := at
		snapshot.UnlockedAt = &stamp
		unlocked = &snapshot
	}
	engine.persistLocked()
	return unlocked
}

func (engine *Engine) finishUnlock(unlocked *model.Achievement) {
	if unlocked == nil {
		return
	}
	engine.log.Info("achievement unlocked", zap.String("id", unlocked.ID))
	engine.AwardPoints(reasonAchievementPrefix+unlocked.ID, unlocked.PointValue)
	engine.emit(events.AchievementUnlocked{Achievement: *unlocked})
}

func (engine *Engine) recordActiveDay(at time.Time) {
	day := at.Format(dayLayout)

	engine.mu.Lock()
	streak := &engine.points.Streak
	if streak.LastActiveDay == day {
		engine.mu.Unlock()
		return
	}
	if streak.LastActiveDay == at.AddDate(0, 0, -1).Format(dayLayout) {
		streak.Current++
	} else {
		streak.Current = 1
	}
	if streak.Current > streak.Best {
		streak.Best = streak.Current
	}
	streak.LastActiveDay = day
	current, best := streak.Current, streak.Best

	var unlocked *model.Achievement
	if index := engine.indexLocked(WeekStreak); index >= 0 {
		unlocked = engine.setProgressLocked(index, current)
	}
	engine.persistLocked()
	engine.mu.Unlock()

	engine.emit(events.StreakUpdated{Current: current, Best: best})
	engine.finishUnlock(unlocked)
}

// ResetDaily zeroes the daily counter.
func (engine *Engine) ResetDaily() {
	engine.rollover(events.PeriodDaily)
}

// ResetWeekly zeroes the weekly counter.
func (engine *Engine) ResetWeekly() {
	engine.rollover(events.PeriodWeekly)
}

func (engine *Engine) rollover(period events.Period) {
	engine.mu.Lock()
	switch period {
	case events.PeriodDaily:
		engine.points.Daily = 0
	case events.PeriodWeekly:
		engine.points.Weekly = 0
	}
	engine.persistLocked()
	engine.mu.Unlock()

	engine.emit(events.PeriodRollover{Period: period})
}

// Points returns a copy of the reward state.
func (engine *Engine) Points() model.RewardPoints {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.points.Clone()
}

// Achievement returns one achievement by id.
func (engine *Engine) Achievement(id string) (model.Achievement, bool) {
	points := engine.Points()
	for _, achievement := range points.Achievements {
		if achievement.ID == id {
			return achievement, true
		}
	}
	return model.Achievement{}, false
}

func (engine *Engine) indexLocked(id string) int {
	for i, achievement := range engine.points.Achievements {
		if achievement.ID == id {
			return i
		}
	}
	return -1
}

func (engine *Engine) persistLocked() {
	if engine.store == nil {
		return
	}
	if err := engine.store.SetItemWithTTL(StorageKey, engine.points, engine.ttl); err != nil {
		engine.log.Warn("reward state kept in memory only", zap.Error(err))
	}
}

func (engine *Engine) emit(payload events.Payload) {
	if engine.bus != nil {
		engine.bus.Emit(payload)
	}
}
