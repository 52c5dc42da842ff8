package events

import (
	"time"

	"focusflow/internal/core/model"
)

// Type identifies an event kind.
type Type string

const (
	TypeTimerStateUpdate    Type = "timerStateUpdate"
	TypeEnvironmentUpdate   Type = "environmentUpdate"
	TypeEnergyLevelUpdate   Type = "energyLevelUpdate"
	TypeDistractionDetected Type = "distractionDetected"
	TypeDistractionBlocked  Type = "distractionBlocked"
	TypeTaskCompleted       Type = "taskCompleted"
	TypeSessionRecorded     Type = "sessionRecorded"
	TypeFlowStateChange     Type = "flowStateChange"
	TypeInsightsUpdated     Type = "insightsUpdated"
	TypeRewardUpdate        Type = "rewardUpdate"
	TypeMilestoneReached    Type = "milestoneReached"
	TypeAchievementUnlocked Type = "achievementUnlocked"
	TypeStreakUpdated       Type = "streakUpdated"
	TypePeriodRollover      Type = "periodRollover"
	TypePreferencesChanged  Type = "preferencesChanged"
	TypeShortcutTriggered   Type = "shortcutTriggered"
)

// Payload is implemented by every event body. The method binds each payload
// struct to exactly one event type.
type Payload interface {
	EventType() Type
}

// Event is an immutable record of one emission.
type Event struct {
	Seq       uint64
	Type      Type
	Data      Payload
	Timestamp time.Time
}

// TimerStateUpdate reports timer progress; only completed runs become sessions.
type TimerStateUpdate struct {
	Mode      model.SessionType
	Completed bool
	Duration  int
	Intensity model.Intensity
}

// SessionType returns Mode, treating an unset mode as a focus run.
func (update TimerStateUpdate) SessionType() model.SessionType {
	if update.Mode == "" {
		return model.SessionFocus
	}
	return update.Mode
}

// EnvironmentUpdate replaces the current environment snapshot.
type EnvironmentUpdate struct {
	Noise       model.Noise
	Lighting    model.Lighting
	Temperature model.Temperature
	Quality     float64
}

// Environment returns the axes of the update.
func (update EnvironmentUpdate) Environment() model.Environment {
	return model.Environment{Noise: update.Noise, Lighting: update.Lighting, Temperature: update.Temperature}
}

// EnergyLevelUpdate is a self-reported energy level on a 0-10 scale.
type EnergyLevelUpdate struct {
	Level int
}

// DistractionDetected counts against the running session.
type DistractionDetected struct {
	Source string
}

// DistractionBlocked is a distraction the user resisted.
type DistractionBlocked struct {
	Source string
}

// TaskCompleted counts toward the running session.
type TaskCompleted struct {
	Title string
}

// SessionRecorded carries a freshly stored session.
type SessionRecorded struct {
	Session model.FocusSession
}

// FlowStateChange is emitted when the classification moves.
type FlowStateChange struct {
	Previous model.FlowState
	Current  model.FlowState
}

// InsightsUpdated carries regenerated insights.
type InsightsUpdated struct {
	Insights model.Insights
}

// RewardUpdate reports a point award.
type RewardUpdate struct {
	Delta  int
	Reason string
	Total  int
}

// MilestoneReached reports a crossed point threshold.
type MilestoneReached struct {
	Threshold int
	Total     int
}

// AchievementUnlocked carries the unlocked achievement record.
type AchievementUnlocked struct {
	Achievement model.Achievement
}

// StreakUpdated reports a streak change.
type StreakUpdated struct {
	Current int
	Best    int
}

// Period names a point counter that can roll over.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// PeriodRollover reports a counter reset.
type PeriodRollover struct {
	Period Period
}

// PreferencesChanged carries the full preferences after a mutation.
type PreferencesChanged struct {
	Preferences model.Preferences
}

// ShortcutTriggered reports a dispatched key chord.
type ShortcutTriggered struct {
	Key      string
	Category string
	At       time.Time
}

func (TimerStateUpdate) EventType() Type    { return TypeTimerStateUpdate }
func (EnvironmentUpdate) EventType() Type   { return TypeEnvironmentUpdate }
func (EnergyLevelUpdate) EventType() Type   { return TypeEnergyLevelUpdate }
func (DistractionDetected) EventType() Type { return TypeDistractionDetected }
func (DistractionBlocked) EventType() Type  { return TypeDistractionBlocked }
func (TaskCompleted) EventType() Type       { return TypeTaskCompleted }
func (SessionRecorded) EventType() Type     { return TypeSessionRecorded }
func (FlowStateChange) EventType() Type     { return TypeFlowStateChange }
func (InsightsUpdated) EventType() Type     { return TypeInsightsUpdated }
func (RewardUpdate) EventType() Type        { return TypeRewardUpdate }
func (MilestoneReached) EventType() Type    { return TypeMilestoneReached }
func (AchievementUnlocked) EventType() Type { return TypeAchievementUnlocked }
func (StreakUpdated) EventType() Type       { return TypeStreakUpdated }
func (PeriodRollover) EventType() Type      { return TypePeriodRollover }
func (PreferencesChanged) EventType() Type  { return TypePreferencesChanged }
func (ShortcutTriggered) EventType() Type   { return TypeShortcutTriggered }
