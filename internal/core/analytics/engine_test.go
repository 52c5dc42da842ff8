package analytics

import (
	"fmt"
	"testing"
	"time"

	"focusflow/internal/core/events"
	"focusflow/internal/core/model"
	"focusflow/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var morning = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type harness struct {
	engine  *Engine
	bus     *events.Bus
	store   *storage.SecureStore
	backend *storage.MemoryBackend
}

func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("session-%d", next)
	}
}

func newHarness(t *testing.T, capacity int) harness {
	t.Helper()
	backend := storage.NewMemoryBackend()
	now := func() time.Time { return morning }
	store := storage.NewSecureStore(backend, storage.Config{Now: now}, zap.NewNop())
	bus := events.NewBus(events.Config{Now: now}, zap.NewNop())
	engine := New(store, bus, Config{SessionCapacity: capacity, Now: now, NewID: sequentialIDs()}, zap.NewNop())
	t.Cleanup(engine.Close)
	return harness{engine: engine, bus: bus, store: store, backend: backend}
}

func completed(mode model.SessionType, minutes int, intensity model.Intensity) events.TimerStateUpdate {
	return events.TimerStateUpdate{Mode: mode, Completed: true, Duration: minutes, Intensity: intensity}
}

func TestTimerCompletionRecordsSessionWithPendingActivity(t *testing.T) {
	h := newHarness(t, 10)

	h.bus.Emit(events.DistractionDetected{Source: "phone"})
	h.bus.Emit(events.DistractionDetected{Source: "chat"})
	h.bus.Emit(events.TaskCompleted{Title: "draft"})
	h.bus.Emit(events.EnvironmentUpdate{Noise: model.NoiseQuiet})
	h.bus.Emit(events.EnergyLevelUpdate{Level: 9})
	h.bus.Emit(completed(model.SessionFocus, 25, model.IntensityHigh))

	sessions := h.engine.Sessions()
	require.Len(t, sessions, 1)
	session := sessions[0]
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, model.SessionFocus, session.Type)
	assert.Equal(t, morning.Add(-25*time.Minute), session.StartTime)
	assert.Equal(t, morning, session.EndTime)
	assert.Equal(t, 9, session.EnergyLevel)
	assert.Equal(t, 2, session.Distractions)
	assert.Equal(t, 1, session.CompletedTasks)
	assert.Equal(t, model.Environment{Noise: model.NoiseQuiet, Lighting: model.LightingBright, Temperature: model.TemperatureModerate}, session.Environment)
	assert.InDelta(t, 1.0, session.Productivity, 1e-9)
	assert.Equal(t, model.FlowBuilding, session.Flow.State)
	assert.Equal(t, 25, session.Flow.Duration)
	assert.InDelta(t, 0.9, session.Flow.Intensity, 1e-9)
	assert.Equal(t, []string{
		model.TriggerQuietNoise, model.TriggerBrightLighting, model.TriggerLongSession, model.TriggerHighEnergy,
	}, session.Flow.Triggers)
	assert.InDelta(t, 1.0, h.engine.Environment().Quality, 1e-9)
}

func TestPendingActivityResetsAfterSession(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(events.EnergyLevelUpdate{Level: 9})
	h.bus.Emit(events.DistractionDetected{})
	h.bus.Emit(completed(model.SessionFocus, 25, model.IntensityHigh))
	h.bus.Emit(completed(model.SessionFocus, 10, model.IntensityLow))

	sessions := h.engine.Sessions()
	require.Len(t, sessions, 2)
	second := sessions[1]
	assert.Zero(t, second.Distractions)
	assert.Equal(t, 9, second.EnergyLevel, "estimate from 10:00 base 8 and trend 1.0")
	assert.InDelta(t, 0.24, second.Productivity, 1e-9)
	assert.Equal(t, model.FlowDeclining, second.Flow.State)
	assert.Zero(t, second.Flow.Duration)
	assert.Equal(t, model.FlowDeclining, h.engine.FlowState())
}

func TestRecordSessionPublishesResults(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(events.EnergyLevelUpdate{Level: 8})
	h.bus.Emit(completed(model.SessionFocus, 25, model.IntensityMedium))
	h.bus.Emit(events.EnergyLevelUpdate{Level: 8})
	h.bus.Emit(completed(model.SessionFocus, 25, model.IntensityMedium))

	assert.Len(t, h.bus.GetRecentEvents(events.TypeSessionRecorded, 0), 2)
	assert.Len(t, h.bus.GetRecentEvents(events.TypeInsightsUpdated, 0), 2)

	changes := h.bus.GetRecentEvents(events.TypeFlowStateChange, 0)
	require.Len(t, changes, 1)
	assert.Equal(t, events.FlowStateChange{Previous: model.FlowResting, Current: model.FlowBuilding}, changes[0].Data)

	latest := h.bus.GetRecentEvents(events.TypeInsightsUpdated, 1)[0].Data.(events.InsightsUpdated)
	assert.Equal(t, 2, latest.Insights.SessionCount)
	assert.NotEmpty(t, latest.Insights.Recommendations)
}

func TestSessionEventDoesNotAliasHistory(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(events.EnvironmentUpdate{Noise: model.NoiseQuiet, Lighting: model.LightingBright, Temperature: model.TemperatureModerate})
	events.On(h.bus, func(recorded events.SessionRecorded, _ events.Event) {
		recorded.Session.Flow.Triggers[0] = "rewritten"
	})

	returned := h.engine.RecordSession(completed(model.SessionFocus, 30, model.IntensityHigh))
	returned.Flow.Triggers[1] = "rewritten"

	sessions := h.engine.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{model.TriggerQuietNoise, model.TriggerBrightLighting, model.TriggerLongSession}, sessions[0].Flow.Triggers[:3])
}

func TestUnsetModeIsRecordedAsFocus(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(events.TimerStateUpdate{Completed: true, Duration: 25, Intensity: model.IntensityMedium})

	sessions := h.engine.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SessionFocus, sessions[0].Type)
}

func TestIncompleteTimerIsIgnored(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(events.TimerStateUpdate{Mode: model.SessionFocus, Duration: 25})
	assert.Empty(t, h.engine.Sessions())
}

func TestBreakCompletionIsRecorded(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(completed(model.SessionBreak, 5, model.IntensityLow))

	sessions := h.engine.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SessionBreak, sessions[0].Type)
}

func TestSessionCapEvictsOldest(t *testing.T) {
	const capacity = 10
	h := newHarness(t, capacity)
	for i := 0; i < capacity+5; i++ {
		h.engine.RecordSession(completed(model.SessionFocus, 25, model.IntensityMedium))
	}

	sessions := h.engine.Sessions()
	require.Len(t, sessions, capacity)
	assert.Equal(t, "session-6", sessions[0].ID)
	assert.Equal(t, "session-15", sessions[capacity-1].ID)
}

func TestHistorySurvivesRestart(t *testing.T) {
	h := newHarness(t, 10)
	h.bus.Emit(events.EnvironmentUpdate{Noise: model.NoiseLoud, Lighting: model.LightingDim, Temperature: model.TemperatureWarm})
	h.engine.RecordSession(completed(model.SessionFocus, 25, model.IntensityHigh))
	h.engine.RecordSession(completed(model.SessionFocus, 30, model.IntensityMedium))

	store := storage.NewSecureStore(h.backend, storage.Config{Now: func() time.Time { return morning }}, nil)
	restored := New(store, nil, Config{SessionCapacity: 1, Now: func() time.Time { return morning }}, nil)

	sessions := restored.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "session-2", sessions[0].ID)
	assert.Equal(t, h.engine.FlowState(), restored.FlowState())
	assert.Equal(t, model.NoiseLoud, restored.Environment().Noise)
}

func TestCurrentEnergyUsesEstimateWithoutReport(t *testing.T) {
	h := newHarness(t, 10)
	assert.Equal(t, 8, h.engine.CurrentEnergy())

	h.bus.Emit(events.EnergyLevelUpdate{Level: 14})
	assert.Equal(t, 10, h.engine.CurrentEnergy())
}

func TestEngineCloseStopsListening(t *testing.T) {
	h := newHarness(t, 10)
	h.engine.Close()
	h.bus.Emit(completed(model.SessionFocus, 25, model.IntensityMedium))
	assert.Empty(t, h.engine.Sessions())
}
