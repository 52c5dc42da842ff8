package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestBus(capacity int) *Bus {
	return NewBus(Config{HistoryCapacity: capacity}, zap.NewNop())
}

func TestEmitDeliversInRegistrationOrder(t *testing.T) {
	bus := newTestBus(10)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		bus.Subscribe(TypeTaskCompleted, func(Event) {
			order = append(order, i)
		})
	}

	bus.Emit(TaskCompleted{Title: "write report"})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSubscriberAddedDuringDeliveryMissesInFlightEvent(t *testing.T) {
	bus := newTestBus(10)
	lateCalls := 0
	bus.Subscribe(TypeTaskCompleted, func(Event) {
		bus.Subscribe(TypeTaskCompleted, func(Event) {
			lateCalls++
		})
	})

	bus.Emit(TaskCompleted{})
	assert.Equal(t, 0, lateCalls)

	bus.Emit(TaskCompleted{})
	assert.Equal(t, 1, lateCalls)
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := NewBus(Config{}, zap.New(core))

	delivered := 0
	bus.Subscribe(TypeDistractionBlocked, func(Event) { delivered++ })
	bus.Subscribe(TypeDistractionBlocked, func(Event) { panic("boom") })
	bus.Subscribe(TypeDistractionBlocked, func(Event) { delivered++ })

	require.NotPanics(t, func() {
		bus.Emit(DistractionBlocked{Source: "social"})
	})
	assert.Equal(t, 2, delivered)

	entries := logs.FilterMessage("subscriber failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(TypeDistractionBlocked), entries[0].ContextMap()["event_type"])
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := newTestBus(10)
	calls := 0
	unsubscribe := bus.Subscribe(TypeTaskCompleted, func(Event) { calls++ })
	other := bus.Subscribe(TypeTaskCompleted, func(Event) {})

	unsubscribe()
	unsubscribe()
	bus.Emit(TaskCompleted{})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, bus.Stats().Listeners)
	other()
	assert.Equal(t, 0, bus.Stats().Listeners)
}

func TestReentrantEmitIsQueuedAfterCurrentDelivery(t *testing.T) {
	bus := newTestBus(10)
	var trace []string

	bus.Subscribe(TypeTaskCompleted, func(Event) {
		trace = append(trace, "task:first")
		bus.Emit(DistractionBlocked{})
		trace = append(trace, "task:first-done")
	})
	bus.Subscribe(TypeTaskCompleted, func(Event) {
		trace = append(trace, "task:second")
	})
	bus.Subscribe(TypeDistractionBlocked, func(Event) {
		trace = append(trace, "blocked")
	})

	bus.Emit(TaskCompleted{})

	assert.Equal(t, []string{"task:first", "task:first-done", "task:second", "blocked"}, trace)

	history := bus.GetRecentEvents("", 0)
	require.Len(t, history, 2)
	assert.Equal(t, TypeTaskCompleted, history[0].Type)
	assert.Equal(t, TypeDistractionBlocked, history[1].Type)
	assert.Less(t, history[0].Seq, history[1].Seq)
}

func TestHistoryIsBounded(t *testing.T) {
	const capacity = 16
	bus := newTestBus(capacity)
	for i := 0; i < capacity+7; i++ {
		bus.Emit(EnergyLevelUpdate{Level: i})
	}

	recent := bus.GetRecentEvents("", 0)
	require.Len(t, recent, capacity)
	for i, event := range recent {
		assert.Equal(t, 7+i, event.Data.(EnergyLevelUpdate).Level)
	}
	assert.Equal(t, uint64(capacity+7), bus.Stats().TotalEmitted)
}

func TestGetRecentEventsFiltersAndLimits(t *testing.T) {
	bus := newTestBus(10)
	bus.Emit(TaskCompleted{Title: "a"})
	bus.Emit(DistractionBlocked{})
	bus.Emit(TaskCompleted{Title: "b"})
	bus.Emit(TaskCompleted{Title: "c"})

	recent := bus.GetRecentEvents(TypeTaskCompleted, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Data.(TaskCompleted).Title)
	assert.Equal(t, "c", recent[1].Data.(TaskCompleted).Title)
}

func TestOnDeliversTypedPayload(t *testing.T) {
	stamp := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	bus := NewBus(Config{Now: func() time.Time { return stamp }}, nil)

	var got RewardUpdate
	var at time.Time
	bus.Emit(RewardUpdate{Delta: 1})
	On(bus, func(payload RewardUpdate, event Event) {
		got = payload
		at = event.Timestamp
	})
	bus.Emit(RewardUpdate{Delta: 10, Reason: "focus_session", Total: 10})

	assert.Equal(t, RewardUpdate{Delta: 10, Reason: "focus_session", Total: 10}, got)
	assert.Equal(t, stamp, at)
}

func TestEmitNilPayloadIsIgnored(t *testing.T) {
	bus := newTestBus(4)
	bus.Emit(nil)
	assert.Empty(t, bus.GetRecentEvents("", 0))
}
