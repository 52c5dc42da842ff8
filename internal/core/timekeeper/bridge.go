package timekeeper

import (
	"context"
	"math"

	"focusflow/internal/core/events"
	"focusflow/internal/core/model"

	"go.uber.org/zap"
)

// IdleSource is the distraction source reported for idle resets.
const IdleSource = "idle"

// Bridge republishes TimeKeeper events on the bus.
type Bridge struct {
	bus       *events.Bus
	intensity func() model.Intensity
	log       *zap.Logger
}

// NewBridge creates a bridge. intensity is asked for the effort level of
// every completed work stretch; nil means medium.
func NewBridge(bus *events.Bus, intensity func() model.Intensity, logger *zap.Logger) *Bridge {
	if intensity == nil {
		intensity = func() model.Intensity { return model.IntensityMedium }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		bus:       bus,
		intensity: intensity,
		log:       logger.Named("timekeeper"),
	}
}

// Run forwards events from source until it is closed or ctx is done.
func (bridge *Bridge) Run(ctx context.Context, source <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-source:
			if !ok {
				return
			}
			bridge.forward(event)
		}
	}
}

func (bridge *Bridge) forward(event Event) {
	switch event.Type {
	case EventPhaseComplete:
		minutes := int(math.Round(event.Elapsed.Minutes()))
		if event.Phase == StateWork {
			bridge.bus.Emit(events.TimerStateUpdate{
				Mode:      model.SessionFocus,
				Completed: true,
				Duration:  minutes,
				Intensity: bridge.intensity(),
			})
			return
		}
		bridge.bus.Emit(events.TimerStateUpdate{
			Mode:      model.SessionBreak,
			Completed: true,
			Duration:  minutes,
			Intensity: model.IntensityLow,
		})
	case EventIdleReset:
		bridge.bus.Emit(events.DistractionDetected{Source: IdleSource})
	case EventIdleError:
		bridge.log.Warn("idle detection failed", zap.String("message", event.Message))
	}
}
