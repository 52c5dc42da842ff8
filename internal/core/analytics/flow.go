package analytics

import (
	"math"

	"focusflow/internal/core/model"
)

const (
	baselineMinutes = 25
	trendLength     = 3
)

// Productivity scores a session between 0 and 1 from its intensity and its
// length relative to the 25 minute baseline.
func Productivity(intensity model.Intensity, durationMinutes int) float64 {
	if durationMinutes <= 0 {
		return 0
	}
	ratio := math.Min(float64(durationMinutes)/baselineMinutes, 1)
	return intensity.Factor() * ratio
}

// BaseEnergy is the time-of-day energy guess for hour.
func BaseEnergy(hour int) int {
	switch {
	case hour >= 9 && hour <= 11:
		return 8
	case hour >= 14 && hour <= 16:
		return 6
	case hour >= 20:
		return 5
	default:
		return 7
	}
}

// EstimateEnergy averages the time-of-day guess with the recent productivity
// trend scaled to 0..10. Without history the guess stands alone.
func EstimateEnergy(hour int, recent []float64) int {
	base := BaseEnergy(hour)
	if len(recent) == 0 {
		return base
	}
	return int(math.Round((float64(base) + 10*mean(recent)) / 2))
}

// ClassifyFlow derives the flow state of a session. prior holds the
// productivity of earlier sessions, oldest first. Checks run in the order
// flowing, building, declining, resting.
func ClassifyFlow(prior []float64, current float64, energy int) model.FlowState {
	window := lastN(append(append([]float64(nil), prior...), current), trendLength)

	if len(prior) >= 2 && energy > 7 && allAbove(window, 0.8) {
		return model.FlowFlowing
	}
	if current > 0.7 && energy >= 6 {
		return model.FlowBuilding
	}
	if len(window) >= 2 && window[0] > window[len(window)-1] {
		return model.FlowDeclining
	}
	return model.FlowResting
}

func sessionTriggers(session model.FocusSession) []string {
	triggers := make([]string, 0, 4)
	if session.Environment.Noise == model.NoiseQuiet {
		triggers = append(triggers, model.TriggerQuietNoise)
	}
	if session.Environment.Lighting == model.LightingBright {
		triggers = append(triggers, model.TriggerBrightLighting)
	}
	if session.Duration >= baselineMinutes {
		triggers = append(triggers, model.TriggerLongSession)
	}
	if session.EnergyLevel >= 7 {
		triggers = append(triggers, model.TriggerHighEnergy)
	}
	return triggers
}

func flowDuration(state model.FlowState, durationMinutes int) int {
	if state == model.FlowFlowing || state == model.FlowBuilding {
		return durationMinutes
	}
	return 0
}

func recentProductivity(sessions []model.FocusSession, count int) []float64 {
	tail := sessions
	if len(tail) > count {
		tail = tail[len(tail)-count:]
	}
	values := make([]float64, len(tail))
	for i, session := range tail {
		values[i] = session.Productivity
	}
	return values
}

func lastN(values []float64, count int) []float64 {
	if len(values) > count {
		return values[len(values)-count:]
	}
	return values
}

func allAbove(values []float64, threshold float64) bool {
	for _, value := range values {
		if value <= threshold {
			return false
		}
	}
	return len(values) > 0
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

func clampEnergy(level int) int {
	if level < 0 {
		return 0
	}
	if level > 10 {
		return 10
	}
	return level
}
