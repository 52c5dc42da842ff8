package model

import "time"

// SessionType distinguishes focus stretches from breaks.
type SessionType string

const (
	SessionFocus SessionType = "focus"
	SessionBreak SessionType = "break"
)

// Intensity is the self-declared effort level of a timer run.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Valid reports whether intensity is one of the known levels.
func (intensity Intensity) Valid() bool {
	switch intensity {
	case IntensityLow, IntensityMedium, IntensityHigh:
		return true
	default:
		return false
	}
}

// Factor maps the intensity to its productivity weight. Unknown values count
// as medium.
func (intensity Intensity) Factor() float64 {
	switch intensity {
	case IntensityLow:
		return 0.6
	case IntensityHigh:
		return 1.0
	default:
		return 0.8
	}
}

// Noise level of the working environment.
type Noise string

const (
	NoiseQuiet    Noise = "quiet"
	NoiseModerate Noise = "moderate"
	NoiseLoud     Noise = "loud"
)

// Lighting of the working environment.
type Lighting string

const (
	LightingDark   Lighting = "dark"
	LightingDim    Lighting = "dim"
	LightingBright Lighting = "bright"
)

// Temperature of the working environment.
type Temperature string

const (
	TemperatureCold     Temperature = "cold"
	TemperatureModerate Temperature = "moderate"
	TemperatureWarm     Temperature = "warm"
)

// Environment is the per-session snapshot of the three environment axes.
type Environment struct {
	Noise       Noise       `json:"noise"`
	Lighting    Lighting    `json:"lighting"`
	Temperature Temperature `json:"temperature"`
}

// EnvironmentState is the live environment reported by the UI.
type EnvironmentState struct {
	Environment
	Quality float64 `json:"quality"`
}

// DefaultEnvironment is used until the first environment update arrives.
func DefaultEnvironment() EnvironmentState {
	environment := Environment{
		Noise:       NoiseModerate,
		Lighting:    LightingBright,
		Temperature: TemperatureModerate,
	}
	return EnvironmentState{Environment: environment, Quality: environment.Quality()}
}

// Quality scores the environment between 0 and 1.
func (environment Environment) Quality() float64 {
	noise := map[Noise]float64{NoiseQuiet: 1, NoiseModerate: 0.6, NoiseLoud: 0.2}[environment.Noise]
	lighting := map[Lighting]float64{LightingBright: 1, LightingDim: 0.6, LightingDark: 0.3}[environment.Lighting]
	temperature := map[Temperature]float64{TemperatureModerate: 1, TemperatureCold: 0.6, TemperatureWarm: 0.6}[environment.Temperature]
	return (noise + lighting + temperature) / 3
}

// IsOptimal reports the quiet, bright, moderate combination.
func (environment Environment) IsOptimal() bool {
	return environment.Noise == NoiseQuiet &&
		environment.Lighting == LightingBright &&
		environment.Temperature == TemperatureModerate
}

// FlowState classifies the focus quality of a session.
type FlowState string

const (
	FlowResting   FlowState = "resting"
	FlowBuilding  FlowState = "building"
	FlowFlowing   FlowState = "flowing"
	FlowDeclining FlowState = "declining"
)

// Flow trigger names recorded on sessions.
const (
	TriggerQuietNoise     = "quiet_noise"
	TriggerBrightLighting = "bright_lighting"
	TriggerLongSession    = "long_session"
	TriggerHighEnergy     = "high_energy"
)

// Flow describes the flow classification attached to a session.
type Flow struct {
	State     FlowState `json:"state"`
	Duration  int       `json:"duration"`
	Intensity float64   `json:"intensity"`
	Triggers  []string  `json:"triggers"`
}

// FocusSession is one completed timer run.
type FocusSession struct {
	ID             string      `json:"id"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        time.Time   `json:"end_time"`
	Duration       int         `json:"duration"`
	Type           SessionType `json:"type"`
	EnergyLevel    int         `json:"energy_level"`
	Distractions   int         `json:"distractions"`
	Environment    Environment `json:"environment"`
	Productivity   float64     `json:"productivity"`
	Flow           Flow        `json:"flow_state"`
	CompletedTasks int         `json:"completed_tasks"`
}
