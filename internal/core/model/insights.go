package model

import "time"

// DistractionPatterns summarizes when and where focus breaks down.
type DistractionPatterns struct {
	PeakHours           []int              `json:"peak_hours"`
	EnvironmentalImpact map[string]float64 `json:"environmental_impact"`
	EmotionalTriggers   map[string]int     `json:"emotional_triggers"`
}

// Insights is the derived view over the session history.
type Insights struct {
	OptimalDuration     int                 `json:"optimal_duration"`
	BestTimeOfDay       []int               `json:"best_time_of_day"`
	BestEnvironment     Environment         `json:"best_environment"`
	FlowTriggers        []string            `json:"flow_triggers"`
	DistractionPatterns DistractionPatterns `json:"distraction_patterns"`
	Recommendations     []string            `json:"recommendations"`
	SessionCount        int                 `json:"session_count"`
	GeneratedAt         time.Time           `json:"generated_at"`
}
