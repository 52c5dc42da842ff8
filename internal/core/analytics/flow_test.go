package analytics

import (
	"testing"

	"focusflow/internal/core/model"

	"github.com/stretchr/testify/assert"
)

func TestProductivity(t *testing.T) {
	cases := []struct {
		intensity model.Intensity
		duration  int
		want      float64
	}{
		{model.IntensityMedium, 25, 0.8},
		{model.IntensityHigh, 50, 1.0},
		{model.IntensityLow, 25, 0.6},
		{model.IntensityHigh, 10, 0.4},
		{model.IntensityMedium, 0, 0},
		{"unknown", 25, 0.8},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, Productivity(tc.intensity, tc.duration), 1e-9, "%s/%d", tc.intensity, tc.duration)
	}
}

func TestBaseEnergyBands(t *testing.T) {
	cases := map[int]int{
		0: 7, 8: 7, 9: 8, 11: 8, 12: 7, 14: 6, 16: 6, 17: 7, 19: 7, 20: 5, 23: 5,
	}
	for hour, want := range cases {
		assert.Equal(t, want, BaseEnergy(hour), "hour %d", hour)
	}
}

func TestEstimateEnergy(t *testing.T) {
	assert.Equal(t, 8, EstimateEnergy(10, nil))
	assert.Equal(t, 9, EstimateEnergy(10, []float64{1, 1, 1}))
	assert.Equal(t, 5, EstimateEnergy(21, []float64{0.5}))
	assert.Equal(t, 7, EstimateEnergy(14, []float64{0.8, 0.85, 0.9}))
}

func TestClassifyFlow(t *testing.T) {
	cases := []struct {
		name    string
		prior   []float64
		current float64
		energy  int
		want    model.FlowState
	}{
		{"flowing wins over building", []float64{0.9, 0.85}, 0.95, 8, model.FlowFlowing},
		{"declining trend", []float64{0.9, 0.3}, 0.4, 5, model.FlowDeclining},
		{"building when trend is not all high", []float64{0.85, 0.9}, 0.8, 8, model.FlowBuilding},
		{"building without enough history", []float64{0.95}, 0.95, 9, model.FlowBuilding},
		{"flowing needs high energy", []float64{0.9, 0.9}, 0.9, 7, model.FlowBuilding},
		{"only the last three priors count", []float64{0.1, 0.9, 0.9, 0.9}, 0.95, 8, model.FlowFlowing},
		{"resting without history", nil, 0.5, 7, model.FlowResting},
		{"resting on rising trend", []float64{0.3, 0.5}, 0.6, 5, model.FlowResting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyFlow(tc.prior, tc.current, tc.energy))
		})
	}
}

func TestSessionTriggers(t *testing.T) {
	session := model.FocusSession{
		Duration:    25,
		EnergyLevel: 7,
		Environment: model.Environment{Noise: model.NoiseQuiet, Lighting: model.LightingDim},
	}
	assert.Equal(t, []string{model.TriggerQuietNoise, model.TriggerLongSession, model.TriggerHighEnergy}, sessionTriggers(session))
}
