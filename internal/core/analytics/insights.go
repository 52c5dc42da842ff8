package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"focusflow/internal/core/model"
)

const (
	topHours           = 3
	maxRecommendations = 5
)

// Emotional trigger keys.
const (
	TriggerLowEnergy       = "low_energy"
	TriggerHighDistraction = "high_distraction"
	TriggerLowProductivity = "low_productivity"
)

// GenerateInsights derives the insight view from a session history.
func GenerateInsights(sessions []model.FocusSession, now time.Time) model.Insights {
	insights := model.Insights{
		OptimalDuration: optimalDuration(sessions),
		BestTimeOfDay:   rankHours(sessions, meanProductivity),
		BestEnvironment: bestEnvironment(sessions),
		FlowTriggers:    flowTriggers(sessions),
		DistractionPatterns: model.DistractionPatterns{
			PeakHours:           peakDistractionHours(sessions),
			EnvironmentalImpact: environmentalImpact(sessions),
			EmotionalTriggers:   emotionalTriggers(sessions),
		},
		SessionCount: len(sessions),
		GeneratedAt:  now,
	}
	insights.Recommendations = recommendations(insights)
	return insights
}

func optimalDuration(sessions []model.FocusSession) int {
	total, count := 0, 0
	for _, session := range sessions {
		if session.Productivity > 0.7 {
			total += session.Duration
			count++
		}
	}
	if count == 0 {
		return baselineMinutes
	}
	return int(math.Round(float64(total) / float64(count)))
}

// rankHours scores the sessions of each start hour and returns the best
// hours, highest score first and earlier hour on ties.
func rankHours(sessions []model.FocusSession, score func([]model.FocusSession) float64) []int {
	buckets := make(map[int][]model.FocusSession)
	for _, session := range sessions {
		hour := session.StartTime.Hour()
		buckets[hour] = append(buckets[hour], session)
	}

	type ranked struct {
		hour  int
		score float64
	}
	ranking := make([]ranked, 0, len(buckets))
	for hour, bucket := range buckets {
		ranking = append(ranking, ranked{hour: hour, score: score(bucket)})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].score != ranking[j].score {
			return ranking[i].score > ranking[j].score
		}
		return ranking[i].hour < ranking[j].hour
	})

	hours := make([]int, 0, topHours)
	for _, entry := range ranking {
		if len(hours) == topHours {
			break
		}
		hours = append(hours, entry.hour)
	}
	return hours
}

func peakDistractionHours(sessions []model.FocusSession) []int {
	distracted := make([]model.FocusSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Distractions > 0 {
			distracted = append(distracted, session)
		}
	}
	return rankHours(distracted, func(bucket []model.FocusSession) float64 {
		sum := 0
		for _, session := range bucket {
			sum += session.Distractions
		}
		return float64(sum)
	})
}

func bestEnvironment(sessions []model.FocusSession) model.Environment {
	noise := make([]string, len(sessions))
	lighting := make([]string, len(sessions))
	temperature := make([]string, len(sessions))
	for i, session := range sessions {
		noise[i] = string(session.Environment.Noise)
		lighting[i] = string(session.Environment.Lighting)
		temperature[i] = string(session.Environment.Temperature)
	}
	return model.Environment{
		Noise:       model.Noise(mode(noise)),
		Lighting:    model.Lighting(mode(lighting)),
		Temperature: model.Temperature(mode(temperature)),
	}
}

// mode returns the most frequent value, preferring the one seen first.
func mode(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, value := range values {
		counts[value]++
	}
	for _, value := range values {
		if counts[value] > bestCount {
			best, bestCount = value, counts[value]
		}
	}
	return best
}

func flowTriggers(sessions []model.FocusSession) []string {
	seen := make(map[string]bool)
	for _, session := range sessions {
		if session.Flow.State != model.FlowFlowing {
			continue
		}
		for _, trigger := range sessionTriggers(session) {
			seen[trigger] = true
		}
	}
	triggers := make([]string, 0, len(seen))
	for _, trigger := range []string{
		model.TriggerQuietNoise,
		model.TriggerBrightLighting,
		model.TriggerLongSession,
		model.TriggerHighEnergy,
	} {
		if seen[trigger] {
			triggers = append(triggers, trigger)
		}
	}
	return triggers
}

func environmentalImpact(sessions []model.FocusSession) map[string]float64 {
	impact := make(map[string]float64)
	if len(sessions) == 0 {
		return impact
	}
	overall := meanProductivity(sessions)

	deviations := make(map[string][]float64)
	for _, session := range sessions {
		delta := session.Productivity - overall
		for _, key := range []string{
			"noise:" + string(session.Environment.Noise),
			"lighting:" + string(session.Environment.Lighting),
			"temperature:" + string(session.Environment.Temperature),
		} {
			deviations[key] = append(deviations[key], delta)
		}
	}
	for key, values := range deviations {
		impact[key] = mean(values)
	}
	return impact
}

func emotionalTriggers(sessions []model.FocusSession) map[string]int {
	triggers := map[string]int{
		TriggerLowEnergy:       0,
		TriggerHighDistraction: 0,
		TriggerLowProductivity: 0,
	}
	for _, session := range sessions {
		if session.EnergyLevel < 5 {
			triggers[TriggerLowEnergy]++
		}
		if session.Distractions > 3 {
			triggers[TriggerHighDistraction]++
		}
		if session.Productivity < 0.5 {
			triggers[TriggerLowProductivity]++
		}
	}
	return triggers
}

func recommendations(insights model.Insights) []string {
	if insights.SessionCount == 0 {
		return []string{}
	}

	lines := []string{
		fmt.Sprintf("Plan focus sessions of about %d minutes.", insights.OptimalDuration),
	}
	environment := insights.BestEnvironment
	lines = append(lines, fmt.Sprintf("You focus best with %s noise, %s lighting and a %s temperature.",
		environment.Noise, environment.Lighting, environment.Temperature))
	for _, hour := range insights.BestTimeOfDay {
		lines = append(lines, fmt.Sprintf("Schedule deep work around %02d:00.", hour))
	}
	if len(insights.FlowTriggers) > 0 {
		lines = append(lines, "Your flow sessions share: "+strings.Join(insights.FlowTriggers, ", ")+".")
	}

	if len(lines) > maxRecommendations {
		lines = lines[:maxRecommendations]
	}
	return lines
}

func meanProductivity(sessions []model.FocusSession) float64 {
	return mean(recentProductivity(sessions, len(sessions)))
}
