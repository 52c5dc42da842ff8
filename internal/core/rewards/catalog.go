package rewards

import "focusflow/internal/core/model"

// Achievement identifiers.
const (
	FirstFocus           = "first_focus"
	EarlyRiser           = "early_riser"
	DistractionMaster    = "distraction_master"
	EnvironmentOptimizer = "environment_optimizer"
	FocusMarathon        = "focus_marathon"
	WeekStreak           = "week_streak"
)

// Achievement categories.
const (
	CategoryFocus       = "focus"
	CategoryHabits      = "habits"
	CategoryEnvironment = "environment"
)

// Catalog returns a fresh copy of every achievement with no progress.
func Catalog() []model.Achievement {
	return []model.Achievement{
		{
			ID:          FirstFocus,
			Title:       "First Focus",
			Description: "Complete your first focus session.",
			PointValue:  50,
			MaxProgress: 1,
			Category:    CategoryFocus,
		},
		{
			ID:          EarlyRiser,
			Title:       "Early Riser",
			Description: "Complete 5 focus sessions before 10:00.",
			PointValue:  100,
			MaxProgress: 5,
			Category:    CategoryHabits,
		},
		{
			ID:          DistractionMaster,
			Title:       "Distraction Master",
			Description: "Block 10 distractions.",
			PointValue:  150,
			MaxProgress: 10,
			Category:    CategoryFocus,
		},
		{
			ID:          EnvironmentOptimizer,
			Title:       "Environment Optimizer",
			Description: "Set up a quiet, bright, moderate workspace 5 times.",
			PointValue:  75,
			MaxProgress: 5,
			Category:    CategoryEnvironment,
		},
		{
			ID:          FocusMarathon,
			Title:       "Focus Marathon",
			Description: "Complete 25 focus sessions.",
			PointValue:  250,
			MaxProgress: 25,
			Category:    CategoryFocus,
		},
		{
			ID:          WeekStreak,
			Title:       "Week Streak",
			Description: "Focus on 7 consecutive days.",
			PointValue:  200,
			MaxProgress: 7,
			Category:    CategoryHabits,
		},
	}
}

// mergeCatalog lays stored progress over the catalog. Stored entries that
// are no longer in the catalog are dropped.
func mergeCatalog(stored []model.Achievement) []model.Achievement {
	byID := make(map[string]model.Achievement, len(stored))
	for _, achievement := range stored {
		byID[achievement.ID] = achievement
	}

	merged := Catalog()
	for i, achievement := range merged {
		previous, ok := byID[achievement.ID]
		if !ok {
			continue
		}
		progress := previous.Progress
		if progress > achievement.MaxProgress {
			progress = achievement.MaxProgress
		}
		if progress < 0 {
			progress = 0
		}
		merged[i].Progress = progress
		merged[i].UnlockedAt = previous.UnlockedAt
	}
	return merged
}
