package model

import "time"

// Streak counts consecutive active days.
type Streak struct {
	Current       int    `json:"current"`
	Best          int    `json:"best"`
	LastActiveDay string `json:"last_active_day,omitempty"`
}

// Achievement is a progress-tracked unlockable.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PointValue  int        `json:"point_value"`
	Progress    int        `json:"progress"`
	MaxProgress int        `json:"max_progress"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	Category    string     `json:"category"`
}

// Unlocked reports whether the achievement has been granted.
func (achievement Achievement) Unlocked() bool {
	return achievement.UnlockedAt != nil
}

// RewardPoints is the persisted gamification state.
type RewardPoints struct {
	Daily        int           `json:"daily"`
	Weekly       int           `json:"weekly"`
	Total        int           `json:"total"`
	Streak       Streak        `json:"streak"`
	Achievements []Achievement `json:"achievements"`
	LastRewardAt *time.Time    `json:"last_reward_at,omitempty"`
}

// Clone returns a deep copy safe to hand to callers.
func (points RewardPoints) Clone() RewardPoints {
	clone := points
	clone.Achievements = make([]Achievement, len(points.Achievements))
	for i, achievement := range points.Achievements {
		if achievement.UnlockedAt != nil {
			at := *achievement.UnlockedAt
			achievement.UnlockedAt = &at
		}
		clone.Achievements[i] = achievement
	}
	if points.LastRewardAt != nil {
		at := *points.LastRewardAt
		clone.LastRewardAt = &at
	}
	return clone
}
