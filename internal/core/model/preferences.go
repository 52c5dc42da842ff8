package model

import "time"

// VisualPrefs controls look and feel.
type VisualPrefs struct {
	Theme          string  `json:"theme" yaml:"theme"`
	OverlayOpacity float64 `json:"overlay_opacity" yaml:"overlay_opacity"`
	Fullscreen     bool    `json:"fullscreen" yaml:"fullscreen"`
	Animations     bool    `json:"animations" yaml:"animations"`
}

// TimingPrefs controls the focus and break schedule.
type TimingPrefs struct {
	FocusMinutes       int           `json:"focus_minutes" yaml:"focus_minutes"`
	ShortBreakInterval time.Duration `json:"short_break_interval" yaml:"short_break_interval"`
	ShortBreakDuration time.Duration `json:"short_break_duration" yaml:"short_break_duration"`
	LongBreakInterval  time.Duration `json:"long_break_interval" yaml:"long_break_interval"`
	LongBreakDuration  time.Duration `json:"long_break_duration" yaml:"long_break_duration"`
	StrictMode         bool          `json:"strict_mode" yaml:"strict_mode"`
	AutoStartBreaks    bool          `json:"auto_start_breaks" yaml:"auto_start_breaks"`
}

// EnvironmentPrefs holds the environment assumed before the user reports one.
type EnvironmentPrefs struct {
	TrackEnvironment   bool        `json:"track_environment" yaml:"track_environment"`
	DefaultNoise       Noise       `json:"default_noise" yaml:"default_noise"`
	DefaultLighting    Lighting    `json:"default_lighting" yaml:"default_lighting"`
	DefaultTemperature Temperature `json:"default_temperature" yaml:"default_temperature"`
}

// AssistancePrefs toggles the helper features.
type AssistancePrefs struct {
	UseKeyboardShortcuts bool          `json:"use_keyboard_shortcuts" yaml:"use_keyboard_shortcuts"`
	IdleDetection        bool          `json:"idle_detection" yaml:"idle_detection"`
	IdleThreshold        time.Duration `json:"idle_threshold" yaml:"idle_threshold"`
	SmartSuggestions     bool          `json:"smart_suggestions" yaml:"smart_suggestions"`
}

// GamificationPrefs controls points and achievements.
type GamificationPrefs struct {
	Enabled    bool `json:"enabled" yaml:"enabled"`
	ShowPoints bool `json:"show_points" yaml:"show_points"`
	DailyGoal  int  `json:"daily_goal" yaml:"daily_goal"`
}

// NotificationPrefs controls reminders and toasts.
type NotificationPrefs struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	Sound             bool `json:"sound" yaml:"sound"`
	BreakReminders    bool `json:"break_reminders" yaml:"break_reminders"`
	AchievementToasts bool `json:"achievement_toasts" yaml:"achievement_toasts"`
}

// FocusPrefs controls how timer runs are tagged.
type FocusPrefs struct {
	DefaultIntensity  Intensity `json:"default_intensity" yaml:"default_intensity"`
	BlockDistractions bool      `json:"block_distractions" yaml:"block_distractions"`
	DailySessionGoal  int       `json:"daily_session_goal" yaml:"daily_session_goal"`
}

// AccessibilityPrefs holds accessibility switches.
type AccessibilityPrefs struct {
	HighContrast bool `json:"high_contrast" yaml:"high_contrast"`
	LargeText    bool `json:"large_text" yaml:"large_text"`
	ReduceMotion bool `json:"reduce_motion" yaml:"reduce_motion"`
	ScreenReader bool `json:"screen_reader" yaml:"screen_reader"`
}

// Preferences is the full user configuration, one struct per category.
type Preferences struct {
	Visual        VisualPrefs        `json:"visual" yaml:"visual"`
	Timing        TimingPrefs        `json:"timing" yaml:"timing"`
	Environment   EnvironmentPrefs   `json:"environment" yaml:"environment"`
	Assistance    AssistancePrefs    `json:"assistance" yaml:"assistance"`
	Gamification  GamificationPrefs  `json:"gamification" yaml:"gamification"`
	Notification  NotificationPrefs  `json:"notification" yaml:"notification"`
	Focus         FocusPrefs         `json:"focus" yaml:"focus"`
	Accessibility AccessibilityPrefs `json:"accessibility" yaml:"accessibility"`
}

// DefaultPreferences returns the factory configuration.
func DefaultPreferences() Preferences {
	return Preferences{
		Visual: VisualPrefs{
			Theme:          "system",
			OverlayOpacity: 0.85,
			Fullscreen:     true,
			Animations:     true,
		},
		Timing: TimingPrefs{
			FocusMinutes:       25,
			ShortBreakInterval: 25 * time.Minute,
			ShortBreakDuration: 5 * time.Minute,
			LongBreakInterval:  100 * time.Minute,
			LongBreakDuration:  15 * time.Minute,
		},
		Environment: EnvironmentPrefs{
			TrackEnvironment:   true,
			DefaultNoise:       NoiseModerate,
			DefaultLighting:    LightingBright,
			DefaultTemperature: TemperatureModerate,
		},
		Assistance: AssistancePrefs{
			UseKeyboardShortcuts: true,
			IdleDetection:        true,
			IdleThreshold:        5 * time.Minute,
			SmartSuggestions:     true,
		},
		Gamification: GamificationPrefs{
			Enabled:    true,
			ShowPoints: true,
			DailyGoal:  100,
		},
		Notification: NotificationPrefs{
			Enabled:           true,
			Sound:             true,
			BreakReminders:    true,
			AchievementToasts: true,
		},
		Focus: FocusPrefs{
			DefaultIntensity: IntensityMedium,
			DailySessionGoal: 8,
		},
	}
}

// TimeKeeperConfig converts the timing and assistance categories into the
// break scheduler configuration.
func (prefs Preferences) TimeKeeperConfig() TimeKeeperConfig {
	return TimeKeeperConfig{
		Short: BreakConfig{
			Interval: prefs.Timing.ShortBreakInterval,
			Duration: prefs.Timing.ShortBreakDuration,
			Enabled:  prefs.Timing.ShortBreakInterval > 0,
		},
		Long: LongBreakConfig{
			BreakConfig: BreakConfig{
				Interval: prefs.Timing.LongBreakInterval,
				Duration: prefs.Timing.LongBreakDuration,
				Enabled:  prefs.Timing.LongBreakInterval > 0,
			},
			StrictMode: prefs.Timing.StrictMode,
		},
		IdleResetEnabled:  prefs.Assistance.IdleDetection,
		IdleResetAfter:    prefs.Assistance.IdleThreshold,
		IdleCheckInterval: 5 * time.Second,
	}
}
