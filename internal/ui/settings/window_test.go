package settings

import (
	"testing"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/core/preferences"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	prefs   model.Preferences
	updates []preferences.Update
}

func (editor *fakeEditor) Get() model.Preferences { return editor.prefs }

func (editor *fakeEditor) Update(update preferences.Update) error {
	editor.updates = append(editor.updates, update)
	if update.Timing != nil {
		editor.prefs.Timing = *update.Timing
	}
	if update.Assistance != nil {
		editor.prefs.Assistance = *update.Assistance
	}
	if update.Gamification != nil {
		editor.prefs.Gamification = *update.Gamification
	}
	if update.Focus != nil {
		editor.prefs.Focus = *update.Focus
	}
	return nil
}

func TestLoadShowsStoredPreferences(t *testing.T) {
	editor := &fakeEditor{prefs: model.DefaultPreferences()}
	window := New(test.NewTempApp(t), editor)

	assert.Equal(t, "25", window.shortInt.Text)
	assert.Equal(t, "300", window.shortDur.Text)
	assert.Equal(t, "100", window.longInt.Text)
	assert.Equal(t, "15", window.longDur.Text)
	assert.Equal(t, "medium", window.intensity.Selected)
	assert.True(t, window.shortcuts.Checked)
	assert.Equal(t, "5", window.idleThreshold.Text)
	assert.Equal(t, "100", window.dailyGoal.Text)
}

func TestSaveWritesFourCategories(t *testing.T) {
	editor := &fakeEditor{prefs: model.DefaultPreferences()}
	window := New(test.NewTempApp(t), editor)

	window.shortInt.SetText("40")
	window.longDur.SetText("not a number")
	window.intensity.SetSelected("high")
	window.shortcuts.SetChecked(false)
	window.gamification.SetChecked(false)
	window.dailyGoal.SetText("-5")

	window.handleSave()

	require.Len(t, editor.updates, 1)
	update := editor.updates[0]
	assert.Nil(t, update.Visual)
	assert.Nil(t, update.Notification)

	assert.Equal(t, 40*time.Minute, editor.prefs.Timing.ShortBreakInterval)
	assert.Equal(t, 15*time.Minute, editor.prefs.Timing.LongBreakDuration)
	assert.Equal(t, model.IntensityHigh, editor.prefs.Focus.DefaultIntensity)
	assert.False(t, editor.prefs.Assistance.UseKeyboardShortcuts)
	assert.False(t, editor.prefs.Gamification.Enabled)
	assert.Equal(t, 100, editor.prefs.Gamification.DailyGoal)
}

func TestSetInsights(t *testing.T) {
	window := New(test.NewTempApp(t), &fakeEditor{prefs: model.DefaultPreferences()})

	window.SetInsights(model.Insights{
		SessionCount:    4,
		OptimalDuration: 30,
		Recommendations: []string{"first", "second"},
	}, model.RewardPoints{Daily: 20, Total: 310, Streak: model.Streak{Current: 2}})

	assert.Contains(t, window.summary.Text, "4 sessions analysed")
	assert.Contains(t, window.summary.Text, "total: 310")
	assert.Equal(t, "• first\n• second", window.recommendations.Text)

	window.ShowInsights()
	assert.Equal(t, 3, window.tabs.SelectedIndex())
}
