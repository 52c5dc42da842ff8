package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"focusflow/internal/core/model"
	"focusflow/internal/core/preferences"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Editor is the part of the preference store the window needs.
type Editor interface {
	Get() model.Preferences
	Update(update preferences.Update) error
}

// Window edits the schedule, assistance and reward preferences and shows
// the latest insights.
type Window struct {
	window fyne.Window
	editor Editor
	tabs   *container.AppTabs

	shortInt  *widget.Entry
	shortDur  *widget.Entry
	longInt   *widget.Entry
	longDur   *widget.Entry
	strict    *widget.Check
	intensity *widget.Select

	shortcuts     *widget.Check
	idleCheck     *widget.Check
	idleThreshold *widget.Entry

	gamification *widget.Check
	showPoints   *widget.Check
	dailyGoal    *widget.Entry

	summary         *widget.Label
	recommendations *widget.Label
}

// New creates the settings window. It is hidden until Show is called.
func New(app fyne.App, editor Editor) *Window {
	settings := &Window{
		window:          app.NewWindow("FocusFlow Settings"),
		editor:          editor,
		shortInt:        widget.NewEntry(),
		shortDur:        widget.NewEntry(),
		longInt:         widget.NewEntry(),
		longDur:         widget.NewEntry(),
		strict:          widget.NewCheck("Strict mode (disable skip)", nil),
		intensity:       widget.NewSelect([]string{string(model.IntensityLow), string(model.IntensityMedium), string(model.IntensityHigh)}, nil),
		shortcuts:       widget.NewCheck("Enable keyboard shortcuts", nil),
		idleCheck:       widget.NewCheck("Reset the timer when idle", nil),
		idleThreshold:   widget.NewEntry(),
		gamification:    widget.NewCheck("Earn points and achievements", nil),
		showPoints:      widget.NewCheck("Show points in the tray", nil),
		dailyGoal:       widget.NewEntry(),
		summary:         widget.NewLabel("No sessions yet."),
		recommendations: widget.NewLabel(""),
	}
	settings.recommendations.Wrapping = fyne.TextWrapWord

	schedule := container.NewVBox(
		container.NewHBox(widget.NewLabel("Short break every"), settings.shortInt, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break duration"), settings.shortDur, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Long break every"), settings.longInt, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break duration"), settings.longDur, widget.NewLabel("min")),
		settings.strict,
		container.NewHBox(widget.NewLabel("Focus intensity"), settings.intensity),
	)
	assistance := container.NewVBox(
		settings.shortcuts,
		settings.idleCheck,
		container.NewHBox(widget.NewLabel("Idle after"), settings.idleThreshold, widget.NewLabel("min")),
	)
	rewards := container.NewVBox(
		settings.gamification,
		settings.showPoints,
		container.NewHBox(widget.NewLabel("Daily point goal"), settings.dailyGoal),
	)
	insights := container.NewVBox(settings.summary, settings.recommendations)

	settings.tabs = container.NewAppTabs(
		container.NewTabItem("Schedule", schedule),
		container.NewTabItem("Assistance", assistance),
		container.NewTabItem("Rewards", rewards),
		container.NewTabItem("Insights", container.NewVScroll(insights)),
	)

	saveButton := widget.NewButton("Save", settings.handleSave)
	cancelButton := widget.NewButton("Cancel", settings.window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	settings.window.SetContent(container.NewBorder(nil, buttons, nil, nil, settings.tabs))
	settings.window.Resize(fyne.NewSize(460, 420))
	settings.window.SetCloseIntercept(settings.window.Hide)

	settings.Load(editor.Get())
	return settings
}

// Window exposes the underlying fyne window, for shortcut binding.
func (settings *Window) Window() fyne.Window {
	return settings.window
}

// Show reloads the stored preferences and displays the window.
func (settings *Window) Show() {
	settings.Load(settings.editor.Get())
	settings.window.Show()
	settings.window.RequestFocus()
}

// ShowInsights displays the window on the insights tab.
func (settings *Window) ShowInsights() {
	settings.Show()
	settings.tabs.SelectIndex(len(settings.tabs.Items) - 1)
}

// Load replaces the form values.
func (settings *Window) Load(prefs model.Preferences) {
	timing := prefs.Timing
	settings.shortInt.SetText(strconv.Itoa(int(timing.ShortBreakInterval.Minutes())))
	settings.shortDur.SetText(strconv.Itoa(int(timing.ShortBreakDuration.Seconds())))
	settings.longInt.SetText(strconv.Itoa(int(timing.LongBreakInterval.Minutes())))
	settings.longDur.SetText(strconv.Itoa(int(timing.LongBreakDuration.Minutes())))
	settings.strict.SetChecked(timing.StrictMode)
	settings.intensity.SetSelected(string(prefs.Focus.DefaultIntensity))

	settings.shortcuts.SetChecked(prefs.Assistance.UseKeyboardShortcuts)
	settings.idleCheck.SetChecked(prefs.Assistance.IdleDetection)
	settings.idleThreshold.SetText(strconv.Itoa(int(prefs.Assistance.IdleThreshold.Minutes())))

	settings.gamification.SetChecked(prefs.Gamification.Enabled)
	settings.showPoints.SetChecked(prefs.Gamification.ShowPoints)
	settings.dailyGoal.SetText(strconv.Itoa(prefs.Gamification.DailyGoal))
}

// SetInsights refreshes the insights tab.
func (settings *Window) SetInsights(insights model.Insights, points model.RewardPoints) {
	settings.summary.SetText(fmt.Sprintf(
		"%d sessions analysed. Best session length: %d min. Points today: %d, total: %d, streak: %d days.",
		insights.SessionCount, insights.OptimalDuration, points.Daily, points.Total, points.Streak.Current,
	))
	if len(insights.Recommendations) == 0 {
		settings.recommendations.SetText("")
		return
	}
	settings.recommendations.SetText("• " + strings.Join(insights.Recommendations, "\n• "))
}

// Collect reads the form into a preference update. Invalid numbers keep the
// stored value.
func (settings *Window) Collect() preferences.Update {
	current := settings.editor.Get()

	timing := current.Timing
	if minutes, ok := parsePositiveInt(settings.shortInt.Text); ok {
		timing.ShortBreakInterval = time.Duration(minutes) * time.Minute
	}
	if seconds, ok := parsePositiveInt(settings.shortDur.Text); ok {
		timing.ShortBreakDuration = time.Duration(seconds) * time.Second
	}
	if minutes, ok := parsePositiveInt(settings.longInt.Text); ok {
		timing.LongBreakInterval = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(settings.longDur.Text); ok {
		timing.LongBreakDuration = time.Duration(minutes) * time.Minute
	}
	timing.StrictMode = settings.strict.Checked

	focus := current.Focus
	if settings.intensity.Selected != "" {
		focus.DefaultIntensity = model.Intensity(settings.intensity.Selected)
	}

	assistance := current.Assistance
	assistance.UseKeyboardShortcuts = settings.shortcuts.Checked
	assistance.IdleDetection = settings.idleCheck.Checked
	if minutes, ok := parsePositiveInt(settings.idleThreshold.Text); ok {
		assistance.IdleThreshold = time.Duration(minutes) * time.Minute
	}

	gamification := current.Gamification
	gamification.Enabled = settings.gamification.Checked
	gamification.ShowPoints = settings.showPoints.Checked
	if goal, ok := parsePositiveInt(settings.dailyGoal.Text); ok {
		gamification.DailyGoal = goal
	}

	return preferences.Update{
		Timing:       &timing,
		Focus:        &focus,
		Assistance:   &assistance,
		Gamification: &gamification,
	}
}

func (settings *Window) handleSave() {
	if err := settings.editor.Update(settings.Collect()); err != nil {
		dialog.ShowError(err, settings.window)
		return
	}
	settings.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
