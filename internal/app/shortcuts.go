package app

import (
	"focusflow/internal/core/events"
	"focusflow/internal/core/shortcuts"

	"fyne.io/fyne/v2"
)

// Shortcut categories.
const (
	CategoryTimer = "timer"
	CategoryFocus = "focus"
)

// ShortcutSource tags bus events raised from the keyboard.
const ShortcutSource = "shortcut"

// Controls are the timer actions the default shortcuts drive. Nil controls
// are not bound.
type Controls struct {
	TogglePause func()
	SkipBreak   func()
	LongBreak   func()
}

// RegisterDefaultShortcuts binds the standard key chords.
func (core *Core) RegisterDefaultShortcuts(controls Controls) {
	bindings := []shortcuts.Binding{
		{
			Key:         fyne.KeySpace,
			Category:    CategoryTimer,
			Description: "Pause or resume the timer",
			Action:      controls.TogglePause,
		},
		{
			Key:         fyne.KeyS,
			Modifiers:   fyne.KeyModifierShortcutDefault,
			Category:    CategoryTimer,
			Description: "Skip the current break",
			Action:      controls.SkipBreak,
		},
		{
			Key:         fyne.KeyL,
			Modifiers:   fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift,
			Category:    CategoryTimer,
			Description: "Take a long break now",
			Action:      controls.LongBreak,
		},
		{
			Key:         fyne.KeyD,
			Modifiers:   fyne.KeyModifierShortcutDefault,
			Category:    CategoryFocus,
			Description: "Log a resisted distraction",
			Action: func() {
				core.Bus.Emit(events.DistractionBlocked{Source: ShortcutSource})
			},
		},
		{
			Key:         fyne.KeyT,
			Modifiers:   fyne.KeyModifierShortcutDefault,
			Category:    CategoryFocus,
			Description: "Mark a task as done",
			Action: func() {
				core.Bus.Emit(events.TaskCompleted{Title: ShortcutSource})
			},
		},
	}
	for _, binding := range bindings {
		if binding.Action == nil {
			continue
		}
		core.Shortcuts.Register(binding)
	}
}
