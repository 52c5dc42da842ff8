package shortcuts

import (
	"testing"
	"time"

	"focusflow/internal/core/events"
	"focusflow/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2026, 5, 4, 10, 15, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T) (*Dispatcher, *events.Bus) {
	t.Helper()
	bus := events.NewBus(events.Config{}, zap.NewNop())
	dispatcher := New(bus, Config{Now: func() time.Time { return fixedNow }}, zap.NewNop())
	t.Cleanup(dispatcher.Close)
	return dispatcher, bus
}

func TestCanonicalOrdersModifiers(t *testing.T) {
	cases := []struct {
		key       fyne.KeyName
		modifiers fyne.KeyModifier
		want      string
	}{
		{fyne.KeySpace, 0, "space"},
		{fyne.KeyX, fyne.KeyModifierShift | fyne.KeyModifierControl, "ctrl+shift+x"},
		{fyne.KeyL, fyne.KeyModifierSuper | fyne.KeyModifierAlt | fyne.KeyModifierControl, "ctrl+alt+super+l"},
		{fyne.KeyF1, fyne.KeyModifierShift, "shift+f1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Canonical(tc.key, tc.modifiers))
	}
}

func TestHandleKeyRunsActionAndEmits(t *testing.T) {
	dispatcher, bus := newTestDispatcher(t)
	ran := 0
	dispatcher.Register(Binding{
		Key:       fyne.KeyS,
		Modifiers: fyne.KeyModifierControl,
		Category:  "timer",
		Action:    func() { ran++ },
	})

	require.True(t, dispatcher.HandleKey(KeyPress{Key: fyne.KeyS, Modifiers: fyne.KeyModifierControl}))
	assert.False(t, dispatcher.HandleKey(KeyPress{Key: fyne.KeyS}))
	assert.Equal(t, 1, ran)

	triggered := bus.GetRecentEvents(events.TypeShortcutTriggered, 0)
	require.Len(t, triggered, 1)
	assert.Equal(t, events.ShortcutTriggered{Key: "ctrl+s", Category: "timer", At: fixedNow}, triggered[0].Data)
}

func TestRegisterReplacesDuplicateChord(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	var ran []string
	dispatcher.Register(Binding{Key: fyne.KeyD, Modifiers: fyne.KeyModifierControl, Description: "old", Action: func() { ran = append(ran, "old") }})
	dispatcher.Register(Binding{Key: fyne.KeyD, Modifiers: fyne.KeyModifierControl, Description: "new", Action: func() { ran = append(ran, "new") }})

	require.Len(t, dispatcher.GetShortcuts(), 1)
	dispatcher.HandleKey(KeyPress{Key: fyne.KeyD, Modifiers: fyne.KeyModifierControl})
	assert.Equal(t, []string{"new"}, ran)
}

func TestDisabledDispatcherKeepsBindings(t *testing.T) {
	dispatcher, bus := newTestDispatcher(t)
	ran := 0
	dispatcher.Register(Binding{Key: fyne.KeySpace, Category: "timer", Action: func() { ran++ }})

	dispatcher.SetEnabled(false)
	assert.False(t, dispatcher.IsEnabled())
	assert.False(t, dispatcher.HandleKey(KeyPress{Key: fyne.KeySpace}))
	assert.Len(t, dispatcher.GetShortcuts(), 1)
	assert.Zero(t, ran)
	assert.Empty(t, bus.GetRecentEvents(events.TypeShortcutTriggered, 0))

	dispatcher.SetEnabled(true)
	assert.True(t, dispatcher.HandleKey(KeyPress{Key: fyne.KeySpace}))
	assert.Equal(t, 1, ran)
}

func TestPreferenceChangeTogglesDispatch(t *testing.T) {
	dispatcher, bus := newTestDispatcher(t)
	prefs := model.DefaultPreferences()

	prefs.Assistance.UseKeyboardShortcuts = false
	bus.Emit(events.PreferencesChanged{Preferences: prefs})
	assert.False(t, dispatcher.IsEnabled())

	prefs.Assistance.UseKeyboardShortcuts = true
	bus.Emit(events.PreferencesChanged{Preferences: prefs})
	assert.True(t, dispatcher.IsEnabled())
}

func TestUnregisterRemovesBinding(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	binding := Binding{Key: fyne.KeyT, Modifiers: fyne.KeyModifierControl, Action: func() {}}
	dispatcher.Register(binding)
	dispatcher.Unregister(Binding{Key: fyne.KeyT, Modifiers: fyne.KeyModifierControl})

	assert.Empty(t, dispatcher.GetShortcuts())
	assert.False(t, dispatcher.HandleKey(KeyPress{Key: fyne.KeyT, Modifiers: fyne.KeyModifierControl}))
}

func TestPanickingActionIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := events.NewBus(events.Config{}, nil)
	dispatcher := New(bus, Config{}, zap.New(core))
	dispatcher.Register(Binding{Key: fyne.KeyP, Action: func() { panic("broken") }})

	require.NotPanics(t, func() {
		assert.False(t, dispatcher.HandleKey(KeyPress{Key: fyne.KeyP}))
	})
	assert.Equal(t, 1, logs.FilterMessage("shortcut action failed").Len())
	assert.Empty(t, bus.GetRecentEvents(events.TypeShortcutTriggered, 0))
}

func TestShortcutHelpGroupsByCategory(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	dispatcher.Register(Binding{Key: fyne.KeyT, Modifiers: fyne.KeyModifierControl, Category: "tracking", Description: "complete task"})
	dispatcher.Register(Binding{Key: fyne.KeySpace, Category: "timer", Description: "pause or resume"})
	dispatcher.Register(Binding{Key: fyne.KeyS, Modifiers: fyne.KeyModifierControl, Category: "timer", Description: "skip break"})
	dispatcher.Register(Binding{Key: fyne.KeyD, Modifiers: fyne.KeyModifierControl, Category: "tracking", Description: "block distraction"})

	help := dispatcher.GetShortcutHelp()
	assert.Equal(t, []HelpGroup{
		{Category: "timer", Entries: []HelpEntry{
			{Key: "ctrl+s", Description: "skip break"},
			{Key: "space", Description: "pause or resume"},
		}},
		{Category: "tracking", Entries: []HelpEntry{
			{Key: "ctrl+d", Description: "block distraction"},
			{Key: "ctrl+t", Description: "complete task"},
		}},
	}, help)

	timer := dispatcher.GetShortcutsByCategory("timer")
	require.Len(t, timer, 2)
	assert.Equal(t, "skip break", timer[0].Description)
}

type recordingCanvas struct {
	fyne.Canvas
	shortcuts map[string]func(fyne.Shortcut)
}

func (canvas *recordingCanvas) AddShortcut(shortcut fyne.Shortcut, handler func(fyne.Shortcut)) {
	canvas.shortcuts[shortcut.ShortcutName()] = handler
}

func (canvas *recordingCanvas) RemoveShortcut(shortcut fyne.Shortcut) {
	delete(canvas.shortcuts, shortcut.ShortcutName())
}

func TestBindCanvasRoutesKeys(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t)
	canvas := &recordingCanvas{Canvas: test.NewCanvas(), shortcuts: map[string]func(fyne.Shortcut){}}

	var ran []string
	dispatcher.Register(Binding{Key: fyne.KeySpace, Action: func() { ran = append(ran, "space") }})
	skip := Binding{Key: fyne.KeyS, Modifiers: fyne.KeyModifierControl, Action: func() { ran = append(ran, "skip") }}
	dispatcher.Register(skip)
	dispatcher.BindCanvas(canvas)

	long := Binding{Key: fyne.KeyL, Modifiers: fyne.KeyModifierControl | fyne.KeyModifierShift, Action: func() { ran = append(ran, "long") }}
	dispatcher.Register(long)
	require.Len(t, canvas.shortcuts, 2)

	canvas.OnTypedKey()(&fyne.KeyEvent{Name: fyne.KeySpace})
	canvas.shortcuts[customShortcut(skip).ShortcutName()](customShortcut(skip))
	canvas.shortcuts[customShortcut(long).ShortcutName()](customShortcut(long))
	assert.Equal(t, []string{"space", "skip", "long"}, ran)

	dispatcher.Unregister(skip)
	assert.Len(t, canvas.shortcuts, 1)
}
