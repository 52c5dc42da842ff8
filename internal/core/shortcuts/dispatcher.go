package shortcuts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"focusflow/internal/core/events"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"go.uber.org/zap"
)

// Binding ties a key chord to an action.
type Binding struct {
	Key         fyne.KeyName
	Modifiers   fyne.KeyModifier
	Category    string
	Description string
	Action      func()
}

// Canonical returns the lookup key of the binding.
func (binding Binding) Canonical() string {
	return Canonical(binding.Key, binding.Modifiers)
}

// KeyPress is one raw key input.
type KeyPress struct {
	Key       fyne.KeyName
	Modifiers fyne.KeyModifier
}

var modifierOrder = []struct {
	flag fyne.KeyModifier
	name string
}{
	{fyne.KeyModifierControl, "ctrl"},
	{fyne.KeyModifierAlt, "alt"},
	{fyne.KeyModifierShift, "shift"},
	{fyne.KeyModifierSuper, "super"},
}

// Canonical renders a chord as ctrl+alt+shift+super+key, skipping absent
// modifiers. The key name is lower-cased.
func Canonical(key fyne.KeyName, modifiers fyne.KeyModifier) string {
	parts := make([]string, 0, len(modifierOrder)+1)
	for _, modifier := range modifierOrder {
		if modifiers&modifier.flag != 0 {
			parts = append(parts, modifier.name)
		}
	}
	parts = append(parts, strings.ToLower(string(key)))
	return strings.Join(parts, "+")
}

// HelpEntry is one line of the shortcut help.
type HelpEntry struct {
	Key         string
	Description string
}

// HelpGroup lists the help entries of one category.
type HelpGroup struct {
	Category string
	Entries  []HelpEntry
}

// Config contains runtime options for Dispatcher.
type Config struct {
	Now func() time.Time
}

// Dispatcher maps canonical key chords to bindings. Disabling it stops
// dispatch but keeps the registry.
type Dispatcher struct {
	mu          sync.Mutex
	bindings    map[string]Binding
	enabled     bool
	bus         *events.Bus
	now         func() time.Time
	log         *zap.Logger
	canvas      fyne.Canvas
	unsubscribe func()
}

// New creates an enabled dispatcher that follows the keyboard shortcut
// preference published on bus.
func New(bus *events.Bus, config Config, logger *zap.Logger) *Dispatcher {
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := &Dispatcher{
		bindings: make(map[string]Binding),
		enabled:  true,
		bus:      bus,
		now:      config.Now,
		log:      logger.Named("shortcuts"),
	}
	if bus != nil {
		dispatcher.unsubscribe = events.On(bus, func(payload events.PreferencesChanged, _ events.Event) {
			dispatcher.SetEnabled(payload.Preferences.Assistance.UseKeyboardShortcuts)
		})
	}
	return dispatcher
}

// Close stops following preference changes.
func (dispatcher *Dispatcher) Close() {
	if dispatcher.unsubscribe != nil {
		dispatcher.unsubscribe()
	}
}

// Register adds binding, replacing any binding with the same canonical key.
func (dispatcher *Dispatcher) Register(binding Binding) {
	key := binding.Canonical()

	dispatcher.mu.Lock()
	if previous, ok := dispatcher.bindings[key]; ok {
		dispatcher.log.Debug("shortcut replaced",
			zap.String("key", key),
			zap.String("previous", previous.Description),
		)
	}
	dispatcher.bindings[key] = binding
	canvas := dispatcher.canvas
	dispatcher.mu.Unlock()

	if canvas != nil && binding.Modifiers != 0 {
		dispatcher.addCanvasShortcut(canvas, binding)
	}
}

// Unregister removes the binding stored under the canonical key of binding.
func (dispatcher *Dispatcher) Unregister(binding Binding) {
	key := binding.Canonical()

	dispatcher.mu.Lock()
	_, ok := dispatcher.bindings[key]
	delete(dispatcher.bindings, key)
	canvas := dispatcher.canvas
	dispatcher.mu.Unlock()

	if ok && canvas != nil && binding.Modifiers != 0 {
		canvas.RemoveShortcut(customShortcut(binding))
	}
}

// GetShortcuts lists every binding ordered by canonical key.
func (dispatcher *Dispatcher) GetShortcuts() []Binding {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	return dispatcher.sortedLocked("")
}

// GetShortcutsByCategory lists the bindings of one category.
func (dispatcher *Dispatcher) GetShortcutsByCategory(category string) []Binding {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	return dispatcher.sortedLocked(category)
}

func (dispatcher *Dispatcher) sortedLocked(category string) []Binding {
	keys := make([]string, 0, len(dispatcher.bindings))
	for key, binding := range dispatcher.bindings {
		if category != "" && binding.Category != category {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	bindings := make([]Binding, 0, len(keys))
	for _, key := range keys {
		bindings = append(bindings, dispatcher.bindings[key])
	}
	return bindings
}

// GetShortcutHelp groups the bindings by category for display.
func (dispatcher *Dispatcher) GetShortcutHelp() []HelpGroup {
	groups := make([]HelpGroup, 0)
	index := make(map[string]int)
	for _, binding := range dispatcher.GetShortcuts() {
		position, ok := index[binding.Category]
		if !ok {
			position = len(groups)
			index[binding.Category] = position
			groups = append(groups, HelpGroup{Category: binding.Category})
		}
		groups[position].Entries = append(groups[position].Entries, HelpEntry{
			Key:         binding.Canonical(),
			Description: binding.Description,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Category < groups[j].Category
	})
	return groups
}

// IsEnabled reports whether key input is dispatched.
func (dispatcher *Dispatcher) IsEnabled() bool {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	return dispatcher.enabled
}

// SetEnabled toggles dispatch without touching the registry.
func (dispatcher *Dispatcher) SetEnabled(enabled bool) {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	dispatcher.enabled = enabled
}

// HandleKey runs the binding matching press and reports whether an action
// ran to completion.
func (dispatcher *Dispatcher) HandleKey(press KeyPress) bool {
	key := Canonical(press.Key, press.Modifiers)

	dispatcher.mu.Lock()
	binding, ok := dispatcher.bindings[key]
	enabled := dispatcher.enabled
	dispatcher.mu.Unlock()

	if !ok || !enabled || binding.Action == nil {
		return false
	}
	if err := runAction(binding.Action); err != nil {
		dispatcher.log.Error("shortcut action failed", zap.String("key", key), zap.Error(err))
		return false
	}

	if dispatcher.bus != nil {
		dispatcher.bus.Emit(events.ShortcutTriggered{
			Key:      key,
			Category: binding.Category,
			At:       dispatcher.now(),
		})
	}
	return true
}

func runAction(action func()) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("action panicked: %v", recovered)
		}
	}()
	action()
	return nil
}

// BindCanvas routes key input of canvas into the dispatcher. Modified chords
// are registered as desktop shortcuts and plain keys go through the typed
// key hook.
func (dispatcher *Dispatcher) BindCanvas(canvas fyne.Canvas) {
	dispatcher.mu.Lock()
	dispatcher.canvas = canvas
	bindings := dispatcher.sortedLocked("")
	dispatcher.mu.Unlock()

	for _, binding := range bindings {
		if binding.Modifiers != 0 {
			dispatcher.addCanvasShortcut(canvas, binding)
		}
	}
	canvas.SetOnTypedKey(func(event *fyne.KeyEvent) {
		dispatcher.HandleKey(KeyPress{Key: event.Name})
	})
}

func (dispatcher *Dispatcher) addCanvasShortcut(canvas fyne.Canvas, binding Binding) {
	press := KeyPress{Key: binding.Key, Modifiers: binding.Modifiers}
	canvas.AddShortcut(customShortcut(binding), func(fyne.Shortcut) {
		dispatcher.HandleKey(press)
	})
}

func customShortcut(binding Binding) *desktop.CustomShortcut {
	return &desktop.CustomShortcut{KeyName: binding.Key, Modifier: binding.Modifiers}
}
