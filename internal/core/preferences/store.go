package preferences

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"focusflow/internal/core/events"
	"focusflow/internal/core/model"
	"focusflow/internal/storage"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// StorageKey is where preferences live in the secure store.
const StorageKey = "preferences"

// ErrInvalidImport is returned when an import document cannot be applied.
var ErrInvalidImport = errors.New("invalid preferences import")

// Update replaces whole categories. Nil fields leave their category as is,
// so a caller changing one field of a category must pass the full category.
type Update struct {
	Visual        *model.VisualPrefs
	Timing        *model.TimingPrefs
	Environment   *model.EnvironmentPrefs
	Assistance    *model.AssistancePrefs
	Gamification  *model.GamificationPrefs
	Notification  *model.NotificationPrefs
	Focus         *model.FocusPrefs
	Accessibility *model.AccessibilityPrefs
}

type subscriber struct {
	id       uint64
	callback func(model.Preferences)
}

// Store owns the live preferences. Every mutation is persisted, then handed
// to direct subscribers, then broadcast on the bus.
type Store struct {
	mu          sync.Mutex
	prefs       model.Preferences
	store       *storage.SecureStore
	bus         *events.Bus
	log         *zap.Logger
	subscribers []subscriber
	nextID      uint64
	pending     []model.Preferences
	dispatching bool
}

// New loads persisted preferences over the defaults.
func New(store *storage.SecureStore, bus *events.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefs := model.DefaultPreferences()
	if !store.GetItem(StorageKey, &prefs) {
		prefs = model.DefaultPreferences()
	}
	return &Store{
		prefs: prefs,
		store: store,
		bus:   bus,
		log:   logger.Named("preferences"),
	}
}

// Get returns a copy of the current preferences.
func (prefStore *Store) Get() model.Preferences {
	prefStore.mu.Lock()
	defer prefStore.mu.Unlock()
	return prefStore.prefs
}

// Update applies update and persists the result. A persistence error is
// returned, but the new values stay in effect and are still broadcast.
func (prefStore *Store) Update(update Update) error {
	prefStore.mu.Lock()
	next := prefStore.prefs
	apply(&next, update)
	return prefStore.commitLocked(next)
}

// ResetToDefaults restores the factory configuration.
func (prefStore *Store) ResetToDefaults() error {
	prefStore.mu.Lock()
	return prefStore.commitLocked(model.DefaultPreferences())
}

// Subscribe registers callback for every committed change.
func (prefStore *Store) Subscribe(callback func(model.Preferences)) func() {
	prefStore.mu.Lock()
	prefStore.nextID++
	id := prefStore.nextID
	prefStore.subscribers = append(prefStore.subscribers, subscriber{id: id, callback: callback})
	prefStore.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			prefStore.mu.Lock()
			defer prefStore.mu.Unlock()
			for i, entry := range prefStore.subscribers {
				if entry.id == id {
					prefStore.subscribers = append(prefStore.subscribers[:i:i], prefStore.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Export renders the current preferences as YAML.
func (prefStore *Store) Export() ([]byte, error) {
	prefs := prefStore.Get()
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}
	return data, nil
}

// Import overlays a YAML (or JSON) document on the current preferences.
// Malformed input leaves the preferences untouched.
func (prefStore *Store) Import(data []byte) error {
	if err := validateDocument(data); err != nil {
		prefStore.log.Error("preferences import rejected", zap.Error(err))
		return err
	}

	prefStore.mu.Lock()
	next := prefStore.prefs
	if err := yaml.Unmarshal(data, &next); err != nil {
		prefStore.mu.Unlock()
		err = fmt.Errorf("%w: %v", ErrInvalidImport, err)
		prefStore.log.Error("preferences import rejected", zap.Error(err))
		return err
	}
	return prefStore.commitLocked(next)
}

func validateDocument(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty document", ErrInvalidImport)
	}
	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if len(document.Content) == 0 || document.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected a mapping", ErrInvalidImport)
	}
	return nil
}

// commitLocked is entered with mu held and releases it before any callback
// runs, so subscribers may call back into the store. A commit made while
// another one is being delivered is queued and delivered after it, so the
// last notification always carries the stored values.
func (prefStore *Store) commitLocked(next model.Preferences) error {
	prefStore.prefs = next
	persistErr := prefStore.store.SetItemWithTTL(StorageKey, next, 0)
	if persistErr != nil {
		prefStore.log.Warn("preferences kept in memory only", zap.Error(persistErr))
		persistErr = fmt.Errorf("persist preferences: %w", persistErr)
	}
	prefStore.pending = append(prefStore.pending, next)
	if prefStore.dispatching {
		prefStore.mu.Unlock()
		return persistErr
	}
	prefStore.dispatching = true

	for len(prefStore.pending) > 0 {
		prefs := prefStore.pending[0]
		prefStore.pending = prefStore.pending[1:]
		callbacks := make([]func(model.Preferences), len(prefStore.subscribers))
		for i, entry := range prefStore.subscribers {
			callbacks[i] = entry.callback
		}
		prefStore.mu.Unlock()

		for _, callback := range callbacks {
			prefStore.notify(callback, prefs)
		}
		if prefStore.bus != nil {
			prefStore.bus.Emit(events.PreferencesChanged{Preferences: prefs})
		}

		prefStore.mu.Lock()
	}
	prefStore.pending = nil
	prefStore.dispatching = false
	prefStore.mu.Unlock()
	return persistErr
}

func (prefStore *Store) notify(callback func(model.Preferences), prefs model.Preferences) {
	defer func() {
		if recovered := recover(); recovered != nil {
			prefStore.log.Error("preferences subscriber failed", zap.String("panic", fmt.Sprint(recovered)))
		}
	}()
	callback(prefs)
}

func apply(prefs *model.Preferences, update Update) {
	if update.Visual != nil {
		prefs.Visual = *update.Visual
	}
	if update.Timing != nil {
		prefs.Timing = *update.Timing
	}
	if update.Environment != nil {
		prefs.Environment = *update.Environment
	}
	if update.Assistance != nil {
		prefs.Assistance = *update.Assistance
	}
	if update.Gamification != nil {
		prefs.Gamification = *update.Gamification
	}
	if update.Notification != nil {
		prefs.Notification = *update.Notification
	}
	if update.Focus != nil {
		prefs.Focus = *update.Focus
	}
	if update.Accessibility != nil {
		prefs.Accessibility = *update.Accessibility
	}
}
