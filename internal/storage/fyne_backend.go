package storage

import (
	"sort"
	"sync"

	"fyne.io/fyne/v2"
)

// fyneKeyIndex lists every key written through FyneBackend, because
// fyne.Preferences cannot enumerate its own keys.
const fyneKeyIndex = "__focusflow_keys"

// FyneBackend adapts the fyne application preferences.
type FyneBackend struct {
	mu    sync.Mutex
	prefs fyne.Preferences
}

var _ Backend = (*FyneBackend)(nil)

// NewFyneBackend wraps prefs, usually fyne.App.Preferences().
func NewFyneBackend(prefs fyne.Preferences) *FyneBackend {
	return &FyneBackend{prefs: prefs}
}

func (backend *FyneBackend) Get(key string) (string, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if !backend.indexedLocked(key) {
		return "", ErrNotFound
	}
	return backend.prefs.String(key), nil
}

func (backend *FyneBackend) Set(key, value string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.prefs.SetString(key, value)
	if !backend.indexedLocked(key) {
		keys := append(backend.prefs.StringList(fyneKeyIndex), key)
		sort.Strings(keys)
		backend.prefs.SetStringList(fyneKeyIndex, keys)
	}
	return nil
}

func (backend *FyneBackend) Remove(key string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.prefs.RemoveValue(key)
	current := backend.prefs.StringList(fyneKeyIndex)
	kept := make([]string, 0, len(current))
	for _, existing := range current {
		if existing != key {
			kept = append(kept, existing)
		}
	}
	backend.prefs.SetStringList(fyneKeyIndex, kept)
	return nil
}

func (backend *FyneBackend) Keys() ([]string, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return append([]string(nil), backend.prefs.StringList(fyneKeyIndex)...), nil
}

func (backend *FyneBackend) indexedLocked(key string) bool {
	for _, existing := range backend.prefs.StringList(fyneKeyIndex) {
		if existing == key {
			return true
		}
	}
	return false
}
