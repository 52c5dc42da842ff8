package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileBackend persists the whole key space as one YAML mapping. Every write
// rewrites the file through a temp file and rename.
type FileBackend struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// ResolvePath returns <user config dir>/<appName>/<fileName>.
func ResolvePath(appName, fileName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, fileName), nil
}

// OpenFileBackend loads path, treating a missing file as empty.
func OpenFileBackend(path string) (*FileBackend, error) {
	backend := &FileBackend{path: path, values: make(map[string]string)}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return backend, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(rawData) == 0 {
		return backend, nil
	}
	if err := yaml.Unmarshal(rawData, &backend.values); err != nil {
		return nil, fmt.Errorf("parse store yaml: %w", err)
	}
	if backend.values == nil {
		backend.values = make(map[string]string)
	}
	return backend, nil
}

// Path returns the backing file.
func (backend *FileBackend) Path() string {
	return backend.path
}

func (backend *FileBackend) Get(key string) (string, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	value, ok := backend.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (backend *FileBackend) Set(key, value string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	previous, existed := backend.values[key]
	backend.values[key] = value
	if err := backend.flushLocked(); err != nil {
		if existed {
			backend.values[key] = previous
		} else {
			delete(backend.values, key)
		}
		return err
	}
	return nil
}

func (backend *FileBackend) Remove(key string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	previous, ok := backend.values[key]
	if !ok {
		return nil
	}
	delete(backend.values, key)
	if err := backend.flushLocked(); err != nil {
		backend.values[key] = previous
		return err
	}
	return nil
}

func (backend *FileBackend) Keys() ([]string, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	keys := make([]string, 0, len(backend.values))
	for key := range backend.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (backend *FileBackend) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(backend.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	serialized, err := yaml.Marshal(backend.values)
	if err != nil {
		return fmt.Errorf("marshal store yaml: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(backend.path), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(serialized); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Rename(tmpName, backend.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
