package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultNamespace prefixes every key written by SecureStore.
	DefaultNamespace = "focusflow_"
	// DefaultTTL applies when SetItem is called without a ttl.
	DefaultTTL = 7 * 24 * time.Hour
)

// Config contains runtime options for SecureStore.
type Config struct {
	Namespace  string
	DefaultTTL time.Duration
	Codec      Codec
	Now        func() time.Time
}

// record is the envelope persisted for every item. TTL is in milliseconds;
// zero means the item never expires.
type record struct {
	Value     json.RawMessage `json:"value"`
	WrittenAt int64           `json:"written_at"`
	TTL       int64           `json:"ttl"`
}

// SecureStore is an obfuscated, expiring key/value layer over a Backend.
// Expiry is lazy: an expired item is deleted the first time it is read.
// The obfuscation is tamper resistance for a local cache, not encryption.
type SecureStore struct {
	mu         sync.Mutex
	backend    Backend
	codec      Codec
	namespace  string
	defaultTTL time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// NewSecureStore wraps backend and runs the startup expiry sweep.
func NewSecureStore(backend Backend, config Config, logger *zap.Logger) *SecureStore {
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTTL
	}
	if config.Codec == nil {
		config.Codec = NewXORCodec("")
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &SecureStore{
		backend:    backend,
		codec:      config.Codec,
		namespace:  config.Namespace,
		defaultTTL: config.DefaultTTL,
		now:        config.Now,
		log:        logger.Named("store"),
	}
	if removed := store.Sweep(); removed > 0 {
		store.log.Info("startup sweep removed expired items", zap.Int("removed", removed))
	}
	return store
}

// SetItem stores value under key with the default ttl.
func (store *SecureStore) SetItem(key string, value any) error {
	return store.SetItemWithTTL(key, value, store.defaultTTL)
}

// SetItemWithTTL stores value under key. A non-positive ttl never expires.
func (store *SecureStore) SetItemWithTTL(key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	return store.writeLocked(key, raw, ttl)
}

// ttlMillis rounds ttl up to whole milliseconds so a short positive ttl does
// not collapse into "never expires".
func ttlMillis(ttl time.Duration) int64 {
	return int64((ttl + time.Millisecond - 1) / time.Millisecond)
}

func (store *SecureStore) writeLocked(key string, raw json.RawMessage, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	plain, err := json.Marshal(record{
		Value:     raw,
		WrittenAt: store.now().UnixMilli(),
		TTL:       ttlMillis(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", key, err)
	}

	namespaced := store.namespace + key
	encoded, err := store.codec.Encode(plain)
	if err != nil {
		store.log.Warn("obfuscation failed, storing plain record", zap.String("key", key), zap.Error(err))
	} else {
		setErr := store.backend.Set(namespaced, encoded)
		if setErr == nil {
			return nil
		}
		store.log.Warn("obfuscated write failed, retrying plain", zap.String("key", key), zap.Error(setErr))
	}

	if err := store.backend.Set(namespaced, string(plain)); err != nil {
		store.log.Error("write dropped", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// GetItem decodes the live value stored under key into out. It reports
// false for missing, expired or unreadable items and never fails otherwise.
func (store *SecureStore) GetItem(key string, out any) bool {
	store.mu.Lock()
	raw, ok := store.readLocked(key)
	store.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		store.log.Debug("stored value does not match target", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (store *SecureStore) readLocked(key string) (json.RawMessage, bool) {
	namespaced := store.namespace + key
	stored, err := store.backend.Get(namespaced)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			store.log.Warn("read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	item, ok := store.decode(stored)
	if !ok {
		store.log.Debug("unreadable record", zap.String("key", key))
		return nil, false
	}

	if item.TTL > 0 && store.now().UnixMilli()-item.WrittenAt > item.TTL {
		if err := store.backend.Remove(namespaced); err != nil {
			store.log.Warn("remove expired item failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return item.Value, true
}

// decode tries the obfuscated form first and falls back to a plain record
// written by older versions or by the degraded write path.
func (store *SecureStore) decode(stored string) (record, bool) {
	if plain, err := store.codec.Decode(stored); err == nil {
		if item, ok := parseRecord(plain); ok {
			return item, true
		}
	}
	return parseRecord([]byte(stored))
}

func parseRecord(data []byte) (record, bool) {
	var item record
	if err := json.Unmarshal(data, &item); err != nil || item.Value == nil {
		return record{}, false
	}
	return item, true
}

// RemoveItem deletes key.
func (store *SecureStore) RemoveItem(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.backend.Remove(store.namespace + key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Clear removes every key under the namespace and leaves other keys alone.
func (store *SecureStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	keys, err := store.namespacedKeysLocked()
	if err != nil {
		return err
	}
	var errs []error
	for _, key := range keys {
		if err := store.backend.Remove(store.namespace + key); err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Keys lists the un-prefixed keys currently in the backend, live or not.
func (store *SecureStore) Keys() ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.namespacedKeysLocked()
}

func (store *SecureStore) namespacedKeysLocked() ([]string, error) {
	all, err := store.backend.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys := make([]string, 0, len(all))
	for _, key := range all {
		if strings.HasPrefix(key, store.namespace) {
			keys = append(keys, strings.TrimPrefix(key, store.namespace))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Sweep runs the expiry check on every namespaced key and returns how many
// items it deleted.
func (store *SecureStore) Sweep() int {
	store.mu.Lock()
	defer store.mu.Unlock()

	keys, err := store.namespacedKeysLocked()
	if err != nil {
		store.log.Warn("sweep skipped", zap.Error(err))
		return 0
	}
	removed := 0
	for _, key := range keys {
		stored, err := store.backend.Get(store.namespace + key)
		if err != nil {
			continue
		}
		if _, ok := store.readLocked(key); !ok {
			if _, decoded := store.decode(stored); decoded {
				removed++
			}
		}
	}
	return removed
}

// Export serializes every live item as a JSON object of key to value.
func (store *SecureStore) Export() ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	keys, err := store.namespacedKeysLocked()
	if err != nil {
		return nil, err
	}
	items := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if raw, ok := store.readLocked(key); ok {
			items[key] = raw
		}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Import writes every pair of an Export document with the default ttl and
// returns how many were stored.
func (store *SecureStore) Import(data []byte) (int, error) {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("parse import: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	imported := 0
	var errs []error
	for _, key := range keys {
		if err := store.writeLocked(key, items[key], store.defaultTTL); err != nil {
			errs = append(errs, err)
			continue
		}
		imported++
	}
	return imported, errors.Join(errs...)
}

// Load reads key into a value of type T.
func Load[T any](store *SecureStore, key string) (T, bool) {
	var value T
	if !store.GetItem(key, &value) {
		var zero T
		return zero, false
	}
	return value, true
}

// Save stores value under key with the default ttl.
func Save[T any](store *SecureStore, key string, value T) error {
	return store.SetItem(key, value)
}
