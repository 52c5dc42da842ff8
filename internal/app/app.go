package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"focusflow/internal/config"
	"focusflow/internal/core/analytics"
	"focusflow/internal/core/events"
	"focusflow/internal/core/preferences"
	"focusflow/internal/core/rewards"
	"focusflow/internal/core/shortcuts"
	"focusflow/internal/storage"

	"fyne.io/fyne/v2"
	"go.uber.org/zap"
)

// Core holds the one instance of every service. Services reach each other
// only through the bus.
type Core struct {
	Config      config.Config
	Store       *storage.SecureStore
	Bus         *events.Bus
	Preferences *preferences.Store
	Shortcuts   *shortcuts.Dispatcher
	Analytics   *analytics.Engine
	Rewards     *rewards.Engine

	backend storage.Backend
	log     *zap.Logger
}

type options struct {
	now   func() time.Time
	newID func() string
}

// Option adjusts how New wires the services.
type Option func(*options)

// WithClock makes every service read time from now.
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		opts.now = now
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(opts *options) {
		opts.newID = newID
	}
}

// New assembles the core on backend.
func New(cfg config.Config, logger *zap.Logger, backend storage.Backend, opts ...Option) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := options{now: time.Now}
	for _, opt := range opts {
		opt(&settings)
	}

	store := storage.NewSecureStore(backend, storage.Config{
		Namespace:  cfg.Store.Namespace,
		DefaultTTL: cfg.Store.DefaultTTL,
		Codec:      storage.NewXORCodec(cfg.Store.Secret),
		Now:        settings.now,
	}, logger)
	bus := events.NewBus(events.Config{
		HistoryCapacity: cfg.Bus.HistoryCapacity,
		Now:             settings.now,
	}, logger)
	prefs := preferences.New(store, bus, logger)
	current := prefs.Get()

	dispatcher := shortcuts.New(bus, shortcuts.Config{Now: settings.now}, logger)
	dispatcher.SetEnabled(current.Assistance.UseKeyboardShortcuts)

	analyticsEngine := analytics.New(store, bus, analytics.Config{
		SessionCapacity: cfg.Analytics.SessionCapacity,
		Now:             settings.now,
		NewID:           settings.newID,
	}, logger)

	rewardEngine := rewards.New(store, bus, rewards.Config{
		TTL: cfg.Rewards.TTL,
		Now: settings.now,
	}, logger)
	rewardEngine.SetEnabled(current.Gamification.Enabled)

	core := &Core{
		Config:      cfg,
		Store:       store,
		Bus:         bus,
		Preferences: prefs,
		Shortcuts:   dispatcher,
		Analytics:   analyticsEngine,
		Rewards:     rewardEngine,
		backend:     backend,
		log:         logger.Named("app"),
	}
	core.log.Debug("core assembled",
		zap.String("backend", cfg.Store.Backend),
		zap.Int("sessions", len(analyticsEngine.Sessions())),
		zap.Int("points", rewardEngine.Points().Total),
	)
	return core, nil
}

// Close detaches the engines from the bus and closes the backend when it
// holds resources.
func (core *Core) Close() error {
	core.Rewards.Close()
	core.Analytics.Close()
	core.Shortcuts.Close()
	core.log.Debug("core closed")
	return closeBackend(core.backend)
}

// Open opens the backend named by cfg and assembles the core on it. The
// backend is closed again when assembly fails.
func Open(cfg config.Config, logger *zap.Logger, prefs fyne.Preferences, opts ...Option) (*Core, error) {
	backend, err := OpenBackend(cfg, prefs)
	if err != nil {
		return nil, err
	}
	core, err := New(cfg, logger, backend, opts...)
	if err != nil {
		return nil, errors.Join(err, closeBackend(backend))
	}
	return core, nil
}

func closeBackend(backend storage.Backend) error {
	closer, ok := backend.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("close backend: %w", err)
	}
	return nil
}

// OpenBackend opens the backend named by cfg. prefs is only used by the fyne
// backend and may be nil otherwise.
func OpenBackend(cfg config.Config, prefs fyne.Preferences) (storage.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return storage.NewMemoryBackend(), nil
	case config.BackendFyne:
		if prefs == nil {
			return nil, errors.New("fyne backend needs a running fyne app")
		}
		return storage.NewFyneBackend(prefs), nil
	case config.BackendFile:
		path, err := storePath(cfg, "store.yaml")
		if err != nil {
			return nil, err
		}
		backend, err := storage.OpenFileBackend(path)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.BackendSQLite:
		path, err := storePath(cfg, "store.db")
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		backend, err := storage.OpenSQLiteBackend(path)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func storePath(cfg config.Config, fileName string) (string, error) {
	if cfg.Store.Path != "" {
		return cfg.Store.Path, nil
	}
	return storage.ResolvePath(cfg.AppName, fileName)
}
