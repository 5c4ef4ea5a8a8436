package module

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/codec"
	"github.com/dshills/modkit/internal/hook"
	"github.com/dshills/modkit/internal/merge"
	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/version"
)

// Manager drives the lifecycle of the modules in a Registry.
type Manager struct {
	mu       sync.Mutex
	registry *Registry
	store    *storage.Store
	hooks    *hook.Registry
	versions *version.Engine
	notifier notify.Notifier
	text     TextFunc
	logger   *log.Logger

	envs   map[string]*Env
	states map[string]State
	errs   map[string]error
	loaded bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithHooks sets the hook registry handed to modules.
func WithHooks(h *hook.Registry) Option {
	return func(m *Manager) { m.hooks = h }
}

// WithVersions sets the migration engine handed to modules.
func WithVersions(v *version.Engine) Option {
	return func(m *Manager) { m.versions = v }
}

// WithNotifier sets the notifier handed to modules.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithText sets the translation lookup handed to modules.
func WithText(fn TextFunc) Option {
	return func(m *Manager) { m.text = fn }
}

// WithLogger sets the manager logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager for the modules in registry, whose settings
// live in store.
func NewManager(registry *Registry, store *storage.Store, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		store:    store,
		logger:   log.Default().WithPrefix("module"),
		envs:     make(map[string]*Env),
		states:   make(map[string]State),
		errs:     make(map[string]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the module registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Store returns the settings store.
func (m *Manager) Store() *storage.Store {
	return m.store
}

// Loaded reports whether the modules are loaded.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// SetLoaded marks the modules loaded.
func (m *Manager) SetLoaded() {
	m.mu.Lock()
	m.loaded = true
	m.mu.Unlock()
}

// State returns the lifecycle state of a module.
func (m *Manager) State(key string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[key]
}

// Errors returns the last lifecycle error of each failed module.
func (m *Manager) Errors() map[string]error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]error, len(m.errs))
	for k, v := range m.errs {
		out[k] = v
	}
	return out
}

// HasErrors reports whether any module call failed.
func (m *Manager) HasErrors() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errs) > 0
}

func (m *Manager) env(key string) *Env {
	m.mu.Lock()
	defer m.mu.Unlock()
	if env, ok := m.envs[key]; ok {
		return env
	}
	env := &Env{
		Key:      key,
		Hooks:    m.hooks,
		Store:    m.store,
		Versions: m.versions,
		Notifier: m.notifier,
		Text:     m.text,
		Logger:   m.logger.WithPrefix(key),
		manager:  m,
	}
	m.envs[key] = env
	return env
}

// InitAll calls Init on every module.
func (m *Manager) InitAll(ctx context.Context) error {
	return m.fanOut(ctx, PhaseInit, func(ctx context.Context, e Entry) error {
		return e.Module.Init(ctx, m.env(e.Key))
	})
}

// LoadAll calls Load on every module.
func (m *Manager) LoadAll(ctx context.Context) error {
	return m.fanOut(ctx, PhaseLoad, func(ctx context.Context, e Entry) error {
		return e.Module.Load(ctx)
	})
}

// RunAll calls Run on every module.
func (m *Manager) RunAll(ctx context.Context) error {
	return m.fanOut(ctx, PhaseRun, func(ctx context.Context, e Entry) error {
		return e.Module.Run(ctx)
	})
}

// UnloadAll calls Unload on every module, removes the hooks each module
// owns and clears the loaded flag.
func (m *Manager) UnloadAll(ctx context.Context) error {
	err := m.fanOut(ctx, PhaseUnload, func(ctx context.Context, e Entry) error {
		defer func() {
			if m.hooks != nil {
				m.hooks.RemoveAllByOwner(e.Key)
			}
		}()
		return e.Module.Unload(ctx)
	})

	m.mu.Lock()
	m.loaded = false
	m.mu.Unlock()
	return err
}

// RegisterDefaultSettingsAll merges every module's default settings into
// its live settings.
func (m *Manager) RegisterDefaultSettingsAll(ctx context.Context) error {
	return m.fanOut(ctx, PhaseDefaults, func(_ context.Context, e Entry) error {
		_, err := m.registerDefaults(e.Key, e.Module)
		return err
	})
}

// RegisterDefaultSettings merges one module's default settings into its
// live settings.
func (m *Manager) RegisterDefaultSettings(key string) error {
	mod, ok := m.registry.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	_, err := m.registerDefaults(key, mod)
	return err
}

func (m *Manager) registerDefaults(key string, mod Module) (bool, error) {
	storageKey := SettingsKey(key, mod)
	d, ok := mod.(DefaultSettings)
	if storageKey == "" || !ok {
		return false, nil
	}
	defaults := d.DefaultSettings()
	if defaults == nil {
		return false, nil
	}
	normalized, err := codec.Normalize(defaults)
	if err != nil {
		return false, fmt.Errorf("default settings: %w", err)
	}
	defaultsMap, _ := normalized.(map[string]any)

	mode := merge.ModeConcat
	if dm, ok := mod.(DefaultsModer); ok {
		mode = dm.DefaultsMode()
	}

	live := m.store.Settings()
	existing, _ := live.Module(storageKey)
	live.SetModule(storageKey, merge.Defaults(existing, defaultsMap, mode))
	return true, nil
}

// SettingsKey returns the storage key of a module registered under key.
func SettingsKey(key string, mod Module) string {
	if s, ok := mod.(SettingsStorage); ok {
		return s.SettingsKey()
	}
	return key
}

// SettingsKeys returns the storage keys of every module with settings, in
// registration order.
func (m *Manager) SettingsKeys() []string {
	var keys []string
	for _, e := range m.registry.Entries() {
		if k := SettingsKey(e.Key, e.Module); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Settings returns the live settings of the module registered under key.
// Missing settings are created from the module's defaults first.
func (m *Manager) Settings(key string) (map[string]any, error) {
	mod, ok := m.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	storageKey := SettingsKey(key, mod)
	if storageKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSettings, key)
	}

	live := m.store.Settings()
	if slot, ok := live.Module(storageKey); ok {
		return slot, nil
	}
	if _, err := m.registerDefaults(key, mod); err != nil {
		return nil, err
	}
	slot, ok := live.Module(storageKey)
	if !ok {
		slot = make(map[string]any)
		live.SetModule(storageKey, slot)
	}
	return slot, nil
}

// fanOut runs fn for every module in order. Failures are logged and
// recorded; a migration failure stops the phase and is returned.
func (m *Manager) fanOut(ctx context.Context, phase Phase, fn func(context.Context, Entry) error) error {
	for _, e := range m.registry.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := m.call(ctx, phase, e, fn)
		if err == nil {
			continue
		}
		if errors.Is(err, version.ErrMigrationFailed) {
			m.logger.Error("migration failed, aborting", "module", e.Key, "phase", phase, "err", err)
			return err
		}
		m.logger.Error("module call failed", "module", e.Key, "phase", phase, "err", err)
	}
	return nil
}

// call runs one lifecycle callback, turning errors and panics into a
// *LifecycleError and tracking the module state.
func (m *Manager) call(ctx context.Context, phase Phase, e Entry, fn func(context.Context, Entry) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok && errors.Is(rerr, version.ErrMigrationFailed) {
				err = &LifecycleError{Key: e.Key, Phase: phase, Err: rerr}
			} else {
				err = &LifecycleError{Key: e.Key, Phase: phase, Err: fmt.Errorf("panic: %v", r)}
			}
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil {
			m.states[e.Key] = StateError
			m.errs[e.Key] = err
			return
		}
		if phase != PhaseDefaults {
			m.states[e.Key] = phase.done()
		}
	}()

	if err := fn(ctx, e); err != nil {
		return &LifecycleError{Key: e.Key, Phase: phase, Err: err}
	}
	return nil
}
