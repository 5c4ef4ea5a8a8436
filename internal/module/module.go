package module

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/hook"
	"github.com/dshills/modkit/internal/host"
	"github.com/dshills/modkit/internal/merge"
	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/ui"
	"github.com/dshills/modkit/internal/version"
)

// Module is a unit managed by the Manager.
type Module interface {
	Init(ctx context.Context, env *Env) error
	Load(ctx context.Context) error
	Run(ctx context.Context) error
	Unload(ctx context.Context) error
}

// SettingsStorage is implemented by modules whose settings live under a
// key other than their registry key. An empty key opts out of settings.
type SettingsStorage interface {
	SettingsKey() string
}

// DefaultSettings is implemented by modules with default settings.
type DefaultSettings interface {
	DefaultSettings() map[string]any
}

// DefaultsModer is implemented by modules that merge array defaults with
// merge.ModeMatchingOnly.
type DefaultsModer interface {
	DefaultsMode() merge.Mode
}

// SettingsScreen is implemented by modules with a settings screen.
type SettingsScreen interface {
	SettingsScreen(settings map[string]any) *ui.Screen
}

// ScreenApplier is implemented by modules that store settings screen
// values themselves instead of in their synced settings.
type ScreenApplier interface {
	ApplyScreen(ctx context.Context, values map[string]any) error
}

// TextFunc looks up a translated string by tag.
type TextFunc func(tag string) string

// Env is what a module receives at Init.
type Env struct {
	// Key is the module's registry key.
	Key      string
	Hooks    *hook.Registry
	Store    *storage.Store
	Versions *version.Engine
	Notifier notify.Notifier
	Text     TextFunc
	Logger   *log.Logger

	manager *Manager

	mu        sync.Mutex
	callbacks map[string]*hook.Callback
}

// Hook registers fn on a host function, owned by the module. A module has
// at most one hook per target and priority: hooking again while that hook
// is installed, as a second Load does, installs nothing and returns a
// no-op handle. Once the hook is removed the next call installs fn.
func (e *Env) Hook(target string, priority int, fn host.HookFunc) (func(), error) {
	if e.Hooks == nil {
		return nil, ErrNoHooks
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := fmt.Sprintf("%s@%d", target, priority)
	cb, ok := e.callbacks[id]
	if !ok || !e.installed(target, cb) {
		cb = hook.NewCallback(e.Key+":"+target, fn)
		if e.callbacks == nil {
			e.callbacks = make(map[string]*hook.Callback)
		}
		e.callbacks[id] = cb
	}
	return e.Hooks.Register(target, priority, cb, e.Key)
}

func (e *Env) installed(target string, cb *hook.Callback) bool {
	for _, entry := range e.Hooks.Hooks(target) {
		if entry.Callback == cb {
			return true
		}
	}
	return false
}

// Settings returns the module's live settings.
func (e *Env) Settings() (map[string]any, error) {
	return e.manager.Settings(e.Key)
}

// Module returns another registered module.
func (e *Env) Module(key string) (Module, bool) {
	return e.manager.registry.Get(key)
}

// T translates tag, or returns it when no translations are configured.
func (e *Env) T(tag string) string {
	if e.Text == nil {
		return tag
	}
	return e.Text(tag)
}

// Base implements Module with no-op callbacks. Embed it and override the
// callbacks a module needs.
type Base struct {
	env *Env
}

// Init stores env.
func (b *Base) Init(_ context.Context, env *Env) error {
	b.env = env
	return nil
}

// Load does nothing.
func (b *Base) Load(context.Context) error { return nil }

// Run does nothing.
func (b *Base) Run(context.Context) error { return nil }

// Unload does nothing.
func (b *Base) Unload(context.Context) error { return nil }

// Env returns the environment stored by Init, or nil before Init.
func (b *Base) Env() *Env {
	return b.env
}

// Settings returns the module's live settings.
func (b *Base) Settings() (map[string]any, error) {
	if b.env == nil {
		return nil, ErrNotFound
	}
	return b.env.Settings()
}
