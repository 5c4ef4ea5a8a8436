package app

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/builtin"
	"github.com/dshills/modkit/internal/config"
	"github.com/dshills/modkit/internal/hook"
	"github.com/dshills/modkit/internal/host"
	"github.com/dshills/modkit/internal/i18n"
	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/ui"
	"github.com/dshills/modkit/internal/version"
)

// gateOwner owns the login gate hook.
const gateOwner = "app"

// invalidLogin is the login payload of a rejected name or password.
const invalidLogin = "InvalidNamePassword"

// Options configures an App.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config

	// Host is the interception API of the host application. Required.
	Host host.Interceptor

	// Slot persists the settings. Required.
	Slot storage.Slot

	// Cache holds device-local values. Optional.
	Cache storage.Cache

	// Renderer shows settings screens. Optional.
	Renderer ui.Renderer

	// Notifier receives notices. Defaults to logging them.
	Notifier notify.Notifier

	// Modules are registered after the built-in modules, keyed by type name.
	Modules []module.Module

	// Migrators upgrade stored settings.
	Migrators []version.Migrator

	// InitFunc runs after every module ran and before the settings are
	// saved.
	InitFunc func(ctx context.Context, a *App) error

	Logger *log.Logger
}

// App is one mod built on the framework.
type App struct {
	mu sync.Mutex

	cfg      *config.Config
	logger   *log.Logger
	hooks    *hook.Registry
	store    *storage.Store
	versions *version.Engine
	registry *module.Registry
	manager  *module.Manager
	renderer ui.Renderer
	notifier notify.Notifier
	initFunc func(context.Context, *App) error

	catalog *i18n.Catalog
	watcher *i18n.Watcher
	screens map[string]*ui.Screen

	// ctx outlives Start; hooks and the watcher run under it.
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New wires an App. Nothing touches the host or the slot until Start.
func New(opts Options) (*App, error) {
	if opts.Host == nil {
		return nil, ErrNoHost
	}
	if opts.Slot == nil {
		return nil, ErrNoSlot
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix(cfg.Mod.Name)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		renderer: opts.Renderer,
		notifier: notifier,
		initFunc: opts.InitFunc,
		screens:  make(map[string]*ui.Screen),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.hooks = hook.NewRegistry(opts.Host, hook.WithLogger(logger.WithPrefix("hooks")))

	a.registry = module.NewRegistry(logger)
	err := builtin.Register(a.registry, builtin.Options{
		NoticeTrigger: cfg.Host.NoticeTrigger,
		TextFunctions: textFunctions(cfg.Host),
		Debug:         cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	for _, m := range opts.Modules {
		if err := a.registry.Add(m); err != nil {
			return nil, err
		}
	}

	storeOpts := []storage.Option{
		storage.WithLogger(logger.WithPrefix("storage")),
		storage.WithKeyFilter(func() []string { return a.manager.SettingsKeys() }),
	}
	if opts.Cache != nil {
		storeOpts = append(storeOpts, storage.WithCache(opts.Cache))
	}
	a.store = storage.NewStore(opts.Slot, storeOpts...)

	a.versions = version.NewEngine(cfg.Mod.Version, a.store,
		version.WithNotifier(notifier),
		version.WithNewVersionMessage(cfg.Notice.Message, cfg.Notice.Timeout.Std()),
		version.WithLogger(logger.WithPrefix("version")))
	for _, m := range opts.Migrators {
		if err := a.versions.Register(m); err != nil {
			return nil, err
		}
	}

	a.manager = module.NewManager(a.registry, a.store,
		module.WithHooks(a.hooks),
		module.WithVersions(a.versions),
		module.WithNotifier(notifier),
		module.WithText(a.Text),
		module.WithLogger(logger.WithPrefix("modules")))

	return a, nil
}

func textFunctions(h config.HostConfig) []builtin.TextFunction {
	var fns []builtin.TextFunction
	for _, name := range h.TextFunctions {
		fns = append(fns, builtin.TextFunction{Name: name})
	}
	for _, name := range h.ScopedTextFunctions {
		fns = append(fns, builtin.TextFunction{Name: name, Scoped: true})
	}
	return fns
}

// Config returns the configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Hooks returns the hook registry.
func (a *App) Hooks() *hook.Registry { return a.hooks }

// Store returns the settings store.
func (a *App) Store() *storage.Store { return a.store }

// Versions returns the migration engine.
func (a *App) Versions() *version.Engine { return a.versions }

// Modules returns the module registry.
func (a *App) Modules() *module.Registry { return a.registry }

// Manager returns the lifecycle manager.
func (a *App) Manager() *module.Manager { return a.manager }

// Loaded reports whether startup completed.
func (a *App) Loaded() bool { return a.manager.Loaded() }

// Text translates tag, or returns it when no translations are loaded.
func (a *App) Text(tag string) string {
	a.mu.Lock()
	c := a.catalog
	a.mu.Unlock()
	if c == nil {
		return tag
	}
	return c.Text(tag)
}

// Start runs the startup sequence, or defers it until a successful login
// when the configuration asks for it. Errors are logged before they are
// returned.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	if !a.cfg.Host.WaitForLogin {
		return a.initialize(ctx)
	}

	_, err := a.hooks.Register(a.cfg.Host.LoginFunction, hook.PriorityObserve,
		hook.NewCallback("login-gate", a.loginGate), gateOwner)
	if err != nil {
		err = &StepError{Step: "install login gate", Err: err}
		a.logger.Error("startup failed", "err", err)
		return err
	}
	a.logger.Debug("waiting for login", "function", a.cfg.Host.LoginFunction)
	return nil
}

// loginGate passes the login response on, then starts the framework when
// the response names a logged-in account.
func (a *App) loginGate(args []any, next host.Next) any {
	res := next(args...)
	if len(args) == 0 || !loggedIn(args[0]) {
		return res
	}
	if err := a.initialize(a.ctx); err != nil {
		a.logger.Debug("startup after login failed", "err", err)
	}
	return res
}

func loggedIn(payload any) bool {
	if s, ok := payload.(string); ok && s == invalidLogin {
		return false
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	_, hasName := m["Name"].(string)
	_, hasAccount := m["AccountName"].(string)
	return hasName && hasAccount
}

// initialize runs the startup sequence once. On failure the modules are
// unloaded again.
func (a *App) initialize(ctx context.Context) error {
	if a.manager.Loaded() {
		return nil
	}
	if err := a.startup(ctx); err != nil {
		a.logger.Error("startup failed", "err", err)
		if uerr := a.manager.UnloadAll(ctx); uerr != nil {
			a.logger.Error("unload after failed startup", "err", uerr)
		}
		return err
	}
	a.logger.Info("loaded", "mod", a.cfg.Mod.Name, "version", a.cfg.Mod.Version)
	return nil
}

func (a *App) startup(ctx context.Context) error {
	restored, err := a.store.Take(ctx)
	if err != nil {
		return &StepError{Step: "take settings", Err: err}
	}
	a.logger.Debug("settings taken", "restored", restored)

	a.loadTranslations(ctx)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"init modules", a.manager.InitAll},
		{"load modules", a.manager.LoadAll},
		{"register default settings", a.manager.RegisterDefaultSettingsAll},
		{"run modules", a.manager.RunAll},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return &StepError{Step: step.name, Err: err}
		}
	}

	if a.initFunc != nil {
		if err := a.initFunc(ctx, a); err != nil {
			return &StepError{Step: "init function", Err: err}
		}
	}

	a.manager.SetLoaded()
	if err := a.store.Save(ctx); err != nil {
		return &StepError{Step: "save settings", Err: err}
	}
	return nil
}

// loadTranslations reads the catalog when translation directories are
// configured. Failures are logged and lookups fall back to tags.
func (a *App) loadTranslations(ctx context.Context) {
	tc := a.cfg.Translations
	if tc.LibDir == "" && tc.ModDir == "" {
		return
	}

	catalog, err := i18n.Load(ctx, i18n.Options{
		LibDir:          tc.LibDir,
		ModDir:          tc.ModDir,
		DefaultLanguage: tc.DefaultLanguage,
		Language:        tc.Language,
		Fixed:           tc.Fixed,
		Logger:          a.logger.WithPrefix("i18n"),
	})
	if err != nil {
		a.logger.Warn("translations not loaded", "err", err)
		return
	}

	a.mu.Lock()
	a.catalog = catalog
	a.mu.Unlock()

	if !tc.Watch {
		return
	}
	w, err := i18n.Watch(a.ctx, catalog, i18n.OnReload(func(err error) {
		if err != nil {
			a.logger.Warn("translation reload failed", "err", err)
		}
	}))
	if err != nil {
		a.logger.Warn("not watching translations", "err", err)
		return
	}
	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()
}

// Shutdown unloads every module, saves the settings and removes every hook.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			errs = append(errs, &StepError{Step: "close watcher", Err: err})
		}
	}

	if a.manager.Loaded() {
		if err := a.manager.UnloadAll(ctx); err != nil {
			errs = append(errs, &StepError{Step: "unload modules", Err: err})
		}
		if err := a.store.Save(ctx); err != nil {
			errs = append(errs, &StepError{Step: "save settings", Err: err})
		}
	}

	a.hooks.Unload()
	a.cancel()

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("shutdown", "err", err)
	} else {
		a.logger.Debug("unloaded", "mod", a.cfg.Mod.Name)
	}
	return err
}
