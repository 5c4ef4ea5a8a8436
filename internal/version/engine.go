package version

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage"
)

// State is the per-session migration state.
type State int

const (
	// NotChecked means Check has not run yet.
	NotChecked State = iota

	// Checking means Check is running.
	Checking

	// NoMigrationNeeded means no migrator had to run.
	NoMigrationNeeded

	// MigrationsApplied means at least one migrator ran.
	MigrationsApplied

	// VersionPersisted means the running version was recorded and saved.
	VersionPersisted

	// Failed means a migrator or the save failed.
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotChecked:
		return "not-checked"
	case Checking:
		return "checking"
	case NoMigrationNeeded:
		return "no-migration-needed"
	case MigrationsApplied:
		return "migrations-applied"
	case VersionPersisted:
		return "version-persisted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Preference locations for the new-version notice.
const (
	NoticePrefModule = storage.GlobalKey
	NoticePrefField  = "doShowNewVersionMessage"
)

// NoticeKind is the kind of the new-version notice.
const NoticeKind = "new-version"

// Result describes one Check.
type Result struct {
	Previous     string
	Current      string
	IsNewVersion bool
	// Applied lists the target versions of the migrators that ran, in order.
	Applied []string
	// Changed reports whether any migrator reported a change.
	Changed bool
	State   State
}

// Hook is called around migrations.
type Hook func(ctx context.Context)

// MigratorHook is called before or after each migrator.
type MigratorHook func(ctx context.Context, m Migrator)

// Engine runs migrators against a settings store.
type Engine struct {
	mu        sync.Mutex
	running   string
	store     *storage.Store
	migrators []Migrator
	state     State
	isNew     bool

	beforeAll  Hook
	beforeEach MigratorHook
	afterEach  MigratorHook
	afterAll   Hook

	notifier      notify.Notifier
	message       string
	noticeTimeout time.Duration
	noticeOnCheck bool
	noticeSent    bool

	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBeforeAll sets a hook run once before the first migrator.
func WithBeforeAll(h Hook) Option {
	return func(e *Engine) { e.beforeAll = h }
}

// WithBeforeEach sets a hook run before each migrator.
func WithBeforeEach(h MigratorHook) Option {
	return func(e *Engine) { e.beforeEach = h }
}

// WithAfterEach sets a hook run after each successful migrator.
func WithAfterEach(h MigratorHook) Option {
	return func(e *Engine) { e.afterEach = h }
}

// WithAfterAll sets a hook run once after the last migrator.
func WithAfterAll(h Hook) Option {
	return func(e *Engine) { e.afterAll = h }
}

// WithNotifier sets where the new-version notice is sent.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithNewVersionMessage sets the new-version notice text and timeout.
func WithNewVersionMessage(message string, timeout time.Duration) Option {
	return func(e *Engine) {
		e.message = message
		e.noticeTimeout = timeout
	}
}

// WithNoticeOnCheck makes Check send the new-version notice itself.
func WithNoticeOnCheck() Option {
	return func(e *Engine) { e.noticeOnCheck = true }
}

// NewEngine creates an engine for the running release version.
func NewEngine(running string, store *storage.Store, opts ...Option) *Engine {
	e := &Engine{
		running: running,
		store:   store,
		logger:  log.Default().WithPrefix("version"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Running returns the running release version.
func (e *Engine) Running() string {
	return e.running
}

// Register adds a migrator, keeping migrators sorted by target version.
func (e *Engine) Register(m Migrator) error {
	if m == nil {
		return ErrNilMigrator
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.migrators = append(e.migrators, m)
	sort.SliceStable(e.migrators, func(i, j int) bool {
		return Compare(e.migrators[i].TargetVersion(), e.migrators[j].TargetVersion()) < 0
	})
	return nil
}

// Migrators returns the registered migrators in run order.
func (e *Engine) Migrators() []Migrator {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Migrator, len(e.migrators))
	copy(out, e.migrators)
	return out
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsNew reports whether the last Check found the running version newer
// than the stored one.
func (e *Engine) IsNew() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isNew
}

// SetNewVersionMessage sets the new-version notice text.
func (e *Engine) SetNewVersionMessage(message string) {
	e.mu.Lock()
	e.message = message
	e.mu.Unlock()
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Check migrates the stored settings to the running version and saves them.
func (e *Engine) Check(ctx context.Context) (Result, error) {
	if e.store == nil {
		return Result{}, ErrNoStore
	}

	e.mu.Lock()
	if e.state == Checking {
		e.mu.Unlock()
		return Result{}, ErrCheckInProgress
	}
	e.state = Checking
	migrators := make([]Migrator, len(e.migrators))
	copy(migrators, e.migrators)
	e.mu.Unlock()

	settings := e.store.Settings()
	res := Result{
		Previous: settings.Version(),
		Current:  e.running,
	}
	res.IsNewVersion = IsNewVersion(res.Previous, e.running)

	e.mu.Lock()
	e.isNew = res.IsNewVersion
	e.mu.Unlock()

	if res.IsNewVersion {
		if err := e.migrate(ctx, settings, migrators, &res); err != nil {
			e.setState(Failed)
			res.State = Failed
			return res, err
		}
	}

	if len(res.Applied) > 0 {
		e.setState(MigrationsApplied)
	} else {
		e.setState(NoMigrationNeeded)
	}

	settings.SetVersion(e.running)
	if err := e.store.Save(ctx); err != nil {
		e.setState(Failed)
		res.State = Failed
		return res, fmt.Errorf("persist version %s: %w", e.running, err)
	}
	e.setState(VersionPersisted)
	res.State = VersionPersisted

	e.logger.Debug("version checked",
		"previous", displayVersion(res.Previous),
		"current", e.running,
		"new", res.IsNewVersion,
		"applied", len(res.Applied))

	if e.noticeOnCheck {
		if _, err := e.SendNewVersionNotice(ctx); err != nil {
			e.logger.Warn("new version notice failed", "err", err)
		}
	}

	return res, nil
}

func (e *Engine) migrate(ctx context.Context, settings storage.Settings, migrators []Migrator, res *Result) error {
	var pending []Migrator
	for _, m := range migrators {
		if IsNewVersion(res.Previous, m.TargetVersion()) {
			pending = append(pending, m)
		}
	}

	if e.beforeAll != nil {
		e.beforeAll(ctx)
	}
	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.beforeEach != nil {
			e.beforeEach(ctx, m)
		}
		changed, err := runMigrator(m, settings)
		if err != nil {
			return &MigrationError{
				Migrator: migratorName(m),
				Target:   m.TargetVersion(),
				Previous: res.Previous,
				Err:      err,
			}
		}
		e.logger.Info("migrated settings",
			"from", displayVersion(res.Previous),
			"to", m.TargetVersion(),
			"migrator", migratorName(m),
			"changed", changed)
		res.Applied = append(res.Applied, m.TargetVersion())
		res.Changed = res.Changed || changed
		if e.afterEach != nil {
			e.afterEach(ctx, m)
		}
	}
	if e.afterAll != nil {
		e.afterAll(ctx)
	}
	return nil
}

func runMigrator(m Migrator, settings storage.Settings) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Migrate(settings)
}

// SendNewVersionNotice sends the new-version notice when the last Check
// found a new version, a message is set and the user has not turned the
// notice off. The notice is sent at most once per engine. It reports
// whether the notice was sent.
func (e *Engine) SendNewVersionNotice(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.noticeSent || !e.isNew || e.message == "" || e.notifier == nil {
		e.mu.Unlock()
		return false, nil
	}
	message, timeout, notifier := e.message, e.noticeTimeout, e.notifier
	e.mu.Unlock()

	if e.store != nil && !e.store.Settings().Bool(NoticePrefModule, NoticePrefField) {
		return false, nil
	}

	if err := notifier.Notify(ctx, notify.New(NoticeKind, message, timeout)); err != nil {
		return false, fmt.Errorf("send new version notice: %w", err)
	}

	e.mu.Lock()
	e.noticeSent = true
	e.mu.Unlock()
	return true, nil
}
