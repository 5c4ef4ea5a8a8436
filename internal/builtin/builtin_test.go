package builtin

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modkit/internal/codec"
	"github.com/dshills/modkit/internal/hook"
	"github.com/dshills/modkit/internal/host"
	"github.com/dshills/modkit/internal/module"
	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage"
	"github.com/dshills/modkit/internal/version"
)

type fixture struct {
	rt       *host.Runtime
	slot     *storage.MemorySlot
	store    *storage.Store
	cache    *storage.MemoryCache
	engine   *version.Engine
	notices  *notify.Recorder
	registry *module.Registry
	manager  *module.Manager
}

func quiet() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{})
}

func newFixture(t *testing.T, stored map[string]any, running string, cache *storage.MemoryCache) *fixture {
	t.Helper()
	payload := ""
	if stored != nil {
		var err error
		payload, err = codec.Encode(stored)
		require.NoError(t, err)
	}
	if cache == nil {
		cache = storage.NewMemoryCache()
	}

	f := &fixture{
		rt:      host.NewRuntime(),
		slot:    storage.NewMemorySlot(payload),
		cache:   cache,
		notices: &notify.Recorder{},
	}
	f.store = storage.NewStore(f.slot, storage.WithCache(cache), storage.WithLogger(quiet()))
	_, err := f.store.Take(context.Background())
	require.NoError(t, err)

	f.engine = version.NewEngine(running, f.store,
		version.WithNotifier(f.notices),
		version.WithNewVersionMessage("Updated!", time.Second),
		version.WithLogger(quiet()))
	f.registry = module.NewRegistry(quiet())
	f.manager = module.NewManager(f.registry, f.store,
		module.WithHooks(hook.NewRegistry(f.rt, hook.WithLogger(quiet()))),
		module.WithVersions(f.engine),
		module.WithNotifier(f.notices),
		module.WithLogger(quiet()))

	for _, name := range []string{DefaultNoticeTrigger, "TextGet", "TextGetInScope"} {
		name := name
		require.NoError(t, f.rt.Define(name, func(args ...any) any { return name + ":orig" }))
	}
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.manager.InitAll(ctx))
	require.NoError(t, f.manager.LoadAll(ctx))
	require.NoError(t, f.manager.RegisterDefaultSettingsAll(ctx))
	require.NoError(t, f.manager.RunAll(ctx))
}

func TestRegister(t *testing.T) {
	reg := module.NewRegistry(quiet())
	require.NoError(t, Register(reg, Options{}))
	assert.Equal(t, []string{GlobalKey, VersionKey}, reg.Keys())

	reg = module.NewRegistry(quiet())
	require.NoError(t, Register(reg, Options{Debug: true}))
	assert.Equal(t, []string{GlobalKey, VersionKey, DebugKey}, reg.Keys())
}

func TestGlobalDefaults(t *testing.T) {
	f := newFixture(t, nil, "1.0.0", nil)
	g := NewGlobal()
	require.NoError(t, f.registry.Register(GlobalKey, g))
	f.start(t)

	assert.True(t, g.Enabled())
	assert.Equal(t, map[string]any{FieldModEnabled: true, FieldShowNotice: true}, f.store.Settings()[storage.GlobalKey])

	screen := g.SettingsScreen(f.store.Settings()[storage.GlobalKey].(map[string]any))
	page, err := screen.Page()
	require.NoError(t, err)
	require.Len(t, page.Elements, 2)
	assert.Equal(t, true, page.Elements[0].Value)
	assert.Equal(t, "settings.global.mod_enabled", page.Elements[0].Label)
}

func TestGlobalKeepsStoredPreferences(t *testing.T) {
	f := newFixture(t, map[string]any{
		storage.VersionKey: "1.0.0",
		storage.GlobalKey:  map[string]any{FieldModEnabled: false},
	}, "1.0.0", nil)
	g := NewGlobal()
	require.NoError(t, f.registry.Register(GlobalKey, g))
	f.start(t)

	assert.False(t, g.Enabled())
	assert.True(t, f.store.Settings().Bool(storage.GlobalKey, FieldShowNotice))
}

func TestVersionNoticeAfterTrigger(t *testing.T) {
	f := newFixture(t, map[string]any{storage.VersionKey: "1.0.0"}, "1.1.0", nil)
	require.NoError(t, Register(f.registry, Options{}))
	f.start(t)

	assert.Equal(t, "1.1.0", f.store.Settings().Version())
	assert.Empty(t, f.notices.Notices())

	for i := 0; i < 3; i++ {
		got, err := f.rt.Call(DefaultNoticeTrigger, "room")
		require.NoError(t, err)
		assert.Equal(t, DefaultNoticeTrigger+":orig", got)
	}

	notices := f.notices.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Updated!", notices[0].Message)
	assert.Equal(t, time.Second, notices[0].Timeout)

	require.NoError(t, f.manager.UnloadAll(context.Background()))
	assert.Equal(t, 0, f.rt.HookCount(DefaultNoticeTrigger))
}

func TestLoadAgainKeepsOneHookPerFunction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]any{storage.VersionKey: "1.0.0"}, "1.1.0", nil)
	require.NoError(t, Register(f.registry, Options{Debug: true}))
	f.start(t)

	saves := f.slot.Saves()
	require.NoError(t, f.manager.LoadAll(ctx))
	require.NoError(t, f.manager.LoadAll(ctx))
	assert.Equal(t, saves, f.slot.Saves(), "a second load must not check or save again")

	for _, name := range []string{DefaultNoticeTrigger, "TextGet", "TextGetInScope"} {
		assert.Equal(t, 1, f.rt.HookCount(name), name)
	}
	for i := 0; i < 2; i++ {
		_, err := f.rt.Call(DefaultNoticeTrigger)
		require.NoError(t, err)
	}
	assert.Len(t, f.notices.Notices(), 1)

	require.NoError(t, f.manager.UnloadAll(ctx))
	for _, name := range []string{DefaultNoticeTrigger, "TextGet", "TextGetInScope"} {
		assert.Equal(t, 0, f.rt.HookCount(name), name)
	}

	require.NoError(t, f.manager.LoadAll(ctx))
	for _, name := range []string{DefaultNoticeTrigger, "TextGet", "TextGetInScope"} {
		assert.Equal(t, 1, f.rt.HookCount(name), name)
	}
}

func TestVersionNoNoticeWhenCurrent(t *testing.T) {
	f := newFixture(t, map[string]any{storage.VersionKey: "1.1.0"}, "1.1.0", nil)
	require.NoError(t, Register(f.registry, Options{}))
	f.start(t)

	_, err := f.rt.Call(DefaultNoticeTrigger)
	require.NoError(t, err)
	assert.Empty(t, f.notices.Notices())
}

func TestVersionMigrationFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]any{storage.VersionKey: "1.0.0"}, "1.1.0", nil)
	require.NoError(t, f.engine.Register(version.Func("broken", "1.1.0", func(storage.Settings) (bool, error) {
		return false, errors.New("cannot migrate")
	})))
	require.NoError(t, Register(f.registry, Options{}))

	require.NoError(t, f.manager.InitAll(ctx))
	err := f.manager.LoadAll(ctx)
	assert.ErrorIs(t, err, version.ErrMigrationFailed)
	assert.Equal(t, "1.0.0", f.store.Settings().Version())
}

func TestVersionMissingTrigger(t *testing.T) {
	f := newFixture(t, nil, "1.0.0", nil)
	require.NoError(t, f.registry.Register(VersionKey, NewVersion("NoSuchFunction")))
	f.start(t)

	assert.Equal(t, "1.0.0", f.store.Settings().Version())
	errs := f.manager.Errors()
	require.Contains(t, errs, VersionKey)
	assert.ErrorIs(t, errs[VersionKey], host.ErrUnknownFunction)
}

func TestDebugRawTranslations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, "1.0.0", nil)
	d := NewDebug()
	require.NoError(t, f.registry.Register(DebugKey, d))
	f.start(t)

	got, err := f.rt.Call("TextGet", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "TextGet:orig", got)

	require.NoError(t, d.SetOptions(ctx, DebugOptions{ShowRawTranslations: true}))
	got, err = f.rt.Call("TextGet", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "greeting", got)

	require.NoError(t, d.SetOptions(ctx, DebugOptions{ShowRawTranslations: true, ShowFileNames: true}))
	got, err = f.rt.Call("TextGet", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "[unknown]::greeting", got)

	got, err = f.rt.Call("TextGetInScope", "Screens/Room/Text.csv", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Text.csv::greeting", got)

	got, err = f.rt.Call("TextGetInScope", "only-one-arg")
	require.NoError(t, err)
	assert.Equal(t, "TextGetInScope:orig", got)
}

func TestDebugOptionsPersistLocally(t *testing.T) {
	ctx := context.Background()
	cache := storage.NewMemoryCache()

	f := newFixture(t, nil, "1.0.0", cache)
	d := NewDebug()
	require.NoError(t, f.registry.Register(DebugKey, d))
	f.start(t)
	require.NoError(t, d.ApplyScreen(ctx, map[string]any{"showRawTranslations": true}))
	assert.NotContains(t, f.store.Snapshot(), DebugKey)

	f = newFixture(t, nil, "1.0.0", cache)
	d = NewDebug()
	require.NoError(t, f.registry.Register(DebugKey, d))
	f.start(t)
	assert.Equal(t, DebugOptions{ShowRawTranslations: true}, d.Options())

	screen := d.SettingsScreen(nil)
	page, err := screen.Page()
	require.NoError(t, err)
	assert.Equal(t, true, page.Elements[0].Value)
	assert.Equal(t, false, page.Elements[1].Value)
}

func TestDebugSkipsMissingFunctions(t *testing.T) {
	f := newFixture(t, nil, "1.0.0", nil)
	d := NewDebug(TextFunction{Name: "Missing"}, TextFunction{Name: "TextGet"})
	require.NoError(t, f.registry.Register(DebugKey, d))
	f.start(t)

	assert.False(t, f.manager.HasErrors())
	assert.Equal(t, 1, f.rt.HookCount("TextGet"))
}
