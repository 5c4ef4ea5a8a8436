package version

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modkit/internal/codec"
	"github.com/dshills/modkit/internal/notify"
	"github.com/dshills/modkit/internal/storage"
)

// recorder is a migrator that records each run.
type recorder struct {
	target string
	runs   *[]string
	err    error
}

func (r recorder) TargetVersion() string { return r.target }

func (r recorder) Migrate(storage.Settings) (bool, error) {
	*r.runs = append(*r.runs, r.target)
	return true, r.err
}

func newStore(t *testing.T, stored map[string]any) (*storage.Store, *storage.MemorySlot) {
	t.Helper()
	payload := ""
	if stored != nil {
		var err error
		payload, err = codec.Encode(stored)
		require.NoError(t, err)
	}
	slot := storage.NewMemorySlot(payload)
	store := storage.NewStore(slot)
	_, err := store.Take(context.Background())
	require.NoError(t, err)
	return store, slot
}

func register(t *testing.T, e *Engine, runs *[]string, targets ...string) {
	t.Helper()
	for _, target := range targets {
		require.NoError(t, e.Register(recorder{target: target, runs: runs}))
	}
}

func TestRegisterSortsByTarget(t *testing.T) {
	store, _ := newStore(t, nil)
	e := NewEngine("3.0.0", store)
	var runs []string
	register(t, e, &runs, "2.0.0", "1.10.0", "1.2.0", "1.2")

	var got []string
	for _, m := range e.Migrators() {
		got = append(got, m.TargetVersion())
	}
	assert.Equal(t, []string{"1.2.0", "1.2", "1.10.0", "2.0.0"}, got)
	assert.ErrorIs(t, e.Register(nil), ErrNilMigrator)
}

func TestCheckFirstRun(t *testing.T) {
	store, slot := newStore(t, nil)
	e := NewEngine("1.2.0", store)
	var runs []string
	register(t, e, &runs, "1.1.0", "1.0.0")

	assert.Equal(t, NotChecked, e.State())
	res, err := e.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1.0.0", "1.1.0"}, runs)
	assert.Equal(t, []string{"1.0.0", "1.1.0"}, res.Applied)
	assert.True(t, res.IsNewVersion)
	assert.True(t, res.Changed)
	assert.Equal(t, VersionPersisted, res.State)
	assert.Equal(t, VersionPersisted, e.State())
	assert.Equal(t, "1.2.0", store.Settings().Version())
	assert.Equal(t, 1, slot.Saves())
}

func TestCheckFiltersByPreviousVersion(t *testing.T) {
	store, _ := newStore(t, map[string]any{storage.VersionKey: "1.2.0"})
	e := NewEngine("2.0.0", store)
	var runs []string
	register(t, e, &runs, "2.0.0", "1.1.0", "1.3.0", "1.2.0")

	res, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.3.0", "2.0.0"}, runs)
	assert.Equal(t, "1.2.0", res.Previous)
	assert.Equal(t, "2.0.0", res.Current)
}

func TestCheckSavesWhenNotNew(t *testing.T) {
	store, slot := newStore(t, map[string]any{storage.VersionKey: "1.0.0"})
	e := NewEngine("1.0.0", store)
	var runs []string
	register(t, e, &runs, "1.0.0")

	res, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.IsNewVersion)
	assert.Empty(t, runs)
	assert.Equal(t, VersionPersisted, res.State)
	assert.Equal(t, 1, slot.Saves())
	assert.False(t, e.IsNew())
}

func TestCheckLexicographicVersions(t *testing.T) {
	store, _ := newStore(t, map[string]any{storage.VersionKey: "1.9.0"})
	e := NewEngine("1.10.0", store)
	var runs []string
	register(t, e, &runs, "1.10.0")

	res, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.IsNewVersion)
	assert.Empty(t, runs)
	assert.Equal(t, "1.10.0", store.Settings().Version())
}

func TestCheckDoesNotReapplyAfterReload(t *testing.T) {
	ctx := context.Background()
	store, slot := newStore(t, map[string]any{storage.VersionKey: "1.0.0"})
	var runs []string

	e := NewEngine("1.2.0", store)
	register(t, e, &runs, "1.1.0", "1.2.0")
	_, err := e.Check(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"1.1.0", "1.2.0"}, runs)

	// Reload: new store over the same slot, new engine, same migrators.
	reloaded := storage.NewStore(slot)
	restored, err := reloaded.Take(ctx)
	require.NoError(t, err)
	require.True(t, restored)

	e = NewEngine("1.2.0", reloaded)
	register(t, e, &runs, "1.1.0", "1.2.0")
	res, err := e.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Equal(t, []string{"1.1.0", "1.2.0"}, runs)
}

func TestCheckMigratorFailure(t *testing.T) {
	store, slot := newStore(t, map[string]any{storage.VersionKey: "1.0.0"})
	e := NewEngine("1.3.0", store)
	var runs []string
	boom := errors.New("boom")
	require.NoError(t, e.Register(recorder{target: "1.1.0", runs: &runs}))
	require.NoError(t, e.Register(recorder{target: "1.2.0", runs: &runs, err: boom}))
	require.NoError(t, e.Register(recorder{target: "1.3.0", runs: &runs}))

	res, err := e.Check(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.ErrorIs(t, err, boom)

	var me *MigrationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "1.2.0", me.Target)
	assert.Equal(t, "1.0.0", me.Previous)

	assert.Equal(t, []string{"1.1.0", "1.2.0"}, runs)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, Failed, e.State())
	assert.Equal(t, "1.0.0", store.Settings().Version())
	assert.Equal(t, 0, slot.Saves())
}

func TestCheckMigratorPanic(t *testing.T) {
	store, _ := newStore(t, nil)
	e := NewEngine("1.0.0", store)
	require.NoError(t, e.Register(Func("explodes", "1.0.0", func(storage.Settings) (bool, error) {
		panic("bad data")
	})))

	_, err := e.Check(context.Background())
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.Contains(t, err.Error(), "explodes")
	assert.Contains(t, err.Error(), "bad data")
	assert.False(t, store.Settings().HasVersion())
}

func TestCheckHookOrder(t *testing.T) {
	store, _ := newStore(t, nil)
	var events []string
	e := NewEngine("1.1.0", store,
		WithBeforeAll(func(context.Context) { events = append(events, "beforeAll") }),
		WithBeforeEach(func(_ context.Context, m Migrator) { events = append(events, "before:"+m.TargetVersion()) }),
		WithAfterEach(func(_ context.Context, m Migrator) { events = append(events, "after:"+m.TargetVersion()) }),
		WithAfterAll(func(context.Context) { events = append(events, "afterAll") }),
	)
	require.NoError(t, e.Register(Func("b", "1.1.0", func(storage.Settings) (bool, error) {
		events = append(events, "migrate:1.1.0")
		return false, nil
	})))
	require.NoError(t, e.Register(Func("a", "1.0.0", func(storage.Settings) (bool, error) {
		events = append(events, "migrate:1.0.0")
		return false, nil
	})))

	res, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, []string{
		"beforeAll",
		"before:1.0.0", "migrate:1.0.0", "after:1.0.0",
		"before:1.1.0", "migrate:1.1.0", "after:1.1.0",
		"afterAll",
	}, events)
}

func TestCheckWithoutStore(t *testing.T) {
	_, err := NewEngine("1.0.0", nil).Check(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestSendNewVersionNotice(t *testing.T) {
	ctx := context.Background()
	enabled := map[string]any{
		storage.VersionKey: "1.0.0",
		storage.GlobalKey:  map[string]any{NoticePrefField: true},
	}

	t.Run("sent once", func(t *testing.T) {
		store, _ := newStore(t, enabled)
		var rec notify.Recorder
		e := NewEngine("1.1.0", store, WithNotifier(&rec), WithNewVersionMessage("Updated!", 10*time.Second))
		_, err := e.Check(ctx)
		require.NoError(t, err)

		sent, err := e.SendNewVersionNotice(ctx)
		require.NoError(t, err)
		assert.True(t, sent)
		sent, err = e.SendNewVersionNotice(ctx)
		require.NoError(t, err)
		assert.False(t, sent)

		notices := rec.Notices()
		require.Len(t, notices, 1)
		assert.Equal(t, "Updated!", notices[0].Message)
		assert.Equal(t, NoticeKind, notices[0].Kind)
		assert.Equal(t, 10*time.Second, notices[0].Timeout)
	})

	t.Run("preference off", func(t *testing.T) {
		store, _ := newStore(t, map[string]any{
			storage.VersionKey: "1.0.0",
			storage.GlobalKey:  map[string]any{NoticePrefField: false},
		})
		var rec notify.Recorder
		e := NewEngine("1.1.0", store, WithNotifier(&rec), WithNewVersionMessage("Updated!", 0))
		_, err := e.Check(ctx)
		require.NoError(t, err)

		sent, err := e.SendNewVersionNotice(ctx)
		require.NoError(t, err)
		assert.False(t, sent)
		assert.Empty(t, rec.Notices())
	})

	t.Run("not new", func(t *testing.T) {
		store, _ := newStore(t, enabled)
		var rec notify.Recorder
		e := NewEngine("1.0.0", store, WithNotifier(&rec), WithNewVersionMessage("Updated!", 0))
		_, err := e.Check(ctx)
		require.NoError(t, err)

		sent, err := e.SendNewVersionNotice(ctx)
		require.NoError(t, err)
		assert.False(t, sent)
	})

	t.Run("on check", func(t *testing.T) {
		store, _ := newStore(t, enabled)
		var rec notify.Recorder
		e := NewEngine("1.1.0", store, WithNotifier(&rec), WithNoticeOnCheck())
		e.SetNewVersionMessage("Fresh")
		_, err := e.Check(ctx)
		require.NoError(t, err)
		require.Len(t, rec.Notices(), 1)
		assert.Equal(t, "Fresh", rec.Notices()[0].Message)
	})
}

func TestCheckStates(t *testing.T) {
	store, _ := newStore(t, nil)
	var e *Engine
	var during State
	e = NewEngine("1.0.0", store, WithBeforeAll(func(context.Context) { during = e.State() }))
	var runs []string
	register(t, e, &runs, "1.0.0")

	_, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Checking, during)
	assert.Equal(t, VersionPersisted, e.State())

	for s, name := range map[State]string{
		NotChecked:        "not-checked",
		NoMigrationNeeded: "no-migration-needed",
		MigrationsApplied: "migrations-applied",
		Failed:            "failed",
		State(42):         "unknown",
	} {
		assert.Equal(t, name, s.String())
	}
}
