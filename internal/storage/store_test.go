package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modkit/internal/codec"
)

func encode(t *testing.T, v any) string {
	t.Helper()
	payload, err := codec.Encode(v)
	require.NoError(t, err)
	return payload
}

func TestStoreTakeRestores(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(encode(t, map[string]any{
		VersionKey: "1.0.0",
		"Clock":    map[string]any{"format": "24h"},
	}))
	s := NewStore(slot)

	restored, err := s.Take(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "1.0.0", s.Settings().Version())

	clock, ok := s.Settings().Module("Clock")
	require.True(t, ok)
	assert.Equal(t, "24h", clock["format"])
}

func TestStoreTakeBootstraps(t *testing.T) {
	tests := []struct {
		name    string
		payload func(t *testing.T) string
	}{
		{"empty", func(*testing.T) string { return "" }},
		{"garbage", func(*testing.T) string { return "not a payload!" }},
		{"not an object", func(t *testing.T) string { return encode(t, []int{1, 2}) }},
		{"no version", func(t *testing.T) string {
			return encode(t, map[string]any{"Clock": map[string]any{"format": "24h"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(NewMemorySlot(tt.payload(t)))
			restored, err := s.Take(context.Background())
			require.NoError(t, err)
			assert.False(t, restored)
			assert.Empty(t, s.Settings())
			assert.False(t, s.Settings().HasVersion())
		})
	}
}

type failingSlot struct{ err error }

func (f failingSlot) Load(context.Context) (string, error) { return "", f.err }
func (f failingSlot) Save(context.Context, string) error   { return f.err }

func TestStoreSlotErrors(t *testing.T) {
	boom := errors.New("disk gone")
	s := NewStore(failingSlot{err: boom})

	_, err := s.Take(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Save(context.Background()), boom)

	_, err = NewStore(nil).Take(context.Background())
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestStoreSettingsIsLive(t *testing.T) {
	s := NewStore(NewMemorySlot(""))
	s.Settings()["Clock"] = map[string]any{"format": "12h"}

	clock, ok := s.Settings().Module("Clock")
	require.True(t, ok)
	clock["format"] = "24h"

	again, _ := s.Settings().Module("Clock")
	assert.Equal(t, "24h", again["format"])
}

func TestStoreSaveAlwaysWritesVersion(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot("")
	s := NewStore(slot)
	s.Settings()["Clock"] = map[string]any{"format": "12h"}

	require.NoError(t, s.Save(ctx))

	m, err := codec.DecodeMap(slot.Payload())
	require.NoError(t, err)
	assert.Equal(t, "", m[VersionKey])
	assert.Contains(t, m, "Clock")

	// A saved payload with an empty version is restored, not bootstrapped.
	reloaded := NewStore(slot)
	restored, err := reloaded.Take(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "", reloaded.Settings().Version())
}

func TestStoreKeyFilter(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot("")
	s := NewStore(slot, WithKeyFilter(func() []string {
		return []string{GlobalKey, "Clock"}
	}))
	live := s.Settings()
	live.SetVersion("2.0.0")
	live[GlobalKey] = map[string]any{"modEnabled": true}
	live["Clock"] = map[string]any{"format": "12h"}
	live["Removed"] = map[string]any{"stale": true}

	require.NoError(t, s.Save(ctx))

	m, err := codec.DecodeMap(slot.Payload())
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.Equal(t, "2.0.0", m[VersionKey])
	assert.NotContains(t, m, "Removed")

	// The live map keeps unfiltered keys.
	assert.Contains(t, s.Settings(), "Removed")
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot("")
	s := NewStore(slot)
	live := s.Settings()
	live.SetVersion("1.2.3")
	live["Clock"] = map[string]any{"format": "12h", "zones": []any{"UTC", "CET"}}

	require.NoError(t, s.Save(ctx))
	assert.Equal(t, 1, slot.Saves())

	next := NewStore(slot)
	_, err := next.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings(live), next.Settings())
}

func TestStoreSize(t *testing.T) {
	s := NewStore(NewMemorySlot(""))
	s.Settings().SetVersion("1.0.0")

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, len(encode(t, map[string]any{VersionKey: "1.0.0"})), size)
}

func TestStoreLocal(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	s := NewStore(NewMemorySlot(""), WithCache(cache))

	var got bool
	ok, err := s.GetLocal(ctx, "showRawTranslations", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetLocal(ctx, "showRawTranslations", true))
	ok, err = s.GetLocal(ctx, "showRawTranslations", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got)

	require.NoError(t, cache.Set(ctx, "broken", "%%%"))
	ok, err = s.GetLocal(ctx, "broken", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreLocalWithoutCache(t *testing.T) {
	s := NewStore(NewMemorySlot(""))
	var v string
	_, err := s.GetLocal(context.Background(), "k", &v)
	assert.ErrorIs(t, err, ErrNoCache)
	assert.ErrorIs(t, s.SetLocal(context.Background(), "k", "v"), ErrNoCache)
}

func TestDecode(t *testing.T) {
	_, err := Decode(encode(t, map[string]any{"a": 1}))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, ErrMissingVersion)

	_, err = Decode("@@")
	require.ErrorAs(t, err, &de)
	var cde *codec.DecodeError
	assert.ErrorAs(t, err, &cde)

	settings, err := Decode(encode(t, map[string]any{VersionKey: "0.1.0"}))
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", settings.Version())
}
