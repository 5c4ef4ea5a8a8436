package version

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modkit/internal/storage"
)

func TestRename(t *testing.T) {
	s := storage.Settings{
		"Clock": map[string]any{"fmt": "24h", "zone": "UTC"},
	}
	m := Rename("1.1.0", "Clock.fmt", "Clock.display.format")
	assert.Equal(t, "1.1.0", m.TargetVersion())

	changed, err := m.Migrate(s)
	require.NoError(t, err)
	assert.True(t, changed)

	want := storage.Settings{
		"Clock": map[string]any{
			"zone":    "UTC",
			"display": map[string]any{"format": "24h"},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	// Running again finds nothing to move.
	changed, err = m.Migrate(s)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRenameBlocked(t *testing.T) {
	s := storage.Settings{"Clock": map[string]any{"fmt": "24h", "display": "compact"}}
	_, err := Rename("1.1.0", "Clock.fmt", "Clock.display.format").Migrate(s)
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	s := storage.Settings{"Clock": map[string]any{"fmt": "24h"}}
	upper := Transform("1.2.0", "Clock.fmt", func(v any) (any, error) {
		str, ok := v.(string)
		if !ok {
			return nil, errors.New("not a string")
		}
		return strings.ToUpper(str), nil
	})

	changed, err := upper.Migrate(s)
	require.NoError(t, err)
	assert.True(t, changed)
	clock, _ := s.Module("Clock")
	assert.Equal(t, "24H", clock["fmt"])

	changed, err = upper.Migrate(storage.Settings{})
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = upper.Migrate(storage.Settings{"Clock": map[string]any{"fmt": 3}})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := storage.Settings{"Old": map[string]any{"x": 1}, "Keep": true}
	m := Delete("2.0.0", "Old")

	changed, err := m.Migrate(s)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, storage.Settings{"Keep": true}, s)

	changed, err = m.Migrate(s)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMigratorName(t *testing.T) {
	assert.Equal(t, "delete Old", migratorName(Delete("1.0.0", "Old")))
	assert.Equal(t, "version.recorder", migratorName(recorder{}))
}
