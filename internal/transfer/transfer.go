// Package transfer moves module settings in and out as portable payloads.
//
// An export payload is a codec payload of an object keyed by module
// registry key, holding each selected module's live settings. Importing
// merges each module's entry over the module's default settings, source
// winning and arrays concatenating, assigns the result as the module's
// settings and saves the store. Entries for unknown modules are skipped.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/codec"
	"github.com/dshills/modkit/internal/merge"
	"github.com/dshills/modkit/internal/module"
)

// Transfer errors.
var (
	// ErrNoModules is returned when nothing is selected.
	ErrNoModules = errors.New("no modules selected")

	// ErrInvalidPayload is returned for a payload that is not an export.
	ErrInvalidPayload = errors.New("invalid import payload")
)

// Report lists what an import did.
type Report struct {
	Imported []string
	Skipped  []string
}

// Transfer exports and imports the settings of a Manager's modules.
type Transfer struct {
	manager *module.Manager
	logger  *log.Logger
}

// New creates a Transfer. A nil logger uses the default.
func New(manager *module.Manager, logger *log.Logger) *Transfer {
	if logger == nil {
		logger = log.Default().WithPrefix("transfer")
	}
	return &Transfer{manager: manager, logger: logger}
}

// Modules returns the keys of the modules that can be exported: those with
// settings storage, in registration order.
func (t *Transfer) Modules() []string {
	var keys []string
	for _, e := range t.manager.Registry().Entries() {
		if module.SettingsKey(e.Key, e.Module) != "" {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Export encodes the live settings of the selected modules.
func (t *Transfer) Export(keys ...string) (string, error) {
	if len(keys) == 0 {
		return "", ErrNoModules
	}
	payload := make(map[string]any, len(keys))
	for _, key := range keys {
		settings, err := t.manager.Settings(key)
		if err != nil {
			return "", fmt.Errorf("export %s: %w", key, err)
		}
		payload[key] = settings
	}
	out, err := codec.Encode(payload)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	t.logger.Debug("settings exported", "modules", len(keys), "bytes", len(out))
	return out, nil
}

// Peek returns the module keys an export payload holds, sorted.
func Peek(payload string) ([]string, error) {
	decoded, err := decode(payload)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Import applies an export payload and saves the store. With keys, only
// those modules are imported.
func (t *Transfer) Import(ctx context.Context, payload string, keys ...string) (Report, error) {
	decoded, err := decode(payload)
	if err != nil {
		return Report{}, err
	}

	if len(keys) == 0 {
		for k := range decoded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	if len(keys) == 0 {
		return Report{}, ErrNoModules
	}

	var rep Report
	reg := t.manager.Registry()
	live := t.manager.Store().Settings()
	for _, key := range keys {
		data, ok := decoded[key].(map[string]any)
		mod, registered := reg.Get(key)
		storageKey := ""
		if registered {
			storageKey = module.SettingsKey(key, mod)
		}
		if !ok || storageKey == "" {
			rep.Skipped = append(rep.Skipped, key)
			continue
		}

		var base map[string]any
		if d, ok := mod.(module.DefaultSettings); ok {
			if normalized, err := codec.Normalize(d.DefaultSettings()); err == nil {
				base, _ = normalized.(map[string]any)
			}
		}
		live.SetModule(storageKey, merge.Deep(base, data))
		rep.Imported = append(rep.Imported, key)
	}

	if len(rep.Skipped) > 0 {
		t.logger.Info("import skipped modules", "modules", rep.Skipped)
	}
	if len(rep.Imported) == 0 {
		return rep, nil
	}
	if err := t.manager.Store().Save(ctx); err != nil {
		return rep, fmt.Errorf("import: %w", err)
	}
	t.logger.Debug("settings imported", "modules", rep.Imported)
	return rep, nil
}

func decode(payload string) (map[string]any, error) {
	decoded, err := codec.DecodeMap(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return decoded, nil
}
