package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/modkit/internal/codec"
)

// Slot is the host's persistent storage slot.
type Slot interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, payload string) error
}

// Cache is a machine-local key/value store.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// KeyFilter lists the module keys that Save persists besides VersionKey.
type KeyFilter func() []string

// Store holds the live Settings and moves them to and from a Slot.
type Store struct {
	mu       sync.Mutex
	slot     Slot
	cache    Cache
	settings Settings
	filter   KeyFilter
	logger   *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCache sets the local cache.
func WithCache(c Cache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

// WithKeyFilter restricts Save to VersionKey plus the keys returned by f.
func WithKeyFilter(f KeyFilter) Option {
	return func(s *Store) {
		s.filter = f
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over slot. The store is empty until Take.
func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		logger: log.Default().WithPrefix("storage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode turns a slot payload into Settings. A payload that decodes without
// a Version field is rejected with ErrMissingVersion.
func Decode(payload string) (Settings, error) {
	m, err := codec.DecodeMap(payload)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	settings := Settings(m)
	if !settings.HasVersion() {
		return nil, &DecodeError{Err: ErrMissingVersion}
	}
	return settings, nil
}

// Take loads the settings from the slot, replacing the live map. It reports
// whether stored settings were restored; an empty, corrupt or unversioned
// payload starts from empty settings instead. Only slot errors are returned.
func (s *Store) Take(ctx context.Context) (bool, error) {
	if s.slot == nil {
		return false, ErrNoSlot
	}
	payload, err := s.slot.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if payload == "" {
		s.logger.Debug("no stored settings, starting fresh")
		s.settings = Settings{}
		return false, nil
	}

	settings, err := Decode(payload)
	if err != nil {
		if errors.Is(err, ErrMissingVersion) {
			s.logger.Info("stored settings have no version, starting fresh")
		} else {
			s.logger.Warn("stored settings unreadable, starting fresh", "err", err)
		}
		s.settings = Settings{}
		return false, nil
	}

	s.settings = settings
	s.logger.Debug("settings restored", "version", settings.Version(), "bytes", len(payload))
	return true, nil
}

// Settings returns the live settings map.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		s.settings = Settings{}
	}
	return s.settings
}

// Replace swaps the live settings map for settings.
func (s *Store) Replace(settings Settings) {
	if settings == nil {
		settings = Settings{}
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Snapshot returns what Save would persist: VersionKey, always present,
// plus every key allowed by the key filter.
func (s *Store) Snapshot() Settings {
	live := s.Settings()

	out := Settings{VersionKey: live.Version()}
	if s.filter == nil {
		for k, v := range live {
			if k != VersionKey {
				out[k] = v
			}
		}
		return out
	}
	for _, k := range s.filter() {
		if k == VersionKey {
			continue
		}
		if v, ok := live[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Save encodes the settings and writes them to the slot.
func (s *Store) Save(ctx context.Context) error {
	if s.slot == nil {
		return ErrNoSlot
	}
	payload, err := codec.Encode(s.Snapshot())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := s.slot.Save(ctx, payload); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.Debug("settings saved", "bytes", len(payload))
	return nil
}

// Size returns the byte length of the payload Save would write.
func (s *Store) Size() (int, error) {
	return codec.Size(s.Snapshot())
}

// GetLocal decodes the local cache value stored under key into v. It
// reports false when the key is absent or its value cannot be decoded.
func (s *Store) GetLocal(ctx context.Context, key string, v any) (bool, error) {
	if s.cache == nil {
		return false, ErrNoCache
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get local %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := codec.Decode(payload, v); err != nil {
		s.logger.Warn("local value unreadable", "key", key, "err", err)
		return false, nil
	}
	return true, nil
}

// SetLocal encodes v into the local cache under key.
func (s *Store) SetLocal(ctx context.Context, key string, v any) error {
	if s.cache == nil {
		return ErrNoCache
	}
	payload, err := codec.Encode(v)
	if err != nil {
		return fmt.Errorf("set local %q: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("set local %q: %w", key, err)
	}
	return nil
}
