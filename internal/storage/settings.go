package storage

// Reserved top-level keys.
const (
	// VersionKey records the release that last saved the settings.
	VersionKey = "Version"

	// GlobalKey holds framework-wide preferences.
	GlobalKey = "GlobalModule"
)

// Settings maps module storage keys to module settings, plus VersionKey.
type Settings map[string]any

// Version returns the stored version, or "" when absent or not a string.
func (s Settings) Version() string {
	v, _ := s[VersionKey].(string)
	return v
}

// HasVersion reports whether the Version field is present.
func (s Settings) HasVersion() bool {
	_, ok := s[VersionKey]
	return ok
}

// SetVersion records the version.
func (s Settings) SetVersion(v string) {
	s[VersionKey] = v
}

// Module returns the live settings of a module slot.
func (s Settings) Module(key string) (map[string]any, bool) {
	m, ok := s[key].(map[string]any)
	return m, ok
}

// SetModule replaces a module slot.
func (s Settings) SetModule(key string, v map[string]any) {
	s[key] = v
}

// Bool reads a boolean flag from a module slot.
func (s Settings) Bool(key, field string) bool {
	m, ok := s.Module(key)
	if !ok {
		return false
	}
	b, _ := m[field].(bool)
	return b
}
