// Package storage owns the persisted settings of every module.
//
// All module settings live in one Settings map, keyed by module storage key,
// plus the reserved Version field recording the release that last saved it.
// The map is loaded once from the host's storage slot by Take, mutated in
// place by modules, and written back by Save. Settings always returns the
// live map: callers read it, change it, and call Save. There is no change
// detection and no automatic flush.
//
// A slot payload that cannot be decoded, or decodes without a Version field,
// is treated as absent and the store starts empty (first-run bootstrap).
//
// The local cache is a second, machine-local key/value store for values
// that must not round-trip through the synced slot, such as debug toggles.
package storage
