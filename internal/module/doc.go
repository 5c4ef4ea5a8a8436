// Package module registers modules and drives their lifecycle.
//
// A module is a unit of behavior with a storage key, optional default
// settings, an optional settings screen and four lifecycle callbacks. The
// Registry holds modules by key, in first-registration order. The Manager
// fans each lifecycle phase out to every module in that order:
//
//	InitAll -> LoadAll -> RegisterDefaultSettingsAll -> RunAll ... UnloadAll
//
// Defaults are merged after LoadAll because Load may run settings
// migrations, and defaults must not overwrite their output.
//
// Each call is isolated: an error or panic in one module is logged and
// recorded, and the remaining modules still run. Errors matching
// version.ErrMigrationFailed are the exception; they stop the phase and are
// returned to the caller.
package module
