// Package config loads the framework configuration.
//
// Configuration is layered:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, when one exists
//  3. MODKIT_* environment variables
//
// Later layers override earlier ones field by field. Load validates the
// result.
//
// Example file:
//
//	[mod]
//	name = "ClockMod"
//	version = "1.2.0"
//
//	[storage]
//	path = "~/.local/share/modkit/clock.db"
//
//	[notice]
//	message = "Clock was updated, see the changelog."
//	timeout = "30s"
package config
