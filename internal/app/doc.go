// Package app wires the framework together and runs its startup and
// shutdown sequences.
//
// Startup, run once per App:
//
//  1. Take the persisted settings from the slot
//  2. Load translations
//  3. Init, Load, merge default settings, Run every module
//  4. Mark the framework loaded and save
//
// A module failure is logged and recorded; a migration failure aborts the
// sequence. With Host.WaitForLogin set, Start only installs a hook on the
// login function and the sequence runs after a successful login.
package app
