// Package version brings persisted settings up to the running release.
//
// An Engine holds migrators registered ahead of time by feature modules.
// Check compares the Version stored in the settings with the running
// release, runs every migrator targeting a version newer than the stored
// one in ascending order, records the running version and saves the store.
// The version is recorded and saved even when no migrator ran, which also
// bootstraps settings that have never been saved.
//
// Version newness follows the stored format's historical rule: the first
// three dot-separated components are compared as strings, so "1.10.0" is
// not newer than "1.9.0". Migrators are ordered numerically with Compare.
//
// Migrators must be idempotent. A failure or panic in one stops the chain,
// leaves the stored version untouched and is reported as a *MigrationError
// matching ErrMigrationFailed. Such errors are fatal to the startup sequence.
package version
