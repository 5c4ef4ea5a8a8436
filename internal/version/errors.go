package version

import (
	"errors"
	"fmt"
)

// Version errors.
var (
	// ErrMigrationFailed is matched by every *MigrationError.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrNilMigrator is returned when registering a nil migrator.
	ErrNilMigrator = errors.New("nil migrator")

	// ErrNoStore is returned by Check when the engine has no store.
	ErrNoStore = errors.New("no settings store")

	// ErrCheckInProgress is returned when Check is re-entered.
	ErrCheckInProgress = errors.New("version check in progress")
)

// MigrationError reports a migrator that failed or panicked.
type MigrationError struct {
	Migrator string
	Target   string
	Previous string
	Err      error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate %s to %s with %s: %v", displayVersion(e.Previous), e.Target, e.Migrator, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMigrationFailed.
func (e *MigrationError) Is(target error) bool {
	return target == ErrMigrationFailed
}

func displayVersion(v string) string {
	if v == "" {
		return "<none>"
	}
	return v
}
