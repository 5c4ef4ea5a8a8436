package module

import (
	"errors"
	"fmt"
)

// Module errors.
var (
	// ErrNilModule is returned when registering a nil module.
	ErrNilModule = errors.New("nil module")

	// ErrEmptyKey is returned when registering a module without a key.
	ErrEmptyKey = errors.New("module key is empty")

	// ErrNotFound is returned when a module key is not registered.
	ErrNotFound = errors.New("module not found")

	// ErrNoSettings is returned for modules that opted out of settings storage.
	ErrNoSettings = errors.New("module has no settings storage")

	// ErrNoHooks is returned when a module hooks without a hook registry.
	ErrNoHooks = errors.New("no hook registry")
)

// LifecycleError reports a module lifecycle call that failed or panicked.
type LifecycleError struct {
	Key   string
	Phase Phase
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("module %s %s: %v", e.Key, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}
