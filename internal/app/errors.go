package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrNoHost indicates Options.Host is nil.
	ErrNoHost = errors.New("no host")

	// ErrNoSlot indicates Options.Slot is nil.
	ErrNoSlot = errors.New("no settings slot")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("already started")

	// ErrNotLoaded indicates an operation needing a loaded framework.
	ErrNotLoaded = errors.New("not loaded")

	// ErrNoRenderer indicates a screen operation without a renderer.
	ErrNoRenderer = errors.New("no renderer")

	// ErrNoScreen indicates a module without a settings screen, or a
	// screen that is not open.
	ErrNoScreen = errors.New("no settings screen")
)

// StepError reports the startup or shutdown step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
