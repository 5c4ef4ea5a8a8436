package host

import "errors"

// Host errors.
var (
	// ErrUnknownFunction is returned when a function name is not defined.
	ErrUnknownFunction = errors.New("unknown host function")

	// ErrNilHook is returned when installing a nil hook.
	ErrNilHook = errors.New("hook is nil")

	// ErrNilFunction is returned when defining a nil function.
	ErrNilFunction = errors.New("function is nil")

	// ErrUnloaded is returned when hooking after Unload.
	ErrUnloaded = errors.New("host interception unloaded")
)
