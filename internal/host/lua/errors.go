package lua

import "errors"

// Lua host errors.
var (
	// ErrHostClosed is returned when using a closed host.
	ErrHostClosed = errors.New("lua host is closed")

	// ErrNotFunction is returned when a global is not a Lua function.
	ErrNotFunction = errors.New("global is not a function")
)
