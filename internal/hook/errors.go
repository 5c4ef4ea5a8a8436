package hook

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrNilCallback is returned when registering a nil callback.
	ErrNilCallback = errors.New("callback is nil")

	// ErrNoInterceptor is returned when the registry has no host connection.
	ErrNoInterceptor = errors.New("no host interceptor")
)

// RegistrationError reports a hook the host refused to install.
type RegistrationError struct {
	Target   string
	Callback string
	Owner    string
	Err      error
}

func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("register hook %q on %s", e.Callback, e.Target)
	if e.Owner != "" {
		msg += fmt.Sprintf(" for %s", e.Owner)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
