package storage

import (
	"errors"
	"fmt"
)

// Storage errors.
var (
	// ErrNoSlot is returned when the store has no storage slot.
	ErrNoSlot = errors.New("no storage slot")

	// ErrNoCache is returned when the store has no local cache.
	ErrNoCache = errors.New("no local cache")

	// ErrMissingVersion is returned when a payload decodes without a Version field.
	ErrMissingVersion = errors.New("settings have no version")
)

// DecodeError reports a slot payload that could not be turned into Settings.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode settings: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
