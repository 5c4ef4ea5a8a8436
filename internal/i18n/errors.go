package i18n

import "errors"

// Translation errors.
var (
	// ErrInvalidLanguage is returned for a language that cannot be parsed.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")
)
