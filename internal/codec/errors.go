package codec

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrEmptyPayload is returned when decoding an empty payload.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrPayloadTooLarge is returned when a payload decompresses past MaxDecodedSize.
	ErrPayloadTooLarge = errors.New("decoded payload too large")
)

// Stage identifies the decoding step that failed.
type Stage string

// Decoding stages.
const (
	StageBase64     Stage = "base64"
	StageDecompress Stage = "decompress"
	StageInflate    Stage = "inflate"
	StageJSON       Stage = "json"
)

// DecodeError reports a payload that could not be decoded.
type DecodeError struct {
	Stage Stage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
