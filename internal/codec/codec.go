package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	lzstring "github.com/daku10/go-lz-string"
	"github.com/klauspost/compress/flate"
)

// MaxDecodedSize bounds the decompressed size of a payload.
const MaxDecodedSize = 8 * 1024 * 1024

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

// Encode serializes v into an LZ-string base64 payload.
func Encode(v any) (string, error) {
	raw, err := marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	payload, err := lzstring.CompressToBase64(string(raw))
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return payload, nil
}

// Decode parses a payload produced by Encode into v.
func Decode(payload string, v any) error {
	raw, err := decompress(payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Stage: StageJSON, Err: err}
	}
	return nil
}

// DecodeMap decodes a payload whose top level is a JSON object.
func DecodeMap(payload string) (map[string]any, error) {
	var m map[string]any
	if err := Decode(payload, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &DecodeError{Stage: StageJSON, Err: fmt.Errorf("payload is not an object")}
	}
	return m, nil
}

// DecodeJSON returns the raw JSON document carried by a payload.
func DecodeJSON(payload string) ([]byte, error) {
	return decompress(payload)
}

// EncodeJSON compresses an already serialized JSON document.
func EncodeJSON(doc []byte) (string, error) {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return Encode(v)
}

// Size returns the length in bytes of the encoded form of v.
func Size(v any) (int, error) {
	payload, err := Encode(v)
	if err != nil {
		return 0, err
	}
	return len(payload), nil
}

// marshal writes JSON the way a browser's JSON.stringify does: no HTML
// escaping and no trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func decompress(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, &DecodeError{Stage: StageBase64, Err: ErrEmptyPayload}
	}
	if i := strings.IndexFunc(payload, func(r rune) bool {
		return !strings.ContainsRune(base64Alphabet, r)
	}); i >= 0 {
		return nil, &DecodeError{Stage: StageBase64, Err: fmt.Errorf("illegal character at offset %d", i)}
	}

	text, lzErr := lzDecompress(payload)
	if lzErr == nil {
		if len(text) > MaxDecodedSize {
			return nil, &DecodeError{Stage: StageDecompress, Err: ErrPayloadTooLarge}
		}
		if json.Valid([]byte(text)) {
			return []byte(text), nil
		}
		lzErr = errors.New("decompressed text is not JSON")
	}

	// Slots written before the LZ-string format carry base64 DEFLATE.
	raw, err := inflate(payload)
	if err == nil && json.Valid(raw) {
		return raw, nil
	}
	if errors.Is(err, ErrPayloadTooLarge) {
		return nil, &DecodeError{Stage: StageInflate, Err: err}
	}
	return nil, &DecodeError{Stage: StageDecompress, Err: lzErr}
}

func lzDecompress(payload string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt payload: %v", r)
		}
	}()
	text, err = lzstring.DecompressFromBase64(payload)
	if err == nil && text == "" {
		err = errors.New("corrupt payload")
	}
	return text, err
}

func inflate(payload string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxDecodedSize {
		return nil, ErrPayloadTooLarge
	}
	return raw, nil
}

// Normalize returns v as it would read back after a round trip through a
// payload: maps become map[string]any, numbers float64.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}
