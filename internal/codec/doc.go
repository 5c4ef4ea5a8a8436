// Package codec serializes persisted settings to and from the compact,
// transport-safe string stored in the host's storage slot.
//
// A payload is the JSON form of a value compressed with LZ-string and
// emitted in its base64 alphabet, the same text a browser produces with
// LZString.compressToBase64(JSON.stringify(value)):
//
//	payload := lzstring.CompressToBase64(json(value))
//
// Decoding reverses the pipeline. Payloads written as base64 DEFLATE by
// earlier releases are still accepted. Any failure along the way is
// reported as a *DecodeError naming the stage that failed, so callers can
// distinguish a corrupt slot from an I/O problem and fall back to first-run
// defaults.
package codec
