// Package valuecodec serializes cached results to bytes and back.
package valuecodec

import "errors"

// ErrEncode indicates a computed value that cannot be serialized. The
// engine propagates it to the caller; nothing is stored.
var ErrEncode = errors.New("valuecodec: value not encodable")

// ErrDecode indicates foreign or corrupted bytes. The engine treats it as
// a cache miss, never as a caller-visible failure.
var ErrDecode = errors.New("valuecodec: malformed value bytes")

// Codec converts values to a fixed, versioned binary encoding.
// Implementations must round-trip every value in their supported domain.
type Codec interface {
	// Encode serializes v. Failures wrap ErrEncode.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into v, which must be a pointer.
	// Failures on unrecognized bytes wrap ErrDecode.
	Decode(data []byte, v any) error
}
