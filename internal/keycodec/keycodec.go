// Package keycodec derives canonical cache keys from a function identity
// and its arguments.
package keycodec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotEncodable indicates an argument that has no canonical
// representation (functions, channels, complex numbers, ...).
var ErrNotEncodable = errors.New("keycodec: argument not encodable")

// Section markers keep positional and named arguments from aliasing each
// other in the canonical byte stream.
const (
	markPositional = 0x01
	markNamed      = 0x02
)

// Encode derives the cache key for a call. Equal argument sets produce
// identical keys; named-argument order does not affect the result. The key
// keeps the function identity as a readable prefix so per-function
// enumeration stays a prefix scan.
func Encode(function string, args []any, named map[string]any) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(function)
	buf.WriteByte(0x00)

	for i, a := range args {
		buf.WriteByte(markPositional)
		if err := encodeValue(&buf, a); err != nil {
			return "", fmt.Errorf("positional argument %d: %w", i, err)
		}
	}

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buf.WriteByte(markNamed)
		buf.WriteString(name)
		buf.WriteByte(0x00)
		if err := encodeValue(&buf, named[name]); err != nil {
			return "", fmt.Errorf("named argument %q: %w", name, err)
		}
	}

	sum := sha256.Sum256(buf.Bytes())
	return function + "/" + hex.EncodeToString(sum[:]), nil
}

// encodeValue appends the canonical msgpack form of v. Map keys are sorted
// so argument trees containing maps stay deterministic.
func encodeValue(buf *bytes.Buffer, v any) error {
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEncodable, err)
	}
	return nil
}
