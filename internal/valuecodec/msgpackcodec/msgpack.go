// Package msgpackcodec provides the reference value codec: a two-byte
// versioned header followed by a msgpack body.
package msgpackcodec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quillback/memocache/internal/valuecodec"
)

// Wire format: magic byte, format version, msgpack body. Bumping the
// version invalidates previously stored entries instead of misreading them.
const (
	Magic   = 0x4D // 'M'
	Version = 0x01
)

// Compile-time check that Codec implements valuecodec.Codec.
var _ valuecodec.Codec = (*Codec)(nil)

// Codec encodes values as headered msgpack.
type Codec struct{}

// New returns a msgpack codec.
func New() *Codec {
	return &Codec{}
}

// Encode serializes v with the version header prepended.
func (c *Codec) Encode(v any) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", valuecodec.ErrEncode, err)
	}

	out := make([]byte, 0, len(body)+2)
	out = append(out, Magic, Version)
	return append(out, body...), nil
}

// Decode checks the header and deserializes the body into v.
func (c *Codec) Decode(data []byte, v any) error {
	body, err := CheckHeader(data, Version)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", valuecodec.ErrDecode, err)
	}
	return nil
}

// CheckHeader validates the magic byte and expected version and returns
// the body. Shared with codecs that layer on this wire format.
func CheckHeader(data []byte, version byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: %d bytes, want at least 2", valuecodec.ErrDecode, len(data))
	}
	if data[0] != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%02x", valuecodec.ErrDecode, data[0])
	}
	if data[1] != version {
		return nil, fmt.Errorf("%w: format version %d, want %d", valuecodec.ErrDecode, data[1], version)
	}
	return data[2:], nil
}
