// Package zstdcodec wraps another value codec with zstd compression.
// Useful when cached results are large and the store is remote.
package zstdcodec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/quillback/memocache/internal/valuecodec"
	"github.com/quillback/memocache/internal/valuecodec/msgpackcodec"
)

// Version marks compressed payloads; distinct from the inner codec's
// version so the two formats never alias.
const Version = 0x02

// Compile-time check that Codec implements valuecodec.Codec.
var _ valuecodec.Codec = (*Codec)(nil)

// Codec compresses the inner codec's output with zstd.
type Codec struct {
	inner   valuecodec.Codec
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New returns a compressing codec around inner. If inner is nil, the
// msgpack reference codec is used.
func New(inner valuecodec.Codec) (*Codec, error) {
	if inner == nil {
		inner = msgpackcodec.New()
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Codec{inner: inner, encoder: enc, decoder: dec}, nil
}

// Encode serializes v with the inner codec and compresses the result.
func (c *Codec) Encode(v any) ([]byte, error) {
	body, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 2, len(body)/2+2)
	out[0] = msgpackcodec.Magic
	out[1] = Version
	return c.encoder.EncodeAll(body, out), nil
}

// Decode decompresses data and hands the body to the inner codec.
func (c *Codec) Decode(data []byte, v any) error {
	compressed, err := msgpackcodec.CheckHeader(data, Version)
	if err != nil {
		return err
	}
	body, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("%w: zstd: %v", valuecodec.ErrDecode, err)
	}
	return c.inner.Decode(body, v)
}
