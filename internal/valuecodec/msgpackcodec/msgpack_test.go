package msgpackcodec

import (
	"errors"
	"reflect"
	"testing"

	"github.com/quillback/memocache/internal/valuecodec"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()

	type result struct {
		Name  string
		Count int
		Tags  []string
	}
	in := result{Name: "answer", Count: 42, Tags: []string{"a", "b"}}

	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if data[0] != Magic || data[1] != Version {
		t.Errorf("header = [0x%02x 0x%02x], want [0x%02x 0x%02x]", data[0], data[1], Magic, Version)
	}

	var out result
	if err := c.Decode(data, &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("Decode() = %+v, want %+v", out, in)
	}
}

func TestCodec_Decode_BadHeader(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{Magic}},
		{"bad magic", []byte{0x00, Version, 0xc0}},
		{"wrong version", []byte{Magic, 0x7f, 0xc0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			if err := c.Decode(tt.data, &v); !errors.Is(err, valuecodec.ErrDecode) {
				t.Errorf("Decode() error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestCodec_Decode_CorruptBody(t *testing.T) {
	c := New()

	var out map[string]int
	data := []byte{Magic, Version, 0xc1} // 0xc1 is never valid msgpack
	if err := c.Decode(data, &out); !errors.Is(err, valuecodec.ErrDecode) {
		t.Errorf("Decode() error = %v, want ErrDecode", err)
	}
}

func TestCodec_Encode_Unserializable(t *testing.T) {
	c := New()

	if _, err := c.Encode(func() {}); !errors.Is(err, valuecodec.ErrEncode) {
		t.Errorf("Encode(func) error = %v, want ErrEncode", err)
	}
}
