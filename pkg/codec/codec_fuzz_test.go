//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"testing"
)

// FuzzChecksumCodec_Decode feeds random blobs to the checksum codec
func FuzzChecksumCodec_Decode(f *testing.F) {
	c := NewChecksumCodec[int64](MustFixedCodec[int64]())

	f.Add([]byte{})
	f.Add([]byte{0x00, 0x01, 0x02})
	valid, _ := c.Encode(42)
	f.Add(valid)

	f.Fuzz(func(t *testing.T, data []byte) {
		v, err := c.Decode(data)
		if err != nil {
			return
		}

		// Anything with a full payload that decodes must re-encode to the same bytes
		if len(data) <= checksumSize {
			return
		}
		encoded, err := c.Encode(v)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(encoded, data) {
			t.Errorf("Re-encode mismatch: got %x, want %x", encoded, data)
		}
	})
}

// FuzzFixedCodec_RoundTrip checks bit-exact round trips of random values
func FuzzFixedCodec_RoundTrip(f *testing.F) {
	c := MustFixedCodec[point]()

	f.Add(0.0, 0.0, false)
	f.Add(1.5, -2.25, true)

	f.Fuzz(func(t *testing.T, x, y float64, ok bool) {
		v := point{X: x, Y: y, Ok: ok}
		encoded, err := c.Encode(v)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		decoded, err := c.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		again, _ := c.Encode(decoded)
		if !bytes.Equal(again, encoded) {
			t.Errorf("Bit mismatch: got %x, want %x", again, encoded)
		}
	})
}
