package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// ErrChecksum is returned when a blob fails CRC32 validation
var ErrChecksum = errors.New("CRC32 mismatch")

const checksumSize = 4

// ChecksumCodec wraps an ElementCodec and guards every blob with a CRC32
// Format: [CRC32(4)][Payload]
type ChecksumCodec[T any] struct {
	inner ElementCodec[T]
}

// NewChecksumCodec creates a checksumming codec around inner
func NewChecksumCodec[T any](inner ElementCodec[T]) *ChecksumCodec[T] {
	return &ChecksumCodec[T]{inner: inner}
}

// Encode serializes value with the inner codec and prefixes the checksum
func (c *ChecksumCodec[T]) Encode(value T) ([]byte, error) {
	payload, err := c.inner.Encode(value)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, checksumSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(payload))
	copy(buf[checksumSize:], payload)

	return buf, nil
}

// Decode validates the checksum and decodes the payload
func (c *ChecksumCodec[T]) Decode(data []byte) (T, error) {
	var zero T
	if len(data) == 0 {
		return zero, nil
	}
	if len(data) < checksumSize {
		return zero, fmt.Errorf("%w: data too short for checksum header", ErrChecksum)
	}

	stored := binary.LittleEndian.Uint32(data[0:checksumSize])
	payload := data[checksumSize:]
	if actual := crc32.ChecksumIEEE(payload); stored != actual {
		return zero, fmt.Errorf("%w: %d != %d", ErrChecksum, stored, actual)
	}

	return c.inner.Decode(payload)
}
