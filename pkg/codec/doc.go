// Package codec provides element serialization for ArrayDB.
//
// The codec package turns a single record value into the bytes stored in a
// blob (ElementCodec) and a whole list of values into a text document
// (TextSerializer). Storage back-ends in pkg/storage only ever see these two
// interfaces.
//
// # Fixed Layout
//
// FixedCodec writes a value with encoding/binary in little-endian order. The
// type must have a fixed size: booleans, sized integers and floats, arrays of
// those and structs made only of such fields. Types like int, string or
// slices are rejected by NewFixedCodec with ErrNotFixedSize.
//
//	c, err := codec.NewFixedCodec[int32]()
//	if err != nil {
//	    return err
//	}
//	blob, _ := c.Encode(20) // 14 00 00 00
//	v, _ := c.Decode(blob)  // 20
//
// No version tag is written. Cross-version or cross-platform compatibility of
// the value layout is the caller's responsibility.
//
// # Empty Blobs
//
// Decoding an empty blob always yields the zero value of T. Sparse writes in
// the binary store leave empty placeholder blobs behind, and reading them is
// not an error.
//
// # Checksums
//
// ChecksumCodec wraps another ElementCodec and prefixes each blob with a
// CRC32 (IEEE, little-endian) of the payload:
//
//	[CRC32(4)][Payload]
//
// Decode validates the checksum and returns ErrChecksum on mismatch.
//
// # Text Serializers
//
// JSONSerializer and YAMLSerializer encode a []T as one document. They are
// used by the text file back-end, which rewrites the whole document on every
// change.
//
// # Thread Safety
//
// All codecs in this package are stateless after construction and safe for
// concurrent use.
package codec
