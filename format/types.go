// Package format carries the small enumeration package archive uses to
// select the codec applied to an archived entity stream.
package format

// CompressionType selects the codec archive.EntityStore applies to a
// concatenated entity stream.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone disables the archive-level codec.
	CompressionZstd CompressionType = 0x2 // CompressionZstd applies Zstandard compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}
