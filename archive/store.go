// Package archive provides an out-of-band convenience container for
// persisting many compressed entities to a single file or stream, e.g.
// ground-segment log rotation of per-chunk entities produced by
// cmp.CompressChunk. It never alters entity bytes: the wire format
// produced by package entity stays bit-identical whether or not it is
// later archived.
//
// Grounded on internal/hash's xxHash64 hashing, repurposed here as a
// stream-level integrity check over the concatenated archive, and on
// klauspost/compress/zstd's pooled encoder/decoder pattern for the
// archive-level codec.
package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/format"
	"github.com/platocmp/cmp/internal/rtlog"
)

// entryHeaderSize is the per-entity length prefix: a 4-byte big-endian
// byte count.
const entryHeaderSize = 4

// EntityStore concatenates length-prefixed compression entities into one
// buffer and, optionally, compresses the whole buffer with Zstandard. It
// carries no knowledge of entity internals (header/trailer/payload) —
// entities are opaque []byte to it.
type EntityStore struct {
	algo    format.CompressionType
	entries [][]byte
}

// NewEntityStore creates a store that compresses its concatenated stream
// with algo when Compressed is called. format.CompressionNone disables
// the archive-level codec entirely.
func NewEntityStore(algo format.CompressionType) *EntityStore {
	return &EntityStore{algo: algo}
}

// Append adds one compression entity (as produced by cmp.CompressChunk)
// to the store. ent is not copied; callers must not mutate it afterward.
func (s *EntityStore) Append(ent []byte) {
	s.entries = append(s.entries, ent)
}

// Len returns the number of entities appended so far.
func (s *EntityStore) Len() int { return len(s.entries) }

// concat lays out every appended entity as [4-byte big-endian length][entity bytes]...
func (s *EntityStore) concat() []byte {
	total := 0
	for _, e := range s.entries {
		total += entryHeaderSize + len(e)
	}

	buf := make([]byte, 0, total)
	var lenBuf [entryHeaderSize]byte
	for _, e := range s.entries {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, e...)
	}

	return buf
}

// Compressed returns the archive stream: the concatenated, length-prefixed
// entities run through the store's codec, followed by an 8-byte
// big-endian xxHash64 checksum of the uncompressed concatenation (so a
// corrupted archive is detected before attempting decompression of
// individual entities).
func (s *EntityStore) Compressed() ([]byte, error) {
	plain := s.concat()
	sum := xxhash.Sum64(plain)

	compressed, err := encode(s.algo, plain)
	if err != nil {
		return nil, cmperrs.Wrap(cmperrs.KindGeneric, fmt.Errorf("archive compress: %w", err))
	}

	out := make([]byte, 0, len(compressed)+8)
	out = append(out, compressed...)
	var sumBuf [8]byte
	binary.BigEndian.PutUint64(sumBuf[:], sum)
	out = append(out, sumBuf[:]...)

	return out, nil
}

// OpenEntityStore reverses Compressed: it decompresses the stream with
// algo, verifies the trailing checksum, and splits the result back into
// individual entities in append order.
func OpenEntityStore(stream []byte, algo format.CompressionType) ([][]byte, error) {
	if len(stream) < 8 {
		return nil, cmperrs.ErrEntityTooSmall
	}
	body, wantSum := stream[:len(stream)-8], binary.BigEndian.Uint64(stream[len(stream)-8:])

	plain, err := decode(algo, body)
	if err != nil {
		return nil, cmperrs.Wrap(cmperrs.KindIntDecoder, fmt.Errorf("archive decompress: %w", err))
	}

	if gotSum := xxhash.Sum64(plain); gotSum != wantSum {
		rtlog.Warn().Uint64("want", wantSum).Uint64("got", gotSum).Msg("archive checksum mismatch")
		return nil, cmperrs.Wrap(cmperrs.KindIntDecoder, fmt.Errorf("archive checksum mismatch"))
	}

	var entries [][]byte
	for off := 0; off < len(plain); {
		if off+entryHeaderSize > len(plain) {
			return nil, cmperrs.ErrEntityHeader
		}
		n := int(binary.BigEndian.Uint32(plain[off : off+entryHeaderSize]))
		off += entryHeaderSize
		if off+n > len(plain) {
			return nil, cmperrs.ErrEntityHeader
		}
		entries = append(entries, plain[off:off+n])
		off += n
	}

	return entries, nil
}
