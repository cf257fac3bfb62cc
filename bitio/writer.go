// Package bitio implements the generalized big-endian bit writer and reader
// that underlie the cmp codec's Golomb/Rice code words.
//
// The bitstream is conceptually big-endian: bits are written MSB-first into
// successive bytes, exactly as if the output buffer were one long bit array
// addressed from bit 0. The writer (PutBits) writes straight into the
// destination bytes, a partial leading byte, whole bytes, then a partial
// trailing byte. The reader keeps a 64-bit accumulator (mirroring
// internal/encoding's Gorilla bit-buffer technique) so that it can refill
// a whole word with a single byte-order conversion.
package bitio

import (
	"github.com/platocmp/cmp/cmperrs"
)

// MaxBits is the largest number of bits a single PutBits call may write.
// Longer code words (such as a long unary prefix in package codec) are
// written with several calls.
const MaxBits = 32

// PutBits appends the low n bits of v, MSB-first, to dst starting at bit
// offset off, and returns the new bit offset off+n.
//
// n must be in [0, MaxBits]; v must already be masked to n bits (v &
// ((1<<n)-1) == v) — callers that might violate this must pre-mask, per the
// writer contract. n == 0 is a no-op that still returns off.
//
// dst may be nil, in which case PutBits performs no write and returns
// off+n — this is the "size only" measurement mode. When dst is non-nil and
// too small to hold bit off+n-1, PutBits returns cmperrs.ErrSmallBuf and
// leaves dst unmodified.
func PutBits(dst []byte, off int, v uint32, n int) (int, error) {
	if n == 0 {
		return off, nil
	}
	if n < 0 || n > MaxBits {
		return off, cmperrs.Wrap(cmperrs.KindParGeneric, errNBits)
	}
	if off < 0 {
		return off, cmperrs.Wrap(cmperrs.KindParGeneric, errOffset)
	}

	end := off + n
	if dst == nil {
		return end, nil
	}

	if (end+7)/8 > len(dst) {
		return off, cmperrs.ErrSmallBuf
	}

	if n < 32 {
		v &= (uint32(1) << n) - 1
	}

	byteOff := off / 8
	bitInByte := off % 8

	// Number of bits that still fit the current partial byte.
	available := 8 - bitInByte
	if available == 8 {
		available = 0
	}

	remaining := n
	value := uint64(v)

	if available > 0 {
		take := available
		if take > remaining {
			take = remaining
		}
		shift := uint(remaining - take)
		chunk := byte((value >> shift) & ((1 << take) - 1))
		mask := byte((1<<take)-1) << (available - take)
		dst[byteOff] = dst[byteOff]&^mask | (chunk << (available - take))
		remaining -= take
		byteOff++
	}

	for remaining >= 8 {
		remaining -= 8
		dst[byteOff] = byte(value >> remaining)
		byteOff++
	}

	if remaining > 0 {
		chunk := byte(value & ((1 << remaining) - 1))
		shift := 8 - remaining
		dst[byteOff] = dst[byteOff]&^(byte((1<<remaining)-1)<<shift) | (chunk << shift)
	}

	return end, nil
}

var (
	errNBits  = bitsError("n must be in [0,32]")
	errOffset = bitsError("bit offset must be >= 0")
)

type bitsError string

func (e bitsError) Error() string { return string(e) }

// MeasureBits returns the bit offset that would result from writing n bits
// at offset off, without touching any buffer — the "NULL output" / size
// query mode spelled out explicitly for callers that prefer not to pass a
// nil slice.
func MeasureBits(off int, n int) int {
	end, _ := PutBits(nil, off, 0, n)

	return end
}

// BytesForBits returns the number of bytes needed to hold nBits bits.
func BytesForBits(nBits int) int {
	return (nBits + 7) / 8
}
