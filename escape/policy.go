// Package escape implements the two outlier fallback mechanisms that gate
// a mapped residual to either its normal code word or a raw-bits escape:
// the single "zero" escape and the geometric "multi" escape.
//
// Per the design notes, the variant is a closed sum type determined once
// from the collection's compression mode and threaded through the
// per-sample loop as a witness — modeled here as the Policy interface with
// exactly two implementations, ZeroEscape and MultiEscape.
package escape

import (
	"math/bits"

	"github.com/platocmp/cmp/bitio"
	"github.com/platocmp/cmp/codec"
)

// Policy gates a mapped residual m through an Engine, emitting either the
// direct code word or an escape sequence for outliers.
type Policy interface {
	Encode(dst []byte, off int, m uint32, eng codec.Engine, spill uint32, maxBits uint8) (int, error)
	Decode(r *bitio.Reader, eng codec.Engine, spill uint32, maxBits uint8) (m uint32, ok bool)
	Len(m uint32, eng codec.Engine, spill uint32, maxBits uint8) int
}

// ZeroEscape reserves symbol 0 to mean "the next maxBits raw bits are the
// true (mapped+1) value"; every non-outlier value is shifted up by one so
// 0 is free to use as the escape marker.
type ZeroEscape struct{}

var _ Policy = ZeroEscape{}

func (ZeroEscape) Encode(dst []byte, off int, m uint32, eng codec.Engine, spill uint32, maxBits uint8) (int, error) {
	if spill > 0 && m < spill-1 {
		return eng.Encode(dst, off, m+1)
	}

	off, err := eng.Encode(dst, off, 0)
	if err != nil {
		return off, err
	}

	return bitio.PutBits(dst, off, m+1, int(maxBits))
}

func (ZeroEscape) Decode(r *bitio.Reader, eng codec.Engine, spill uint32, maxBits uint8) (uint32, bool) {
	sym, ok := eng.Decode(r)
	if !ok {
		return 0, false
	}
	if sym != 0 {
		return sym - 1, true
	}

	raw, ok := r.ReadBits(int(maxBits))
	if !ok {
		return 0, false
	}

	return uint32(raw) - 1, true
}

func (ZeroEscape) Len(m uint32, eng codec.Engine, spill uint32, maxBits uint8) int {
	if spill > 0 && m < spill-1 {
		return eng.Len(m + 1)
	}

	return eng.Len(0) + int(maxBits)
}

// MultiEscape encodes values below spill directly; outliers are bucketed
// by the bit-length of (m-spill) into a geometric family of escape
// symbols, each followed by a raw field sized to that bucket.
type MultiEscape struct{}

var _ Policy = MultiEscape{}

// Bucket returns the escape symbol offset and raw field width (in bits)
// for an outlier value u = m - spill. u == 0 is handled explicitly since
// clz(0) is otherwise undefined. Exported so package sizebound can derive
// the exact worst-case outlier width instead of approximating it.
func Bucket(u uint32) (idx int, rawLen int) {
	if u == 0 {
		return 0, 2
	}
	idx = (31 - bits.LeadingZeros32(u)) / 2

	return idx, 2 * (idx + 1)
}

func (MultiEscape) Encode(dst []byte, off int, m uint32, eng codec.Engine, spill uint32, maxBits uint8) (int, error) {
	if m < spill {
		return eng.Encode(dst, off, m)
	}

	u := m - spill
	idx, rawLen := Bucket(u)

	off, err := eng.Encode(dst, off, spill+uint32(idx))
	if err != nil {
		return off, err
	}

	return bitio.PutBits(dst, off, u, rawLen)
}

func (MultiEscape) Decode(r *bitio.Reader, eng codec.Engine, spill uint32, maxBits uint8) (uint32, bool) {
	sym, ok := eng.Decode(r)
	if !ok {
		return 0, false
	}
	if sym < spill {
		return sym, true
	}

	idx := int(sym - spill)
	rawLen := 2 * (idx + 1)
	u, ok := r.ReadBits(rawLen)
	if !ok {
		return 0, false
	}

	return spill + uint32(u), true
}

func (MultiEscape) Len(m uint32, eng codec.Engine, spill uint32, maxBits uint8) int {
	if m < spill {
		return eng.Len(m)
	}

	u := m - spill
	idx, rawLen := Bucket(u)

	return eng.Len(spill+uint32(idx)) + rawLen
}
