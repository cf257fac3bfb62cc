// Package codec implements the Rice and Golomb symbol encoders/decoders
// used to turn a mapped residual (see package residual) into a variable
// length code word. The raw fixed-width bits of the escape path are not
// an engine here: package escape writes them directly with bitio.PutBits.
//
// Per spec, implementations must select the Rice engine whenever the
// Golomb parameter g is a power of two (both for performance and because
// it sidesteps an undefined-shift edge case at k == 31), and the general
// Golomb engine otherwise. New picks the right one automatically.
package codec

import (
	"fmt"
	"math/bits"

	"github.com/platocmp/cmp/bitio"
	"github.com/platocmp/cmp/cmperrs"
)

// Engine encodes/decodes unsigned symbols with a variable-length code.
type Engine interface {
	// Encode appends the code word for v at bit offset off in dst, and
	// returns the new offset. dst may be nil for size-only measurement.
	Encode(dst []byte, off int, v uint32) (int, error)
	// Decode reads one code word from r and returns the decoded symbol.
	// ok is false if the stream ran out before a full code word was read.
	Decode(r *bitio.Reader) (v uint32, ok bool)
	// Len returns the bit length of the code word Encode would produce
	// for v, without writing anything.
	Len(v uint32) int
}

// MaxGolombPar is the largest Golomb parameter accepted by New, matching
// the non-imagette bound (2^32-2).
const MaxGolombPar = 1<<32 - 2

// New returns the Rice engine if g is a power of two, and the general
// Golomb engine otherwise. g must be in [1, MaxGolombPar].
func New(g uint32) (Engine, error) {
	if g < 1 || g > MaxGolombPar {
		return nil, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("golomb parameter %d out of range [1,%d]", g, MaxGolombPar))
	}

	if g&(g-1) == 0 {
		k := uint8(bits.TrailingZeros32(g))
		return riceEngine{g: g, k: k}, nil
	}

	b := uint8(bits.Len32(g) - 1) // floor(log2 g)
	cutoff := (uint32(1) << (b + 1)) - g

	return golombEngine{g: g, b: b, cutoff: cutoff}, nil
}

// writeUnary appends q one-bits followed by a terminating zero bit,
// splitting into 32-bit chunks since bitio.PutBits accepts at most 32
// bits per call.
func writeUnary(dst []byte, off int, q uint32) (int, error) {
	var err error
	for q >= 32 {
		off, err = bitio.PutBits(dst, off, 0xFFFFFFFF, 32)
		if err != nil {
			return off, err
		}
		q -= 32
	}
	if q > 0 {
		off, err = bitio.PutBits(dst, off, (uint32(1)<<q)-1, int(q))
		if err != nil {
			return off, err
		}
	}

	return bitio.PutBits(dst, off, 0, 1)
}

func unaryLen(q uint32) int {
	return int(q) + 1
}

// riceEngine implements Rice(g) for g a power of two (g == 1<<k).
//
// Grounded on lib/cmp_icu_new.c: Rice_encoder — quotient q = v>>k written
// as q ones + a zero, remainder r = v & (g-1) written in k bits. The
// decoder's unary-then-fixed-width read is the textbook Rice inverse
// (the original source only carries the encode half).
type riceEngine struct {
	g uint32
	k uint8
}

var _ Engine = riceEngine{}

func (e riceEngine) Len(v uint32) int {
	q := v >> e.k

	return unaryLen(q) + int(e.k)
}

func (e riceEngine) Encode(dst []byte, off int, v uint32) (int, error) {
	q := v >> e.k
	r := v & (e.g - 1)

	off, err := writeUnary(dst, off, q)
	if err != nil {
		return off, err
	}

	return bitio.PutBits(dst, off, r, int(e.k))
}

func (e riceEngine) Decode(r *bitio.Reader) (uint32, bool) {
	q, ok := r.ReadUnary()
	if !ok {
		return 0, false
	}

	rem, ok := r.ReadBits(int(e.k))
	if !ok {
		return 0, false
	}

	return uint32(q)<<e.k | uint32(rem), true
}

// golombEngine implements the general (non-power-of-two) Golomb code as
// the canonical truncated-binary code: quotient q = v/g in unary,
// remainder r = v%g in b bits if r < cutoff else in b+1 bits (offset by
// cutoff), where b = floor(log2 g) and cutoff = 2^(b+1) - g.
//
// The group/cutoff split mirrors lib/cmp_icu_new.c: Golomb_encoder's
// "group 0 / other groups" structure; the exact field-width algebra used
// here is the standard truncated-binary form since the decode half (not
// present in original_source) must be unambiguous.
type golombEngine struct {
	g      uint32
	b      uint8
	cutoff uint32
}

var _ Engine = golombEngine{}

func (e golombEngine) Len(v uint32) int {
	q := v / e.g
	r := v % e.g
	if r < e.cutoff {
		return unaryLen(q) + int(e.b)
	}

	return unaryLen(q) + int(e.b) + 1
}

func (e golombEngine) Encode(dst []byte, off int, v uint32) (int, error) {
	q := v / e.g
	r := v % e.g

	off, err := writeUnary(dst, off, q)
	if err != nil {
		return off, err
	}

	if r < e.cutoff {
		return bitio.PutBits(dst, off, r, int(e.b))
	}

	return bitio.PutBits(dst, off, r+e.cutoff, int(e.b)+1)
}

func (e golombEngine) Decode(r *bitio.Reader) (uint32, bool) {
	q, ok := r.ReadUnary()
	if !ok {
		return 0, false
	}

	x, ok := r.Peek(int(e.b))
	if !ok {
		return 0, false
	}

	var rem uint32
	if uint32(x) < e.cutoff {
		r.Consume(int(e.b))
		rem = uint32(x)
	} else {
		y, ok := r.ReadBits(int(e.b) + 1)
		if !ok {
			return 0, false
		}
		rem = uint32(y) - e.cutoff
	}

	return uint32(q)*e.g + rem, true
}
