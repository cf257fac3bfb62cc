// Package sizebound implements compress_chunk_cmp_size_bound: a
// conservative upper bound on the encoded size of a chunk, computed from
// the same (golomb_par, spill) per field the encoder will actually use —
// not from an assumed operating point — so the bound holds for every
// caller-chosen parameter, not just a "well-behaved" one.
package sizebound

import (
	"github.com/platocmp/cmp/bitio"
	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/codec"
	"github.com/platocmp/cmp/collection"
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/entity"
	"github.com/platocmp/cmp/escape"
)

// CollectionShape is the minimum a caller must know about one collection
// to bound its size: how many samples it carries.
type CollectionShape struct {
	NumSamples int
}

// maxMappedValue is the largest value residual.Map can produce for a
// maxBits-bit residual: the mapping is a bijection of the maxBits-bit
// domain onto [0, 2^maxBits), so its maximum is that domain's size minus
// one.
func maxMappedValue(maxBits uint8) uint32 {
	if maxBits >= 32 {
		return ^uint32(0)
	}

	return uint32(1)<<maxBits - 1
}

// worstCaseBitsPerSample returns the longest code word escape.ZeroEscape
// or escape.MultiEscape can produce for any maxBits-bit residual under a
// field's actual golomb_par/spill. Both policies' Len grows monotonically
// in the mapped value within each of their branches (the unary prefix
// only lengthens as its argument grows), so the worst case in each branch
// is pinned at that branch's largest reachable argument — no need to
// enumerate the (up to 2^32) mapped values a field could take.
func worstCaseBitsPerSample(maxBits uint8, par datatype.FieldParams, multiEscape bool) (int, error) {
	eng, err := codec.New(par.GolombPar)
	if err != nil {
		return 0, err
	}

	maxMapped := maxMappedValue(maxBits)
	if multiEscape {
		return multiEscapeWorstBits(eng, par.Spill, maxMapped), nil
	}

	return zeroEscapeWorstBits(eng, par.Spill, maxMapped, maxBits), nil
}

// zeroEscapeWorstBits mirrors escape.ZeroEscape.Len's two branches: the
// shifted-direct branch (m < spill-1) tops out at m == spill-2, the
// escape branch is a fixed eng.Len(0)+maxBits regardless of m.
func zeroEscapeWorstBits(eng codec.Engine, spill uint32, maxMapped uint32, maxBits uint8) int {
	escapeBits := eng.Len(0) + int(maxBits)
	if spill < 2 {
		return escapeBits
	}

	top := spill - 2
	if top > maxMapped {
		top = maxMapped
	}

	if directBits := eng.Len(top + 1); directBits > escapeBits {
		return directBits
	}

	return escapeBits
}

// multiEscapeWorstBits mirrors escape.MultiEscape.Len's two branches: the
// direct branch (m < spill) tops out at m == spill-1, the outlier branch
// tops out at the largest reachable u = maxMapped-spill, bucketed exactly
// as escape.Bucket would.
func multiEscapeWorstBits(eng codec.Engine, spill uint32, maxMapped uint32) int {
	if maxMapped < spill {
		return eng.Len(maxMapped)
	}

	var directBits int
	if spill > 0 {
		directBits = eng.Len(spill - 1)
	}

	u := maxMapped - spill
	idx, rawLen := escape.Bucket(u)
	outlierBits := eng.Len(spill+uint32(idx)) + rawLen

	if directBits > outlierBits {
		return directBits
	}

	return outlierBits
}

func fieldBound(field datatype.FieldKind, maxBits uint8, par datatype.FieldParams, multiEscape bool, numSamples int) (int, error) {
	rawBytes := numSamples * field.ByteWidth()

	bitsPerSample, err := worstCaseBitsPerSample(maxBits, par, multiEscape)
	if err != nil {
		return 0, err
	}
	codedBytes := bitio.BytesForBits(numSamples * bitsPerSample)

	if rawBytes > codedBytes {
		return rawBytes, nil
	}

	return codedBytes, nil
}

// CollectionBound returns the worst-case byte count for one collection's
// header + length slot + payload, given the mode and per-field
// (golomb_par, spill) the encoder will use (params, ordered as
// ct.Fields(), is ignored for ModeRaw).
func CollectionBound(ct datatype.ChunkType, shape CollectionShape, maxBits datatype.MaxUsedBits, mode datatype.CmpMode, params []datatype.FieldParams) (int, error) {
	total := collection.HeaderSize + collection.LengthSlotSize
	fields := ct.Fields()

	if mode == datatype.ModeRaw {
		for _, field := range fields {
			total += shape.NumSamples * field.ByteWidth()
		}

		return total, nil
	}

	if len(params) < len(fields) {
		return 0, cmperrs.ErrParSpecific
	}

	multiEscape := mode.IsMultiEscape()
	for i, field := range fields {
		b, err := maxBits.BitsFor(field)
		if err != nil {
			return 0, cmperrs.Wrap(cmperrs.KindParMaxUsedBits, err)
		}

		fb, err := fieldBound(field, b, params[i], multiEscape, shape.NumSamples)
		if err != nil {
			return 0, err
		}
		total += fb
	}

	return total, nil
}

// ChunkBound returns the worst-case size of the whole entity (header +
// every collection), matching spec §4.H's compress_chunk_cmp_size_bound.
func ChunkBound(ct datatype.ChunkType, shapes []CollectionShape, maxBits datatype.MaxUsedBits, mode datatype.CmpMode, params []datatype.FieldParams, trailer entity.Trailer) (int, error) {
	headerSize, err := entity.HeaderSize(ct, trailer)
	if err != nil {
		return 0, err
	}

	total := headerSize
	for _, shape := range shapes {
		cb, err := CollectionBound(ct, shape, maxBits, mode, params)
		if err != nil {
			return 0, err
		}
		total += cb
	}

	return total, nil
}
