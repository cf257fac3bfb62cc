// Package datatype implements the type registry: the closed chunk-type
// enumeration, the ordered per-field layout each chunk type encodes, and
// the per-field max_used_bits registry that bounds every residual.
//
// Grounded on header_pars.c's data-type accessors and on the
// endian.EndianEngine singleton pattern for exposing an immutable,
// process-wide, replace-only-at-init value.
package datatype

import "fmt"

// ChunkType is the closed enumeration of logical telemetry products a
// chunk's collections can carry. Every collection in a chunk must map to
// the same ChunkType.
type ChunkType uint8

const (
	Unknown ChunkType = iota
	NCAMImagette
	SATImagette
	ShortCadence
	LongCadence
	OffsetBackground
	Smearing
	FChain
)

func (t ChunkType) String() string {
	switch t {
	case NCAMImagette:
		return "NCAM_IMAGETTE"
	case SATImagette:
		return "SAT_IMAGETTE"
	case ShortCadence:
		return "SHORT_CADENCE"
	case LongCadence:
		return "LONG_CADENCE"
	case OffsetBackground:
		return "OFFSET_BACKGROUND"
	case Smearing:
		return "SMEARING"
	case FChain:
		return "F_CHAIN"
	default:
		return "UNKNOWN"
	}
}

// IsImagette reports whether t uses the imagette trailer (single pixel
// field, 2- or 6-value parameter trailer) rather than the up-to-six-field
// cadence trailer.
func (t ChunkType) IsImagette() bool {
	return t == NCAMImagette || t == SATImagette
}

// FieldKind identifies one scalar field slot within a chunk type's
// per-sample layout.
type FieldKind uint8

const (
	FieldPixel FieldKind = iota
	FieldExpFlags
	FieldFx
	FieldNcob
	FieldEfx
	FieldEcob
	FieldFxCobVariance
)

func (f FieldKind) String() string {
	switch f {
	case FieldPixel:
		return "pixel"
	case FieldExpFlags:
		return "exp_flags"
	case FieldFx:
		return "fx"
	case FieldNcob:
		return "ncob"
	case FieldEfx:
		return "efx"
	case FieldEcob:
		return "ecob"
	case FieldFxCobVariance:
		return "fx_cob_variance"
	default:
		return "unknown"
	}
}

var layouts = map[ChunkType][]FieldKind{
	NCAMImagette:      {FieldPixel},
	SATImagette:       {FieldPixel},
	ShortCadence:      {FieldExpFlags, FieldFx, FieldNcob, FieldEfx, FieldEcob},
	LongCadence:       {FieldExpFlags, FieldFx, FieldNcob, FieldEfx, FieldEcob},
	OffsetBackground:  {FieldExpFlags, FieldFx, FieldNcob, FieldEfx, FieldEcob, FieldFxCobVariance},
	Smearing:          {FieldExpFlags, FieldFx, FieldNcob, FieldEfx, FieldEcob, FieldFxCobVariance},
	FChain:            {FieldExpFlags, FieldFx, FieldNcob, FieldEfx, FieldEcob, FieldFxCobVariance},
}

// Fields returns the ordered list of field kinds one sample of t carries.
// A nil/empty result means t is Unknown or otherwise has no defined
// layout.
func (t ChunkType) Fields() []FieldKind {
	return layouts[t]
}

// ParamSlots returns the number of (golomb_par, spill) parameter slots the
// entity trailer carries for t — one per field, matching len(Fields()).
func (t ChunkType) ParamSlots() int {
	return len(layouts[t])
}

// ByteWidth returns the raw (host-native) storage width of one sample of
// f, used by RAW mode's per-field byte-swap (spec §6, "raw compressed
// data" is the chunk with each multi-byte field byte-swapped to
// big-endian).
func (f FieldKind) ByteWidth() int {
	switch f {
	case FieldPixel:
		return 2
	case FieldExpFlags:
		return 1
	default:
		return 4
	}
}

// chunkTypeBySubservice mirrors the collection header's subservice field
// to a ChunkType. Subservice identifiers are assigned by the instrument's
// packet-structure ICD; the exact numeric assignment is not part of the
// bitstream contract (only self-consistency within one chunk is), so
// these values are an internal convention rather than a wire constant.
var chunkTypeBySubservice = map[uint8]ChunkType{
	1:  NCAMImagette,
	2:  SATImagette,
	3:  ShortCadence,
	4:  LongCadence,
	5:  OffsetBackground,
	6:  Smearing,
	7:  FChain,
}

// ChunkTypeForSubservice resolves a collection header's subservice id to
// a ChunkType. ok is false when the subservice maps to no known type
// (callers should fail with cmperrs.ErrColSubserviceUnsupported).
func ChunkTypeForSubservice(subservice uint8) (ChunkType, bool) {
	t, ok := chunkTypeBySubservice[subservice]
	return t, ok
}

// MaxUsedBits is the per-field bit-width registry: the maximum bit count
// every typed field may use, versioned so multiple registry generations
// can coexist (the entity header carries max_used_bits_version).
type MaxUsedBits struct {
	Version uint8
	Bits    map[FieldKind]uint8
}

// DefaultMaxUsedBits is the immutable, process-wide registry consulted
// when a caller does not supply an override. Per spec §5 it is read-only
// after initialization; callers needing a different generation construct
// their own MaxUsedBits and pass it explicitly rather than mutating this
// value.
var DefaultMaxUsedBits = MaxUsedBits{
	Version: 1,
	Bits: map[FieldKind]uint8{
		FieldPixel:         16,
		FieldExpFlags:      2,
		FieldFx:            32,
		FieldNcob:          32,
		FieldEfx:           32,
		FieldEcob:          32,
		FieldFxCobVariance: 32,
	},
}

// BitsFor returns the registered max_used_bits for f, or an error if f is
// not present in r.
func (r MaxUsedBits) BitsFor(f FieldKind) (uint8, error) {
	b, ok := r.Bits[f]
	if !ok {
		return 0, fmt.Errorf("datatype: field %s not present in max_used_bits registry v%d", f, r.Version)
	}

	return b, nil
}
