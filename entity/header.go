// Package entity implements the self-describing compression entity: the
// fixed big-endian header, the per-data-type parameter trailer, and the
// Empty -> Sized -> Built -> Sealed build sequence.
//
// Grounded on the section package's header Parse/Bytes pattern
// and on header_pars.c's field accessor set
// (cmp_ent_get_version_id/get_size/get_ima_spill/...).
package entity

import (
	"encoding/binary"
	"fmt"

	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/endian"
)

// FixedHeaderSize is the size, in bytes, of the fixed (non-trailer) part
// of the entity header (spec §6 offsets 0-29).
const FixedHeaderSize = 30

// VersionSoftwareBit marks version_id as produced by this software codec
// (as opposed to an "ICU ASW" hardware-path producer); see the Open
// Question recorded in DESIGN.md about what the bit means when both
// paths agree on major/minor.
const VersionSoftwareBit = uint32(1) << 31

var be = endian.GetBigEndianEngine()

// Header is the fixed portion of the entity header (everything before
// the per-data-type trailer).
type Header struct {
	VersionID          uint32
	Size               uint32 // 24-bit, inclusive of header
	OriginalSize       uint32 // 24-bit
	StartTime          uint64 // 48-bit
	EndTime            uint64 // 48-bit
	DataType           uint16 // 15-bit
	RawMode            bool
	CmpMode            datatype.CmpMode
	ModelValue         uint8
	ModelID            uint8
	ModelCounter       uint8
	MaxUsedBitsVersion uint8
	LossyCmpParUsed    uint8
}

// TrailerKind selects which per-data-type parameter trailer shape a
// header carries.
type TrailerKind uint8

const (
	TrailerImagette TrailerKind = iota
	TrailerAdaptiveImagette
	TrailerNonImagette
)

// ImagetteParams is the 2-field imagette trailer: {spill, golomb_par},
// each bounded to a byte since imagette golomb_par is restricted to
// [1,63] (spec §3).
type ImagetteParams struct {
	Spill     uint8
	GolombPar uint8
}

// AdaptiveImagetteParams is the 6-field adaptive imagette trailer
// variant (spec §6 ADD, supplemented from
// cmp_ent_parese_adaptive_imagette_header).
type AdaptiveImagetteParams struct {
	Spill        uint8
	GolombPar    uint8
	Ap1Spill     uint8
	Ap1GolombPar uint8
	Ap2Spill     uint8
	Ap2GolombPar uint8
}

// Trailer carries the exact (golomb, spill) parameters recorded in the
// entity so decoding needs nothing beyond the entity itself.
type Trailer struct {
	Kind      TrailerKind
	Imagette  ImagetteParams
	Adaptive  AdaptiveImagetteParams
	NonImag   []datatype.FieldParams // one per field, ChunkType.Fields() order
}

func trailerSize(t Trailer, ct datatype.ChunkType) (int, error) {
	switch t.Kind {
	case TrailerImagette:
		return 2, nil
	case TrailerAdaptiveImagette:
		return 6, nil
	case TrailerNonImagette:
		n := ct.ParamSlots()
		if len(t.NonImag) < n {
			return 0, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("trailer needs %d field params, got %d", n, len(t.NonImag)))
		}

		return n * 8, nil // 4-byte golomb_par + 4-byte spill per field
	default:
		return 0, cmperrs.Wrap(cmperrs.KindParGeneric, fmt.Errorf("unknown trailer kind %d", t.Kind))
	}
}

// HeaderSize returns the total header size (fixed + trailer) for ct/t,
// without writing anything — the "NULL entity => size query" two-phase
// call (spec §4.G).
func HeaderSize(ct datatype.ChunkType, t Trailer) (int, error) {
	ts, err := trailerSize(t, ct)
	if err != nil {
		return 0, err
	}

	return FixedHeaderSize + ts, nil
}

// WriteHeader writes h's fixed fields and the trailer t into dst starting
// at byte 0, and returns the header size written (the entity payload
// starts immediately after). h.Size is written as given by the caller;
// SetSize can backfill it once the payload length is known (the
// create(size) -> Sized -> Built -> set_size(n) -> Sealed sequence of
// spec §4.I).
func WriteHeader(dst []byte, h Header, ct datatype.ChunkType, t Trailer) (int, error) {
	size, err := HeaderSize(ct, t)
	if err != nil {
		return 0, err
	}
	if len(dst) < size {
		return 0, cmperrs.ErrSmallBuf
	}

	be.PutUint32(dst[0:4], h.VersionID)
	put24(dst[4:7], h.Size)
	put24(dst[7:10], h.OriginalSize)
	put48(dst[10:16], h.StartTime)
	put48(dst[16:22], h.EndTime)

	dt := h.DataType & 0x7FFF
	if h.RawMode {
		dt |= 0x8000
	}
	be.PutUint16(dst[22:24], dt)

	dst[24] = byte(h.CmpMode)
	dst[25] = h.ModelValue
	dst[26] = h.ModelID
	dst[27] = h.ModelCounter
	dst[28] = h.MaxUsedBitsVersion
	dst[29] = h.LossyCmpParUsed

	if err := writeTrailer(dst[FixedHeaderSize:size], t); err != nil {
		return 0, err
	}

	return size, nil
}

// PeekKind reads just enough of a fixed header (data_type at offset 22
// and lossy_cmp_par_used at offset 29) to resolve the ChunkType and
// adaptive-imagette flag ParseHeader needs up front, before the full
// trailer shape is known. data_type's low 15 bits are the ChunkType enum
// value directly (spec §3: "data_type ... determines logical data type").
func PeekKind(src []byte) (datatype.ChunkType, bool, error) {
	if len(src) < FixedHeaderSize {
		return datatype.Unknown, false, cmperrs.ErrEntityTooSmall
	}

	dt := be.Uint16(src[22:24]) & 0x7FFF
	ct := datatype.ChunkType(dt)
	adaptive := src[29] != 0

	return ct, adaptive, nil
}

// SetSize backfills the 24-bit total-size field at offset 4, transitioning
// the entity from Built to Sealed.
func SetSize(dst []byte, size uint32) error {
	if len(dst) < 7 {
		return cmperrs.ErrEntityTooSmall
	}
	put24(dst[4:7], size)

	return nil
}

// ParseHeader inverts WriteHeader: it reads the fixed fields, then uses
// ct and the lossy_cmp_par_used-carried adaptive flag to pick the
// trailer shape, and returns the header size consumed.
func ParseHeader(src []byte, ct datatype.ChunkType, adaptive bool) (Header, Trailer, int, error) {
	if len(src) < FixedHeaderSize {
		return Header{}, Trailer{}, 0, cmperrs.ErrEntityTooSmall
	}

	h := Header{
		VersionID:    be.Uint32(src[0:4]),
		Size:         get24(src[4:7]),
		OriginalSize: get24(src[7:10]),
		StartTime:    get48(src[10:16]),
		EndTime:      get48(src[16:22]),
	}

	dt := be.Uint16(src[22:24])
	h.RawMode = dt&0x8000 != 0
	h.DataType = dt & 0x7FFF
	h.CmpMode = datatype.CmpMode(src[24])
	h.ModelValue = src[25]
	h.ModelID = src[26]
	h.ModelCounter = src[27]
	h.MaxUsedBitsVersion = src[28]
	h.LossyCmpParUsed = src[29]

	kind := TrailerNonImagette
	if ct.IsImagette() {
		kind = TrailerImagette
		if adaptive {
			kind = TrailerAdaptiveImagette
		}
	}

	t := Trailer{Kind: kind}
	ts, err := trailerSize(t, ct)
	if err != nil {
		return Header{}, Trailer{}, 0, err
	}
	if len(src) < FixedHeaderSize+ts {
		return Header{}, Trailer{}, 0, cmperrs.ErrEntityHeader
	}

	t, err = readTrailer(src[FixedHeaderSize:FixedHeaderSize+ts], kind, ct)
	if err != nil {
		return Header{}, Trailer{}, 0, err
	}

	return h, t, FixedHeaderSize + ts, nil
}

func writeTrailer(dst []byte, t Trailer) error {
	switch t.Kind {
	case TrailerImagette:
		dst[0] = t.Imagette.Spill
		dst[1] = t.Imagette.GolombPar
	case TrailerAdaptiveImagette:
		a := t.Adaptive
		dst[0], dst[1] = a.Spill, a.GolombPar
		dst[2], dst[3] = a.Ap1Spill, a.Ap1GolombPar
		dst[4], dst[5] = a.Ap2Spill, a.Ap2GolombPar
	case TrailerNonImagette:
		off := 0
		for _, p := range t.NonImag {
			be.PutUint32(dst[off:off+4], p.GolombPar)
			be.PutUint32(dst[off+4:off+8], p.Spill)
			off += 8
		}
	default:
		return cmperrs.Wrap(cmperrs.KindParGeneric, fmt.Errorf("unknown trailer kind %d", t.Kind))
	}

	return nil
}

func readTrailer(src []byte, kind TrailerKind, ct datatype.ChunkType) (Trailer, error) {
	switch kind {
	case TrailerImagette:
		return Trailer{Kind: kind, Imagette: ImagetteParams{Spill: src[0], GolombPar: src[1]}}, nil
	case TrailerAdaptiveImagette:
		return Trailer{Kind: kind, Adaptive: AdaptiveImagetteParams{
			Spill: src[0], GolombPar: src[1],
			Ap1Spill: src[2], Ap1GolombPar: src[3],
			Ap2Spill: src[4], Ap2GolombPar: src[5],
		}}, nil
	case TrailerNonImagette:
		n := ct.ParamSlots()
		fields := make([]datatype.FieldParams, n)
		off := 0
		for i := range fields {
			fields[i] = datatype.FieldParams{
				GolombPar: be.Uint32(src[off : off+4]),
				Spill:     be.Uint32(src[off+4 : off+8]),
			}
			off += 8
		}

		return Trailer{Kind: kind, NonImag: fields}, nil
	default:
		return Trailer{}, cmperrs.Wrap(cmperrs.KindParGeneric, fmt.Errorf("unknown trailer kind %d", kind))
	}
}

func put24(dst []byte, v uint32) {
	dst[0] = byte(v >> 16)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v)
}

func get24(src []byte) uint32 {
	return uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
}

func put48(dst []byte, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v<<16)
	copy(dst, tmp[:6])
}

func get48(src []byte) uint64 {
	var tmp [8]byte
	copy(tmp[2:], src[:6])

	return binary.BigEndian.Uint64(tmp[:])
}
