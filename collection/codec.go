package collection

import (
	"encoding/binary"
	"fmt"

	"github.com/platocmp/cmp/bitio"
	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/codec"
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/escape"
	"github.com/platocmp/cmp/predictor"
	"github.com/platocmp/cmp/residual"
)

// Samples maps each field a chunk type carries to its per-sample values,
// one slice of length NumSamples per field in EncodeInput/DecodeInput.
type Samples map[datatype.FieldKind][]uint32

// EncodeInput bundles everything the payload encoder needs for one
// collection: the shared chunk-type/mode/parameters (constant across
// every collection in the same chunk, per spec §4.F) plus this
// collection's sample data.
type EncodeInput struct {
	ChunkType  datatype.ChunkType
	Mode       datatype.CmpMode
	Params     []datatype.FieldParams // ordered as ChunkType.Fields()
	MaxBits    datatype.MaxUsedBits
	NumSamples int
	Samples    Samples
	Model      Samples // required when Mode.IsModel()
	ModelValue uint32  // v in [0,16], required when Mode.IsModel()
}

// EncodeResult carries the per-field updated-model stream produced for
// MODEL_* modes; empty for RAW/DIFF_* modes.
type EncodeResult struct {
	UpdatedModel Samples
}

func policyFor(mode datatype.CmpMode) escape.Policy {
	if mode.IsZeroEscape() {
		return escape.ZeroEscape{}
	}

	return escape.MultiEscape{}
}

func validateSample(x uint32, maxBits uint8) error {
	mask := uint32(1)<<maxBits - 1
	if maxBits >= 32 {
		mask = ^uint32(0)
	}
	if x&^mask != 0 {
		return cmperrs.Wrap(cmperrs.KindDataValueTooLarge, fmt.Errorf("sample %#x does not fit %d bits", x, maxBits))
	}

	return nil
}

// EncodePayload bit-packs in's samples (RAW mode copies bytes instead)
// into dst starting at byte offset 0, and returns the number of bytes
// written (padded to a byte boundary per spec §4.E).
func EncodePayload(dst []byte, in EncodeInput) (int, EncodeResult, error) {
	if in.Mode == datatype.ModeRaw {
		n, err := encodeRaw(dst, in.ChunkType, in.Samples, in.NumSamples)
		return n, EncodeResult{}, err
	}

	fields := in.ChunkType.Fields()
	if len(in.Params) < len(fields) {
		return 0, EncodeResult{}, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("need %d field params, got %d", len(fields), len(in.Params)))
	}

	policy := policyFor(in.Mode)
	result := EncodeResult{}
	if in.Mode.IsModel() {
		result.UpdatedModel = make(Samples, len(fields))
	}

	bitOff := 0
	for fi, field := range fields {
		maxBits, err := in.MaxBits.BitsFor(field)
		if err != nil {
			return 0, EncodeResult{}, cmperrs.Wrap(cmperrs.KindParMaxUsedBits, err)
		}

		par := in.Params[fi]
		eng, err := codec.New(par.GolombPar)
		if err != nil {
			return 0, EncodeResult{}, err
		}

		values := in.Samples[field]
		if len(values) < in.NumSamples {
			return 0, EncodeResult{}, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("field %s has %d samples, want %d", field, len(values), in.NumSamples))
		}

		var model []uint32
		var updated []uint32
		if in.Mode.IsModel() {
			model = in.Model[field]
			if len(model) < in.NumSamples {
				return 0, EncodeResult{}, cmperrs.Wrap(cmperrs.KindParNull, fmt.Errorf("field %s missing model samples", field))
			}
			updated = make([]uint32, in.NumSamples)
		}

		var state *predictor.State
		if in.Mode.IsDiff() {
			state = predictor.NewDiffState()
		} else {
			state = predictor.NewModelState()
		}

		for s := 0; s < in.NumSamples; s++ {
			x := values[s]
			if err := validateSample(x, maxBits); err != nil {
				return 0, EncodeResult{}, err
			}

			var modelSample uint32
			if in.Mode.IsModel() {
				modelSample = model[s]
			}

			pred := state.Predict(modelSample)
			resid := predictor.Residual(x, pred)
			mapped := residual.Map(resid, maxBits)

			bitOff, err = policy.Encode(dst, bitOff, mapped, eng, par.Spill, maxBits)
			if err != nil {
				return 0, EncodeResult{}, err
			}

			if in.Mode.IsModel() {
				updated[s] = predictor.UpdateModel(modelSample, x, in.ModelValue)
			}
			state.Accept(x)
		}

		if in.Mode.IsModel() {
			result.UpdatedModel[field] = updated
		}
	}

	return bitio.BytesForBits(bitOff), result, nil
}

// DecodeInput mirrors EncodeInput for the decode direction; Samples is
// ignored (it is the decoder's output).
type DecodeInput struct {
	ChunkType  datatype.ChunkType
	Mode       datatype.CmpMode
	Params     []datatype.FieldParams
	MaxBits    datatype.MaxUsedBits
	NumSamples int
	Model      Samples
	ModelValue uint32
}

// DecodeResult carries the reconstructed samples plus, for MODEL_* modes,
// the recomputed updated-model stream — which must equal the encoder's
// byte-for-byte per the round-trip invariant.
type DecodeResult struct {
	Samples      Samples
	UpdatedModel Samples
}

// DecodePayload inverts EncodePayload, reading src[:payloadLen] (RAW mode)
// or a bit-packed payload of unknown byte length up front — callers pass
// the exact payload slice (sliced by the chunk framer using the
// collection's declared length).
func DecodePayload(src []byte, in DecodeInput) (DecodeResult, error) {
	if in.Mode == datatype.ModeRaw {
		samples, err := decodeRaw(src, in.ChunkType, in.NumSamples)
		return DecodeResult{Samples: samples}, err
	}

	fields := in.ChunkType.Fields()
	if len(in.Params) < len(fields) {
		return DecodeResult{}, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("need %d field params, got %d", len(fields), len(in.Params)))
	}

	policy := policyFor(in.Mode)
	result := DecodeResult{Samples: make(Samples, len(fields))}
	if in.Mode.IsModel() {
		result.UpdatedModel = make(Samples, len(fields))
	}

	r := bitio.NewReader(src)

	for fi, field := range fields {
		maxBits, err := in.MaxBits.BitsFor(field)
		if err != nil {
			return DecodeResult{}, cmperrs.Wrap(cmperrs.KindParMaxUsedBits, err)
		}

		par := in.Params[fi]
		eng, err := codec.New(par.GolombPar)
		if err != nil {
			return DecodeResult{}, err
		}

		var model []uint32
		var updated []uint32
		if in.Mode.IsModel() {
			model = in.Model[field]
			if len(model) < in.NumSamples {
				return DecodeResult{}, cmperrs.Wrap(cmperrs.KindParNull, fmt.Errorf("field %s missing model samples", field))
			}
			updated = make([]uint32, in.NumSamples)
		}

		values := make([]uint32, in.NumSamples)

		var state *predictor.State
		if in.Mode.IsDiff() {
			state = predictor.NewDiffState()
		} else {
			state = predictor.NewModelState()
		}

		for s := 0; s < in.NumSamples; s++ {
			mapped, ok := policy.Decode(r, eng, par.Spill, maxBits)
			if !ok {
				return DecodeResult{}, cmperrs.Wrap(cmperrs.KindIntDecoder, fmt.Errorf("field %s sample %d: stream exhausted", field, s))
			}

			resid := residual.Unmap(mapped, maxBits)

			var modelSample uint32
			if in.Mode.IsModel() {
				modelSample = model[s]
			}

			pred := state.Predict(modelSample)
			// The residual was taken modulo 2^maxBits, so the sum is too.
			x := pred + resid
			if maxBits < 32 {
				x &= uint32(1)<<maxBits - 1
			}
			if err := validateSample(x, maxBits); err != nil {
				return DecodeResult{}, err
			}

			values[s] = x
			if in.Mode.IsModel() {
				updated[s] = predictor.UpdateModel(modelSample, x, in.ModelValue)
			}
			state.Accept(x)
		}

		result.Samples[field] = values
		if in.Mode.IsModel() {
			result.UpdatedModel[field] = updated
		}
	}

	return result, nil
}

func encodeRaw(dst []byte, ct datatype.ChunkType, samples Samples, numSamples int) (int, error) {
	off := 0
	for _, field := range ct.Fields() {
		width := field.ByteWidth()
		values := samples[field]
		if len(values) < numSamples {
			return 0, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("field %s has %d samples, want %d", field, len(values), numSamples))
		}
		if len(dst) < off+numSamples*width {
			return 0, cmperrs.ErrSmallBuf
		}

		for s := 0; s < numSamples; s++ {
			putRaw(dst[off:off+width], values[s], width)
			off += width
		}
	}

	return off, nil
}

func decodeRaw(src []byte, ct datatype.ChunkType, numSamples int) (Samples, error) {
	out := make(Samples, len(ct.Fields()))
	off := 0
	for _, field := range ct.Fields() {
		width := field.ByteWidth()
		if len(src) < off+numSamples*width {
			return nil, cmperrs.ErrColSizeInconsistent
		}

		values := make([]uint32, numSamples)
		for s := 0; s < numSamples; s++ {
			values[s] = getRaw(src[off:off+width], width)
			off += width
		}
		out[field] = values
	}

	return out, nil
}

func putRaw(dst []byte, v uint32, width int) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(dst, uint16(v))
	default:
		binary.BigEndian.PutUint32(dst, v)
	}
}

func getRaw(src []byte, width int) uint32 {
	switch width {
	case 1:
		return uint32(src[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(src))
	default:
		return binary.BigEndian.Uint32(src)
	}
}
