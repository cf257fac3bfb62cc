// Package chunk implements the chunk framer: it walks the ordered
// collections of a chunk, picks the chunk type from the first
// collection's subservice, validates every later collection agrees, and
// emits/parses the length-prefixed collection stream that becomes the
// entity payload.
//
// Grounded on lib/cmp_icu_new.c's per-collection encode loop and on the
// original cmp_cal_size_of_data(samples, type) convention of taking the
// per-collection sample count as an explicit caller-supplied parameter
// (the wire format carries encoded byte length, not sample count).
package chunk

import (
	"fmt"

	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/collection"
	"github.com/platocmp/cmp/datatype"
)

// Collection is one caller-supplied collection: its header, its sample
// count (the wire format has no field for this — see package doc), and
// its sample/model data.
type Collection struct {
	Header     collection.Header
	NumSamples int
	Samples    collection.Samples
	Model      collection.Samples
}

// EncodeInput bundles the chunk-wide compression parameters (shared by
// every collection in one chunk, per spec §4.F) and the collections to
// encode.
type EncodeInput struct {
	Mode        datatype.CmpMode
	Params      []datatype.FieldParams
	MaxBits     datatype.MaxUsedBits
	ModelValue  uint32
	Collections []Collection
}

// EncodeResult reports the chunk type the framer resolved and, for
// MODEL_* modes, the updated model per collection (same order/length as
// EncodeInput.Collections).
type EncodeResult struct {
	ChunkType    datatype.ChunkType
	UpdatedModel []collection.Samples
}

// Encode writes every collection's header + length slot + payload
// back-to-back into dst starting at byte 0, and returns the total byte
// count written.
func Encode(dst []byte, in EncodeInput) (int, EncodeResult, error) {
	if len(in.Collections) == 0 {
		return 0, EncodeResult{}, cmperrs.ErrChunkTooSmall
	}

	ct, err := resolveChunkType(in.Collections)
	if err != nil {
		return 0, EncodeResult{}, err
	}

	result := EncodeResult{ChunkType: ct}
	if in.Mode.IsModel() {
		result.UpdatedModel = make([]collection.Samples, len(in.Collections))
	}

	off := 0
	for i, col := range in.Collections {
		off, err = collection.PutHeader(dst, off, col.Header)
		if err != nil {
			return 0, EncodeResult{}, err
		}

		lenSlotOff := off
		off += collection.LengthSlotSize
		if len(dst) < off {
			return 0, EncodeResult{}, cmperrs.ErrSmallBuf
		}

		payloadStart := off
		encIn := collection.EncodeInput{
			ChunkType:  ct,
			Mode:       in.Mode,
			Params:     in.Params,
			MaxBits:    in.MaxBits,
			NumSamples: col.NumSamples,
			Samples:    col.Samples,
			Model:      col.Model,
			ModelValue: in.ModelValue,
		}

		var n int
		var colResult collection.EncodeResult
		n, colResult, err = collection.EncodePayload(dst[payloadStart:], encIn)
		if err != nil {
			return 0, EncodeResult{}, err
		}
		if n > collection.MaxPayloadSize {
			return 0, EncodeResult{}, cmperrs.ErrIntCmpColTooLarge
		}

		putLen16(dst, lenSlotOff, n)
		off = payloadStart + n

		if in.Mode.IsModel() {
			result.UpdatedModel[i] = colResult.UpdatedModel
		}
	}

	return off, result, nil
}

// DecodeInput mirrors EncodeInput for decoding. NumSamples and Model
// supply, per collection in wire order, the header-independent fields
// the decoder cannot recover from the bitstream alone (sample count and,
// for MODEL_* modes, the model buffer) — the same information the caller
// passed to Encode.
type DecodeInput struct {
	Mode               datatype.CmpMode
	Params             []datatype.FieldParams
	MaxBits            datatype.MaxUsedBits
	ModelValue         uint32
	ExpectedChunkType  datatype.ChunkType
	NumSamples         []int
	Model              []collection.Samples
}

// DecodedCollection is one parsed collection: its header and reconstructed
// samples/updated-model.
type DecodedCollection struct {
	Header       collection.Header
	Samples      collection.Samples
	UpdatedModel collection.Samples
}

// Decode walks src, which holds one or more back-to-back
// header+length+payload collections, until every collection named by
// in.NumSamples has been consumed.
func Decode(src []byte, in DecodeInput) ([]DecodedCollection, int, error) {
	if len(in.NumSamples) == 0 {
		return nil, 0, cmperrs.ErrChunkTooSmall
	}

	out := make([]DecodedCollection, 0, len(in.NumSamples))
	off := 0

	for i, numSamples := range in.NumSamples {
		header, next, err := collection.ParseHeader(src, off)
		if err != nil {
			return nil, 0, err
		}
		off = next

		ct, ok := datatype.ChunkTypeForSubservice(header.Subservice)
		if !ok {
			return nil, 0, cmperrs.ErrColSubserviceUnsupported
		}
		if ct != in.ExpectedChunkType {
			return nil, 0, cmperrs.Wrap(cmperrs.KindChunkSubserviceInconsistent,
				fmt.Errorf("collection %d: chunk type %s != %s", i, ct, in.ExpectedChunkType))
		}

		if len(src) < off+collection.LengthSlotSize {
			return nil, 0, cmperrs.ErrColSizeInconsistent
		}
		payloadLen := getLen16(src, off)
		off += collection.LengthSlotSize

		if len(src) < off+payloadLen {
			return nil, 0, cmperrs.ErrColSizeInconsistent
		}

		var model collection.Samples
		if in.Mode.IsModel() {
			if i >= len(in.Model) {
				return nil, 0, cmperrs.ErrParNull
			}
			model = in.Model[i]
		}

		decIn := collection.DecodeInput{
			ChunkType:  ct,
			Mode:       in.Mode,
			Params:     in.Params,
			MaxBits:    in.MaxBits,
			NumSamples: numSamples,
			Model:      model,
			ModelValue: in.ModelValue,
		}

		colResult, err := collection.DecodePayload(src[off:off+payloadLen], decIn)
		if err != nil {
			return nil, 0, err
		}

		out = append(out, DecodedCollection{
			Header:       header,
			Samples:      colResult.Samples,
			UpdatedModel: colResult.UpdatedModel,
		})
		off += payloadLen
	}

	return out, off, nil
}

func resolveChunkType(cols []Collection) (datatype.ChunkType, error) {
	ct, ok := datatype.ChunkTypeForSubservice(cols[0].Header.Subservice)
	if !ok {
		return datatype.Unknown, cmperrs.ErrColSubserviceUnsupported
	}

	for i := 1; i < len(cols); i++ {
		other, ok := datatype.ChunkTypeForSubservice(cols[i].Header.Subservice)
		if !ok {
			return datatype.Unknown, cmperrs.ErrColSubserviceUnsupported
		}
		if other != ct {
			return datatype.Unknown, cmperrs.Wrap(cmperrs.KindChunkSubserviceInconsistent,
				fmt.Errorf("collection %d: chunk type %s != %s", i, other, ct))
		}
	}

	return ct, nil
}

func putLen16(dst []byte, off, v int) {
	dst[off] = byte(v >> 8)
	dst[off+1] = byte(v)
}

func getLen16(src []byte, off int) int {
	return int(src[off])<<8 | int(src[off+1])
}
