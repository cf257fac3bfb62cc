package collection_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platocmp/cmp/collection"
	"github.com/platocmp/cmp/datatype"
)

// Scenario 1 from the testable properties: imagette, DIFF_ZERO, golomb=1,
// spill=8, samples = [42, 23, 1, 13, 20, 1000], no model.
func TestImagetteDiffZeroRoundTrip(t *testing.T) {
	ct := datatype.NCAMImagette
	values := []uint32{42, 23, 1, 13, 20, 1000}

	in := collection.EncodeInput{
		ChunkType:  ct,
		Mode:       datatype.ModeDiffZero,
		Params:     []datatype.FieldParams{{GolombPar: 1, Spill: 8}},
		MaxBits:    datatype.DefaultMaxUsedBits,
		NumSamples: len(values),
		Samples:    collection.Samples{datatype.FieldPixel: values},
	}

	buf := make([]byte, 4096)
	n, _, err := collection.EncodePayload(buf, in)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	dec := collection.DecodeInput{
		ChunkType:  ct,
		Mode:       datatype.ModeDiffZero,
		Params:     in.Params,
		MaxBits:    in.MaxBits,
		NumSamples: len(values),
	}
	out, err := collection.DecodePayload(buf[:n], dec)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
}

// Scenario 2: imagette, MODEL_MULTI, model_value=11, golomb=4, spill=60.
func TestImagetteModelMultiRoundTrip(t *testing.T) {
	ct := datatype.NCAMImagette
	values := []uint32{42, 23, 1, 13, 20, 1000}
	model := []uint32{0, 22, 3, 42, 23, 16}

	in := collection.EncodeInput{
		ChunkType:  ct,
		Mode:       datatype.ModeModelMulti,
		Params:     []datatype.FieldParams{{GolombPar: 4, Spill: 60}},
		MaxBits:    datatype.DefaultMaxUsedBits,
		NumSamples: len(values),
		Samples:    collection.Samples{datatype.FieldPixel: values},
		Model:      collection.Samples{datatype.FieldPixel: model},
		ModelValue: 11,
	}

	buf := make([]byte, 4096)
	n, res, err := collection.EncodePayload(buf, in)
	require.NoError(t, err)

	dec := collection.DecodeInput{
		ChunkType:  ct,
		Mode:       datatype.ModeModelMulti,
		Params:     in.Params,
		MaxBits:    in.MaxBits,
		NumSamples: len(values),
		Model:      in.Model,
		ModelValue: 11,
	}
	out, err := collection.DecodePayload(buf[:n], dec)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
	require.Equal(t, res.UpdatedModel[datatype.FieldPixel], out.UpdatedModel[datatype.FieldPixel])
}

func TestRawModeByteSwap(t *testing.T) {
	ct := datatype.NCAMImagette
	values := []uint32{1, 2, 0xFFFF, 300}

	in := collection.EncodeInput{
		ChunkType:  ct,
		Mode:       datatype.ModeRaw,
		NumSamples: len(values),
		Samples:    collection.Samples{datatype.FieldPixel: values},
	}

	buf := make([]byte, 64)
	n, _, err := collection.EncodePayload(buf, in)
	require.NoError(t, err)
	require.Equal(t, len(values)*2, n)
	// Each 16-bit pixel is stored big-endian: 1, 2, 0xFFFF, 300 (0x012C).
	require.Equal(t, []byte{0x00, 0x01, 0x00, 0x02, 0xFF, 0xFF, 0x01, 0x2C}, buf[:n])

	dec := collection.DecodeInput{ChunkType: ct, Mode: datatype.ModeRaw, NumSamples: len(values)}
	out, err := collection.DecodePayload(buf[:n], dec)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
}

func TestSampleTooLargeFails(t *testing.T) {
	ct := datatype.NCAMImagette
	in := collection.EncodeInput{
		ChunkType:  ct,
		Mode:       datatype.ModeDiffZero,
		Params:     []datatype.FieldParams{{GolombPar: 1, Spill: 8}},
		MaxBits:    datatype.DefaultMaxUsedBits,
		NumSamples: 1,
		Samples:    collection.Samples{datatype.FieldPixel: {1 << 20}},
	}

	buf := make([]byte, 64)
	_, _, err := collection.EncodePayload(buf, in)
	require.Error(t, err)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := collection.Header{
		Timestamp:  0x0001020304,
		ConfigID:   7,
		PacketType: collection.PacketTypeScience,
		Subservice: 1,
		CCDID:      2,
		Sequence:   3,
	}

	buf := make([]byte, collection.HeaderSize)
	n, err := collection.PutHeader(buf, 0, h)
	require.NoError(t, err)
	require.Equal(t, collection.HeaderSize, n)

	got, consumed, err := collection.ParseHeader(buf, 0)
	require.NoError(t, err)
	require.Equal(t, collection.HeaderSize, consumed)
	require.Equal(t, h, got)
}
