package cmp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cmp "github.com/platocmp/cmp"
	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/collection"
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/format"
	"github.com/platocmp/cmp/internal/bufpool"
)

func imagetteChunk(seq uint8, samples []uint32) cmp.Chunk {
	return cmp.Chunk{
		Header: collection.Header{
			Timestamp:  1234,
			ConfigID:   1,
			PacketType: collection.PacketTypeScience,
			Subservice: 1, // NCAMImagette
			CCDID:      1,
			Sequence:   seq,
		},
		Samples: collection.Samples{datatype.FieldPixel: samples},
	}
}

// Scenario 1: Imagette, DIFF_ZERO, golomb=1, spill=8, no model.
func TestScenario1ImagetteDiffZero(t *testing.T) {
	values := []uint32{42, 23, 1, 13, 20, 1000}
	c := imagetteChunk(0, values)

	dst := make([]byte, 4096)
	ent, _, err := cmp.CompressChunk(c, nil, dst,
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 1, Spill: 8}),
	)
	require.NoError(t, err)
	require.Equal(t, 12, entOriginalSize(t, ent))

	out, _, err := cmp.DecompressCmpEntity(ent, nil)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
}

// Scenario 2: Imagette, MODEL_MULTI, model_value=11, golomb=4, spill=60.
func TestScenario2ImagetteModelMulti(t *testing.T) {
	values := []uint32{42, 23, 1, 13, 20, 1000}
	model := collection.Samples{datatype.FieldPixel: {0, 22, 3, 42, 23, 16}}
	c := imagetteChunk(0, values)

	dst := make([]byte, 4096)
	ent, updated, err := cmp.CompressChunk(c, model, dst,
		cmp.WithMode(datatype.ModeModelMulti),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 4, Spill: 60}),
		cmp.WithModelValue(11),
	)
	require.NoError(t, err)

	out, decUpdated, err := cmp.DecompressCmpEntity(ent, model)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
	require.Equal(t, updated[datatype.FieldPixel], decUpdated[datatype.FieldPixel])
}

// Scenario 4: empty chunk -> CHUNK_TOO_SMALL.
func TestScenario4EmptyChunkFails(t *testing.T) {
	c := imagetteChunk(0, nil)
	dst := make([]byte, 4096)
	_, _, err := cmp.CompressChunk(c, nil, dst,
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 1, Spill: 8}),
	)
	require.ErrorIs(t, err, cmperrs.ErrChunkTooSmall)
}

func TestCompressChunkRejectsOutOfRangeImagetteGolombPar(t *testing.T) {
	c := imagetteChunk(0, []uint32{1, 2, 3})
	dst := make([]byte, 4096)
	_, _, err := cmp.CompressChunk(c, nil, dst,
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: datatype.MaxGolombParImagette + 1, Spill: 8}),
	)
	require.ErrorIs(t, err, cmperrs.ErrParSpecific)
}

func TestCompressChunkRejectsImagetteSpillWiderThanTrailerByte(t *testing.T) {
	c := imagetteChunk(0, []uint32{1, 2, 3})
	dst := make([]byte, 4096)
	_, _, err := cmp.CompressChunk(c, nil, dst,
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 1, Spill: 0x100}),
	)
	require.ErrorIs(t, err, cmperrs.ErrParSpecific)
}

// Scenario 6: dst_cap boundaries.
func TestScenario6DstCapBoundaries(t *testing.T) {
	values := []uint32{42, 23, 1, 13, 20, 1000}
	c := imagetteChunk(0, values)
	opts := []cmp.Option{
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 1, Spill: 8}),
	}

	bound, err := cmp.CompressChunkSizeBound(c, opts...)
	require.NoError(t, err)

	_, _, err = cmp.CompressChunk(c, nil, make([]byte, 0), opts...)
	require.ErrorIs(t, err, cmperrs.ErrSmallBuf)

	dst := make([]byte, bound)
	ent, _, err := cmp.CompressChunk(c, nil, dst, opts...)
	require.NoError(t, err)
	require.LessOrEqual(t, len(ent), bound)

	out, _, err := cmp.DecompressCmpEntity(ent, nil)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
}

func TestCompressChunkPooledRoundTrip(t *testing.T) {
	values := []uint32{42, 23, 1, 13, 20, 1000}
	c := imagetteChunk(0, values)
	opts := []cmp.Option{
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 1, Spill: 8}),
	}

	bb, _, err := cmp.CompressChunkPooled(c, nil, opts...)
	require.NoError(t, err)
	defer bufpool.PutEntityBuffer(bb)

	out, _, err := cmp.DecompressCmpEntity(bb.Bytes(), nil)
	require.NoError(t, err)
	require.Equal(t, values, out.Samples[datatype.FieldPixel])
}

func TestCompressChunksArchiveRoundTrip(t *testing.T) {
	opts := []cmp.Option{
		cmp.WithMode(datatype.ModeDiffZero),
		cmp.WithFieldParams(datatype.FieldParams{GolombPar: 1, Spill: 8}),
	}
	chunks := []cmp.Chunk{
		imagetteChunk(0, []uint32{42, 23, 1, 13, 20, 1000}),
		imagetteChunk(1, []uint32{7, 7, 8, 9}),
	}

	stream, err := cmp.CompressChunksArchive(chunks, nil, format.CompressionZstd, opts...)
	require.NoError(t, err)

	out, err := cmp.DecompressChunksArchive(stream, format.CompressionZstd, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, []uint32{42, 23, 1, 13, 20, 1000}, out[0].Samples[datatype.FieldPixel])
	require.Equal(t, []uint32{7, 7, 8, 9}, out[1].Samples[datatype.FieldPixel])
}

func entOriginalSize(t *testing.T, ent []byte) int {
	t.Helper()
	// original_size is the 3-byte big-endian field at offset 7.
	return int(ent[7])<<16 | int(ent[8])<<8 | int(ent[9])
}
