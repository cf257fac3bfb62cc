package sizebound_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platocmp/cmp/chunk"
	"github.com/platocmp/cmp/codec"
	"github.com/platocmp/cmp/collection"
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/entity"
	"github.com/platocmp/cmp/sizebound"
)

func TestChunkBoundNeverUnderestimatesImagette(t *testing.T) {
	trailer := entity.Trailer{Kind: entity.TrailerImagette, Imagette: entity.ImagetteParams{Spill: 8, GolombPar: 1}}
	shapes := []sizebound.CollectionShape{{NumSamples: 6}}
	params := []datatype.FieldParams{{GolombPar: 1, Spill: 8}}

	bound, err := sizebound.ChunkBound(datatype.NCAMImagette, shapes, datatype.DefaultMaxUsedBits, datatype.ModeDiffZero, params, trailer)
	require.NoError(t, err)
	require.Greater(t, bound, 0)

	// Encode the same six samples and check the realized entity fits.
	buf := make([]byte, 4096)
	n, _, err := chunk.Encode(buf, chunk.EncodeInput{
		Mode:    datatype.ModeDiffZero,
		Params:  params,
		MaxBits: datatype.DefaultMaxUsedBits,
		Collections: []chunk.Collection{{
			Header:     collection.Header{PacketType: collection.PacketTypeScience, Subservice: 1},
			NumSamples: 6,
			Samples:    collection.Samples{datatype.FieldPixel: {42, 23, 1, 13, 20, 1000}},
		}},
	})
	require.NoError(t, err)
	headerSize, err := entity.HeaderSize(datatype.NCAMImagette, trailer)
	require.NoError(t, err)
	require.GreaterOrEqual(t, bound, headerSize+n)
}

func TestCollectionBoundScalesWithSamples(t *testing.T) {
	params := []datatype.FieldParams{{GolombPar: 1, Spill: 8}}

	small, err := sizebound.CollectionBound(datatype.NCAMImagette, sizebound.CollectionShape{NumSamples: 1}, datatype.DefaultMaxUsedBits, datatype.ModeDiffZero, params)
	require.NoError(t, err)

	large, err := sizebound.CollectionBound(datatype.NCAMImagette, sizebound.CollectionShape{NumSamples: 100}, datatype.DefaultMaxUsedBits, datatype.ModeDiffZero, params)
	require.NoError(t, err)

	require.Less(t, small, large)
}

// TestCollectionBoundHonorsSmallGolombLargeSpill is the exact scenario a
// fixed maxBits+2 approximation used to miss: a small golomb_par paired
// with a large spill produces a long unary prefix well past maxBits+2
// bits, and the bound must account for it.
func TestCollectionBoundHonorsSmallGolombLargeSpill(t *testing.T) {
	maxBits := uint8(16)
	par := datatype.FieldParams{GolombPar: 2, Spill: 60}
	params := []datatype.FieldParams{par}

	bound, err := sizebound.CollectionBound(datatype.NCAMImagette, sizebound.CollectionShape{NumSamples: 1}, datatype.DefaultMaxUsedBits, datatype.ModeDiffZero, params)
	require.NoError(t, err)

	eng, err := codec.New(par.GolombPar)
	require.NoError(t, err)

	// The non-outlier residual closest to spill (m = spill-2, shifted to
	// spill-1 by the zero escape) realizes the longest non-escape code
	// word for this (golomb_par, spill) pair.
	realizedBits := eng.Len(par.Spill - 1)

	headerAndSlot := 12 + 2
	require.GreaterOrEqual(t, (bound-headerAndSlot)*8, realizedBits)
	require.Greater(t, realizedBits, int(maxBits)+2, "scenario should exceed the old maxBits+2 approximation")
}
