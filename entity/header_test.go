package entity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/entity"
)

func TestImagetteHeaderRoundTrip(t *testing.T) {
	h := entity.Header{
		VersionID:          entity.VersionSoftwareBit | (1 << 16) | 2,
		OriginalSize:       12,
		StartTime:          0x010203040506,
		EndTime:            0x060504030201,
		DataType:           1,
		RawMode:            false,
		CmpMode:            datatype.ModeDiffZero,
		ModelValue:         0,
		ModelID:            1,
		ModelCounter:       2,
		MaxUsedBitsVersion: 1,
		LossyCmpParUsed:    0,
	}
	trailer := entity.Trailer{Kind: entity.TrailerImagette, Imagette: entity.ImagetteParams{Spill: 8, GolombPar: 1}}

	size, err := entity.HeaderSize(datatype.NCAMImagette, trailer)
	require.NoError(t, err)
	require.Equal(t, entity.FixedHeaderSize+2, size)

	buf := make([]byte, size+100)
	n, err := entity.WriteHeader(buf, h, datatype.NCAMImagette, trailer)
	require.NoError(t, err)
	require.Equal(t, size, n)

	require.NoError(t, entity.SetSize(buf, uint32(size+50)))

	gotH, gotT, consumed, err := entity.ParseHeader(buf, datatype.NCAMImagette, false)
	require.NoError(t, err)
	require.Equal(t, size, consumed)
	require.Equal(t, uint32(size+50), gotH.Size)
	require.Equal(t, h.VersionID, gotH.VersionID)
	require.Equal(t, h.StartTime, gotH.StartTime)
	require.Equal(t, h.EndTime, gotH.EndTime)
	require.Equal(t, trailer.Imagette, gotT.Imagette)
}

func TestAdaptiveImagetteTrailerRoundTrip(t *testing.T) {
	trailer := entity.Trailer{
		Kind: entity.TrailerAdaptiveImagette,
		Adaptive: entity.AdaptiveImagetteParams{
			Spill: 8, GolombPar: 1,
			Ap1Spill: 16, Ap1GolombPar: 2,
			Ap2Spill: 32, Ap2GolombPar: 4,
		},
	}

	size, err := entity.HeaderSize(datatype.SATImagette, trailer)
	require.NoError(t, err)
	require.Equal(t, entity.FixedHeaderSize+6, size)

	buf := make([]byte, size)
	_, err = entity.WriteHeader(buf, entity.Header{}, datatype.SATImagette, trailer)
	require.NoError(t, err)

	_, gotT, _, err := entity.ParseHeader(buf, datatype.SATImagette, true)
	require.NoError(t, err)
	require.Equal(t, trailer.Adaptive, gotT.Adaptive)
}

func TestNonImagetteTrailerRoundTrip(t *testing.T) {
	params := []datatype.FieldParams{
		{GolombPar: 4, Spill: 60},
		{GolombPar: 8, Spill: 120},
		{GolombPar: 2, Spill: 30},
		{GolombPar: 2, Spill: 30},
		{GolombPar: 2, Spill: 30},
	}
	trailer := entity.Trailer{Kind: entity.TrailerNonImagette, NonImag: params}

	size, err := entity.HeaderSize(datatype.ShortCadence, trailer)
	require.NoError(t, err)
	require.Equal(t, entity.FixedHeaderSize+5*8, size)

	buf := make([]byte, size)
	_, err = entity.WriteHeader(buf, entity.Header{}, datatype.ShortCadence, trailer)
	require.NoError(t, err)

	_, gotT, _, err := entity.ParseHeader(buf, datatype.ShortCadence, false)
	require.NoError(t, err)
	require.Equal(t, params, gotT.NonImag)
}
