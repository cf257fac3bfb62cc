package datatype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platocmp/cmp/datatype"
)

func TestChunkTypeFields(t *testing.T) {
	require.Equal(t, []datatype.FieldKind{datatype.FieldPixel}, datatype.NCAMImagette.Fields())
	require.Len(t, datatype.ShortCadence.Fields(), 5)
	require.Len(t, datatype.Smearing.Fields(), 6)
	require.Nil(t, datatype.Unknown.Fields())
}

func TestChunkTypeForSubservice(t *testing.T) {
	ct, ok := datatype.ChunkTypeForSubservice(1)
	require.True(t, ok)
	require.Equal(t, datatype.NCAMImagette, ct)

	_, ok = datatype.ChunkTypeForSubservice(99)
	require.False(t, ok)
}

func TestDefaultMaxUsedBits(t *testing.T) {
	b, err := datatype.DefaultMaxUsedBits.BitsFor(datatype.FieldPixel)
	require.NoError(t, err)
	require.Equal(t, uint8(16), b)

	_, err = datatype.DefaultMaxUsedBits.BitsFor(datatype.FieldKind(255))
	require.Error(t, err)
}

func TestIsImagette(t *testing.T) {
	require.True(t, datatype.NCAMImagette.IsImagette())
	require.True(t, datatype.SATImagette.IsImagette())
	require.False(t, datatype.ShortCadence.IsImagette())
}
