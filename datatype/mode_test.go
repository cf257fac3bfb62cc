package datatype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platocmp/cmp/datatype"
)

func TestCmpModeClassification(t *testing.T) {
	require.True(t, datatype.ModeModelZero.IsModel())
	require.True(t, datatype.ModeModelZero.IsZeroEscape())
	require.False(t, datatype.ModeModelZero.IsDiff())

	require.True(t, datatype.ModeDiffMulti.IsDiff())
	require.True(t, datatype.ModeDiffMulti.IsMultiEscape())
	require.False(t, datatype.ModeDiffMulti.IsModel())
}

func TestMaxGolombParFor(t *testing.T) {
	require.Equal(t, uint32(datatype.MaxGolombParImagette), datatype.MaxGolombParFor(datatype.NCAMImagette))
	require.Equal(t, uint32(datatype.MaxGolombParOther), datatype.MaxGolombParFor(datatype.ShortCadence))
}
