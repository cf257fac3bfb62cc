package bitio_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platocmp/cmp/bitio"
	"github.com/platocmp/cmp/cmperrs"
)

func TestPutBitsRoundTrip(t *testing.T) {
	type write struct {
		v uint32
		n int
	}
	writes := []write{
		{0x1, 1}, {0x0, 1}, {0x7, 3}, {0xFF, 8}, {0x12345, 20}, {0, 0},
		{0xFFFFFFFF, 32}, {0x3, 2}, {0xAB, 8}, {0x1, 1},
	}

	off := 0
	total := 0
	for _, w := range writes {
		total += w.n
	}
	buf := make([]byte, bitio.BytesForBits(total))

	offsets := make([]int, len(writes)+1)
	offsets[0] = 0
	for i, w := range writes {
		var err error
		off, err = bitio.PutBits(buf, off, w.v, w.n)
		require.NoError(t, err)
		offsets[i+1] = off
	}

	r := bitio.NewReader(buf)
	for i, w := range writes {
		n := offsets[i+1] - offsets[i]
		got, ok := r.ReadBits(n)
		require.True(t, ok)
		want := uint64(w.v)
		if n < 32 {
			want &= (1 << n) - 1
		}
		require.Equal(t, want, got, "write %d (n=%d)", i, n)
	}
}

func TestPutBitsRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	type write struct {
		v uint32
		n int
	}
	const count = 500
	writes := make([]write, count)
	total := 0
	for i := range writes {
		n := rng.Intn(33)
		v := uint32(rng.Uint64())
		if n < 32 {
			v &= (1 << n) - 1
		}
		writes[i] = write{v: v, n: n}
		total += n
	}

	buf := make([]byte, bitio.BytesForBits(total))
	off := 0
	for _, w := range writes {
		var err error
		off, err = bitio.PutBits(buf, off, w.v, w.n)
		require.NoError(t, err)
	}

	r := bitio.NewReader(buf)
	for i, w := range writes {
		got, ok := r.ReadBits(w.n)
		require.Truef(t, ok, "write %d", i)
		require.Equal(t, uint64(w.v), got, "write %d (n=%d)", i, w.n)
	}
}

func TestPutBitsSmallBuf(t *testing.T) {
	buf := make([]byte, 1)
	_, err := bitio.PutBits(buf, 4, 0xFF, 8)
	require.ErrorIs(t, err, cmperrs.ErrSmallBuf)
}

func TestPutBitsNilMeansSizeOnly(t *testing.T) {
	off, err := bitio.PutBits(nil, 10, 0x3, 5)
	require.NoError(t, err)
	require.Equal(t, 15, off)
}

func TestPutBitsZeroIsNoOp(t *testing.T) {
	buf := make([]byte, 4)
	off, err := bitio.PutBits(buf, 7, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 7, off)
}

func TestMeasureBits(t *testing.T) {
	require.Equal(t, 40, bitio.MeasureBits(8, 32))
}

func TestSegmentedWriteAcrossWordBoundary(t *testing.T) {
	// Force offset_in_word + n > 32 by writing starting at bit 20 with 20 bits,
	// spanning a 32-bit word boundary (bit 32).
	buf := make([]byte, 8)
	off, err := bitio.PutBits(buf, 20, 0xFFFFF, 20)
	require.NoError(t, err)
	require.Equal(t, 40, off)

	r := bitio.NewReader(buf)
	_, ok := r.ReadBits(20)
	require.True(t, ok)
	got, ok := r.ReadBits(20)
	require.True(t, ok)
	require.Equal(t, uint64(0xFFFFF), got)
}

func TestReadUnary(t *testing.T) {
	buf := make([]byte, 2)
	off, err := bitio.PutBits(buf, 0, 0b11110, 5)
	require.NoError(t, err)
	r := bitio.NewReader(buf)
	q, ok := r.ReadUnary()
	require.True(t, ok)
	require.Equal(t, 4, q)
	require.Equal(t, 5, r.BitPos())
	_ = off
}
