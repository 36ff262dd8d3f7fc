package htcodec_test

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/hashtree/internal/htcodec"
	"github.com/stretchr/testify/require"
)

func TestBitset_roundTrip(t *testing.T) {
	t.Parallel()

	// Arbitrary seed values, fixed for reproducibility.
	rng := rand.New(rand.NewPCG(400, 500))

	for range 200 {
		n := rng.UintN(300)

		bs := bitset.New(n)
		for i := range n {
			if rng.IntN(2) == 1 {
				bs.Set(i)
			}
		}

		enc := htcodec.AppendBitset(nil, bs, n)
		require.Len(t, enc, 8*int((n+63)/64))

		got, rem, err := htcodec.ReadBitset(enc, n)
		require.NoError(t, err)
		require.Empty(t, rem)

		for i := range n {
			require.Equalf(t, bs.Test(i), got.Test(i), "bit %d of %d", i, n)
		}
	}
}

func TestBitset_zeroLength(t *testing.T) {
	t.Parallel()

	enc := htcodec.AppendBitset(nil, bitset.New(0), 0)
	require.Empty(t, enc)

	got, rem, err := htcodec.ReadBitset([]byte("rest"), 0)
	require.NoError(t, err)
	require.Equal(t, []byte("rest"), rem)
	require.Zero(t, got.Count())
}

func TestBitset_shortBitsetPadsWithZeros(t *testing.T) {
	t.Parallel()

	// A bitset created smaller than the requested length
	// encodes as if the missing bits were clear.
	bs := bitset.New(1)
	bs.Set(0)

	enc := htcodec.AppendBitset(nil, bs, 130)
	require.Len(t, enc, 24)

	got, _, err := htcodec.ReadBitset(enc, 130)
	require.NoError(t, err)
	require.True(t, got.Test(0))
	require.Equal(t, uint(1), got.Count())
}

func TestBitset_rejectsBitsBeyondLength(t *testing.T) {
	t.Parallel()

	bs := bitset.New(64)
	bs.Set(10)

	enc := htcodec.AppendBitset(nil, bs, 64)

	_, _, err := htcodec.ReadBitset(enc, 5)
	require.Error(t, err)
}

func TestBitset_truncated(t *testing.T) {
	t.Parallel()

	_, _, err := htcodec.ReadBitset(make([]byte, 7), 3)
	require.ErrorIs(t, err, htcodec.ErrTruncated)
}

func TestSnappyBlock_roundTrip(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte("abcdefgh"), 100)

	enc := htcodec.AppendSnappyBlock([]byte("hdr"), src)
	require.Equal(t, []byte("hdr"), enc[:3])

	// Repetitive input should actually compress.
	require.Less(t, len(enc), len(src))

	dec, rem, err := htcodec.ReadSnappyBlock(append(enc[3:], "tail"...), len(src))
	require.NoError(t, err)
	require.Equal(t, src, dec)
	require.Equal(t, []byte("tail"), rem)
}

func TestSnappyBlock_wrongLength(t *testing.T) {
	t.Parallel()

	src := []byte("some data to compress")
	enc := htcodec.AppendSnappyBlock(nil, src)

	_, _, err := htcodec.ReadSnappyBlock(enc, len(src)+1)
	require.Error(t, err)
}

func TestSnappyBlock_truncated(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte{1, 2, 3}, 50)
	enc := htcodec.AppendSnappyBlock(nil, src)

	_, _, err := htcodec.ReadSnappyBlock(enc[:len(enc)-1], len(src))
	require.ErrorIs(t, err, htcodec.ErrTruncated)

	_, _, err = htcodec.ReadSnappyBlock(enc[:4], len(src))
	require.ErrorIs(t, err, htcodec.ErrTruncated)
}
