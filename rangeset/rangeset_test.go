package rangeset

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	bm, err := Decode("4,11,22-43,50")
	require.NoError(t, err)

	assert.Equal(t, uint64(25), bm.GetCardinality())
	assert.True(t, bm.Contains(4))
	assert.True(t, bm.Contains(11))
	assert.True(t, bm.Contains(22))
	assert.True(t, bm.Contains(30))
	assert.True(t, bm.Contains(43))
	assert.True(t, bm.Contains(50))
	assert.False(t, bm.Contains(21))
	assert.False(t, bm.Contains(44))
}

func TestDecodeSingle(t *testing.T) {
	bm, err := Decode("0")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bm.GetCardinality())
	assert.True(t, bm.Contains(0))
}

func TestDecodeSingletonRange(t *testing.T) {
	bm, err := Decode("7-7")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bm.GetCardinality())
	assert.True(t, bm.Contains(7))
}

func TestDecodeErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"5-3",
		"a-b",
		"1,,3",
		"-1",
		"4-",
		"1;2",
		"1.5",
		"3,x",
	} {
		_, err := Decode(s)
		assert.ErrorIs(t, err, ErrBadRangeToken, "input %q", s)
	}
}

func TestEncode(t *testing.T) {
	bm := roaring.New()
	for _, v := range []uint32{4, 11, 50} {
		bm.Add(v)
	}
	bm.AddRange(22, 44)

	assert.Equal(t, "4,11,22-43,50", Encode(bm))
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Encode(roaring.New()))
}

func TestEncodeAdjacentSingles(t *testing.T) {
	bm := roaring.New()
	bm.Add(1)
	bm.Add(2)
	assert.Equal(t, "1-2", Encode(bm))
}

func TestRoundTrip(t *testing.T) {
	const s = "0,2-5,9,100-200,4000000000"
	bm, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, s, Encode(bm))
}
