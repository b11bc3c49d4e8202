package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	key, err := Resolve("17", 43_044_295)
	require.NoError(t, err)
	assert.Equal(t, Key{Chromosome: "17", Bucket: 43}, key)
	assert.Equal(t, "17.43", key.ChrGroup())

	// Repeated calls are pure
	again, err := Resolve("17", 43_044_295)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestResolveBucketBoundary(t *testing.T) {
	// 1-based 1_000_000 is 0-based 999_999 -> still bucket 0
	low, err := Resolve("1", 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), low.Bucket)

	high, err := Resolve("1", 1_000_001)
	require.NoError(t, err)
	assert.Equal(t, int64(1), high.Bucket)
}

func TestNormalizeChromosome(t *testing.T) {
	for raw, want := range map[string]string{
		"1": "1", "22": "22", "x": "X", "Y": "Y",
		"m": "M", "MT": "M", "mt": "M", " 7 ": "7", "07": "7",
	} {
		got, err := NormalizeChromosome(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "0", "23", "chr1", "Z", "1.5", "-3"} {
		_, err := NormalizeChromosome(raw)
		assert.ErrorIs(t, err, ErrUnknownChromosome, raw)
	}
}

func TestResolveInvalidPosition(t *testing.T) {
	_, err := Resolve("1", 0)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = Resolve("1", -5)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestParseAssembly(t *testing.T) {
	a, err := ParseAssembly("GRCh38")
	require.NoError(t, err)
	assert.Equal(t, AssemblyGRCh38, a)

	// Assembly values are case-sensitive
	_, err = ParseAssembly("grch38")
	assert.ErrorIs(t, err, ErrUnknownAssembly)
}
