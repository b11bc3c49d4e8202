package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func buildDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// ds-a: both table kinds on GRCh38, with profiles and metadata
	touch(t, dir, "ds-a", "GRCh38", "allele-freq-chr17.43.parquet")
	touch(t, dir, "ds-a", "GRCh38", "individuals-chr17.43.parquet")
	touch(t, dir, "ds-a", "individuals.parquet")
	metaPath := filepath.Join(dir, "ds-a", "metadata.yaml")
	require.NoError(t, os.WriteFile(metaPath, []byte("title: Dataset A\ncatalog_id: cat-1\nrecord_count: 12\n"), 0o644))

	// ds-b: GRCh37 only, no profile table
	touch(t, dir, "ds-b", "GRCh37", "allele-freq-chr17.43.parquet")

	// ds-c: profile table only
	touch(t, dir, "ds-c", "individuals.parquet")

	// not a dataset: no table files at all
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scratch"), 0o755))

	return dir
}

func TestScan(t *testing.T) {
	reg := NewRegistry()
	snap, err := reg.Scan(buildDataDir(t))
	require.NoError(t, err)

	datasets := snap.Datasets()
	require.Len(t, datasets, 3)
	assert.Equal(t, "ds-a", datasets[0].ID)
	assert.Equal(t, "ds-b", datasets[1].ID)
	assert.Equal(t, "ds-c", datasets[2].ID)

	assert.Equal(t, []partition.Assembly{partition.AssemblyGRCh38}, datasets[0].Assemblies)
	require.NotNil(t, datasets[0].Meta)
	assert.Equal(t, "Dataset A", datasets[0].Meta.Title)
	assert.Equal(t, "cat-1", datasets[0].Meta.CatalogID)

	assert.Equal(t, []partition.Assembly{partition.AssemblyGRCh37}, datasets[1].Assemblies)
	assert.Empty(t, datasets[2].Assemblies)
}

func TestScanBadMetadata(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ds-x", "GRCh38", "allele-freq-chr1.0.parquet")
	metaPath := filepath.Join(dir, "ds-x", "metadata.yaml")
	require.NoError(t, os.WriteFile(metaPath, []byte(":\t: not yaml ["), 0o644))

	reg := NewRegistry()
	snap, err := reg.Scan(dir)
	require.NoError(t, err)

	// Dataset still listed, metadata problem recorded
	require.Len(t, snap.Datasets(), 1)
	assert.Nil(t, snap.Datasets()[0].Meta)
	assert.Contains(t, reg.Problems(), metaPath)
}

func TestCandidates(t *testing.T) {
	dir := buildDataDir(t)
	reg := NewRegistry()
	snap, err := reg.Scan(dir)
	require.NoError(t, err)

	key := partition.Key{Chromosome: "17", Bucket: 43}

	afs := snap.Candidates(partition.AssemblyGRCh38, KindAlleleFreq, key)
	require.Len(t, afs, 1)
	assert.Equal(t, "ds-a", afs[0].DatasetID)
	assert.Equal(t, filepath.Join(dir, "ds-a", "GRCh38", "allele-freq-chr17.43.parquet"), afs[0].TablePath)
	assert.Empty(t, afs[0].ProfilePath)

	// ds-b matches on GRCh37
	afs37 := snap.Candidates(partition.AssemblyGRCh37, KindAlleleFreq, key)
	require.Len(t, afs37, 1)
	assert.Equal(t, "ds-b", afs37[0].DatasetID)

	// Individuals kind requires the profile table too
	inds := snap.Candidates(partition.AssemblyGRCh38, KindIndividuals, key)
	require.Len(t, inds, 1)
	assert.Equal(t, "ds-a", inds[0].DatasetID)
	assert.Equal(t, filepath.Join(dir, "ds-a", "individuals.parquet"), inds[0].ProfilePath)

	// Different partition: no files, no candidates, no error
	assert.Empty(t, snap.Candidates(partition.AssemblyGRCh38, KindAlleleFreq, partition.Key{Chromosome: "2", Bucket: 0}))
}

func TestProfileCandidates(t *testing.T) {
	reg := NewRegistry()
	snap, err := reg.Scan(buildDataDir(t))
	require.NoError(t, err)

	profiles := snap.ProfileCandidates()
	require.Len(t, profiles, 2)
	assert.Equal(t, "ds-a", profiles[0].DatasetID)
	assert.Equal(t, "ds-c", profiles[1].DatasetID)
}

func TestRegistrySnapshotSwap(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Snapshot()
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	dir := buildDataDir(t)
	require.NoError(t, reg.Rescan(dir))

	first, err := reg.Snapshot()
	require.NoError(t, err)
	require.Len(t, first.Datasets(), 3)

	// A new dataset appears only after the next rescan; the old snapshot
	// is untouched.
	touch(t, dir, "ds-d", "individuals.parquet")
	require.NoError(t, reg.Rescan(dir))

	second, err := reg.Snapshot()
	require.NoError(t, err)
	assert.Len(t, second.Datasets(), 4)
	assert.Len(t, first.Datasets(), 3)
}

func TestRegistryProblems(t *testing.T) {
	reg := NewRegistry()
	reg.RecordIssue("/data/x.parquet", errors.New("bad footer"))
	assert.Equal(t, map[string]string{"/data/x.parquet": "bad footer"}, reg.Problems())

	reg.ForgetIssue("/data/x.parquet")
	assert.Empty(t, reg.Problems())
}
