// Package catalog maintains the dataset catalog as an immutable snapshot
// derived from the data directory layout:
//
//	{DATA_DIR}/{DATASET_ID}/
//	  metadata.yaml                                – dataset properties
//	  individuals.parquet                          – individual profiles
//	  {GRCh37|GRCh38}/
//	    allele-freq-chr{C}.{B}.parquet             – aggregated table shards
//	    individuals-chr{C}.{B}.parquet             – individual-variant shards
//
// A refresh builds a whole new snapshot and swaps it in atomically; queries
// bind to the snapshot they started with.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
)

// Kind selects one of the two partitioned table families.
type Kind string

const (
	KindAlleleFreq  Kind = "allele-freq"
	KindIndividuals Kind = "individuals"

	// ProfileFileName is the per-dataset individual-profile table.
	ProfileFileName = "individuals.parquet"

	MetadataFileName = "metadata.yaml"
)

var ErrCatalogUnavailable = errors.New("dataset catalog unavailable")

type (
	// Metadata is the subset of a dataset's metadata.yaml the node reads.
	Metadata struct {
		Title            string `yaml:"title"`
		Description      string `yaml:"description"`
		CatalogID        string `yaml:"catalog_id"`
		IndividualCount  *int   `yaml:"individual_count"`
		RecordCount      int    `yaml:"record_count"`
		DataProviderName string `yaml:"data_provider_name"`
	}

	// Dataset is one catalog entry with its resolved filesystem root.
	Dataset struct {
		ID         string
		Root       string
		Assemblies []partition.Assembly
		Meta       *Metadata
	}

	// Snapshot is an immutable view of the catalog. The dataset order is
	// the scan order (directory name order) and determines result order.
	Snapshot struct {
		ScannedAt time.Time
		datasets  []Dataset
	}

	// Candidate pairs a dataset with the table file that may hold a match
	// for one partition, plus the dataset's profile table path.
	Candidate struct {
		DatasetID   string
		TablePath   string
		ProfilePath string
	}
)

func (d Dataset) hasAssembly(assembly partition.Assembly) bool {
	for _, a := range d.Assemblies {
		if a == assembly {
			return true
		}
	}
	return false
}

func (d Dataset) profilePath() string {
	return filepath.Join(d.Root, ProfileFileName)
}

// tablePath builds the conventional shard path for a partition key.
func (d Dataset) tablePath(assembly partition.Assembly, kind Kind, key partition.Key) string {
	name := fmt.Sprintf("%s-chr%s.parquet", kind, key.ChrGroup())
	return filepath.Join(d.Root, string(assembly), name)
}

func NewSnapshot(datasets []Dataset) *Snapshot {
	return &Snapshot{ScannedAt: time.Now(), datasets: datasets}
}

func (s *Snapshot) Datasets() []Dataset {
	return s.datasets
}

// Candidates returns, in catalog order, the datasets whose shard file for
// the given partition exists on disk right now. Datasets without the file
// are silently excluded; for the individuals kind a dataset also needs its
// profile table.
func (s *Snapshot) Candidates(assembly partition.Assembly, kind Kind, key partition.Key) []Candidate {
	var out []Candidate
	for _, d := range s.datasets {
		if !d.hasAssembly(assembly) {
			continue
		}
		tablePath := d.tablePath(assembly, kind, key)
		if !fileExists(tablePath) {
			continue
		}
		c := Candidate{DatasetID: d.ID, TablePath: tablePath}
		if kind == KindIndividuals {
			c.ProfilePath = d.profilePath()
			if !fileExists(c.ProfilePath) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// ProfileCandidates returns every dataset that carries a profile table, for
// counting queries without a variant filter.
func (s *Snapshot) ProfileCandidates() []Candidate {
	var out []Candidate
	for _, d := range s.datasets {
		p := d.profilePath()
		if !fileExists(p) {
			continue
		}
		out = append(out, Candidate{DatasetID: d.ID, ProfilePath: p})
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Registry holds the current snapshot and a running record of files that
// failed to read. The snapshot pointer is the only cross-request state and
// is only ever replaced, never edited.
type Registry struct {
	snapshot atomic.Pointer[Snapshot]

	mu       sync.Mutex
	problems map[string]string
}

func NewRegistry() *Registry {
	return &Registry{problems: make(map[string]string)}
}

// Snapshot returns the current catalog snapshot, or ErrCatalogUnavailable
// when no scan has completed yet.
func (r *Registry) Snapshot() (*Snapshot, error) {
	s := r.snapshot.Load()
	if s == nil {
		return nil, ErrCatalogUnavailable
	}
	return s, nil
}

func (r *Registry) Swap(s *Snapshot) {
	r.snapshot.Store(s)
}

func (r *Registry) RecordIssue(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.problems[path] = err.Error()
}

func (r *Registry) ForgetIssue(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.problems, path)
}

// Problems returns a copy of the recorded file issues.
func (r *Registry) Problems() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.problems))
	for k, v := range r.problems {
		out[k] = v
	}
	return out
}
