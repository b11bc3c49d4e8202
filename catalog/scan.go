package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/gologger"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
	"gopkg.in/yaml.v3"
)

var logger = gologger.NewLogger()

// Scan walks the data directory and builds a fresh snapshot. Directory
// entries without any table file are skipped; a broken metadata.yaml is
// recorded as a problem but does not exclude the dataset's tables.
func (r *Registry) Scan(dataDir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadDir: %w", err)
	}

	var datasets []Dataset
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		root := filepath.Join(dataDir, entry.Name())

		ds := Dataset{
			ID:   entry.Name(),
			Root: root,
		}

		metaPath := filepath.Join(root, MetadataFileName)
		if fileExists(metaPath) {
			meta, err := readMetadata(metaPath)
			if err != nil {
				r.RecordIssue(metaPath, err)
				logger.Warn().Err(err).Str("path", metaPath).Msg("ignoring unparseable metadata.yaml")
			} else {
				r.ForgetIssue(metaPath)
				ds.Meta = meta
			}
		}

		for _, assembly := range partition.Assemblies {
			if hasTableFiles(filepath.Join(root, string(assembly))) {
				ds.Assemblies = append(ds.Assemblies, assembly)
			}
		}

		if len(ds.Assemblies) == 0 && !fileExists(ds.profilePath()) {
			logger.Debug().Str("dataset", ds.ID).Msg("skipping directory without table files")
			continue
		}

		datasets = append(datasets, ds)
	}

	snap := NewSnapshot(datasets)
	logger.Info().Int("datasets", len(datasets)).Str("dir", dataDir).Msg("catalog scan completed")
	return snap, nil
}

// Rescan scans and atomically swaps the new snapshot in. In-flight queries
// keep reading the snapshot they started with.
func (r *Registry) Rescan(dataDir string) error {
	snap, err := r.Scan(dataDir)
	if err != nil {
		return fmt.Errorf("error in r.Scan: %w", err)
	}
	r.Swap(snap)
	return nil
}

func readMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("error in yaml.Unmarshal: %w", err)
	}
	return &meta, nil
}

func hasTableFiles(assemblyDir string) bool {
	entries, err := os.ReadDir(assemblyDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".parquet") {
			continue
		}
		if strings.HasPrefix(name, string(KindAlleleFreq)+"-chr") ||
			strings.HasPrefix(name, string(KindIndividuals)+"-chr") {
			return true
		}
	}
	return false
}
