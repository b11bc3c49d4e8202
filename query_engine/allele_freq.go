package query_engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/beacon"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/catalog"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/parquet_reader"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
	"golang.org/x/sync/errgroup"
)

// DatasetFrequencies is one dataset's allele-frequency answer. ResultsCount
// is the number of matched population rows.
type DatasetFrequencies struct {
	DatasetID    string
	Exists       bool
	ResultsCount int
	Result       beacon.AlleleFreqResult
}

// AlleleFrequencies looks one variant up across every dataset that carries
// the variant's partition. Datasets with no match are suppressed. An
// insufficient or invalid query yields an empty list.
func (e *Engine) AlleleFrequencies(ctx context.Context, q VariantQuery, page *Pagination) ([]DatasetFrequencies, error) {
	if !q.IsSufficient() {
		logger.Debug().Msg("allele-frequency query missing required variant parameters, returning empty results")
		return nil, nil
	}

	snap, err := e.Registry.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("error in Registry.Snapshot: %w", err)
	}

	assembly, _ := partition.ParseAssembly(q.AssemblyID)
	key, err := partition.Resolve(q.ReferenceName, *q.Start)
	if err != nil {
		// IsSufficient already vetted these inputs
		return nil, nil
	}
	variantKey := e.variantKey(q)

	candidates := snap.Candidates(assembly, catalog.KindAlleleFreq, key)
	scanned := make([]*DatasetFrequencies, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			rows, err := parquet_reader.ScanAlleleFrequencies(gctx, c.TablePath, variantKey)
			if err != nil {
				return e.handleScanError(c.DatasetID, c.TablePath, err)
			}
			e.Registry.ForgetIssue(c.TablePath)
			if len(rows) == 0 {
				return nil
			}
			result := beacon.NewAlleleFreqResult(assembly, key.Chromosome, rows)
			scanned[i] = &DatasetFrequencies{
				DatasetID:    c.DatasetID,
				Exists:       true,
				ResultsCount: len(rows),
				Result:       result,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Join in catalog order, dropping suppressed datasets
	var results []DatasetFrequencies
	for _, r := range scanned {
		if r != nil {
			results = append(results, *r)
		}
	}

	skip, limit := e.resolvePage(page)
	results = paginate(results, skip, limit)

	logger.Info().
		Str("chromosome", key.Chromosome).
		Int64("bucket", key.Bucket).
		Int("candidates", len(candidates)).
		Int("datasets", len(results)).
		Msg("allele-frequency query completed")
	return results, nil
}

func (e *Engine) variantKey(q VariantQuery) parquet_reader.VariantKey {
	pos0, _ := partition.ZeroBased(*q.Start)
	return parquet_reader.VariantKey{
		Pos0:        int32(pos0),
		Ref:         q.ReferenceBases,
		Alt:         q.AlternateBases,
		VariantType: q.EffectiveVariantType(),
	}
}

// handleScanError isolates a per-dataset read failure: the file is recorded
// as problematic and the dataset drops out of this query. Only cancellation
// aborts the fan-out.
func (e *Engine) handleScanError(datasetID, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	e.Registry.RecordIssue(path, err)
	logger.Warn().Err(err).Str("dataset", datasetID).Str("path", path).Msg("excluding dataset after table read failure")
	return nil
}
