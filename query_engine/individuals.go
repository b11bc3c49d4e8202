package query_engine

import (
	"context"
	"fmt"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/catalog"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/individual_filter"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/parquet_reader"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/rangeset"
	"golang.org/x/sync/errgroup"
)

// DatasetCount is one dataset's individual-count answer. Record-level detail
// is never computed: consumers read ResultsCount only.
type DatasetCount struct {
	DatasetID    string
	Exists       bool
	ResultsCount int
}

// IndividualCounts counts individuals per dataset, filtered by an optional
// variant and optional demographic clauses. Unsupported filters yield an
// empty list for every dataset. Counts below the censoring threshold are
// suppressed along with zero counts.
func (e *Engine) IndividualCounts(ctx context.Context, variant *VariantQuery, clauses []individual_filter.Clause, page *Pagination) ([]DatasetCount, error) {
	filter, err := individual_filter.Resolve(clauses)
	if err != nil {
		logger.Info().Err(err).Msg("unsupported filters, returning empty results")
		return nil, nil
	}

	// A variant filter with partial parameters is treated as absent; the
	// query falls back to profile-only counting.
	if variant != nil && !variant.IsSufficient() {
		if variant.HasValues() {
			logger.Debug().Msg("ignoring insufficient variant parameters on individuals query")
		}
		variant = nil
	}

	snap, err := e.Registry.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("error in Registry.Snapshot: %w", err)
	}

	var candidates []catalog.Candidate
	var variantKey parquet_reader.VariantKey
	if variant != nil {
		assembly, _ := partition.ParseAssembly(variant.AssemblyID)
		key, err := partition.Resolve(variant.ReferenceName, *variant.Start)
		if err != nil {
			return nil, nil
		}
		variantKey = e.variantKey(*variant)
		candidates = snap.Candidates(assembly, catalog.KindIndividuals, key)
	} else {
		candidates = snap.ProfileCandidates()
	}

	counts := make([]int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			var count int
			var err error
			path := c.ProfilePath
			if variant != nil {
				path = c.TablePath
				count, err = e.countWithVariant(gctx, c, variantKey, filter)
			} else {
				count, err = e.countProfiles(gctx, c, filter, nil)
			}
			if err != nil {
				return e.handleScanError(c.DatasetID, path, err)
			}
			counts[i] = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []DatasetCount
	for i, count := range counts {
		// Censoring folds rare counts into the zero-result suppression
		if count < e.HideLowerCounts || count == 0 {
			continue
		}
		results = append(results, DatasetCount{
			DatasetID:    candidates[i].DatasetID,
			Exists:       true,
			ResultsCount: count,
		})
	}

	skip, limit := e.resolvePage(page)
	results = paginate(results, skip, limit)

	logger.Info().
		Bool("variant", variant != nil).
		Str("filter", filter.String()).
		Int("candidates", len(candidates)).
		Int("datasets", len(results)).
		Msg("individuals query completed")
	return results, nil
}

// countWithVariant resolves the variant's individual set first, then applies
// demographic filters against the profile table only when needed.
func (e *Engine) countWithVariant(ctx context.Context, c catalog.Candidate, key parquet_reader.VariantKey, filter *individual_filter.Filter) (int, error) {
	encoded, found, err := parquet_reader.ScanIndividuals(ctx, c.TablePath, key)
	if err != nil {
		return 0, err
	}
	e.Registry.ForgetIssue(c.TablePath)
	if !found {
		return 0, nil
	}

	indices, err := rangeset.Decode(encoded)
	if err != nil {
		return 0, fmt.Errorf("decoding INDIVIDUALS column: %w", err)
	}

	// The variant set alone answers an unfiltered count
	if filter.MatchesAll() {
		return int(indices.GetCardinality()), nil
	}

	return e.countProfiles(ctx, c, filter, func(index int32) bool {
		return index >= 0 && indices.Contains(uint32(index))
	})
}

// countProfiles counts profile rows matching the demographic filter,
// optionally restricted to a variant-derived index set.
func (e *Engine) countProfiles(ctx context.Context, c catalog.Candidate, filter *individual_filter.Filter, inVariantSet func(int32) bool) (int, error) {
	profiles, err := parquet_reader.ReadProfiles(ctx, c.ProfilePath)
	if err != nil {
		return 0, err
	}
	e.Registry.ForgetIssue(c.ProfilePath)

	count := 0
	for _, p := range profiles {
		if inVariantSet != nil && !inVariantSet(p.Index) {
			continue
		}
		if !filter.Matches(p.Sex, p.Age) {
			continue
		}
		count++
	}
	return count, nil
}
