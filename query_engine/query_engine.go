// Package query_engine answers the two supported query families against the
// partitioned dataset tables: aggregated allele-frequency lookups and
// filtered individual counting.
//
// Each query is a pure function over (request, catalog snapshot, file
// contents). Invalid or unsupported input degrades to an empty result set,
// never an error, matching the Beacon contract. Per-dataset read failures
// are isolated; only an unavailable catalog fails a query.
package query_engine

import (
	"github.com/GenomicDataInfrastructure/gdi-mini-node/catalog"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/gologger"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/utils"
)

var logger = gologger.NewLogger()

type (
	// VariantQuery carries the variant request parameters. Start is the
	// 1-based position; nil means not provided.
	VariantQuery struct {
		AssemblyID     string
		ReferenceName  string
		Start          *int64
		ReferenceBases string
		AlternateBases string
		VariantType    string
	}

	// Pagination truncates the dataset-level result list, never rows
	// within a dataset.
	Pagination struct {
		Skip  int64
		Limit int64
	}

	Engine struct {
		Registry *catalog.Registry

		// Concurrency bounds the per-dataset scan fan-out.
		Concurrency int

		// HideLowerCounts censors individual counts below this value.
		HideLowerCounts int

		DefaultPageLimit int
		MaxPageLimit     int
	}
)

func NewEngine(registry *catalog.Registry) *Engine {
	return &Engine{
		Registry:         registry,
		Concurrency:      int(utils.QUERY_CONCURRENCY),
		HideLowerCounts:  int(utils.HIDE_LOWER_COUNTS),
		DefaultPageLimit: 10,
		MaxPageLimit:     int(utils.MAX_PAGE_LIMIT),
	}
}

// HasValues reports whether any variant parameter was provided at all.
func (q *VariantQuery) HasValues() bool {
	return q.AssemblyID != "" || q.ReferenceName != "" || q.Start != nil ||
		q.ReferenceBases != "" || q.AlternateBases != "" || q.VariantType != ""
}

// IsSufficient reports whether the query fully identifies one variant:
// a known assembly, a recognized chromosome, a valid 1-based position, and
// both base strings.
func (q *VariantQuery) IsSufficient() bool {
	if _, err := partition.ParseAssembly(q.AssemblyID); err != nil {
		return false
	}
	if _, err := partition.NormalizeChromosome(q.ReferenceName); err != nil {
		return false
	}
	if q.Start == nil || *q.Start < 1 {
		return false
	}
	return q.ReferenceBases != "" && q.AlternateBases != ""
}

// EffectiveVariantType returns the queried variant type, defaulting to SNP.
func (q *VariantQuery) EffectiveVariantType() string {
	if q.VariantType == "" {
		return "SNP"
	}
	return q.VariantType
}

func (e *Engine) resolvePage(page *Pagination) (skip, limit int) {
	skip = 0
	limit = e.DefaultPageLimit
	if page != nil {
		if page.Skip > 0 {
			skip = int(page.Skip)
		}
		if page.Limit > 0 {
			limit = int(page.Limit)
		}
	}
	if e.MaxPageLimit > 0 && limit > e.MaxPageLimit {
		limit = e.MaxPageLimit
	}
	return skip, limit
}

// paginate truncates the already-suppressed dataset result list.
func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
