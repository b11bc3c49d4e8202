package http_server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/beacon"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/catalog"
	"github.com/rs/zerolog"
)

const queryTimeout = time.Second * 30

type (
	ResponseSummary struct {
		Exists          bool `json:"exists"`
		NumTotalResults int  `json:"numTotalResults"`
	}

	BeaconResponse struct {
		ResponseSummary ResponseSummary   `json:"responseSummary"`
		Response        beacon.ResultSets `json:"response"`
	}
)

func beaconResponse(sets []beacon.ResultSet) BeaconResponse {
	total := 0
	for _, rs := range sets {
		total += rs.ResultsCount
	}
	resp := BeaconResponse{
		ResponseSummary: ResponseSummary{
			Exists:          len(sets) > 0,
			NumTotalResults: total,
		},
		Response: beacon.NewResultSets(),
	}
	resp.Response.ResultSets = append(resp.Response.ResultSets, sets...)
	return resp
}

func emptyBeaconResponse() BeaconResponse {
	return beaconResponse(nil)
}

// GVariantsHandler serves aggregated allele-frequency lookups for a single
// variant across all datasets.
func (s *HTTPServer) GVariantsHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), queryTimeout)
	defer cancel()

	if parseTestMode(c) || hasUnsupportedVariantParams(c) {
		return c.JSON(http.StatusOK, emptyBeaconResponse())
	}

	query := parseVariantQuery(c)
	if query == nil {
		return c.JSON(http.StatusOK, emptyBeaconResponse())
	}

	results, err := s.Engine.AlleleFrequencies(ctx, *query, parsePagination(c))
	if err != nil {
		if errors.Is(err, catalog.ErrCatalogUnavailable) {
			return c.InternalError(err, "dataset catalog not ready")
		}
		return c.InternalError(err, "error in Engine.AlleleFrequencies")
	}

	sets := make([]beacon.ResultSet, 0, len(results))
	for _, r := range results {
		sets = append(sets, beacon.NewResultSet(r.DatasetID, r.ResultsCount, []any{r.Result}))
	}

	zerolog.Ctx(ctx).Debug().Int("datasets", len(sets)).Msg("g_variants request served")
	return c.JSON(http.StatusOK, beaconResponse(sets))
}

// IndividualsHandler serves individual counting, optionally filtered by a
// variant and by sex/age clauses. Responses carry counts only: the results
// arrays stay empty by contract.
func (s *HTTPServer) IndividualsHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), queryTimeout)
	defer cancel()

	if parseTestMode(c) || nonHitResponsesRequested(c) || hasUnsupportedVariantParams(c) {
		return c.JSON(http.StatusOK, emptyBeaconResponse())
	}

	variant := parseVariantQuery(c)
	clauses := parseFilters(c.QueryParam("filters"))

	counts, err := s.Engine.IndividualCounts(ctx, variant, clauses, parsePagination(c))
	if err != nil {
		if errors.Is(err, catalog.ErrCatalogUnavailable) {
			return c.InternalError(err, "dataset catalog not ready")
		}
		return c.InternalError(err, "error in Engine.IndividualCounts")
	}

	sets := make([]beacon.ResultSet, 0, len(counts))
	for _, r := range counts {
		sets = append(sets, beacon.NewResultSet(r.DatasetID, r.ResultsCount, nil))
	}

	zerolog.Ctx(ctx).Debug().Int("datasets", len(sets)).Msg("individuals request served")
	return c.JSON(http.StatusOK, beaconResponse(sets))
}
