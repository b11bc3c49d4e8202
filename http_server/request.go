package http_server

import (
	"strconv"
	"strings"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/individual_filter"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/query_engine"
	"github.com/labstack/echo/v4"
)

// Variant request parameters the Beacon model defines but this node cannot
// serve. Their presence zeroes the response rather than erroring.
var unsupportedVariantParams = []string{
	"geneId",
	"mateName",
	"aminoacidChange",
	"genomicAlleleShortForm",
	"end",
	"variantMinLength",
	"variantMaxLength",
}

// Inline filter operators, longest first so "<=" is not split as "<".
var filterOperators = []string{"<=", ">=", "<", ">", "=", "!"}

func hasUnsupportedVariantParams(c echo.Context) bool {
	for _, name := range unsupportedVariantParams {
		if c.QueryParam(name) != "" {
			return true
		}
	}
	return false
}

// parseVariantQuery collects the supported variant parameters. Returns nil
// when none were provided. A malformed start is dropped, which leaves the
// query insufficient and therefore empty-resulted downstream.
func parseVariantQuery(c echo.Context) *query_engine.VariantQuery {
	q := &query_engine.VariantQuery{
		AssemblyID:     c.QueryParam("assemblyId"),
		ReferenceName:  c.QueryParam("referenceName"),
		ReferenceBases: c.QueryParam("referenceBases"),
		AlternateBases: c.QueryParam("alternateBases"),
		VariantType:    c.QueryParam("variantType"),
	}

	if raw := c.QueryParam("start"); raw != "" {
		// Ranges ("start,end") are not supported; the first value is the
		// queried position.
		first, _, _ := strings.Cut(raw, ",")
		if start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64); err == nil {
			q.Start = &start
		}
	}

	if !q.HasValues() {
		return nil
	}
	return q
}

// parseFilters splits the GET "filters" parameter into clauses. Each term is
// either a bare ontology ID (underscores standing in for colons) or an
// "{id}{op}{value}" triple. The GET grammar carries no scope, so clauses are
// scoped to individuals here.
func parseFilters(raw string) []individual_filter.Clause {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var clauses []individual_filter.Clause
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parsed := false
		for _, op := range filterOperators {
			pos := strings.Index(item, op)
			if pos <= 1 {
				continue
			}
			id := strings.TrimRight(item[:pos], ":")
			id = strings.ReplaceAll(id, "_", ":")
			clauses = append(clauses, individual_filter.Clause{
				ID:       id,
				Operator: op,
				Value:    strings.TrimSpace(item[pos+len(op):]),
				Scope:    individual_filter.RequiredScope,
			})
			parsed = true
			break
		}

		if !parsed {
			clauses = append(clauses, individual_filter.Clause{
				ID:    strings.ReplaceAll(item, "_", ":"),
				Scope: individual_filter.RequiredScope,
			})
		}
	}
	return clauses
}

func parsePagination(c echo.Context) *query_engine.Pagination {
	rawSkip := c.QueryParam("skip")
	rawLimit := c.QueryParam("limit")
	if rawSkip == "" && rawLimit == "" {
		return nil
	}

	page := &query_engine.Pagination{}
	if v, err := strconv.ParseInt(rawSkip, 10, 64); err == nil && v >= 0 {
		page.Skip = v
	}
	if v, err := strconv.ParseInt(rawLimit, 10, 64); err == nil && v >= 0 {
		page.Limit = v
	}
	return page
}

func parseTestMode(c echo.Context) bool {
	return c.QueryParam("testMode") == "true"
}

// parseIncludeResponses reports whether the requested result-set mode is
// anything other than HIT (the only supported mode).
func nonHitResponsesRequested(c echo.Context) bool {
	value := c.QueryParam("includeResultsetResponses")
	return value != "" && value != "HIT"
}
