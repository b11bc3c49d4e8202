package http_server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/individual_filter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParseVariantQuery(t *testing.T) {
	c := testContext(t, "/api/g_variants?assemblyId=GRCh38&referenceName=1&start=100&referenceBases=A&alternateBases=T")
	q := parseVariantQuery(c)
	require.NotNil(t, q)
	assert.Equal(t, "GRCh38", q.AssemblyID)
	assert.Equal(t, "1", q.ReferenceName)
	require.NotNil(t, q.Start)
	assert.Equal(t, int64(100), *q.Start)
	assert.True(t, q.IsSufficient())
	assert.Equal(t, "SNP", q.EffectiveVariantType())
}

func TestParseVariantQueryAbsent(t *testing.T) {
	assert.Nil(t, parseVariantQuery(testContext(t, "/api/g_variants")))
}

func TestParseVariantQueryMalformedStart(t *testing.T) {
	c := testContext(t, "/api/g_variants?assemblyId=GRCh38&referenceName=1&start=abc&referenceBases=A&alternateBases=T")
	q := parseVariantQuery(c)
	require.NotNil(t, q)
	assert.Nil(t, q.Start)
	assert.False(t, q.IsSufficient())
}

func TestParseVariantQueryStartRange(t *testing.T) {
	c := testContext(t, "/api/g_variants?assemblyId=GRCh38&referenceName=1&start=100,200&referenceBases=A&alternateBases=T")
	q := parseVariantQuery(c)
	require.NotNil(t, q)
	require.NotNil(t, q.Start)
	assert.Equal(t, int64(100), *q.Start)
}

func TestHasUnsupportedVariantParams(t *testing.T) {
	assert.True(t, hasUnsupportedVariantParams(testContext(t, "/x?geneId=BRCA2")))
	assert.True(t, hasUnsupportedVariantParams(testContext(t, "/x?end=105")))
	assert.False(t, hasUnsupportedVariantParams(testContext(t, "/x?start=100")))
}

func TestParseFilters(t *testing.T) {
	clauses := parseFilters("sex=NCIT:C20197,diseases.ageOfOnset.iso8601duration>=P80Y")
	require.Len(t, clauses, 2)

	assert.Equal(t, individual_filter.Clause{
		ID:       "sex",
		Operator: "=",
		Value:    "NCIT:C20197",
		Scope:    "individual",
	}, clauses[0])

	assert.Equal(t, individual_filter.Clause{
		ID:       "diseases.ageOfOnset.iso8601duration",
		Operator: ">=",
		Value:    "P80Y",
		Scope:    "individual",
	}, clauses[1])
}

func TestParseFiltersBareID(t *testing.T) {
	clauses := parseFilters("NCIT_C20197")
	require.Len(t, clauses, 1)
	assert.Equal(t, "NCIT:C20197", clauses[0].ID)
	assert.Empty(t, clauses[0].Operator)
}

func TestParseFiltersTwoCharOperatorWins(t *testing.T) {
	clauses := parseFilters("age<=P10Y")
	require.Len(t, clauses, 1)
	assert.Equal(t, "<=", clauses[0].Operator)
	assert.Equal(t, "P10Y", clauses[0].Value)
}

func TestParseFiltersEmpty(t *testing.T) {
	assert.Nil(t, parseFilters(""))
	assert.Nil(t, parseFilters("  "))
	assert.Empty(t, parseFilters(",,"))
}

func TestParsePagination(t *testing.T) {
	assert.Nil(t, parsePagination(testContext(t, "/x")))

	page := parsePagination(testContext(t, "/x?skip=2&limit=5"))
	require.NotNil(t, page)
	assert.Equal(t, int64(2), page.Skip)
	assert.Equal(t, int64(5), page.Limit)

	// Malformed values fall back to zero (engine applies defaults)
	page = parsePagination(testContext(t, "/x?limit=-1&skip=x"))
	require.NotNil(t, page)
	assert.Zero(t, page.Skip)
	assert.Zero(t, page.Limit)
}

func TestNonHitResponsesRequested(t *testing.T) {
	assert.False(t, nonHitResponsesRequested(testContext(t, "/x")))
	assert.False(t, nonHitResponsesRequested(testContext(t, "/x?includeResultsetResponses=HIT")))
	assert.True(t, nonHitResponsesRequested(testContext(t, "/x?includeResultsetResponses=ALL")))
	assert.True(t, nonHitResponsesRequested(testContext(t, "/x?includeResultsetResponses=NONE")))
}
