package individual_filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sexClause(value string) Clause {
	return Clause{ID: FieldSex, Value: value, Scope: RequiredScope}
}

func ageClause(op, value string) Clause {
	return Clause{ID: FieldAge, Operator: op, Value: value, Scope: RequiredScope}
}

func TestResolveEmpty(t *testing.T) {
	f, err := Resolve(nil)
	require.NoError(t, err)
	assert.True(t, f.MatchesAll())
	assert.True(t, f.Matches("M", "P42Y"))
	assert.True(t, f.Matches("F", ""))
}

func TestSexFilter(t *testing.T) {
	male, err := Resolve([]Clause{sexClause(SexCodeMale)})
	require.NoError(t, err)
	assert.True(t, male.MatchesSex("M"))
	assert.False(t, male.MatchesSex("F"))

	female, err := Resolve([]Clause{sexClause(SexCodeFemale)})
	require.NoError(t, err)
	assert.True(t, female.MatchesSex("F"))
	assert.False(t, female.MatchesSex("M"))
}

func TestSexFilterUnknownCode(t *testing.T) {
	f, err := Resolve([]Clause{sexClause("NCIT:C0000")})
	require.NoError(t, err)
	assert.False(t, f.MatchesSex("M"))
	assert.False(t, f.MatchesSex("F"))
}

func TestAgeFilterOperators(t *testing.T) {
	tests := []struct {
		op      string
		value   string
		age     string
		matches bool
	}{
		{">=", "P80Y", "P80Y", true},
		{">=", "P80Y", "P79Y11M", false},
		{">=", "P80Y", "P81Y", true},
		{"<", "P18Y", "P17Y11M", true},
		{"<", "P18Y", "P18Y", false},
		{">", "P40Y", "P40Y1D", true},
		{">", "P40Y", "P40Y", false},
		{"<=", "P65Y", "P65Y", true},
		{"<=", "P65Y", "P65Y1M", false},
		{"=", "P30Y", "P30Y", true},
		{"=", "P30Y", "P30Y1D", false},
		{"!", "P30Y", "P30Y", false},
		{"!", "P30Y", "P31Y", true},
	}
	for _, tc := range tests {
		f, err := Resolve([]Clause{ageClause(tc.op, tc.value)})
		require.NoError(t, err)
		assert.Equal(t, tc.matches, f.MatchesAge(tc.age),
			"age %s %s against %s", tc.op, tc.value, tc.age)
	}
}

func TestAgeFilterBadProfileValue(t *testing.T) {
	f, err := Resolve([]Clause{ageClause(">=", "P1Y")})
	require.NoError(t, err)
	assert.False(t, f.MatchesAge(""))
	assert.False(t, f.MatchesAge("80"))
	assert.False(t, f.MatchesAge("Pbogus"))
}

func TestCombinedClauses(t *testing.T) {
	f, err := Resolve([]Clause{sexClause(SexCodeMale), ageClause(">=", "P80Y")})
	require.NoError(t, err)
	assert.False(t, f.MatchesAll())
	assert.True(t, f.Matches("M", "P80Y"))
	assert.False(t, f.Matches("M", "P79Y11M"))
	assert.False(t, f.Matches("F", "P80Y"))
}

func TestResolveUnsupported(t *testing.T) {
	cases := []Clause{
		{ID: "geneId", Value: "BRCA2", Scope: RequiredScope},
		{ID: FieldSex, Value: SexCodeMale, Scope: "cohort"},
		{ID: FieldSex, Value: SexCodeMale},
		{ID: FieldAge, Operator: "~", Value: "P1Y", Scope: RequiredScope},
		{ID: FieldAge, Operator: "", Value: "P1Y", Scope: RequiredScope},
		{ID: FieldAge, Operator: ">=", Value: "eighty", Scope: RequiredScope},
	}
	for _, clause := range cases {
		_, err := Resolve([]Clause{clause})
		assert.ErrorIs(t, err, ErrUnsupportedFilter, "clause %+v", clause)
	}
}

func TestDurationDaysMonotonic(t *testing.T) {
	younger, err := durationDays("P79Y11M")
	require.NoError(t, err)
	exact, err := durationDays("P80Y")
	require.NoError(t, err)
	older, err := durationDays("P80Y1D")
	require.NoError(t, err)

	assert.Less(t, younger, exact)
	assert.Less(t, exact, older)
}
