// Package individual_filter evaluates demographic predicates (sex, age)
// against individual-profile rows.
package individual_filter

import (
	"fmt"
	"strings"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/gologger"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/utils"
	"github.com/sosodev/duration"
)

var logger = gologger.NewLogger()

// The two sex codes from the external Beacon filter vocabulary. Any other
// value maps to a sex that no profile row carries.
const (
	SexCodeMale   = "NCIT:C20197"
	SexCodeFemale = "NCIT:C16576"

	FieldSex = "sex"
	FieldAge = "diseases.ageOfOnset.iso8601duration"

	// RequiredScope must be set on every clause or the query is unsupported.
	RequiredScope = "individual"
)

var (
	ErrUnsupportedFilter = utils.PermError("unsupported filter")

	ageOperators = []string{"<", ">", "<=", ">=", "=", "!"}
)

type (
	// Clause is one incoming filter term as supplied by the caller.
	Clause struct {
		ID       string
		Operator string
		Value    string
		Scope    string
	}

	// Filter is the resolved conjunction of all clauses of one query.
	// A zero-clause query resolves to a Filter that matches everyone.
	Filter struct {
		sex     string
		ageOp   string
		ageDays float64
		hasAge  bool
	}
)

// Resolve validates the clauses and folds them into a Filter. Fields outside
// {sex, age}, scopes other than "individual", unknown operators and
// unparseable durations all make the whole query unsupported.
func Resolve(clauses []Clause) (*Filter, error) {
	f := &Filter{}
	for _, clause := range clauses {
		if clause.Scope != RequiredScope {
			return nil, fmt.Errorf("%w: scope %q for filter %q", ErrUnsupportedFilter, clause.Scope, clause.ID)
		}

		switch clause.ID {
		case FieldSex:
			f.sex = sexFromCode(clause.Value)
		case FieldAge:
			if clause.Operator == "" || !utils.ContainsString(ageOperators, clause.Operator) {
				return nil, fmt.Errorf("%w: operator %q for filter %q", ErrUnsupportedFilter, clause.Operator, clause.ID)
			}
			days, err := durationDays(clause.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: value %q is not an ISO 8601 duration", ErrUnsupportedFilter, shorten(clause.Value))
			}
			f.ageOp = clause.Operator
			f.ageDays = days
			f.hasAge = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFilter, clause.ID)
		}
	}
	return f, nil
}

// MatchesAll reports whether the filter constrains nothing, in which case
// profile rows never need to be consulted.
func (f *Filter) MatchesAll() bool {
	return f.sex == "" && !f.hasAge
}

func (f *Filter) HasAge() bool {
	return f.hasAge
}

// Matches evaluates the conjunction against one profile row.
func (f *Filter) Matches(sex, age string) bool {
	return f.MatchesSex(sex) && f.MatchesAge(age)
}

func (f *Filter) MatchesSex(sex string) bool {
	return f.sex == "" || f.sex == sex
}

// MatchesAge compares the row's stored ISO 8601 duration against the filter
// value under the filter's operator. Rows with missing or malformed ages
// never match an age filter.
func (f *Filter) MatchesAge(age string) bool {
	if !f.hasAge {
		return true
	}
	if !strings.HasPrefix(age, "P") {
		return false
	}

	days, err := durationDays(age)
	if err != nil {
		logger.Warn().Str("age", age).Msg("invalid ISO 8601 duration in profile table")
		return false
	}

	switch f.ageOp {
	case "<":
		return days < f.ageDays
	case ">":
		return days > f.ageDays
	case "<=":
		return days <= f.ageDays
	case ">=":
		return days >= f.ageDays
	case "=":
		return days == f.ageDays
	case "!":
		return days != f.ageDays
	}
	return false
}

func (f *Filter) String() string {
	if f.MatchesAll() {
		return "(all)"
	}
	var parts []string
	if f.sex != "" {
		parts = append(parts, "sex="+f.sex)
	}
	if f.hasAge {
		parts = append(parts, fmt.Sprintf("age%s%.2fd", f.ageOp, f.ageDays))
	}
	return strings.Join(parts, " ")
}

func sexFromCode(code string) string {
	switch code {
	case "":
		return ""
	case SexCodeMale:
		return "M"
	case SexCodeFemale:
		return "F"
	}
	return "UNKNOWN"
}

// durationDays collapses an ISO 8601 duration to the canonical total-days
// approximation. Not calendar-exact, but monotonic and stable, which is all
// the comparison contract asks for.
func durationDays(s string) (float64, error) {
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("error in duration.Parse: %w", err)
	}
	days := d.Years*365.25 +
		d.Months*30.44 +
		d.Weeks*7 +
		d.Days +
		d.Hours/24 +
		d.Minutes/(24*60) +
		d.Seconds/(24*60*60)
	return days, nil
}

func shorten(s string) string {
	if len(s) > 40 {
		return fmt.Sprintf("%s... (length=%d)", s[:40], len(s))
	}
	return s
}
