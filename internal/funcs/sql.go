// Package funcs contains the concrete SQL generators registered with the
// engine library: the scope filter, windowed de-duplication, enrichment, the
// aggregation selects, and cleanup. Every identifier each generator emits
// comes from the closed schema set; every configuration-origin value is a
// bound parameter.
package funcs

import (
	"fmt"
	"strings"
)

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// fragment is a piece of SQL text with its positional parameters. Assembling
// fragments in text order keeps params lined up with their placeholders.
type fragment struct {
	sql    string
	params []any
}

func joinFragments(fs []fragment, sep string) fragment {
	parts := make([]string, 0, len(fs))
	var params []any
	for _, f := range fs {
		parts = append(parts, f.sql)
		params = append(params, f.params...)
	}
	return fragment{sql: strings.Join(parts, sep), params: params}
}

// countryCase builds the CASE expression classifying a registration country
// into one of the analysis countries or OTHER. A row matches a country on
// exact equality or on the "CC <name>" prefix form the source data uses.
func countryCase(countries []string) fragment {
	if len(countries) == 0 {
		return fragment{sql: "'OTHER'"}
	}
	var b strings.Builder
	var params []any
	b.WriteString("CASE")
	for _, c := range countries {
		b.WriteString(" WHEN (Country_Of_Registration = ? OR Country_Of_Registration LIKE ?) THEN ?")
		params = append(params, c, c+" %", c)
	}
	b.WriteString(" ELSE 'OTHER' END")
	return fragment{sql: b.String(), params: params}
}

// bucketRound rounds an ISO date column to the first day of its bucket, so
// time-series rows stay plottable as dates. Month and quarter keep day
// resolution at month starts; year collapses to January 1st.
func bucketRound(dateExpr, period string) string {
	switch period {
	case "year", "fiscal_year":
		return fmt.Sprintf("SUBSTR(%s, 1, 4) || '-01-01'", dateExpr)
	default: // month, quarter
		return fmt.Sprintf("SUBSTR(%s, 1, 7) || '-01'", dateExpr)
	}
}
