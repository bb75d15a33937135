package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

var headerNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// canonicalHeader folds a header to a comparable form: accents stripped,
// lowercased, underscores and whitespace runs collapsed to single spaces.
// Both the CSV's headers and the schema's candidates go through this, so the
// two sides meet in the middle.
func canonicalHeader(s string) string {
	if folded, _, err := transform.String(headerNormalizer, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if r == '_' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ResolveHeaders maps each schema column to its CSV column index. Every
// contract column must be present; the error lists everything missing at
// once so the caller fixes the file in one pass.
func ResolveHeaders(headers []string) (map[string]int, error) {
	byCanon := make(map[string]int, len(headers))
	for i, h := range headers {
		c := canonicalHeader(h)
		if _, dup := byCanon[c]; !dup {
			byCanon[c] = i
		}
	}

	out := make(map[string]int)
	var missing []string
	for _, col := range schema.Columns() {
		found := false
		for _, cand := range col.SourceHeaders {
			if idx, ok := byCanon[canonicalHeader(cand)]; ok {
				out[col.Name] = idx
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, spec.NewConfigError("isld_csv_path",
			"source CSV is missing columns: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
