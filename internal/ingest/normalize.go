// Package ingest performs the one-time load of the canonical declaration CSV
// into the source table: header resolution, per-column normalization, source
// row numbering, and batched transactional inserts.
package ingest

import (
	"strconv"
	"strings"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
)

// Normalizers are total: any input yields a value or nil, never an error.
// A cell the normalizer cannot read becomes NULL and the row survives.

var patentSentinels = map[string]bool{
	"pending": true,
	"unknown": true,
	"-":       true,
	"n/a":     true,
	"na":      true,
	"none":    true,
}

func normText(s string) any {
	s = collapseWS(s)
	if s == "" {
		return nil
	}
	return s
}

func normInt(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Some exports write integers as "123.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int64(f)
	}
	return nil
}

func normBool(s string) any {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil
	case "1", "true", "yes", "y", "x":
		return int64(1)
	default:
		return int64(0)
	}
}

// normDate folds the source's date spellings to ISO YYYY-MM-DD: Y-M-D and
// D-M-Y with -, / or . separators (ambiguity resolved by which part can be a
// day), bare YYYYMMDD, and datetime strings whose time part is cut off.
func normDate(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	sep := ""
	for _, c := range []string{"-", "/", "."} {
		if strings.Contains(s, c) {
			sep = c
			break
		}
	}
	if sep == "" {
		if len(s) == 8 {
			if _, err := strconv.Atoi(s); err == nil {
				return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
			}
		}
		return nil
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return nil
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	c, errC := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errC != nil {
		return nil
	}
	var y, m, d int
	switch {
	case len(parts[0]) == 4:
		y, m, d = a, b, c
	case len(parts[2]) == 4:
		// D-M-Y, unless the middle part can only be a day.
		y, m, d = c, b, a
		if b > 12 && a <= 12 {
			m, d = a, b
		}
	default:
		return nil
	}
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 1000 {
		return nil
	}
	return itoa4(y) + "-" + itoa2(m) + "-" + itoa2(d)
}

// normPatent uppercases and strips internal whitespace from a patent or
// application number; placeholder values collapse to NULL.
func normPatent(s string) any {
	s = strings.TrimSpace(s)
	if s == "" || patentSentinels[strings.ToLower(s)] {
		return nil
	}
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func normCompany(s string) any {
	return normText(s)
}

// Normalize applies a column's normalizer to a raw CSV cell.
func Normalize(col schema.Column, raw string) any {
	switch col.Normalizer {
	case schema.NormInt:
		return normInt(raw)
	case schema.NormBool:
		return normBool(raw)
	case schema.NormDate:
		return normDate(raw)
	case schema.NormPatent:
		return normPatent(raw)
	case schema.NormCompany:
		return normCompany(raw)
	default:
		return normText(raw)
	}
}

func collapseWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func itoa2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func itoa4(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
