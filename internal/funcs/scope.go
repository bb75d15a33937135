package funcs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// genColumns maps generation flag keys to their columns. Unknown keys are
// ignored so configs written against a wider source survive.
var genColumns = map[string]string{
	"2G": "Gen_2G",
	"3G": "Gen_3G",
	"4G": "Gen_4G",
	"5G": "Gen_5G",
}

var essColumns = map[string]string{
	"ess_to_standard": "Ess_To_Standard",
	"ess_to_project":  "Ess_To_Project",
}

// Scope narrows the population. Predicates across fields are ANDed,
// alternatives within one field ORed; an empty scope passes every row.
type Scope struct{}

func (Scope) Signature() engine.Signature {
	return engine.Signature{
		Name:     "scope",
		Required: []string{"input", "save_as"},
		Optional: []string{
			"companies", "countries", "country_prefixes", "releases",
			"version_prefixes", "specs", "date_from", "date_to",
			"gen_flags", "ess_flags", "country_mode",
		},
		Produces:    engine.KindTemp,
		Description: "filter the source population by company, country, release, version, spec, date window, and flags",
	}
}

func (Scope) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", schema.TableName))
	if err != nil {
		return engine.Result{}, err
	}
	out := ctx.AllocTemp(args.String("save_as", ""))

	var preds []fragment

	if companies := args.StringList("companies"); len(companies) > 0 {
		ors := make([]fragment, 0, len(companies))
		for _, c := range companies {
			ors = append(ors, fragment{
				sql:    "UPPER(COMP_LEGAL_NAME) LIKE UPPER(?)",
				params: []any{"%" + c + "%"},
			})
		}
		f := joinFragments(ors, " OR ")
		preds = append(preds, fragment{sql: "(" + f.sql + ")", params: f.params})
	}

	countryMode := args.String("country_mode", spec.CountryModeAll)
	if countryMode == spec.CountryModeFilter {
		if countries := args.StringList("countries"); len(countries) > 0 {
			params := make([]any, len(countries))
			for i, c := range countries {
				params[i] = c
			}
			preds = append(preds, fragment{
				sql:    fmt.Sprintf("Country_Of_Registration IN (%s)", placeholders(len(countries))),
				params: params,
			})
		}
		if prefixes := args.StringList("country_prefixes"); len(prefixes) > 0 {
			ors := make([]fragment, 0, len(prefixes))
			for _, p := range prefixes {
				ors = append(ors, fragment{
					sql:    "Country_Of_Registration LIKE ?",
					params: []any{p + " %"},
				})
			}
			f := joinFragments(ors, " OR ")
			preds = append(preds, fragment{sql: "(" + f.sql + ")", params: f.params})
		}
	}

	if releases := args.StringList("releases"); len(releases) > 0 {
		params := make([]any, len(releases))
		for i, r := range releases {
			params[i] = r
		}
		preds = append(preds, fragment{
			sql:    fmt.Sprintf("TGPV_VERSION IN (%s)", placeholders(len(releases))),
			params: params,
		})
	}

	if prefixes := args.StringList("version_prefixes"); len(prefixes) > 0 {
		ors := make([]fragment, 0, len(prefixes))
		for _, p := range prefixes {
			ors = append(ors, fragment{
				sql:    "TGPV_VERSION LIKE ?",
				params: []any{p + ".%"},
			})
		}
		f := joinFragments(ors, " OR ")
		preds = append(preds, fragment{sql: "(" + f.sql + ")", params: f.params})
	}

	if specs := args.StringList("specs"); len(specs) > 0 {
		params := make([]any, len(specs))
		for i, s := range specs {
			params[i] = s
		}
		preds = append(preds, fragment{
			sql:    fmt.Sprintf("TGPP_NUMBER IN (%s)", placeholders(len(specs))),
			params: params,
		})
	}

	if from := args.String("date_from", ""); from != "" {
		preds = append(preds, fragment{sql: "PBPA_APP_DATE >= ?", params: []any{from}})
	}
	if to := args.String("date_to", ""); to != "" {
		preds = append(preds, fragment{sql: "PBPA_APP_DATE <= ?", params: []any{to}})
	}

	preds = append(preds, flagPreds(args.Map("gen_flags"), genColumns)...)
	preds = append(preds, flagPreds(args.Map("ess_flags"), essColumns)...)

	where := fragment{sql: "1=1"}
	if len(preds) > 0 {
		where = joinFragments(preds, " AND ")
	}

	sql := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s WHERE %s", out, in, where.sql)
	return engine.Result{
		SQL:         sql,
		Params:      where.params,
		Description: "scoped population",
	}, nil
}

// flagPreds turns a flag map into equality predicates over the mapped
// columns. Values coerce to 0/1; unknown keys are skipped. Iteration follows
// the column map's fixed key order so the SQL text is deterministic.
func flagPreds(flags map[string]any, cols map[string]string) []fragment {
	if len(flags) == 0 {
		return nil
	}
	keys := sortedKeys(cols)
	var out []fragment
	for _, k := range keys {
		v, ok := lookupFlag(flags, k)
		if !ok {
			continue
		}
		out = append(out, fragment{
			sql:    cols[k] + " = ?",
			params: []any{coerceFlag(v)},
		})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookupFlag(flags map[string]any, key string) (any, bool) {
	if v, ok := flags[key]; ok {
		return v, ok
	}
	if v, ok := flags[strings.ToUpper(key)]; ok {
		return v, ok
	}
	v, ok := flags[strings.ToLower(key)]
	return v, ok
}

func coerceFlag(v any) int64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		if x != 0 {
			return 1
		}
		return 0
	case int:
		if x != 0 {
			return 1
		}
		return 0
	case int64:
		if x != 0 {
			return 1
		}
		return 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "y":
			return 1
		}
		return 0
	}
	return 0
}
