package funcs

import (
	"fmt"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// The selects never materialize; Build yields a query the executor registers
// for export. They share the country classifier and the same row shape: a
// base CTE classifies every row, per-country output is restricted to the
// caller's country list, and an optional 'ALL' rollup re-aggregates the full
// base (OTHER rows included) under a sentinel country via UNION ALL.

const defaultTopK = 10

var defaultCountries = []string{"JP", "US", "CN", "EP", "KR"}

func topK(args engine.Args) int {
	if k := args.Int("top_k", 0); k > 0 {
		return k
	}
	return defaultTopK
}

func analysisList(args engine.Args) []string {
	if cs := args.StringList("countries"); len(cs) > 0 {
		return cs
	}
	return defaultCountries
}

// countryIn restricts a classified country column to the analysis list.
func countryIn(countries []string) fragment {
	params := make([]any, len(countries))
	for i, c := range countries {
		params[i] = c
	}
	return fragment{
		sql:    fmt.Sprintf("country IN (%s)", placeholders(len(countries))),
		params: params,
	}
}

// FilingCountTS counts filings per country, company, and time bucket. The
// distinct application count guards against double counting when one
// application carries several declarations.
type FilingCountTS struct{}

func (FilingCountTS) Signature() engine.Signature {
	return engine.Signature{
		Name:        "sel_filing_count_ts",
		Required:    []string{"input"},
		Optional:    []string{"countries", "include_all", "period"},
		Produces:    engine.KindSelect,
		Columns:     []string{"country", "company", "bucket", "filing_count"},
		Description: "filing counts per country, company, and bucket",
	}
}

func (FilingCountTS) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}
	bucket := bucketRound("PBPA_APP_DATE", args.String("period", spec.PeriodMonth))
	countries := analysisList(args)
	cls := countryCase(countries)
	keep := countryIn(countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country, COMP_LEGAL_NAME AS company, %s AS bucket, PATT_APPLICATION_NUMBER
  FROM %s
  WHERE PATT_APPLICATION_NUMBER IS NOT NULL AND PBPA_APP_DATE IS NOT NULL
)
SELECT country, company, bucket, COUNT(DISTINCT PATT_APPLICATION_NUMBER) AS filing_count
FROM base
WHERE %s
GROUP BY country, company, bucket`, cls.sql, bucket, in, keep.sql)
	params := append(append([]any{}, cls.params...), keep.params...)
	if args.Bool("include_all", true) {
		sql += `
UNION ALL
SELECT 'ALL' AS country, company, bucket, COUNT(DISTINCT PATT_APPLICATION_NUMBER) AS filing_count
FROM base
GROUP BY company, bucket`
	}
	sql += "\nORDER BY country, company, bucket"

	return engine.Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "company", "bucket", "filing_count"},
	}, nil
}

// LagStats summarizes declaration lag per country, company, and bucket with
// quartiles via NTILE. Requires an enriched input carrying lag_days and
// time_bucket. The column list is a fixed contract with downstream
// consumers.
type LagStats struct{}

var lagStatsColumns = []string{
	"country", "company", "bucket", "n",
	"min_lag_days", "q1_lag_days", "median_lag_days", "q3_lag_days", "max_lag_days",
}

func (LagStats) Signature() engine.Signature {
	return engine.Signature{
		Name:        "sel_lag_stats",
		Required:    []string{"input"},
		Optional:    []string{"countries", "include_all"},
		Produces:    engine.KindSelect,
		Columns:     lagStatsColumns,
		Description: "lag distribution per country, company, and bucket",
	}
}

func (LagStats) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}
	countries := analysisList(args)
	cls := countryCase(countries)
	keep := countryIn(countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country, COMP_LEGAL_NAME AS company, time_bucket AS bucket, lag_days
  FROM %s
  WHERE lag_days IS NOT NULL AND time_bucket IS NOT NULL AND COMP_LEGAL_NAME IS NOT NULL
), expanded AS (
  SELECT country, company, bucket, lag_days
  FROM base
  WHERE %s`, cls.sql, in, keep.sql)
	params := append(append([]any{}, cls.params...), keep.params...)
	if args.Bool("include_all", true) {
		sql += `
  UNION ALL
  SELECT 'ALL', company, bucket, lag_days FROM base`
	}
	sql += `
), quartiled AS (
  SELECT country, company, bucket, lag_days,
         NTILE(4) OVER (PARTITION BY country, company, bucket ORDER BY lag_days) AS q
  FROM expanded
)
SELECT country, company, bucket, COUNT(*) AS n,
       CAST(MIN(lag_days) AS INTEGER) AS min_lag_days,
       CAST(MAX(CASE WHEN q = 1 THEN lag_days END) AS INTEGER) AS q1_lag_days,
       CAST(MAX(CASE WHEN q = 2 THEN lag_days END) AS INTEGER) AS median_lag_days,
       CAST(MAX(CASE WHEN q = 3 THEN lag_days END) AS INTEGER) AS q3_lag_days,
       CAST(MAX(lag_days) AS INTEGER) AS max_lag_days
FROM quartiled
GROUP BY country, company, bucket
ORDER BY country, company, bucket`

	return engine.Result{
		SQL:     sql,
		Params:  params,
		Columns: lagStatsColumns,
	}, nil
}

// TopSpecsTS ranks specs by declaration count within each country, company,
// and bucket, keeping the top k. The spec number is the secondary sort key
// so equal counts rank the same way everywhere.
type TopSpecsTS struct{}

func (TopSpecsTS) Signature() engine.Signature {
	return engine.Signature{
		Name:        "sel_top_specs_ts",
		Required:    []string{"input"},
		Optional:    []string{"countries", "include_all", "period", "top_k"},
		Produces:    engine.KindSelect,
		Columns:     []string{"country", "company", "bucket", "TGPP_NUMBER", "cnt", "rank"},
		Description: "top specs per country, company, and bucket",
	}
}

func (TopSpecsTS) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}
	bucket := bucketRound("PBPA_APP_DATE", args.String("period", spec.PeriodMonth))
	countries := analysisList(args)
	cls := countryCase(countries)
	keep := countryIn(countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country, COMP_LEGAL_NAME AS company, %s AS bucket, TGPP_NUMBER
  FROM %s
  WHERE TGPP_NUMBER IS NOT NULL AND PBPA_APP_DATE IS NOT NULL AND COMP_LEGAL_NAME IS NOT NULL
), expanded AS (
  SELECT country, company, bucket, TGPP_NUMBER
  FROM base
  WHERE %s`, cls.sql, bucket, in, keep.sql)
	params := append(append([]any{}, cls.params...), keep.params...)
	if args.Bool("include_all", true) {
		sql += `
  UNION ALL
  SELECT 'ALL', company, bucket, TGPP_NUMBER FROM base`
	}
	sql += `
), counted AS (
  SELECT country, company, bucket, TGPP_NUMBER, COUNT(*) AS cnt
  FROM expanded
  GROUP BY country, company, bucket, TGPP_NUMBER
), ranked AS (
  SELECT country, company, bucket, TGPP_NUMBER, cnt,
         ROW_NUMBER() OVER (PARTITION BY country, company, bucket ORDER BY cnt DESC, TGPP_NUMBER ASC) AS rank
  FROM counted
)
SELECT country, company, bucket, TGPP_NUMBER, cnt, rank
FROM ranked
WHERE rank <= ?
ORDER BY country, company, bucket, rank`

	return engine.Result{
		SQL:     sql,
		Params:  append(params, topK(args)),
		Columns: []string{"country", "company", "bucket", "TGPP_NUMBER", "cnt", "rank"},
	}, nil
}

// CompanyRank ranks companies per country by how many distinct units they
// declared. Every rank is emitted; truncation is left to the consumer. The
// company name is the secondary sort key.
type CompanyRank struct{}

func (CompanyRank) Signature() engine.Signature {
	return engine.Signature{
		Name:        "sel_company_rank",
		Required:    []string{"input"},
		Optional:    []string{"countries", "include_all", "unit"},
		Produces:    engine.KindSelect,
		Columns:     []string{"country", "unique_unit", "company", "cnt", "rank"},
		Description: "company ranking per country by distinct declared units",
	}
}

func (CompanyRank) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}

	unit := args.String("unit", spec.UnitApp)
	if unit == "" || unit == spec.UnitNone {
		unit = spec.UnitApp
	}
	key, ok := UnitKeyColumns[unit]
	if !ok {
		return engine.Result{}, fmt.Errorf("funcs: sel_company_rank: unknown unit %q", unit)
	}
	countries := analysisList(args)
	cls := countryCase(countries)
	keep := countryIn(countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country, COMP_LEGAL_NAME AS company, %s
  FROM %s
  WHERE %s IS NOT NULL AND COMP_LEGAL_NAME IS NOT NULL
), expanded AS (
  SELECT country, company, %s
  FROM base
  WHERE %s`, cls.sql, key, in, key, key, keep.sql)
	params := append(append([]any{}, cls.params...), keep.params...)
	if args.Bool("include_all", true) {
		sql += fmt.Sprintf(`
  UNION ALL
  SELECT 'ALL', company, %s FROM base`, key)
	}
	sql += fmt.Sprintf(`
), counted AS (
  SELECT country, company, COUNT(DISTINCT %s) AS cnt
  FROM expanded
  GROUP BY country, company
), ranked AS (
  SELECT country, company, cnt,
         ROW_NUMBER() OVER (PARTITION BY country ORDER BY cnt DESC, company ASC) AS rank
  FROM counted
)
SELECT country, ? AS unique_unit, company, cnt, rank
FROM ranked
ORDER BY country, rank`, key)

	return engine.Result{
		SQL:     sql,
		Params:  append(params, unit),
		Columns: []string{"country", "unique_unit", "company", "cnt", "rank"},
	}, nil
}

// SpecCompanyHeat cross-tabulates the globally busiest specs against the
// companies declaring against them.
type SpecCompanyHeat struct{}

func (SpecCompanyHeat) Signature() engine.Signature {
	return engine.Signature{
		Name:        "sel_spec_company_heat",
		Required:    []string{"input"},
		Optional:    []string{"countries", "include_all", "top_k"},
		Produces:    engine.KindSelect,
		Columns:     []string{"country", "TGPP_NUMBER", "company", "cnt"},
		Description: "declaration heat over the top specs by company and country",
	}
}

func (SpecCompanyHeat) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}
	countries := analysisList(args)
	cls := countryCase(countries)
	keep := countryIn(countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country, COMP_LEGAL_NAME AS company, TGPP_NUMBER
  FROM %s
  WHERE TGPP_NUMBER IS NOT NULL AND COMP_LEGAL_NAME IS NOT NULL
), top_specs AS (
  SELECT TGPP_NUMBER FROM base
  GROUP BY TGPP_NUMBER
  ORDER BY COUNT(*) DESC, TGPP_NUMBER ASC
  LIMIT ?
), expanded AS (
  SELECT country, company, b.TGPP_NUMBER
  FROM base b JOIN top_specs t ON b.TGPP_NUMBER = t.TGPP_NUMBER
  WHERE %s`, cls.sql, in, keep.sql)
	params := append(append([]any{}, cls.params...), topK(args))
	params = append(params, keep.params...)
	if args.Bool("include_all", true) {
		sql += `
  UNION ALL
  SELECT 'ALL', company, b.TGPP_NUMBER
  FROM base b JOIN top_specs t ON b.TGPP_NUMBER = t.TGPP_NUMBER`
	}
	sql += `
)
SELECT country, TGPP_NUMBER, company, COUNT(*) AS cnt
FROM expanded
GROUP BY country, TGPP_NUMBER, company
ORDER BY country, TGPP_NUMBER, cnt DESC`

	return engine.Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "TGPP_NUMBER", "company", "cnt"},
	}, nil
}
