package funcs

import (
	"fmt"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// The source uses 1900-01-01 as a not-really-a-date placeholder; NULLIF
// strips it before coalescing.
const sentinelDate = "1900-01-01"

// declDateExpr is the declared-date coalescing expression for a policy.
func declDateExpr(policy string) string {
	sig := fmt.Sprintf("NULLIF(IPRD_SIGNATURE_DATE, '%s')", sentinelDate)
	refl := fmt.Sprintf("NULLIF(Reflected_Date, '%s')", sentinelDate)
	if policy == spec.DeclDateReflectedFirst {
		return fmt.Sprintf("COALESCE(%s, %s)", refl, sig)
	}
	return fmt.Sprintf("COALESCE(%s, %s)", sig, refl)
}

// lagExpr is the declaration lag in days under a negative-lag policy. The
// "drop" policy emits the raw value like "keep"; the consuming template is
// responsible for filtering negatives out downstream.
func lagExpr(declExpr, policy string) string {
	raw := fmt.Sprintf("JULIANDAY(%s) - JULIANDAY(PBPA_APP_DATE)", declExpr)
	switch policy {
	case spec.NegLagZero:
		return fmt.Sprintf("MAX(0, %s)", raw)
	case spec.NegLagNull:
		return fmt.Sprintf("CASE WHEN (%s) < 0 THEN NULL ELSE (%s) END", raw, raw)
	}
	return raw
}

// releaseNumExpr parses the version string's release token to an integer:
// either a leading number ("16.0.0" yields 16) or the "Rel-16" form.
// Anything else is NULL.
const releaseNumExpr = `CASE
  WHEN TGPV_VERSION GLOB '[0-9]*' THEN CAST(TGPV_VERSION AS INTEGER)
  WHEN UPPER(TGPV_VERSION) LIKE 'REL-%' THEN CAST(SUBSTR(TGPV_VERSION, 5) AS INTEGER)
  ELSE NULL
END`

// timeBucketExpr labels the declared date with its period. Fiscal years run
// April through March and carry the starting calendar year.
func timeBucketExpr(declExpr, period string) string {
	switch period {
	case spec.PeriodQuarter:
		return fmt.Sprintf(
			"STRFTIME('%%Y', %s) || '-Q' || CAST((CAST(STRFTIME('%%m', %s) AS INTEGER) + 2) / 3 AS TEXT)",
			declExpr, declExpr)
	case spec.PeriodYear:
		return fmt.Sprintf("STRFTIME('%%Y', %s)", declExpr)
	case spec.PeriodFiscalYear:
		return fmt.Sprintf(
			"(CASE WHEN CAST(STRFTIME('%%m', %s) AS INTEGER) >= 4 THEN STRFTIME('%%Y', %s) ELSE CAST(CAST(STRFTIME('%%Y', %s) AS INTEGER) - 1 AS TEXT) END) || '-FY'",
			declExpr, declExpr, declExpr)
	default: // month
		return fmt.Sprintf("STRFTIME('%%Y-%%m', %s)", declExpr)
	}
}

// Enrich adds the derived analysis columns: decl_date, and optionally
// lag_days, release_num, and time_bucket. Expressions are pure; malformed
// input yields NULL, never an error.
type Enrich struct{}

func (Enrich) Signature() engine.Signature {
	return engine.Signature{
		Name:     "enrich",
		Required: []string{"input", "save_as"},
		Optional: []string{
			"decl_date_policy", "negative_lag_policy",
			"enable_lag", "enable_release", "enable_time_bucket", "period",
		},
		Produces:    engine.KindTemp,
		Description: "derive decl_date, lag_days, release_num, and time_bucket",
	}
}

func (Enrich) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}
	out := ctx.AllocTemp(args.String("save_as", ""))

	declPolicy := args.String("decl_date_policy", spec.DeclDateSignatureFirst)
	lagPolicy := args.String("negative_lag_policy", spec.NegLagKeep)
	decl := declDateExpr(declPolicy)

	cols := fmt.Sprintf("t.*, %s AS decl_date", decl)
	if args.Bool("enable_lag", false) {
		cols += fmt.Sprintf(", %s AS lag_days", lagExpr(decl, lagPolicy))
	}
	if args.Bool("enable_release", false) {
		cols += fmt.Sprintf(", %s AS release_num", releaseNumExpr)
	}
	if args.Bool("enable_time_bucket", false) {
		period := args.String("period", spec.PeriodMonth)
		cols += fmt.Sprintf(", %s AS time_bucket", timeBucketExpr(decl, period))
	}

	sql := fmt.Sprintf("CREATE TABLE %s AS SELECT %s FROM %s t", out, cols, in)

	return engine.Result{
		SQL:         sql,
		Description: "enriched population",
	}, nil
}
