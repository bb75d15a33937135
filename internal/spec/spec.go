// Package spec defines the typed specification model for one analysis run:
// the job, its population filter, de-duplication and enrichment policies, and
// the output descriptors. Values are built once by the config compiler and
// never mutated afterwards; every other package treats them as read-only.
package spec

// Country filter modes. When the mode is ALL, the exact-match and prefix
// country predicates of a Scope are ignored even if populated; FILTER applies
// them. The config linter warns about the ALL+populated combination instead of
// rejecting it.
const (
	CountryModeAll    = "ALL"
	CountryModeFilter = "FILTER"
)

// De-duplication units. Each unit except "none" maps to a partition key
// column on the source table.
const (
	UnitPubl   = "publ"
	UnitApp    = "app"
	UnitFamily = "family"
	UnitDipg   = "dipg"
	UnitNone   = "none"
)

// Declared-date coalescing policies.
const (
	DeclDateSignatureFirst = "signature_first"
	DeclDateReflectedFirst = "reflected_first"
)

// Negative-lag policies. "drop" is a contract with the consuming template;
// the enrichment step itself never removes rows.
const (
	NegLagKeep = "keep"
	NegLagZero = "zero"
	NegLagNull = "null"
	NegLagDrop = "drop"
)

// Time-bucket periods. Fiscal years start in April.
const (
	PeriodMonth      = "month"
	PeriodQuarter    = "quarter"
	PeriodYear       = "year"
	PeriodFiscalYear = "fiscal_year"
)

// Env describes the run environment shared by all jobs of one config.
type Env struct {
	SQLitePath    string `json:"sqlite_path"`
	SourceCSVPath string `json:"isld_csv_path"`
	OutDir        string `json:"out_dir"`
}

// OrderBy is a single ordering term (column plus direction).
type OrderBy struct {
	Col string `json:"col"`
	Dir string `json:"dir"` // ASC | DESC
}

// Scope is the population filter. Absent fields mean "no constraint", never
// "exclude all". Predicates across fields are ANDed; alternatives within one
// field are ORed.
type Scope struct {
	Companies       []string       `json:"companies,omitempty"`        // substring, case-insensitive
	Countries       []string       `json:"countries,omitempty"`        // exact match
	CountryPrefixes []string       `json:"country_prefixes,omitempty"` // "JP" -> LIKE 'JP %'
	Releases        []string       `json:"releases,omitempty"`         // exact match
	VersionPrefixes []string       `json:"version_prefixes,omitempty"` // "18" -> LIKE '18.%'
	Specs           []string       `json:"specs,omitempty"`            // exact match
	DateFrom        string         `json:"date_from,omitempty"`        // inclusive
	DateTo          string         `json:"date_to,omitempty"`          // inclusive
	GenFlags        map[string]any `json:"gen_flags,omitempty"`        // {"5G": 1} -> Gen_5G = 1
	EssFlags        map[string]any `json:"ess_flags,omitempty"`        // {"ess_to_standard": true}
	CountryMode     string         `json:"country_mode,omitempty"`     // ALL | FILTER
}

// UniqueKeep holds the caller's tie-break ordering for de-duplication. The
// source row number ascending is always appended as the final key if absent.
type UniqueKeep struct {
	OrderBy []OrderBy `json:"order_by,omitempty"`
}

// Unique is the de-duplication policy: which unit keys the partition, how the
// winner within a partition is chosen, and extra partition columns.
type Unique struct {
	Unit           string     `json:"unit,omitempty"`
	Keep           UniqueKeep `json:"keep,omitempty"`
	PartitionExtra []string   `json:"partition_extra,omitempty"`
}

// Policies selects the derived-column semantics of the enrichment step.
type Policies struct {
	DeclDatePolicy    string `json:"decl_date_policy,omitempty"`
	NegativeLagPolicy string `json:"negative_lag_policy,omitempty"`
}

// TimeBucket selects the rounding granularity for time-series templates.
type TimeBucket struct {
	Period string `json:"period,omitempty"`
}

// TopN carries the generic ranking parameters. Templates fall back to N when
// no per-job top_k override is present in Extra.
type TopN struct {
	N      int    `json:"n,omitempty"`
	Metric string `json:"metric,omitempty"` // count | density
	Order  string `json:"order,omitempty"`
}

// NullPolicy defines the sentinel values substituted for NULL cells at export
// time only; the store itself always retains true nulls. A nil field means
// "no substitution configured" for that type class.
type NullPolicy struct {
	IntNull  any `json:"int_null,omitempty"`
	TextNull any `json:"text_null,omitempty"`
	DateNull any `json:"date_null,omitempty"`
}

// Output references a registered result set and describes how to export it.
type Output struct {
	SelectRef  string     `json:"select_ref"`
	Format     string     `json:"format,omitempty"` // csv
	Filename   string     `json:"filename,omitempty"`
	NullPolicy NullPolicy `json:"null_policy,omitempty"`
}

// Job is one fully-resolved unit of configured analysis work. It is consumed
// by exactly one template builder.
type Job struct {
	JobID      string
	Template   string
	Env        Env
	Scope      Scope
	Unique     Unique
	Policies   Policies
	TimeBucket TimeBucket
	TopN       TopN
	Outputs    []Output

	// Extra carries template-specific knobs (analysis_countries, top_k,
	// include_all, out_csv, ...). Unknown keys are ignored.
	Extra map[string]any

	// Description and FiltersExplain are documentation only; they have no
	// semantic effect on the run.
	Description    string
	FiltersExplain []string
}
