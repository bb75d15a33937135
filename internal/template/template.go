// Package template maps a compiled job onto a concrete plan. Each builder
// knows one analysis shape: which Funcs run, in what order, and which select
// the output exports.
package template

import (
	"sort"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// DefaultCountries is the analysis country set used when a job does not
// override it via extra.analysis_countries.
var DefaultCountries = []string{"JP", "US", "CN", "EP", "KR"}

// Builder turns one job into an executable plan plus the outputs to export.
// Explicit job outputs win; the returned outputs are the template's default.
type Builder interface {
	Name() string
	Build(job spec.Job) (*engine.Plan, []spec.Output, error)
}

// Registry holds the known builders by name.
type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

func (r *Registry) Register(b Builder) {
	r.builders[b.Name()] = b
}

func (r *Registry) Get(name string) (Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns the registry with all five analysis templates.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FilingCountTS{})
	r.Register(LagStatsTS{})
	r.Register(TopSpecsTS{})
	r.Register(CompanyRank{})
	r.Register(SpecCompanyHeat{})
	return r
}

// scopeArgs converts the job's scope into scope-func arguments.
func scopeArgs(job spec.Job) engine.Args {
	s := job.Scope
	a := engine.Args{"input": "isld_pure"}
	if len(s.Companies) > 0 {
		a["companies"] = s.Companies
	}
	if len(s.Countries) > 0 {
		a["countries"] = s.Countries
	}
	if len(s.CountryPrefixes) > 0 {
		a["country_prefixes"] = s.CountryPrefixes
	}
	if len(s.Releases) > 0 {
		a["releases"] = s.Releases
	}
	if len(s.VersionPrefixes) > 0 {
		a["version_prefixes"] = s.VersionPrefixes
	}
	if len(s.Specs) > 0 {
		a["specs"] = s.Specs
	}
	if s.DateFrom != "" {
		a["date_from"] = s.DateFrom
	}
	if s.DateTo != "" {
		a["date_to"] = s.DateTo
	}
	if len(s.GenFlags) > 0 {
		a["gen_flags"] = s.GenFlags
	}
	if len(s.EssFlags) > 0 {
		a["ess_flags"] = s.EssFlags
	}
	if s.CountryMode != "" {
		a["country_mode"] = s.CountryMode
	}
	return a
}

// analysisCountries reads the per-job country override or falls back to the
// default set.
func analysisCountries(job spec.Job) []string {
	if raw, ok := job.Extra["analysis_countries"]; ok {
		if list := (engine.Args{"c": raw}).StringList("c"); len(list) > 0 {
			return list
		}
	}
	return DefaultCountries
}

func topKOf(job spec.Job) int {
	if k := (engine.Args)(job.Extra).Int("top_k", 0); k > 0 {
		return k
	}
	if job.TopN.N > 0 {
		return job.TopN.N
	}
	return 10
}

// includeAll reports whether the whole-population 'ALL' rollup is wanted.
// On unless the job opts out.
func includeAll(job spec.Job) bool {
	return (engine.Args)(job.Extra).Bool("include_all", true)
}

// defaultOutput is the template's one CSV output: extra.out_csv or the job
// id with a .csv suffix.
func defaultOutput(job spec.Job, selectRef string) []spec.Output {
	name := (engine.Args)(job.Extra).String("out_csv", job.JobID+".csv")
	return []spec.Output{{SelectRef: selectRef, Format: "csv", Filename: name}}
}

// orderByArgs converts the keep ordering to the unique func's wire form.
func orderByArgs(terms []spec.OrderBy) []any {
	out := make([]any, 0, len(terms))
	for _, t := range terms {
		out = append(out, map[string]any{"col": t.Col, "dir": t.Dir})
	}
	return out
}
