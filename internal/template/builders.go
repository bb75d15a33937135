package template

import (
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// addShaping appends the scope step and, when the job asks for a
// de-duplication unit, the unique step. Returns the logical name the next
// step should read from.
func addShaping(p *engine.Plan, job spec.Job) string {
	p.Add("scope", scopeArgs(job), "scoped")
	unit := job.Unique.Unit
	if unit == "" || unit == spec.UnitNone {
		return "scoped"
	}
	args := engine.Args{"input": "scoped", "unit": unit}
	if len(job.Unique.Keep.OrderBy) > 0 {
		args["order_by"] = orderByArgs(job.Unique.Keep.OrderBy)
	}
	if len(job.Unique.PartitionExtra) > 0 {
		args["partition_extra"] = job.Unique.PartitionExtra
	}
	p.Add("unique", args, "deduped")
	return "deduped"
}

// FilingCountTS is the filing-count time series: how many filings each
// analysis country's companies made per bucket.
type FilingCountTS struct{}

func (FilingCountTS) Name() string { return "ts_filing_count" }

func (FilingCountTS) Build(job spec.Job) (*engine.Plan, []spec.Output, error) {
	p := &engine.Plan{}
	in := addShaping(p, job)
	p.Add("sel_filing_count_ts", engine.Args{
		"input":       in,
		"countries":   analysisCountries(job),
		"include_all": includeAll(job),
		"period":      job.TimeBucket.Period,
	}, "sel_filing_count_ts")
	p.Add("cleanup", nil, "")
	return p, defaultOutput(job, "sel_filing_count_ts"), nil
}

// LagStatsTS is the declaration-lag distribution time series.
type LagStatsTS struct{}

func (LagStatsTS) Name() string { return "ts_lag_stats" }

func (LagStatsTS) Build(job spec.Job) (*engine.Plan, []spec.Output, error) {
	p := &engine.Plan{}
	in := addShaping(p, job)
	p.Add("enrich", engine.Args{
		"input":               in,
		"decl_date_policy":    job.Policies.DeclDatePolicy,
		"negative_lag_policy": job.Policies.NegativeLagPolicy,
		"enable_lag":          true,
		"enable_time_bucket":  true,
		"period":              job.TimeBucket.Period,
	}, "enriched")
	p.Add("sel_lag_stats", engine.Args{
		"input":       "enriched",
		"countries":   analysisCountries(job),
		"include_all": includeAll(job),
	}, "sel_lag_stats")
	p.Add("cleanup", nil, "")
	return p, defaultOutput(job, "sel_lag_stats"), nil
}

// TopSpecsTS ranks the most-declared specs per country and bucket.
type TopSpecsTS struct{}

func (TopSpecsTS) Name() string { return "ts_top_specs" }

func (TopSpecsTS) Build(job spec.Job) (*engine.Plan, []spec.Output, error) {
	p := &engine.Plan{}
	in := addShaping(p, job)
	p.Add("sel_top_specs_ts", engine.Args{
		"input":       in,
		"countries":   analysisCountries(job),
		"include_all": includeAll(job),
		"period":      job.TimeBucket.Period,
		"top_k":       topKOf(job),
	}, "sel_top_specs_ts")
	p.Add("cleanup", nil, "")
	return p, defaultOutput(job, "sel_top_specs_ts"), nil
}

// CompanyRank ranks companies per country by distinct declared units. The
// distinct count makes a separate de-duplication step unnecessary; a job
// without a unit counts distinct application numbers.
type CompanyRank struct{}

func (CompanyRank) Name() string { return "rank_company_counts" }

func (CompanyRank) Build(job spec.Job) (*engine.Plan, []spec.Output, error) {
	p := &engine.Plan{}
	p.Add("scope", scopeArgs(job), "scoped")
	unit := job.Unique.Unit
	if unit == "" || unit == spec.UnitNone {
		unit = spec.UnitApp
	}
	p.Add("sel_company_rank", engine.Args{
		"input":       "scoped",
		"unit":        unit,
		"countries":   analysisCountries(job),
		"include_all": includeAll(job),
	}, "sel_company_rank")
	p.Add("cleanup", nil, "")
	return p, defaultOutput(job, "sel_company_rank"), nil
}

// SpecCompanyHeat cross-tabulates the busiest specs against companies.
type SpecCompanyHeat struct{}

func (SpecCompanyHeat) Name() string { return "heat_spec_company" }

func (SpecCompanyHeat) Build(job spec.Job) (*engine.Plan, []spec.Output, error) {
	p := &engine.Plan{}
	in := addShaping(p, job)
	p.Add("sel_spec_company_heat", engine.Args{
		"input":       in,
		"countries":   analysisCountries(job),
		"include_all": includeAll(job),
		"top_k":       topKOf(job),
	}, "sel_spec_company_heat")
	p.Add("cleanup", nil, "")
	return p, defaultOutput(job, "sel_spec_company_heat"), nil
}
