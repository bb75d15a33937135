package config

import (
	"fmt"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// Issue severities.
const (
	SevError   = "error"
	SevWarning = "warning"
)

// Issue is one linter finding. Errors block the run; warnings are printed
// and ignored.
type Issue struct {
	Severity string
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is severity error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SevError {
			return true
		}
	}
	return false
}

var validUnits = map[string]bool{
	spec.UnitPubl: true, spec.UnitApp: true, spec.UnitFamily: true,
	spec.UnitDipg: true, spec.UnitNone: true,
}

var validDeclPolicies = map[string]bool{
	spec.DeclDateSignatureFirst: true, spec.DeclDateReflectedFirst: true,
}

var validLagPolicies = map[string]bool{
	spec.NegLagKeep: true, spec.NegLagZero: true,
	spec.NegLagNull: true, spec.NegLagDrop: true,
}

var validPeriods = map[string]bool{
	spec.PeriodMonth: true, spec.PeriodQuarter: true,
	spec.PeriodYear: true, spec.PeriodFiscalYear: true,
}

// Validate lints the compiled jobs plus their shared environment.
// templateNames is the set of registered template builders.
func Validate(env spec.Env, jobs []spec.Job, templateNames []string) []Issue {
	var issues []Issue
	add := func(sev, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if env.SQLitePath == "" {
		add(SevError, "env.sqlite_path", "required")
	}
	if env.SourceCSVPath == "" {
		add(SevWarning, "env.isld_csv_path", "empty; runs will fail if the source table does not already exist")
	}

	templates := make(map[string]bool, len(templateNames))
	for _, n := range templateNames {
		templates[n] = true
	}
	orderable := schema.OrderableColumns()

	seen := make(map[string]int)
	for i, job := range jobs {
		path := fmt.Sprintf("jobs[%d]", i)
		if job.JobID == "" {
			add(SevError, path+".job_id", "required")
		} else if prev, dup := seen[job.JobID]; dup {
			add(SevError, path+".job_id", "duplicate of jobs[%d]", prev)
		} else {
			seen[job.JobID] = i
		}

		if job.Template == "" {
			add(SevError, path+".template", "required")
		} else if !templates[job.Template] {
			add(SevError, path+".template", "unknown template %q", job.Template)
		}

		if !validUnits[job.Unique.Unit] {
			add(SevError, path+".unique.unit", "unknown unit %q", job.Unique.Unit)
		}
		for j, ob := range job.Unique.Keep.OrderBy {
			if !orderable[ob.Col] {
				add(SevError, fmt.Sprintf("%s.unique.keep.order_by[%d].col", path, j),
					"column %q is not orderable", ob.Col)
			}
			if ob.Dir != "" && ob.Dir != "ASC" && ob.Dir != "DESC" && ob.Dir != "asc" && ob.Dir != "desc" {
				add(SevError, fmt.Sprintf("%s.unique.keep.order_by[%d].dir", path, j),
					"direction must be ASC or DESC, got %q", ob.Dir)
			}
		}
		for j, col := range job.Unique.PartitionExtra {
			if !orderable[col] {
				add(SevError, fmt.Sprintf("%s.unique.partition_extra[%d]", path, j),
					"column %q is not in the source contract", col)
			}
		}

		if !validDeclPolicies[job.Policies.DeclDatePolicy] {
			add(SevError, path+".policies.decl_date_policy", "unknown policy %q", job.Policies.DeclDatePolicy)
		}
		if !validLagPolicies[job.Policies.NegativeLagPolicy] {
			add(SevError, path+".policies.negative_lag_policy", "unknown policy %q", job.Policies.NegativeLagPolicy)
		}
		if !validPeriods[job.TimeBucket.Period] {
			add(SevError, path+".time_bucket.period", "unknown period %q", job.TimeBucket.Period)
		}

		switch job.Scope.CountryMode {
		case spec.CountryModeAll:
			if len(job.Scope.Countries) > 0 || len(job.Scope.CountryPrefixes) > 0 {
				add(SevWarning, path+".scope.country_mode",
					"country filters are set but country_mode is ALL; they will not be applied")
			}
		case spec.CountryModeFilter:
		default:
			add(SevError, path+".scope.country_mode", "must be ALL or FILTER, got %q", job.Scope.CountryMode)
		}

		if job.Scope.DateFrom != "" && job.Scope.DateTo != "" && job.Scope.DateFrom > job.Scope.DateTo {
			add(SevError, path+".scope.date_from", "date_from %q is after date_to %q", job.Scope.DateFrom, job.Scope.DateTo)
		}

		if job.TopN.N < 0 {
			add(SevError, path+".top_n.n", "must be non-negative, got %d", job.TopN.N)
		}

		for j, out := range job.Outputs {
			if out.Format != "" && out.Format != "csv" {
				add(SevError, fmt.Sprintf("%s.outputs[%d].format", path, j),
					"unsupported format %q (only csv)", out.Format)
			}
			if out.SelectRef == "" {
				add(SevError, fmt.Sprintf("%s.outputs[%d].select_ref", path, j), "required")
			}
		}
	}
	return issues
}
