// Package config loads the pipeline's JSON configuration, layers per-job
// overrides on top of the shared defaults, and compiles the result into
// immutable job specifications.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// File is the raw shape of a config file. Jobs stay untyped until the
// defaults are merged in; typing happens in Compile.
type File struct {
	Env      spec.Env         `json:"env"`
	Defaults map[string]any   `json:"defaults"`
	Jobs     []map[string]any `json:"jobs"`
}

// Load reads and decodes path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, spec.NewConfigError(path, "invalid JSON: %v", err)
	}
	return &f, nil
}

// merge deep-merges override onto base. Maps merge recursively; everything
// else, lists included, is replaced wholesale. Neither input is mutated.
func merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = merge(bv, ov)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// jobJSON is the typed view of one merged job entry.
type jobJSON struct {
	JobID          string          `json:"job_id"`
	Template       string          `json:"template"`
	Scope          spec.Scope      `json:"scope"`
	Unique         spec.Unique     `json:"unique"`
	Policies       spec.Policies   `json:"policies"`
	TimeBucket     spec.TimeBucket `json:"time_bucket"`
	TopN           spec.TopN       `json:"top_n"`
	Outputs        []spec.Output   `json:"outputs"`
	Extra          map[string]any  `json:"extra"`
	Description    string          `json:"description"`
	FiltersExplain []string        `json:"filters_explain"`
}

// Compile merges defaults into every job and fills the unset policy fields
// with their documented defaults. Structural validity is the linter's
// business; Compile only fails on JSON that cannot be typed at all.
func Compile(f *File) ([]spec.Job, error) {
	env := f.Env
	if env.OutDir == "" {
		env.OutDir = "out"
	}

	jobs := make([]spec.Job, 0, len(f.Jobs))
	for i, rawJob := range f.Jobs {
		merged := merge(f.Defaults, rawJob)
		buf, err := json.Marshal(merged)
		if err != nil {
			return nil, spec.NewConfigError(fmt.Sprintf("jobs[%d]", i), "marshal: %v", err)
		}
		var jj jobJSON
		if err := json.Unmarshal(buf, &jj); err != nil {
			return nil, spec.NewConfigError(fmt.Sprintf("jobs[%d]", i), "bad job shape: %v", err)
		}

		if jj.Scope.CountryMode == "" {
			jj.Scope.CountryMode = spec.CountryModeAll
		}
		if jj.Unique.Unit == "" {
			jj.Unique.Unit = spec.UnitNone
		}
		if jj.Policies.DeclDatePolicy == "" {
			jj.Policies.DeclDatePolicy = spec.DeclDateSignatureFirst
		}
		if jj.Policies.NegativeLagPolicy == "" {
			jj.Policies.NegativeLagPolicy = spec.NegLagKeep
		}
		if jj.TimeBucket.Period == "" {
			jj.TimeBucket.Period = spec.PeriodMonth
		}

		jobs = append(jobs, spec.Job{
			JobID:          jj.JobID,
			Template:       jj.Template,
			Env:            env,
			Scope:          jj.Scope,
			Unique:         jj.Unique,
			Policies:       jj.Policies,
			TimeBucket:     jj.TimeBucket,
			TopN:           jj.TopN,
			Outputs:        jj.Outputs,
			Extra:          jj.Extra,
			Description:    jj.Description,
			FiltersExplain: jj.FiltersExplain,
		})
	}
	return jobs, nil
}
