package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/metrics"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// KindExec marks Funcs whose statements the executor runs itself, after
// export, each one independently and best-effort. Cleanup is the only such
// Func today.
const KindExec = "exec"

// Store is the slice of the storage layer the executor needs.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryCount(ctx context.Context, sql string, args ...any) (int64, error)
}

// Exporter writes one registered select to its output destination and
// returns the path written.
type Exporter interface {
	Export(ctx context.Context, sel SelectSpec, out spec.Output, outDir string) (string, error)
}

// Options are the run's debug switches. DryRun performs every step but skips
// export; StopAfter halts after the first step running the named func and
// additionally leaves the intermediate tables in place for inspection.
type Options struct {
	DryRun    bool
	StopAfter string
}

// Run states. StateRegistered means every step ran and every select was
// registered, but export was skipped (dry run).
const (
	StateDone         = "done"
	StateStoppedAfter = "stopped-after"
	StateRegistered   = "registered"
)

// RunResult is what a run reports back. CleanupErrors are informational;
// a failed DROP never fails the run.
type RunResult struct {
	State         string
	StoppedAfter  string
	RowCounts     map[string]int64 // physical table -> rows, best effort
	Exported      []string
	CleanupErrors []error
}

// Executor drives one validated plan against the store.
type Executor struct {
	Lib      *Library
	Store    Store
	Exporter Exporter
}

// Execute validates and runs the plan for job. Intermediate steps are
// materialized one statement at a time in autocommit mode: a crash between
// steps leaves completed tables behind, named with the run id so they can be
// inspected or purged.
func (e *Executor) Execute(ctx context.Context, job spec.Job, plan *Plan, opts Options) (res RunResult, err error) {
	res = RunResult{State: StateDone, RowCounts: make(map[string]int64)}
	if err := plan.Validate(e.Lib); err != nil {
		return res, err
	}

	ec := NewContext(job.JobID)
	reg := NewSelectRegistry()
	var cleanupSQL []string
	stopped := false

	// Cleanup runs no matter how the step loop exits, unless the caller
	// asked to keep the tables via StopAfter.
	defer func() {
		if stopped {
			return
		}
		for _, stmt := range cleanupSQL {
			for _, one := range strings.Split(stmt, ";") {
				one = strings.TrimSpace(one)
				if one == "" {
					continue
				}
				if err := e.Store.Exec(ctx, one); err != nil {
					res.CleanupErrors = append(res.CleanupErrors, err)
				}
			}
		}
		if len(res.CleanupErrors) > 0 {
			log.Printf("run job=%s cleanup_errors=%d", job.JobID, len(res.CleanupErrors))
			metrics.RecordCleanupErrors(job.JobID, len(res.CleanupErrors))
		}
	}()

	for i, step := range plan.Steps {
		f, _ := e.Lib.Get(step.FuncName)
		sig := f.Signature()

		args := make(Args, len(step.Args)+1)
		for k, v := range step.Args {
			args[k] = v
		}
		if step.SaveAs != "" {
			args["save_as"] = step.SaveAs
		}

		start := time.Now()
		built, err := f.Build(ec, args)
		if err != nil {
			return res, fmt.Errorf("engine: step %d (%s): %w", i, step.FuncName, err)
		}

		switch sig.Produces {
		case KindTemp:
			err = e.Store.Exec(ctx, built.SQL, built.Params...)
			metrics.RecordStep(job.JobID, step.FuncName, err, time.Since(start))
			if err != nil {
				return res, fmt.Errorf("engine: step %d (%s): %w", i, step.FuncName, err)
			}
			phys, rerr := ec.ResolveTemp(step.SaveAs)
			if rerr == nil {
				if n, cerr := e.Store.QueryCount(ctx, "SELECT COUNT(*) FROM "+phys); cerr == nil {
					res.RowCounts[phys] = n
					log.Printf("step job=%s func=%s table=%s rows=%d dur=%s",
						job.JobID, step.FuncName, phys, n, time.Since(start).Round(time.Millisecond))
				}
			}
		case KindSelect:
			name := step.SaveAs
			if name == "" {
				name = sig.Name
			}
			reg.Put(SelectSpec{
				Name:        name,
				SQL:         built.SQL,
				Params:      built.Params,
				Columns:     built.Columns,
				Description: built.Description,
			})
			metrics.RecordStep(job.JobID, step.FuncName, nil, time.Since(start))
			log.Printf("step job=%s func=%s registered=%s", job.JobID, step.FuncName, name)
		case KindExec:
			cleanupSQL = append(cleanupSQL, built.SQL)
			metrics.RecordStep(job.JobID, step.FuncName, nil, time.Since(start))
		default:
			return res, fmt.Errorf("engine: step %d (%s): unknown produces kind %q", i, step.FuncName, sig.Produces)
		}

		if opts.StopAfter != "" && step.FuncName == opts.StopAfter {
			stopped = true
			res.State = StateStoppedAfter
			res.StoppedAfter = step.FuncName
			log.Printf("run job=%s stopped_after=%s temps=%v", job.JobID, step.FuncName, ec.Temps())
			return res, nil
		}
	}

	if opts.DryRun {
		res.State = StateRegistered
		log.Printf("run job=%s dry_run=true selects=%v", job.JobID, reg.Names())
		return res, nil
	}

	for _, out := range job.Outputs {
		sel, ok := reg.Get(out.SelectRef)
		if !ok {
			return res, &PlanError{Step: len(plan.Steps), Reason: fmt.Sprintf("output references unregistered select %q", out.SelectRef)}
		}
		path, err := e.Exporter.Export(ctx, sel, out, job.Env.OutDir)
		if err != nil {
			return res, fmt.Errorf("engine: export %s: %w", out.SelectRef, err)
		}
		res.Exported = append(res.Exported, path)
		log.Printf("export job=%s select=%s path=%s", job.JobID, out.SelectRef, path)
	}
	return res, nil
}
