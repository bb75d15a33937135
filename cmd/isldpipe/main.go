// Command isldpipe runs configured declaration analyses over the canonical
// source table: load the CSV if needed, build each job's plan from its
// template, execute, and export the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/config"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/export"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/funcs"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/ingest"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/metrics"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/metrics/prompush"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/store"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/template"
)

// Exit codes by failure category.
const (
	exitOK         = 0
	exitConfig     = 1
	exitPlan       = 2
	exitStore      = 3
	exitUnexpected = 99
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath     = flag.String("config", "", "path to the pipeline config JSON (required)")
		validateOnly   = flag.Bool("validate", false, "lint the config and exit")
		onlyLoad       = flag.Bool("only-load", false, "load the source CSV if needed, then exit")
		dryRun         = flag.Bool("dry-run", false, "run every step but skip export")
		stopAfter      = flag.String("stop-after", "", "stop after the named func and keep intermediate tables")
		printPlan      = flag.Bool("print-plan", false, "write a plan summary to <out_dir>/plan_summary.txt")
		metricsBackend = flag.String("metrics-backend", "none", "metrics backend: none or pushgateway")
		pushURL        = flag.String("pushgateway-url", "", "pushgateway base URL (with -metrics-backend=pushgateway)")
		verbose        = flag.Bool("v", false, "log step progress")
	)
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: -config is required")
		flag.Usage()
		return exitConfig
	}

	f, err := config.Load(*configPath)
	if err != nil {
		return fail(err)
	}
	jobs, err := config.Compile(f)
	if err != nil {
		return fail(err)
	}

	templates := template.DefaultRegistry()
	env := f.Env
	if len(jobs) > 0 {
		env = jobs[0].Env
	}

	issues := config.Validate(env, jobs, templates.Names())
	for _, issue := range issues {
		fmt.Fprintln(os.Stderr, issue)
	}
	if config.HasErrors(issues) {
		return exitConfig
	}
	if *validateOnly {
		fmt.Printf("config ok: %d jobs, %d warnings\n", len(jobs), len(issues))
		return exitOK
	}

	switch *metricsBackend {
	case "pushgateway":
		if *pushURL == "" {
			fmt.Fprintln(os.Stderr, "error: -pushgateway-url is required with -metrics-backend=pushgateway")
			return exitConfig
		}
		metrics.SetBackend(prompush.New(*pushURL, "isldpipe"))
	case "none", "":
	default:
		fmt.Fprintf(os.Stderr, "error: unknown metrics backend %q\n", *metricsBackend)
		return exitConfig
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: metrics flush: %v\n", err)
		}
	}()

	ctx := context.Background()
	st, err := store.Open(env.SQLitePath)
	if err != nil {
		return fail(err)
	}
	defer st.Close()

	rows, loaded, err := ingest.LoadIfNeeded(ctx, st, env.SourceCSVPath)
	if err != nil {
		return fail(err)
	}
	if loaded {
		fmt.Printf("loaded %d rows into the source table\n", rows)
	}
	if *onlyLoad {
		return exitOK
	}

	exec := &engine.Executor{
		Lib:      funcs.DefaultLibrary(),
		Store:    st,
		Exporter: &export.CSVExporter{Store: st},
	}
	opts := engine.Options{DryRun: *dryRun, StopAfter: *stopAfter}

	var planSummary strings.Builder
	for _, job := range jobs {
		builder, ok := templates.Get(job.Template)
		if !ok {
			return fail(spec.NewConfigError("jobs."+job.JobID+".template", "unknown template %q", job.Template))
		}
		plan, defOutputs, err := builder.Build(job)
		if err != nil {
			return fail(err)
		}
		if len(job.Outputs) == 0 {
			job.Outputs = defOutputs
		}

		if *printPlan {
			writePlanSummary(&planSummary, job, plan)
		}

		res, err := exec.Execute(ctx, job, plan, opts)
		if err != nil {
			return fail(fmt.Errorf("job %s: %w", job.JobID, err))
		}
		fmt.Printf("job %s: %s", job.JobID, res.State)
		if res.StoppedAfter != "" {
			fmt.Printf(" (%s)", res.StoppedAfter)
		}
		for _, p := range res.Exported {
			fmt.Printf(" %s", p)
		}
		if n := len(res.CleanupErrors); n > 0 {
			fmt.Printf(" [%d cleanup errors]", n)
		}
		fmt.Println()
	}

	if *printPlan {
		path := filepath.Join(env.OutDir, "plan_summary.txt")
		if err := os.MkdirAll(env.OutDir, 0o755); err != nil {
			return fail(err)
		}
		if err := os.WriteFile(path, []byte(planSummary.String()), 0o644); err != nil {
			return fail(err)
		}
		fmt.Printf("plan summary written to %s\n", path)
	}
	return exitOK
}

func writePlanSummary(b *strings.Builder, job spec.Job, plan *engine.Plan) {
	fmt.Fprintf(b, "job %s (template %s)\n", job.JobID, job.Template)
	if job.Description != "" {
		fmt.Fprintf(b, "  # %s\n", job.Description)
	}
	for _, line := range job.FiltersExplain {
		fmt.Fprintf(b, "  # %s\n", line)
	}
	for i, step := range plan.Steps {
		fmt.Fprintf(b, "  %2d. %s", i+1, step.FuncName)
		if step.SaveAs != "" {
			fmt.Fprintf(b, " -> %s", step.SaveAs)
		}
		fmt.Fprintln(b)
	}
	for _, out := range job.Outputs {
		fmt.Fprintf(b, "  out: %s (%s)\n", out.Filename, out.SelectRef)
	}
	fmt.Fprintln(b)
}

// fail prints the error and maps it to its category's exit code.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	var (
		cfgErr  *spec.ConfigError
		planErr *engine.PlanError
		sqlErr  *store.SQLError
	)
	switch {
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &planErr):
		return exitPlan
	case errors.As(err, &sqlErr):
		return exitStore
	}
	return exitUnexpected
}
