package engine

import (
	"fmt"
	"strings"
)

// Step is one plan entry: the Func to run, its arguments, and (for
// temp-producing Funcs) the logical name the result is saved under.
type Step struct {
	FuncName string
	Args     Args
	SaveAs   string
}

// Plan is an ordered, append-only list of steps. Plans are cheap values;
// validation happens once before execution.
type Plan struct {
	Steps []Step
}

// Add appends a step and returns the plan for chaining.
func (p *Plan) Add(funcName string, args Args, saveAs string) *Plan {
	p.Steps = append(p.Steps, Step{FuncName: funcName, Args: args, SaveAs: saveAs})
	return p
}

// PlanError reports a structurally invalid plan. Step is the zero-based
// index of the offending step.
type PlanError struct {
	Step   int
	Reason string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan: step %d: %s", e.Step, e.Reason)
}

// Row-shaping phases, ordered. Select and cleanup funcs are phase-free and
// may appear anywhere after the shaping steps they read from.
const (
	phaseScope = iota
	phaseUnique
	phaseEnrich
	phaseNone
)

func phaseOf(funcName string) int {
	switch {
	case strings.HasPrefix(funcName, "scope"):
		return phaseScope
	case strings.HasPrefix(funcName, "unique"):
		return phaseUnique
	case strings.HasPrefix(funcName, "enrich"):
		return phaseEnrich
	}
	return phaseNone
}

// Validate checks the plan against lib. Fail-fast, first error wins, in this
// order per step: unknown func, duplicate SaveAs, phase regression. A valid
// plan still may fail at run time (unresolved table references surface from
// Build), but a validated plan is structurally executable.
func (p *Plan) Validate(lib *Library) error {
	saved := make(map[string]int)
	maxPhase := phaseScope
	for i, s := range p.Steps {
		if !lib.Has(s.FuncName) {
			return &PlanError{Step: i, Reason: fmt.Sprintf("unknown func %q", s.FuncName)}
		}
		if s.SaveAs != "" {
			if prev, dup := saved[s.SaveAs]; dup {
				return &PlanError{Step: i, Reason: fmt.Sprintf("duplicate save name %q (first used at step %d)", s.SaveAs, prev)}
			}
			saved[s.SaveAs] = i
		}
		if ph := phaseOf(s.FuncName); ph != phaseNone {
			if ph < maxPhase {
				return &PlanError{Step: i, Reason: fmt.Sprintf("func %q out of order: scope steps precede unique steps precede enrich steps", s.FuncName)}
			}
			maxPhase = ph
		}
	}
	return nil
}
