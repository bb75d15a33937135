package funcs

import (
	"strings"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
)

// Cleanup drops every table the run allocated. The executor runs each DROP
// independently and best-effort after export, so one refusal never strands
// the rest.
type Cleanup struct{}

func (Cleanup) Signature() engine.Signature {
	return engine.Signature{
		Name:        "cleanup",
		Produces:    engine.KindExec,
		Description: "drop the run's intermediate tables",
	}
}

func (Cleanup) Build(ctx *engine.Context, _ engine.Args) (engine.Result, error) {
	temps := ctx.Temps()
	if len(temps) == 0 {
		return engine.Result{SQL: "SELECT 1;"}, nil
	}
	var b strings.Builder
	for _, t := range temps {
		b.WriteString("DROP TABLE IF EXISTS ")
		b.WriteString(t)
		b.WriteString(";\n")
	}
	return engine.Result{SQL: b.String()}, nil
}
