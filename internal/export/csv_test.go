package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/store"
)

func newExportStore(tb testing.TB) *store.Store {
	tb.Helper()
	st, err := store.Open(filepath.Join(tb.TempDir(), "exp.sqlite"))
	if err != nil {
		tb.Fatalf("open: %v", err)
	}
	tb.Cleanup(func() { st.Close() })
	ctx := context.Background()
	if err := st.Exec(ctx, "CREATE TABLE r (a INTEGER, d DATE, s TEXT)"); err != nil {
		tb.Fatalf("create: %v", err)
	}
	return st
}

func readLines(tb testing.TB, path string) []string {
	tb.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read: %v", err)
	}
	body := string(raw)
	if !strings.HasPrefix(body, "\xEF\xBB\xBF") {
		tb.Fatalf("missing UTF-8 BOM")
	}
	body = strings.TrimPrefix(body, "\xEF\xBB\xBF")
	return strings.Split(strings.TrimSuffix(body, "\n"), "\n")
}

func TestExportWritesHeaderAndRows(t *testing.T) {
	st := newExportStore(t)
	ctx := context.Background()
	if err := st.Exec(ctx, "INSERT INTO r VALUES (1, '2019-06-15', 'Acme')"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	e := &CSVExporter{Store: st}
	sel := engine.SelectSpec{
		Name:    "sel_r",
		SQL:     "SELECT a, d, s FROM r",
		Columns: []string{"a", "d", "s"},
	}
	dir := t.TempDir()
	path, err := e.Export(ctx, sel, spec.Output{SelectRef: "sel_r", Format: "csv"}, dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "sel_r.csv" {
		t.Fatalf("default filename = %s", path)
	}

	lines := readLines(t, path)
	if lines[0] != "a,d,s" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "1,2019-06-15,Acme" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestExportEmptyResultIsHeaderOnly(t *testing.T) {
	st := newExportStore(t)
	e := &CSVExporter{Store: st}
	sel := engine.SelectSpec{
		Name:    "sel_empty",
		SQL:     "SELECT a, d, s FROM r",
		Columns: []string{"a", "d", "s"},
	}
	path, err := e.Export(context.Background(), sel, spec.Output{SelectRef: "sel_empty"}, t.TempDir())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := readLines(t, path)
	if len(lines) != 1 || lines[0] != "a,d,s" {
		t.Fatalf("lines = %q, want header only", lines)
	}
}

func TestExportNullSubstitutionByType(t *testing.T) {
	st := newExportStore(t)
	ctx := context.Background()
	if err := st.Exec(ctx, "INSERT INTO r VALUES (NULL, NULL, NULL)"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	e := &CSVExporter{Store: st}
	sel := engine.SelectSpec{
		Name:    "sel_nulls",
		SQL:     "SELECT a, d, s FROM r",
		Columns: []string{"a", "d", "s"},
	}
	out := spec.Output{
		SelectRef: "sel_nulls",
		NullPolicy: spec.NullPolicy{
			IntNull:  float64(-1),
			DateNull: "1900-01-01",
			TextNull: "(none)",
		},
	}
	path, err := e.Export(ctx, sel, out, t.TempDir())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := readLines(t, path)
	if lines[1] != "-1,1900-01-01,(none)" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestExportWithoutPolicyRendersEmpty(t *testing.T) {
	st := newExportStore(t)
	ctx := context.Background()
	if err := st.Exec(ctx, "INSERT INTO r VALUES (NULL, NULL, NULL)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	e := &CSVExporter{Store: st}
	sel := engine.SelectSpec{Name: "s", SQL: "SELECT a, d, s FROM r", Columns: []string{"a", "d", "s"}}
	path, err := e.Export(ctx, sel, spec.Output{SelectRef: "s"}, t.TempDir())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := readLines(t, path)
	if lines[1] != ",," {
		t.Fatalf("row = %q, want empty cells", lines[1])
	}
}

func TestExportRejectsNonCSVFormat(t *testing.T) {
	st := newExportStore(t)
	e := &CSVExporter{Store: st}
	sel := engine.SelectSpec{Name: "s", SQL: "SELECT 1"}
	if _, err := e.Export(context.Background(), sel, spec.Output{Format: "xlsx"}, t.TempDir()); err == nil {
		t.Fatal("want error for xlsx")
	}
}
