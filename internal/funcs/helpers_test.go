package funcs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/store"
)

func newTestStore(tb testing.TB) *store.Store {
	tb.Helper()
	st, err := store.Open(filepath.Join(tb.TempDir(), "test.sqlite"))
	if err != nil {
		tb.Fatalf("open: %v", err)
	}
	tb.Cleanup(func() { st.Close() })
	if err := st.Exec(context.Background(), schema.CreateTableSQL()); err != nil {
		tb.Fatalf("create source table: %v", err)
	}
	return st
}

// seed inserts one row per map, filling unset columns with NULL and
// assigning __src_rownum in order unless the map sets it.
func seed(tb testing.TB, st *store.Store, rows []map[string]any) {
	tb.Helper()
	names := schema.ColumnNames()
	batch := make([][]any, 0, len(rows))
	for i, m := range rows {
		row := make([]any, len(names))
		for j, name := range names {
			if v, ok := m[name]; ok {
				row[j] = v
			} else if name == schema.RowNumColumn {
				row[j] = int64(i + 1)
			}
		}
		batch = append(batch, row)
	}
	if err := st.InsertRows(context.Background(), schema.InsertSQL(), batch); err != nil {
		tb.Fatalf("seed: %v", err)
	}
}

// buildAndExec builds f with args and materializes the result.
func buildAndExec(tb testing.TB, st *store.Store, ctx *engine.Context, f engine.Func, args engine.Args) engine.Result {
	tb.Helper()
	res, err := f.Build(ctx, args)
	if err != nil {
		tb.Fatalf("build %s: %v", f.Signature().Name, err)
	}
	if err := st.Exec(context.Background(), res.SQL, res.Params...); err != nil {
		tb.Fatalf("exec %s: %v", f.Signature().Name, err)
	}
	return res
}

// queryAll collects every row of a select result.
func queryAll(tb testing.TB, st *store.Store, sql string, params []any) [][]any {
	tb.Helper()
	var out [][]any
	err := st.QueryChunks(context.Background(), sql, params, 100, func(cols, declTypes []string, rows [][]any) error {
		out = append(out, rows...)
		return nil
	})
	if err != nil {
		tb.Fatalf("query: %v", err)
	}
	return out
}

func countOf(tb testing.TB, st *store.Store, table string) int64 {
	tb.Helper()
	n, err := st.QueryCount(context.Background(), "SELECT COUNT(*) FROM "+table)
	if err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}

func resolved(tb testing.TB, ctx *engine.Context, logical string) string {
	tb.Helper()
	p, err := ctx.ResolveTemp(logical)
	if err != nil {
		tb.Fatalf("resolve %s: %v", logical, err)
	}
	return p
}
