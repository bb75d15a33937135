package funcs_test

import (
	"testing"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/funcs"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
)

func TestUniqueKeepsOneRowPerKey(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, []map[string]any{
		{"PUBL_NUMBER": "EP100", "IPRD_SIGNATURE_DATE": "2019-01-01"},
		{"PUBL_NUMBER": "EP100", "IPRD_SIGNATURE_DATE": "2020-01-01"},
		{"PUBL_NUMBER": "EP200", "IPRD_SIGNATURE_DATE": "2018-06-01"},
		{"PUBL_NUMBER": nil, "IPRD_SIGNATURE_DATE": "2017-01-01"},
	})
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Unique{}, engine.Args{
		"input": schema.TableName, "save_as": "deduped",
		"unit": "publ",
		"order_by": []any{
			map[string]any{"col": "IPRD_SIGNATURE_DATE", "dir": "DESC"},
		},
	})

	table := resolved(t, ctx, "deduped")
	if n := countOf(t, st, table); n != 2 {
		t.Fatalf("rows = %d, want 2 (null keys excluded)", n)
	}
	rows := queryAll(t, st, "SELECT IPRD_SIGNATURE_DATE FROM "+table+" WHERE PUBL_NUMBER = 'EP100'", nil)
	if len(rows) != 1 || rows[0][0].(string) != "2020-01-01" {
		t.Fatalf("kept row = %v, want the latest signature", rows)
	}
}

func TestUniqueTieBreakBySourceRowNumber(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, []map[string]any{
		{"PUBL_NUMBER": "EP100", "IPRD_SIGNATURE_DATE": "2019-01-01", "COMP_LEGAL_NAME": "first"},
		{"PUBL_NUMBER": "EP100", "IPRD_SIGNATURE_DATE": "2019-01-01", "COMP_LEGAL_NAME": "second"},
	})
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Unique{}, engine.Args{
		"input": schema.TableName, "save_as": "deduped",
		"unit": "publ",
		"order_by": []any{
			map[string]any{"col": "IPRD_SIGNATURE_DATE", "dir": "DESC"},
		},
	})

	table := resolved(t, ctx, "deduped")
	rows := queryAll(t, st, "SELECT COMP_LEGAL_NAME FROM "+table, nil)
	if len(rows) != 1 || rows[0][0].(string) != "first" {
		t.Fatalf("winner = %v, want the earlier source row", rows)
	}
}

func TestUniqueTenRowsThreeSharingKey(t *testing.T) {
	st := newTestStore(t)
	rows := make([]map[string]any, 0, 10)
	// Three declarations against the same family; the earliest signature
	// must win under ascending order.
	for i, sig := range []string{"2019-03-01", "2018-01-01", "2020-12-31"} {
		rows = append(rows, map[string]any{
			"DIPG_PATF_ID":        int64(100),
			"IPRD_SIGNATURE_DATE": sig,
			"COMP_LEGAL_NAME":     []string{"late", "earliest", "latest"}[i],
		})
	}
	for i := 0; i < 7; i++ {
		rows = append(rows, map[string]any{
			"DIPG_PATF_ID":        int64(200 + i),
			"IPRD_SIGNATURE_DATE": "2019-01-01",
		})
	}
	seed(t, st, rows)
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Unique{}, engine.Args{
		"input": schema.TableName, "save_as": "deduped",
		"unit": "family",
		"order_by": []any{
			map[string]any{"col": "IPRD_SIGNATURE_DATE", "dir": "ASC"},
		},
	})

	table := resolved(t, ctx, "deduped")
	if n := countOf(t, st, table); n != 8 {
		t.Fatalf("rows = %d, want 8", n)
	}
	got := queryAll(t, st, "SELECT COMP_LEGAL_NAME FROM "+table+" WHERE DIPG_PATF_ID = 100", nil)
	if len(got) != 1 || got[0][0].(string) != "earliest" {
		t.Fatalf("kept row = %v, want the earliest signature", got)
	}
}

func TestUniqueNoneIsCopy(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, []map[string]any{
		{"PUBL_NUMBER": "EP100"},
		{"PUBL_NUMBER": "EP100"},
	})
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Unique{}, engine.Args{
		"input": schema.TableName, "save_as": "deduped",
		"unit": "none",
	})
	if n := countOf(t, st, resolved(t, ctx, "deduped")); n != 2 {
		t.Fatalf("rows = %d, want 2 (straight copy)", n)
	}
}

func TestUniqueRejectsUnknownUnitAndColumns(t *testing.T) {
	ctx := engine.NewContext("job")
	if _, err := (funcs.Unique{}).Build(ctx, engine.Args{
		"input": schema.TableName, "save_as": "a", "unit": "bogus",
	}); err == nil {
		t.Fatal("want error for unknown unit")
	}
	ctx = engine.NewContext("job")
	if _, err := (funcs.Unique{}).Build(ctx, engine.Args{
		"input": schema.TableName, "save_as": "a", "unit": "publ",
		"order_by": []any{map[string]any{"col": "evil; DROP TABLE x", "dir": "ASC"}},
	}); err == nil {
		t.Fatal("want error for column outside the contract")
	}
}
