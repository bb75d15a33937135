package schema

import (
	"strings"
	"testing"
)

func TestColumnNamesEndWithRowNum(t *testing.T) {
	names := ColumnNames()
	if names[len(names)-1] != RowNumColumn {
		t.Fatalf("last column = %q, want %q", names[len(names)-1], RowNumColumn)
	}
	if len(names) != len(Columns())+1 {
		t.Fatalf("names = %d, want %d", len(names), len(Columns())+1)
	}
}

func TestCreateTableSQLCoversEveryColumn(t *testing.T) {
	ddl := CreateTableSQL()
	if !strings.Contains(ddl, TableName) {
		t.Fatalf("DDL missing table name:\n%s", ddl)
	}
	for _, name := range ColumnNames() {
		if !strings.Contains(ddl, name) {
			t.Errorf("DDL missing column %s", name)
		}
	}
	if !strings.Contains(ddl, RowNumColumn+" INTEGER NOT NULL") {
		t.Fatalf("row number column must be NOT NULL:\n%s", ddl)
	}
}

func TestInsertSQLPlaceholderCount(t *testing.T) {
	stmt := InsertSQL()
	if got, want := strings.Count(stmt, "?"), len(ColumnNames()); got != want {
		t.Fatalf("placeholders = %d, want %d", got, want)
	}
}

func TestHasColumn(t *testing.T) {
	if !HasColumn("PUBL_NUMBER") || !HasColumn(RowNumColumn) {
		t.Fatal("contract columns not recognized")
	}
	if HasColumn("publ_number") {
		t.Fatal("matching must be exact")
	}
	if HasColumn("nope") {
		t.Fatal("unknown column accepted")
	}
}

func TestOrderableColumnsIncludeDerived(t *testing.T) {
	o := OrderableColumns()
	for _, name := range []string{"decl_date", "lag_days", "release_num", "time_bucket", RowNumColumn, "PUBL_NUMBER"} {
		if !o[name] {
			t.Errorf("%s not orderable", name)
		}
	}
	if o["__keep_rank"] {
		t.Error("internal rank column must not be orderable")
	}
}

func TestCreateIndexSQLTargetsKeyCandidates(t *testing.T) {
	stmts := CreateIndexSQL()
	joined := strings.Join(stmts, "\n")
	for _, col := range []string{"PUBL_NUMBER", "PATT_APPLICATION_NUMBER", "DIPG_PATF_ID", "DIPG_ID", "Country_Of_Registration", "PBPA_APP_DATE"} {
		if !strings.Contains(joined, "("+col+")") {
			t.Errorf("no index on %s", col)
		}
	}
}
