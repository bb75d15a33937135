// Package schema is the single source of truth for the declaration source
// table: its name, column contract, DDL, and the header candidates used when
// loading the canonical CSV. Every identifier the SQL generators interpolate
// comes from this closed set.
package schema

import (
	"fmt"
	"strings"
)

// TableName is the canonical source table. It is also a reserved logical name
// in the execution context and resolves to itself.
const TableName = "isld_pure"

// RowNumColumn records the 1-based position of each row in the source CSV.
// It is the universal final tie-break for windowed de-duplication.
const RowNumColumn = "__src_rownum"

// Normalizer kinds, consumed by the ingest package.
const (
	NormText    = "text"
	NormInt     = "int"
	NormBool    = "bool"
	NormDate    = "date"
	NormPatent  = "patent"
	NormCompany = "company"
)

// Column describes one source-table column: storage type, the normalizer the
// loader applies, and the CSV header spellings it may arrive under.
type Column struct {
	Name          string
	Type          string // declared SQLite type, e.g. TEXT, INTEGER, DATE
	NotNull       bool
	Normalizer    string
	SourceHeaders []string // canonicalized candidates, first match wins
	KeyCandidate  bool     // usable as a de-duplication unit key
}

var columns = []Column{
	{Name: "IPRD_ID", Type: "INTEGER", Normalizer: NormInt, SourceHeaders: []string{"iprd_id", "iprd id"}},
	{Name: "DIPG_ID", Type: "INTEGER", Normalizer: NormInt, SourceHeaders: []string{"dipg_id", "dipg id"}, KeyCandidate: true},
	{Name: "DIPG_PATF_ID", Type: "INTEGER", Normalizer: NormInt, SourceHeaders: []string{"dipg_patf_id", "dipg patf id", "patent family id"}, KeyCandidate: true},
	{Name: "PUBL_NUMBER", Type: "TEXT", Normalizer: NormPatent, SourceHeaders: []string{"publ_number", "publication number", "publ number"}, KeyCandidate: true},
	{Name: "PATT_APPLICATION_NUMBER", Type: "TEXT", Normalizer: NormPatent, SourceHeaders: []string{"patt_application_number", "application number", "patt application number"}, KeyCandidate: true},
	{Name: "COMP_LEGAL_NAME", Type: "TEXT", Normalizer: NormCompany, SourceHeaders: []string{"comp_legal_name", "company legal name", "declaring company"}},
	{Name: "Country_Of_Registration", Type: "TEXT", Normalizer: NormText, SourceHeaders: []string{"country_of_registration", "country of registration"}},
	{Name: "IPRD_SIGNATURE_DATE", Type: "DATE", Normalizer: NormDate, SourceHeaders: []string{"iprd_signature_date", "signature date"}},
	{Name: "Reflected_Date", Type: "DATE", Normalizer: NormDate, SourceHeaders: []string{"reflected_date", "reflected date"}},
	{Name: "PBPA_APP_DATE", Type: "DATE", Normalizer: NormDate, SourceHeaders: []string{"pbpa_app_date", "application date", "pbpa app date"}},
	{Name: "TGPP_NUMBER", Type: "TEXT", Normalizer: NormText, SourceHeaders: []string{"tgpp_number", "spec number", "tgpp number"}},
	{Name: "TGPV_VERSION", Type: "TEXT", Normalizer: NormText, SourceHeaders: []string{"tgpv_version", "spec version", "tgpv version"}},
	{Name: "Standard", Type: "TEXT", Normalizer: NormText, SourceHeaders: []string{"standard"}},
	{Name: "Patent_Type", Type: "TEXT", Normalizer: NormText, SourceHeaders: []string{"patent_type", "patent type"}},
	{Name: "Gen_2G", Type: "INTEGER", Normalizer: NormBool, SourceHeaders: []string{"gen_2g", "2g"}},
	{Name: "Gen_3G", Type: "INTEGER", Normalizer: NormBool, SourceHeaders: []string{"gen_3g", "3g"}},
	{Name: "Gen_4G", Type: "INTEGER", Normalizer: NormBool, SourceHeaders: []string{"gen_4g", "4g"}},
	{Name: "Gen_5G", Type: "INTEGER", Normalizer: NormBool, SourceHeaders: []string{"gen_5g", "5g"}},
	{Name: "Ess_To_Standard", Type: "INTEGER", Normalizer: NormBool, SourceHeaders: []string{"ess_to_standard", "essential to standard"}},
	{Name: "Ess_To_Project", Type: "INTEGER", Normalizer: NormBool, SourceHeaders: []string{"ess_to_project", "essential to project"}},
	{Name: "PBPA_TITLEEN", Type: "TEXT", Normalizer: NormText, SourceHeaders: []string{"pbpa_titleen", "title", "patent title"}},
	{Name: "Normalized_Patent", Type: "TEXT", Normalizer: NormPatent, SourceHeaders: []string{"normalized_patent", "normalized patent"}},
}

// Columns returns the source-table column contract, source order, excluding
// the row-number column.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// ColumnNames returns every data column name plus RowNumColumn, in DDL order.
func ColumnNames() []string {
	names := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		names = append(names, c.Name)
	}
	return append(names, RowNumColumn)
}

// HasColumn reports whether name is part of the source contract (the
// row-number column included). Matching is exact; identifiers are
// case-sensitive by policy even though SQLite is not.
func HasColumn(name string) bool {
	if name == RowNumColumn {
		return true
	}
	for _, c := range columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// CreateTableSQL returns the DDL for the source table.
func CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", TableName)
	for _, c := range columns {
		fmt.Fprintf(&b, "  %s %s", c.Name, c.Type)
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	fmt.Fprintf(&b, "  %s INTEGER NOT NULL\n)", RowNumColumn)
	return b.String()
}

// CreateIndexSQL returns one CREATE INDEX statement per lookup-heavy column:
// the de-duplication key candidates plus the columns the filters and
// aggregations touch most.
func CreateIndexSQL() []string {
	indexed := []string{
		"Country_Of_Registration", "PBPA_APP_DATE",
		"TGPP_NUMBER", "TGPV_VERSION", "Gen_4G", "Gen_5G",
	}
	for _, c := range columns {
		if c.KeyCandidate {
			indexed = append(indexed, c.Name)
		}
	}
	stmts := make([]string, 0, len(indexed))
	for _, col := range indexed {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
			TableName, strings.ToLower(col), TableName, col))
	}
	return stmts
}

// InsertSQL returns the parameterized insert covering every column including
// the row number.
func InsertSQL() string {
	names := ColumnNames()
	ph := make([]string, len(names))
	for i := range ph {
		ph[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(names, ", "), strings.Join(ph, ", "))
}

// OrderableColumns is the closed set of columns a caller-supplied ORDER BY
// may reference: the physical contract plus the derived columns the
// enrichment step can add.
func OrderableColumns() map[string]bool {
	out := make(map[string]bool, len(columns)+5)
	for _, c := range columns {
		out[c.Name] = true
	}
	out[RowNumColumn] = true
	out["decl_date"] = true
	out["lag_days"] = true
	out["release_num"] = true
	out["time_bucket"] = true
	return out
}
