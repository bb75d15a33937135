package funcs

import (
	"fmt"
	"strings"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

// UnitKeyColumns maps a de-duplication unit to its partition key column.
// "none" has no key and means a straight copy.
var UnitKeyColumns = map[string]string{
	spec.UnitPubl:   "PUBL_NUMBER",
	spec.UnitApp:    "PATT_APPLICATION_NUMBER",
	spec.UnitFamily: "DIPG_PATF_ID",
	spec.UnitDipg:   "DIPG_ID",
}

// Unique keeps one representative row per unit key. The winner is picked by
// the caller's ordering with the source row number ascending always appended,
// so ties resolve the same way on every run. Rows whose key is NULL are
// excluded rather than collapsed into one bogus partition.
type Unique struct{}

func (Unique) Signature() engine.Signature {
	return engine.Signature{
		Name:        "unique",
		Required:    []string{"input", "save_as", "unit"},
		Optional:    []string{"order_by", "partition_extra"},
		Produces:    engine.KindTemp,
		Description: "de-duplicate to one row per publication, application, family, or declaration group",
	}
}

func (Unique) Build(ctx *engine.Context, args engine.Args) (engine.Result, error) {
	in, err := ctx.ResolveTemp(args.String("input", ""))
	if err != nil {
		return engine.Result{}, err
	}
	out := ctx.AllocTemp(args.String("save_as", ""))

	unit := args.String("unit", spec.UnitNone)
	if unit == spec.UnitNone {
		return engine.Result{
			SQL:         fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", out, in),
			Description: "pass-through copy (no de-duplication unit)",
		}, nil
	}

	key, ok := UnitKeyColumns[unit]
	if !ok {
		return engine.Result{}, fmt.Errorf("funcs: unique: unknown unit %q", unit)
	}

	partition := []string{key}
	orderable := schema.OrderableColumns()
	for _, extra := range args.StringList("partition_extra") {
		if !orderable[extra] {
			return engine.Result{}, fmt.Errorf("funcs: unique: partition_extra column %q is not in the source contract", extra)
		}
		partition = append(partition, extra)
	}

	orderTerms, err := keepOrder(args, orderable)
	if err != nil {
		return engine.Result{}, err
	}

	sql := fmt.Sprintf(`CREATE TABLE %s AS
SELECT * FROM (
  SELECT t.*, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS __keep_rank
  FROM %s t
  WHERE %s IS NOT NULL
) WHERE __keep_rank = 1`,
		out, strings.Join(partition, ", "), strings.Join(orderTerms, ", "), in, key)

	return engine.Result{
		SQL:         sql,
		Description: fmt.Sprintf("one row per %s", unit),
	}, nil
}

// keepOrder resolves the caller's tie-break ordering against the orderable
// column set and appends the source row number if absent.
func keepOrder(args engine.Args, orderable map[string]bool) ([]string, error) {
	var terms []string
	sawRowNum := false
	if raw, ok := args["order_by"].([]any); ok {
		for _, e := range raw {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("funcs: unique: order_by entries must be {col, dir} objects")
			}
			col, _ := m["col"].(string)
			if !orderable[col] {
				return nil, fmt.Errorf("funcs: unique: order_by column %q is not in the source contract", col)
			}
			dir := "ASC"
			if d, _ := m["dir"].(string); strings.EqualFold(d, "DESC") {
				dir = "DESC"
			}
			if col == schema.RowNumColumn {
				sawRowNum = true
			}
			terms = append(terms, col+" "+dir)
		}
	}
	if !sawRowNum {
		terms = append(terms, schema.RowNumColumn+" ASC")
	}
	return terms, nil
}
