// Package export writes registered result sets to flat files. CSV is the
// only format; anything else is rejected before a run starts.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/metrics"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/store"
)

// utf8BOM keeps spreadsheet tools from mangling non-ASCII company names.
const utf8BOM = "\xEF\xBB\xBF"

// CSVExporter streams a select to one CSV file per output.
type CSVExporter struct {
	Store     *store.Store
	ChunkSize int
}

// Export runs the select and writes it under outDir. An empty result yields
// a header-only file, not an error. Returns the path written.
func (e *CSVExporter) Export(ctx context.Context, sel engine.SelectSpec, out spec.Output, outDir string) (string, error) {
	if out.Format != "" && out.Format != "csv" {
		return "", fmt.Errorf("export: unsupported format %q", out.Format)
	}
	name := out.Filename
	if name == "" {
		name = sel.Name + ".csv"
	}
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", outDir, err)
	}
	path := filepath.Join(outDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	w := csv.NewWriter(f)

	var rowsWritten int64
	headerDone := false
	err = e.Store.QueryChunks(ctx, sel.SQL, sel.Params, e.ChunkSize, func(cols, declTypes []string, rows [][]any) error {
		if !headerDone {
			header := sel.Columns
			if len(header) == 0 {
				header = cols
			}
			if err := w.Write(header); err != nil {
				return err
			}
			headerDone = true
		}
		rec := make([]string, len(cols))
		for _, row := range rows {
			for i, v := range row {
				rec[i] = cellString(v, declTypes[i], out.NullPolicy)
			}
			if err := w.Write(rec); err != nil {
				return err
			}
			rowsWritten++
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("export: %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush %s: %w", path, err)
	}
	metrics.RecordExport(sel.Name, rowsWritten)
	return path, nil
}

// cellString renders one cell. NULLs take the policy's typed sentinel picked
// by the column's declared type; without a policy they render empty.
func cellString(v any, declType string, pol spec.NullPolicy) string {
	if v == nil {
		return nullString(declType, pol)
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", x)
	}
}

func nullString(declType string, pol spec.NullPolicy) string {
	t := strings.ToUpper(declType)
	var sub any
	switch {
	case strings.Contains(t, "INT"):
		sub = pol.IntNull
	case strings.Contains(t, "DATE"):
		sub = pol.DateNull
	default:
		sub = pol.TextNull
	}
	if sub == nil {
		return ""
	}
	return cellString(sub, "", spec.NullPolicy{})
}
