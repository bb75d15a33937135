package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/metrics"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/store"
)

const batchSize = 10000

// LoadIfNeeded loads the canonical CSV into the source table unless the
// table already exists, in which case it is reused as-is. Returns the row
// count and whether a load happened.
func LoadIfNeeded(ctx context.Context, st *store.Store, csvPath string) (int64, bool, error) {
	exists, err := st.TableExists(ctx, schema.TableName)
	if err != nil {
		return 0, false, err
	}
	if exists {
		n, err := st.QueryCount(ctx, "SELECT COUNT(*) FROM "+schema.TableName)
		if err != nil {
			return 0, false, err
		}
		log.Printf("load table=%s reused rows=%d", schema.TableName, n)
		return n, false, nil
	}

	if err := st.Exec(ctx, schema.CreateTableSQL()); err != nil {
		return 0, false, err
	}

	n, err := loadCSV(ctx, st, csvPath)
	if err != nil {
		return 0, false, err
	}

	for _, stmt := range schema.CreateIndexSQL() {
		if err := st.Exec(ctx, stmt); err != nil {
			return 0, false, err
		}
	}
	metrics.RecordLoad(n)
	log.Printf("load table=%s loaded rows=%d src=%s", schema.TableName, n, csvPath)
	return n, true, nil
}

func loadCSV(ctx context.Context, st *store.Store, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<20)
	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("ingest: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\xef\xbb\xbf")
	}
	colIdx, err := ResolveHeaders(header)
	if err != nil {
		return 0, err
	}
	cols := schema.Columns()
	insertSQL := schema.InsertSQL()

	rowCh := make(chan []any, batchSize)
	g, gctx := errgroup.WithContext(ctx)

	// Parser: reads records, normalizes cells, assigns the source row
	// number in read order.
	g.Go(func() error {
		defer close(rowCh)
		rownum := int64(0)
		for {
			rec, err := r.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("ingest: read row %d: %w", rownum+1, err)
			}
			rownum++
			row := make([]any, 0, len(cols)+1)
			for _, col := range cols {
				idx := colIdx[col.Name]
				if idx >= len(rec) {
					row = append(row, nil)
					continue
				}
				row = append(row, Normalize(col, rec[idx]))
			}
			row = append(row, rownum)
			select {
			case rowCh <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Loader: flushes full batches in single transactions.
	var total int64
	g.Go(func() error {
		batch := make([][]any, 0, batchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := st.InsertRows(gctx, insertSQL, batch); err != nil {
				return err
			}
			total += int64(len(batch))
			log.Printf("load table=%s progress rows=%d", schema.TableName, total)
			batch = batch[:0]
			return nil
		}
		for row := range rowCh {
			batch = append(batch, row)
			if len(batch) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// sniffDelimiter peeks at the first line and picks the separator that
// appears most, defaulting to comma.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
