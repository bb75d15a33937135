package ingest

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/store"
)

const testCSV = `IPRD_ID,DIPG_ID,DIPG_PATF_ID,Publication Number,Application Number,Company Legal Name,Country Of Registration,Signature Date,Reflected Date,Application Date,Spec Number,Spec Version,Standard,Patent Type,2G,3G,4G,5G,Ess_To_Standard,Ess_To_Project,Title,Normalized Patent
1,10,100,EP 123,APP1,Acme Telecom,JP Japan,2019/06/15,2019-07-01,2019-01-10,38.211,16.2.0,Rel-16,Granted,0,0,0,1,1,0,Some Title,EP123
2,11,100,pending,APP2,Globex,US United States,,1900-01-01,2018-05-02,36.211,12.4.0,Rel-12,Application,0,0,1,0,1,1,Other Title,US987
`

func newLoaderStore(tb testing.TB) *store.Store {
	tb.Helper()
	st, err := store.Open(filepath.Join(tb.TempDir(), "load.sqlite"))
	if err != nil {
		tb.Fatalf("open: %v", err)
	}
	tb.Cleanup(func() { st.Close() })
	return st
}

func writeCSV(tb testing.TB, body string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "src.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		tb.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadIfNeeded(t *testing.T) {
	st := newLoaderStore(t)
	ctx := context.Background()
	path := writeCSV(t, testCSV)

	n, loaded, err := LoadIfNeeded(ctx, st, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded || n != 2 {
		t.Fatalf("loaded = %v rows = %d, want fresh load of 2", loaded, n)
	}

	// Normalizers applied: date folded to ISO, patent sentinel to NULL,
	// row numbers in read order.
	rows := func(q string) int64 {
		t.Helper()
		c, err := st.QueryCount(ctx, q)
		if err != nil {
			t.Fatalf("query %q: %v", q, err)
		}
		return c
	}
	if c := rows("SELECT COUNT(*) FROM isld_pure WHERE IPRD_SIGNATURE_DATE = '2019-06-15'"); c != 1 {
		t.Fatalf("normalized signature dates = %d, want 1", c)
	}
	if c := rows("SELECT COUNT(*) FROM isld_pure WHERE PUBL_NUMBER IS NULL"); c != 1 {
		t.Fatalf("NULL publications = %d, want 1 (pending sentinel)", c)
	}
	if c := rows("SELECT COUNT(*) FROM isld_pure WHERE " + schema.RowNumColumn + " IN (1, 2)"); c != 2 {
		t.Fatalf("row numbers = %d rows in 1..2, want 2", c)
	}
	if c := rows("SELECT COUNT(*) FROM isld_pure WHERE PUBL_NUMBER = 'EP123'"); c != 1 {
		t.Fatalf("space-stripped publication = %d, want 1", c)
	}
}

func TestLoadIfNeededReusesExistingTable(t *testing.T) {
	st := newLoaderStore(t)
	ctx := context.Background()
	path := writeCSV(t, testCSV)

	if _, _, err := LoadIfNeeded(ctx, st, path); err != nil {
		t.Fatalf("first load: %v", err)
	}
	n, loaded, err := LoadIfNeeded(ctx, st, "does-not-exist.csv")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if loaded || n != 2 {
		t.Fatalf("loaded = %v rows = %d, want reuse of existing table", loaded, n)
	}
}

func TestSniffDelimiterSemicolon(t *testing.T) {
	semicolonCSV := "a;b;c\n1;2;3\n"
	path := writeCSV(t, semicolonCSV)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	if d := sniffDelimiter(br); d != ';' {
		t.Fatalf("delimiter = %q, want ';'", d)
	}
}
