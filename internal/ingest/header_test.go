package ingest

import (
	"strings"
	"testing"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/spec"
)

func TestCanonicalHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"IPRD_ID", "iprd id"},
		{"  Publication   Number ", "publication number"},
		{"Comp_Legal_Name", "comp legal name"},
		{"Décl_Daté", "decl date"},
	}
	for _, tt := range tests {
		if got := canonicalHeader(tt.in); got != tt.want {
			t.Errorf("canonicalHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func fullHeader() []string {
	cols := schema.Columns()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.SourceHeaders[0])
	}
	return out
}

func TestResolveHeadersFullSet(t *testing.T) {
	idx, err := ResolveHeaders(fullHeader())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(idx) != len(schema.Columns()) {
		t.Fatalf("resolved %d columns, want %d", len(idx), len(schema.Columns()))
	}
}

func TestResolveHeadersCaseAndSpelling(t *testing.T) {
	headers := fullHeader()
	headers[0] = strings.ToUpper(headers[0]) // spelled differently, same column
	idx, err := ResolveHeaders(headers)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if idx["IPRD_ID"] != 0 {
		t.Fatalf("IPRD_ID index = %d, want 0", idx["IPRD_ID"])
	}
}

func TestResolveHeadersListsAllMissing(t *testing.T) {
	headers := fullHeader()[2:] // drop the first two columns
	_, err := ResolveHeaders(headers)
	if err == nil {
		t.Fatal("want error")
	}
	cfgErr, ok := err.(*spec.ConfigError)
	if !ok {
		t.Fatalf("error type = %T, want *spec.ConfigError", err)
	}
	if !strings.Contains(cfgErr.Msg, "IPRD_ID") || !strings.Contains(cfgErr.Msg, "DIPG_ID") {
		t.Fatalf("error does not list both missing columns: %v", cfgErr)
	}
}
