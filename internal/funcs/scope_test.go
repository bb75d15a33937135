package funcs_test

import (
	"strings"
	"testing"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/funcs"
	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
)

func scopeRows() []map[string]any {
	return []map[string]any{
		{"COMP_LEGAL_NAME": "Acme Telecom KK", "Country_Of_Registration": "JP Japan", "PBPA_APP_DATE": "2019-05-01", "TGPP_NUMBER": "38.211", "TGPV_VERSION": "16.2.0", "Gen_5G": int64(1)},
		{"COMP_LEGAL_NAME": "Globex Inc", "Country_Of_Registration": "US United States", "PBPA_APP_DATE": "2015-03-10", "TGPP_NUMBER": "36.211", "TGPV_VERSION": "12.4.0", "Gen_4G": int64(1)},
		{"COMP_LEGAL_NAME": "Initech GmbH", "Country_Of_Registration": "DE Germany", "PBPA_APP_DATE": "2021-11-20", "TGPP_NUMBER": "38.331", "TGPV_VERSION": "16.0.0", "Gen_5G": int64(1)},
	}
}

func TestScopeEmptyIsIdentity(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, scopeRows())
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{"input": schema.TableName, "save_as": "scoped"})
	if n := countOf(t, st, resolved(t, ctx, "scoped")); n != 3 {
		t.Fatalf("rows = %d, want 3", n)
	}
}

func TestScopeCompanySubstringCaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, scopeRows())
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{
		"input": schema.TableName, "save_as": "scoped",
		"companies": []string{"acme"},
	})
	if n := countOf(t, st, resolved(t, ctx, "scoped")); n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
}

func TestScopeCountryModeGate(t *testing.T) {
	tests := []struct {
		name string
		mode string
		want int64
	}{
		{"filter applies countries", "FILTER", 1},
		{"all ignores countries", "ALL", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t)
			seed(t, st, scopeRows())
			ctx := engine.NewContext("job")

			buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{
				"input": schema.TableName, "save_as": "scoped",
				"countries":    []string{"JP Japan"},
				"country_mode": tt.mode,
			})
			if n := countOf(t, st, resolved(t, ctx, "scoped")); n != tt.want {
				t.Fatalf("rows = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestScopeCountryPrefix(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, scopeRows())
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{
		"input": schema.TableName, "save_as": "scoped",
		"country_prefixes": []string{"JP", "US"},
		"country_mode":     "FILTER",
	})
	if n := countOf(t, st, resolved(t, ctx, "scoped")); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestScopeDateWindowInclusive(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, scopeRows())
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{
		"input": schema.TableName, "save_as": "scoped",
		"date_from": "2015-03-10",
		"date_to":   "2019-05-01",
	})
	if n := countOf(t, st, resolved(t, ctx, "scoped")); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestScopeReleaseExactMatchOnVersion(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, scopeRows())
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{
		"input": schema.TableName, "save_as": "scoped",
		"releases": []string{"16.2.0", "12.4.0"},
	})
	if n := countOf(t, st, resolved(t, ctx, "scoped")); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestScopeGenAndVersionFilters(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, scopeRows())
	ctx := engine.NewContext("job")

	buildAndExec(t, st, ctx, funcs.Scope{}, engine.Args{
		"input": schema.TableName, "save_as": "scoped",
		"gen_flags":        map[string]any{"5G": float64(1), "bogus_key": float64(1)},
		"version_prefixes": []string{"16"},
	})
	if n := countOf(t, st, resolved(t, ctx, "scoped")); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestScopeValuesAreBoundNotInterpolated(t *testing.T) {
	ctx := engine.NewContext("job")
	res, err := funcs.Scope{}.Build(ctx, engine.Args{
		"input": schema.TableName, "save_as": "scoped",
		"companies": []string{"acme'); DROP TABLE isld_pure; --"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(res.SQL, "DROP TABLE isld_pure") {
		t.Fatalf("config value leaked into SQL text:\n%s", res.SQL)
	}
	if len(res.Params) != 1 {
		t.Fatalf("params = %v, want 1 bound value", res.Params)
	}
}
