package funcs

import "github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/engine"

// DefaultLibrary returns the library with every built-in Func registered.
func DefaultLibrary() *engine.Library {
	lib := engine.NewLibrary()
	lib.Register(Scope{})
	lib.Register(Unique{})
	lib.Register(Enrich{})
	lib.Register(FilingCountTS{})
	lib.Register(LagStats{})
	lib.Register(TopSpecsTS{})
	lib.Register(CompanyRank{})
	lib.Register(SpecCompanyHeat{})
	lib.Register(Cleanup{})
	return lib
}
