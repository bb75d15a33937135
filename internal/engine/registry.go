package engine

import "sort"

// SelectSpec is a registered result set: the query an exporter can stream,
// with its declared column contract.
type SelectSpec struct {
	Name        string
	SQL         string
	Params      []any
	Columns     []string
	Description string
}

// SelectRegistry collects the selects produced during one run. It lives for
// the run only; nothing is persisted.
type SelectRegistry struct {
	specs map[string]SelectSpec
}

func NewSelectRegistry() *SelectRegistry {
	return &SelectRegistry{specs: make(map[string]SelectSpec)}
}

func (r *SelectRegistry) Put(s SelectSpec) {
	r.specs[s.Name] = s
}

func (r *SelectRegistry) Get(name string) (SelectSpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

func (r *SelectRegistry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
