package engine

import (
	"fmt"
	"sort"
)

// Library is the Func registry a plan is validated and executed against.
type Library struct {
	funcs map[string]Func
}

func NewLibrary() *Library {
	return &Library{funcs: make(map[string]Func)}
}

// Register adds f under its signature name. Re-registering a name is a
// programming error and panics, like a duplicate flag definition.
func (l *Library) Register(f Func) {
	name := f.Signature().Name
	if _, dup := l.funcs[name]; dup {
		panic(fmt.Sprintf("engine: duplicate func %q", name))
	}
	l.funcs[name] = f
}

func (l *Library) Get(name string) (Func, bool) {
	f, ok := l.funcs[name]
	return f, ok
}

func (l *Library) Has(name string) bool {
	_, ok := l.funcs[name]
	return ok
}

// Names returns the registered names, sorted for stable output.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.funcs))
	for n := range l.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
