// Package engine holds the execution core: the Func contract, the
// name-allocation context, the plan and its validator, the select registry,
// and the executor that drives a plan against the store. Funcs are pure SQL
// generators; only the executor touches the database.
package engine

import (
	"fmt"
	"strconv"
)

// Func output kinds.
const (
	KindTemp   = "temp"   // Build materializes into one allocated table
	KindSelect = "select" // Build yields a query to register, never run
)

// Signature is a Func's self-description: its registry name, the argument
// keys it requires and accepts, what it produces, and the column contract of
// its output.
type Signature struct {
	Name        string
	Required    []string
	Optional    []string
	Produces    string // KindTemp | KindSelect
	Columns     []string
	Description string
}

// Result is the outcome of one Build: SQL text with positional parameters.
// Params line up with the '?' placeholders in order.
type Result struct {
	SQL         string
	Params      []any
	Columns     []string
	Description string
}

// Func generates SQL for one step. Build must not execute anything; a
// temp-producing Func calls AllocTemp at most once, and every value that
// originates in configuration is emitted as a bound parameter.
type Func interface {
	Signature() Signature
	Build(ctx *Context, args Args) (Result, error)
}

// Args is the argument bag passed to a Build. Values come from JSON, so
// numbers arrive as float64; the accessors normalize that.
type Args map[string]any

// String returns the string value at key, or def when absent or not a string.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Int returns the integer at key, tolerating JSON float64 and numeric
// strings. def when absent or unusable.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the boolean at key. Numeric 1/0 and "true"/"false" are
// accepted because flag values round-trip through JSON and CSV.
func (a Args) Bool(key string, def bool) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// StringList returns the string slice at key. JSON arrays arrive as []any;
// non-string elements are stringified with %v.
func (a Args) StringList(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", e))
			}
		}
		return out
	}
	return nil
}

// Map returns the nested map at key, or nil.
func (a Args) Map(key string) map[string]any {
	if m, ok := a[key].(map[string]any); ok {
		return m
	}
	return nil
}
