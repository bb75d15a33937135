package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/tmusimesabaoi4i/3gpp-ana-sep-new/internal/schema"
)

// Context carries per-run naming state. Each temp-producing step allocates
// exactly one physical table name through it; later steps resolve logical
// names back to physical ones. The context never touches the database.
type Context struct {
	RunID string
	JobID string

	step    int
	mapping map[string]string
	order   []string
}

// NewContext builds a run context with a fresh run id.
func NewContext(jobID string) *Context {
	return &Context{
		RunID:   NewRunID(jobID),
		JobID:   jobID,
		mapping: make(map[string]string),
	}
}

// NewRunID derives a short run identifier from the job id, the wall clock,
// and the pid. Eight hex chars is plenty: collisions only matter within one
// database, and the job id is part of the physical name anyway.
func NewRunID(jobID string) string {
	seed := fmt.Sprintf("%s|%d|%d", jobID, time.Now().UnixNano(), os.Getpid())
	return fmt.Sprintf("%08x", uint32(xxh3.HashString(seed)))
}

// AllocTemp assigns a physical table name to logical and records the mapping.
// Allocating the same logical name twice returns the existing physical name;
// the plan validator rejects duplicate SaveAs earlier, so this is belt only.
func (c *Context) AllocTemp(logical string) string {
	if p, ok := c.mapping[logical]; ok {
		return p
	}
	c.step++
	p := fmt.Sprintf("tmp_%s_%s_%02d_%s",
		c.RunID, sanitizeIdent(c.JobID), c.step, sanitizeIdent(logical))
	c.mapping[logical] = p
	c.order = append(c.order, logical)
	return p
}

// ResolveTemp returns the physical name for logical. The source table name is
// reserved and resolves to itself without an allocation.
func (c *Context) ResolveTemp(logical string) (string, error) {
	if logical == schema.TableName {
		return schema.TableName, nil
	}
	p, ok := c.mapping[logical]
	if !ok {
		return "", fmt.Errorf("engine: unresolved table %q (not allocated by an earlier step)", logical)
	}
	return p, nil
}

// Temps returns the physical names in allocation order.
func (c *Context) Temps() []string {
	out := make([]string, 0, len(c.order))
	for _, logical := range c.order {
		out = append(out, c.mapping[logical])
	}
	return out
}

// sanitizeIdent folds an arbitrary string into [A-Za-z0-9_]. Anything that
// would lose information collapses to a hash so distinct inputs stay
// distinct.
func sanitizeIdent(s string) string {
	clean := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			clean = false
			break
		}
	}
	if clean && s != "" {
		return s
	}
	return fmt.Sprintf("h%08x", uint32(xxh3.HashString(s)))
}
