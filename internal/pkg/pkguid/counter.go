package pkguid

import "sync/atomic"

// Counter generates increasing numeric IDs starting at 1.
//
// It is the fallback NumberID when a Snowflake node cannot be created, and a
// deterministic generator for tests.
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a Counter whose first Generate call returns start+1.
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

// Generate returns the next value.
func (c *Counter) Generate() int64 {
	return c.n.Add(1)
}
