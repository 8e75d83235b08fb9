package worker

import "sync/atomic"

// Generation tags layout requests so that only the newest result is
// applied when several passes for one asset overlap.
type Generation struct {
	latest atomic.Uint64
}

// Next starts a new generation and returns its tag.
func (g *Generation) Next() uint64 {
	return g.latest.Add(1)
}

// Current reports whether tag is still the newest generation.
func (g *Generation) Current(tag uint64) bool {
	return g.latest.Load() == tag
}
