package planner

import (
	"io"

	"github.com/bradleyjkemp/memviz"
)

// DumpGraph renders the ring's current block graph as GraphViz dot, for
// interactively inspecting look-ahead state while debugging a stalled or
// misbehaving planner. Not on any hot path; intended for ad-hoc use from a
// debug build or a failing test.
func (r *Ring) DumpGraph(w io.Writer) {
	r.mu.Lock()
	snapshot := r.blocks
	r.mu.Unlock()

	memviz.Map(w, &snapshot)
}
