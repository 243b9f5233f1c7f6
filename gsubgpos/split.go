package gsubgpos

import (
	"fmt"

	"github.com/npillmayer/otpack/graph"
)

// maxSubtableSize is the largest subgraph a subtable may have so that every
// 16-bit offset inside it can be resolved.
const maxSubtableSize = 1<<16 - 1

// splitPolicy measures the repeated elements of a subtable.
type splitPolicy interface {
	elementCount() int
	// baseSize is the size of the parts present in every split subtable.
	baseSize() int
	// elementSize is the size of element i plus everything reachable from it
	// which is not yet in visited.
	elementSize(i int, visited graph.ObjSet) int
}

// computeSplitPoints returns the indices of the elements which start a new
// subtable. The element at index 0 never starts a new subtable, even if it is
// too large on its own. An empty result means the subtable fits.
func computeSplitPoints(p splitPolicy) []int {
	visited := make(graph.ObjSet)
	base := p.baseSize()
	accumulated := base
	var points []int
	for i := range p.elementCount() {
		delta := p.elementSize(i, visited)
		accumulated += delta
		if accumulated <= maxSubtableSize || i == 0 {
			continue
		}
		tracer().Debugf("split point before element %d (%d bytes)", i, accumulated)
		points = append(points, i)
		visited.Clear() // objects are never shared between split subtables
		accumulated = base + p.elementSize(i, visited)
	}
	return points
}

// splitContext moves element ranges of a subtable into new subtables.
type splitContext interface {
	originalCount() int
	// cloneRange creates a new subtable holding elements [start, end).
	cloneRange(start, end int) (graph.ObjIdx, error)
	// shrink reduces the original subtable to elements [0, count).
	shrink(count int) error
}

// actuateSubtableSplit clones every range given by points into a new
// subtable, then shrinks the original subtable to the first range. It returns
// the new subtables in element order.
func actuateSubtableSplit(g *graph.Graph, sc splitContext, points []int) ([]graph.ObjIdx, error) {
	if len(points) == 0 {
		return nil, nil
	}
	subtables := make([]graph.ObjIdx, 0, len(points))
	for i, start := range points {
		end := sc.originalCount()
		if i+1 < len(points) {
			end = points[i+1]
		}
		idx, err := sc.cloneRange(start, end)
		if err != nil {
			return nil, splitError(g, err)
		}
		subtables = append(subtables, idx)
	}
	if err := sc.shrink(points[0]); err != nil {
		return nil, splitError(g, err)
	}
	return subtables, nil
}

// splitError flags the graph and wraps err so that it matches
// graph.RepackErrorSplitSubtable.
func splitError(g *graph.Graph, err error) error {
	tracer().Errorf("subtable split failed: %v", err)
	g.SetError(graph.RepackErrorSplitSubtable)
	return fmt.Errorf("%w: %w", graph.RepackErrorSplitSubtable, err)
}
