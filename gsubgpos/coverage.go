package gsubgpos

import (
	"fmt"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/ot"
)

// readCoverage parses the coverage table linked at pos of parent.
func readCoverage(g *graph.Graph, parent graph.ObjIdx, pos int) (graph.ObjIdx, ot.Coverage, error) {
	idx := g.ChildAt(parent, pos)
	if idx == graph.NoObject {
		return idx, nil, fmt.Errorf("%w: no coverage at %d of vertex %d", ErrUnsupportedFormat, pos, parent)
	}
	cov, err := ot.ParseCoverage(g.Object(idx))
	if err != nil {
		return idx, nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return idx, cov, nil
}

// addCoverage creates a new coverage table for glyphs and links it from
// position pos of parent.
func addCoverage(g *graph.Graph, parent graph.ObjIdx, pos int, glyphs ot.Coverage) graph.ObjIdx {
	idx := g.NewObject(glyphs.Bytes())
	g.AddLink(parent, pos, graph.Width16, idx)
	return idx
}

// makeCoverage replaces the content of coverage table idx with glyphs.
func makeCoverage(g *graph.Graph, idx graph.ObjIdx, glyphs ot.Coverage) {
	g.SetObject(idx, glyphs.Bytes())
}
