package graph

import (
	"fmt"
)

// Serialize writes the vertices in the current ordering and resolves every
// real link. It fails if the graph is in error state or an offset does not
// fit into its link; use WillOverflow to check beforehand.
func (g *Graph) Serialize() ([]byte, error) {
	if g.InError() {
		return nil, g.errs
	}
	g.UpdatePositions()
	out := make([]byte, 0, g.TotalSize())
	for _, idx := range g.ordering {
		out = append(out, g.buf[g.vertices[idx].head:g.vertices[idx].tail]...)
	}
	assertEqualInt("serialized size", len(out), g.TotalSize())
	for _, idx := range g.ordering {
		v := &g.vertices[idx]
		for l := range v.RealLinks() {
			off := g.computeOffset(idx, l)
			if !isValidOffset(off, l) {
				return nil, fmt.Errorf("%w: %v", ErrOffsetOverflow,
					OverflowRecord{Parent: idx, Child: l.Target, Link: l, Offset: off})
			}
			pos := v.start + l.Position
			putUint(out[pos:pos+int(l.Width)], l.Width, uint32(off))
		}
	}
	tracer().Debugf("serialized %d vertices into %d bytes", len(g.ordering), len(out))
	return out, nil
}
