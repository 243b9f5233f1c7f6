package graph

import (
	"fmt"
	"math"
)

// UpdatePositions assigns byte positions to all vertices along the current
// ordering, if positions are not up to date.
func (g *Graph) UpdatePositions() {
	if !g.positionsInvalid {
		return
	}
	pos := 0
	for _, idx := range g.ordering {
		v := &g.vertices[idx]
		v.start = pos
		pos += v.TableSize()
		v.end = pos
	}
	g.positionsInvalid = false
}

// TotalSize returns the number of bytes the graph serializes to.
func (g *Graph) TotalSize() int {
	size := 0
	for i := range g.vertices {
		size += g.vertices[i].TableSize()
	}
	return size
}

// OverflowRecord is an offset which does not fit into its link.
type OverflowRecord struct {
	Parent ObjIdx
	Child  ObjIdx
	Link   Link
	Offset int64
}

func (r OverflowRecord) String() string {
	return fmt.Sprintf("%d -> %d @%d (offset %d, width %d)", r.Parent, r.Child, r.Link.Position,
		r.Offset, r.Link.Width)
}

// computeOffset returns the value to write into link l of parent.
func (g *Graph) computeOffset(parent ObjIdx, l Link) int64 {
	p, c := &g.vertices[parent], &g.vertices[l.Target]
	var off int64
	switch l.Whence {
	case WhenceHead:
		off = int64(c.start - p.start)
	case WhenceTail:
		off = int64(c.start - p.end)
	case WhenceAbsolute:
		off = int64(c.start)
	}
	return off - int64(l.Bias)
}

// isValidOffset is true if offset fits into link l.
func isValidOffset(offset int64, l Link) bool {
	if l.IsVirtual() {
		return true
	}
	if l.Signed {
		switch l.Width {
		case Width16:
			return offset >= math.MinInt16 && offset <= math.MaxInt16
		case Width32:
			return offset >= math.MinInt32 && offset <= math.MaxInt32
		}
		return false // signed 24-bit offsets are not supported
	}
	if offset < 0 {
		return false
	}
	switch l.Width {
	case Width16:
		return offset <= math.MaxUint16
	case Width24:
		return offset <= 1<<24-1
	case Width32:
		return offset <= math.MaxUint32
	}
	return false
}

// WillOverflow is true if at least one offset does not fit into its link,
// given the current ordering.
func (g *Graph) WillOverflow() bool {
	return len(g.overflows(true)) > 0
}

// Overflows returns all offsets which do not fit into their links, given the
// current ordering. Duplicate parent/child pairs are reported once.
func (g *Graph) Overflows() []OverflowRecord {
	return g.overflows(false)
}

func (g *Graph) overflows(first bool) []OverflowRecord {
	g.UpdatePositions()
	var records []OverflowRecord
	seen := make(map[[2]ObjIdx]struct{})
	for _, parent := range g.ordering {
		for l := range g.vertices[parent].RealLinks() {
			off := g.computeOffset(parent, l)
			if isValidOffset(off, l) {
				continue
			}
			key := [2]ObjIdx{parent, l.Target}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, OverflowRecord{Parent: parent, Child: l.Target, Link: l, Offset: off})
			if first {
				return records
			}
		}
	}
	return records
}
