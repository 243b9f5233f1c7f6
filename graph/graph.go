package graph

import (
	"slices"

	"github.com/npillmayer/otpack/serialize"
)

// ObjectSource is the output of an object producer, usually a
// *serialize.Context. Packed()[0] is the nil object and is ignored; the last
// packed object is the root.
type ObjectSource interface {
	Buffer() []byte
	Packed() []*serialize.Object
}

// Graph is the object graph of a table under repacking. It owns a single byte
// buffer; vertices hold ranges into it.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	vertices []Vertex
	ordering []ObjIdx // current serialization order, root first
	scratch  []ObjIdx // reused by sort passes
	buf      []byte
	root     ObjIdx

	parentsInvalid   bool
	distanceInvalid  bool
	positionsInvalid bool

	errs RepackErrorFlags
}

// FromSerializer creates a graph from the objects of a producer. Links are
// checked for valid targets, widths and positions. If the check fails, the
// returned error holds the flags of every failure found; the graph is
// returned anyway for inspection, but is in error state.
//
// Malformed objects (nil entries after the leading nil object, byte ranges
// outside the buffer) and links with a width outside 2…4 are flagged with
// GraphErrorInvalidLinkPosition. GraphErrorInvalidObjIndex is reserved for
// link targets which do not exist.
func FromSerializer(src ObjectSource) (*Graph, error) {
	packed := src.Packed()
	if len(packed) > 0 && packed[0] == nil {
		packed = packed[1:] // drop the nil object
	}
	n := len(packed)
	g := &Graph{
		vertices:         make([]Vertex, n),
		ordering:         make([]ObjIdx, n),
		buf:              slices.Clone(src.Buffer()),
		root:             ObjIdx(n - 1),
		parentsInvalid:   true,
		distanceInvalid:  true,
		positionsInvalid: true,
	}
	if n == 0 {
		g.root = NoObject
		return g, nil
	}
	for i, obj := range packed {
		v := &g.vertices[i]
		if obj == nil {
			tracer().Errorf("invalid graph: object %d is nil", i)
			g.errs |= GraphErrorInvalidLinkPosition
			continue
		}
		v.head, v.tail = obj.Head, obj.Tail
		if v.head < 0 || v.tail < v.head || v.tail > len(g.buf) {
			tracer().Errorf("invalid graph: object %d has invalid range [%d,%d)", i, v.head, v.tail)
			g.errs |= GraphErrorInvalidLinkPosition
			v.head, v.tail = 0, 0
		}
		for _, l := range obj.RealLinks {
			if l.Width < int(minLinkWidth) || l.Width > int(Width32) {
				tracer().Errorf("invalid graph: object %d has link of width %d", i, l.Width)
				g.errs |= GraphErrorInvalidLinkPosition
				continue
			}
			v.insertLink(Link{
				Kind:     RealLink,
				Width:    LinkWidth(l.Width),
				Signed:   l.Signed,
				Whence:   l.Whence,
				Bias:     l.Bias,
				Position: l.Position,
				Target:   ObjIdx(l.ObjIdx - 1),
			})
		}
		for _, l := range obj.VirtualLinks {
			v.insertLink(virtualLink(ObjIdx(l.ObjIdx - 1)))
		}
		g.errs |= v.linkPositionsValid(n)
	}
	for i := range g.ordering { // packing order reversed: root first
		g.ordering[i] = ObjIdx(n - 1 - i)
	}
	if g.errs != ErrorNone {
		tracer().Errorf("graph construction failed: %v", g.errs)
		return g, g.errs
	}
	tracer().Debugf("created graph with %d vertices", n)
	return g, nil
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Root returns the root vertex, or NoObject for an empty graph.
func (g *Graph) Root() ObjIdx {
	return g.root
}

// Vertex returns the vertex for idx. Clients must not hold on to it across
// mutations of the graph.
func (g *Graph) Vertex(idx ObjIdx) *Vertex {
	assertIndex("Vertex", idx, len(g.vertices))
	return &g.vertices[idx]
}

// Ordering returns a copy of the current serialization order, root first.
func (g *Graph) Ordering() []ObjIdx {
	return slices.Clone(g.ordering)
}

// PackOrder returns the current order in the direction a serializer packs
// objects: children first, root last.
func (g *Graph) PackOrder() []ObjIdx {
	o := slices.Clone(g.ordering)
	slices.Reverse(o)
	return o
}

// Errors returns the accumulated error flags.
func (g *Graph) Errors() RepackErrorFlags {
	return g.errs
}

// InError is true if any error flag is set.
func (g *Graph) InError() bool {
	return g.errs != ErrorNone
}

// Err returns the accumulated error flags as an error, or nil.
func (g *Graph) Err() error {
	return g.errs.AsError()
}

// SetError adds error flags to the graph. Used by table specific
// splitters to report accounting errors.
func (g *Graph) SetError(f RepackErrorFlags) {
	g.errs |= f
}

// Buffer returns the graph's byte buffer. It contains the bytes of every
// region ever allocated, including stale ones.
func (g *Graph) Buffer() []byte {
	return g.buf
}

func (g *Graph) invalidate() {
	g.distanceInvalid = true
	g.positionsInvalid = true
}

// --- Object sets -----------------------------------------------------------

// ObjSet is a set of vertices, used for tracking visited vertices.
type ObjSet map[ObjIdx]struct{}

// Add inserts idx, returning false if it was already present.
func (s ObjSet) Add(idx ObjIdx) bool {
	if _, ok := s[idx]; ok {
		return false
	}
	s[idx] = struct{}{}
	return true
}

// Has is true if idx is a member of s.
func (s ObjSet) Has(idx ObjIdx) bool {
	_, ok := s[idx]
	return ok
}

// Clear removes all members.
func (s ObjSet) Clear() {
	clear(s)
}
