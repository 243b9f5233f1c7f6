package graph

import (
	"iter"
	"math"
	"slices"
)

const (
	maxPriority = 3
	// distance component of a modified distance is clamped to 43 bits
	maxModifiedDistance = 1<<43 - 1
	orderMask           = 0x3FFFF // low 18 bits of the insertion order
	infiniteDistance    = math.MaxInt64
)

// Vertex is one serialized object of a graph: a byte range of the graph's
// buffer plus its outgoing links.
type Vertex struct {
	head, tail int
	links      []Link // real links first, then virtual links
	nreal      int    // number of real links

	distance int64
	space    int // 32-bit space partitioning is not implemented, always 0
	priority int
	start    int // byte position in the current ordering
	end      int

	incoming        int // incoming edges, real and virtual
	incomingVirtual int
	parents         map[ObjIdx]int // parent → number of links from it
}

// TableSize returns the byte size of the vertex' object.
func (v *Vertex) TableSize() int {
	return v.tail - v.head
}

// Distance returns the weighted distance from the root as computed by the
// last distance pass.
func (v *Vertex) Distance() int64 {
	return v.distance
}

// Space returns the 32-bit address space of the vertex. Always 0.
func (v *Vertex) Space() int {
	return v.space
}

// Priority returns the vertex' priority, 0…3.
func (v *Vertex) Priority() int {
	return v.priority
}

// Position returns the byte range the vertex occupies in the current ordering.
func (v *Vertex) Position() (start, end int) {
	return v.start, v.end
}

// Links iterates over all links, real links first.
func (v *Vertex) Links() iter.Seq[Link] {
	return slices.Values(v.links)
}

// RealLinks iterates over the links occupying offset bytes.
func (v *Vertex) RealLinks() iter.Seq[Link] {
	return slices.Values(v.links[:v.nreal])
}

// VirtualLinks iterates over ordering-only links.
func (v *Vertex) VirtualLinks() iter.Seq[Link] {
	return slices.Values(v.links[v.nreal:])
}

// RealLinkCount returns the number of real links.
func (v *Vertex) RealLinkCount() int {
	return v.nreal
}

// VirtualLinkCount returns the number of virtual links.
func (v *Vertex) VirtualLinkCount() int {
	return len(v.links) - v.nreal
}

// IncomingEdges returns the number of links pointing at v.
func (v *Vertex) IncomingEdges() int {
	return v.incoming
}

// HasIncomingVirtualEdges is true if at least one virtual link points at v.
func (v *Vertex) HasIncomingVirtualEdges() bool {
	return v.incomingVirtual > 0
}

// Parents iterates over the distinct parents of v together with the number
// of links from each of them.
func (v *Vertex) Parents() iter.Seq2[ObjIdx, int] {
	return func(yield func(ObjIdx, int) bool) {
		for _, p := range slices.Sorted(mapKeys(v.parents)) {
			if !yield(p, v.parents[p]) {
				return
			}
		}
	}
}

// ParentCount returns the number of distinct parents.
func (v *Vertex) ParentCount() int {
	return len(v.parents)
}

// IsShared is true if more than one vertex links to v.
func (v *Vertex) IsShared() bool {
	return len(v.parents) > 1
}

// IsLeaf is true if v has no outgoing links.
func (v *Vertex) IsLeaf() bool {
	return len(v.links) == 0
}

func (v *Vertex) hasMaxPriority() bool {
	return v.priority >= maxPriority
}

func (v *Vertex) raisePriority() bool {
	if v.hasMaxPriority() {
		return false
	}
	v.priority++
	return true
}

// distanceModifier discounts the distance of prioritized vertices by a
// share of their own size.
func (v *Vertex) distanceModifier() int64 {
	switch v.priority {
	case 0:
		return 0
	case 1:
		return -int64(v.TableSize()) / 2
	default:
		return -int64(v.TableSize())
	}
}

// modifiedDistance is the sort key of the reorder engine. order breaks ties
// between vertices of equal distance.
func (v *Vertex) modifiedDistance(order int) int64 {
	d := v.distance
	if d != infiniteDistance {
		d += v.distanceModifier()
	}
	d = max(0, min(d, maxModifiedDistance))
	if v.hasMaxPriority() {
		d = 0
	}
	return d<<18 | int64(order&orderMask)
}

// --- Parents ---------------------------------------------------------------

func (v *Vertex) resetParents() {
	v.incoming = 0
	v.incomingVirtual = 0
	v.parents = nil
}

func (v *Vertex) addParent(p ObjIdx, virtual bool) {
	if v.parents == nil {
		v.parents = make(map[ObjIdx]int, 1)
	}
	v.parents[p]++
	v.incoming++
	if virtual {
		v.incomingVirtual++
	}
}

func (v *Vertex) removeParent(p ObjIdx, virtual bool) {
	n, ok := v.parents[p]
	if !ok {
		return
	}
	if n <= 1 {
		delete(v.parents, p)
	} else {
		v.parents[p] = n - 1
	}
	v.incoming--
	if virtual && v.incomingVirtual > 0 {
		v.incomingVirtual--
	}
}

// --- Links -----------------------------------------------------------------

// linkPositionsValid checks the real links of v against a graph of n
// vertices.
func (v *Vertex) linkPositionsValid(n int) RepackErrorFlags {
	var errs RepackErrorFlags
	type span struct{ from, to int }
	assigned := make([]span, 0, v.nreal)
	for _, l := range v.links {
		if l.Target < 0 || int(l.Target) >= n {
			tracer().Debugf("invalid graph: invalid object index %d", l.Target)
			errs |= GraphErrorInvalidObjIndex
			continue
		}
		if l.IsVirtual() {
			continue
		}
		if l.Width < minLinkWidth || l.Width > Width32 {
			tracer().Debugf("invalid graph: invalid link width %d", l.Width)
			errs |= GraphErrorInvalidLinkPosition
			continue
		}
		from, to := l.Position, l.Position+int(l.Width) // [from, to)
		if from < 0 || to > v.TableSize() {
			tracer().Debugf("invalid graph: link position %d out of bounds", from)
			errs |= GraphErrorInvalidLinkPosition
			continue
		}
		for _, s := range assigned {
			if from < s.to && s.from < to {
				tracer().Debugf("invalid graph: overlapping offsets at %d", from)
				errs |= GraphErrorInvalidLinkPosition
			}
		}
		assigned = append(assigned, span{from, to})
	}
	return errs
}

// insertLink adds l, keeping real links in front of virtual ones.
func (v *Vertex) insertLink(l Link) {
	if l.IsVirtual() {
		v.links = append(v.links, l)
		return
	}
	v.links = slices.Insert(v.links, v.nreal, l)
	v.nreal++
}

// realLinkAt returns the index of the real link at byte position pos.
func (v *Vertex) realLinkAt(pos int) (int, bool) {
	for i, l := range v.links[:v.nreal] {
		if l.Position == pos {
			return i, true
		}
	}
	return -1, false
}

func (v *Vertex) removeLinkAt(i int) Link {
	l := v.links[i]
	v.links = slices.Delete(v.links, i, i+1)
	if i < v.nreal {
		v.nreal--
	}
	return l
}

func mapKeys[K comparable, V any](m map[K]V) iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m {
			if !yield(k) {
				return
			}
		}
	}
}
