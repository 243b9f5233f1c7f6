package graph

import (
	"cmp"
	"slices"
)

// Mutation primitives. All of them keep the parent bookkeeping of the
// vertices exact and invalidate distances and positions.

// UpdateParents recomputes incoming edge counts and parent maps of all
// vertices, if they are not up to date.
func (g *Graph) UpdateParents() {
	if !g.parentsInvalid {
		return
	}
	for i := range g.vertices {
		g.vertices[i].resetParents()
	}
	for p := range g.vertices {
		for _, l := range g.vertices[p].links {
			if l.Target < 0 || int(l.Target) >= len(g.vertices) {
				continue
			}
			g.vertices[l.Target].addParent(ObjIdx(p), l.IsVirtual())
		}
	}
	g.parentsInvalid = false
}

// CreateNode appends a new vertex holding size zero bytes and returns its
// handle. The new vertex has no links and no parents; it is placed at the end
// of the current ordering.
func (g *Graph) CreateNode(size int) ObjIdx {
	g.UpdateParents()
	head := len(g.buf)
	g.buf = append(g.buf, make([]byte, size)...)
	g.vertices = append(g.vertices, Vertex{head: head, tail: len(g.buf)})
	idx := ObjIdx(len(g.vertices) - 1)
	g.ordering = append(g.ordering, idx)
	g.invalidate()
	return idx
}

// NewObject appends a new vertex holding a copy of data.
func (g *Graph) NewObject(data []byte) ObjIdx {
	idx := g.CreateNode(len(data))
	copy(g.Object(idx), data)
	return idx
}

// Object returns the bytes of a vertex. The slice aliases the graph's buffer
// and may be modified in place; it cannot grow. The slice becomes stale as
// soon as new vertices are created.
func (g *Graph) Object(idx ObjIdx) []byte {
	assertIndex("Object", idx, len(g.vertices))
	v := &g.vertices[idx]
	return g.buf[v.head:v.tail:v.tail]
}

// SetObject replaces the bytes of a vertex with data, which is copied to a new
// region of the buffer. Existing links stay in place; they have to fit into
// the new size.
func (g *Graph) SetObject(idx ObjIdx, data []byte) {
	assertIndex("SetObject", idx, len(g.vertices))
	v := &g.vertices[idx]
	v.head = len(g.buf)
	g.buf = append(g.buf, data...)
	v.tail = len(g.buf)
	g.invalidate()
}

// Truncate shrinks a vertex to size bytes. Real links reaching beyond the new
// size are removed.
func (g *Graph) Truncate(idx ObjIdx, size int) {
	assertIndex("Truncate", idx, len(g.vertices))
	g.UpdateParents()
	v := &g.vertices[idx]
	if size >= v.TableSize() {
		return
	}
	v.tail = v.head + max(size, 0)
	for i := v.nreal - 1; i >= 0; i-- {
		if l := v.links[i]; l.Position+int(l.Width) > size {
			v.removeLinkAt(i)
			g.vertices[l.Target].removeParent(idx, false)
		}
	}
	g.invalidate()
}

// AddLink adds an unsigned head-relative real link of the given width from
// parent at byte position pos to child.
func (g *Graph) AddLink(parent ObjIdx, pos int, width LinkWidth, child ObjIdx) {
	g.AddLinkWith(parent, realLink(pos, width, child))
}

// AddLinkWith adds a real link with explicit parameters.
func (g *Graph) AddLinkWith(parent ObjIdx, l Link) {
	assertIndex("AddLink parent", parent, len(g.vertices))
	assertIndex("AddLink child", l.Target, len(g.vertices))
	g.UpdateParents()
	l.Kind = RealLink
	g.vertices[parent].insertLink(l)
	g.vertices[l.Target].addParent(parent, false)
	g.invalidate()
}

// AddVirtualLink adds an ordering constraint: child has to be placed after
// parent.
func (g *Graph) AddVirtualLink(parent, child ObjIdx) {
	assertIndex("AddVirtualLink parent", parent, len(g.vertices))
	assertIndex("AddVirtualLink child", child, len(g.vertices))
	g.UpdateParents()
	g.vertices[parent].insertLink(virtualLink(child))
	g.vertices[child].addParent(parent, true)
	g.invalidate()
}

// RemoveRealLink removes the real link at byte position pos of parent and
// returns it.
func (g *Graph) RemoveRealLink(parent ObjIdx, pos int) (Link, bool) {
	assertIndex("RemoveRealLink", parent, len(g.vertices))
	g.UpdateParents()
	v := &g.vertices[parent]
	i, ok := v.realLinkAt(pos)
	if !ok {
		return Link{}, false
	}
	l := v.removeLinkAt(i)
	g.vertices[l.Target].removeParent(parent, false)
	g.invalidate()
	return l, true
}

// ClearVirtualLinks removes all virtual links of a vertex.
func (g *Graph) ClearVirtualLinks(idx ObjIdx) {
	assertIndex("ClearVirtualLinks", idx, len(g.vertices))
	g.UpdateParents()
	v := &g.vertices[idx]
	for _, l := range v.links[v.nreal:] {
		g.vertices[l.Target].removeParent(idx, true)
	}
	v.links = v.links[:v.nreal]
	g.invalidate()
}

// ChildAt returns the target of the real link at byte position pos of parent,
// or NoObject.
func (g *Graph) ChildAt(parent ObjIdx, pos int) ObjIdx {
	assertIndex("ChildAt", parent, len(g.vertices))
	v := &g.vertices[parent]
	if i, ok := v.realLinkAt(pos); ok {
		return v.links[i].Target
	}
	return NoObject
}

// LinkAt returns the real link at byte position pos of parent.
func (g *Graph) LinkAt(parent ObjIdx, pos int) (Link, bool) {
	assertIndex("LinkAt", parent, len(g.vertices))
	v := &g.vertices[parent]
	if i, ok := v.realLinkAt(pos); ok {
		return v.links[i], true
	}
	return Link{}, false
}

// MoveChild moves the real link at oldPos of oldParent to position newPos of
// newParent. The link's width and mode are kept. Returns false if there is no
// link at oldPos.
func (g *Graph) MoveChild(oldParent ObjIdx, oldPos int, newParent ObjIdx, newPos int) bool {
	assertIndex("MoveChild old parent", oldParent, len(g.vertices))
	assertIndex("MoveChild new parent", newParent, len(g.vertices))
	g.UpdateParents()
	old := &g.vertices[oldParent]
	i, ok := old.realLinkAt(oldPos)
	if !ok {
		tracer().Debugf("move child: no link at %d of vertex %d", oldPos, oldParent)
		return false
	}
	l := old.removeLinkAt(i)
	child := &g.vertices[l.Target]
	child.removeParent(oldParent, false)
	l.Position = newPos
	g.vertices[newParent].insertLink(l)
	child.addParent(newParent, false)
	g.invalidate()
	return true
}

// RemapLinkPositions assigns new byte positions to all real links of a
// vertex at once. remap receives the old position and returns the new one;
// if it reports false, the remapping is aborted and no link is changed.
func (g *Graph) RemapLinkPositions(idx ObjIdx, remap func(pos int) (int, bool)) bool {
	assertIndex("RemapLinkPositions", idx, len(g.vertices))
	v := &g.vertices[idx]
	positions := make([]int, v.nreal)
	for i, l := range v.links[:v.nreal] {
		p, ok := remap(l.Position)
		if !ok {
			return false
		}
		positions[i] = p
	}
	for i, p := range positions {
		v.links[i].Position = p
	}
	g.positionsInvalid = true
	return true
}

// SortLinks orders the real links of a vertex by their byte position.
func (g *Graph) SortLinks(idx ObjIdx) {
	assertIndex("SortLinks", idx, len(g.vertices))
	v := &g.vertices[idx]
	slices.SortStableFunc(v.links[:v.nreal], func(a, b Link) int {
		return cmp.Compare(a.Position, b.Position)
	})
	g.invalidate()
}

// Duplicate creates a copy of a vertex, including its bytes and all of its
// outgoing links. The copy has no parents.
func (g *Graph) Duplicate(idx ObjIdx) ObjIdx {
	assertIndex("Duplicate", idx, len(g.vertices))
	g.UpdateParents()
	orig := g.vertices[idx]
	src := g.buf[orig.head:orig.tail]
	clone := Vertex{
		head:     len(g.buf),
		links:    slices.Clone(orig.links),
		nreal:    orig.nreal,
		distance: orig.distance,
		space:    orig.space,
	}
	g.buf = append(g.buf, src...)
	clone.tail = len(g.buf)
	g.vertices = append(g.vertices, clone)
	cidx := ObjIdx(len(g.vertices) - 1)
	g.ordering = append(g.ordering, cidx)
	for _, l := range clone.links {
		g.vertices[l.Target].addParent(cidx, l.IsVirtual())
	}
	g.invalidate()
	tracer().Debugf("duplicated vertex %d as %d", idx, cidx)
	return cidx
}

// DuplicateChild creates a copy of child and reassigns all links from parent
// to child to the copy. Returns NoObject if every incoming link of child
// originates in parent, as the original would be orphaned.
func (g *Graph) DuplicateChild(parent, child ObjIdx) ObjIdx {
	assertIndex("DuplicateChild parent", parent, len(g.vertices))
	return g.DuplicateFor(child, parent)
}

// DuplicateFor creates a single copy of child, shared by parents, and
// reassigns all links from any of parents to child to the copy. Returns
// NoObject if none of parents links to child, or if every incoming link of
// child originates in parents.
func (g *Graph) DuplicateFor(child ObjIdx, parents ...ObjIdx) ObjIdx {
	assertIndex("DuplicateFor child", child, len(g.vertices))
	g.UpdateParents()
	group := make(ObjSet, len(parents))
	fromGroup := 0
	for _, p := range parents {
		assertIndex("DuplicateFor parent", p, len(g.vertices))
		if group.Add(p) {
			fromGroup += g.vertices[child].parents[p]
		}
	}
	if fromGroup == 0 || g.vertices[child].incoming <= fromGroup {
		return NoObject
	}
	clone := g.Duplicate(child)
	for parent := range group {
		p := &g.vertices[parent]
		for i := range p.links {
			l := &p.links[i]
			if l.Target != child {
				continue
			}
			g.vertices[child].removeParent(parent, l.IsVirtual())
			l.Target = clone
			g.vertices[clone].addParent(parent, l.IsVirtual())
		}
	}
	return clone
}

// DuplicateIfShared returns an exclusive copy of child for parent, if child
// has other parents, or child itself otherwise.
func (g *Graph) DuplicateIfShared(parent, child ObjIdx) ObjIdx {
	if clone := g.DuplicateChild(parent, child); clone != NoObject {
		return clone
	}
	return child
}

// FindSubgraphSize returns the accumulated size of the vertices reachable
// from idx which are not yet in visited. Visited vertices are added to the
// set.
func (g *Graph) FindSubgraphSize(idx ObjIdx, visited ObjSet) int {
	return g.findSubgraphSize(idx, visited, -1)
}

// FindSubgraphSizeDepth is FindSubgraphSize with the depth limited to
// maxDepth links below idx.
func (g *Graph) FindSubgraphSizeDepth(idx ObjIdx, visited ObjSet, maxDepth int) int {
	return g.findSubgraphSize(idx, visited, maxDepth)
}

func (g *Graph) findSubgraphSize(idx ObjIdx, visited ObjSet, depth int) int {
	if !visited.Add(idx) {
		return 0
	}
	v := &g.vertices[idx]
	size := v.TableSize()
	if depth == 0 {
		return size
	}
	for _, l := range v.links {
		size += g.findSubgraphSize(l.Target, visited, depth-1)
	}
	return size
}

// RaiseChildrensPriority raises the priority of all children of parent.
// Returns false if no child could be raised any further. The graph's
// structure is unchanged; the effect shows with the next sort.
func (g *Graph) RaiseChildrensPriority(parent ObjIdx) bool {
	assertIndex("RaiseChildrensPriority", parent, len(g.vertices))
	changed := false
	for _, l := range g.vertices[parent].links {
		changed = g.vertices[l.Target].raisePriority() || changed
	}
	if changed {
		g.positionsInvalid = true
	}
	return changed
}

// RaisePriority raises the priority of a single vertex.
func (g *Graph) RaisePriority(idx ObjIdx) bool {
	assertIndex("RaisePriority", idx, len(g.vertices))
	if g.vertices[idx].raisePriority() {
		g.positionsInvalid = true
		return true
	}
	return false
}
