package graph

// SortShortestDistance computes a new topological ordering of the graph.
//
// The ordering is produced by a variant of Kahn's algorithm: a vertex becomes
// eligible as soon as all of its parents have been placed, and of all eligible
// vertices the one with the lowest modified distance is placed next. The
// modified distance combines the distance from the root, discounted by the
// vertex' priority, with the order in which vertices became eligible; vertices
// of equal distance are therefore placed in the order they are referenced.
//
// If not all vertices can be placed the graph contains a cycle. The graph is
// flagged with GraphErrorCycleDetected and the previous ordering is kept.
func (g *Graph) SortShortestDistance() error {
	g.positionsInvalid = true
	n := len(g.vertices)
	if n == 0 {
		g.UpdatePositions()
		return nil
	}
	if err := g.UpdateDistances(); err != nil {
		return err
	}
	g.UpdateParents()
	if g.vertices[g.root].incoming > 0 {
		return g.cycleDetected("root has %d incoming links", g.vertices[g.root].incoming)
	}
	removed := make([]int, n)
	placed := make([]bool, n)
	sorted := g.scratch[:0]
	var queue priorityQueue
	queue.insert(g.vertices[g.root].modifiedDistance(0), g.root)
	order := 1
	for !queue.empty() {
		_, next := queue.pop()
		if placed[next] {
			g.scratch = sorted
			return g.cycleDetected("vertex %d placed twice", next)
		}
		placed[next] = true
		sorted = append(sorted, next)
		for _, l := range g.vertices[next].links {
			removed[l.Target]++
			child := &g.vertices[l.Target]
			if child.incoming-removed[l.Target] == 0 {
				queue.insert(child.modifiedDistance(order), l.Target)
				order++
			}
		}
	}
	g.scratch = sorted
	if len(sorted) != n {
		return g.cycleDetected("%d of %d vertices placed", len(sorted), n)
	}
	g.scratch, g.ordering = g.ordering, sorted
	g.UpdatePositions()
	tracer().Debugf("sorted %d vertices", n)
	return nil
}

func (g *Graph) cycleDetected(format string, args ...any) error {
	tracer().Errorf("sort: graph contains a cycle: "+format, args...)
	g.errs |= GraphErrorCycleDetected
	return g.errs
}

// SortShortestDistanceIfNeeded sorts the graph if positions are not up to date.
func (g *Graph) SortShortestDistanceIfNeeded() error {
	if !g.positionsInvalid {
		return nil
	}
	return g.SortShortestDistance()
}
