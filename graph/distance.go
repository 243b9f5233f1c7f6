package graph

// UpdateDistances computes the weighted shortest distance of every vertex
// from the root, if distances are not up to date.
//
// The cost of following a link is the child's size plus the full range
// addressable by the link, scaled by the child's space:
//
//	cost = size(child) + 2^(8·width) · (space(child) + 1)
//
// Virtual links are weighted like 32-bit links. Vertices not reachable from
// the root are flagged with GraphErrorOrphanedNodes.
func (g *Graph) UpdateDistances() error {
	if !g.distanceInvalid {
		return nil
	}
	n := len(g.vertices)
	if n == 0 {
		g.distanceInvalid = false
		return nil
	}
	for i := range g.vertices {
		g.vertices[i].distance = infiniteDistance
	}
	g.vertices[g.root].distance = 0
	visited := make([]bool, n)
	var queue priorityQueue
	queue.insert(0, g.root)
	for !queue.empty() {
		_, next := queue.pop()
		if visited[next] {
			continue
		}
		visited[next] = true
		d := g.vertices[next].distance
		for _, l := range g.vertices[next].links {
			if visited[l.Target] {
				continue
			}
			child := &g.vertices[l.Target]
			weight := int64(child.TableSize()) + int64(1)<<(8*l.weightWidth())*int64(child.space+1)
			if cd := d + weight; cd < child.distance {
				child.distance = cd
				queue.insert(cd, l.Target)
			}
		}
	}
	orphans := 0
	for i, ok := range visited {
		if !ok {
			tracer().Infof("orphaned vertex %d", i)
			orphans++
		}
	}
	if orphans > 0 {
		tracer().Errorf("graph has %d orphaned vertices", orphans)
		g.errs |= GraphErrorOrphanedNodes
		return g.errs
	}
	g.distanceInvalid = false
	return nil
}
