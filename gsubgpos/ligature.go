package gsubgpos

import (
	"fmt"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/ot"
)

// LigatureSubst format 1 layout:
//
//	0 format, 2 coverage, 4 ligatureSetCount, 6 ligatureSetCount × ligatureSet
//
// LigatureSet: ligatureCount, ligatureCount × ligature
//
// Ligature sets and ligatures carry a virtual link to the coverage table of
// their subtable.
const (
	ligatureSubstSize    = 6
	ligCoveragePos       = 2
	ligSetCountPos       = 4
	ligatureSetMinSize   = 2
	ligatureSetFirstCost = 6 // set offset, coverage entry and set header
)

// ligatureRef locates a ligature: the set it belongs to and its index
// within that set.
type ligatureRef struct {
	set   int
	local int
	obj   graph.ObjIdx
}

// ligatureSubst is a LigatureSubst subtable under splitting. Its elements
// are the ligatures of all sets in coverage order.
type ligatureSubst struct {
	g         *graph.Graph
	this      graph.ObjIdx
	coverage  graph.ObjIdx
	glyphs    ot.Coverage
	sets      []graph.ObjIdx
	setCounts []int
	setFirst  []int // global index of the first ligature of each set
	ligatures []ligatureRef
	keep      int // number of ligatures staying in the original subtable
}

// splitLigatureSubst splits a LigatureSubst subtable, if it is too large.
// parent is the lookup or extension subtable linking to it. It returns the
// new subtables, or nil if no split is needed.
func splitLigatureSubst(g *graph.Graph, parent, this graph.ObjIdx) ([]graph.ObjIdx, error) {
	ls, err := readLigatureSubst(g, this)
	if err != nil {
		return nil, err
	}
	points := computeSplitPoints(ls)
	if len(points) == 0 {
		return nil, nil
	}
	tracer().Infof("splitting LigatureSubst subtable %d at ligatures %v", this, points)
	this = g.DuplicateIfShared(parent, this)
	for i := range ls.sets {
		g.DuplicateIfShared(this, g.ChildAt(this, ligSetPos(i)))
	}
	if ls, err = readLigatureSubst(g, this); err != nil {
		return nil, splitError(g, err)
	}
	ls.keep = points[0]
	return actuateSubtableSplit(g, ls, points)
}

func ligSetPos(i int) int {
	return ligatureSubstSize + 2*i
}

func ligPos(j int) int {
	return ligatureSetMinSize + 2*j
}

func readLigatureSubst(g *graph.Graph, this graph.ObjIdx) (*ligatureSubst, error) {
	b := g.Object(this)
	format, err := u16At(b, 0)
	if err != nil || len(b) < ligatureSubstSize {
		return nil, fmt.Errorf("LigatureSubst %d: %w", this, errTruncated)
	}
	if format != 1 {
		return nil, fmt.Errorf("%w: LigatureSubst format %d", ErrUnsupportedFormat, format)
	}
	n := int(u16(b[ligSetCountPos:]))
	if len(b) < ligSetPos(n) {
		return nil, fmt.Errorf("LigatureSubst %d: %w", this, errTruncated)
	}
	ls := &ligatureSubst{g: g, this: this}
	if ls.coverage, ls.glyphs, err = readCoverage(g, this, ligCoveragePos); err != nil {
		return nil, err
	}
	if len(ls.glyphs) != n {
		return nil, fmt.Errorf("%w: %d ligature sets for %d covered glyphs", ErrUnsupportedFormat,
			n, len(ls.glyphs))
	}
	for i := range n {
		set := g.ChildAt(this, ligSetPos(i))
		if set == graph.NoObject {
			return nil, fmt.Errorf("%w: LigatureSubst %d: null ligature set %d", ErrUnsupportedFormat, this, i)
		}
		sb := g.Object(set)
		cnt, err := u16At(sb, 0)
		if err != nil || len(sb) < ligPos(int(cnt)) {
			return nil, fmt.Errorf("LigatureSet %d: %w", set, errTruncated)
		}
		ls.sets = append(ls.sets, set)
		ls.setCounts = append(ls.setCounts, int(cnt))
		ls.setFirst = append(ls.setFirst, len(ls.ligatures))
		for j := range int(cnt) {
			lig := g.ChildAt(set, ligPos(j))
			if lig == graph.NoObject {
				return nil, fmt.Errorf("%w: LigatureSet %d: null ligature %d", ErrUnsupportedFormat, set, j)
			}
			ls.ligatures = append(ls.ligatures, ligatureRef{set: i, local: j, obj: lig})
		}
	}
	return ls, nil
}

// --- Policy ----------------------------------------------------------------

func (ls *ligatureSubst) elementCount() int {
	return len(ls.ligatures)
}

func (ls *ligatureSubst) baseSize() int {
	return ligatureSubstSize + ot.CoverageSize(0)
}

// elementSize of a ligature: its offset and its table. The first ligature of a
// set in a subtable also pays for the set.
func (ls *ligatureSubst) elementSize(i int, visited graph.ObjSet) int {
	ref := ls.ligatures[i]
	// ligatures have no children but the virtual link to the coverage
	size := 2 + ls.g.FindSubgraphSizeDepth(ref.obj, visited, 0)
	if visited.Add(ls.sets[ref.set]) {
		size += ligatureSetFirstCost
	}
	return size
}

// --- Context ---------------------------------------------------------------

func (ls *ligatureSubst) originalCount() int {
	return len(ls.ligatures)
}

// setRange is the part [from, to) of ligature set set touched by a range of
// ligatures.
type setRange struct {
	set, from, to int
}

func (ls *ligatureSubst) setRanges(start, end int) []setRange {
	var ranges []setRange
	for _, ref := range ls.ligatures[start:end] {
		if n := len(ranges); n > 0 && ranges[n-1].set == ref.set {
			ranges[n-1].to = ref.local + 1
			continue
		}
		ranges = append(ranges, setRange{set: ref.set, from: ref.local, to: ref.local + 1})
	}
	return ranges
}

func (ls *ligatureSubst) cloneRange(start, end int) (graph.ObjIdx, error) {
	g := ls.g
	ranges := ls.setRanges(start, end)
	b := make([]byte, ligSetPos(len(ranges)))
	putU16(b, 1)
	putU16(b[ligSetCountPos:], uint16(len(ranges)))
	prime := g.NewObject(b)

	glyphs := make(ot.Coverage, 0, len(ranges))
	var dependent []graph.ObjIdx // objects to be placed before the new coverage
	for s, r := range ranges {
		glyphs = append(glyphs, ls.glyphs[r.set])
		set, err := ls.cloneSetRange(prime, s, r)
		if err != nil {
			return graph.NoObject, err
		}
		dependent = append(dependent, set)
		for j := r.from; j < r.to; j++ {
			dependent = append(dependent, ls.ligatures[ls.setFirst[r.set]+j].obj)
		}
	}
	cov := addCoverage(g, prime, ligCoveragePos, glyphs)
	for _, obj := range dependent {
		g.ClearVirtualLinks(obj)
		g.AddVirtualLink(obj, cov)
	}
	tracer().Debugf("LigatureSubst %d: ligatures [%d,%d) cloned to %d", ls.this, start, end, prime)
	return prime, nil
}

// cloneSetRange links the ligatures of r from slot s of the new subtable
// prime. Sets moved as a whole are relinked, sets cut in two get a new set
// for the moved part.
func (ls *ligatureSubst) cloneSetRange(prime graph.ObjIdx, s int, r setRange) (graph.ObjIdx, error) {
	g := ls.g
	set, count := ls.sets[r.set], ls.setCounts[r.set]
	switch {
	case r.from == 0 && r.to == count:
		if !g.MoveChild(ls.this, ligSetPos(r.set), prime, ligSetPos(s)) {
			return graph.NoObject, fmt.Errorf("LigatureSubst %d: cannot move set %d", ls.this, r.set)
		}
		return set, nil
	case r.to == count && ls.setFirst[r.set] >= ls.keep:
		// last part of a set which does not stay in the original subtable:
		// reuse the set, its leading ligatures have already been moved
		if !g.MoveChild(ls.this, ligSetPos(r.set), prime, ligSetPos(s)) {
			return graph.NoObject, fmt.Errorf("LigatureSubst %d: cannot move set %d", ls.this, r.set)
		}
		shift := 2 * r.from
		if !g.RemapLinkPositions(set, func(pos int) (int, bool) { return pos - shift, pos-shift >= ligatureSetMinSize }) {
			return graph.NoObject, fmt.Errorf("LigatureSet %d: ligatures left before %d", set, r.from)
		}
		putU16(g.Object(set), uint16(r.to-r.from))
		g.Truncate(set, ligPos(r.to-r.from))
		return set, nil
	}
	nb := make([]byte, ligPos(r.to-r.from))
	putU16(nb, uint16(r.to-r.from))
	newSet := g.NewObject(nb)
	for j := r.from; j < r.to; j++ {
		if !g.MoveChild(set, ligPos(j), newSet, ligPos(j-r.from)) {
			return graph.NoObject, fmt.Errorf("LigatureSet %d: cannot move ligature %d", set, j)
		}
	}
	g.AddLink(prime, ligSetPos(s), graph.Width16, newSet)
	return newSet, nil
}

func (ls *ligatureSubst) shrink(count int) error {
	g := ls.g
	if count >= len(ls.ligatures) || count <= 0 {
		return nil
	}
	last := ls.ligatures[count-1]
	sets, keepLast := last.set+1, last.local+1
	if keepLast < ls.setCounts[last.set] {
		set := ls.sets[last.set]
		putU16(g.Object(set), uint16(keepLast))
		g.Truncate(set, ligPos(keepLast))
	}
	putU16(g.Object(ls.this)[ligSetCountPos:], uint16(sets))
	g.Truncate(ls.this, ligSetPos(sets))

	var dependent []graph.ObjIdx
	for i := range sets {
		dependent = append(dependent, ls.sets[i])
		n := ls.setCounts[i]
		if i == last.set {
			n = keepLast
		}
		for j := range n {
			dependent = append(dependent, ls.ligatures[ls.setFirst[i]+j].obj)
		}
	}
	// clear virtual links first, the coverage must not look shared because of them
	for _, obj := range dependent {
		g.ClearVirtualLinks(obj)
	}
	cov := g.DuplicateIfShared(ls.this, ls.coverage)
	makeCoverage(g, cov, ls.glyphs[:sets])
	for _, obj := range dependent {
		g.AddVirtualLink(obj, cov)
	}

	if got := g.Vertex(ls.this).RealLinkCount(); got != sets+1 {
		return fmt.Errorf("LigatureSubst %d: %d links after shrinking, expected %d", ls.this, got, sets+1)
	}
	for i := range sets {
		want := ls.setCounts[i]
		if i == last.set {
			want = keepLast
		}
		if got := g.Vertex(ls.sets[i]).RealLinkCount(); got != want {
			return fmt.Errorf("LigatureSet %d: %d ligatures after shrinking, expected %d", ls.sets[i], got, want)
		}
	}
	return nil
}
