package gsubgpos

import (
	"fmt"
	"slices"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/ot"
)

// MarkBasePos format 1 layout:
//
//	0 format, 2 markCoverage, 4 baseCoverage, 6 markClassCount,
//	8 markArray, 10 baseArray
//
// MarkArray:    markCount, markCount × {markClass, markAnchor}
// AnchorMatrix: baseCount, baseCount × markClassCount × baseAnchor
const (
	markBasePosSize     = 12
	markCoveragePos     = 2
	baseCoveragePos     = 4
	classCountPos       = 6
	markArrayPos        = 8
	baseArrayPos        = 10
	markRecordSize      = 4
	markArrayMinSize    = 2
	anchorMatrixMinSize = 2
)

// classInfo collects what belongs to one mark class.
type classInfo struct {
	marks    []int          // mark indices, ascending
	children []graph.ObjIdx // mark anchors and base anchors of the class
}

// markBasePos is a MarkBasePos subtable under splitting. It implements
// splitPolicy and splitContext.
type markBasePos struct {
	g            *graph.Graph
	this         graph.ObjIdx
	classCount   int
	markCoverage graph.ObjIdx
	marks        ot.Coverage // mark glyphs, indexed like the mark records
	baseCoverage graph.ObjIdx
	markArray    graph.ObjIdx
	markClasses  []int
	markLinks    map[int]graph.Link // position in MarkArray → anchor link, as found initially
	baseArray    graph.ObjIdx
	baseCount    int
	classes      []classInfo
}

// splitMarkBasePos splits a MarkBasePos subtable, if it is too large. parent
// is the lookup or extension subtable linking to it. It returns the new
// subtables, or nil if no split is needed.
func splitMarkBasePos(g *graph.Graph, parent, this graph.ObjIdx) ([]graph.ObjIdx, error) {
	mbp, err := readMarkBasePos(g, this)
	if err != nil {
		return nil, err
	}
	points := computeSplitPoints(mbp)
	if len(points) == 0 {
		return nil, nil
	}
	tracer().Infof("splitting MarkBasePos subtable %d at classes %v", this, points)
	// the subtable and its arrays are modified in place, they have to be exclusive
	this = g.DuplicateIfShared(parent, this)
	g.DuplicateIfShared(this, g.ChildAt(this, markArrayPos))
	g.DuplicateIfShared(this, g.ChildAt(this, baseArrayPos))
	if mbp, err = readMarkBasePos(g, this); err != nil {
		return nil, splitError(g, err)
	}
	subtables, err := actuateSubtableSplit(g, mbp, points)
	if err != nil {
		return nil, err
	}
	for _, st := range append([]graph.ObjIdx{this}, subtables...) {
		isolateAnchors(g, st)
	}
	return subtables, nil
}

// isolateAnchors gives MarkBasePos subtable st private copies of anchors it
// shares with other subtables. Anchors shared within st stay shared.
func isolateAnchors(g *graph.Graph, st graph.ObjIdx) {
	arrays := []graph.ObjIdx{g.ChildAt(st, markArrayPos), g.ChildAt(st, baseArrayPos)}
	anchors := make(graph.ObjSet)
	for _, arr := range arrays {
		for l := range g.Vertex(arr).RealLinks() {
			anchors.Add(l.Target)
		}
	}
	for anchor := range anchors {
		if clone := g.DuplicateFor(anchor, arrays...); clone != graph.NoObject {
			tracer().Debugf("MarkBasePos %d: anchor %d copied to %d", st, anchor, clone)
		}
	}
}

func readMarkBasePos(g *graph.Graph, this graph.ObjIdx) (*markBasePos, error) {
	b := g.Object(this)
	format, err := u16At(b, 0)
	if err != nil || len(b) < markBasePosSize {
		return nil, fmt.Errorf("MarkBasePos %d: %w", this, errTruncated)
	}
	if format != 1 {
		return nil, fmt.Errorf("%w: MarkBasePos format %d", ErrUnsupportedFormat, format)
	}
	mbp := &markBasePos{
		g:          g,
		this:       this,
		classCount: int(u16(b[classCountPos:])),
	}
	if mbp.markCoverage, mbp.marks, err = readCoverage(g, this, markCoveragePos); err != nil {
		return nil, err
	}
	mbp.baseCoverage = g.ChildAt(this, baseCoveragePos)
	mbp.markArray = g.ChildAt(this, markArrayPos)
	mbp.baseArray = g.ChildAt(this, baseArrayPos)
	if mbp.baseCoverage == graph.NoObject || mbp.markArray == graph.NoObject || mbp.baseArray == graph.NoObject {
		return nil, fmt.Errorf("%w: MarkBasePos %d has null offsets", ErrUnsupportedFormat, this)
	}
	ma := g.Object(mbp.markArray)
	markCount, err := u16At(ma, 0)
	if err != nil || len(ma) < markArrayMinSize+markRecordSize*int(markCount) {
		return nil, fmt.Errorf("MarkArray %d: %w", mbp.markArray, errTruncated)
	}
	if int(markCount) != len(mbp.marks) {
		return nil, fmt.Errorf("%w: %d mark records for %d covered marks", ErrUnsupportedFormat,
			markCount, len(mbp.marks))
	}
	mbp.markClasses = make([]int, markCount)
	for i := range mbp.markClasses {
		mbp.markClasses[i] = int(u16(ma[markArrayMinSize+markRecordSize*i:]))
	}
	ba := g.Object(mbp.baseArray)
	baseCount, err := u16At(ba, 0)
	if err != nil || len(ba) < anchorMatrixMinSize+2*int(baseCount)*mbp.classCount {
		return nil, fmt.Errorf("AnchorMatrix %d: %w", mbp.baseArray, errTruncated)
	}
	mbp.baseCount = int(baseCount)
	mbp.collectClassInfo()
	return mbp, nil
}

func (mbp *markBasePos) collectClassInfo() {
	mbp.classes = make([]classInfo, mbp.classCount)
	for m, klass := range mbp.markClasses {
		if klass < mbp.classCount {
			mbp.classes[klass].marks = append(mbp.classes[klass].marks, m)
		}
	}
	mbp.markLinks = make(map[int]graph.Link)
	for l := range mbp.g.Vertex(mbp.markArray).RealLinks() {
		mbp.markLinks[l.Position] = l
		mark := (l.Position - markArrayMinSize) / markRecordSize
		if mark >= len(mbp.markClasses) {
			continue
		}
		if klass := mbp.markClasses[mark]; klass < mbp.classCount {
			mbp.classes[klass].children = append(mbp.classes[klass].children, l.Target)
		}
	}
	if mbp.classCount == 0 {
		return
	}
	for l := range mbp.g.Vertex(mbp.baseArray).RealLinks() {
		klass := (l.Position - anchorMatrixMinSize) / 2 % mbp.classCount
		mbp.classes[klass].children = append(mbp.classes[klass].children, l.Target)
	}
}

// marksFor returns the marks of classes [start, end), ascending.
func (mbp *markBasePos) marksFor(start, end int) []int {
	var marks []int
	for k := start; k < end; k++ {
		marks = append(marks, mbp.classes[k].marks...)
	}
	slices.Sort(marks)
	return marks
}

// markAnchorPos is the position of the anchor offset of mark m.
func markAnchorPos(m int) int {
	return markArrayMinSize + markRecordSize*m + 2
}

// --- Policy ----------------------------------------------------------------

func (mbp *markBasePos) elementCount() int {
	return mbp.classCount
}

func (mbp *markBasePos) baseSize() int {
	return markBasePosSize + markArrayMinSize + anchorMatrixMinSize + ot.CoverageSize(0) +
		mbp.g.Vertex(mbp.baseCoverage).TableSize()
}

// elementSize of a class: its mark records, its mark coverage entries, its
// column of the anchor matrix and the anchors.
func (mbp *markBasePos) elementSize(klass int, visited graph.ObjSet) int {
	info := &mbp.classes[klass]
	size := markRecordSize*len(info.marks) + 2*len(info.marks) + 2*mbp.baseCount
	for _, child := range info.children {
		size += mbp.g.FindSubgraphSize(child, visited)
	}
	return size
}

// --- Context ---------------------------------------------------------------

func (mbp *markBasePos) originalCount() int {
	return mbp.classCount
}

func (mbp *markBasePos) cloneRange(start, end int) (graph.ObjIdx, error) {
	g := mbp.g
	b := make([]byte, markBasePosSize)
	putU16(b, 1)
	putU16(b[classCountPos:], uint16(end-start))
	prime := g.NewObject(b)

	g.AddLink(prime, baseCoveragePos, graph.Width16, mbp.baseCoverage)
	g.DuplicateChild(prime, mbp.baseCoverage)

	marks := mbp.marksFor(start, end)
	addCoverage(g, prime, markCoveragePos, mbp.marks.Select(marks))

	ma, err := mbp.cloneMarkArray(marks, start)
	if err != nil {
		return graph.NoObject, err
	}
	g.AddLink(prime, markArrayPos, graph.Width16, ma)
	ba, err := mbp.cloneAnchorMatrix(start, end)
	if err != nil {
		return graph.NoObject, err
	}
	g.AddLink(prime, baseArrayPos, graph.Width16, ba)
	tracer().Debugf("MarkBasePos %d: classes [%d,%d) cloned to %d", mbp.this, start, end, prime)
	return prime, nil
}

func (mbp *markBasePos) cloneMarkArray(marks []int, startClass int) (graph.ObjIdx, error) {
	g := mbp.g
	b := make([]byte, markArrayMinSize+markRecordSize*len(marks))
	putU16(b, uint16(len(marks)))
	for i, m := range marks {
		putU16(b[markArrayMinSize+markRecordSize*i:], uint16(mbp.markClasses[m]-startClass))
	}
	prime := g.NewObject(b)
	for i, m := range marks {
		if _, ok := mbp.markLinks[markAnchorPos(m)]; !ok {
			continue // null anchor
		}
		if !g.MoveChild(mbp.markArray, markAnchorPos(m), prime, markAnchorPos(i)) {
			return graph.NoObject, fmt.Errorf("MarkArray %d: anchor of mark %d missing", mbp.markArray, m)
		}
	}
	return prime, nil
}

func (mbp *markBasePos) cloneAnchorMatrix(start, end int) (graph.ObjIdx, error) {
	g := mbp.g
	n := end - start
	b := make([]byte, anchorMatrixMinSize+2*n*mbp.baseCount)
	putU16(b, uint16(mbp.baseCount))
	prime := g.NewObject(b)
	links := slices.Collect(g.Vertex(mbp.baseArray).RealLinks())
	for _, l := range links {
		old := (l.Position - anchorMatrixMinSize) / 2
		klass := old % mbp.classCount
		if klass < start || klass >= end {
			continue
		}
		index := old/mbp.classCount*n + klass - start
		if !g.MoveChild(mbp.baseArray, l.Position, prime, anchorMatrixMinSize+2*index) {
			return graph.NoObject, fmt.Errorf("AnchorMatrix %d: cannot move anchor at %d", mbp.baseArray, l.Position)
		}
	}
	return prime, nil
}

func (mbp *markBasePos) shrink(count int) error {
	g := mbp.g
	if count >= mbp.classCount {
		return nil
	}
	putU16(g.Object(mbp.this)[classCountPos:], uint16(count))

	marks := mbp.marksFor(0, count)
	cov := g.DuplicateIfShared(mbp.this, mbp.markCoverage)
	makeCoverage(g, cov, mbp.marks.Select(marks))

	old := mbp.classCount
	ok := g.RemapLinkPositions(mbp.baseArray, func(pos int) (int, bool) {
		index := (pos - anchorMatrixMinSize) / 2
		base, klass := index/old, index%old
		if klass >= count {
			return pos, false // should have been moved to a clone
		}
		return anchorMatrixMinSize + 2*(base*count+klass), true
	})
	if !ok {
		return fmt.Errorf("AnchorMatrix %d: anchors of moved classes left behind", mbp.baseArray)
	}
	g.Truncate(mbp.baseArray, anchorMatrixMinSize+2*mbp.baseCount*count)
	return mbp.shrinkMarkArray(count)
}

// shrinkMarkArray compacts the mark records of classes [0, count).
func (mbp *markBasePos) shrinkMarkArray(count int) error {
	g := mbp.g
	for _, l := range slices.Collect(g.Vertex(mbp.markArray).RealLinks()) {
		g.RemoveRealLink(mbp.markArray, l.Position)
	}
	b := g.Object(mbp.markArray)
	n := 0
	for m, klass := range mbp.markClasses {
		if klass >= count {
			continue
		}
		putU16(b[markArrayMinSize+markRecordSize*n:], uint16(klass))
		if l, ok := mbp.markLinks[markAnchorPos(m)]; ok {
			l.Position = markAnchorPos(n)
			g.AddLinkWith(mbp.markArray, l)
		}
		n++
	}
	putU16(b, uint16(n))
	g.Truncate(mbp.markArray, markArrayMinSize+markRecordSize*n)
	if got, want := g.Vertex(mbp.markArray).RealLinkCount(), mbp.anchoredMarks(count); got != want {
		return fmt.Errorf("MarkArray %d: %d anchors after shrinking, expected %d", mbp.markArray, got, want)
	}
	return nil
}

func (mbp *markBasePos) anchoredMarks(count int) int {
	n := 0
	for m, klass := range mbp.markClasses {
		if _, ok := mbp.markLinks[markAnchorPos(m)]; ok && klass < count {
			n++
		}
	}
	return n
}
