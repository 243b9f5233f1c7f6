package gsubgpos

import (
	"testing"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/internal/fixture"
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/otbuild"
	"github.com/npillmayer/otpack/serialize"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MarkBasePos fixture: 20 classes of 10 marks and 600 bases. A class costs
// 4920 bytes, so 13 classes fit into the first subtable.
const (
	mbClasses       = 20
	mbMarksPerClass = 10
	mbBases         = 600
	mbSplitAt       = 13
)

func loadMarkBase(t *testing.T, extension bool) (*graph.Graph, *Context) {
	t.Helper()
	return loadMarkBaseClasses(t, mbClasses, extension)
}

func loadMarkBaseClasses(t *testing.T, classes int, extension bool) (*graph.Graph, *Context) {
	t.Helper()
	c, err := fixture.MarkBaseGPOS(fixture.MarkBase(classes, mbMarksPerClass, mbBases), extension)
	require.NoError(t, err)
	g, err := graph.FromSerializer(c)
	require.NoError(t, err)
	lc, err := NewContext(g, ot.TagGPOS)
	require.NoError(t, err)
	return g, lc
}

func TestMarkBaseSplitPoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	//
	g, lc := loadMarkBase(t, false)
	lk, err := lc.Lookup(0)
	require.NoError(t, err)
	mbp, err := readMarkBasePos(g, lk.Subtables[0])
	require.NoError(t, err)
	assert.Equal(t, mbClasses, mbp.elementCount())
	assert.Equal(t, 4920, mbp.elementSize(0, make(graph.ObjSet)))
	assert.Equal(t, []int{mbSplitAt}, computeSplitPoints(mbp))
}

func TestMarkBaseSplit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	//
	for _, extension := range []bool{false, true} {
		g, lc := loadMarkBase(t, extension)
		split, err := lc.SplitSubtablesIfNeeded()
		require.NoError(t, err)
		require.True(t, split)
		lk, err := lc.Lookup(0)
		require.NoError(t, err)
		subtables := lc.Subtables(lk)
		require.Len(t, subtables, 2)
		checkMarkBase(t, g, subtables[0], 0, mbSplitAt)
		checkMarkBase(t, g, subtables[1], mbSplitAt, mbClasses)
		assert.NotEqual(t, g.ChildAt(subtables[0], baseCoveragePos), g.ChildAt(subtables[1], baseCoveragePos),
			"expected base coverage not to be shared between subtables")
		assert.NoError(t, g.UpdateDistances(), "expected no orphans after split")
	}
}

func TestMarkBaseThreeWaySplit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	//
	const classes = 30
	for _, extension := range []bool{false, true} {
		g, lc := loadMarkBaseClasses(t, classes, extension)
		lk, err := lc.Lookup(0)
		require.NoError(t, err)
		mbp, err := readMarkBasePos(g, lc.Subtables(lk)[0])
		require.NoError(t, err)
		assert.Equal(t, []int{mbSplitAt, 2 * mbSplitAt}, computeSplitPoints(mbp))
		split, err := lc.SplitSubtablesIfNeeded()
		require.NoError(t, err)
		require.True(t, split)
		lk, err = lc.Lookup(0)
		require.NoError(t, err)
		subtables := lc.Subtables(lk)
		require.Len(t, subtables, 3)
		checkMarkBase(t, g, subtables[0], 0, mbSplitAt)
		checkMarkBase(t, g, subtables[1], mbSplitAt, 2*mbSplitAt)
		checkMarkBase(t, g, subtables[2], 2*mbSplitAt, classes)
		covs := make(map[graph.ObjIdx]bool)
		for _, st := range subtables {
			covs[g.ChildAt(st, baseCoveragePos)] = true
		}
		assert.Len(t, covs, 3, "expected a private base coverage per subtable")
		assert.NoError(t, g.UpdateDistances(), "expected no orphans after split")
		assert.NoError(t, g.SortShortestDistance())
	}
}

// checkMarkBase asserts that subtable st holds classes [start, end) of the
// fixture, with mark and base anchors at their correct places.
func checkMarkBase(t *testing.T, g *graph.Graph, st graph.ObjIdx, start, end int) {
	t.Helper()
	n := end - start
	assert.LessOrEqual(t, g.FindSubgraphSize(st, make(graph.ObjSet)), maxSubtableSize)
	mbp, err := readMarkBasePos(g, st)
	require.NoError(t, err)
	require.Equal(t, n, mbp.classCount)
	require.Len(t, mbp.marks, n*mbMarksPerClass)
	for i, glyph := range mbp.marks {
		m := int(glyph) - 100
		assert.Equal(t, start*mbMarksPerClass+i, m, "unexpected mark glyph %d", glyph)
		klass := mbp.markClasses[i]
		assert.Equal(t, m/mbMarksPerClass-start, klass, "mark %d has class %d", m, klass)
		anchor := g.ChildAt(mbp.markArray, markAnchorPos(i))
		require.NotEqual(t, graph.NoObject, anchor)
		x, y := anchorXY(g, anchor)
		assert.Equal(t, m, x)
		assert.Equal(t, klass+start, y)
	}
	require.Equal(t, mbBases, mbp.baseCount)
	baseCov, err := ot.ParseCoverage(g.Object(mbp.baseCoverage))
	require.NoError(t, err)
	assert.Len(t, baseCov, mbBases)
	assert.Equal(t, mbBases*n, g.Vertex(mbp.baseArray).RealLinkCount())
	for b := range mbBases {
		for k := range n {
			anchor := g.ChildAt(mbp.baseArray, anchorMatrixMinSize+2*(b*n+k))
			require.NotEqual(t, graph.NoObject, anchor, "base %d, class %d", b, k)
			x, y := anchorXY(g, anchor)
			assert.Equal(t, b, x)
			assert.Equal(t, start+k, y)
		}
	}
}

func anchorXY(g *graph.Graph, anchor graph.ObjIdx) (int, int) {
	b := g.Object(anchor)
	return int(int16(u16(b[2:]))), int(int16(u16(b[4:])))
}

func TestMarkBaseNullAnchors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	//
	mb := fixture.MarkBase(mbClasses, mbMarksPerClass, mbBases)
	for i := range mb.Bases {
		if i%2 == 1 {
			mb.Bases[i].Anchors[mbClasses-1] = nil
		}
	}
	mb.Marks[len(mb.Marks)-1].Anchor = nil
	c, err := fixture.MarkBaseGPOS(mb, false)
	require.NoError(t, err)
	g, err := graph.FromSerializer(c)
	require.NoError(t, err)
	lc, err := NewContext(g, ot.TagGPOS)
	require.NoError(t, err)
	split, err := lc.SplitSubtablesIfNeeded()
	require.NoError(t, err)
	require.True(t, split)
	lk, err := lc.Lookup(0)
	require.NoError(t, err)
	subtables := lc.Subtables(lk)
	require.Len(t, subtables, 2)
	last, err := readMarkBasePos(g, subtables[1])
	require.NoError(t, err)
	n := last.classCount
	assert.Equal(t, mbBases*n-mbBases/2, g.Vertex(last.baseArray).RealLinkCount())
	assert.Equal(t, len(last.marks)-1, g.Vertex(last.markArray).RealLinkCount())
	assert.NoError(t, g.UpdateDistances())
}

func TestMarkBaseSharedAnchors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	//
	// the last class reuses the anchors of class 0, packed as shared objects
	mb := fixture.MarkBase(mbClasses, mbMarksPerClass, mbBases)
	last := len(mb.Marks) - 1
	mb.Marks[last].Anchor = &otbuild.Anchor{X: 0, Y: 0}
	for b := range mb.Bases {
		mb.Bases[b].Anchors[mbClasses-1] = &otbuild.Anchor{X: int16(b), Y: 0}
	}
	c := serialize.NewContext()
	sub, err := mb.Pack(c, true)
	require.NoError(t, err)
	lookup := otbuild.PackLookup(c, ot.TagGPOS, otbuild.Lookup{Type: ot.GPosLookupTypeMarkToBase},
		[]int{sub}, false)
	otbuild.PackLayoutTable(c, otbuild.PackLookupList(c, []int{lookup}))
	require.NoError(t, c.EndSerialize())
	g, err := graph.FromSerializer(c)
	require.NoError(t, err)
	lc, err := NewContext(g, ot.TagGPOS)
	require.NoError(t, err)
	lk, err := lc.Lookup(0)
	require.NoError(t, err)
	ma := g.ChildAt(lk.Subtables[0], markArrayPos)
	require.Equal(t, g.ChildAt(ma, markAnchorPos(0)), g.ChildAt(ma, markAnchorPos(last)),
		"expected equal anchors to be packed once")
	//
	split, err := lc.SplitSubtablesIfNeeded()
	require.NoError(t, err)
	require.True(t, split)
	lk, err = lc.Lookup(0)
	require.NoError(t, err)
	subtables := lc.Subtables(lk)
	require.Len(t, subtables, 2)
	owner := make(map[graph.ObjIdx]graph.ObjIdx)
	for _, st := range subtables {
		for _, arr := range []graph.ObjIdx{g.ChildAt(st, markArrayPos), g.ChildAt(st, baseArrayPos)} {
			for l := range g.Vertex(arr).RealLinks() {
				if o, ok := owner[l.Target]; ok {
					assert.Equal(t, st, o, "anchor %d is shared by subtables %d and %d", l.Target, o, st)
					continue
				}
				owner[l.Target] = st
			}
		}
	}
	tail, err := readMarkBasePos(g, subtables[1])
	require.NoError(t, err)
	x, y := anchorXY(g, g.ChildAt(tail.markArray, markAnchorPos(len(tail.marks)-1)))
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
	n := tail.classCount
	for b := range mbBases {
		x, y := anchorXY(g, g.ChildAt(tail.baseArray, anchorMatrixMinSize+2*(b*n+n-1)))
		assert.Equal(t, b, x)
		assert.Equal(t, 0, y)
	}
	assert.NoError(t, g.UpdateDistances(), "expected no orphans after split")
	assert.NoError(t, g.SortShortestDistance())
}

func TestMarkFilteringSetPreserved(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	//
	c := serialize.NewContext()
	sub, err := fixture.MarkBase(mbClasses, mbMarksPerClass, mbBases).Pack(c, false)
	require.NoError(t, err)
	lookup := otbuild.PackLookup(c, ot.TagGPOS, otbuild.Lookup{
		Type:             ot.GPosLookupTypeMarkToBase,
		Flag:             ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET | ot.LOOKUP_FLAG_IGNORE_LIGATURES,
		MarkFilteringSet: 7,
	}, []int{sub}, false)
	otbuild.PackLayoutTable(c, otbuild.PackLookupList(c, []int{lookup}))
	require.NoError(t, c.EndSerialize())
	g, err := graph.FromSerializer(c)
	require.NoError(t, err)
	lc, err := NewContext(g, ot.TagGPOS)
	require.NoError(t, err)
	split, err := lc.SplitSubtablesIfNeeded()
	require.NoError(t, err)
	require.True(t, split)
	lk, err := lc.Lookup(0)
	require.NoError(t, err)
	require.Len(t, lk.Subtables, 2)
	b := g.Object(lk.Obj)
	require.Len(t, b, lookupHeaderSize+2*2+markFilteringSize)
	assert.Equal(t, uint16(7), u16(b[len(b)-2:]))
	assert.Equal(t, ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET|ot.LOOKUP_FLAG_IGNORE_LIGATURES, lk.Flag)
	assert.Equal(t, sub-1, int(lk.Subtables[0]), "expected original subtable to stay first")
}
