package graph

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateChild(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	abc, ghi, jkl := g.Root(), ObjIdx(f.Index("ghi")), ObjIdx(f.Index("jkl"))
	clone := g.DuplicateChild(ghi, jkl)
	require.NotEqual(t, NoObject, clone)
	assert.Equal(t, 6, g.Len())
	assert.Equal(t, clone, g.ChildAt(ghi, 3), "expected ghi to link to the copy")
	assert.Equal(t, jkl, g.ChildAt(abc, 5), "expected abc to keep the original")
	assert.Equal(t, []byte("jkl"), g.Object(clone))
	assert.False(t, g.Vertex(jkl).IsShared())
	assert.False(t, g.Vertex(clone).IsShared())
	checkParents(t, g)
	// jkl has a single parent now, duplicating would orphan it
	assert.Equal(t, NoObject, g.DuplicateChild(abc, jkl))
	assert.Equal(t, jkl, g.DuplicateIfShared(abc, jkl))
	require.NoError(t, g.SortShortestDistance())
	checkTopological(t, g)
}

func TestDuplicateFor(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	abc, def := g.Root(), ObjIdx(f.Index("def"))
	ghi, jkl := ObjIdx(f.Index("ghi")), ObjIdx(f.Index("jkl"))
	assert.Equal(t, NoObject, g.DuplicateFor(jkl, def), "def does not link to jkl")
	assert.Equal(t, NoObject, g.DuplicateFor(jkl, abc, ghi), "jkl would be orphaned")
	assert.Equal(t, 5, g.Len())
	clone := g.DuplicateFor(jkl, ghi, def, ghi)
	require.NotEqual(t, NoObject, clone)
	assert.Equal(t, 6, g.Len())
	assert.Equal(t, clone, g.ChildAt(ghi, 3))
	assert.Equal(t, jkl, g.ChildAt(abc, 5))
	assert.Equal(t, 1, g.Vertex(clone).ParentCount())
	assert.Equal(t, 1, g.Vertex(jkl).ParentCount())
	checkParents(t, g)
	require.NoError(t, g.SortShortestDistance())
	checkTopological(t, g)
}

func TestDuplicateKeepsLinks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	def := ObjIdx(f.Index("def"))
	clone := g.Duplicate(def)
	assert.Equal(t, g.ChildAt(def, 3), g.ChildAt(clone, 3))
	assert.Equal(t, 2, g.Vertex(ObjIdx(f.Index("ghi"))).IncomingEdges())
	assert.Equal(t, 0, g.Vertex(clone).IncomingEdges())
	checkParents(t, g)
}

func TestMoveChild(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	abc, mn, def := g.Root(), ObjIdx(f.Index("mn")), ObjIdx(f.Index("def"))
	n := g.NewObject([]byte{0, 0})
	g.AddLink(abc, 0, Width16, n) // overlays "ab", which is fine for the graph
	require.True(t, g.MoveChild(abc, 7, n, 0))
	assert.Equal(t, NoObject, g.ChildAt(abc, 7))
	assert.Equal(t, mn, g.ChildAt(n, 0))
	assert.False(t, g.MoveChild(abc, 7, n, 0), "expected no link left at 7")
	assert.Equal(t, def, g.ChildAt(abc, 3))
	checkParents(t, g)
	require.NoError(t, g.SortShortestDistance())
	checkTopological(t, g)
}

func TestRemapLinkPositions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	abc := g.Root()
	ok := g.RemapLinkPositions(abc, func(pos int) (int, bool) { return pos + 10, pos != 7 })
	assert.False(t, ok)
	assert.Equal(t, ObjIdx(f.Index("mn")), g.ChildAt(abc, 7), "expected failed remap to change nothing")
	ok = g.RemapLinkPositions(abc, func(pos int) (int, bool) { return 10 - pos, true })
	assert.True(t, ok)
	assert.Equal(t, ObjIdx(f.Index("mn")), g.ChildAt(abc, 3))
	assert.Equal(t, ObjIdx(f.Index("def")), g.ChildAt(abc, 7))
	g.SortLinks(abc)
	first, _ := g.LinkAt(abc, 3)
	assert.Equal(t, first, g.Vertex(abc).links[0])
}

func TestTruncate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	abc := g.Root()
	g.Truncate(abc, 6)
	assert.Equal(t, 6, g.Vertex(abc).TableSize())
	assert.Equal(t, 1, g.Vertex(abc).RealLinkCount(), "expected links beyond size to be dropped")
	assert.Equal(t, ObjIdx(f.Index("def")), g.ChildAt(abc, 3))
	checkParents(t, g)
	// mn has lost its only parent
	assert.Error(t, g.SortShortestDistance())
}

func TestSetObject(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	jkl := ObjIdx(f.Index("jkl"))
	mn := ObjIdx(f.Index("mn"))
	g.SetObject(jkl, []byte("jklmno"))
	assert.Equal(t, []byte("jklmno"), g.Object(jkl))
	assert.Equal(t, []byte("mn"), g.Object(mn), "expected other objects to be untouched")
}

func TestFindSubgraphSize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	total := g.FindSubgraphSize(g.Root(), make(ObjSet))
	assert.Equal(t, g.TotalSize(), total, "expected shared jkl to be counted once")
	assert.Equal(t, 9+2+5+5+3, total)
	visited := make(ObjSet)
	def := ObjIdx(f.Index("def"))
	assert.Equal(t, 5, g.FindSubgraphSizeDepth(def, visited, 0))
	assert.Equal(t, 5+3, g.FindSubgraphSize(ObjIdx(f.Index("ghi")), visited))
	assert.Equal(t, 0, g.FindSubgraphSize(def, visited))
}

func TestRaiseChildrensPriority(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "simple")
	for range maxPriority {
		assert.True(t, g.RaiseChildrensPriority(g.Root()))
	}
	assert.False(t, g.RaiseChildrensPriority(g.Root()))
	assert.Equal(t, maxPriority, g.Vertex(ObjIdx(f.Index("def"))).Priority())
	assert.Equal(t, 0, g.Vertex(g.Root()).Priority())
}
