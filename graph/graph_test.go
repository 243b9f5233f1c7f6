package graph

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/npillmayer/otpack/internal/fixture"
	"github.com/npillmayer/otpack/serialize"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) (*Graph, *fixture.Fixture) {
	t.Helper()
	f, err := fixture.Load(filepath.Join("..", "internal", "fixture", "testdata", name+".toml"))
	require.NoError(t, err, "cannot load fixture %s", name)
	g, err := FromSerializer(f)
	require.NoError(t, err, "cannot create graph from fixture %s", name)
	return g, f
}

func names(f *fixture.Fixture, order []ObjIdx) []string {
	n := make([]string, len(order))
	for i, idx := range order {
		n[i] = f.Name(int(idx))
	}
	return n
}

// checkParents recomputes the parent bookkeeping from scratch and compares
// it to the incrementally maintained one.
func checkParents(t *testing.T, g *Graph) {
	t.Helper()
	incoming := make([]int, g.Len())
	virtual := make([]int, g.Len())
	parents := make([]map[ObjIdx]int, g.Len())
	for p := range g.vertices {
		for _, l := range g.vertices[p].links {
			incoming[l.Target]++
			if l.IsVirtual() {
				virtual[l.Target]++
			}
			if parents[l.Target] == nil {
				parents[l.Target] = make(map[ObjIdx]int)
			}
			parents[l.Target][ObjIdx(p)]++
		}
	}
	for i := range g.vertices {
		v := &g.vertices[i]
		assert.Equal(t, incoming[i], v.incoming, "incoming edges of vertex %d", i)
		assert.Equal(t, virtual[i], v.incomingVirtual, "incoming virtual edges of vertex %d", i)
		assert.Equal(t, len(parents[i]), len(v.parents), "parents of vertex %d", i)
		for p, n := range parents[i] {
			assert.Equal(t, n, v.parents[p], "links from %d to %d", p, i)
		}
	}
}

func TestFromSerializer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "complex")
	require.Equal(t, 5, g.Len())
	assert.Equal(t, ObjIdx(f.Index("abc")), g.Root())
	assert.Equal(t, []string{"abc", "def", "ghi", "jkl", "mn"}, names(f, g.Ordering()),
		"expected initial ordering to be reverse packing order")
	abc := g.Vertex(g.Root())
	assert.Equal(t, 9, abc.TableSize())
	assert.Equal(t, 3, abc.RealLinkCount())
	assert.Equal(t, ObjIdx(f.Index("jkl")), g.ChildAt(g.Root(), 5))
	g.UpdateParents()
	jkl := g.Vertex(ObjIdx(f.Index("jkl")))
	assert.True(t, jkl.IsShared(), "expected jkl to be shared")
	assert.True(t, jkl.IsLeaf())
	assert.Equal(t, 2, jkl.IncomingEdges())
	checkParents(t, g)
}

func TestEmptyGraph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, err := FromSerializer(serialize.NewContext())
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, NoObject, g.Root())
	assert.NoError(t, g.SortShortestDistance())
	out, err := g.Serialize()
	assert.NoError(t, err)
	assert.Empty(t, out)
}

type testSource struct {
	buf    []byte
	packed []*serialize.Object
}

func (s testSource) Buffer() []byte              { return s.buf }
func (s testSource) Packed() []*serialize.Object { return s.packed }

func TestLinkValidation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	buf := make([]byte, 10)
	tests := []struct {
		name  string
		links []serialize.Link
		want  RepackErrorFlags
	}{
		{"valid", []serialize.Link{{Width: 2, Position: 0, ObjIdx: 1}}, ErrorNone},
		{"unknown target", []serialize.Link{{Width: 2, Position: 0, ObjIdx: 7}}, GraphErrorInvalidObjIndex},
		{"nil target", []serialize.Link{{Width: 2, Position: 0, ObjIdx: 0}}, GraphErrorInvalidObjIndex},
		{"beyond object", []serialize.Link{{Width: 4, Position: 4, ObjIdx: 1}}, GraphErrorInvalidLinkPosition},
		{"bad width", []serialize.Link{{Width: 5, Position: 0, ObjIdx: 1}}, GraphErrorInvalidLinkPosition},
		{"truncated width", []serialize.Link{{Width: 258, Position: 0, ObjIdx: 1}}, GraphErrorInvalidLinkPosition},
		{"zero width", []serialize.Link{{Width: 0, Position: 0, ObjIdx: 1}}, GraphErrorInvalidLinkPosition},
		{"overlap", []serialize.Link{
			{Width: 2, Position: 0, ObjIdx: 1},
			{Width: 2, Position: 1, ObjIdx: 1},
		}, GraphErrorInvalidLinkPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testSource{buf: buf, packed: []*serialize.Object{
				nil,
				{Head: 0, Tail: 4},
				{Head: 4, Tail: 10, RealLinks: tt.links},
			}}
			g, err := FromSerializer(src)
			require.NotNil(t, g)
			if tt.want == ErrorNone {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected error %v, have %v", tt.want, err)
			assert.True(t, g.Errors().Has(tt.want))
			_, err = g.Serialize()
			assert.Error(t, err, "expected graph in error state not to serialize")
		})
	}
}

func TestNilObject(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, err := FromSerializer(testSource{buf: make([]byte, 4), packed: []*serialize.Object{
		nil,
		nil,
		{Head: 0, Tail: 4},
	}})
	require.NotNil(t, g)
	assert.True(t, errors.Is(err, GraphErrorInvalidLinkPosition), "expected malformed object, have %v", err)
	assert.False(t, g.Errors().Has(GraphErrorInvalidObjIndex))
}

func TestErrorFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	e := GraphErrorCycleDetected | RepackErrorNoResolution
	assert.True(t, errors.Is(e, GraphErrorCycleDetected))
	assert.True(t, errors.Is(e, RepackErrorNoResolution))
	assert.False(t, errors.Is(e, GraphErrorOrphanedNodes))
	assert.True(t, e.Has(GraphErrorCycleDetected))
	assert.False(t, e.Has(GraphErrorCycleDetected|GraphErrorOrphanedNodes))
	assert.Equal(t, "repack: cycle detected, no resolution", e.Error())
	assert.NoError(t, ErrorNone.AsError())
}
