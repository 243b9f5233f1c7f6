package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, _ := loadFixture(t, "complex")
	require.NoError(t, g.SortShortestDistance())
	require.False(t, g.WillOverflow())
	out, err := g.Serialize()
	require.NoError(t, err)
	want := []byte("abc\x00\x0b\x00\x15\x00\x09mndef\x00\x05ghi\x00\x05jkl")
	assert.Equal(t, want, out)
	start, end := g.Vertex(g.Root()).Position()
	assert.Equal(t, 0, start)
	assert.Equal(t, 9, end)
}

func TestOverflows(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "huge")
	require.NoError(t, g.SortShortestDistance())
	require.True(t, g.WillOverflow())
	overflows := g.Overflows()
	require.Len(t, overflows, 1)
	o := overflows[0]
	assert.Equal(t, g.Root(), o.Parent)
	assert.Equal(t, ObjIdx(f.Index("b")), o.Child)
	assert.Equal(t, int64(4+70000), o.Offset)
	_, err := g.Serialize()
	assert.True(t, errors.Is(err, ErrOffsetOverflow), "expected overflow error, have %v", err)
}

func TestWideOffsets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, _ := loadFixture(t, "wide")
	require.NoError(t, g.SortShortestDistance())
	assert.False(t, g.WillOverflow())
	out, err := g.Serialize()
	require.NoError(t, err)
	require.Len(t, out, 8+2*70000)
	assert.Equal(t, []byte{0, 0, 0, 8, 0, 1, 0x11, 0x78}, out[:8])
}

func TestIsValidOffset(t *testing.T) {
	tests := []struct {
		offset int64
		link   Link
		valid  bool
	}{
		{65535, Link{Width: Width16}, true},
		{65536, Link{Width: Width16}, false},
		{-1, Link{Width: Width16}, false},
		{-1, Link{Width: Width16, Signed: true}, true},
		{32768, Link{Width: Width16, Signed: true}, false},
		{1<<24 - 1, Link{Width: Width24}, true},
		{1 << 24, Link{Width: Width24}, false},
		{1 << 31, Link{Width: Width32}, true},
		{1 << 31, Link{Width: Width32, Signed: true}, false},
		{0, Link{Width: Width24, Signed: true}, false},
		{1 << 40, Link{Kind: VirtualLink}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, isValidOffset(tt.offset, tt.link), "offset %d for %+v", tt.offset, tt.link)
	}
}

func TestOffsetWhence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, _ := loadFixture(t, "simple")
	require.NoError(t, g.SortShortestDistance())
	root := g.Root()
	l, ok := g.LinkAt(root, 5) // ghi, placed after def
	require.True(t, ok)
	assert.Equal(t, int64(7+3), g.computeOffset(root, l))
	l.Whence = WhenceTail
	assert.Equal(t, int64(3), g.computeOffset(root, l))
	l.Whence = WhenceAbsolute
	l.Bias = 2
	assert.Equal(t, int64(7+3-2), g.computeOffset(root, l))
}

func TestToDOT(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.graph")
	defer teardown()
	//
	g, f := loadFixture(t, "virtual")
	dot := g.ToDOT(func(idx ObjIdx) string { return f.Name(int(idx)) })
	assert.True(t, strings.HasPrefix(dot, "digraph G {"))
	assert.Contains(t, dot, `"v1" -> "v0" [style=dashed];`)
	assert.Contains(t, dot, `"v2" -> "v0" [label="@3"];`)
	assert.Contains(t, dot, `label="set\n3 bytes"`)
}
