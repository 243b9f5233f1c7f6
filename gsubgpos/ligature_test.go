package gsubgpos

import (
	"testing"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/internal/fixture"
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// Ligature fixture: 20 sets of 400 ligatures of 10 bytes each, about
// 96 KB in total. The first subtable holds 13 sets and 253 ligatures of
// set 13.
const (
	ligSets     = 20
	ligsPerSet  = 400
	ligComps    = 4
	ligSplitAt  = 13*ligsPerSet + 253
	firstLigGID = 1000
)

// --- Test Suite Preparation ------------------------------------------------

type LigatureSplitEnviron struct {
	suite.Suite
	g  *graph.Graph
	lc *Context
}

func TestLigatureSplit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otpack.split")
	defer teardown()
	suite.Run(t, new(LigatureSplitEnviron))
}

func (env *LigatureSplitEnviron) load(extension bool) {
	env.loadSubs(ligSets, ligsPerSet, ligComps, extension)
}

func (env *LigatureSplitEnviron) loadSubs(sets, ligs, comps int, extension bool) {
	// packing and splitting are chatty on debug level
	tracing.Select("otpack.split").SetTraceLevel(tracing.LevelInfo)
	c, err := fixture.LigatureGSUB(fixture.LigatureSubs(sets, ligs, comps), extension)
	env.Require().NoError(err)
	env.g, err = graph.FromSerializer(c)
	env.Require().NoError(err)
	env.lc, err = NewContext(env.g, ot.TagGSUB)
	env.Require().NoError(err)
}

// --- Tests -----------------------------------------------------------------

func (env *LigatureSplitEnviron) TestSplitPoints() {
	env.load(false)
	lk, err := env.lc.Lookup(0)
	env.Require().NoError(err)
	ls, err := readLigatureSubst(env.g, lk.Subtables[0])
	env.Require().NoError(err)
	env.Equal(ligSets*ligsPerSet, ls.elementCount())
	env.Equal([]int{ligSplitAt}, computeSplitPoints(ls))
}

func (env *LigatureSplitEnviron) TestSplit() {
	env.load(false)
	split, err := env.lc.SplitSubtablesIfNeeded()
	env.Require().NoError(err)
	env.Require().True(split)
	lk, err := env.lc.Lookup(0)
	env.Require().NoError(err)
	env.Equal(ot.GSubLookupTypeLigature, lk.Type)
	env.Require().Len(lk.Subtables, 2)
	env.checkConservation(env.lc.Subtables(lk), ligSets, ligsPerSet)
	env.Equal(ligSplitAt, env.firstSubtableCount(lk))
	env.NoError(env.g.UpdateDistances(), "expected no orphans after split")
	env.False(env.g.InError())
}

func (env *LigatureSplitEnviron) TestSplitExtension() {
	env.load(true)
	split, err := env.lc.SplitSubtablesIfNeeded()
	env.Require().NoError(err)
	env.Require().True(split)
	lk, err := env.lc.Lookup(0)
	env.Require().NoError(err)
	env.True(lk.IsExtension(ot.TagGSUB))
	env.Require().Len(lk.Subtables, 2)
	for _, ext := range lk.Subtables {
		b := env.g.Object(ext)
		env.Equal(uint16(ot.GSubLookupTypeLigature), u16(b[extensionTypePos:]))
		l, ok := env.g.LinkAt(ext, extensionLinkPos)
		env.Require().True(ok)
		env.Equal(graph.Width32, l.Width)
	}
	env.checkConservation(env.lc.Subtables(lk), ligSets, ligsPerSet)
	env.NoError(env.g.UpdateDistances())
}

// TestThreeWaySplit covers sets cut between cloned subtables (the suffix of
// such a set is moved as a whole) and a single set spread over three
// subtables.
func (env *LigatureSplitEnviron) TestThreeWaySplit() {
	for _, tt := range []struct{ sets, ligs, comps int }{
		{30, 400, 4},
		{3, 5000, 4},
		{60, 300, 2},
		{1, 15000, 4},
	} {
		env.loadSubs(tt.sets, tt.ligs, tt.comps, false)
		split, err := env.lc.SplitSubtablesIfNeeded()
		env.Require().NoError(err)
		env.Require().True(split)
		lk, err := env.lc.Lookup(0)
		env.Require().NoError(err)
		env.Require().Len(lk.Subtables, 3, "%d sets of %d ligatures", tt.sets, tt.ligs)
		env.checkConservation(env.lc.Subtables(lk), tt.sets, tt.ligs)
		env.NoError(env.g.UpdateDistances(), "expected no orphans after split")
		env.NoError(env.g.SortShortestDistance())
	}
}

func (env *LigatureSplitEnviron) firstSubtableCount(lk *Lookup) int {
	ls, err := readLigatureSubst(env.g, env.lc.Subtables(lk)[0])
	env.Require().NoError(err)
	return len(ls.ligatures)
}

// checkConservation asserts that every ligature of a fixture of sets sets
// with perSet ligatures each is found in exactly one subtable, under the set
// of its first glyph, and that every subtable fits into 16-bit offsets.
func (env *LigatureSplitEnviron) checkConservation(subtables []graph.ObjIdx, sets, perSet int) {
	g := env.g
	seen := make(map[uint16]int)
	for s, st := range subtables {
		env.LessOrEqual(g.FindSubgraphSize(st, make(graph.ObjSet)), maxSubtableSize,
			"subtable %d too large", s)
		ls, err := readLigatureSubst(g, st)
		env.Require().NoError(err)
		for i, set := range ls.sets {
			env.Equal(1, g.Vertex(set).VirtualLinkCount())
			env.Equal(ls.coverage, firstVirtualTarget(g, set), "set %d of subtable %d", i, s)
			for j := range ls.setCounts[i] {
				lig := g.ChildAt(set, ligPos(j))
				gid := u16(g.Object(lig))
				seen[gid]++
				env.Equal(ot.GlyphIndex(10+(int(gid)-firstLigGID)/perSet), ls.glyphs[i],
					"ligature %d found under wrong glyph", gid)
				env.Equal(ls.coverage, firstVirtualTarget(g, lig))
			}
		}
	}
	env.Len(seen, sets*perSet)
	for gid, n := range seen {
		env.Equal(1, n, "ligature %d found %d times", gid, n)
	}
}

func firstVirtualTarget(g *graph.Graph, idx graph.ObjIdx) graph.ObjIdx {
	for l := range g.Vertex(idx).VirtualLinks() {
		return l.Target
	}
	return graph.NoObject
}
