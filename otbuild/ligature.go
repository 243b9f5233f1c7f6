package otbuild

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-text/typesetting/font/opentype/tables"

	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/serialize"
)

// ErrUnsupportedCoverage is returned for compiled tables with coverage
// formats the builder cannot read.
var ErrUnsupportedCoverage = errors.New("otbuild: unsupported coverage")

// PackLigatureSubst packs a LigatureSubst subtable (format 1) from its
// compiled form. The coverage has to be of format 1 and sorted.
//
// The coverage is packed first. Ligature sets and ligatures get a virtual
// link to it, so that the repacker places the coverage after them. If share
// is set, identical ligatures and ligature sets are packed only once.
func PackLigatureSubst(c *serialize.Context, subs tables.LigatureSubs, share bool) (int, error) {
	cov1, ok := subs.Coverage.(tables.Coverage1)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedCoverage, subs.Coverage)
	}
	if len(cov1.Glyphs) != len(subs.LigatureSets) {
		return 0, fmt.Errorf("%w: %d glyphs for %d ligature sets", ErrUnsupportedCoverage,
			len(cov1.Glyphs), len(subs.LigatureSets))
	}
	glyphs := make(ot.Coverage, len(cov1.Glyphs))
	for i, g := range cov1.Glyphs {
		glyphs[i] = ot.GlyphIndex(g)
	}
	if !slices.IsSorted(glyphs) {
		return 0, fmt.Errorf("%w: glyphs not sorted", ErrUnsupportedCoverage)
	}
	cov := packCoverage(c, glyphs, false)
	sets := make([]int, len(subs.LigatureSets))
	for i, set := range subs.LigatureSets {
		ligs := make([]int, len(set.Ligatures))
		for j, lig := range set.Ligatures {
			ligs[j] = packLigature(c, lig, cov, share)
		}
		c.Push()
		c.PutU16(uint16(len(ligs)))
		for _, lig := range ligs {
			c.AddLink(c.PutU16(0), lig)
		}
		c.AddVirtualLink(cov)
		sets[i] = c.PopPack(share)
	}
	c.Push()
	c.PutU16(1) // format
	c.AddLink(c.PutU16(0), cov)
	c.PutU16(uint16(len(sets)))
	for _, set := range sets {
		c.AddLink(c.PutU16(0), set)
	}
	idx := c.PopPack(false)
	tracer().Debugf("packed LigatureSubst with %d ligature sets", len(sets))
	return idx, c.Err()
}

func packLigature(c *serialize.Context, lig tables.Ligature, cov int, share bool) int {
	c.Push()
	c.PutU16(uint16(lig.LigatureGlyph))
	c.PutU16(uint16(len(lig.ComponentGlyphIDs) + 1)) // first component is covered
	for _, g := range lig.ComponentGlyphIDs {
		c.PutU16(uint16(g))
	}
	c.AddVirtualLink(cov)
	return c.PopPack(share)
}
