package otbuild

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/serialize"
)

// Anchor is a format 1 anchor table: a design-unit coordinate.
type Anchor struct {
	X, Y int16
}

// MarkRecord attaches a mark glyph to a class and its anchor.
type MarkRecord struct {
	Glyph  ot.GlyphIndex
	Class  uint16
	Anchor *Anchor
}

// BaseRecord holds the anchors of a base glyph, one per mark class. A nil
// anchor means the class does not attach to this base.
type BaseRecord struct {
	Glyph   ot.GlyphIndex
	Anchors []*Anchor
}

// MarkBasePos is a mark-to-base attachment subtable prior to compilation.
type MarkBasePos struct {
	ClassCount int
	Marks      []MarkRecord
	Bases      []BaseRecord
}

// Pack packs the subtable (format 1). Marks and bases are written in glyph
// order. If share is set, identical anchors are packed only once.
func (mbp *MarkBasePos) Pack(c *serialize.Context, share bool) (int, error) {
	marks := slices.Clone(mbp.Marks)
	slices.SortFunc(marks, func(a, b MarkRecord) int { return cmp.Compare(a.Glyph, b.Glyph) })
	bases := slices.Clone(mbp.Bases)
	slices.SortFunc(bases, func(a, b BaseRecord) int { return cmp.Compare(a.Glyph, b.Glyph) })
	for _, m := range marks {
		if int(m.Class) >= mbp.ClassCount {
			return 0, fmt.Errorf("otbuild: mark %d has class %d of %d", m.Glyph, m.Class, mbp.ClassCount)
		}
	}
	for _, b := range bases {
		if len(b.Anchors) > mbp.ClassCount {
			return 0, fmt.Errorf("otbuild: base %d has %d anchors for %d classes", b.Glyph,
				len(b.Anchors), mbp.ClassCount)
		}
	}

	markAnchors := make([]int, len(marks))
	for i, m := range marks {
		markAnchors[i] = packAnchor(c, m.Anchor, share)
	}
	c.Push()
	c.PutU16(uint16(len(marks)))
	for i, m := range marks {
		c.PutU16(m.Class)
		pos := c.PutU16(0)
		if markAnchors[i] != 0 {
			c.AddLink(pos, markAnchors[i])
		}
	}
	markArray := c.PopPack(false)

	baseAnchors := make([]int, 0, len(bases)*mbp.ClassCount)
	for _, b := range bases {
		for k := range mbp.ClassCount {
			var a *Anchor
			if k < len(b.Anchors) {
				a = b.Anchors[k]
			}
			baseAnchors = append(baseAnchors, packAnchor(c, a, share))
		}
	}
	c.Push()
	c.PutU16(uint16(len(bases)))
	for _, a := range baseAnchors {
		pos := c.PutU16(0)
		if a != 0 {
			c.AddLink(pos, a)
		}
	}
	baseArray := c.PopPack(false)

	markCov := make(ot.Coverage, len(marks))
	for i, m := range marks {
		markCov[i] = m.Glyph
	}
	baseCov := make(ot.Coverage, len(bases))
	for i, b := range bases {
		baseCov[i] = b.Glyph
	}
	markCovIdx := packCoverage(c, markCov, share)
	baseCovIdx := packCoverage(c, baseCov, share)

	c.Push()
	c.PutU16(1) // format
	c.AddLink(c.PutU16(0), markCovIdx)
	c.AddLink(c.PutU16(0), baseCovIdx)
	c.PutU16(uint16(mbp.ClassCount))
	c.AddLink(c.PutU16(0), markArray)
	c.AddLink(c.PutU16(0), baseArray)
	idx := c.PopPack(false)
	tracer().Debugf("packed MarkBasePos with %d marks, %d bases, %d classes", len(marks), len(bases), mbp.ClassCount)
	return idx, c.Err()
}

// packAnchor packs a format 1 anchor, returning 0 for a nil anchor.
func packAnchor(c *serialize.Context, a *Anchor, share bool) int {
	if a == nil {
		return 0
	}
	c.Push()
	c.PutU16(1)
	c.PutU16(uint16(a.X))
	c.PutU16(uint16(a.Y))
	return c.PopPack(share)
}
