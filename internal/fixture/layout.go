package fixture

import (
	"github.com/go-text/typesetting/font/opentype/tables"

	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/otbuild"
	"github.com/npillmayer/otpack/serialize"
)

// LigatureSubs creates a ligature substitution with sets ligature sets of
// ligs ligatures each, every ligature having components components.
// Set i covers glyph 10+i. Ligature glyphs are unique, their first
// remaining component is the index of their set, so no two ligatures are
// identical.
func LigatureSubs(sets, ligs, components int) tables.LigatureSubs {
	subs := tables.LigatureSubs{}
	glyphs := make([]tables.GlyphID, sets)
	subs.LigatureSets = make([]tables.LigatureSet, sets)
	lig := 1000
	for i := range sets {
		glyphs[i] = tables.GlyphID(10 + i)
		set := tables.LigatureSet{Ligatures: make([]tables.Ligature, ligs)}
		for j := range ligs {
			comps := make([]tables.GlyphID, components-1)
			for k := range comps {
				comps[k] = tables.GlyphID(i + k)
			}
			set.Ligatures[j] = tables.Ligature{
				LigatureGlyph:     tables.GlyphID(lig),
				ComponentGlyphIDs: comps,
			}
			lig++
		}
		subs.LigatureSets[i] = set
	}
	subs.Coverage = tables.Coverage1{Glyphs: glyphs}
	return subs
}

// LigatureGSUB packs a GSUB table with a single ligature lookup holding subs.
// If extension is set, the lookup is an extension lookup.
func LigatureGSUB(subs tables.LigatureSubs, extension bool) (*serialize.Context, error) {
	c := serialize.NewContext()
	sub, err := otbuild.PackLigatureSubst(c, subs, false)
	if err != nil {
		return nil, err
	}
	lookup := otbuild.PackLookup(c, ot.TagGSUB, otbuild.Lookup{Type: ot.GSubLookupTypeLigature},
		[]int{sub}, extension)
	otbuild.PackLayoutTable(c, otbuild.PackLookupList(c, []int{lookup}))
	return c, c.EndSerialize()
}

// MarkBase creates a mark-to-base subtable with classes mark classes,
// marksPerClass marks per class and bases base glyphs. Mark glyphs start at
// 100, base glyphs at 5000. Every anchor is unique: mark anchors are
// (mark, class), base anchors are (base, class).
func MarkBase(classes, marksPerClass, bases int) *otbuild.MarkBasePos {
	mbp := &otbuild.MarkBasePos{ClassCount: classes}
	m := 0
	for k := range classes {
		for range marksPerClass {
			mbp.Marks = append(mbp.Marks, otbuild.MarkRecord{
				Glyph:  ot.GlyphIndex(100 + m),
				Class:  uint16(k),
				Anchor: &otbuild.Anchor{X: int16(m), Y: int16(k)},
			})
			m++
		}
	}
	for b := range bases {
		rec := otbuild.BaseRecord{Glyph: ot.GlyphIndex(5000 + b)}
		for k := range classes {
			rec.Anchors = append(rec.Anchors, &otbuild.Anchor{X: int16(b), Y: int16(k)})
		}
		mbp.Bases = append(mbp.Bases, rec)
	}
	return mbp
}

// MarkBaseGPOS packs a GPOS table with a single mark-to-base lookup holding
// mbp. If extension is set, the lookup is an extension lookup.
func MarkBaseGPOS(mbp *otbuild.MarkBasePos, extension bool) (*serialize.Context, error) {
	c := serialize.NewContext()
	sub, err := mbp.Pack(c, false)
	if err != nil {
		return nil, err
	}
	lookup := otbuild.PackLookup(c, ot.TagGPOS, otbuild.Lookup{Type: ot.GPosLookupTypeMarkToBase},
		[]int{sub}, extension)
	otbuild.PackLayoutTable(c, otbuild.PackLookupList(c, []int{lookup}))
	return c, c.EndSerialize()
}
