package otbuild

import (
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/serialize"
)

// Lookup describes the header of a lookup table.
type Lookup struct {
	Type             ot.LayoutTableLookupType
	Flag             ot.LayoutTableLookupFlag
	MarkFilteringSet uint16 // written if Flag has LOOKUP_FLAG_USE_MARK_FILTERING_SET
}

// PackLayoutTable packs a GSUB or GPOS header (version 1.0) linking to a
// LookupList. Script and feature lists are left empty (null offsets).
func PackLayoutTable(c *serialize.Context, lookupList int) int {
	c.Push()
	c.PutU16(1) // majorVersion
	c.PutU16(0) // minorVersion
	c.PutU16(0) // scriptList
	c.PutU16(0) // featureList
	c.AddLink(c.PutU16(0), lookupList)
	return c.PopPack(false)
}

// PackLookupList packs a LookupList linking to the given lookups.
func PackLookupList(c *serialize.Context, lookups []int) int {
	c.Push()
	c.PutU16(uint16(len(lookups)))
	for _, lk := range lookups {
		c.AddLink(c.PutU16(0), lk)
	}
	return c.PopPack(false)
}

// PackLookup packs a lookup linking to subtables. If extension is set, every
// subtable is wrapped into an extension subtable and the lookup gets the
// extension lookup type of table.
func PackLookup(c *serialize.Context, table ot.Tag, lk Lookup, subtables []int, extension bool) int {
	ltype := lk.Type
	if extension {
		wrapped := make([]int, len(subtables))
		for i, st := range subtables {
			wrapped[i] = PackExtension(c, lk.Type, st)
		}
		subtables = wrapped
		ltype = ot.ExtensionLookupType(table)
	}
	c.Push()
	c.PutU16(uint16(ltype))
	c.PutU16(uint16(lk.Flag))
	c.PutU16(uint16(len(subtables)))
	for _, st := range subtables {
		c.AddLink(c.PutU16(0), st)
	}
	if lk.Flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		c.PutU16(lk.MarkFilteringSet)
	}
	tracer().Debugf("packed lookup of type %s with %d subtables", ot.LookupTypeString(table, ltype), len(subtables))
	return c.PopPack(false)
}

// PackExtension packs an extension subtable (format 1) for a subtable of
// type ltype, linked with a 32-bit offset.
func PackExtension(c *serialize.Context, ltype ot.LayoutTableLookupType, subtable int) int {
	c.Push()
	c.PutU16(1)
	c.PutU16(uint16(ltype))
	c.AddLinkWith(serialize.Link{Width: 4, Position: c.Allocate(4), ObjIdx: subtable})
	return c.PopPack(false)
}

// packCoverage packs a coverage table.
func packCoverage(c *serialize.Context, cov ot.Coverage, share bool) int {
	c.Push()
	c.Embed(cov.Bytes())
	return c.PopPack(share)
}
