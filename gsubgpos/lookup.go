package gsubgpos

import (
	"errors"
	"fmt"
	"slices"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/ot"
)

// GSUB/GPOS header, LookupList, Lookup and Extension layout.
const (
	lookupListPos     = 8 // in the GSUB/GPOS header
	lookupHeaderSize  = 6 // lookupType, lookupFlag, subTableCount
	extensionSize     = 8 // format, extensionLookupType, extensionOffset32
	extensionTypePos  = 2
	extensionLinkPos  = 4
	lookupCountPos    = 0
	lookupOffsetsPos  = 2
	subtableCountPos  = 4
	markFilteringSize = 2
)

// Lookup is a lookup of a layout table graph.
type Lookup struct {
	Index     int // index in the LookupList
	Obj       graph.ObjIdx
	Type      ot.LayoutTableLookupType
	Flag      ot.LayoutTableLookupFlag
	Subtables []graph.ObjIdx // as linked from the lookup, possibly extension subtables
}

// IsExtension is true for extension lookups of table.
func (lk *Lookup) IsExtension(table ot.Tag) bool {
	return lk.Type == ot.ExtensionLookupType(table)
}

func (lk *Lookup) hasMarkFilteringSet() bool {
	return lk.Flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0
}

// Context locates the lookups of a GSUB or GPOS table graph.
type Context struct {
	g          *graph.Graph
	table      ot.Tag
	lookupList graph.ObjIdx
	lookups    []graph.ObjIdx
}

// NewContext finds the LookupList and the lookups of a GSUB or GPOS graph.
func NewContext(g *graph.Graph, table ot.Tag) (*Context, error) {
	if !table.IsLayoutTable() {
		return nil, fmt.Errorf("%w: table %s has no lookups", ErrUnsupportedFormat, table)
	}
	if g.Root() == graph.NoObject {
		return nil, fmt.Errorf("%w: empty graph", ErrUnsupportedFormat)
	}
	c := &Context{g: g, table: table}
	c.lookupList = g.ChildAt(g.Root(), lookupListPos)
	if c.lookupList == graph.NoObject {
		return c, nil // no lookups
	}
	b := g.Object(c.lookupList)
	n, err := u16At(b, lookupCountPos)
	if err != nil || len(b) < lookupOffsetsPos+2*int(n) {
		return nil, fmt.Errorf("LookupList %d: %w", c.lookupList, errTruncated)
	}
	for i := range int(n) {
		c.lookups = append(c.lookups, g.ChildAt(c.lookupList, lookupOffsetsPos+2*i))
	}
	tracer().Debugf("%s: %d lookups", table, len(c.lookups))
	return c, nil
}

// LookupCount returns the number of lookups in the LookupList.
func (c *Context) LookupCount() int {
	return len(c.lookups)
}

// Lookup reads lookup i of the LookupList.
func (c *Context) Lookup(i int) (*Lookup, error) {
	if i < 0 || i >= len(c.lookups) || c.lookups[i] == graph.NoObject {
		return nil, fmt.Errorf("%w: no lookup %d", ErrUnsupportedFormat, i)
	}
	idx := c.lookups[i]
	b := c.g.Object(idx)
	if len(b) < lookupHeaderSize {
		return nil, fmt.Errorf("Lookup %d: %w", idx, errTruncated)
	}
	lk := &Lookup{
		Index: i,
		Obj:   idx,
		Type:  ot.LayoutTableLookupType(u16(b)),
		Flag:  ot.LayoutTableLookupFlag(u16(b[2:])),
	}
	n := int(u16(b[subtableCountPos:]))
	size := lookupHeaderSize + 2*n
	if lk.hasMarkFilteringSet() {
		size += markFilteringSize
	}
	if len(b) < size {
		return nil, fmt.Errorf("Lookup %d: %w", idx, errTruncated)
	}
	for j := range n {
		lk.Subtables = append(lk.Subtables, c.g.ChildAt(idx, lookupHeaderSize+2*j))
	}
	return lk, nil
}

// isSplittable is true for the subtable types splitSubtable can handle.
func (c *Context) isSplittable(ltype ot.LayoutTableLookupType) bool {
	switch c.table {
	case ot.TagGSUB:
		return ltype == ot.GSubLookupTypeLigature
	case ot.TagGPOS:
		return ltype == ot.GPosLookupTypeMarkToBase
	}
	return false
}

func (c *Context) splitSubtable(ltype ot.LayoutTableLookupType, parent, subtable graph.ObjIdx) ([]graph.ObjIdx, error) {
	switch {
	case c.table == ot.TagGSUB && ltype == ot.GSubLookupTypeLigature:
		return splitLigatureSubst(c.g, parent, subtable)
	case c.table == ot.TagGPOS && ltype == ot.GPosLookupTypeMarkToBase:
		return splitMarkBasePos(c.g, parent, subtable)
	}
	return nil, nil
}

// SplitSubtablesIfNeeded splits every subtable of every lookup which is too
// large to be addressed with 16-bit offsets, where splitting is supported for
// the subtable's type. It reports whether any subtable has been split.
func (c *Context) SplitSubtablesIfNeeded() (bool, error) {
	split := false
	for i := range c.lookups {
		lk, err := c.Lookup(i)
		if err != nil {
			tracer().Infof("skipping lookup %d: %v", i, err)
			continue
		}
		s, err := c.splitLookup(lk)
		if err != nil {
			return split, err
		}
		split = split || s
	}
	return split, nil
}

// subtableInsert lists the subtables resulting from splitting subtable at
// index of a lookup.
type subtableInsert struct {
	index     int
	subtables []graph.ObjIdx
}

func (c *Context) splitLookup(lk *Lookup) (bool, error) {
	isExt := lk.IsExtension(c.table)
	if !isExt && !c.isSplittable(lk.Type) {
		return false, nil
	}
	var inserts []subtableInsert
	ltype := lk.Type
	for i, st := range lk.Subtables {
		if st == graph.NoObject {
			continue
		}
		parent := lk.Obj
		if isExt {
			ext := c.g.Object(st)
			if len(ext) < extensionSize || u16(ext) != 1 {
				continue
			}
			ltype = ot.LayoutTableLookupType(u16(ext[extensionTypePos:]))
			parent, st = st, c.g.ChildAt(st, extensionLinkPos)
			if st == graph.NoObject || !c.isSplittable(ltype) {
				continue
			}
		}
		subtables, err := c.splitSubtable(ltype, parent, st)
		if errors.Is(err, ErrUnsupportedFormat) && !errors.Is(err, graph.RepackErrorSplitSubtable) {
			tracer().Infof("lookup %d, subtable %d not split: %v", lk.Index, i, err)
			continue
		} else if err != nil {
			return false, err
		}
		if len(subtables) > 0 {
			inserts = append(inserts, subtableInsert{index: i, subtables: subtables})
		}
	}
	if len(inserts) == 0 {
		return false, nil
	}
	c.addSubtables(lk, ltype, inserts)
	return true, nil
}

// addSubtables inserts new subtables into a lookup, each group right after
// the subtable it has been split from. For extension lookups every new
// subtable is wrapped into a new extension subtable.
func (c *Context) addSubtables(lk *Lookup, ltype ot.LayoutTableLookupType, inserts []subtableInsert) {
	g := c.g
	old := g.Object(lk.Obj)
	n := len(lk.Subtables)
	added := 0
	for _, ins := range inserts {
		added += len(ins.subtables)
	}
	// newSlot maps the old subtable index i to its new index
	shifts := make([]int, n)
	shift := 0
	for i, k := 0, 0; i < n; i++ {
		shifts[i] = shift
		if k < len(inserts) && inserts[k].index == i {
			shift += len(inserts[k].subtables)
			k++
		}
	}
	newSlot := func(i int) int { return i + shifts[i] }

	size := lookupHeaderSize + 2*(n+added)
	if lk.hasMarkFilteringSet() {
		size += markFilteringSize
	}
	b := make([]byte, size)
	copy(b, old[:lookupHeaderSize])
	putU16(b[subtableCountPos:], uint16(n+added))
	if lk.hasMarkFilteringSet() {
		copy(b[size-markFilteringSize:], old[lookupHeaderSize+2*n:])
	}
	g.RemapLinkPositions(lk.Obj, func(pos int) (int, bool) {
		return lookupHeaderSize + 2*newSlot((pos-lookupHeaderSize)/2), true
	})
	g.SetObject(lk.Obj, b)
	for _, ins := range inserts {
		slot := newSlot(ins.index) + 1
		for _, st := range ins.subtables {
			if lk.IsExtension(c.table) {
				st = c.createExtension(st, ltype)
			}
			g.AddLink(lk.Obj, lookupHeaderSize+2*slot, graph.Width16, st)
			slot++
		}
	}
	g.SortLinks(lk.Obj)
	tracer().Infof("lookup %d: %d subtables added", lk.Index, added)
}

// createExtension wraps a subtable of type ltype into a new extension
// subtable.
func (c *Context) createExtension(subtable graph.ObjIdx, ltype ot.LayoutTableLookupType) graph.ObjIdx {
	b := make([]byte, extensionSize)
	putU16(b, 1)
	putU16(b[extensionTypePos:], uint16(ltype))
	ext := c.g.NewObject(b)
	c.g.AddLinkWith(ext, graph.Link{
		Kind:     graph.RealLink,
		Width:    graph.Width32,
		Position: extensionLinkPos,
		Target:   subtable,
	})
	return ext
}

// Subtables returns the subtables of a lookup, with extension subtables
// resolved to the subtables they wrap.
func (c *Context) Subtables(lk *Lookup) []graph.ObjIdx {
	if !lk.IsExtension(c.table) {
		return slices.Clone(lk.Subtables)
	}
	subs := make([]graph.ObjIdx, 0, len(lk.Subtables))
	for _, ext := range lk.Subtables {
		if ext == graph.NoObject {
			continue
		}
		subs = append(subs, c.g.ChildAt(ext, extensionLinkPos))
	}
	return subs
}
