/*
Package otbuild compiles layout tables into object graphs.

The builders write GSUB/GPOS headers, lookup lists, lookups, extension
subtables and the subtable types the repacker knows how to split
(LigatureSubst and MarkBasePos) into a serialize.Context. Objects are packed
leaves first; the index returned by a builder is the packed object of the
table built, to be linked from its parent.

	c := serialize.NewContext()
	sub, _ := otbuild.PackLigatureSubst(c, ligs, false)
	lookup := otbuild.PackLookup(c, ot.TagGSUB, otbuild.Lookup{Type: ot.GSubLookupTypeLigature}, []int{sub}, false)
	otbuild.PackLayoutTable(c, otbuild.PackLookupList(c, []int{lookup}))

Offsets are not written by the builders; they are resolved by the repacker.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otbuild

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otpack.build'
func tracer() tracing.Trace {
	return tracing.Select("otpack.build")
}
