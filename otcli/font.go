package main

import (
	"github.com/npillmayer/otpack/gsubgpos"
	"github.com/npillmayer/otpack/internal/fontload"
	"github.com/npillmayer/otpack/ot"
)

// fontOp loads a font and lists its table directory.
func fontOp(intp *Intp, op *Op) (err error, stop bool) {
	if path, ok := op.hasArg(); ok {
		var f *fontload.ScalableFont
		if f, err = fontload.LoadOpenTypeFont(path); err != nil {
			tracer().Errorf("cannot load font %s: %s", path, err)
			return
		}
		intp.font = f
		tracer().Infof("loaded SFNT font = %s", f.Fontname)
	}
	if intp.font == nil {
		return ErrNoFont, false
	}
	printFontTables(intp.font)
	return
}

// lookupsOp lists the lookups of the loaded graph, if no table is given
// and the graph is a layout table, or else of a table of the loaded font,
// e.g. "lookups:GPOS".
func lookupsOp(intp *Intp, op *Op) (err error, stop bool) {
	if op.noArg() && intp.g != nil && intp.table.IsLayoutTable() {
		var lc *gsubgpos.Context
		if lc, err = gsubgpos.NewContext(intp.g, intp.table); err != nil {
			return
		}
		printLookups(intp, lc)
		return
	}
	if intp.font == nil {
		return ErrNoFont, false
	}
	table := ot.TagGSUB
	if tag, ok := op.hasArg(); ok {
		table = ot.T(tag)
	}
	var lookups []fontload.LookupInfo
	if lookups, err = intp.font.Lookups(table); err != nil {
		return
	}
	printFontLookups(table, lookups)
	return
}
