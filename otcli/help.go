package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "fixture", "fixtures", "load":
		pterm.Info.Println("Object graph fixtures")
		pterm.Println(`
	A fixture is a TOML file listing objects in packing order, the root last:

	[[object]]
	name = "def"
	data = "def"
	links = [{ to = "ghi", width = 2 }]

	Links without a 'pos' append an offset field of 'width' bytes to the
	object. Links may name only objects listed before them. Optional link
	fields are 'signed', 'whence' (head|tail|absolute) and 'bias'.
	'virtual' lists objects which must be placed after this one, without
	an offset field.

	load:<file.toml>[:<tag>] loads a fixture, tag naming its table.
	gen:gsub|gpos[:ext] packs a large ligature or mark-to-base table.
	`)
	case "sort", "dist", "distance":
		pterm.Info.Println("Sorting")
		pterm.Println(`
	dist computes the distance of every vertex from the root. The cost of a
	link is the size of its child, plus 2^(8*width) for every offset space.

	sort places vertices root first, each as soon as all of its parents are
	placed, the closest vertex first. A raised priority moves a vertex
	towards the root:
	+----------+--------------------------+
	| Priority | Distance                 |
	+----------+--------------------------+
	| 1        | reduced by half its size |
	| 2        | reduced by its size      |
	| 3        | zero                     |
	+----------+--------------------------+
	raise:<vertex> raises the priority of a vertex by one.
	`)
	case "split", "repack", "overflows":
		pterm.Info.Println("Overflow resolution")
		pterm.Println(`
	overflows lists offsets which do not fit into their field.

	split[:<tag>] splits Ligature (GSUB) and MarkToBase (GPOS) subtables
	which cannot be addressed with 16-bit offsets.

	repack[:<file>] splits subtables, then repeatedly duplicates shared
	children and raises priorities of leaves until no overflow remains.
	config:<file.toml> sets 'max_rounds' and 'split_subtables'.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	load:<file>[:<tag>]  gen:gsub|gpos[:ext]  config[:<file>]
	dist  sort  order  overflows  raise:<vertex>
	split[:<tag>]  repack[:<file>]  lookups[:<tag>]
	dot[:<file>]  svg:<file>  font[:<file>]
	help[:fixture|sort|split]  quit

	Steps may be chained on one line, e.g. "load:graph.toml sort overflows".
	`)
	}
}
