/*
Package gsubgpos splits oversized subtables of GSUB and GPOS lookups.

Reordering alone cannot fix a subtable whose subgraph is larger than the range
of the 16-bit offsets inside it. Such a subtable is divided into several
subtables of the same lookup, each one covering a consecutive range of the
subtable's repeated elements:

▪︎ MarkBasePos (GPOS type 4, format 1): the elements are mark classes;

▪︎ LigatureSubst (GSUB type 4, format 1): the elements are ligatures, in
coverage order across all ligature sets.

Splitting follows the same steps for both: measure every element together
with the objects reachable exclusively through it, compute split points so
that every range stays below 64 KiB, clone every range but the first into a
new subtable and finally shrink the original subtable to the first range. The
new subtables are inserted into the lookup right after the original one;
subtables of extension lookups get new extension subtables.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package gsubgpos

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otpack.split'
func tracer() tracing.Trace {
	return tracing.Select("otpack.split")
}

// ErrUnsupportedFormat is returned for subtable formats the splitter does not
// understand. Callers usually leave such subtables alone.
var ErrUnsupportedFormat = errors.New("gsubgpos: unsupported table format")

// errTruncated flags tables too short for their declared content.
var errTruncated = errors.New("gsubgpos: table truncated")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func putU16(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// u16At reads a uint16 at pos with bounds check.
func u16At(b []byte, pos int) (uint16, error) {
	if pos < 0 || pos+2 > len(b) {
		return 0, errTruncated
	}
	return u16(b[pos:]), nil
}
