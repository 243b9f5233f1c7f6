package ot

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCoverageFormat is returned for malformed or unknown coverage tables.
var ErrCoverageFormat = errors.New("ot: invalid coverage table")

// Coverage is the list of glyphs of a coverage table, in coverage index
// order (which is ascending glyph order).
type Coverage []GlyphIndex

// SortedCoverage creates a coverage from glyphs in any order. Duplicates are
// removed.
func SortedCoverage(glyphs []GlyphIndex) Coverage {
	cov := Coverage(slices.Clone(glyphs))
	slices.Sort(cov)
	return slices.Compact(cov)
}

// ParseCoverage reads a coverage table of format 1 or 2.
func ParseCoverage(b []byte) (Coverage, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCoverageFormat, len(b))
	}
	format, n := u16(b), int(u16(b[2:]))
	switch format {
	case 1:
		if len(b) < 4+2*n {
			return nil, fmt.Errorf("%w: truncated glyph array", ErrCoverageFormat)
		}
		cov := make(Coverage, n)
		for i := range cov {
			cov[i] = GlyphIndex(u16(b[4+2*i:]))
		}
		return cov, nil
	case 2:
		if len(b) < 4+6*n {
			return nil, fmt.Errorf("%w: truncated range array", ErrCoverageFormat)
		}
		var cov Coverage
		for i := range n {
			rec := b[4+6*i:]
			from, to := int(u16(rec)), int(u16(rec[2:]))
			if to < from {
				return nil, fmt.Errorf("%w: range %d > %d", ErrCoverageFormat, from, to)
			}
			for g := from; g <= to; g++ {
				cov = append(cov, GlyphIndex(g))
			}
		}
		return cov, nil
	}
	return nil, fmt.Errorf("%w: format %d", ErrCoverageFormat, format)
}

// Bytes encodes the coverage in the more compact of formats 1 and 2. Glyphs
// have to be sorted.
func (cov Coverage) Bytes() []byte {
	ranges := cov.ranges()
	if 6*len(ranges) < 2*len(cov) {
		b := make([]byte, 4+6*len(ranges))
		putU16(b, 2)
		putU16(b[2:], uint16(len(ranges)))
		start := 0
		for i, r := range ranges {
			rec := b[4+6*i:]
			putU16(rec, uint16(r[0]))
			putU16(rec[2:], uint16(r[1]))
			putU16(rec[4:], uint16(start))
			start += int(r[1]-r[0]) + 1
		}
		return b
	}
	b := make([]byte, 4+2*len(cov))
	putU16(b, 1)
	putU16(b[2:], uint16(len(cov)))
	for i, g := range cov {
		putU16(b[4+2*i:], uint16(g))
	}
	return b
}

// ranges groups consecutive glyphs.
func (cov Coverage) ranges() [][2]GlyphIndex {
	var r [][2]GlyphIndex
	for i, g := range cov {
		if i > 0 && g == r[len(r)-1][1]+1 {
			r[len(r)-1][1] = g
			continue
		}
		r = append(r, [2]GlyphIndex{g, g})
	}
	return r
}

// Select returns the glyphs at the given coverage indices.
func (cov Coverage) Select(indices []int) Coverage {
	sel := make(Coverage, 0, len(indices))
	for _, i := range indices {
		sel = append(sel, cov[i])
	}
	return sel
}

// Index returns the coverage index of glyph g, or -1.
func (cov Coverage) Index(g GlyphIndex) int {
	if i, ok := slices.BinarySearch(cov, g); ok {
		return i
	}
	return -1
}

// CoverageSize is the size of the format 1 encoding of n glyphs, an upper
// bound for the size of any encoding.
func CoverageSize(n int) int {
	return 4 + 2*n
}
