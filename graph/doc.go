/*
Package graph holds the object graph of a font table under repacking.

A graph is created from the output of a serializer (see package serialize):
every packed object becomes a Vertex, every offset a real Link and every
ordering constraint a virtual Link. Vertices live in a flat arena addressed by
ObjIdx; handles are stable, new vertices are appended and vertices are never
removed.

The repacker works in passes:

▪︎ a distance pass computes the weighted shortest distance of every vertex from
the root (Dijkstra);

▪︎ a sort pass computes a topological ordering, preferring vertices close to
the root, and detects cycles;

▪︎ a position pass assigns byte positions along the ordering and finds
offsets which do not fit into their links.

If offsets overflow, clients mutate the graph (duplicate shared vertices,
raise priorities, split subtables, see package gsubgpos) and sort again.
Finally Serialize writes the ordered bytes with all offsets resolved.

Parents, distances and positions are cached. Every mutation which changes
links invalidates the caches; the next pass recomputes them.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package graph

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otpack.graph'
func tracer() tracing.Trace {
	return tracing.Select("otpack.graph")
}

func assertEqualInt(name string, a, b int) {
	if a != b {
		panic(fmt.Sprintf("assertion [%s] failed: %d != %d", name, a, b))
	}
}

func assertIndex(name string, idx ObjIdx, n int) {
	if idx < 0 || int(idx) >= n {
		panic(fmt.Sprintf("assertion [%s] failed: vertex %d out of range [0,%d)", name, idx, n))
	}
}

// --- Byte helpers ----------------------------------------------------------

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func putU16(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func putUint(b []byte, width LinkWidth, v uint32) {
	switch width {
	case Width16:
		putU16(b, uint16(v))
	case Width24:
		_ = b[2]
		b[0], b[1], b[2] = byte(v>>16), byte(v>>8), byte(v)
	case Width32:
		_ = b[3]
		b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	}
}
