/*
Package repack resolves offset overflows of a serialized font table.

Repack builds an object graph from the output of a serializer, orders it and
checks every offset. If offsets overflow, it tries, in this order:

▪︎ splitting oversized GSUB/GPOS subtables (see package gsubgpos);

▪︎ duplicating shared objects, so that every parent gets a copy close to it;

▪︎ raising the priority of leaf objects, moving them closer to their parent.

Each round handles one overflow (or raises priorities for several) and sorts
again, until no overflow remains or no more progress can be made.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package repack

import (
	"fmt"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/gsubgpos"
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otpack.repack'
func tracer() tracing.Trace {
	return tracing.Select("otpack.repack")
}

// Repack orders the objects of src and writes them into a single byte
// slice, resolving offset overflows. table is the tag of the table the
// objects belong to; overflows of GSUB and GPOS tables may be resolved by
// splitting subtables.
func Repack(src graph.ObjectSource, table ot.Tag, cfg Config) ([]byte, error) {
	g, err := graph.FromSerializer(src)
	if err != nil {
		return nil, err
	}
	if err := ResolveOverflows(g, table, cfg); err != nil {
		return nil, err
	}
	return g.Serialize()
}

// ResolveOverflows sorts g and tries to resolve every offset overflow.
// If overflows remain, it returns an error matching
// graph.RepackErrorNoResolution; g is left in its last state for inspection.
func ResolveOverflows(g *graph.Graph, table ot.Tag, cfg Config) error {
	if err := g.SortShortestDistance(); err != nil {
		return err
	}
	if !g.WillOverflow() {
		return nil
	}
	if table.IsLayoutTable() && cfg.SplitSubtables {
		tracer().Infof("%s: splitting subtables if needed", table)
		c, err := gsubgpos.NewContext(g, table)
		if err != nil {
			return err
		}
		split, err := c.SplitSubtablesIfNeeded()
		if err != nil {
			return err
		}
		if split {
			if err := g.SortShortestDistance(); err != nil {
				return err
			}
		}
	}
	for round := 0; round < cfg.MaxRounds && !g.InError(); round++ {
		overflows := g.Overflows()
		if len(overflows) == 0 {
			break
		}
		tracer().Infof("=== overflow resolution round %d: %d overflows ===", round, len(overflows))
		for _, o := range overflows {
			tracer().Debugf("overflow %v", o)
		}
		if !processOverflows(g, overflows) {
			tracer().Infof("no resolution available")
			break
		}
		if err := g.SortShortestDistance(); err != nil {
			return err
		}
	}
	if g.InError() {
		return g.Err()
	}
	if g.WillOverflow() {
		tracer().Errorf("%s: offset overflow resolution failed", table)
		g.SetError(graph.RepackErrorNoResolution)
		return fmt.Errorf("%w: %d overflows remain", graph.RepackErrorNoResolution, len(g.Overflows()))
	}
	return nil
}

// processOverflows tries to resolve overflows, the furthest first. A shared
// child is duplicated, which ends the round. For leaf children the priority
// of the parent's children is raised, once per parent and round. Reports
// whether anything has changed.
func processOverflows(g *graph.Graph, overflows []graph.OverflowRecord) bool {
	bumped := make(graph.ObjSet)
	attempted := false
	for i := len(overflows) - 1; i >= 0; i-- {
		r := overflows[i]
		child := g.Vertex(r.Child)
		if child.IsShared() {
			if clone := g.DuplicateChild(r.Parent, r.Child); clone != graph.NoObject {
				tracer().Debugf("duplicated shared vertex %d for parent %d", r.Child, r.Parent)
				return true
			}
			continue
		}
		if child.IsLeaf() && !bumped.Has(r.Parent) {
			if g.RaiseChildrensPriority(r.Parent) {
				tracer().Debugf("raised priority of children of %d", r.Parent)
				bumped.Add(r.Parent)
				attempted = true
			}
		}
	}
	return attempted
}
