package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/gsubgpos"
	"github.com/npillmayer/otpack/internal/fixture"
	"github.com/npillmayer/otpack/ot"
	"github.com/npillmayer/otpack/repack"
	"github.com/pterm/pterm"
)

// tagNone marks graphs which are not a layout table.
var tagNone = ot.T("none")

// --- Loading ----------------------------------------------------------

func loadOp(intp *Intp, op *Op) (error, bool) {
	path, ok := op.hasArg()
	if !ok {
		return errors.New("usage: load:<fixture.toml>[:<table tag>]"), false
	}
	return intp.loadFixture(path, op.format), false
}

// loadFixture loads a TOML object graph. tag optionally names the table the
// objects belong to.
func (intp *Intp) loadFixture(path, tag string) error {
	f, err := fixture.Load(path)
	if err != nil {
		return err
	}
	table := tagNone
	if tag != "" {
		table = ot.T(tag)
	}
	tracer().Infof("loaded fixture %s with %d objects", path, f.Len())
	return intp.setSource(f, table, f.Name)
}

// generateOp packs a synthetic layout table, e.g. "gen:gsub:ext" packs a
// ligature GSUB table inside an extension lookup.
func generateOp(intp *Intp, op *Op) (error, bool) {
	extension := op.format == "ext"
	switch strings.ToLower(op.arg) {
	case "gsub":
		c, err := fixture.LigatureGSUB(fixture.LigatureSubs(20, 400, 4), extension)
		if err != nil {
			return err, false
		}
		return intp.setSource(c, ot.TagGSUB, nil), false
	case "gpos":
		c, err := fixture.MarkBaseGPOS(fixture.MarkBase(20, 10, 600), extension)
		if err != nil {
			return err, false
		}
		return intp.setSource(c, ot.TagGPOS, nil), false
	}
	return errors.New("usage: gen:gsub|gpos[:ext]"), false
}

func (intp *Intp) setSource(src graph.ObjectSource, table ot.Tag, name func(int) string) error {
	g, err := graph.FromSerializer(src)
	if err != nil {
		return err
	}
	intp.source, intp.table, intp.name, intp.g = src, table, name, g
	pterm.Printf("graph of %d vertices, %d bytes\n", g.Len(), g.TotalSize())
	return nil
}

func configOp(intp *Intp, op *Op) (err error, stop bool) {
	if path, ok := op.hasArg(); ok {
		if intp.cfg, err = repack.LoadConfig(path); err != nil {
			return
		}
	}
	pterm.Printf("max rounds: %d, split subtables: %v\n", intp.cfg.MaxRounds, intp.cfg.SplitSubtables)
	return
}

// --- Graph operations -------------------------------------------------

func distOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	if err := intp.g.UpdateDistances(); err != nil {
		return err, false
	}
	printVertices(intp, intp.g.Ordering())
	return nil, false
}

func sortOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	if err := intp.g.SortShortestDistance(); err != nil {
		return err, false
	}
	printOrder(intp)
	return nil, false
}

func orderOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	printOrder(intp)
	return nil, false
}

func overflowsOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	printOverflows(intp, intp.g.Overflows())
	return nil, false
}

// raiseOp raises the priority of a vertex, given by index or by name.
func raiseOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	idx, err := intp.findVertex(op.arg)
	if err != nil {
		return err, false
	}
	if !intp.g.RaisePriority(idx) {
		pterm.Printf("%s is already at maximum priority\n", intp.vertexName(idx))
		return nil, false
	}
	pterm.Printf("%s has priority %d\n", intp.vertexName(idx), intp.g.Vertex(idx).Priority())
	return nil, false
}

func (intp *Intp) findVertex(key string) (graph.ObjIdx, error) {
	if key == "" {
		return graph.NoObject, errors.New("usage: raise:<vertex>")
	}
	if f, ok := intp.source.(*fixture.Fixture); ok {
		if i := f.Index(key); i >= 0 {
			return graph.ObjIdx(i), nil
		}
	}
	i, err := strconv.Atoi(strings.TrimPrefix(key, "#"))
	if err != nil || i < 0 || i >= intp.g.Len() {
		return graph.NoObject, fmt.Errorf("no vertex %q", key)
	}
	return graph.ObjIdx(i), nil
}

func splitOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	table := intp.table
	if tag, ok := op.hasArg(); ok {
		table = ot.T(tag)
	}
	lc, err := gsubgpos.NewContext(intp.g, table)
	if err != nil {
		return err, false
	}
	n := intp.g.Len()
	split, err := lc.SplitSubtablesIfNeeded()
	if err != nil {
		return err, false
	}
	if !split {
		pterm.Println("no subtable needs splitting")
		return nil, false
	}
	pterm.Printf("split subtables, %d vertices added\n", intp.g.Len()-n)
	printLookups(intp, lc)
	return nil, false
}

// repackOp resolves overflows and optionally writes the result to a file.
func repackOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	start := time.Now()
	err := repack.ResolveOverflows(intp.g, intp.table, intp.cfg)
	tracer().Infof("overflow resolution took %v", time.Since(start))
	if err != nil {
		printOverflows(intp, intp.g.Overflows())
		return err, false
	}
	out, err := intp.g.Serialize()
	if err != nil {
		return err, false
	}
	pterm.Printf("repacked %d vertices into %d bytes\n", intp.g.Len(), len(out))
	if path, ok := op.hasArg(); ok {
		if err := os.WriteFile(path, out, 0644); err != nil {
			return err, false
		}
		pterm.Printf("written to %s\n", path)
	}
	return nil, false
}

// --- Export -----------------------------------------------------------

func dotOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	dot := intp.g.ToDOT(intp.vertexName)
	if path, ok := op.hasArg(); ok {
		return os.WriteFile(path, []byte(dot), 0644), false
	}
	pterm.Println(dot)
	return nil, false
}

func svgOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkGraph(); err != nil {
		return err, false
	}
	path, ok := op.hasArg()
	if !ok {
		return errors.New("usage: svg:<file.svg>"), false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	svg, err := graph.RenderSVG(ctx, intp.g.ToDOT(intp.vertexName))
	if err != nil {
		return err, false
	}
	if err := os.WriteFile(path, svg, 0644); err != nil {
		return err, false
	}
	pterm.Printf("written %d bytes to %s\n", len(svg), path)
	return nil, false
}
