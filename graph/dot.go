package graph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts the graph to Graphviz DOT format. Vertices are listed in the
// current ordering. Real links are drawn solid and labeled with their byte
// position, virtual links are drawn dashed.
//
// name may be nil; it provides the label of a vertex.
func (g *Graph) ToDOT(name func(ObjIdx) string) string {
	if name == nil {
		name = func(idx ObjIdx) string { return fmt.Sprintf("#%d", idx) }
	}
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontsize=12];\n\n")
	for _, idx := range g.ordering {
		v := &g.vertices[idx]
		label := fmt.Sprintf("%s\n%d bytes", name(idx), v.TableSize())
		if v.priority > 0 {
			label += fmt.Sprintf("\nprio %d", v.priority)
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", vertexID(idx), label)
	}
	buf.WriteString("\n")
	for _, idx := range g.ordering {
		for _, l := range g.vertices[idx].links {
			if l.IsVirtual() {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", vertexID(idx), vertexID(l.Target))
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=\"@%d\"];\n", vertexID(idx), vertexID(l.Target), l.Position)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func vertexID(idx ObjIdx) string {
	return fmt.Sprintf("v%d", idx)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
