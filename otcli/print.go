package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/otpack/graph"
	"github.com/npillmayer/otpack/gsubgpos"
	"github.com/npillmayer/otpack/internal/fontload"
	"github.com/npillmayer/otpack/ot"
	"github.com/pterm/pterm"
)

func printVertices(intp *Intp, order []graph.ObjIdx) {
	data := [][]string{
		{"Vertex", "Name", "Size", "Distance", "Space", "Prio", "Links", "Parents"},
	}
	for _, idx := range order {
		v := intp.g.Vertex(idx)
		data = append(data, []string{
			fmt.Sprintf("%d", idx),
			intp.vertexName(idx),
			fmt.Sprintf("%d", v.TableSize()),
			formatDistance(v.Distance()),
			fmt.Sprintf("%d", v.Space()),
			fmt.Sprintf("%d", v.Priority()),
			fmt.Sprintf("%d+%d", v.RealLinkCount(), v.VirtualLinkCount()),
			fmt.Sprintf("%d", v.ParentCount()),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// formatDistance splits a distance into its space part and its byte part.
func formatDistance(d int64) string {
	if d>>16 == 0 {
		return fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%d·2^16+%d", d>>16, d&0xffff)
}

func printOrder(intp *Intp) {
	order := intp.g.Ordering()
	names := make([]string, len(order))
	for i, idx := range order {
		names[i] = intp.vertexName(idx)
	}
	pterm.Printf("ordering (root first): %s\n", strings.Join(names, " "))
	if intp.g.WillOverflow() {
		pterm.Printf("ordering will overflow\n")
	}
}

func printOverflows(intp *Intp, overflows []graph.OverflowRecord) {
	count := len(overflows)
	pterm.Printf("%d overflows\n", count)
	if count == 0 {
		return
	}
	data := [][]string{
		{"Parent", "Child", "Position", "Width", "Offset", "Shared"},
	}
	for _, r := range overflows {
		data = append(data, []string{
			intp.vertexName(r.Parent),
			intp.vertexName(r.Child),
			fmt.Sprintf("%d", r.Link.Position),
			fmt.Sprintf("%d", r.Link.Width),
			fmt.Sprintf("%d", r.Offset),
			fmt.Sprintf("%v", intp.g.Vertex(r.Child).IsShared()),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printLookups(intp *Intp, lc *gsubgpos.Context) {
	count := lc.LookupCount()
	pterm.Printf("%s LookupList has %d entries\n", intp.table, count)
	if count == 0 {
		return
	}
	data := [][]string{
		{"Index", "Type", "Subtables", "Flags", "Sizes"},
	}
	for i := range count {
		lk, err := lc.Lookup(i)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		sizes := make([]string, 0, len(lk.Subtables))
		for _, st := range lc.Subtables(lk) {
			sizes = append(sizes, fmt.Sprintf("%d", intp.g.FindSubgraphSize(st, make(graph.ObjSet))))
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(intp.table, lk.Type),
			fmt.Sprintf("%d", len(lk.Subtables)),
			formatLookupFlags(lk.Flag),
			strings.Join(sizes, ","),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printFontTables(f *fontload.ScalableFont) {
	pterm.Printf("%s: %d glyphs\n", f.Fontname, f.NumGlyphs)
	data := [][]string{
		{"Tag", "Offset", "Length", "Checksum"},
	}
	for _, rec := range f.Tables() {
		data = append(data, []string{
			rec.Tag.String(),
			fmt.Sprintf("%d", rec.Offset),
			fmt.Sprintf("%d", rec.Length),
			fmt.Sprintf("%08x", rec.Checksum),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printFontLookups(table ot.Tag, lookups []fontload.LookupInfo) {
	pterm.Printf("%s LookupList has %d entries\n", table, len(lookups))
	if len(lookups) == 0 {
		return
	}
	data := [][]string{
		{"Index", "Type", "Subtables", "Flags"},
	}
	for i, lk := range lookups {
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(table, lk.Type),
			fmt.Sprintf("%d", lk.SubtableCount),
			formatLookupFlags(lk.Flag),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatLookupType(table ot.Tag, ltype ot.LayoutTableLookupType) string {
	if ltype == 0 {
		return "Unknown(0)"
	}
	return ot.LookupTypeString(table, ltype)
}

func formatLookupFlags(flag ot.LayoutTableLookupFlag) string {
	if flag == 0 {
		return "-"
	}
	parts := make([]string, 0, 6)
	if flag&ot.LOOKUP_FLAG_RIGHT_TO_LEFT != 0 {
		parts = append(parts, "RightToLeft")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0 {
		parts = append(parts, "IgnoreBase")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0 {
		parts = append(parts, "IgnoreLigatures")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
		parts = append(parts, "IgnoreMarks")
	}
	if flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		parts = append(parts, "UseMarkFilteringSet")
	}
	if flag&ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK != 0 {
		parts = append(parts, fmt.Sprintf("MarkAttachType=%d", flag>>8))
	}
	return strings.Join(parts, "|")
}
