// Package render presents trees, verifier reports and dump diffs for people:
// colored terminal dumps, statistics tables and HTML charts.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/safeconv"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/snapshot"
)

const (
	dumpHeader = "Red-Black Tree:"
	emptyTree  = "Tree is empty."
)

// ColorMode selects whether terminal output carries ANSI colors.
type ColorMode int

// Color modes.
const (
	// ColorAuto follows the terminal detection of fatih/color.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Style controls terminal and chart output.
type Style struct {
	Color  ColorMode
	Width  string
	Height string
}

// DefaultStyle returns the style used when nothing is configured.
func DefaultStyle() Style {
	return Style{Color: ColorAuto, Width: "100%", Height: "720px"}
}

func (s Style) paint(attrs ...color.Attribute) *color.Color {
	painter := color.New(attrs...)

	switch s.Color {
	case ColorAlways:
		painter.EnableColor()
	case ColorNever:
		painter.DisableColor()
	case ColorAuto:
	}

	return painter
}

// ColorDump writes the tree header followed by one line per node. Red nodes
// are printed in red, black nodes in bold.
func ColorDump[K any](w io.Writer, tree *rbtree.Tree[K], style Style) error {
	var sb strings.Builder

	sb.WriteString(dumpHeader + "\n")

	if tree.IsEmpty() {
		sb.WriteString(emptyTree + "\n")
	}

	red := style.paint(color.FgRed)
	black := style.paint(color.Bold)

	for _, line := range tree.DumpLines() {
		painter := black
		if line.Color == rbtree.Red {
			painter = red
		}

		fmt.Fprintf(&sb, "%s-----%s\n", line.Prefix, painter.Sprintf("%s (%s)", line.Key, line.Color))
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write dump: %w", err)
	}

	return nil
}

// Row is an extra statistic appended to a Table.
type Row struct {
	Name  string
	Value string
}

// SizeRow formats a byte count the way humans read it.
func SizeRow(name string, size int) Row {
	return Row{Name: name, Value: humanize.IBytes(safeconv.MustIntToUint64(size))}
}

// CountRow formats a count with thousands separators.
func CountRow(name string, count int) Row {
	return Row{Name: name, Value: humanize.Comma(int64(count))}
}

// Table renders the verifier report and any extra rows as a light box table.
// The footer compares the height with the 2*log2(n+1) bound.
func Table(report rbcheck.Report, rows ...Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	tw.AppendRow(table.Row{"Nodes", humanize.Comma(int64(report.Nodes))})
	tw.AppendRow(table.Row{"Red nodes", humanize.Comma(int64(report.RedNodes))})
	tw.AppendRow(table.Row{"Black nodes", humanize.Comma(int64(report.Nodes - report.RedNodes))})
	tw.AppendRow(table.Row{"Height", report.Height})
	tw.AppendRow(table.Row{"Black height", report.BlackHeight})

	for _, row := range rows {
		tw.AppendRow(table.Row{row.Name, row.Value})
	}

	tw.AppendFooter(table.Row{"Height bound", fmt.Sprintf("%.2f", HeightBound(report.Nodes))})

	return tw.Render()
}

// Summary renders name/value rows as a light box table.
func Summary(title string, rows ...Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(title)

	for _, row := range rows {
		tw.AppendRow(table.Row{row.Name, row.Value})
	}

	return tw.Render()
}

// ShardTable renders per-shard snapshot sizes with a totals footer.
func ShardTable(stats []snapshot.ShardStat) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Shard", "Trees", "Nodes", "Compressed", "On disk"})

	var total snapshot.ShardStat

	for _, stat := range stats {
		tw.AppendRow(table.Row{
			stat.Index, stat.Trees, humanize.Comma(int64(stat.Nodes)),
			humanize.IBytes(safeconv.MustIntToUint64(stat.Compressed)),
			humanize.IBytes(safeconv.MustIntToUint64(stat.OnDisk)),
		})

		total.Trees += stat.Trees
		total.Nodes += stat.Nodes
		total.Compressed += stat.Compressed
		total.OnDisk += stat.OnDisk
	}

	tw.AppendFooter(table.Row{
		"Total", total.Trees, humanize.Comma(int64(total.Nodes)),
		humanize.IBytes(safeconv.MustIntToUint64(total.Compressed)),
		humanize.IBytes(safeconv.MustIntToUint64(total.OnDisk)),
	})

	return tw.Render()
}

// HeightBound is the largest height a valid tree of n nodes may have.
func HeightBound(n int) float64 {
	return 2 * math.Log2(float64(n)+1)
}

// Diff writes a line diff of two dumps: removed lines start with "- ", added
// lines with "+ " and unchanged lines with two spaces.
func Diff(w io.Writer, diffs []diffmatchpatch.Diff, style Style) error {
	added := style.paint(color.FgGreen)
	removed := style.paint(color.FgRed)

	var sb strings.Builder

	for _, diff := range diffs {
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}

			line = strings.TrimSuffix(line, "\n")

			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				sb.WriteString(added.Sprint("+ "+line) + "\n")
			case diffmatchpatch.DiffDelete:
				sb.WriteString(removed.Sprint("- "+line) + "\n")
			case diffmatchpatch.DiffEqual:
				sb.WriteString("  " + line + "\n")
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}
