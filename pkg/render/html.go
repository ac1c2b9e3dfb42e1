package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

const (
	redNodeColor   = "#d62728"
	blackNodeColor = "#222222"
	nodeSymbolSize = 28
	nilSymbolSize  = 8
	labelFontSize  = 12
)

// HTML writes an interactive echarts page drawing the tree top-down. A node
// with a single child gets a small NIL marker on the empty side so left and
// right stay distinguishable.
func HTML[K any](w io.Writer, tree *rbtree.Tree[K], title string, style Style) error {
	chart := charts.NewTree()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: style.Width, Height: style.Height}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d nodes, height %d, black height %d", tree.Len(), tree.Height(), tree.BlackHeight()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	var data []opts.TreeData
	if !tree.IsEmpty() {
		data = []opts.TreeData{*chartNode(tree.Root())}
	}

	chart.AddSeries("tree", data, charts.WithTreeOpts(opts.TreeChart{
		Layout:            "orthogonal",
		Orient:            "TB",
		Roam:              opts.Bool(true),
		ExpandAndCollapse: opts.Bool(false),
		Label: &opts.Label{
			Show:     opts.Bool(true),
			Position: "inside",
			Color:    "#ffffff",
			FontSize: labelFontSize,
		},
	}))

	err := chart.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func chartNode[K any](view rbtree.Node[K]) *opts.TreeData {
	fill := blackNodeColor
	if view.Color() == rbtree.Red {
		fill = redNodeColor
	}

	data := &opts.TreeData{
		Name:       fmt.Sprint(view.Key()),
		Value:      view.Color().String(),
		SymbolSize: nodeSymbolSize,
		ItemStyle:  &opts.ItemStyle{Color: fill},
	}

	left, right := view.Left(), view.Right()
	if left.Nil() && right.Nil() {
		return data
	}

	for _, child := range []rbtree.Node[K]{left, right} {
		if child.Nil() {
			data.Children = append(data.Children, nilNode())

			continue
		}

		data.Children = append(data.Children, chartNode(child))
	}

	return data
}

func nilNode() *opts.TreeData {
	return &opts.TreeData{
		Name:       "NIL",
		Symbol:     "rect",
		SymbolSize: nilSymbolSize,
		ItemStyle:  &opts.ItemStyle{Color: blackNodeColor},
	}
}
