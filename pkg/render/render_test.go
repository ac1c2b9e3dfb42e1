package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/scenario"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/snapshot"
)

func plain() render.Style {
	style := render.DefaultStyle()
	style.Color = render.ColorNever

	return style
}

func buildTree(keys ...int) *rbtree.Tree[int] {
	tree := rbtree.New[int](nil)
	for _, key := range keys {
		tree.Insert(key)
	}

	return tree
}

func TestColorDumpPlain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.ColorDump(&buf, buildTree(10, 20, 30), plain()))
	assert.Equal(t, "Red-Black Tree:\n-----20 (BLACK)\n    -----10 (RED)\n    -----30 (RED)\n", buf.String())
}

func TestColorDumpEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.ColorDump(&buf, buildTree(), plain()))
	assert.Equal(t, "Red-Black Tree:\nTree is empty.\n", buf.String())
}

func TestColorDumpColored(t *testing.T) {
	t.Parallel()

	style := render.DefaultStyle()
	style.Color = render.ColorAlways

	var buf bytes.Buffer

	require.NoError(t, render.ColorDump(&buf, buildTree(10, 20), style))

	out := buf.String()
	assert.Contains(t, out, "-----\x1b[1m10 (BLACK)")
	assert.Contains(t, out, "\x1b[31m20 (RED)\x1b[0m")
}

func TestTable(t *testing.T) {
	t.Parallel()

	report, err := rbcheck.Inspect(buildTree(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)

	out := render.Table(report, render.SizeRow("Arena", 2048), render.CountRow("Operations", 12345))

	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "Black height")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "HEIGHT BOUND")
	assert.Contains(t, out, "5.61")
}

func TestHeightBound(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, render.HeightBound(0), 1e-9)
	assert.InDelta(t, 6.0, render.HeightBound(7), 1e-9)
}

func TestDiff(t *testing.T) {
	t.Parallel()

	diffs := scenario.LineDiff([]string{"a", "b"}, []string{"a", "c"})

	var buf bytes.Buffer

	require.NoError(t, render.Diff(&buf, diffs, plain()))
	assert.Equal(t, "  a\n- b\n+ c\n", buf.String())
}

func TestHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.HTML(&buf, buildTree(1, 2, 3, 4, 5, 6), "six keys", render.DefaultStyle()))

	out := buf.String()
	assert.Contains(t, out, "six keys")
	assert.Contains(t, out, "6 nodes, height 4, black height 2")
	assert.Contains(t, out, `"name":"NIL"`)
	assert.Equal(t, 1, strings.Count(out, "<html"))
}

func TestHTMLEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.HTML(&buf, buildTree(), "empty", render.DefaultStyle()))
	assert.Contains(t, buf.String(), "0 nodes")
}

func TestSummary(t *testing.T) {
	t.Parallel()

	out := render.Summary("Stress", render.CountRow("Rounds", 10), render.Row{Name: "Elapsed", Value: "1.5s"})

	assert.Contains(t, out, "Stress")
	assert.Contains(t, out, "Rounds")
	assert.Contains(t, out, "1.5s")
}

func TestShardTable(t *testing.T) {
	t.Parallel()

	out := render.ShardTable([]snapshot.ShardStat{
		{Index: 0, Trees: 2, Nodes: 1500, Compressed: 1024, OnDisk: 1040},
		{Index: 1, Trees: 1, Nodes: 500, Compressed: 512, OnDisk: 530},
	})

	assert.Contains(t, out, "ON DISK")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "1.0 KiB")
	assert.Contains(t, out, "2,000")
	assert.Contains(t, out, "TOTAL")
}
