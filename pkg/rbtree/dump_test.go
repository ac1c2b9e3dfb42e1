package rbtree_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

func TestDumpAscending(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[int](nil)
	for key := 1; key <= 6; key++ {
		tree.Insert(key)
	}

	assert.Equal(t, []string{
		"-----2 (BLACK)",
		"    -----1 (BLACK)",
		"    -----4 (RED)",
		"        -----3 (BLACK)",
		"        -----5 (BLACK)",
		"            -----6 (RED)",
	}, tree.Dump())

	lines := tree.DumpLines()
	require.Len(t, lines, 6)
	assert.Equal(t, 0, lines[0].Depth)
	assert.Equal(t, 3, lines[5].Depth)
	assert.Equal(t, "6", lines[5].Key)
	assert.Equal(t, rbtree.Red, lines[5].Color)
}

func TestDumpEmpty(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[string](nil)
	assert.Empty(t, tree.Dump())

	var buf bytes.Buffer
	require.NoError(t, tree.WriteDump(&buf))
	assert.Empty(t, buf.String())
}

func TestWriteDump(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[string](nil)
	tree.Insert("m")
	tree.Insert("c")

	var buf bytes.Buffer
	require.NoError(t, tree.WriteDump(&buf))
	assert.Equal(t, "-----m (BLACK)\n    -----c (RED)\n", buf.String())
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func TestWriteDumpError(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[int](nil)
	tree.Insert(1)

	require.ErrorIs(t, tree.WriteDump(failingWriter{}), errWrite)
}
