package rbtree

import (
	"fmt"
	"io"
)

// Dump indentation units.
const (
	dumpBranch     = "-----"
	dumpIndentLast = "    "
	dumpIndentMore = "|   "
)

// DumpLine is one node of the structural description.
type DumpLine struct {
	Prefix string
	Key    string
	Color  Color
	Depth  int
}

// String renders the line as `prefix-----key (COLOR)`.
func (line DumpLine) String() string {
	return line.Prefix + dumpBranch + line.Key + " (" + line.Color.String() + ")"
}

type dumpFrame struct {
	nodeIdx uint32
	prefix  string
	last    bool
	depth   int
}

// DumpLines describes the tree structure in pre-order, left child before the
// right one. An empty tree yields no lines.
func (tree *Tree[K]) DumpLines() []DumpLine {
	if tree.root == 0 {
		return nil
	}

	alloc := tree.storage()
	lines := make([]DumpLine, 0, tree.count)
	stack := []dumpFrame{{nodeIdx: tree.root, last: true}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := alloc[frame.nodeIdx]

		lines = append(lines, DumpLine{
			Prefix: frame.prefix,
			Key:    fmt.Sprint(nd.key),
			Color:  nd.color,
			Depth:  frame.depth,
		})

		childPrefix := frame.prefix + dumpIndentMore
		if frame.last {
			childPrefix = frame.prefix + dumpIndentLast
		}

		// Pushed right first so that the left child pops first.
		if nd.right != 0 {
			stack = append(stack, dumpFrame{nodeIdx: nd.right, prefix: childPrefix, last: true, depth: frame.depth + 1})
		}

		if nd.left != 0 {
			stack = append(stack, dumpFrame{
				nodeIdx: nd.left, prefix: childPrefix, last: nd.right == 0, depth: frame.depth + 1,
			})
		}
	}

	return lines
}

// Dump returns the structural description as plain strings.
func (tree *Tree[K]) Dump() []string {
	lines := tree.DumpLines()
	out := make([]string, len(lines))

	for idx, line := range lines {
		out[idx] = line.String()
	}

	return out
}

// WriteDump writes the structural description to w, one node per line.
func (tree *Tree[K]) WriteDump(w io.Writer) error {
	for _, line := range tree.Dump() {
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
	}

	return nil
}
