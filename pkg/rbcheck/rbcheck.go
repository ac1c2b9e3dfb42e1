// Package rbcheck verifies red-black trees from the outside, walking only the
// public structural view of a tree.
package rbcheck

import (
	"errors"
	"fmt"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

// Violation classes. Check wraps each finding in one of them.
var (
	ErrRootNotBlack        = errors.New("root is not black")
	ErrRedRedViolation     = errors.New("red node has a red child")
	ErrBlackHeightMismatch = errors.New("black height differs between paths")
	ErrOrderViolation      = errors.New("in-order keys are not sorted")
	ErrParentLink          = errors.New("broken parent link")
	ErrCountMismatch       = errors.New("node count mismatch")
)

// Node is the structural view the verifier walks. N is the implementing type
// itself; rbtree.Node[K] satisfies Node[rbtree.Node[K], K].
type Node[N, K any] interface {
	Nil() bool
	Key() K
	Color() rbtree.Color
	Left() N
	Right() N
	Parent() N
	Same(other N) bool
}

// Report summarizes the shape of a tree.
type Report struct {
	Nodes       int
	Height      int
	BlackHeight int // root included, as in rbtree.Tree.BlackHeight
	RedNodes    int
}

// Check returns nil for a valid tree, or all the violations found joined together.
func Check[K any](tree *rbtree.Tree[K]) error {
	_, err := Inspect(tree)

	return err
}

// BlackHeight returns the number of Black nodes on every root-to-leaf path,
// the root included. For a non-empty valid tree this is one more than the
// textbook black-height of the root, which leaves the root out.
func BlackHeight[K any](tree *rbtree.Tree[K]) (int, error) {
	report, err := Inspect(tree)
	if err != nil {
		return 0, err
	}

	return report.BlackHeight, nil
}

// Inspect verifies tree and describes its shape.
func Inspect[K any](tree *rbtree.Tree[K]) (Report, error) {
	return InspectNodes(tree.Root(), tree.Len(), tree.Compare)
}

// InspectNodes verifies the tree hanging from root, which must hold count
// nodes ordered by compare.
func InspectNodes[N Node[N, K], K any](root N, count int, compare func(a, b K) int) (Report, error) {
	walker := &walker[N, K]{compare: compare, limit: count}

	if !root.Nil() {
		if root.Color() != rbtree.Black {
			walker.fail(ErrRootNotBlack, root)
		}

		if !root.Parent().Nil() {
			walker.fail(ErrParentLink, root)
		}
	}

	blackHeight, height := walker.walk(root)

	if walker.entered <= count && walker.report.Nodes != count {
		walker.errs = append(walker.errs,
			fmt.Errorf("%w: reachable %d, reported %d", ErrCountMismatch, walker.report.Nodes, count))
	}

	walker.report.Height = height
	walker.report.BlackHeight = blackHeight

	return walker.report, errors.Join(walker.errs...)
}

type walker[N Node[N, K], K any] struct {
	compare func(a, b K) int
	limit   int
	entered int
	report  Report
	errs    []error
	prev    *K
}

// walk returns the black height and the height of the subtree.
func (w *walker[N, K]) walk(nd N) (int, int) {
	if nd.Nil() {
		return 0, 0
	}

	// A cycle would otherwise never end.
	w.entered++
	if w.entered > w.limit {
		if w.entered == w.limit+1 {
			w.errs = append(w.errs, fmt.Errorf("%w: more than %d nodes reachable", ErrCountMismatch, w.limit))
		}

		return 0, 0
	}

	left, right := nd.Left(), nd.Right()

	for _, child := range []N{left, right} {
		if child.Nil() {
			continue
		}

		if !child.Parent().Same(nd) {
			w.fail(ErrParentLink, child)
		}

		if nd.Color() == rbtree.Red && child.Color() == rbtree.Red {
			w.fail(ErrRedRedViolation, nd)
		}
	}

	leftBlack, leftHeight := w.walk(left)

	key := nd.Key()
	if w.prev != nil && w.compare(*w.prev, key) > 0 {
		w.fail(ErrOrderViolation, nd)
	}

	w.prev = &key
	w.report.Nodes++

	if nd.Color() == rbtree.Red {
		w.report.RedNodes++
	}

	rightBlack, rightHeight := w.walk(right)

	if leftBlack != rightBlack {
		w.errs = append(w.errs, fmt.Errorf("%w: at %v, left %d, right %d",
			ErrBlackHeightMismatch, key, leftBlack, rightBlack))
	}

	blackHeight := max(leftBlack, rightBlack)
	if nd.Color() == rbtree.Black {
		blackHeight++
	}

	return blackHeight, max(leftHeight, rightHeight) + 1
}

func (w *walker[N, K]) fail(class error, nd N) {
	w.errs = append(w.errs, fmt.Errorf("%w: at %v", class, nd.Key()))
}
