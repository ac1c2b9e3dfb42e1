package rbtree

// Node is a read-only view of one position in a tree, used by external
// verifiers to walk colors and links. The empty position is a Node for which
// Nil reports true; it is Black and has the zero key.
//
// A Node is invalidated by the next mutation of its tree.
type Node[K any] struct {
	tree *Tree[K]
	idx  uint32
}

// Nil reports whether the view points at the empty position.
func (n Node[K]) Nil() bool {
	return n.tree == nil || n.idx == 0
}

// Key returns the node's key, or the zero value for the empty position.
func (n Node[K]) Key() K {
	if n.Nil() {
		var zero K

		return zero
	}

	return n.tree.storage()[n.idx].key
}

// Color returns the node's color. The empty position is Black.
func (n Node[K]) Color() Color {
	if n.Nil() {
		return Black
	}

	return getColor(n.idx, n.tree.storage())
}

// Left returns the left child.
func (n Node[K]) Left() Node[K] {
	return n.link(func(nd node[K]) uint32 { return nd.left })
}

// Right returns the right child.
func (n Node[K]) Right() Node[K] {
	return n.link(func(nd node[K]) uint32 { return nd.right })
}

// Parent returns the parent, the empty position for the root.
func (n Node[K]) Parent() Node[K] {
	return n.link(func(nd node[K]) uint32 { return nd.parent })
}

// Same reports whether both views point at the same position.
func (n Node[K]) Same(other Node[K]) bool {
	if n.Nil() || other.Nil() {
		return n.Nil() && other.Nil()
	}

	return n.tree == other.tree && n.idx == other.idx
}

func (n Node[K]) link(pick func(node[K]) uint32) Node[K] {
	if n.Nil() {
		return Node[K]{tree: n.tree}
	}

	return Node[K]{tree: n.tree, idx: pick(n.tree.storage()[n.idx])}
}
