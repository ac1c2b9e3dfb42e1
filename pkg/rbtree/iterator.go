package rbtree

import "iter"

// Iterator allows scanning tree elements in sort order.
//
// Iterator invalidation rule is the same as C++ std::map<>'s. That
// is, if you delete the element that an iterator points to, the
// iterator becomes invalid. For other operation types, the iterator
// remains valid.
type Iterator[K any] struct {
	tree *Tree[K]
	node uint32
}

// Min creates an iterator that points to the minimum item in the tree.
// If the tree is empty, returns Limit().
func (tree *Tree[K]) Min() Iterator[K] {
	return Iterator[K]{tree, tree.minNode}
}

// Max creates an iterator that points at the maximum item in the tree.
//
// If the tree is empty, returns NegativeLimit().
func (tree *Tree[K]) Max() Iterator[K] {
	if tree.maxNode == 0 {
		return Iterator[K]{tree, negativeLimitNode}
	}

	return Iterator[K]{tree, tree.maxNode}
}

// Limit creates an iterator that points beyond the maximum item in the tree.
func (tree *Tree[K]) Limit() Iterator[K] {
	return Iterator[K]{tree, 0}
}

// NegativeLimit creates an iterator that points before the minimum item in the tree.
func (tree *Tree[K]) NegativeLimit() Iterator[K] {
	return Iterator[K]{tree, negativeLimitNode}
}

// FindGE finds the first element N in sort order such that N >= key, and
// returns the iterator pointing to it. If no such element is found,
// returns tree.Limit().
func (tree *Tree[K]) FindGE(key K) Iterator[K] {
	alloc := tree.storage()

	var best uint32

	for cursor := tree.root; cursor != 0; {
		if tree.compare(alloc[cursor].key, key) >= 0 {
			best = cursor
			cursor = alloc[cursor].left
		} else {
			cursor = alloc[cursor].right
		}
	}

	return Iterator[K]{tree, best}
}

// FindLE finds the last element N in sort order such that N <= key, and
// returns the iterator pointing to it. If no such element is found,
// returns tree.NegativeLimit().
func (tree *Tree[K]) FindLE(key K) Iterator[K] {
	alloc := tree.storage()

	best := uint32(negativeLimitNode)

	for cursor := tree.root; cursor != 0; {
		if tree.compare(alloc[cursor].key, key) <= 0 {
			best = cursor
			cursor = alloc[cursor].right
		} else {
			cursor = alloc[cursor].left
		}
	}

	return Iterator[K]{tree, best}
}

// All yields the keys in non-decreasing order.
func (tree *Tree[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for it := tree.Min(); !it.Limit(); it = it.Next() {
			if !yield(it.Key()) {
				return
			}
		}
	}
}

// Keys returns the keys in non-decreasing order.
func (tree *Tree[K]) Keys() []K {
	keys := make([]K, 0, tree.count)

	for key := range tree.All() {
		keys = append(keys, key)
	}

	return keys
}

// Equal checks for the underlying nodes equality.
func (iter Iterator[K]) Equal(other Iterator[K]) bool {
	return iter.node == other.node
}

// Limit checks if the iterator points beyond the max element in the tree.
func (iter Iterator[K]) Limit() bool {
	return iter.node == 0
}

// Min checks if the iterator points to the minimum element in the tree.
func (iter Iterator[K]) Min() bool {
	return iter.node == iter.tree.minNode
}

// Max checks if the iterator points to the maximum element in the tree.
func (iter Iterator[K]) Max() bool {
	return iter.node == iter.tree.maxNode
}

// NegativeLimit checks if the iterator points before the minimum element in the tree.
func (iter Iterator[K]) NegativeLimit() bool {
	return iter.node == negativeLimitNode
}

// Key returns the current key, or the zero value if iter.Limit() || iter.NegativeLimit().
func (iter Iterator[K]) Key() K {
	if iter.Limit() || iter.NegativeLimit() {
		var zero K

		return zero
	}

	return iter.tree.storage()[iter.node].key
}

// Node returns the structural view of the current element.
func (iter Iterator[K]) Node() Node[K] {
	if iter.NegativeLimit() {
		return Node[K]{tree: iter.tree}
	}

	return Node[K]{tree: iter.tree, idx: iter.node}
}

// Next creates a new iterator that points to the successor of the current element.
//
// REQUIRES: !iter.Limit().
func (iter Iterator[K]) Next() Iterator[K] {
	doAssert(!iter.Limit())

	if iter.NegativeLimit() {
		return Iterator[K]{iter.tree, iter.tree.minNode}
	}

	return Iterator[K]{iter.tree, doNext(iter.node, iter.tree.storage())}
}

// Prev creates a new iterator that points to the predecessor of the current
// node.
//
// REQUIRES: !iter.NegativeLimit().
func (iter Iterator[K]) Prev() Iterator[K] {
	doAssert(!iter.NegativeLimit())

	if !iter.Limit() {
		return Iterator[K]{iter.tree, doPrev(iter.node, iter.tree.storage())}
	}

	if iter.tree.maxNode == 0 {
		return Iterator[K]{iter.tree, negativeLimitNode}
	}

	return Iterator[K]{iter.tree, iter.tree.maxNode}
}

// Return the minimum node that's larger than N. Return nil if no such
// node is found.
func doNext[K any](nodeIdx uint32, alloc []node[K]) uint32 {
	if alloc[nodeIdx].right != 0 {
		cursor := alloc[nodeIdx].right

		for alloc[cursor].left != 0 {
			cursor = alloc[cursor].left
		}

		return cursor
	}

	for nodeIdx != 0 {
		parentIdx := alloc[nodeIdx].parent
		if parentIdx == 0 {
			return 0
		}

		if isLeftChild(nodeIdx, alloc) {
			return parentIdx
		}

		nodeIdx = parentIdx
	}

	return 0
}

// Return the maximum node that's smaller than N. Return nil if no
// such node is found.
func doPrev[K any](nodeIdx uint32, alloc []node[K]) uint32 {
	if alloc[nodeIdx].left != 0 {
		cursor := alloc[nodeIdx].left

		for alloc[cursor].right != 0 {
			cursor = alloc[cursor].right
		}

		return cursor
	}

	for nodeIdx != 0 {
		parentIdx := alloc[nodeIdx].parent
		if parentIdx == 0 {
			break
		}

		if isRightChild(nodeIdx, alloc) {
			return parentIdx
		}

		nodeIdx = parentIdx
	}

	return negativeLimitNode
}
