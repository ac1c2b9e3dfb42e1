// Package rbtree provides an arena-backed red-black tree with ordered
// navigation, a structural dump, and arena compaction with LZ4 and on-disk
// snapshots.
package rbtree

import (
	"cmp"
	"math"
)

// Color is the one-bit tag carried by every node.
type Color bool

// Node colors. The empty position is always Black.
const (
	Red   Color = false
	Black Color = true
)

const negativeLimitNode = math.MaxUint32

// String returns "RED" or "BLACK".
func (c Color) String() string {
	if c == Black {
		return "BLACK"
	}

	return "RED"
}

// Tree is a red-black binary search tree.
//
// Equal keys are allowed and always descend to the right, so a tree behaves
// as a multiset. The tree is not safe for concurrent use; see [Synced].
type Tree[K any] struct {
	// Nodes allocator.
	allocator *Allocator[K]

	compare func(a, b K) int

	// Root of the tree.
	root uint32

	// The minimum and maximum nodes under the tree.
	minNode, maxNode uint32

	// Number of nodes under root, including the root.
	count int
}

// New creates an empty tree ordered by [cmp.Compare]. A nil allocator gets a
// private one.
func New[K cmp.Ordered](allocator *Allocator[K]) *Tree[K] {
	return NewFunc(allocator, cmp.Compare[K])
}

// NewFunc creates an empty tree ordered by compare, which must return a
// negative number, zero or a positive number when a < b, a == b or a > b.
func NewFunc[K any](allocator *Allocator[K], compare func(a, b K) int) *Tree[K] {
	if allocator == nil {
		allocator = NewAllocator[K]()
	}

	return &Tree[K]{allocator: allocator, compare: compare}
}

func (tree *Tree[K]) storage() []node[K] {
	return tree.allocator.storage
}

// Allocator returns the bound nodes allocator.
func (tree *Tree[K]) Allocator() *Allocator[K] {
	return tree.allocator
}

// Compare orders two keys the way the tree does.
func (tree *Tree[K]) Compare(a, b K) int {
	return tree.compare(a, b)
}

// Len returns the number of elements in the tree.
func (tree *Tree[K]) Len() int {
	return tree.count
}

// IsEmpty reports whether the tree holds no nodes.
func (tree *Tree[K]) IsEmpty() bool {
	return tree.root == 0
}

// RootColor returns the color of the root, Black for an empty tree.
func (tree *Tree[K]) RootColor() Color {
	if tree.root == 0 {
		return Black
	}

	return getColor(tree.root, tree.storage())
}

// Root returns a read-only view of the root node.
func (tree *Tree[K]) Root() Node[K] {
	return Node[K]{tree: tree, idx: tree.root}
}

// Search finds a node holding key. The second result is false if there is none.
func (tree *Tree[K]) Search(key K) (Node[K], bool) {
	alloc := tree.storage()
	cursor := tree.root

	for cursor != 0 {
		comp := tree.compare(key, alloc[cursor].key)

		switch {
		case comp == 0:
			return Node[K]{tree: tree, idx: cursor}, true
		case comp < 0:
			cursor = alloc[cursor].left
		default:
			cursor = alloc[cursor].right
		}
	}

	return Node[K]{tree: tree}, false
}

// Contains reports whether at least one node holds key.
func (tree *Tree[K]) Contains(key K) bool {
	_, found := tree.Search(key)

	return found
}

// Insert adds key to the tree. Insertion never fails; a key equal to an
// existing one lands in its right subtree.
func (tree *Tree[K]) Insert(key K) Iterator[K] {
	nodeIdx := tree.allocator.malloc()
	alloc := tree.storage()
	alloc[nodeIdx].key = key
	alloc[nodeIdx].color = Red

	var parent uint32

	for cursor := tree.root; cursor != 0; {
		parent = cursor

		if tree.compare(key, alloc[cursor].key) < 0 {
			cursor = alloc[cursor].left
		} else {
			cursor = alloc[cursor].right
		}
	}

	alloc[nodeIdx].parent = parent

	switch {
	case parent == 0:
		tree.root = nodeIdx
	case tree.compare(key, alloc[parent].key) < 0:
		alloc[parent].left = nodeIdx
	default:
		alloc[parent].right = nodeIdx
	}

	tree.count++
	tree.insertFixup(nodeIdx)

	if tree.count == 1 {
		tree.minNode = nodeIdx
		tree.maxNode = nodeIdx
	} else {
		if tree.compare(key, alloc[tree.minNode].key) < 0 {
			tree.minNode = nodeIdx
		}

		if tree.compare(key, alloc[tree.maxNode].key) >= 0 {
			tree.maxNode = nodeIdx
		}
	}

	return Iterator[K]{tree, nodeIdx}
}

// Delete removes one node holding key. Returns false, leaving the tree
// untouched, if no such node exists.
func (tree *Tree[K]) Delete(key K) bool {
	nodeIdx := tree.findLast(key)
	if nodeIdx == 0 {
		return false
	}

	tree.doDelete(nodeIdx)

	return true
}

// DeleteWithIterator deletes the current item.
//
// REQUIRES: !iter.Limit() && !iter.NegativeLimit().
func (tree *Tree[K]) DeleteWithIterator(iter Iterator[K]) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())
	tree.doDelete(iter.node)
}

// Clear removes all the nodes from the tree, children before parents.
func (tree *Tree[K]) Clear() {
	alloc := tree.storage()
	stack := make([]uint32, 0, tree.Height())

	var lastFreed uint32

	cursor := tree.root

	for cursor != 0 || len(stack) > 0 {
		if cursor != 0 {
			stack = append(stack, cursor)
			cursor = alloc[cursor].left

			continue
		}

		top := stack[len(stack)-1]
		if right := alloc[top].right; right != 0 && right != lastFreed {
			cursor = right

			continue
		}

		stack = stack[:len(stack)-1]
		tree.allocator.free(top)
		lastFreed = top
	}

	tree.root = 0
	tree.minNode = 0
	tree.maxNode = 0
	tree.count = 0
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (tree *Tree[K]) Height() int {
	if tree.root == 0 {
		return 0
	}

	alloc := tree.storage()
	level := []uint32{tree.root}
	height := 0

	for len(level) > 0 {
		height++

		next := make([]uint32, 0, len(level)*2)

		for _, nodeIdx := range level {
			if alloc[nodeIdx].left != 0 {
				next = append(next, alloc[nodeIdx].left)
			}

			if alloc[nodeIdx].right != 0 {
				next = append(next, alloc[nodeIdx].right)
			}
		}

		level = next
	}

	return height
}

// BlackHeight returns the number of Black nodes on the leftmost root-to-leaf
// path, the root included. On a valid tree every path has this count. The
// textbook black-height of the root excludes the root itself, so it is one
// less than this value; nil leaves are not counted either way.
func (tree *Tree[K]) BlackHeight() int {
	alloc := tree.storage()
	height := 0

	for cursor := tree.root; cursor != 0; cursor = alloc[cursor].left {
		if alloc[cursor].color == Black {
			height++
		}
	}

	return height
}

// CloneDeep performs a deep copy of the tree - the nodes are created from scratch.
func (tree *Tree[K]) CloneDeep(allocator *Allocator[K]) *Tree[K] {
	clone := &Tree[K]{
		count:     tree.count,
		allocator: allocator,
		compare:   tree.compare,
	}

	nodeMap := map[uint32]uint32{0: 0}
	originStorage := tree.storage()

	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		newNode := allocator.malloc()
		cloneNode := &allocator.storage[newNode]
		cloneNode.key = originStorage[iter.node].key
		cloneNode.color = originStorage[iter.node].color
		nodeMap[iter.node] = newNode
	}

	cloneStorage := allocator.storage

	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		cloneNode := &cloneStorage[nodeMap[iter.node]]
		originNode := originStorage[iter.node]
		cloneNode.left = nodeMap[originNode.left]
		cloneNode.right = nodeMap[originNode.right]
		cloneNode.parent = nodeMap[originNode.parent]
	}

	clone.root = nodeMap[tree.root]
	clone.minNode = nodeMap[tree.minNode]
	clone.maxNode = nodeMap[tree.maxNode]

	return clone
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}

// Internal node attribute accessors.
func getColor[K any](nodeIdx uint32, alloc []node[K]) Color {
	if nodeIdx == 0 {
		return Black
	}

	return alloc[nodeIdx].color
}

func isLeftChild[K any](nodeIdx uint32, alloc []node[K]) bool {
	return nodeIdx == alloc[alloc[nodeIdx].parent].left
}

func isRightChild[K any](nodeIdx uint32, alloc []node[K]) bool {
	return nodeIdx == alloc[alloc[nodeIdx].parent].right
}

func childAt[K any](nodeIdx uint32, left bool, alloc []node[K]) uint32 {
	if left {
		return alloc[nodeIdx].left
	}

	return alloc[nodeIdx].right
}

// findLast locates the node to delete. Equal keys keep the descent going
// right, so among duplicates on the search path the deepest one is chosen.
func (tree *Tree[K]) findLast(key K) uint32 {
	alloc := tree.storage()

	var found uint32

	for cursor := tree.root; cursor != 0; {
		comp := tree.compare(alloc[cursor].key, key)
		if comp == 0 {
			found = cursor
		}

		if comp <= 0 {
			cursor = alloc[cursor].right
		} else {
			cursor = alloc[cursor].left
		}
	}

	return found
}

func (tree *Tree[K]) minimum(nodeIdx uint32) uint32 {
	alloc := tree.storage()

	for alloc[nodeIdx].left != 0 {
		nodeIdx = alloc[nodeIdx].left
	}

	return nodeIdx
}

func (tree *Tree[K]) maximum(nodeIdx uint32) uint32 {
	alloc := tree.storage()

	for alloc[nodeIdx].right != 0 {
		nodeIdx = alloc[nodeIdx].right
	}

	return nodeIdx
}

func (tree *Tree[K]) insertFixup(nodeIdx uint32) {
	alloc := tree.storage()

	for nodeIdx != tree.root && alloc[nodeIdx].color == Red && alloc[alloc[nodeIdx].parent].color == Red {
		parent := alloc[nodeIdx].parent
		// The root is Black, so a Red parent always has a parent.
		grandparent := alloc[parent].parent
		parentIsLeft := parent == alloc[grandparent].left
		uncle := childAt(grandparent, !parentIsLeft, alloc)

		if getColor(uncle, alloc) == Red {
			alloc[grandparent].color = Red
			alloc[parent].color = Black
			alloc[uncle].color = Black
			nodeIdx = grandparent

			continue
		}

		if nodeIdx == childAt(parent, !parentIsLeft, alloc) {
			tree.rotateDirection(parent, parentIsLeft)
			nodeIdx = parent
			parent = alloc[nodeIdx].parent
		}

		tree.rotateDirection(grandparent, !parentIsLeft)
		alloc[parent].color, alloc[grandparent].color = alloc[grandparent].color, alloc[parent].color
		nodeIdx = parent
	}

	alloc[tree.root].color = Black
}

// Delete N from the tree.
func (tree *Tree[K]) doDelete(nodeIdx uint32) {
	alloc := tree.storage()
	spliced := nodeIdx
	splicedColor := alloc[nodeIdx].color

	var replacement uint32

	switch {
	case alloc[nodeIdx].left == 0:
		replacement = alloc[nodeIdx].right
		tree.transplant(nodeIdx, replacement)
	case alloc[nodeIdx].right == 0:
		replacement = alloc[nodeIdx].left
		tree.transplant(nodeIdx, replacement)
	default:
		spliced = tree.minimum(alloc[nodeIdx].right)
		splicedColor = alloc[spliced].color
		replacement = alloc[spliced].right

		if alloc[spliced].parent == nodeIdx {
			// Sets the sentinel's parent too when the successor has no right child.
			alloc[replacement].parent = spliced
		} else {
			tree.transplant(spliced, replacement)
			alloc[spliced].right = alloc[nodeIdx].right
			alloc[alloc[spliced].right].parent = spliced
		}

		tree.transplant(nodeIdx, spliced)
		alloc[spliced].left = alloc[nodeIdx].left
		alloc[alloc[spliced].left].parent = spliced
		alloc[spliced].color = alloc[nodeIdx].color
	}

	tree.allocator.free(nodeIdx)
	tree.count--

	if splicedColor == Black {
		tree.deleteFixup(replacement)
	}

	tree.allocator.resetSentinel()

	if tree.count == 0 {
		tree.minNode = 0
		tree.maxNode = 0

		return
	}

	if tree.minNode == nodeIdx {
		tree.minNode = tree.minimum(tree.root)
	}

	if tree.maxNode == nodeIdx {
		tree.maxNode = tree.maximum(tree.root)
	}
}

func (tree *Tree[K]) deleteFixup(nodeIdx uint32) {
	alloc := tree.storage()

	for nodeIdx != tree.root && getColor(nodeIdx, alloc) == Black {
		parent := alloc[nodeIdx].parent
		isLeft := nodeIdx == alloc[parent].left
		sibling := childAt(parent, !isLeft, alloc)

		// Case 1: red sibling, rotate it above the parent.
		if getColor(sibling, alloc) == Red {
			alloc[sibling].color = Black
			alloc[parent].color = Red
			tree.rotateDirection(parent, isLeft)
			sibling = childAt(parent, !isLeft, alloc)
		}

		near := childAt(sibling, isLeft, alloc)
		far := childAt(sibling, !isLeft, alloc)

		// Case 2: both nephews black, push the deficiency upward.
		if getColor(near, alloc) == Black && getColor(far, alloc) == Black {
			alloc[sibling].color = Red
			nodeIdx = parent

			continue
		}

		// Case 3: far nephew black, near nephew red.
		if getColor(far, alloc) == Black {
			alloc[near].color = Black
			alloc[sibling].color = Red
			tree.rotateDirection(sibling, !isLeft)
			sibling = childAt(parent, !isLeft, alloc)
			far = childAt(sibling, !isLeft, alloc)
		}

		// Case 4: far nephew red.
		alloc[sibling].color = alloc[parent].color
		alloc[parent].color = Black
		alloc[far].color = Black
		tree.rotateDirection(parent, isLeft)
		nodeIdx = tree.root
	}

	alloc[nodeIdx].color = Black
}

// transplant puts newn in oldn's position. newn may be the sentinel, whose
// parent link is then set for the benefit of deleteFixup.
func (tree *Tree[K]) transplant(oldn, newn uint32) {
	alloc := tree.storage()
	parent := alloc[oldn].parent

	switch {
	case parent == 0:
		tree.root = newn
	case oldn == alloc[parent].left:
		alloc[parent].left = newn
	default:
		alloc[parent].right = newn
	}

	alloc[newn].parent = parent
}

// rotateDirection performs a tree rotation in the specified direction.
// IsLeft=true performs left rotation, isLeft=false performs right rotation.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K]) rotateDirection(pivot uint32, isLeft bool) {
	alloc := tree.storage()

	// Get the child in the opposite direction of rotation.
	child := childAt(pivot, !isLeft, alloc)
	doAssert(child != 0)

	// Move the inner subtree.
	var innerSubtree uint32
	if isLeft {
		innerSubtree = alloc[child].left
		alloc[pivot].right = innerSubtree
	} else {
		innerSubtree = alloc[child].right
		alloc[pivot].left = innerSubtree
	}

	if innerSubtree != 0 {
		alloc[innerSubtree].parent = pivot
	}

	// Update parent links.
	alloc[child].parent = alloc[pivot].parent

	switch {
	case alloc[pivot].parent == 0:
		tree.root = child
	case isLeftChild(pivot, alloc):
		alloc[alloc[pivot].parent].left = child
	default:
		alloc[alloc[pivot].parent].right = child
	}

	// Complete the rotation.
	if isLeft {
		alloc[child].left = pivot
	} else {
		alloc[child].right = pivot
	}

	alloc[pivot].parent = child
}
