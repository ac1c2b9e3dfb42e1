package rbtree

import (
	"cmp"
	"errors"
	"fmt"
)

// ErrHandleMismatch is returned by Attach when a handle does not describe the
// nodes it points at.
var ErrHandleMismatch = errors.New("handle does not match the arena")

// Handle locates a tree inside its allocator. It stays valid while the
// allocator is hibernated, booted, serialized or deserialized, so it can be
// stored next to a snapshot and reattached later.
type Handle struct {
	Root  uint32 `json:"root"  yaml:"root"`
	Min   uint32 `json:"min"   yaml:"min"`
	Max   uint32 `json:"max"   yaml:"max"`
	Count int    `json:"count" yaml:"count"`
}

// Handle returns the position of the tree in its allocator.
func (tree *Tree[K]) Handle() Handle {
	return Handle{Root: tree.root, Min: tree.minNode, Max: tree.maxNode, Count: tree.count}
}

// Attach returns a tree over nodes already present in allocator, ordered by
// [cmp.Compare].
func Attach[K cmp.Ordered](allocator *Allocator[K], handle Handle) (*Tree[K], error) {
	return AttachFunc(allocator, handle, cmp.Compare[K])
}

// AttachFunc is Attach with a custom comparison. Min and Max must be the
// leftmost and rightmost nodes under Root. Link values are trusted to stay
// inside the arena, which Boot guarantees.
func AttachFunc[K any](allocator *Allocator[K], handle Handle, compare func(a, b K) int) (*Tree[K], error) {
	size := len(allocator.storage)

	for _, idx := range []uint32{handle.Root, handle.Min, handle.Max} {
		if idx != 0 && int(idx) >= size {
			return nil, fmt.Errorf("%w: node %d outside arena of %d", ErrHandleMismatch, idx, size)
		}
	}

	leftmost := edgeOf(allocator.storage, handle.Root, func(nd *node[K]) uint32 { return nd.left })
	rightmost := edgeOf(allocator.storage, handle.Root, func(nd *node[K]) uint32 { return nd.right })

	if handle.Min != leftmost || handle.Max != rightmost {
		return nil, fmt.Errorf("%w: min %d max %d, leftmost %d rightmost %d",
			ErrHandleMismatch, handle.Min, handle.Max, leftmost, rightmost)
	}

	tree := NewFunc(allocator, compare)
	tree.root = handle.Root
	tree.minNode = handle.Min
	tree.maxNode = handle.Max
	tree.count = handle.Count

	return tree, nil
}

// edgeOf follows next from root until the sentinel. The walk stops after as
// many steps as the arena has slots, so a cycle in corrupt links ends it.
func edgeOf[K any](storage []node[K], root uint32, next func(*node[K]) uint32) uint32 {
	cursor := root

	for range len(storage) {
		child := next(&storage[cursor])
		if child == 0 {
			break
		}

		cursor = child
	}

	return cursor
}
