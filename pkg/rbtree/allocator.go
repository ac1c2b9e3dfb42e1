package rbtree

import "github.com/Maniekw12/Red-Black-Tree-implementation/pkg/safeconv"

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// Hibernated column layout.
const (
	columnParent = iota
	columnLeft
	columnRight
	columnColor
	columnKeys
	columnGaps
	hibernatedColumns
)

type node[K any] struct {
	key                 K
	parent, left, right uint32
	color               Color
}

// Allocator is the arena holding the nodes of one or more trees.
//
// Nodes are addressed by uint32 index. Index 0 is the shared sentinel: it is
// always Black and carries no key. Freed indices are recycled.
type Allocator[K any] struct {
	storage              []node[K]
	gaps                 map[uint32]bool
	hibernatedData       [hibernatedColumns][]byte
	HibernationThreshold int
	hibernatedStorageLen int
	hibernatedGapsLen    int
	hibernatedKeysLen    int
}

// NewAllocator creates a new allocator for tree nodes.
func NewAllocator[K any]() *Allocator[K] {
	return &Allocator[K]{
		storage: []node[K]{},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the currently allocated size, the sentinel included.
func (allocator *Allocator[K]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of nodes contained in the allocator.
func (allocator *Allocator[K]) Used() int {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	return len(allocator.storage) - len(allocator.gaps)
}

// Hibernated reports whether the arena is currently compressed.
func (allocator *Allocator[K]) Hibernated() bool {
	return allocator.storage == nil
}

func (allocator *Allocator[K]) malloc() uint32 {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if len(allocator.gaps) > 0 {
		var key uint32

		for key = range allocator.gaps {
			break
		}

		delete(allocator.gaps, key)

		return key
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is reserved for the sentinel.
		allocator.storage = append(allocator.storage, node[K]{color: Black})
		nodeLen = 1
	}

	if nodeLen == negativeLimitNode-1 {
		// [math.MaxUint32] is reserved.
		panic("the node arena has reached the maximum value for uint32")
	}

	doAssert(nodeLen < negativeLimitNode)

	allocator.storage = append(allocator.storage, node[K]{})

	return safeconv.MustIntToUint32(nodeLen)
}

func (allocator *Allocator[K]) free(nodeIdx uint32) {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if nodeIdx == 0 {
		panic("node #0 is the sentinel and cannot be deallocated")
	}

	_, exists := allocator.gaps[nodeIdx]
	doAssert(!exists)

	allocator.storage[nodeIdx] = node[K]{}
	allocator.gaps[nodeIdx] = true
}

// resetSentinel clears the transient parent link delete-fixup leaves on node #0.
func (allocator *Allocator[K]) resetSentinel() {
	if len(allocator.storage) > 0 {
		allocator.storage[0] = node[K]{color: Black}
	}
}
