package rbtree

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
)

// ErrSerializeShards is returned when shard serialization fails.
var ErrSerializeShards = errors.New("failed to serialize shards")

// ErrDeserializeShards is returned when shard deserialization fails.
var ErrDeserializeShards = errors.New("failed to deserialize shards")

// ErrHibernateShards is returned when shard hibernation or boot fails.
var ErrHibernateShards = errors.New("failed to hibernate shards")

// minHibernationThreshold is the minimal reasonable default if division results in 0.
const minHibernationThreshold = 1000

// ShardedAllocator manages multiple Allocators so that independent trees,
// selected by name, can be compacted and snapshotted in parallel.
type ShardedAllocator[K any] struct {
	shards []*Allocator[K]
}

// NewShardedAllocator creates a new ShardedAllocator with n shards.
func NewShardedAllocator[K any](shardCount, hibernationThreshold int) *ShardedAllocator[K] {
	if shardCount <= 0 {
		shardCount = 1
	}

	shards := make([]*Allocator[K], shardCount)

	for idx := range shardCount {
		shards[idx] = NewAllocator[K]()

		if hibernationThreshold > 0 {
			shards[idx].HibernationThreshold = hibernationThreshold / shardCount
			if shards[idx].HibernationThreshold == 0 {
				shards[idx].HibernationThreshold = minHibernationThreshold
			}
		}
	}

	return &ShardedAllocator[K]{shards: shards}
}

// GetShard returns the allocator shard for the given tree name.
func (sa *ShardedAllocator[K]) GetShard(name string) *Allocator[K] {
	hasher := fnv.New32a()
	hasher.Write([]byte(name))

	return sa.shards[hasher.Sum32()%uint32(len(sa.shards))]
}

// Shards returns all underlying allocators.
func (sa *ShardedAllocator[K]) Shards() []*Allocator[K] {
	return sa.shards
}

// Hibernate hibernates all shards in parallel, ignoring their thresholds.
func (sa *ShardedAllocator[K]) Hibernate(codec KeyCodec[K]) error {
	return sa.parallel(ErrHibernateShards, func(_ int, alloc *Allocator[K]) error {
		// Force hibernation even if below threshold by temporarily setting threshold to 0.
		originalThreshold := alloc.HibernationThreshold
		alloc.HibernationThreshold = 0
		err := alloc.Hibernate(codec)
		alloc.HibernationThreshold = originalThreshold

		return err
	})
}

// Boot boots all shards in parallel.
func (sa *ShardedAllocator[K]) Boot(codec KeyCodec[K]) error {
	return sa.parallel(ErrHibernateShards, func(_ int, alloc *Allocator[K]) error {
		return alloc.Boot(codec)
	})
}

// Serialize serializes all shards to disk.
// It uses basePath as a prefix and appends ".shard.N".
// Only hibernated shards are serialized.
func (sa *ShardedAllocator[K]) Serialize(basePath string) error {
	return sa.parallel(ErrSerializeShards, func(shardIdx int, alloc *Allocator[K]) error {
		if alloc.storage != nil {
			return nil
		}

		return alloc.Serialize(ShardPath(basePath, shardIdx))
	})
}

// Deserialize reads all shards from disk.
func (sa *ShardedAllocator[K]) Deserialize(basePath string) error {
	return sa.parallel(ErrDeserializeShards, func(shardIdx int, alloc *Allocator[K]) error {
		return alloc.Deserialize(ShardPath(basePath, shardIdx))
	})
}

// ShardPath returns the file a shard is serialized to.
func ShardPath(basePath string, shardIdx int) string {
	return fmt.Sprintf("%s.shard.%d", basePath, shardIdx)
}

func (sa *ShardedAllocator[K]) parallel(sentinel error, work func(int, *Allocator[K]) error) error {
	var errs []error

	var mu sync.Mutex

	wg := sync.WaitGroup{}
	wg.Add(len(sa.shards))

	for idx, shard := range sa.shards {
		go func(shardIdx int, alloc *Allocator[K]) {
			defer wg.Done()

			err := work(shardIdx, alloc)
			if err != nil {
				mu.Lock()

				errs = append(errs, fmt.Errorf("shard %d: %w", shardIdx, err))

				mu.Unlock()
			}
		}(idx, shard)
	}

	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", sentinel, errors.Join(errs...))
	}

	return nil
}
