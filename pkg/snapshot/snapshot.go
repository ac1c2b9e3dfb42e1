// Package snapshot saves a set of named trees, spread over sharded arenas, to
// disk and restores them in another process.
//
// A snapshot at base path p is made of one compressed arena file per shard,
// p.shard.N, and a manifest, p.manifest.json or p.manifest.yaml, that records
// where every tree lives in its arena.
package snapshot

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

// Snapshot errors.
var (
	ErrTooLarge         = errors.New("snapshot exceeds the size limit")
	ErrManifestNotFound = errors.New("snapshot manifest not found")
	ErrManifestMismatch = errors.New("manifest does not match the arenas")
	ErrCorrupt          = errors.New("restored tree is not valid")
)

// formatVersion is written to every manifest and checked on load.
const formatVersion = 1

const manifestSuffix = ".manifest"

// TreeEntry records one tree of a snapshot.
type TreeEntry struct {
	Name   string        `json:"name"   yaml:"name"`
	Shard  int           `json:"shard"  yaml:"shard"`
	Handle rbtree.Handle `json:"handle" yaml:"handle"`
}

// Manifest describes a snapshot on disk.
type Manifest struct {
	Format               int         `json:"format"                yaml:"format"`
	Shards               int         `json:"shards"                yaml:"shards"`
	HibernationThreshold int         `json:"hibernation_threshold" yaml:"hibernation_threshold"`
	Trees                []TreeEntry `json:"trees"                 yaml:"trees"`
}

// ShardStat describes one arena of a saved snapshot.
type ShardStat struct {
	Index int
	Trees int
	Nodes int
	// Compressed is the in-memory size of the hibernated arena.
	Compressed int
	// OnDisk is the size of the shard file.
	OnDisk int
}

// Options tune Save.
type Options struct {
	// Codec encodes the manifest. Nil means JSON.
	Codec Codec
	// MaxSize caps the total size of the shard files. Zero means unlimited.
	MaxSize int
}

// Forest is a set of named trees whose nodes live in sharded arenas. The
// arena of a tree is chosen by hashing its name.
type Forest[K cmp.Ordered] struct {
	sharded   *rbtree.ShardedAllocator[K]
	trees     map[string]*rbtree.Tree[K]
	threshold int
}

// NewForest creates an empty forest over shards arenas.
func NewForest[K cmp.Ordered](shards, hibernationThreshold int) *Forest[K] {
	return &Forest[K]{
		sharded:   rbtree.NewShardedAllocator[K](shards, hibernationThreshold),
		trees:     map[string]*rbtree.Tree[K]{},
		threshold: hibernationThreshold,
	}
}

// Tree returns the tree called name, creating it on first use.
func (f *Forest[K]) Tree(name string) *rbtree.Tree[K] {
	tree, ok := f.trees[name]
	if !ok {
		tree = rbtree.New(f.sharded.GetShard(name))
		f.trees[name] = tree
	}

	return tree
}

// Names lists the trees in sorted order.
func (f *Forest[K]) Names() []string {
	names := make([]string, 0, len(f.trees))
	for name := range f.trees {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Shards returns the number of arenas.
func (f *Forest[K]) Shards() int {
	return len(f.sharded.Shards())
}

// ShardOf returns the arena index of the tree called name.
func (f *Forest[K]) ShardOf(name string) int {
	return slices.Index(f.sharded.Shards(), f.sharded.GetShard(name))
}

// ManifestPath returns the manifest file of the snapshot at basePath.
func ManifestPath(basePath string, codec Codec) string {
	return basePath + manifestSuffix + codec.Extension()
}

// Save compresses every arena and writes the snapshot at basePath. The
// forest is consumed: its arenas stay on disk only, so restore it with Load.
// When the shard files exceed opts.MaxSize they are removed again and
// ErrTooLarge is returned.
func Save[K cmp.Ordered](forest *Forest[K], basePath string, keys rbtree.KeyCodec[K], opts Options) ([]ShardStat, error) {
	codec := opts.Codec
	if codec == nil {
		codec = NewJSONCodec()
	}

	stats := make([]ShardStat, forest.Shards())
	manifest := Manifest{
		Format:               formatVersion,
		Shards:               forest.Shards(),
		HibernationThreshold: forest.threshold,
	}

	for idx := range stats {
		stats[idx].Index = idx
	}

	for _, name := range forest.Names() {
		tree := forest.trees[name]
		shard := forest.ShardOf(name)

		stats[shard].Trees++
		stats[shard].Nodes += tree.Len()
		manifest.Trees = append(manifest.Trees, TreeEntry{Name: name, Shard: shard, Handle: tree.Handle()})
	}

	err := forest.sharded.Hibernate(keys)
	if err != nil {
		return nil, err
	}

	for idx, shard := range forest.sharded.Shards() {
		stats[idx].Compressed = shard.HibernatedSize()
	}

	err = forest.sharded.Serialize(basePath)
	if err != nil {
		return nil, err
	}

	total, err := statShards(basePath, stats)
	if err != nil {
		return nil, err
	}

	if opts.MaxSize > 0 && total > opts.MaxSize {
		return stats, errors.Join(
			fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, total, opts.MaxSize),
			removeShards(basePath, len(stats)),
		)
	}

	err = writeManifestFile(ManifestPath(basePath, codec), codec, &manifest)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return stats, nil
}

// Load restores the snapshot at basePath. Every tree is verified; a tree
// breaking an invariant fails the load with ErrCorrupt.
func Load[K cmp.Ordered](basePath string, keys rbtree.KeyCodec[K]) (*Forest[K], Manifest, error) {
	manifest, err := ReadManifest(basePath)
	if err != nil {
		return nil, Manifest{}, err
	}

	if manifest.Format != formatVersion {
		return nil, manifest, fmt.Errorf("%w: format %d", ErrManifestMismatch, manifest.Format)
	}

	if manifest.Shards <= 0 {
		return nil, manifest, fmt.Errorf("%w: %d shards", ErrManifestMismatch, manifest.Shards)
	}

	forest := NewForest[K](manifest.Shards, manifest.HibernationThreshold)

	err = forest.sharded.Deserialize(basePath)
	if err != nil {
		return nil, manifest, err
	}

	err = forest.sharded.Boot(keys)
	if err != nil {
		return nil, manifest, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	for _, entry := range manifest.Trees {
		if forest.ShardOf(entry.Name) != entry.Shard {
			return nil, manifest, fmt.Errorf("%w: tree %s is not on shard %d", ErrManifestMismatch, entry.Name, entry.Shard)
		}

		tree, attachErr := attach(forest.sharded.GetShard(entry.Name), entry.Handle)
		if attachErr != nil {
			return nil, manifest, fmt.Errorf("%w: %s: %w", ErrCorrupt, entry.Name, attachErr)
		}

		forest.trees[entry.Name] = tree
	}

	return forest, manifest, nil
}

// ReadManifest reads the JSON or YAML manifest of the snapshot at basePath.
func ReadManifest(basePath string) (Manifest, error) {
	for _, codec := range codecs() {
		path := ManifestPath(basePath, codec)

		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		var manifest Manifest

		err = readManifestFile(path, codec, &manifest)
		if err != nil {
			return Manifest{}, fmt.Errorf("read manifest: %w", err)
		}

		return manifest, nil
	}

	return Manifest{}, fmt.Errorf("%w at %s", ErrManifestNotFound, basePath)
}

// attach rebuilds a tree from its handle and verifies it. Handles that point
// outside the arena or at the wrong edge nodes are rejected before the walk.
func attach[K cmp.Ordered](alloc *rbtree.Allocator[K], handle rbtree.Handle) (*rbtree.Tree[K], error) {
	size := alloc.Size()

	if handle.Count < 0 || handle.Count > max(size-1, 0) {
		return nil, fmt.Errorf("count %d does not fit arena of %d", handle.Count, size)
	}

	tree, err := rbtree.Attach(alloc, handle)
	if err != nil {
		return nil, err
	}

	err = rbcheck.Check(tree)
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// statShards fills OnDisk from the shard files and returns their total size.
func statShards(basePath string, stats []ShardStat) (int, error) {
	total := 0

	for idx := range stats {
		info, err := os.Stat(rbtree.ShardPath(basePath, idx))
		if err != nil {
			return 0, fmt.Errorf("stat shard %d: %w", idx, err)
		}

		stats[idx].OnDisk = int(info.Size())
		total += stats[idx].OnDisk
	}

	return total, nil
}

func removeShards(basePath string, count int) error {
	var errs []error

	for idx := range count {
		err := os.Remove(rbtree.ShardPath(basePath, idx))
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
