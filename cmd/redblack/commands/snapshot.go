package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/snapshot"
)

// Snapshot errors.
var (
	ErrRoundTrip       = errors.New("restored tree differs from the original")
	ErrInvalidSnapshot = errors.New("shards and trees must be positive")
)

const (
	flagPath   = "path"
	flagShards = "shards"
	flagTrees  = "trees"

	defaultTrees     = 8
	snapshotBaseName = "redblack.snapshot"
)

type snapshotOptions struct {
	path   string
	shards int
	trees  int
}

func newSnapshotCommand(sess *session) *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot [keys...]",
		Short: "Hibernate, serialize and restore trees across shards",
		Long: `Spread the keys round-robin over --trees named trees whose nodes live in
--shards arenas. Every arena is compressed and written to <path>.shard.N next to
a manifest, then read back into fresh arenas. Each restored tree must match its
original dump and pass verification. Without keys, 1..stress.keys are used.

Snapshots written with --path can be loaded again with the restore command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}

			if len(keys) == 0 {
				for key := range sess.cfg.Stress.Keys {
					keys = append(keys, int64(key+1))
				}
			}

			if !cmd.Flags().Changed(flagShards) {
				opts.shards = sess.cfg.Snapshot.Shards
			}

			if opts.path == "" {
				dir := sess.cfg.Snapshot.Directory
				if dir == "" {
					dir, err = os.MkdirTemp("", "redblack-")
					if err != nil {
						return fmt.Errorf("create snapshot directory: %w", err)
					}

					defer os.RemoveAll(dir)
				}

				opts.path = filepath.Join(dir, snapshotBaseName)
			}

			stats, err := runSnapshot(sess, keys, opts)
			if err != nil {
				return err
			}

			sess.logger.InfoContext(cmd.Context(), "snapshot verified",
				"snapshot.path", opts.path, "snapshot.shards", opts.shards, "snapshot.trees", opts.trees)

			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.ShardTable(stats))
			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.path, flagPath, "", "snapshot base path (default: <snapshot.directory>/"+snapshotBaseName+")")
	flags.IntVar(&opts.shards, flagShards, 0, "number of arenas (default from config)")
	flags.IntVar(&opts.trees, flagTrees, defaultTrees, "number of trees")

	return cmd
}

func treeName(idx int) string {
	return fmt.Sprintf("tree-%d", idx)
}

func runSnapshot(sess *session, keys []int64, opts snapshotOptions) ([]snapshot.ShardStat, error) {
	if opts.shards <= 0 || opts.trees <= 0 {
		return nil, fmt.Errorf("%w: shards %d, trees %d", ErrInvalidSnapshot, opts.shards, opts.trees)
	}

	codec, err := sess.cfg.Snapshot.ManifestCodec()
	if err != nil {
		return nil, err
	}

	limit, err := sess.cfg.Snapshot.MaxSizeBytes()
	if err != nil {
		return nil, err
	}

	forest := snapshot.NewForest[int64](opts.shards, sess.cfg.Snapshot.HibernationThreshold)

	for idx := range opts.trees {
		forest.Tree(treeName(idx))
	}

	for pos, key := range keys {
		forest.Tree(treeName(pos % opts.trees)).Insert(key)
	}

	// Save consumes the forest, so compare against copies in a private arena.
	reference := rbtree.NewAllocator[int64]()
	copies := make(map[string]*rbtree.Tree[int64], opts.trees)

	for _, name := range forest.Names() {
		copies[name] = forest.Tree(name).CloneDeep(reference)
	}

	stats, err := snapshot.Save(forest, opts.path, rbtree.Int64Codec{}, snapshot.Options{Codec: codec, MaxSize: limit})
	if err != nil {
		return nil, err
	}

	restored, _, err := snapshot.Load[int64](opts.path, rbtree.Int64Codec{})
	if err != nil {
		return nil, err
	}

	for name, want := range copies {
		got := restored.Tree(name)
		if got.Len() != want.Len() || !slices.Equal(want.Dump(), got.Dump()) {
			return nil, fmt.Errorf("%w: %s", ErrRoundTrip, name)
		}
	}

	return stats, nil
}
