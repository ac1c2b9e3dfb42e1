package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/snapshot"
)

const flagDump = "dump"

func newRestoreCommand(sess *session) *cobra.Command {
	var (
		path string
		dump bool
	)

	cmd := &cobra.Command{
		Use:   "restore [trees...]",
		Short: "Load a snapshot and verify every tree in it",
		Long: `Read the snapshot written by "snapshot --path", boot its arenas and verify
each tree. Name trees to restrict the report; --dump prints their dumps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, manifest, err := snapshot.Load[int64](path, rbtree.Int64Codec{})
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = forest.Names()
			}

			rows := make([]render.Row, 0, len(names))

			var dumps strings.Builder

			for _, name := range names {
				if !slices.Contains(forest.Names(), name) {
					return fmt.Errorf("%w: no tree %q", snapshot.ErrManifestMismatch, name)
				}

				tree := forest.Tree(name)

				report, inspectErr := rbcheck.Inspect(tree)
				if inspectErr != nil {
					return fmt.Errorf("%w: %s: %w", snapshot.ErrCorrupt, name, inspectErr)
				}

				rows = append(rows, render.Row{
					Name: name,
					Value: fmt.Sprintf("%d nodes, height %d, black height %d",
						report.Nodes, report.Height, report.BlackHeight),
				})

				if dump {
					fmt.Fprintf(&dumps, "%s:\n", name)

					err = render.ColorDump(&dumps, tree, sess.style)
					if err != nil {
						return err
					}
				}
			}

			sess.logger.DebugContext(cmd.Context(), "snapshot restored",
				"snapshot.path", path, "snapshot.shards", manifest.Shards, "snapshot.trees", len(manifest.Trees))

			out := cmd.OutOrStdout()

			_, err = fmt.Fprintln(out, render.Summary(fmt.Sprintf("Restored %d trees from %d shards",
				len(rows), manifest.Shards), rows...))
			if err == nil {
				_, err = fmt.Fprint(out, dumps.String())
			}

			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&path, flagPath, "", "snapshot base path")
	cmd.Flags().BoolVar(&dump, flagDump, false, "print the dump of every restored tree")
	_ = cmd.MarkFlagRequired(flagPath)

	return cmd
}
