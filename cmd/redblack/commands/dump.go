package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
)

const flagDelete = "delete"

func newDumpCommand(sess *session) *cobra.Command {
	var drop []int64

	cmd := &cobra.Command{
		Use:   "dump [keys...]",
		Short: "Print the structural dump of a tree",
		Long: `Insert the keys in the given order, delete the --delete keys, then print
one line per node in pre-order. Red nodes are printed in red.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}

			tree, deleted := buildTree(keys, drop)

			sess.logger.DebugContext(cmd.Context(), "tree built",
				"tree.nodes", tree.Len(), "tree.deleted", deleted)

			err = render.ColorDump(cmd.OutOrStdout(), tree, sess.style)
			if err != nil {
				return fmt.Errorf("dump: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&drop, flagDelete, nil, "keys to delete after the inserts")

	return cmd
}
