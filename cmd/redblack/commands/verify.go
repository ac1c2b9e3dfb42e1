package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
)

// ErrTreeInvalid is returned by verify when the tree breaks an invariant.
var ErrTreeInvalid = errors.New("tree is not a valid red-black tree")

func newVerifyCommand(sess *session) *cobra.Command {
	var drop []int64

	cmd := &cobra.Command{
		Use:   "verify [keys...]",
		Short: "Check every red-black invariant and print statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}

			tree, deleted := buildTree(keys, drop)

			report, checkErr := rbcheck.Inspect(tree)
			if checkErr != nil {
				sess.logger.ErrorContext(cmd.Context(), "verification failed", "error", checkErr)

				return fmt.Errorf("%w: %w", ErrTreeInvalid, checkErr)
			}

			alloc := tree.Allocator()
			table := render.Table(report,
				render.CountRow("Deleted", deleted),
				render.CountRow("Arena slots", alloc.Size()),
				render.CountRow("Arena used", alloc.Used()),
			)

			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&drop, flagDelete, nil, "keys to delete after the inserts")

	return cmd
}
