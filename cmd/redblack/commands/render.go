package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
)

const (
	flagOut   = "out"
	flagTitle = "title"

	defaultOut   = "tree.html"
	defaultTitle = "Red-Black Tree"
	stdoutPath   = "-"
)

func newRenderCommand(sess *session) *cobra.Command {
	var (
		out, title string
		drop       []int64
	)

	cmd := &cobra.Command{
		Use:   "render [keys...]",
		Short: "Write the tree as an HTML chart",
		Long: `Build a tree from the keys and write an interactive HTML chart of it.
Chart size comes from the render section of the config. Use --out - for stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}

			tree, _ := buildTree(keys, drop)

			if out == stdoutPath {
				return render.HTML(cmd.OutOrStdout(), tree, title, sess.style)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}

			err = render.HTML(file, tree, title, sess.style)

			closeErr := file.Close()
			if err == nil && closeErr != nil {
				err = fmt.Errorf("close %s: %w", out, closeErr)
			}

			if err != nil {
				return err
			}

			sess.logger.InfoContext(cmd.Context(), "chart written", "render.path", out, "tree.nodes", tree.Len())

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&out, flagOut, defaultOut, "output file, - for stdout")
	flags.StringVar(&title, flagTitle, defaultTitle, "chart title")
	flags.Int64SliceVar(&drop, flagDelete, nil, "keys to delete after the inserts")

	return cmd
}
