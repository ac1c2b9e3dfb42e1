// Package commands implements the redblack subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/config"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/version"
)

// ErrInvalidKey is returned for a positional key that is not an integer.
var ErrInvalidKey = errors.New("invalid key")

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagNoColor = "no-color"
)

// session is the state shared by every subcommand once the root has loaded
// the configuration.
type session struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool

	cfg       *config.Config
	style     render.Style
	logger    *slog.Logger
	providers *observability.Providers
}

// Execute runs the CLI with args and flushes telemetry whether or not the
// command succeeded.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	sess := &session{}

	root := newRootCommand(sess)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	return errors.Join(err, sess.shutdown(context.WithoutCancel(ctx)))
}

// NewRootCommand builds the redblack command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&session{})
}

func newRootCommand(sess *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "redblack",
		Short: "Red-black tree toolkit",
		Long: `redblack builds, verifies, stress-tests and snapshots red-black trees.

Commands:
  dump       Print the structural dump of a tree
  verify     Check every red-black invariant and print statistics
  stress     Run the randomized differential stress test
  replay     Run a scenario file or a built-in scenario
  render     Write the tree as an HTML chart
  snapshot   Hibernate, serialize and restore trees across shards
  restore    Load a saved snapshot and verify it`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return sess.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&sess.configPath, flagConfig, "", "config file (default: redblack.yaml on the search path)")
	flags.BoolVarP(&sess.verbose, flagVerbose, "v", false, "verbose output")
	flags.BoolVarP(&sess.quiet, flagQuiet, "q", false, "suppress output")
	flags.BoolVar(&sess.noColor, flagNoColor, false, "disable colored output")

	root.AddCommand(
		newDumpCommand(sess),
		newVerifyCommand(sess),
		newStressCommand(sess),
		newReplayCommand(sess),
		newRenderCommand(sess),
		newSnapshotCommand(sess),
		newRestoreCommand(sess),
		newVersionCommand(),
	)

	return root
}

// setup loads the configuration, applies the root flags and starts telemetry.
func (sess *session) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(sess.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch {
	case sess.verbose:
		cfg.Logging.Level = "debug"
	case sess.quiet:
		cfg.Logging.Level = "error"
	}

	sess.cfg = cfg
	sess.style = cfg.Render.Style()

	if sess.noColor {
		sess.style.Color = render.ColorNever
	}

	mode := observability.ModeCLI

	if cmd.Name() == stressName {
		if addr := cmd.Flags().Lookup(flagMetricsAddr); addr != nil && addr.Changed {
			cfg.Stress.MetricsAddr = addr.Value.String()
		}

		if cfg.Stress.MetricsAddr != "" {
			mode = observability.ModeServe
		}
	}

	telemetry := cfg.Telemetry(version.Version, mode)

	providers, err := observability.Init(telemetry)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	sess.providers = &providers
	sess.logger = observability.NewLogger(cmd.ErrOrStderr(), telemetry)

	sess.logger.DebugContext(cmd.Context(), "config loaded", "command", cmd.Name(), "config", sess.configPath)

	return nil
}

func (sess *session) shutdown(ctx context.Context) error {
	if sess.providers == nil {
		return nil
	}

	err := sess.providers.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("observability shutdown: %w", err)
	}

	return nil
}

// parseKeys converts positional arguments into tree keys.
func parseKeys(args []string) ([]int64, error) {
	keys := make([]int64, 0, len(args))

	for _, arg := range args {
		key, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidKey, arg)
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// buildTree inserts keys in order into a fresh tree, then deletes the keys of
// drop. It reports how many deletes found their key.
func buildTree(keys, drop []int64) (*rbtree.Tree[int64], int) {
	tree := rbtree.New[int64](nil)

	for _, key := range keys {
		tree.Insert(key)
	}

	deleted := 0

	for _, key := range drop {
		if tree.Delete(key) {
			deleted++
		}
	}

	return tree, deleted
}
