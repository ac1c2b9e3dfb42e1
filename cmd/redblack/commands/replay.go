package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/scenario"
)

// ErrInvalidFormat is returned for an unknown --format value.
var ErrInvalidFormat = errors.New("format must be text, yaml or json")

const (
	flagDiff   = "diff"
	flagFormat = "format"
	flagList   = "list"

	builtinPrefix = "builtin:"

	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"

	yamlIndent = 2
)

func newReplayCommand(sess *session) *cobra.Command {
	var (
		diff   bool
		list   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "replay <file|builtin:name>",
		Short: "Run a scenario file or a built-in scenario",
		Long: `Replay a YAML or JSON scenario against a fresh tree, verifying every
red-black invariant after each operation. Built-in scenarios are addressed as
builtin:<name>; --list prints their names.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if list {
				for _, name := range scenario.BuiltinNames() {
					fmt.Fprintln(out, builtinPrefix+name)
				}

				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("%w: missing scenario argument", scenario.ErrInvalidScenario)
			}

			switch format {
			case formatText, formatYAML, formatJSON:
			default:
				return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
			}

			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}

			result, runErr := scenario.Run(cmd.Context(), sc, scenario.Options{Diff: diff})

			writeErr := writeResult(out, result, format, sess.style)
			if runErr != nil {
				sess.logger.ErrorContext(cmd.Context(), "scenario failed", "scenario.name", sc.Name, "error", runErr)

				return errors.Join(runErr, writeErr)
			}

			sess.logger.DebugContext(cmd.Context(), "scenario passed",
				"scenario.name", sc.Name, "scenario.steps", len(result.Steps))

			return writeErr
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&diff, flagDiff, false, "print the dump diff of every step")
	flags.BoolVar(&list, flagList, false, "list the built-in scenarios")
	flags.StringVar(&format, flagFormat, formatText, "output format: text, yaml or json")

	return cmd
}

func loadScenario(ref string) (*scenario.Scenario, error) {
	if name, ok := strings.CutPrefix(ref, builtinPrefix); ok {
		return scenario.Builtin(name)
	}

	return scenario.Load(ref)
}

func writeResult(out io.Writer, result *scenario.Result, format string, style render.Style) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(yamlIndent)

		err := enc.Encode(result)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		err := enc.Encode(result)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	default:
		return writeText(out, result, style)
	}
}

func writeText(out io.Writer, result *scenario.Result, style render.Style) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Scenario: %s\n", result.Name)

	for _, step := range result.Steps {
		fmt.Fprintf(&sb, "step %d %s %v: nodes %d, height %d, black height %d\n",
			step.Index, step.Op, step.Keys, step.Report.Nodes, step.Report.Height, step.Report.BlackHeight)

		if scenario.Changed(step.Diff) {
			err := render.Diff(&sb, step.Diff, style)
			if err != nil {
				return err
			}
		}
	}

	if result.Dump != nil {
		fmt.Fprintf(&sb, "PASS %s (%d steps)\n", result.Name, len(result.Steps))
	}

	_, err := io.WriteString(out, sb.String())
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
