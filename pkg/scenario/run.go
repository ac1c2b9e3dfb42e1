package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

const tracerName = "redblack"

// Run failures.
var (
	ErrExpectation = errors.New("expectation not met")
	ErrInvariant   = errors.New("invariant violated")
)

// Options tune Run.
type Options struct {
	// Diff records a line diff of the dump for every step.
	Diff bool
	// Recorder receives one sample per tree operation. May be nil.
	Recorder rbtree.Recorder
}

// StepResult describes one executed step.
type StepResult struct {
	Index int     `yaml:"index" json:"index"`
	Op    Op      `yaml:"op"    json:"op"`
	Keys  []int64 `yaml:"keys,omitempty" json:"keys,omitempty"`
	// Outcomes holds the delete or search result for every key.
	Outcomes []bool                `yaml:"outcomes,omitempty" json:"outcomes,omitempty"`
	Report   rbcheck.Report        `yaml:"report"             json:"report"`
	Diff     []diffmatchpatch.Diff `yaml:"-"                  json:"-"`
}

// Result describes a scenario run.
type Result struct {
	Name    string         `yaml:"name"    json:"name"`
	Steps   []StepResult   `yaml:"steps"   json:"steps"`
	Dump    []string       `yaml:"dump"    json:"dump"`
	Report  rbcheck.Report `yaml:"report"  json:"report"`
	Elapsed time.Duration  `yaml:"elapsed" json:"elapsed"`
}

// Run applies sc to a fresh tree. The tree is verified after every single
// operation; the first violation or unmet expectation stops the run. The
// partial result is returned alongside the error.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redblack.scenario.run",
		trace.WithAttributes(
			attribute.String("scenario.name", sc.Name),
			attribute.Int("scenario.steps", len(sc.Steps)),
		))
	defer span.End()

	start := time.Now()
	tree := rbtree.NewSynced(rbtree.New[int64](nil), opts.Recorder)
	rng := rand.New(rand.NewSource(sc.Seed)) //nolint:gosec // reproducible shuffles, not security.
	result := &Result{Name: sc.Name, Steps: make([]StepResult, 0, len(sc.Steps))}

	for idx, step := range sc.Steps {
		err := ctx.Err()
		if err == nil {
			var stepResult StepResult

			stepResult, err = runStep(ctx, tree, rng, idx, step, opts)
			result.Steps = append(result.Steps, stepResult)
			result.Report = stepResult.Report
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return result, fmt.Errorf("scenario %s: step %d (%s): %w", sc.Name, idx, step.Op, err)
		}
	}

	result.Dump = tree.Dump()
	result.Elapsed = time.Since(start)

	return result, nil
}

func runStep(
	ctx context.Context, tree *rbtree.Synced[int64], rng *rand.Rand, idx int, step Step, opts Options,
) (StepResult, error) {
	keys := slices.Clone(step.Keys)
	if step.Shuffle {
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	}

	res := StepResult{Index: idx, Op: step.Op, Keys: keys}

	var before []string
	if opts.Diff {
		before = tree.Dump()
	}

	if step.Op == OpClear {
		tree.Clear(ctx)

		report, err := verify(tree)
		res.Report = report

		if err != nil {
			return res, fmt.Errorf("after clear: %w", err)
		}
	}

	for _, key := range keys {
		ok, err := apply(ctx, tree, step.Op, key)
		if err != nil {
			return res, err
		}

		report, err := verify(tree)
		res.Report = report

		if err != nil {
			return res, fmt.Errorf("after %s %d: %w", step.Op, key, err)
		}

		if step.Op == OpInsert {
			continue
		}

		res.Outcomes = append(res.Outcomes, ok)

		if step.Expect != nil && ok != *step.Expect {
			return res, fmt.Errorf("%w: %s %d returned %t", ErrExpectation, step.Op, key, ok)
		}
	}

	err := checkStep(tree, step)
	if err != nil {
		return res, err
	}

	if opts.Diff {
		res.Diff = LineDiff(before, tree.Dump())
	}

	return res, nil
}

// apply runs one keyed operation. A delete that finds nothing must leave the
// key set untouched.
func apply(ctx context.Context, tree *rbtree.Synced[int64], op Op, key int64) (bool, error) {
	switch op {
	case OpInsert:
		tree.Insert(ctx, key)

		return true, nil
	case OpSearch:
		return tree.Contains(ctx, key), nil
	case OpDelete:
		before := tree.Keys()
		removed := tree.Delete(ctx, key)
		after := tree.Keys()

		if removed && len(after) != len(before)-1 {
			return true, fmt.Errorf("%w: delete %d reported success without removing", ErrInvariant, key)
		}

		if !removed && !slices.Equal(before, after) {
			return false, fmt.Errorf("%w: failed delete %d changed the tree", ErrInvariant, key)
		}

		return removed, nil
	default:
		return false, fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, op)
	}
}

func verify(tree *rbtree.Synced[int64]) (rbcheck.Report, error) {
	var (
		report rbcheck.Report
		err    error
	)

	tree.View(func(t *rbtree.Tree[int64]) {
		report, err = rbcheck.Inspect(t)
	})

	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrInvariant, err)
	}

	return report, nil
}

func checkStep(tree *rbtree.Synced[int64], step Step) error {
	var errs []error

	tree.View(func(t *rbtree.Tree[int64]) {
		if step.Empty != nil && t.IsEmpty() != *step.Empty {
			errs = append(errs, fmt.Errorf("%w: empty is %t", ErrExpectation, t.IsEmpty()))
		}

		if step.Root != nil {
			root := t.Root()

			switch {
			case root.Nil():
				errs = append(errs, fmt.Errorf("%w: root %d, tree is empty", ErrExpectation, *step.Root))
			case root.Key() != *step.Root:
				errs = append(errs, fmt.Errorf("%w: root %d, got %d", ErrExpectation, *step.Root, root.Key()))
			}
		}

		if step.Contents != nil && !slices.Equal(step.Contents, t.Keys()) {
			errs = append(errs, fmt.Errorf("%w: contents %v, got %v", ErrExpectation, step.Contents, t.Keys()))
		}

		if step.Dump != nil && !slices.Equal(step.Dump, t.Dump()) {
			errs = append(errs, fmt.Errorf("%w: dump differs:\n%s", ErrExpectation,
				diffmatchpatch.New().DiffPrettyText(LineDiff(step.Dump, t.Dump()))))
		}
	})

	return errors.Join(errs...)
}
