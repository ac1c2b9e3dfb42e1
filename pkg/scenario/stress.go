package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbcheck"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
)

// Stress errors.
var (
	ErrInvalidStressConfig = errors.New("invalid stress configuration")
	ErrOracleMismatch      = errors.New("tree disagrees with the oracle")
)

// StressConfig drives the differential stress test.
type StressConfig struct {
	// Keys is the number of distinct keys inserted per round.
	Keys int
	// Rounds is the number of insert-all / delete-all cycles.
	Rounds int
	// Seed makes the key orders reproducible.
	Seed int64
	// Recorder receives one sample per tree operation. May be nil.
	Recorder rbtree.Recorder
	// Progress, when set, is called after every round.
	Progress func(round int, result StressResult)
}

// StressResult summarizes a stress run.
type StressResult struct {
	Rounds         int           `yaml:"rounds"           json:"rounds"`
	Operations     int           `yaml:"operations"       json:"operations"`
	MaxHeight      int           `yaml:"max_height"       json:"max_height"`
	MaxBlackHeight int           `yaml:"max_black_height" json:"max_black_height"`
	Elapsed        time.Duration `yaml:"elapsed"          json:"elapsed"`
}

// sortedOracle is the reference model: a sorted slice of keys.
type sortedOracle []int64

func (o *sortedOracle) insert(key int64) {
	idx, _ := slices.BinarySearch(*o, key)
	*o = slices.Insert(*o, idx, key)
}

func (o *sortedOracle) delete(key int64) bool {
	idx, found := slices.BinarySearch(*o, key)
	if !found {
		return false
	}

	*o = slices.Delete(*o, idx, idx+1)

	return true
}

func (o *sortedOracle) contains(key int64) bool {
	_, found := slices.BinarySearch(*o, key)

	return found
}

type stressRun struct {
	cfg    StressConfig
	tree   *rbtree.Synced[int64]
	oracle sortedOracle
	result StressResult
}

// Stress inserts cfg.Keys distinct keys in a random order, then deletes them
// in another random order, for cfg.Rounds rounds. After every single operation
// the tree is verified and compared with a sorted-slice oracle. Absent keys
// are searched and deleted along the way.
func Stress(ctx context.Context, cfg StressConfig) (StressResult, error) {
	if cfg.Keys <= 0 || cfg.Rounds <= 0 {
		return StressResult{}, fmt.Errorf("%w: keys %d, rounds %d", ErrInvalidStressConfig, cfg.Keys, cfg.Rounds)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "redblack.stress",
		trace.WithAttributes(
			attribute.Int("stress.keys", cfg.Keys),
			attribute.Int("stress.rounds", cfg.Rounds),
			attribute.Int64("stress.seed", cfg.Seed),
		))
	defer span.End()

	start := time.Now()
	run := &stressRun{cfg: cfg, tree: rbtree.NewSynced(rbtree.New[int64](nil), cfg.Recorder)}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible orders, not security.

	for round := range cfg.Rounds {
		err := ctx.Err()
		if err == nil {
			err = run.round(ctx, rng)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return run.result, fmt.Errorf("round %d: %w", round, err)
		}

		run.result.Rounds++
		run.result.Elapsed = time.Since(start)
		span.AddEvent("round", trace.WithAttributes(attribute.Int("stress.round", round)))

		if cfg.Progress != nil {
			cfg.Progress(round, run.result)
		}
	}

	return run.result, nil
}

func (run *stressRun) round(ctx context.Context, rng *rand.Rand) error {
	// Present keys are even, so odd keys are always absent.
	keys := make([]int64, run.cfg.Keys)
	for idx, value := range rng.Perm(run.cfg.Keys) {
		keys[idx] = int64(value) * 2
	}

	for _, key := range keys {
		run.tree.Insert(ctx, key)
		run.oracle.insert(key)

		err := run.step("insert", key, true, run.tree.Contains(ctx, key))
		if err != nil {
			return err
		}

		absent := int64(rng.Intn(run.cfg.Keys))*2 + 1
		if run.tree.Delete(ctx, absent) {
			return fmt.Errorf("%w: deleted absent key %d", ErrOracleMismatch, absent)
		}
	}

	err := run.compareKeys()
	if err != nil {
		return err
	}

	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for _, key := range keys {
		removed := run.tree.Delete(ctx, key)

		err = run.step("delete", key, run.oracle.delete(key), removed)
		if err != nil {
			return err
		}

		if run.tree.Contains(ctx, key) != run.oracle.contains(key) {
			return fmt.Errorf("%w: search %d after delete", ErrOracleMismatch, key)
		}
	}

	return run.compareKeys()
}

// step checks one operation outcome, then the whole tree.
func (run *stressRun) step(op string, key int64, want, got bool) error {
	run.result.Operations++

	if want != got {
		return fmt.Errorf("%w: %s %d returned %t", ErrOracleMismatch, op, key, got)
	}

	var (
		report rbcheck.Report
		err    error
	)

	run.tree.View(func(t *rbtree.Tree[int64]) {
		report, err = rbcheck.Inspect(t)
	})

	if err != nil {
		return fmt.Errorf("after %s %d: %w: %w", op, key, ErrInvariant, err)
	}

	if report.Nodes != len(run.oracle) {
		return fmt.Errorf("%w: %d nodes, oracle holds %d", ErrOracleMismatch, report.Nodes, len(run.oracle))
	}

	run.result.MaxHeight = max(run.result.MaxHeight, report.Height)
	run.result.MaxBlackHeight = max(run.result.MaxBlackHeight, report.BlackHeight)

	return nil
}

func (run *stressRun) compareKeys() error {
	keys := run.tree.Keys()
	if !slices.Equal(keys, []int64(run.oracle)) {
		return fmt.Errorf("%w: keys %v, oracle %v", ErrOracleMismatch, keys, []int64(run.oracle))
	}

	return nil
}
