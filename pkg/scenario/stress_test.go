package scenario_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/scenario"
)

func TestStress35(t *testing.T) {
	t.Parallel()

	var rounds []int

	result, err := scenario.Stress(context.Background(), scenario.StressConfig{
		Keys:   35,
		Rounds: 3,
		Seed:   1,
		Progress: func(round int, _ scenario.StressResult) {
			rounds = append(rounds, round)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Rounds)
	assert.Equal(t, 3*2*35, result.Operations)
	assert.Equal(t, []int{0, 1, 2}, rounds)
	assert.LessOrEqual(t, result.MaxHeight, 2*result.MaxBlackHeight)
	assert.Positive(t, result.MaxBlackHeight)
}

func TestStressRecordsMetrics(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{count: map[string]int{}}

	_, err := scenario.Stress(context.Background(), scenario.StressConfig{Keys: 10, Rounds: 1, Recorder: rec})
	require.NoError(t, err)

	assert.Equal(t, 10, rec.count["insert"])
	// One absent delete per insert, then every key.
	assert.Equal(t, 20, rec.count["delete"])
	assert.Equal(t, 20, rec.count["search"])
}

func TestStressInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := scenario.Stress(context.Background(), scenario.StressConfig{Keys: 0, Rounds: 1})
	require.ErrorIs(t, err, scenario.ErrInvalidStressConfig)

	_, err = scenario.Stress(context.Background(), scenario.StressConfig{Keys: 3, Rounds: -1})
	require.ErrorIs(t, err, scenario.ErrInvalidStressConfig)
}

func TestStressCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := scenario.Stress(ctx, scenario.StressConfig{Keys: 5, Rounds: 2})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Rounds)
}
