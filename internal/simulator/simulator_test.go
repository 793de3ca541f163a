package simulator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingsArePermutations(t *testing.T) {
	means := []float64{1.2, 0.4, -0.3, 0.0, 2.1}
	sds := []float64{1, 1, 0.5, 2, 0.1}

	sim := New(Config{Trials: 500, Workers: 3, Seed: 7})
	rankings, err := sim.Rankings(context.Background(), means, sds)
	require.NoError(t, err)
	require.Len(t, rankings, 500)

	for i, ranks := range rankings {
		seen := make([]bool, len(means)+1)
		for _, r := range ranks {
			require.True(t, r >= 1 && r <= len(means), "trial %d rank %d", i, r)
			require.False(t, seen[r], "trial %d repeats rank %d", i, r)
			seen[r] = true
		}
	}
}

func TestZeroVarianceFollowsMeans(t *testing.T) {
	means := []float64{0.5, 3, -1, 1}
	sds := []float64{0, 0, 0, 0}

	rankings, err := New(Config{Trials: 10, Seed: 1}).Rankings(context.Background(), means, sds)
	require.NoError(t, err)
	for _, ranks := range rankings {
		assert.Equal(t, []int{3, 1, 4, 2}, ranks)
	}
}

func TestTiesBreakByIndex(t *testing.T) {
	rankings, err := New(Config{Trials: 3, Seed: 1}).Rankings(context.Background(), []float64{1, 1, 1}, []float64{0, 0, 0})
	require.NoError(t, err)
	for _, ranks := range rankings {
		assert.Equal(t, []int{1, 2, 3}, ranks)
	}
}

func TestSameSeedReproducesAcrossWorkerCounts(t *testing.T) {
	means := []float64{0.3, 0.2, 0.1, 0.0, -0.1, -0.2}
	sds := []float64{1, 1, 1, 1, 1, 1}

	one, err := New(Config{Trials: 1000, Workers: 1, Seed: 42, BlockSize: 64}).Rankings(context.Background(), means, sds)
	require.NoError(t, err)
	many, err := New(Config{Trials: 1000, Workers: 8, Seed: 42, BlockSize: 64}).Rankings(context.Background(), means, sds)
	require.NoError(t, err)
	assert.Equal(t, one, many)

	other, err := New(Config{Trials: 1000, Workers: 1, Seed: 43, BlockSize: 64}).Rankings(context.Background(), means, sds)
	require.NoError(t, err)
	assert.NotEqual(t, one, other)
}

func TestStrongerCompetitorWinsMoreOften(t *testing.T) {
	means := []float64{2, 0, -2}
	sds := []float64{1, 1, 1}

	var mu sync.Mutex
	wins := make([]int, len(means))
	stats, err := New(Config{Trials: 2000, Workers: 4, Seed: 99}).Run(context.Background(), means, sds, func(int) Observer {
		return ObserverFunc(func(tr *Trial) {
			mu.Lock()
			wins[tr.Order[0]]++
			mu.Unlock()
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2000, stats.Trials)
	assert.Equal(t, int64(99), stats.Seed)

	assert.Greater(t, wins[0], wins[1])
	assert.Greater(t, wins[1], wins[2])
	assert.Equal(t, 2000, wins[0]+wins[1]+wins[2])
}

func TestRunValidatesInput(t *testing.T) {
	sim := New(Config{Trials: 10, Seed: 1})
	noop := func(int) Observer { return ObserverFunc(func(*Trial) {}) }

	_, err := sim.Run(context.Background(), nil, nil, noop)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = sim.Run(context.Background(), []float64{1, 2}, []float64{1}, noop)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = sim.Run(context.Background(), []float64{1}, []float64{-1}, noop)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Trials: 10000, Seed: 1, BlockSize: 10}).Run(ctx, []float64{1, 2}, []float64{1, 1}, func(int) Observer {
		return ObserverFunc(func(*Trial) {})
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaults(t *testing.T) {
	cfg := New(Config{}).Config()
	assert.Equal(t, DefaultTrials, cfg.Trials)
	assert.Equal(t, DefaultBlockSize, cfg.BlockSize)
	assert.Positive(t, cfg.Workers)
	assert.NotZero(t, cfg.Seed)
}

func TestStreamSeedDiffersFromBlockSeeds(t *testing.T) {
	assert.NotEqual(t, StreamSeed(5, 0), blockSeed(5, 0))
	assert.NotEqual(t, StreamSeed(5, 0), StreamSeed(5, 1))
	assert.Equal(t, StreamSeed(5, 1), StreamSeed(5, 1))
}
