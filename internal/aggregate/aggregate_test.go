package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/simulator"
)

func mustTable(t *testing.T, finish, assist []int, bonus int) *scoring.Table {
	t.Helper()
	tbl, err := scoring.NewTable(finish, assist, bonus)
	require.NoError(t, err)
	return tbl
}

func TestAggregateRankings(t *testing.T) {
	tbl := mustTable(t, []int{10, 5, 1}, []int{4, 2}, 0)
	rankings := [][]int{
		{1, 2, 3},
		{3, 1, 2},
	}
	teams := []string{"A", "A", "B"}

	got, err := AggregateRankings(rankings, teams, tbl, BreakawayConfig{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.InDelta(t, 5.5, got[0].Finish, 1e-12)
	assert.InDelta(t, 7.5, got[1].Finish, 1e-12)
	assert.InDelta(t, 3.0, got[2].Finish, 1e-12)

	assert.InDelta(t, 3.0, got[0].Assist, 1e-12)
	assert.InDelta(t, 2.0, got[1].Assist, 1e-12)
	assert.InDelta(t, 0.0, got[2].Assist, 1e-12)

	assert.InDelta(t, 0.5, got[0].WinProbability, 1e-12)
	assert.InDelta(t, 0.5, got[1].WinProbability, 1e-12)
	assert.InDelta(t, 0.0, got[2].WinProbability, 1e-12)
	assert.InDelta(t, 1.0, got[2].PodiumProbability, 1e-12)

	assert.InDelta(t, 8.5, got[0].Total(), 1e-12)
}

func TestAggregateRankingsRejectsBadInput(t *testing.T) {
	tbl := mustTable(t, []int{10, 5}, nil, 0)

	_, err := AggregateRankings([][]int{{1, 1}}, []string{"A", "B"}, tbl, BreakawayConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AggregateRankings([][]int{{1}}, []string{"A", "B"}, tbl, BreakawayConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AggregateRankings(nil, []string{"A"}, nil, BreakawayConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AggregateRankings([][]int{{1, 2}}, []string{"A", "B"}, tbl, BreakawayConfig{Tiers: []Tier{{MaxRank: 2}, {MaxRank: 1}}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAggregateRankingsCreditsSectorBonus(t *testing.T) {
	tbl := mustTable(t, []int{10, 5, 1}, nil, 4)
	cfg := BreakawayConfig{Tiers: []Tier{{MaxRank: 1, Sectors: 3}, {MaxRank: 2, Sectors: 1}}}
	rankings := [][]int{
		{1, 2, 3},
		{2, 1, 3},
	}

	got, err := AggregateRankings(rankings, []string{"A", "B", "C"}, tbl, cfg)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.InDelta(t, 2.0, got[0].ExpectedSectors, 1e-12)
	assert.InDelta(t, 8.0, got[0].Bonus, 1e-12)
	assert.InDelta(t, 8.0, got[1].Bonus, 1e-12)
	assert.Zero(t, got[2].Bonus)
	assert.InDelta(t, 15.5, got[0].Total(), 1e-12)

	noBonus := mustTable(t, []int{10, 5, 1}, nil, 0)
	got, err = AggregateRankings(rankings, []string{"A", "B", "C"}, noBonus, cfg)
	require.NoError(t, err)
	assert.Zero(t, got[0].Bonus)
	assert.Zero(t, got[0].ExpectedSectors)
}

func TestTeammateIndex(t *testing.T) {
	idx := TeammateIndex([]string{"A", "B", "A", "", "A"})
	assert.Equal(t, []int{2, 4}, idx[0])
	assert.Empty(t, idx[1])
	assert.Equal(t, []int{0, 4}, idx[2])
	assert.Empty(t, idx[3])
}

func TestRunMatchesMaterializedRankings(t *testing.T) {
	tbl := mustTable(t, []int{50, 30, 20, 10, 5}, []int{6, 3, 1}, 0)
	means := []float64{1.0, 0.8, 0.2, -0.4, -1}
	sds := []float64{0.7, 0.9, 1.1, 1.0, 0.6}
	teams := []string{"A", "B", "A", "B", "C"}

	sim := simulator.New(simulator.Config{Trials: 800, Workers: 3, Seed: 11, BlockSize: 50})
	rankings, err := sim.Rankings(context.Background(), means, sds)
	require.NoError(t, err)
	want, err := AggregateRankings(rankings, teams, tbl, BreakawayConfig{})
	require.NoError(t, err)

	agg, err := New(DefaultBreakaway())
	require.NoError(t, err)
	got, err := agg.Run(context.Background(), sim, means, sds, teams, tbl)
	require.NoError(t, err)

	assert.Equal(t, want, got.Components)
	assert.Equal(t, 800, got.Stats.Trials)
}

func TestRunReproducibleAcrossWorkers(t *testing.T) {
	tbl := scoring.DefaultTables()[scoring.GrandTour]
	means := []float64{1.5, 1.0, 0.5, 0, -0.5, -1}
	sds := []float64{1, 1, 1, 1, 1, 1}
	teams := []string{"A", "A", "B", "B", "C", "C"}

	agg, err := New(DefaultBreakaway())
	require.NoError(t, err)

	run := func(workers int) []Components {
		sim := simulator.New(simulator.Config{Trials: 2000, Workers: workers, Seed: 2024, BlockSize: 100})
		res, err := agg.Run(context.Background(), sim, means, sds, teams, tbl)
		require.NoError(t, err)
		return res.Components
	}

	assert.Equal(t, run(1), run(6))
}

func TestExpectedFinishConservesTablePoints(t *testing.T) {
	tbl := mustTable(t, []int{20, 10, 5}, nil, 0)
	means := []float64{0.1, 0.3, -0.2, 0.0}
	sds := []float64{1, 1, 1, 1}

	agg, err := New(BreakawayConfig{})
	require.NoError(t, err)
	res, err := agg.Run(context.Background(), simulator.New(simulator.Config{Trials: 500, Seed: 3}), means, sds, []string{"A", "B", "C", "D"}, tbl)
	require.NoError(t, err)

	sum := 0.0
	for _, c := range res.Components {
		sum += c.Finish
		assert.Zero(t, c.Assist)
		assert.Zero(t, c.Bonus)
	}
	assert.InDelta(t, 35.0, sum, 1e-9)
}

func TestBonusFromBreakawayTiers(t *testing.T) {
	tbl := mustTable(t, []int{10, 5, 1}, nil, 4)
	means := []float64{3, 2, 1, 0}
	sds := []float64{0, 0, 0, 0}
	cfg := BreakawayConfig{Tiers: []Tier{{MaxRank: 1, Sectors: 3}, {MaxRank: 3, Sectors: 1}}}

	agg, err := New(cfg)
	require.NoError(t, err)
	res, err := agg.Run(context.Background(), simulator.New(simulator.Config{Trials: 20, Seed: 5}), means, sds, []string{"A", "B", "C", "D"}, tbl)
	require.NoError(t, err)

	assert.InDelta(t, 12.0, res.Components[0].Bonus, 1e-12)
	assert.InDelta(t, 4.0, res.Components[1].Bonus, 1e-12)
	assert.InDelta(t, 4.0, res.Components[2].Bonus, 1e-12)
	assert.InDelta(t, 0.0, res.Components[3].Bonus, 1e-12)
	assert.InDelta(t, 3.0, res.Components[0].ExpectedSectors, 1e-12)
}

func TestBreakawayValidate(t *testing.T) {
	require.NoError(t, DefaultBreakaway().Validate())

	_, err := New(BreakawayConfig{Tiers: []Tier{{MaxRank: 5, Sectors: 1}, {MaxRank: 5, Sectors: 1}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(BreakawayConfig{Tiers: []Tier{{MaxRank: 5, Sectors: -1}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg := DefaultBreakaway()
	assert.Equal(t, 3, cfg.Sectors(1))
	assert.Equal(t, 2, cfg.Sectors(4))
	assert.Equal(t, 1, cfg.Sectors(25))
	assert.Equal(t, 0, cfg.Sectors(26))
}

func TestRunValidatesTeams(t *testing.T) {
	agg, err := New(DefaultBreakaway())
	require.NoError(t, err)
	_, err = agg.Run(context.Background(), simulator.New(simulator.Config{Trials: 10, Seed: 1}), []float64{1, 2}, []float64{1, 1}, []string{"A"}, scoring.DefaultTables()[scoring.OneDay])
	assert.ErrorIs(t, err, ErrInvalidInput)
}
