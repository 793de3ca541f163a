package optimizer

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/peloton/internal/models"
)

func fourRiders() []Candidate {
	return []Candidate{
		{Key: "a", Cost: 10, Score: 50, Category: models.CategorySprinter},
		{Key: "b", Cost: 15, Score: 75, Category: models.CategoryAllRounder},
		{Key: "c", Cost: 20, Score: 100, Category: models.CategoryClimber},
		{Key: "d", Cost: 25, Score: 125, Category: models.CategoryAllRounder},
	}
}

func TestMaximizeScorePicksBestPair(t *testing.T) {
	res, err := MaximizeScore(context.Background(), Problem{Candidates: fourRiders(), Size: 2, Budget: 50})
	require.NoError(t, err)
	require.True(t, res.Feasible())
	require.Nil(t, res.Infeasible)

	assert.Equal(t, []string{"c", "d"}, res.Selection.Keys)
	assert.Equal(t, 45, res.Selection.TotalCost)
	assert.InDelta(t, 225.0, res.Selection.TotalScore, 1e-9)
	assert.Equal(t, StatusOptimal, res.Status())
}

func TestMaximizeScoreBudgetTooSmall(t *testing.T) {
	res, err := MaximizeScore(context.Background(), Problem{Candidates: fourRiders(), Size: 2, Budget: 20})
	require.NoError(t, err)
	require.False(t, res.Feasible())
	assert.Equal(t, StatusInfeasible, res.Infeasible.Status)
	assert.NotEmpty(t, res.Infeasible.Reason)
}

func TestPrecheckRejectsWithoutSearch(t *testing.T) {
	tests := []struct {
		name   string
		minima map[models.Category]int
	}{
		{"too few climbers", map[models.Category]int{models.CategoryClimber: 2}},
		{"minima exceed size", map[models.Category]int{models.CategoryAllRounder: 2, models.CategoryClimber: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MaximizeScore(context.Background(), Problem{Candidates: fourRiders(), Size: 2, Budget: 100, Minima: tt.minima})
			require.NoError(t, err)
			require.NotNil(t, res.Infeasible)
			assert.Equal(t, StatusPrecheck, res.Infeasible.Status)
			assert.Zero(t, res.Nodes)
		})
	}
}

func TestQuotaForcesCategory(t *testing.T) {
	p := Problem{
		Candidates: fourRiders(),
		Size:       2,
		Budget:     50,
		Minima:     map[models.Category]int{models.CategorySprinter: 1},
	}
	res, err := MaximizeScore(context.Background(), p)
	require.NoError(t, err)
	require.True(t, res.Feasible())

	assert.Equal(t, []string{"a", "d"}, res.Selection.Keys)
	assert.Equal(t, 35, res.Selection.TotalCost)
}

func TestMinimizeCost(t *testing.T) {
	p := Problem{Candidates: fourRiders(), Size: 2}

	res, err := MinimizeCost(context.Background(), p, 150)
	require.NoError(t, err)
	require.True(t, res.Feasible())
	assert.Equal(t, []string{"a", "c"}, res.Selection.Keys)
	assert.Equal(t, 30, res.Selection.TotalCost)
	assert.Equal(t, ObjectiveMinimizeCost, res.Objective)

	res, err = MinimizeCost(context.Background(), p, 226)
	require.NoError(t, err)
	require.False(t, res.Feasible())
	assert.Equal(t, StatusInfeasible, res.Infeasible.Status)

	p.Budget = 29
	res, err = MinimizeCost(context.Background(), p, 150)
	require.NoError(t, err)
	assert.False(t, res.Feasible())

	_, err = MinimizeCost(context.Background(), Problem{Candidates: fourRiders(), Size: 2}, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestNodeLimitReportsNotOptimal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	opt := New(logger, Options{NodeLimit: 1})

	p := Problem{
		Candidates: []Candidate{
			{Key: "cheap", Cost: 5, Score: 10},
			{Key: "star", Cost: 20, Score: 100},
		},
		Size:   1,
		Budget: 10,
	}
	res, err := opt.MaximizeScore(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, res.Infeasible)
	assert.Nil(t, res.Selection)
	assert.Equal(t, StatusNotOptimal, res.Infeasible.Status)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)

	res, err = New(logger, Options{}).MaximizeScore(context.Background(), p)
	require.NoError(t, err)
	require.True(t, res.Feasible())
	assert.Equal(t, []string{"cheap"}, res.Selection.Keys)
}

func TestValidateRejectsContractViolations(t *testing.T) {
	base := func() Problem {
		return Problem{Candidates: fourRiders(), Size: 2, Budget: 50}
	}
	tests := []struct {
		name   string
		mutate func(p *Problem)
	}{
		{"zero size", func(p *Problem) { p.Size = 0 }},
		{"size above pool", func(p *Problem) { p.Size = 5 }},
		{"negative budget", func(p *Problem) { p.Budget = -1 }},
		{"zero cost", func(p *Problem) { p.Candidates[0].Cost = 0 }},
		{"nan score", func(p *Problem) { p.Candidates[1].Score = math.NaN() }},
		{"duplicate key", func(p *Problem) { p.Candidates[2].Key = "a" }},
		{"unknown category", func(p *Problem) { p.Candidates[3].Category = "domestique" }},
		{"quota on unknown category", func(p *Problem) { p.Minima = map[models.Category]int{"domestique": 1} }},
		{"negative quota", func(p *Problem) { p.Minima = map[models.Category]int{models.CategoryClimber: -1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			_, err := MaximizeScore(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidProblem)
		})
	}
}

func TestMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(20240701))
	cats := []models.Category{models.CategoryClimber, models.CategorySprinter, models.CategoryAllRounder, models.CategoryUnclassed}

	for iter := 0; iter < 60; iter++ {
		n := 6 + rng.Intn(6)
		cands := make([]Candidate, n)
		for i := range cands {
			cands[i] = Candidate{
				Key:      string(rune('a' + i)),
				Cost:     4 + rng.Intn(20),
				Score:    math.Round(rng.Float64()*1000) / 10,
				Category: cats[rng.Intn(len(cats))],
			}
		}
		p := Problem{
			Candidates: cands,
			Size:       2 + rng.Intn(3),
			Budget:     25 + rng.Intn(40),
		}
		if rng.Intn(2) == 0 {
			p.Minima = map[models.Category]int{models.CategoryClimber: 1}
		}

		wantScore, wantOK := exhaustiveMax(p)
		res, err := MaximizeScore(context.Background(), p)
		require.NoError(t, err, "instance %d", iter)

		if !wantOK {
			assert.False(t, res.Feasible(), "instance %d", iter)
			continue
		}
		require.True(t, res.Feasible(), "instance %d", iter)
		assert.InDelta(t, wantScore, res.Selection.TotalScore, 1e-6, "instance %d", iter)
		assert.LessOrEqual(t, res.Selection.TotalCost, p.Budget)
		assert.Len(t, res.Selection.Keys, p.Size)
		assert.NoError(t, p.verify(ObjectiveMaximizeScore, res.Selection.Keys, 0))
	}
}

func exhaustiveMax(p Problem) (float64, bool) {
	n := len(p.Candidates)
	best, found := 0.0, false
	for mask := 0; mask < 1<<n; mask++ {
		count, cost, score := 0, 0, 0.0
		cats := map[models.Category]int{}
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				count++
				cost += p.Candidates[i].Cost
				score += p.Candidates[i].Score
				cats[p.Candidates[i].Category]++
			}
		}
		if count != p.Size || cost > p.Budget {
			continue
		}
		ok := true
		for c, min := range p.Minima {
			if cats[c] < min {
				ok = false
			}
		}
		if ok && (!found || score > best) {
			best, found = score, true
		}
	}
	return best, found
}
