// Package aggregate turns simulated finishing orders into expected fantasy
// score per competitor.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/simulator"
)

// ErrInvalidInput indicates rankings or teams that do not line up.
var ErrInvalidInput = errors.New("invalid aggregation input")

// TopTen is the histogram depth reported as Top10Probability.
const TopTen = 10

// Components is one competitor's expected score, split by source.
type Components struct {
	Finish            float64 `json:"finish"`
	Assist            float64 `json:"assist"`
	Bonus             float64 `json:"bonus"`
	WinProbability    float64 `json:"win_probability"`
	PodiumProbability float64 `json:"podium_probability"`
	Top10Probability  float64 `json:"top10_probability"`
	ExpectedSectors   float64 `json:"expected_sectors"`
}

// Total is the sum of the three score components.
func (c Components) Total() float64 {
	return c.Finish + c.Assist + c.Bonus
}

// accumulator sums integer points across trials. Integer sums make the merge
// order irrelevant.
type accumulator struct {
	table     *scoring.Table
	teammates [][]int
	trials    int64
	finish    []int64
	assist    []int64
	positions [][]int64
}

func newAccumulator(table *scoring.Table, teammates [][]int) *accumulator {
	n := len(teammates)
	depth := table.Depth()
	if depth < TopTen {
		depth = TopTen
	}
	a := &accumulator{
		table:     table,
		teammates: teammates,
		finish:    make([]int64, n),
		assist:    make([]int64, n),
		positions: make([][]int64, n),
	}
	for i := range a.positions {
		a.positions[i] = make([]int64, depth)
	}
	return a
}

// Observe credits finish and assist points for one trial.
func (a *accumulator) Observe(t *simulator.Trial) {
	a.trials++
	for i, pos := range t.Rank {
		a.finish[i] += int64(a.table.FinishPoints(pos))
		if pos <= len(a.positions[i]) {
			a.positions[i][pos-1]++
		}
	}

	podium := a.table.AssistDepth()
	if podium > len(t.Order) {
		podium = len(t.Order)
	}
	for p := 0; p < podium; p++ {
		pts := int64(a.table.AssistPoints(p + 1))
		if pts == 0 {
			continue
		}
		for _, mate := range a.teammates[t.Order[p]] {
			a.assist[mate] += pts
		}
	}
}

func (a *accumulator) merge(o *accumulator) {
	a.trials += o.trials
	for i := range a.finish {
		a.finish[i] += o.finish[i]
		a.assist[i] += o.assist[i]
		for p := range a.positions[i] {
			a.positions[i][p] += o.positions[i][p]
		}
	}
}

func (a *accumulator) components() []Components {
	out := make([]Components, len(a.finish))
	if a.trials == 0 {
		return out
	}
	n := float64(a.trials)
	for i := range out {
		pos := a.positions[i]
		var podium, top10 int64
		for p := 0; p < TopTen && p < len(pos); p++ {
			if p < 3 {
				podium += pos[p]
			}
			top10 += pos[p]
		}
		out[i] = Components{
			Finish:            float64(a.finish[i]) / n,
			Assist:            float64(a.assist[i]) / n,
			WinProbability:    float64(pos[0]) / n,
			PodiumProbability: float64(podium) / n,
			Top10Probability:  float64(top10) / n,
		}
	}
	return out
}

// TeammateIndex lists, for each competitor, the indices of every other
// competitor on the same team. Empty team names have no teammates.
func TeammateIndex(teams []string) [][]int {
	byTeam := make(map[string][]int)
	for i, team := range teams {
		if team == "" {
			continue
		}
		byTeam[team] = append(byTeam[team], i)
	}

	out := make([][]int, len(teams))
	for i, team := range teams {
		if team == "" {
			continue
		}
		for _, j := range byTeam[team] {
			if j != i {
				out[i] = append(out[i], j)
			}
		}
	}
	return out
}

// AggregateRankings computes every component from materialized rankings,
// where rankings[t][i] is competitor i's position in trial t. When the table
// pays a sector bonus, sectors are credited from the same rankings.
func AggregateRankings(rankings [][]int, teams []string, table *scoring.Table, breakaway BreakawayConfig) ([]Components, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil scoring table", ErrInvalidInput)
	}
	if err := breakaway.Validate(); err != nil {
		return nil, err
	}
	n := len(teams)
	acc := newAccumulator(table, TeammateIndex(teams))
	sectors := &sectorAccumulator{cfg: breakaway, sectors: make([]int64, n)}
	trial := simulator.Trial{Order: make([]int, n)}

	for t, ranks := range rankings {
		if len(ranks) != n {
			return nil, fmt.Errorf("%w: trial %d has %d ranks for %d competitors", ErrInvalidInput, t, len(ranks), n)
		}
		seen := make([]bool, n)
		for i, r := range ranks {
			if r < 1 || r > n || seen[r-1] {
				return nil, fmt.Errorf("%w: trial %d is not a permutation", ErrInvalidInput, t)
			}
			seen[r-1] = true
			trial.Order[r-1] = i
		}
		trial.Index = t
		trial.Rank = ranks
		acc.Observe(&trial)
		sectors.Observe(&trial)
	}

	components := acc.components()
	if table.SectorBonus() > 0 && len(breakaway.Tiers) > 0 && sectors.trials > 0 {
		bonus := float64(table.SectorBonus())
		for i := range components {
			components[i].ExpectedSectors = float64(sectors.sectors[i]) / float64(sectors.trials)
			components[i].Bonus = components[i].ExpectedSectors * bonus
		}
	}
	return components, nil
}
