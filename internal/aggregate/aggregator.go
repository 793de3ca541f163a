package aggregate

import (
	"context"
	"fmt"

	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/simulator"
)

// bonusStream names the seed stream used by the breakaway pass.
const bonusStream = 1

// Aggregator runs the simulator and reduces the streamed trials.
type Aggregator struct {
	breakaway BreakawayConfig
}

// New creates an aggregator with the given breakaway tiers.
func New(breakaway BreakawayConfig) (*Aggregator, error) {
	if err := breakaway.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{breakaway: breakaway}, nil
}

// Result holds per-competitor components and the simulation stats of the
// main pass.
type Result struct {
	Components []Components
	Stats      simulator.Stats
}

// Run streams sim's trials through per-worker accumulators and, when the
// table pays a sector bonus, runs a second pass on an independent seed
// stream for the breakaway component.
func (a *Aggregator) Run(ctx context.Context, sim *simulator.Simulator, means, stdDevs []float64, teams []string, table *scoring.Table) (*Result, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil scoring table", ErrInvalidInput)
	}
	if len(teams) != len(means) {
		return nil, fmt.Errorf("%w: %d teams for %d competitors", ErrInvalidInput, len(teams), len(means))
	}

	teammates := TeammateIndex(teams)
	var accs []*accumulator
	stats, err := sim.Run(ctx, means, stdDevs, func(int) simulator.Observer {
		acc := newAccumulator(table, teammates)
		accs = append(accs, acc)
		return acc
	})
	if err != nil {
		return nil, err
	}

	total := newAccumulator(table, teammates)
	for _, acc := range accs {
		total.merge(acc)
	}
	components := total.components()

	if table.SectorBonus() > 0 && len(a.breakaway.Tiers) > 0 {
		sectors, err := a.expectedSectors(ctx, sim, means, stdDevs)
		if err != nil {
			return nil, err
		}
		bonus := float64(table.SectorBonus())
		for i := range components {
			components[i].ExpectedSectors = sectors[i]
			components[i].Bonus = sectors[i] * bonus
		}
	}

	return &Result{Components: components, Stats: stats}, nil
}

func (a *Aggregator) expectedSectors(ctx context.Context, sim *simulator.Simulator, means, stdDevs []float64) ([]float64, error) {
	bonusSim := sim.WithSeed(simulator.StreamSeed(sim.Config().Seed, bonusStream))

	var accs []*sectorAccumulator
	if _, err := bonusSim.Run(ctx, means, stdDevs, func(int) simulator.Observer {
		acc := &sectorAccumulator{cfg: a.breakaway, sectors: make([]int64, len(means))}
		accs = append(accs, acc)
		return acc
	}); err != nil {
		return nil, fmt.Errorf("breakaway pass: %w", err)
	}

	total := &sectorAccumulator{cfg: a.breakaway, sectors: make([]int64, len(means))}
	for _, acc := range accs {
		total.merge(acc)
	}

	out := make([]float64, len(means))
	if total.trials == 0 {
		return out, nil
	}
	for i, s := range total.sectors {
		out[i] = float64(s) / float64(total.trials)
	}
	return out, nil
}
