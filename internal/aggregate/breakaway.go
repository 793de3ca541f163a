package aggregate

import (
	"fmt"

	"github.com/yourusername/peloton/internal/simulator"
)

// Tier credits Sectors breakaway sectors to every rank up to MaxRank that a
// better tier has not already claimed.
type Tier struct {
	MaxRank int `mapstructure:"max_rank" json:"max_rank"`
	Sectors int `mapstructure:"sectors" json:"sectors"`
}

// BreakawayConfig is the step function from simulated rank to sectors.
// Ranks beyond the last tier earn nothing.
type BreakawayConfig struct {
	Tiers []Tier `mapstructure:"tiers" json:"tiers"`
}

// DefaultBreakaway favours strong finishers late in the race and gives
// mid-pack riders early-sector credit.
func DefaultBreakaway() BreakawayConfig {
	return BreakawayConfig{Tiers: []Tier{
		{MaxRank: 3, Sectors: 3},
		{MaxRank: 10, Sectors: 2},
		{MaxRank: 25, Sectors: 1},
	}}
}

// Validate requires strictly ascending ranks and non-negative sectors.
func (b BreakawayConfig) Validate() error {
	prev := 0
	for i, t := range b.Tiers {
		if t.MaxRank <= prev {
			return fmt.Errorf("%w: breakaway tier %d max rank %d not ascending", ErrInvalidInput, i, t.MaxRank)
		}
		if t.Sectors < 0 {
			return fmt.Errorf("%w: breakaway tier %d has negative sectors", ErrInvalidInput, i)
		}
		prev = t.MaxRank
	}
	return nil
}

// Sectors returns the sectors credited at rank.
func (b BreakawayConfig) Sectors(rank int) int {
	for _, t := range b.Tiers {
		if rank <= t.MaxRank {
			return t.Sectors
		}
	}
	return 0
}

type sectorAccumulator struct {
	cfg     BreakawayConfig
	trials  int64
	sectors []int64
}

func (s *sectorAccumulator) Observe(t *simulator.Trial) {
	s.trials++
	for i, pos := range t.Rank {
		s.sectors[i] += int64(s.cfg.Sectors(pos))
	}
}

func (s *sectorAccumulator) merge(o *sectorAccumulator) {
	s.trials += o.trials
	for i := range s.sectors {
		s.sectors[i] += o.sectors[i]
	}
}
