package simulator

import (
	"math/rand"
	"sort"
)

func (b *buffer) runBlock(cfg Config, block int, means, stdDevs []float64, obs Observer) {
	rng := rand.New(rand.NewSource(blockSeed(cfg.Seed, block)))
	first := block * cfg.BlockSize
	last := first + cfg.BlockSize
	if last > cfg.Trials {
		last = cfg.Trials
	}

	for t := first; t < last; t++ {
		for i := range means {
			b.noisy[i] = means[i] + stdDevs[i]*rng.NormFloat64()
		}
		sort.Sort(b)
		for pos, idx := range b.trial.Order {
			b.trial.Rank[idx] = pos + 1
		}
		b.trial.Index = t
		obs.Observe(&b.trial)
	}
}
