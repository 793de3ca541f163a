// Package simulator draws noisy strength realizations and ranks them into
// simulated finishing orders.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"
)

const (
	// DefaultTrials is the number of trials when Config.Trials is unset.
	DefaultTrials = 10000

	// DefaultBlockSize is the number of trials sharing one RNG stream.
	DefaultBlockSize = 250
)

// ErrInvalidInput indicates malformed means or standard deviations.
var ErrInvalidInput = errors.New("invalid simulation input")

// Config controls a simulation run. Seed 0 draws a time-based seed.
type Config struct {
	Trials    int
	Workers   int
	Seed      int64
	BlockSize int
}

func (c Config) withDefaults() Config {
	if c.Trials <= 0 {
		c.Trials = DefaultTrials
	}
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Trial is one simulated finishing order. Order[p] is the competitor index in
// position p+1 and Rank[i] is the 1-based position of competitor i. The
// slices are reused after Observe returns.
type Trial struct {
	Index int
	Order []int
	Rank  []int
}

// Observer consumes trials. Each worker owns its own observer.
type Observer interface {
	Observe(t *Trial)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t *Trial)

// Observe calls f(t).
func (f ObserverFunc) Observe(t *Trial) { f(t) }

// Factory builds the observer for worker w. It is called from the goroutine
// running Run, before any worker starts.
type Factory func(w int) Observer

// Stats describes a completed run.
type Stats struct {
	Trials   int
	Blocks   int
	Workers  int
	Seed     int64
	Duration time.Duration
}

// Simulator runs Monte Carlo race simulations.
type Simulator struct {
	cfg Config
}

// New creates a simulator. Zero fields of cfg take defaults; a zero seed is
// resolved once here so every run of this simulator shares it.
func New(cfg Config) *Simulator {
	return &Simulator{cfg: cfg.withDefaults()}
}

// Config returns the resolved configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// WithSeed returns a copy of the simulator using seed.
func (s *Simulator) WithSeed(seed int64) *Simulator {
	cfg := s.cfg
	cfg.Seed = seed
	return New(cfg)
}

// Run simulates cfg.Trials races and hands each to an observer. Trials are
// split into blocks whose RNG is seeded from (seed, block index), so the set
// of trials produced does not depend on the worker count.
func (s *Simulator) Run(ctx context.Context, means, stdDevs []float64, factory Factory) (Stats, error) {
	if err := validate(means, stdDevs); err != nil {
		return Stats{}, err
	}

	start := time.Now()
	cfg := s.cfg
	blocks := (cfg.Trials + cfg.BlockSize - 1) / cfg.BlockSize
	workers := cfg.Workers
	if workers > blocks {
		workers = blocks
	}

	work := make(chan int)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		obs := factory(w)
		wg.Add(1)
		go func(obs Observer) {
			defer wg.Done()
			buf := newBuffer(len(means))
			for b := range work {
				buf.runBlock(cfg, b, means, stdDevs, obs)
			}
		}(obs)
	}

	go func() {
		defer close(work)
		for b := 0; b < blocks; b++ {
			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}
			select {
			case work <- b:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	wg.Wait()

	select {
	case err := <-errs:
		return Stats{}, fmt.Errorf("simulation cancelled: %w", err)
	default:
	}

	return Stats{
		Trials:   cfg.Trials,
		Blocks:   blocks,
		Workers:  workers,
		Seed:     cfg.Seed,
		Duration: time.Since(start),
	}, nil
}

// Rankings materializes the rank of every competitor in every trial. It is
// meant for small inputs and tests.
func (s *Simulator) Rankings(ctx context.Context, means, stdDevs []float64) ([][]int, error) {
	out := make([][]int, s.cfg.Trials)
	_, err := s.Run(ctx, means, stdDevs, func(int) Observer {
		return ObserverFunc(func(t *Trial) {
			out[t.Index] = append([]int(nil), t.Rank...)
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validate(means, stdDevs []float64) error {
	if len(means) == 0 {
		return fmt.Errorf("%w: no competitors", ErrInvalidInput)
	}
	if len(means) != len(stdDevs) {
		return fmt.Errorf("%w: %d means but %d standard deviations", ErrInvalidInput, len(means), len(stdDevs))
	}
	for i := range means {
		if math.IsNaN(means[i]) || math.IsInf(means[i], 0) {
			return fmt.Errorf("%w: mean %d is %v", ErrInvalidInput, i, means[i])
		}
		if stdDevs[i] < 0 || math.IsNaN(stdDevs[i]) || math.IsInf(stdDevs[i], 0) {
			return fmt.Errorf("%w: standard deviation %d is %v", ErrInvalidInput, i, stdDevs[i])
		}
	}
	return nil
}

// blockSeed derives an independent stream seed with a splitmix64 step.
func blockSeed(seed int64, block int) int64 {
	z := uint64(seed) + uint64(block+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// StreamSeed derives a seed for an auxiliary pass that must not share random
// numbers with the main pass.
func StreamSeed(seed int64, stream int) int64 {
	return blockSeed(seed, -1-stream)
}

// buffer is a worker's reusable trial storage; it sorts Order by noisy
// strength descending with index as tie-break.
type buffer struct {
	noisy []float64
	trial Trial
}

func newBuffer(n int) *buffer {
	b := &buffer{
		noisy: make([]float64, n),
		trial: Trial{Order: make([]int, n), Rank: make([]int, n)},
	}
	for i := range b.trial.Order {
		b.trial.Order[i] = i
	}
	return b
}

func (b *buffer) Len() int { return len(b.trial.Order) }

func (b *buffer) Less(i, j int) bool {
	a, c := b.trial.Order[i], b.trial.Order[j]
	if b.noisy[a] != b.noisy[c] {
		return b.noisy[a] > b.noisy[c]
	}
	return a < c
}

func (b *buffer) Swap(i, j int) {
	b.trial.Order[i], b.trial.Order[j] = b.trial.Order[j], b.trial.Order[i]
}
