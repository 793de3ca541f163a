package backtest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// BootstrapConfig configures resampling of absolute errors
type BootstrapConfig struct {
	Iterations      int
	ConfidenceLevel float64
	Seed            int64
}

// BootstrapResult is the sampling distribution of the mean absolute error
type BootstrapResult struct {
	Iterations int     `json:"iterations"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
}

// BootstrapMAE resamples the pooled residuals of evals with replacement.
func BootstrapMAE(evals []*EventEvaluation, cfg BootstrapConfig) (BootstrapResult, error) {
	var abs []float64
	for _, e := range evals {
		for _, r := range e.Residuals {
			abs = append(abs, math.Abs(r))
		}
	}
	if len(abs) == 0 {
		return BootstrapResult{}, fmt.Errorf("no residuals to resample")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1 {
		cfg.ConfidenceLevel = 0.95
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)
	for i := range distribution {
		var sum float64
		for range abs {
			sum += abs[rng.Intn(len(abs))]
		}
		distribution[i] = sum / float64(len(abs))
	}
	sort.Float64s(distribution)

	mean, std := stat.MeanStdDev(distribution, nil)
	if math.IsNaN(std) {
		std = 0
	}
	tail := (1 - cfg.ConfidenceLevel) / 2
	return BootstrapResult{
		Iterations: cfg.Iterations,
		Mean:       mean,
		StdDev:     std,
		Lower:      stat.Quantile(tail, stat.Empirical, distribution, nil),
		Upper:      stat.Quantile(1-tail, stat.Empirical, distribution, nil),
	}, nil
}
