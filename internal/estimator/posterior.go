// Package estimator fuses noisy ability signals into a normal posterior on
// rider strength using sequential conjugate updates.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInvalidVariance indicates a non-positive or non-finite variance.
	ErrInvalidVariance = errors.New("variance must be positive and finite")

	// ErrInvalidObservation indicates a non-finite observation or prior mean.
	ErrInvalidObservation = errors.New("observation value must be finite")

	// ErrInvalidParams indicates estimator parameters that cannot be used.
	ErrInvalidParams = errors.New("invalid estimator parameters")
)

// Posterior is a normal belief about a competitor's strength.
type Posterior struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

// Precision returns 1/Variance.
func (p Posterior) Precision() float64 {
	return 1 / p.Variance
}

// StdDev returns the posterior standard deviation.
func (p Posterior) StdDev() float64 {
	return math.Sqrt(p.Variance)
}

func (p Posterior) validate() error {
	if math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0) {
		return fmt.Errorf("%w: prior mean %v", ErrInvalidObservation, p.Mean)
	}
	if !validVariance(p.Variance) {
		return fmt.Errorf("%w: prior variance %v", ErrInvalidVariance, p.Variance)
	}
	return nil
}

// SignalKind is the closed set of observation sources.
type SignalKind int

const (
	KindExternalRating SignalKind = iota
	KindSeasonalForm
	KindRaceHistory
	KindMarketOdds
)

func (k SignalKind) String() string {
	switch k {
	case KindExternalRating:
		return "external_rating"
	case KindSeasonalForm:
		return "seasonal_form"
	case KindRaceHistory:
		return "race_history"
	case KindMarketOdds:
		return "market_odds"
	default:
		return fmt.Sprintf("signal_kind(%d)", int(k))
	}
}

// Observation is one noisy measurement of strength on the standardized scale.
// Age is only meaningful for KindRaceHistory.
type Observation struct {
	Kind     SignalKind `json:"kind"`
	Value    float64    `json:"value"`
	Variance float64    `json:"variance"`
	Age      int        `json:"age,omitempty"`
}

// fusionRank orders observations from broad to specific; history is
// most recent first.
func (o Observation) fusionRank() (int, int) {
	switch o.Kind {
	case KindExternalRating:
		return 0, 0
	case KindSeasonalForm:
		return 1, 0
	case KindRaceHistory:
		return 2, o.Age
	default:
		return 3, 0
	}
}

// Update folds a single observation into prior.
func Update(prior Posterior, obs Observation) (Posterior, error) {
	if err := prior.validate(); err != nil {
		return Posterior{}, err
	}
	if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
		return Posterior{}, fmt.Errorf("%w: %s value %v", ErrInvalidObservation, obs.Kind, obs.Value)
	}
	if !validVariance(obs.Variance) {
		return Posterior{}, fmt.Errorf("%w: %s variance %v", ErrInvalidVariance, obs.Kind, obs.Variance)
	}

	priorPrecision := prior.Precision()
	obsPrecision := 1 / obs.Variance
	precision := priorPrecision + obsPrecision

	return Posterior{
		Mean:     (priorPrecision*prior.Mean + obsPrecision*obs.Value) / precision,
		Variance: 1 / precision,
	}, nil
}

// Estimate threads prior through every observation in fusion order. With no
// observations the prior is returned unchanged.
func Estimate(prior Posterior, observations []Observation) (Posterior, error) {
	if err := prior.validate(); err != nil {
		return Posterior{}, err
	}
	if len(observations) == 0 {
		return prior, nil
	}

	ordered := append([]Observation(nil), observations...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, ai := ordered[i].fusionRank()
		rj, aj := ordered[j].fusionRank()
		if ri != rj {
			return ri < rj
		}
		return ai < aj
	})

	post := prior
	for _, obs := range ordered {
		next, err := Update(post, obs)
		if err != nil {
			return Posterior{}, err
		}
		post = next
	}
	return post, nil
}

func validVariance(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
