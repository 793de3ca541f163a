package estimator

import (
	"fmt"
	"math"
)

// Params are the tunable variances and calibration constants of the fusion
// model. They are exposed for calibration and backtesting.
type Params struct {
	// PriorVariance applies when an external rating exists.
	PriorVariance float64 `json:"prior_variance"`
	// MissingPriorVariance applies when the prior falls back to the neutral mean.
	MissingPriorVariance float64 `json:"missing_prior_variance"`
	FormVariance         float64 `json:"form_variance"`
	HistoryBaseVariance  float64 `json:"history_base_variance"`
	// HistoryAgeDecay is added to the history variance per season of age.
	HistoryAgeDecay float64 `json:"history_age_decay"`
	// MaxHistoryAge drops results older than this many seasons; 0 keeps all.
	MaxHistoryAge   int     `json:"max_history_age"`
	OddsVariance    float64 `json:"odds_variance"`
	OddsCalibration float64 `json:"odds_calibration"`
}

// DefaultParams returns the parameters used when configuration omits them.
func DefaultParams() Params {
	return Params{
		PriorVariance:        1.0,
		MissingPriorVariance: 4.0,
		FormVariance:         0.8,
		HistoryBaseVariance:  1.2,
		HistoryAgeDecay:      0.6,
		MaxHistoryAge:        5,
		OddsVariance:         0.35,
		OddsCalibration:      2.0,
	}
}

// Validate rejects parameter sets that would corrupt every posterior.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"prior_variance", p.PriorVariance},
		{"missing_prior_variance", p.MissingPriorVariance},
		{"form_variance", p.FormVariance},
		{"history_base_variance", p.HistoryBaseVariance},
		{"odds_variance", p.OddsVariance},
		{"odds_calibration", p.OddsCalibration},
	}
	for _, c := range checks {
		if !validVariance(c.value) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, c.name, c.value)
		}
	}
	if p.HistoryAgeDecay < 0 || math.IsNaN(p.HistoryAgeDecay) || math.IsInf(p.HistoryAgeDecay, 0) {
		return fmt.Errorf("%w: history_age_decay must be non-negative, got %v", ErrInvalidParams, p.HistoryAgeDecay)
	}
	if p.MaxHistoryAge < 0 {
		return fmt.Errorf("%w: max_history_age must be non-negative, got %d", ErrInvalidParams, p.MaxHistoryAge)
	}
	return nil
}

// HistoryVariance grows linearly with the age of the result.
func (p Params) HistoryVariance(age int) float64 {
	return p.HistoryBaseVariance + p.HistoryAgeDecay*float64(age)
}

// OddsStrength maps an implied win probability to the standardized strength
// scale: log of the ratio to a uniform 1/fieldSize chance, divided by the
// calibration constant.
func (p Params) OddsStrength(impliedProbability float64, fieldSize int) (float64, error) {
	if impliedProbability <= 0 || impliedProbability > 1 || fieldSize <= 0 {
		return 0, fmt.Errorf("%w: implied probability %v with field size %d", ErrInvalidObservation, impliedProbability, fieldSize)
	}
	return math.Log(impliedProbability*float64(fieldSize)) / p.OddsCalibration, nil
}
