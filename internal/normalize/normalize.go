// Package normalize rescales raw signals onto a common standardized scale.
package normalize

import (
	"gonum.org/v1/gonum/stat"
)

// Neutral is the standardized value assigned to absent observations.
const Neutral = 0.0

// Standardized holds z-scores alongside the presence mask of the raw input.
// Informative is false when the present values carry no spread to scale by
// (fewer than two of them, or all equal).
type Standardized struct {
	Z           []float64
	Present     []bool
	Mean        float64
	StdDev      float64
	Informative bool
}

// Value returns the z-score at i and whether it carries information: the raw
// value existed and the column was informative.
func (s Standardized) Value(i int) (float64, bool) {
	if i < 0 || i >= len(s.Z) {
		return Neutral, false
	}
	return s.Z[i], s.Present[i] && s.Informative
}

// PresentCount returns how many raw values were present.
func (s Standardized) PresentCount() int {
	n := 0
	for _, p := range s.Present {
		if p {
			n++
		}
	}
	return n
}

// Standardize converts values to z-scores using the sample mean and sample
// standard deviation of the present values. Absent values map to Neutral.
// With fewer than two present values, or zero spread, every z-score is Neutral.
func Standardize(values []*float64) Standardized {
	out := Standardized{
		Z:       make([]float64, len(values)),
		Present: make([]bool, len(values)),
	}

	present := make([]float64, 0, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		out.Present[i] = true
		present = append(present, *v)
	}
	if len(present) < 2 {
		return out
	}

	mean, std := stat.MeanStdDev(present, nil)
	out.Mean = mean
	out.StdDev = std
	if std == 0 {
		return out
	}
	out.Informative = true

	for i, v := range values {
		if v == nil {
			continue
		}
		out.Z[i] = (*v - mean) / std
	}
	return out
}

// StandardizeDense is Standardize for inputs without missing values.
func StandardizeDense(values []float64) []float64 {
	ptrs := make([]*float64, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	return Standardize(ptrs).Z
}
