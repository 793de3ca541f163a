package backtest

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Accuracy compares predicted expected points against actual points
type Accuracy struct {
	N        int     `json:"n"`
	MAE      float64 `json:"mae"`
	RMSE     float64 `json:"rmse"`
	Bias     float64 `json:"bias"`
	Pearson  float64 `json:"pearson"`
	Spearman float64 `json:"spearman"`
}

// CalculateAccuracy scores predicted against actual. Correlations are 0
// when either side has no spread.
func CalculateAccuracy(predicted, actual []float64) (Accuracy, error) {
	if len(predicted) != len(actual) {
		return Accuracy{}, fmt.Errorf("length mismatch: %d predicted, %d actual", len(predicted), len(actual))
	}
	n := len(predicted)
	if n == 0 {
		return Accuracy{}, fmt.Errorf("no competitors to score")
	}

	residuals := Residuals(predicted, actual)
	abs := make([]float64, n)
	sq := make([]float64, n)
	for i, r := range residuals {
		abs[i] = math.Abs(r)
		sq[i] = r * r
	}

	return Accuracy{
		N:        n,
		MAE:      stat.Mean(abs, nil),
		RMSE:     math.Sqrt(stat.Mean(sq, nil)),
		Bias:     stat.Mean(residuals, nil),
		Pearson:  correlation(predicted, actual),
		Spearman: correlation(ranks(predicted), ranks(actual)),
	}, nil
}

// Residuals returns predicted minus actual
func Residuals(predicted, actual []float64) []float64 {
	out := make([]float64, len(predicted))
	for i := range predicted {
		out[i] = predicted[i] - actual[i]
	}
	return out
}

func correlation(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// ranks assigns 1-based ranks, averaging ties.
func ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}
