package backtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/yourusername/peloton/internal/estimator"
)

// CalibrationResult scores one grid point
type CalibrationResult struct {
	Params       estimator.Params `json:"params"`
	MeanMAE      float64          `json:"mean_mae"`
	MeanRMSE     float64          `json:"mean_rmse"`
	MeanSpearman float64          `json:"mean_spearman"`
}

// Candidates expands the grid over base. Points are ordered by odds
// calibration, then odds variance, then form variance.
func (g Grid) Candidates(base estimator.Params) []estimator.Params {
	orBase := func(values []float64, v float64) []float64 {
		if len(values) == 0 {
			return []float64{v}
		}
		return values
	}

	var out []estimator.Params
	for _, oc := range orBase(g.OddsCalibration, base.OddsCalibration) {
		for _, ov := range orBase(g.OddsVariance, base.OddsVariance) {
			for _, fv := range orBase(g.FormVariance, base.FormVariance) {
				p := base
				p.OddsCalibration = oc
				p.OddsVariance = ov
				p.FormVariance = fv
				out = append(out, p)
			}
		}
	}
	return out
}

// Calibrate scores every grid point on data and returns them best first
// by mean absolute error. Ties keep grid order.
func (e *Engine) Calibrate(ctx context.Context, data []EventData, grid Grid) ([]CalibrationResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("calibration requires at least one event")
	}

	candidates := grid.Candidates(e.Params())
	results := make([]CalibrationResult, 0, len(candidates))
	for _, params := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		engine, err := e.WithParams(params)
		if err != nil {
			return nil, fmt.Errorf("invalid calibration point: %w", err)
		}

		res := CalibrationResult{Params: params}
		for _, d := range data {
			acc, err := engine.accuracy(ctx, d)
			if err != nil {
				return nil, err
			}
			res.MeanMAE += acc.MAE
			res.MeanRMSE += acc.RMSE
			res.MeanSpearman += acc.Spearman
		}
		n := float64(len(data))
		res.MeanMAE /= n
		res.MeanRMSE /= n
		res.MeanSpearman /= n

		e.logger.LogCalibrationCandidate(params.OddsCalibration, params.OddsVariance, params.FormVariance, res.MeanMAE)
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].MeanMAE < results[j].MeanMAE })
	return results, nil
}
