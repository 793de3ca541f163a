package backtest

import (
	"github.com/yourusername/peloton/internal/estimator"
)

// Summary aggregates evaluations across events
type Summary struct {
	Params       estimator.Params   `json:"params"`
	Evaluations  []*EventEvaluation `json:"evaluations"`
	MeanMAE      float64            `json:"mean_mae"`
	MeanRMSE     float64            `json:"mean_rmse"`
	MeanSpearman float64            `json:"mean_spearman"`
	// RealizedTotal and OracleTotal sum actual points of the chosen and
	// oracle rosters over events where both were feasible.
	RealizedTotal float64 `json:"realized_total"`
	OracleTotal   float64 `json:"oracle_total"`
	Efficiency    float64 `json:"efficiency"`
	CostSaved     int     `json:"cost_saved"`
}

// Summarize aggregates evals. Efficiency is realized over oracle points.
func Summarize(params estimator.Params, evals []*EventEvaluation) Summary {
	s := Summary{Params: params, Evaluations: evals}
	if len(evals) == 0 {
		return s
	}

	for _, e := range evals {
		s.MeanMAE += e.Accuracy.MAE
		s.MeanRMSE += e.Accuracy.RMSE
		s.MeanSpearman += e.Accuracy.Spearman
		if e.Chosen.Keys != nil && e.Oracle.Keys != nil {
			s.RealizedTotal += e.Chosen.RealizedScore
			s.OracleTotal += e.Oracle.RealizedScore
		}
		if e.Cheapest != nil && e.Cheapest.Keys != nil && e.Chosen.Keys != nil {
			s.CostSaved += e.Chosen.Cost - e.Cheapest.Cost
		}
	}
	n := float64(len(evals))
	s.MeanMAE /= n
	s.MeanRMSE /= n
	s.MeanSpearman /= n
	if s.OracleTotal > 0 {
		s.Efficiency = s.RealizedTotal / s.OracleTotal
	}
	return s
}
