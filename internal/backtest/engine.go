// Package backtest scores prediction runs against completed events and
// calibrates estimator parameters on them.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/estimator"
	"github.com/yourusername/peloton/internal/logger"
	"github.com/yourusername/peloton/internal/metrics"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/optimizer"
	"github.com/yourusername/peloton/internal/service"
)

// EventData is a completed event's pool together with its actual result
type EventData struct {
	Ref    EventRef
	Pool   []models.Competitor
	Result *models.EventResult
}

// RosterOutcome is one roster scored both ways
type RosterOutcome struct {
	Keys          []string `json:"keys,omitempty"`
	Cost          int      `json:"cost"`
	ExpectedScore float64  `json:"expected_score"`
	RealizedScore float64  `json:"realized_score"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason,omitempty"`
}

// EventEvaluation is the backtest outcome for one event
type EventEvaluation struct {
	EventID    string    `json:"event_id"`
	EventClass string    `json:"event_class"`
	RunID      string    `json:"run_id"`
	Accuracy   Accuracy  `json:"accuracy"`
	Residuals  []float64 `json:"-"`
	// Chosen maximizes expected points; Oracle maximizes actual points;
	// Cheapest is the lowest-cost roster whose actual points reach Target.
	Chosen   RosterOutcome  `json:"chosen"`
	Oracle   RosterOutcome  `json:"oracle"`
	Cheapest *RosterOutcome `json:"cheapest,omitempty"`
	Target   float64        `json:"target"`
}

// Engine runs predictions over completed events
type Engine struct {
	predictions *service.PredictionService
	optimizer   *optimizer.Optimizer
	rules       service.RosterRules
	source      datasource.PoolSource
	target      float64
	logger      *logger.BacktestLogger
}

// NewEngine creates a backtest engine. A zero targetScore compares the
// cheapest roster against the chosen roster's realized score.
func NewEngine(predictions *service.PredictionService, opt *optimizer.Optimizer, rules service.RosterRules, source datasource.PoolSource, targetScore float64, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opt == nil {
		opt = optimizer.New(log, optimizer.Options{})
	}
	return &Engine{
		predictions: predictions,
		optimizer:   opt,
		rules:       rules,
		source:      source,
		target:      targetScore,
		logger:      logger.NewBacktestLogger(log),
	}
}

// WithParams returns a copy of the engine predicting with params
func (e *Engine) WithParams(params estimator.Params) (*Engine, error) {
	predictions, err := e.predictions.WithParams(params)
	if err != nil {
		return nil, err
	}
	clone := *e
	clone.predictions = predictions
	return &clone, nil
}

// Params returns the estimator parameters in use
func (e *Engine) Params() estimator.Params {
	return e.predictions.Params()
}

// Load fetches every event's pool and result from the source
func (e *Engine) Load(ctx context.Context, refs []EventRef) ([]EventData, error) {
	if e.source == nil {
		return nil, fmt.Errorf("backtest requires a pool source")
	}
	out := make([]EventData, 0, len(refs))
	for _, ref := range refs {
		pool, err := e.source.FetchPool(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load pool for %s: %w", ref.ID, err)
		}
		result, err := e.source.FetchResult(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load result for %s: %w", ref.ID, err)
		}
		out = append(out, EventData{Ref: ref, Pool: pool.Competitors, Result: result})
	}
	return out, nil
}

// Run evaluates every event and summarizes the outcome
func (e *Engine) Run(ctx context.Context, data []EventData) (Summary, error) {
	start := time.Now()
	evals := make([]*EventEvaluation, 0, len(data))
	for _, d := range data {
		eval, err := e.Evaluate(ctx, d)
		if err != nil {
			metrics.RecordBacktestRun("failure", time.Since(start).Seconds())
			return Summary{}, err
		}
		evals = append(evals, eval)
	}
	metrics.RecordBacktestRun("success", time.Since(start).Seconds())
	return Summarize(e.Params(), evals), nil
}

// Evaluate predicts one event and scores the prediction and its rosters
func (e *Engine) Evaluate(ctx context.Context, d EventData) (*EventEvaluation, error) {
	run, err := e.predict(ctx, d)
	if err != nil {
		return nil, err
	}

	predicted, actual := pairs(run, d.Result)
	acc, err := CalculateAccuracy(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", d.Ref.ID, err)
	}

	eval := &EventEvaluation{
		EventID:    d.Ref.ID,
		EventClass: string(d.Ref.Class),
		RunID:      run.ID.String(),
		Accuracy:   acc,
		Residuals:  Residuals(predicted, actual),
	}

	expected := service.Candidates(run)
	realized := actualCandidates(run, d.Result)

	chosen, err := e.optimizer.MaximizeScore(ctx, e.rules.Problem(expected))
	if err != nil {
		return nil, fmt.Errorf("event %s chosen roster: %w", d.Ref.ID, err)
	}
	eval.Chosen = outcome(chosen, run, d.Result)

	oracle, err := e.optimizer.MaximizeScore(ctx, e.rules.Problem(realized))
	if err != nil {
		return nil, fmt.Errorf("event %s oracle roster: %w", d.Ref.ID, err)
	}
	eval.Oracle = outcome(oracle, run, d.Result)

	eval.Target = e.target
	if eval.Target == 0 && chosen.Feasible() {
		eval.Target = eval.Chosen.RealizedScore
	}
	if eval.Target > 0 {
		cheapest, err := e.optimizer.MinimizeCost(ctx, e.rules.Problem(realized), eval.Target)
		if err != nil {
			return nil, fmt.Errorf("event %s cheapest roster: %w", d.Ref.ID, err)
		}
		out := outcome(cheapest, run, d.Result)
		eval.Cheapest = &out
	}

	metrics.RecordBacktestMAE(eval.EventClass, acc.MAE)
	e.logger.LogEvaluation(d.Ref.ID, acc.N, acc.MAE, acc.RMSE, acc.Spearman)
	return eval, nil
}

// accuracy predicts one event and scores only the point estimates
func (e *Engine) accuracy(ctx context.Context, d EventData) (Accuracy, error) {
	run, err := e.predict(ctx, d)
	if err != nil {
		return Accuracy{}, err
	}
	predicted, actual := pairs(run, d.Result)
	return CalculateAccuracy(predicted, actual)
}

func (e *Engine) predict(ctx context.Context, d EventData) (*models.PredictionRun, error) {
	if d.Result == nil {
		return nil, fmt.Errorf("event %s has no result", d.Ref.ID)
	}
	run, err := e.predictions.Predict(ctx, service.Event{ID: d.Ref.ID, Class: d.Ref.Class, Pool: d.Pool})
	if err != nil {
		return nil, fmt.Errorf("failed to predict %s: %w", d.Ref.ID, err)
	}
	return run, nil
}

func pairs(run *models.PredictionRun, result *models.EventResult) (predicted, actual []float64) {
	predicted = make([]float64, len(run.Predictions))
	actual = make([]float64, len(run.Predictions))
	for i, p := range run.Predictions {
		predicted[i] = p.ExpectedTotal
		actual[i] = float64(result.PointsFor(p.Key))
	}
	return predicted, actual
}

func actualCandidates(run *models.PredictionRun, result *models.EventResult) []optimizer.Candidate {
	out := service.Candidates(run)
	for i := range out {
		out[i].Score = float64(result.PointsFor(out[i].Key))
	}
	return out
}

func outcome(res *optimizer.Result, run *models.PredictionRun, result *models.EventResult) RosterOutcome {
	out := RosterOutcome{Status: string(res.Status())}
	if !res.Feasible() {
		out.Reason = res.Infeasible.Reason
		return out
	}
	byKey := run.ByKey()
	out.Keys = res.Selection.Keys
	out.Cost = res.Selection.TotalCost
	for _, k := range res.Selection.Keys {
		out.ExpectedScore += byKey[k].ExpectedTotal
		out.RealizedScore += float64(result.PointsFor(k))
	}
	return out
}
