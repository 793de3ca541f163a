package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/logger"
	"github.com/yourusername/peloton/internal/metrics"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/optimizer"
	"github.com/yourusername/peloton/internal/repository"
)

// RosterRules are the game's selection constraints.
type RosterRules struct {
	Size   int
	Budget int
	Minima map[models.Category]int
}

// Problem builds an optimizer problem from candidates under the rules.
func (r RosterRules) Problem(candidates []optimizer.Candidate) optimizer.Problem {
	return optimizer.Problem{
		Candidates: candidates,
		Size:       r.Size,
		Budget:     r.Budget,
		Minima:     r.Minima,
	}
}

// RosterService selects rosters from prediction runs and audits each outcome.
type RosterService struct {
	optimizer  *optimizer.Optimizer
	rules      RosterRules
	selections repository.RosterSelectionRepository
	audit      *logger.RosterAuditLogger
}

// NewRosterService creates a roster service. selections may be nil.
func NewRosterService(opt *optimizer.Optimizer, rules RosterRules, selections repository.RosterSelectionRepository, log *logrus.Logger) *RosterService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opt == nil {
		opt = optimizer.New(log, optimizer.Options{})
	}
	return &RosterService{
		optimizer:  opt,
		rules:      rules,
		selections: selections,
		audit:      logger.NewRosterAuditLogger(log),
	}
}

// Rules returns the selection constraints in use
func (s *RosterService) Rules() RosterRules {
	return s.rules
}

// Candidates scores each predicted competitor by its expected total.
func Candidates(run *models.PredictionRun) []optimizer.Candidate {
	out := make([]optimizer.Candidate, len(run.Predictions))
	for i, p := range run.Predictions {
		out[i] = optimizer.Candidate{
			Key:      p.Key,
			Cost:     p.Cost,
			Score:    p.ExpectedTotal,
			Category: p.Category,
		}
	}
	return out
}

// SelectRoster picks the highest expected-score roster within the rules.
func (s *RosterService) SelectRoster(ctx context.Context, run *models.PredictionRun) (*optimizer.Result, error) {
	return s.solve(ctx, run, optimizer.ObjectiveMaximizeScore, 0)
}

// CheapestBeating picks the cheapest roster whose expected score reaches target.
func (s *RosterService) CheapestBeating(ctx context.Context, run *models.PredictionRun, target float64) (*optimizer.Result, error) {
	return s.solve(ctx, run, optimizer.ObjectiveMinimizeCost, target)
}

func (s *RosterService) solve(ctx context.Context, run *models.PredictionRun, obj optimizer.Objective, target float64) (*optimizer.Result, error) {
	if run == nil {
		return nil, fmt.Errorf("%w: nil prediction run", optimizer.ErrInvalidProblem)
	}

	problem := s.rules.Problem(Candidates(run))
	start := time.Now()

	var (
		res *optimizer.Result
		err error
	)
	switch obj {
	case optimizer.ObjectiveMinimizeCost:
		res, err = s.optimizer.MinimizeCost(ctx, problem, target)
	default:
		res, err = s.optimizer.MaximizeScore(ctx, problem)
	}
	if err != nil {
		return nil, err
	}

	status := res.Status()
	metrics.RecordOptimizerRun(string(obj), string(status), res.Nodes, time.Since(start).Seconds())

	runID := run.ID.String()
	switch status {
	case optimizer.StatusOptimal:
		s.audit.LogSelection(runID, string(obj), res.Selection.Keys, res.Selection.TotalCost, res.Selection.TotalScore, res.Nodes)
	case optimizer.StatusNotOptimal:
		s.audit.LogNotOptimal(runID, string(obj), res.Nodes, res.Infeasible.Reason)
	default:
		s.audit.LogInfeasible(runID, string(obj), string(status), res.Infeasible.Reason)
	}

	if s.selections != nil {
		if err := s.selections.Create(ctx, selectionRecord(run, res)); err != nil {
			return nil, fmt.Errorf("failed to persist roster selection: %w", err)
		}
	}
	return res, nil
}

func selectionRecord(run *models.PredictionRun, res *optimizer.Result) *models.RosterSelection {
	rec := &models.RosterSelection{
		RunID:     run.ID,
		Objective: string(res.Objective),
		Status:    string(res.Status()),
	}
	if res.Selection != nil {
		rec.Keys = res.Selection.Keys
		rec.TotalCost = res.Selection.TotalCost
		rec.TotalScore = res.Selection.TotalScore
	} else {
		rec.Reason = res.Infeasible.Reason
	}
	return rec
}
