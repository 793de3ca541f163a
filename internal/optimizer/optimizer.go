package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultNodeLimit bounds the branch-and-bound tree when Options leave it unset.
const DefaultNodeLimit = 200000

// Options tune the search.
type Options struct {
	NodeLimit int
}

// Optimizer solves roster problems.
type Optimizer struct {
	nodeLimit int
	logger    *logrus.Entry
}

// New creates an optimizer. A nil logger uses the logrus standard logger.
func New(logger *logrus.Logger, opts Options) *Optimizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.NodeLimit <= 0 {
		opts.NodeLimit = DefaultNodeLimit
	}
	return &Optimizer{
		nodeLimit: opts.NodeLimit,
		logger:    logger.WithField("component", "optimizer"),
	}
}

// MaximizeScore selects exactly p.Size candidates with total cost within
// p.Budget and every category minimum met, maximizing total score.
func (o *Optimizer) MaximizeScore(ctx context.Context, p Problem) (*Result, error) {
	return o.solve(ctx, p, ObjectiveMaximizeScore, 0)
}

// MinimizeCost selects the cheapest roster whose total score reaches target.
// A zero budget leaves cost uncapped.
func (o *Optimizer) MinimizeCost(ctx context.Context, p Problem, target float64) (*Result, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, fmt.Errorf("%w: target score %v", ErrInvalidProblem, target)
	}
	return o.solve(ctx, p, ObjectiveMinimizeCost, target)
}

func (o *Optimizer) solve(ctx context.Context, p Problem, obj Objective, target float64) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	log := o.logger.WithFields(logrus.Fields{
		"objective":  obj,
		"candidates": len(p.Candidates),
		"size":       p.Size,
		"budget":     p.Budget,
	})

	if inf := p.precheck(); inf != nil {
		log.WithField("reason", inf.Reason).Debug("Roster problem rejected by precheck")
		return &Result{Objective: obj, Infeasible: inf}, nil
	}

	start := time.Now()
	s := newSearch(ctx, &p, obj, target, o.nodeLimit)
	s.run()
	if s.err != nil {
		return nil, fmt.Errorf("roster search cancelled: %w", s.err)
	}

	log = log.WithFields(logrus.Fields{
		"nodes":       s.nodes,
		"lp_failures": s.lpFailures,
		"duration":    time.Since(start),
	})

	res := &Result{Objective: obj, Nodes: s.nodes}
	switch {
	case s.aborted:
		res.Infeasible = &Infeasible{
			Status: StatusNotOptimal,
			Reason: fmt.Sprintf("search stopped after %d nodes without certifying optimality", o.nodeLimit),
		}
		log.Warn("Roster search hit node limit; no roster returned")
		return res, nil
	case !s.found:
		res.Infeasible = &Infeasible{Status: StatusInfeasible, Reason: infeasibleReason(&p, obj, target)}
		log.Debug("Roster search proved infeasibility")
		return res, nil
	}

	indices := append([]int(nil), s.best...)
	sort.Ints(indices)
	sel := &Selection{Keys: make([]string, len(indices))}
	for i, idx := range indices {
		c := p.Candidates[idx]
		sel.Keys[i] = c.Key
		sel.TotalCost += c.Cost
		sel.TotalScore += c.Score
	}
	if err := p.verify(obj, sel.Keys, target); err != nil {
		return nil, err
	}

	res.Selection = sel
	log.WithFields(logrus.Fields{
		"total_cost":  sel.TotalCost,
		"total_score": sel.TotalScore,
	}).Debug("Roster search completed")
	return res, nil
}

func infeasibleReason(p *Problem, obj Objective, target float64) string {
	if obj == ObjectiveMinimizeCost {
		if budgetApplies(obj, p.Budget) {
			return fmt.Sprintf("no roster of %d reaches score %.2f within budget %d and category minima", p.Size, target, p.Budget)
		}
		return fmt.Sprintf("no roster of %d reaches score %.2f under the category minima", p.Size, target)
	}
	return fmt.Sprintf("no roster of %d fits budget %d under the category minima", p.Size, p.Budget)
}

// MaximizeScore solves p with a default optimizer.
func MaximizeScore(ctx context.Context, p Problem) (*Result, error) {
	return New(nil, Options{}).MaximizeScore(ctx, p)
}

// MinimizeCost solves p with a default optimizer.
func MinimizeCost(ctx context.Context, p Problem, target float64) (*Result, error) {
	return New(nil, Options{}).MinimizeCost(ctx, p, target)
}
