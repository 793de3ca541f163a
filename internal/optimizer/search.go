package optimizer

import (
	"context"
	"math"
	"sort"

	"github.com/yourusername/peloton/internal/models"
)

// ctxCheckInterval is how many nodes pass between context checks.
const ctxCheckInterval = 64

const (
	free     int8 = -1
	excluded int8 = 0
	included int8 = 1
)

// search is a depth-first branch-and-bound over include/exclude decisions.
type search struct {
	ctx       context.Context
	prob      *Problem
	obj       Objective
	target    float64
	budget    bool
	nodeLimit int

	cats     []models.Category
	catIndex []int
	fixed    []int8

	nodes      int
	lpFailures int
	aborted    bool
	err        error

	found     bool
	best      []int
	bestCost  int
	bestScore float64
}

type nodeState struct {
	chosen    []int
	free      []int
	need      int
	costUsed  int
	scoreUsed float64
	catNeed   []int
}

func newSearch(ctx context.Context, p *Problem, obj Objective, target float64, nodeLimit int) *search {
	s := &search{
		ctx:       ctx,
		prob:      p,
		obj:       obj,
		target:    target,
		budget:    budgetApplies(obj, p.Budget),
		nodeLimit: nodeLimit,
		catIndex:  make([]int, len(p.Candidates)),
		fixed:     make([]int8, len(p.Candidates)),
	}

	for _, cat := range sortedCategories(p.Minima) {
		if p.Minima[cat] > 0 {
			s.cats = append(s.cats, cat)
		}
	}
	for i, c := range p.Candidates {
		s.fixed[i] = free
		s.catIndex[i] = -1
		for ci, cat := range s.cats {
			if c.Category == cat {
				s.catIndex[i] = ci
			}
		}
	}
	return s
}

func (s *search) run() {
	s.node()
}

func (s *search) node() {
	if s.aborted || s.err != nil {
		return
	}
	s.nodes++
	if s.nodes > s.nodeLimit {
		s.aborted = true
		return
	}
	if s.nodes%ctxCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return
		}
	}

	st, ok := s.state()
	if !ok {
		return
	}
	if st.need == 0 {
		s.consider(st.chosen, st.costUsed, st.scoreUsed)
		return
	}

	bound := s.cheapBound(st)
	if s.found && !s.improves(bound) {
		return
	}

	branch := st.free[0]
	r := s.relax(st)
	if r.infeasible {
		return
	}
	if r.ok {
		if s.found && !s.improves(r.bound) {
			return
		}
		if r.integral && s.acceptIntegral(st, r.x) {
			return
		}
		if !r.integral {
			branch = r.branch
		}
	}

	s.fixed[branch] = included
	s.node()
	s.fixed[branch] = excluded
	s.node()
	s.fixed[branch] = free
}

// state summarizes the fixed decisions and rejects nodes that counting
// arguments already rule out.
func (s *search) state() (*nodeState, bool) {
	st := &nodeState{catNeed: make([]int, len(s.cats))}
	freeInCat := make([]int, len(s.cats))
	chosenInCat := make([]int, len(s.cats))

	for i, f := range s.fixed {
		c := s.prob.Candidates[i]
		switch f {
		case included:
			st.chosen = append(st.chosen, i)
			st.costUsed += c.Cost
			st.scoreUsed += c.Score
			if ci := s.catIndex[i]; ci >= 0 {
				chosenInCat[ci]++
			}
		case free:
			st.free = append(st.free, i)
			if ci := s.catIndex[i]; ci >= 0 {
				freeInCat[ci]++
			}
		}
	}

	st.need = s.prob.Size - len(st.chosen)
	if st.need < 0 || len(st.free) < st.need {
		return nil, false
	}
	if s.budget && st.costUsed > s.prob.Budget {
		return nil, false
	}

	totalNeed := 0
	for ci, cat := range s.cats {
		need := s.prob.Minima[cat] - chosenInCat[ci]
		if need < 0 {
			need = 0
		}
		if freeInCat[ci] < need {
			return nil, false
		}
		st.catNeed[ci] = need
		totalNeed += need
	}
	if totalNeed > st.need {
		return nil, false
	}

	if st.need > 0 {
		if s.budget && st.costUsed+s.cheapestCost(st) > s.prob.Budget {
			return nil, false
		}
		if s.obj == ObjectiveMinimizeCost && st.scoreUsed+s.topScore(st) < s.target-scoreTolerance(s.target) {
			return nil, false
		}
	}
	return st, true
}

// cheapBound ignores category and budget coupling.
func (s *search) cheapBound(st *nodeState) float64 {
	if s.obj == ObjectiveMaximizeScore {
		return st.scoreUsed + s.topScore(st)
	}
	return float64(st.costUsed + s.cheapestCost(st))
}

func (s *search) cheapestCost(st *nodeState) int {
	costs := make([]int, len(st.free))
	for j, idx := range st.free {
		costs[j] = s.prob.Candidates[idx].Cost
	}
	sort.Ints(costs)
	total := 0
	for _, c := range costs[:st.need] {
		total += c
	}
	return total
}

func (s *search) topScore(st *nodeState) float64 {
	scores := make([]float64, len(st.free))
	for j, idx := range st.free {
		scores[j] = s.prob.Candidates[idx].Score
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	total := 0.0
	for _, v := range scores[:st.need] {
		total += v
	}
	return total
}

// improves reports whether a subtree with the given bound can beat the
// incumbent.
func (s *search) improves(bound float64) bool {
	if s.obj == ObjectiveMaximizeScore {
		return bound > s.bestScore+scoreTolerance(s.bestScore)
	}
	return bound <= float64(s.bestCost-1)+integralTolerance
}

// acceptIntegral records an integral LP optimum once it checks out exactly.
func (s *search) acceptIntegral(st *nodeState, x []float64) bool {
	chosen := append([]int(nil), st.chosen...)
	cost, score := st.costUsed, st.scoreUsed
	for j, v := range x {
		if v > 0.5 {
			idx := st.free[j]
			chosen = append(chosen, idx)
			cost += s.prob.Candidates[idx].Cost
			score += s.prob.Candidates[idx].Score
		}
	}
	if len(chosen) != s.prob.Size || (s.budget && cost > s.prob.Budget) {
		return false
	}

	counts := make([]int, len(s.cats))
	for _, idx := range chosen {
		if ci := s.catIndex[idx]; ci >= 0 {
			counts[ci]++
		}
	}
	for ci, cat := range s.cats {
		if counts[ci] < s.prob.Minima[cat] {
			return false
		}
	}
	if s.obj == ObjectiveMinimizeCost && score < s.target-scoreTolerance(s.target) {
		return false
	}

	s.consider(chosen, cost, score)
	return true
}

// consider replaces the incumbent when the complete roster is better.
func (s *search) consider(chosen []int, cost int, score float64) {
	if s.obj == ObjectiveMinimizeCost && score < s.target-scoreTolerance(s.target) {
		return
	}

	better := !s.found
	if s.found {
		switch s.obj {
		case ObjectiveMaximizeScore:
			better = score > s.bestScore+scoreTolerance(s.bestScore) ||
				(math.Abs(score-s.bestScore) <= scoreTolerance(s.bestScore) && cost < s.bestCost)
		default:
			better = cost < s.bestCost || (cost == s.bestCost && score > s.bestScore)
		}
	}
	if !better {
		return
	}

	s.found = true
	s.best = append(s.best[:0], chosen...)
	s.bestCost = cost
	s.bestScore = score
}
