// Package optimizer selects rosters by solving a binary integer program with
// branch-and-bound over linear relaxations.
package optimizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yourusername/peloton/internal/models"
)

var (
	// ErrInvalidProblem indicates a problem that violates the input contract.
	ErrInvalidProblem = errors.New("invalid roster problem")

	// ErrInvalidSolution indicates a selection that failed re-verification.
	ErrInvalidSolution = errors.New("selection violates roster constraints")
)

// Objective names the quantity being optimized.
type Objective string

const (
	ObjectiveMaximizeScore Objective = "maximize_score"
	ObjectiveMinimizeCost  Objective = "minimize_cost"
)

// Status explains why no roster was returned.
type Status string

const (
	// StatusPrecheck means a counting argument ruled out every roster.
	StatusPrecheck Status = "precheck"
	// StatusInfeasible means the search proved no roster exists.
	StatusInfeasible Status = "infeasible"
	// StatusNotOptimal means the search stopped before certifying optimality.
	StatusNotOptimal Status = "not_optimal"
)

// StatusOptimal labels feasible results in logs and metrics.
const StatusOptimal Status = "optimal"

// Candidate is one selectable competitor.
type Candidate struct {
	Key      string
	Cost     int
	Score    float64
	Category models.Category
}

// Problem is a roster selection instance. Minima maps a category to the
// minimum number of selected candidates from it.
type Problem struct {
	Candidates []Candidate
	Size       int
	Budget     int
	Minima     map[models.Category]int
}

// Selection is a certified optimal roster.
type Selection struct {
	Keys       []string `json:"keys"`
	TotalCost  int      `json:"total_cost"`
	TotalScore float64  `json:"total_score"`
}

// Infeasible reports that no roster was produced and why.
type Infeasible struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// Result carries exactly one of Selection or Infeasible.
type Result struct {
	Objective  Objective   `json:"objective"`
	Selection  *Selection  `json:"selection,omitempty"`
	Infeasible *Infeasible `json:"infeasible,omitempty"`
	Nodes      int         `json:"nodes"`
}

// Feasible reports whether a roster was selected.
func (r *Result) Feasible() bool {
	return r.Selection != nil
}

// Status returns StatusOptimal for a selection, otherwise the infeasible status.
func (r *Result) Status() Status {
	if r.Selection != nil {
		return StatusOptimal
	}
	return r.Infeasible.Status
}

// Validate checks the input contract.
func (p *Problem) Validate() error {
	n := len(p.Candidates)
	if p.Size <= 0 || p.Size > n {
		return fmt.Errorf("%w: roster size %d with %d candidates", ErrInvalidProblem, p.Size, n)
	}
	if p.Budget < 0 {
		return fmt.Errorf("%w: negative budget %d", ErrInvalidProblem, p.Budget)
	}

	seen := make(map[string]struct{}, n)
	for i, c := range p.Candidates {
		if c.Key == "" {
			return fmt.Errorf("%w: candidate %d has no key", ErrInvalidProblem, i)
		}
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("%w: duplicate key %s", ErrInvalidProblem, c.Key)
		}
		seen[c.Key] = struct{}{}
		if c.Cost <= 0 {
			return fmt.Errorf("%w: candidate %s has cost %d", ErrInvalidProblem, c.Key, c.Cost)
		}
		if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			return fmt.Errorf("%w: candidate %s has score %v", ErrInvalidProblem, c.Key, c.Score)
		}
		if !canonicalCategory(c.Category) {
			return fmt.Errorf("%w: candidate %s has category %q", ErrInvalidProblem, c.Key, c.Category)
		}
	}

	for cat, min := range p.Minima {
		if cat == models.CategoryNone || !canonicalCategory(cat) {
			return fmt.Errorf("%w: quota for category %q", ErrInvalidProblem, cat)
		}
		if min < 0 {
			return fmt.Errorf("%w: negative quota %d for %s", ErrInvalidProblem, min, cat)
		}
	}
	return nil
}

func canonicalCategory(c models.Category) bool {
	parsed, err := models.ParseCategory(string(c))
	return err == nil && parsed == c
}

// precheck rules out problems whose quotas cannot be met by counting alone.
func (p *Problem) precheck() *Infeasible {
	counts := make(map[models.Category]int)
	for _, c := range p.Candidates {
		counts[c.Category]++
	}

	var reasons []string
	total := 0
	for _, cat := range sortedCategories(p.Minima) {
		min := p.Minima[cat]
		total += min
		if counts[cat] < min {
			reasons = append(reasons, fmt.Sprintf("category %s has %d candidates but requires %d", cat, counts[cat], min))
		}
	}
	if total > p.Size {
		reasons = append(reasons, fmt.Sprintf("category minima sum to %d but roster size is %d", total, p.Size))
	}
	if len(reasons) == 0 {
		return nil
	}
	return &Infeasible{Status: StatusPrecheck, Reason: strings.Join(reasons, "; ")}
}

// verify checks a selection against every constraint in integer arithmetic.
func (p *Problem) verify(obj Objective, keys []string, target float64) error {
	if len(keys) != p.Size {
		return fmt.Errorf("%w: %d selected, want %d", ErrInvalidSolution, len(keys), p.Size)
	}

	byKey := make(map[string]Candidate, len(p.Candidates))
	for _, c := range p.Candidates {
		byKey[c.Key] = c
	}

	cost := 0
	score := 0.0
	counts := make(map[models.Category]int)
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		c, ok := byKey[k]
		if !ok {
			return fmt.Errorf("%w: unknown key %s", ErrInvalidSolution, k)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s selected twice", ErrInvalidSolution, k)
		}
		seen[k] = struct{}{}
		cost += c.Cost
		score += c.Score
		counts[c.Category]++
	}

	if budgetApplies(obj, p.Budget) && cost > p.Budget {
		return fmt.Errorf("%w: cost %d exceeds budget %d", ErrInvalidSolution, cost, p.Budget)
	}
	for cat, min := range p.Minima {
		if counts[cat] < min {
			return fmt.Errorf("%w: %d %s selected, need %d", ErrInvalidSolution, counts[cat], cat, min)
		}
	}
	if obj == ObjectiveMinimizeCost && score < target-scoreTolerance(target) {
		return fmt.Errorf("%w: score %v below target %v", ErrInvalidSolution, score, target)
	}
	return nil
}

// budgetApplies reports whether the budget constrains obj. Cost minimization
// treats a zero budget as uncapped.
func budgetApplies(obj Objective, budget int) bool {
	return obj == ObjectiveMaximizeScore || budget > 0
}

func scoreTolerance(target float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(target))
}

func sortedCategories(m map[models.Category]int) []models.Category {
	out := make([]models.Category, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
