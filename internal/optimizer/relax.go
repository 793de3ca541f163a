package optimizer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	lpTolerance       = 1e-10
	integralTolerance = 1e-6
)

// relaxation is the outcome of solving a node's LP relaxation.
type relaxation struct {
	ok         bool
	infeasible bool
	integral   bool
	bound      float64
	x          []float64
	branch     int
}

// relax solves the LP relaxation over the node's free candidates in standard
// form. Each free x_j gets an upper-bound row x_j + u_j = 1; inequality rows
// get their own slack or surplus column.
func (s *search) relax(st *nodeState) relaxation {
	f := len(st.free)

	var catRows []int
	for ci, need := range st.catNeed {
		if need > 0 {
			catRows = append(catRows, ci)
		}
	}

	extra := len(catRows)
	if s.budget {
		extra++
	}
	if s.obj == ObjectiveMinimizeCost {
		extra++
	}
	n := 2*f + extra
	m := f + 1 + extra

	a := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	c := make([]float64, n)

	for j, idx := range st.free {
		cand := s.prob.Candidates[idx]
		if s.obj == ObjectiveMaximizeScore {
			c[j] = -cand.Score
		} else {
			c[j] = float64(cand.Cost)
		}
		a.Set(j, j, 1)
		a.Set(j, f+j, 1)
		b[j] = 1
	}

	row := f
	for j := range st.free {
		a.Set(row, j, 1)
	}
	b[row] = float64(st.need)
	row++

	col := 2 * f
	if s.budget {
		for j, idx := range st.free {
			a.Set(row, j, float64(s.prob.Candidates[idx].Cost))
		}
		a.Set(row, col, 1)
		b[row] = float64(s.prob.Budget - st.costUsed)
		row++
		col++
	}

	for _, ci := range catRows {
		for j, idx := range st.free {
			if s.catIndex[idx] == ci {
				a.Set(row, j, 1)
			}
		}
		a.Set(row, col, -1)
		b[row] = float64(st.catNeed[ci])
		row++
		col++
	}

	if s.obj == ObjectiveMinimizeCost {
		for j, idx := range st.free {
			a.Set(row, j, s.prob.Candidates[idx].Score)
		}
		a.Set(row, col, -1)
		b[row] = s.target - st.scoreUsed
	}

	for i := range b {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < n; j++ {
				a.Set(i, j, -a.At(i, j))
			}
		}
	}

	opt, x, err := solveLP(c, a, b)
	if errors.Is(err, lp.ErrInfeasible) {
		return relaxation{infeasible: true}
	}
	if err != nil || len(x) < f {
		s.lpFailures++
		return relaxation{}
	}

	r := relaxation{ok: true, x: x[:f], integral: true, branch: st.free[0]}
	if s.obj == ObjectiveMaximizeScore {
		r.bound = st.scoreUsed - opt
	} else {
		r.bound = float64(st.costUsed) + opt
	}

	bestFrac := -1.0
	for j, v := range r.x {
		frac := math.Min(v, 1-v)
		if frac > integralTolerance {
			r.integral = false
		}
		if frac > bestFrac {
			bestFrac = frac
			r.branch = st.free[j]
		}
	}
	return r
}

func solveLP(c []float64, a mat.Matrix, b []float64) (opt float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lp: %v", r)
		}
	}()
	return lp.Simplex(c, a, b, lpTolerance, nil)
}
