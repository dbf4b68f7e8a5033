package main

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// BranchAndBound is the default Solver: best-first branch-and-bound over LP
// relaxations solved with gonum's simplex.
type BranchAndBound struct {
	// MaxNodes caps the relaxations solved. Zero means no limit.
	MaxNodes int
	// Tol is the integrality and feasibility tolerance. Zero means 1e-6.
	Tol float64
}

// bbNode records one branching decision. The bounds of a node are the root
// box intersected with every decision on its path.
type bbNode struct {
	parent *bbNode
	j      int
	lo, hi float64
	bound  float64 // relaxation bound inherited from the parent
	depth  int
	seq    int
}

func (n *bbNode) bounds(rootLo, rootHi []float64) ([]float64, []float64) {
	lo, hi := slices.Clone(rootLo), slices.Clone(rootHi)
	for c := n; c.parent != nil; c = c.parent {
		lo[c.j] = max(lo[c.j], c.lo)
		hi[c.j] = min(hi[c.j], c.hi)
	}
	return lo, hi
}

// nodeQueue pops the lowest bound first, deeper nodes first among equals.
type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(a, b int) bool {
	x, y := q[a], q[b]
	if x.bound != y.bound {
		return x.bound < y.bound
	}
	if x.depth != y.depth {
		return x.depth > y.depth
	}
	return x.seq < y.seq
}
func (q nodeQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }
func (q *nodeQueue) Push(v any)   { *q = append(*q, v.(*bbNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// Solve implements Solver.
func (s BranchAndBound) Solve(ctx context.Context, p *Problem) (sol *Solution, err error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			sol, err = nil, fmt.Errorf("%w: %v", ErrSolverInternal, r)
		}
	}()

	tol := s.Tol
	if tol <= 0 {
		tol = 1e-6
	}
	// Every integer point costs a multiple of step, so bounds round up to one.
	step := costStep(p.Cost)
	roundBound := func(obj float64) float64 {
		if step == 0 {
			return obj
		}
		return math.Ceil((obj-tol)/step) * step
	}

	n := p.NumVars()
	rootLo, rootHi := make([]float64, n), make([]float64, n)
	for i := range p.Cost {
		rootLo[i] = math.Ceil(p.Lower[i] - tol)
		rootHi[i] = p.Upper[i]
		if !math.IsInf(rootHi[i], 1) {
			rootHi[i] = math.Floor(p.Upper[i] + tol)
		}
		if rootLo[i] > rootHi[i] {
			return nil, fmt.Errorf("%w: variable %d has empty integer range [%v, %v]", ErrInfeasible, i, p.Lower[i], p.Upper[i])
		}
	}

	var (
		best  []float64
		found bool
	)
	bestObj := math.Inf(1)
	incumbent := func(x []float64, obj float64, nodes int) {
		best, bestObj, found = x, obj, true
		if Verbose {
			fmt.Fprintf(logw(), "[verbose] incumbent %.0f at node %d\n", bestObj, nodes)
		}
	}

	nodes, seq := 0, 0
	q := &nodeQueue{{j: -1, bound: math.Inf(-1)}}

	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, ctxSolveErr(err, nodes)
		}
		nd := heap.Pop(q).(*bbNode)
		if nd.bound >= bestObj-tol {
			continue
		}
		if s.MaxNodes > 0 && nodes >= s.MaxNodes {
			return nil, fmt.Errorf("%w: node limit %d reached", ErrSolverInternal, s.MaxNodes)
		}
		nodes++

		lo, hi := nd.bounds(rootLo, rootHi)
		obj, x, err := relax(p, lo, hi, tol)
		switch {
		case errors.Is(err, ErrInfeasible):
			continue
		case err != nil:
			return nil, err
		}

		bound := roundBound(obj)
		if bound >= bestObj-tol {
			continue
		}

		j := mostFractional(x, tol)
		if j < 0 {
			for i := range x {
				x[i] = math.Round(x[i])
			}
			incumbent(x, dot(p.Cost, x), nodes)
			continue
		}
		if r, v, ok := roundRelaxation(p, x, tol); ok && v < bestObj-tol {
			incumbent(r, v, nodes)
			if bound >= bestObj-tol {
				continue
			}
		}

		f := math.Floor(x[j])
		if f >= lo[j] {
			seq++
			heap.Push(q, &bbNode{parent: nd, j: j, lo: lo[j], hi: f, bound: bound, depth: nd.depth + 1, seq: seq})
		}
		if f+1 <= hi[j] {
			seq++
			heap.Push(q, &bbNode{parent: nd, j: j, lo: f + 1, hi: hi[j], bound: bound, depth: nd.depth + 1, seq: seq})
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: no integer point after %d nodes", ErrInfeasible, nodes)
	}
	return &Solution{X: best, Objective: bestObj, Nodes: nodes}, nil
}

func ctxSolveErr(err error, nodes int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: stopped after %d nodes: %w", ErrSolverTimeout, nodes, err)
	}
	return fmt.Errorf("solve aborted after %d nodes: %w", nodes, err)
}

// costStep is the gcd of the costs when they are all integers, 0 otherwise.
func costStep(cost []float64) float64 {
	var g int64
	for _, c := range cost {
		if c != math.Trunc(c) || math.Abs(c) > 1<<53 {
			return 0
		}
		a := int64(math.Abs(c))
		for a != 0 {
			g, a = a, g%a
		}
	}
	if g == 0 {
		return 1
	}
	return float64(g)
}

// mostFractional returns the variable farthest from an integer, lowest index
// on ties, or -1 when x is integral.
func mostFractional(x []float64, tol float64) int {
	j, worst := -1, tol
	for i, v := range x {
		if d := math.Abs(v - math.Round(v)); d > worst {
			j, worst = i, d
		}
	}
	return j
}

// roundRelaxation tries rounding the fractional entries of x up, to nearest
// and down, and returns the cheapest rounding that satisfies p.
func roundRelaxation(p *Problem, x []float64, tol float64) ([]float64, float64, bool) {
	var best []float64
	bestObj := math.Inf(1)
	for _, round := range []func(float64) float64{math.Ceil, math.Round, math.Floor} {
		cand := make([]float64, len(x))
		for i, v := range x {
			if r := math.Round(v); math.Abs(v-r) <= tol {
				cand[i] = r
			} else {
				cand[i] = round(v)
			}
		}
		if ok, _ := p.Satisfied(cand, tol); !ok {
			continue
		}
		if v := dot(p.Cost, cand); v < bestObj {
			best, bestObj = cand, v
		}
	}
	return best, bestObj, best != nil
}

// lpRow is one equality row of the standard-form relaxation.
type lpRow struct {
	coef  map[int]float64 // LP column -> coefficient
	slack float64         // 0 for equality rows
	rhs   float64
}

// relax solves the LP relaxation of p with variable bounds [lo, hi].
//
// Variables are shifted to y = x - lo so every column is non-negative. Fixed
// variables and variables absent from every constraint are settled directly and
// left out of the LP. Each inequality and each finite upper bound gets its own
// slack column, and rows are negated where needed so that b ≥ 0. An upper
// bound already implied by a non-negative ≤ row gets no row of its own.
func relax(p *Problem, lo, hi []float64, tol float64) (float64, []float64, error) {
	n := p.NumVars()
	x := slices.Clone(lo)

	col := make([]int, n) // LP column of each variable, -1 if settled
	var active []int
	for i := 0; i < n; i++ {
		col[i] = -1
		if hi[i] <= lo[i] {
			continue
		}
		used := slices.ContainsFunc(p.Constraints, func(c Constraint) bool { return c.Coeffs[i] != 0 })
		if !used {
			switch {
			case p.Cost[i] >= 0:
			case math.IsInf(hi[i], 1):
				return 0, nil, fmt.Errorf("%w: variable %d decreases cost without limit", ErrUnbounded, i)
			default:
				x[i] = hi[i]
			}
			continue
		}
		col[i] = len(active)
		active = append(active, i)
	}

	var rows []lpRow
	var caps []lpRow // ≤ rows with no negative coefficient

	for _, c := range p.Constraints {
		r := lpRow{coef: make(map[int]float64), rhs: c.RHS - dot(c.Coeffs, x)}
		for _, i := range active {
			if c.Coeffs[i] != 0 {
				r.coef[col[i]] = c.Coeffs[i]
			}
		}
		if len(r.coef) == 0 {
			if !trivialHolds(c.Op, r.rhs, tol) {
				return 0, nil, fmt.Errorf("%w: constraint %q", ErrInfeasible, c.Name)
			}
			continue
		}
		switch c.Op {
		case LE:
			r.slack = 1
			if !slices.ContainsFunc(c.Coeffs, func(v float64) bool { return v < 0 }) {
				caps = append(caps, r)
			}
		case GE:
			r.slack = -1
		}
		rows = append(rows, r)
	}
	for _, i := range active {
		width := hi[i] - lo[i]
		if math.IsInf(hi[i], 1) || impliedUpper(caps, col[i], width, tol) {
			continue
		}
		rows = append(rows, lpRow{coef: map[int]float64{col[i]: 1}, slack: 1, rhs: width})
	}

	if len(active) == 0 {
		return dot(p.Cost, x), x, nil
	}

	cols := len(active)
	for _, r := range rows {
		if r.slack != 0 {
			cols++
		}
	}
	m := len(rows)
	if m > cols {
		return 0, nil, fmt.Errorf("%w: %d rows exceed %d columns", ErrSolverInternal, m, cols)
	}

	A := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	next := len(active)
	for ri, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, v := range r.coef {
			A.Set(ri, j, sign*v)
		}
		if r.slack != 0 {
			A.Set(ri, next, sign*r.slack)
			next++
		}
		b[ri] = sign * r.rhs
	}

	c := make([]float64, cols)
	for k, i := range active {
		c[k] = p.Cost[i]
	}

	_, y, err := lp.Simplex(c, A, b, 1e-10, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, nil, ErrInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return 0, nil, fmt.Errorf("%w: relaxation is unbounded", ErrUnbounded)
	case err != nil:
		return 0, nil, fmt.Errorf("%w: simplex: %w", ErrSolverInternal, err)
	}

	for k, i := range active {
		x[i] = lo[i] + y[k]
	}
	return dot(p.Cost, x), x, nil
}

// impliedUpper reports whether some row of caps alone keeps column k at or
// below width. The other columns of such a row are non-negative, so
// a·y_k ≤ rhs holds on its own.
func impliedUpper(caps []lpRow, k int, width, tol float64) bool {
	for _, r := range caps {
		if a := r.coef[k]; a > 0 && r.rhs/a <= width+tol {
			return true
		}
	}
	return false
}

func trivialHolds(op CmpOp, rhs, tol float64) bool {
	switch op {
	case LE:
		return 0 <= rhs+tol
	case GE:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}
