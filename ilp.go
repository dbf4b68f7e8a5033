package main

import (
	"context"
	"fmt"
	"math"
)

// CmpOp is the relation of a linear constraint.
type CmpOp int

const (
	LE CmpOp = iota // Σ a·x ≤ b
	GE              // Σ a·x ≥ b
	EQ              // Σ a·x = b
)

func (op CmpOp) String() string {
	switch op {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	}
	return fmt.Sprintf("CmpOp(%d)", int(op))
}

// Constraint is one linear row. Coeffs has one entry per variable.
type Constraint struct {
	Name   string
	Coeffs []float64
	Op     CmpOp
	RHS    float64
}

// Problem is a pure integer minimization: minimize Σ Cost[i]·x[i] subject to
// Lower[i] ≤ x[i] ≤ Upper[i], x integer, and every constraint. Upper may be +Inf.
type Problem struct {
	Cost        []float64
	Lower       []float64
	Upper       []float64
	Constraints []Constraint
}

// Solution is an optimal integer assignment.
type Solution struct {
	X         []float64
	Objective float64
	Nodes     int // relaxations solved
}

// Solver solves integer programs. Implementations report ErrInfeasible,
// ErrUnbounded, ErrSolverTimeout or ErrSolverInternal on failure.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// NumVars is the number of decision variables.
func (p *Problem) NumVars() int { return len(p.Cost) }

func (p *Problem) validate() error {
	n := p.NumVars()
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("%w: %d costs, %d lower bounds, %d upper bounds", ErrSolverInternal, n, len(p.Lower), len(p.Upper))
	}
	for i := 0; i < n; i++ {
		if math.IsInf(p.Lower[i], 0) || math.IsNaN(p.Lower[i]) || p.Lower[i] < 0 {
			return fmt.Errorf("%w: variable %d lower bound %v must be finite and non-negative", ErrSolverInternal, i, p.Lower[i])
		}
	}
	for _, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("%w: constraint %q has %d coefficients for %d variables", ErrSolverInternal, c.Name, len(c.Coeffs), n)
		}
	}
	return nil
}

// restrict returns the problem over the variables listed in cols, in that
// order. The other variables are fixed at zero.
func (p *Problem) restrict(cols []int) *Problem {
	pick := func(v []float64) []float64 {
		out := make([]float64, len(cols))
		for k, i := range cols {
			out[k] = v[i]
		}
		return out
	}
	sub := &Problem{Cost: pick(p.Cost), Lower: pick(p.Lower), Upper: pick(p.Upper)}
	for _, c := range p.Constraints {
		c.Coeffs = pick(c.Coeffs)
		sub.Constraints = append(sub.Constraints, c)
	}
	return sub
}

// Satisfied reports whether x meets every bound and constraint within tol.
// It returns the name of the first violated row.
func (p *Problem) Satisfied(x []float64, tol float64) (bool, string) {
	for i, v := range x {
		if v < p.Lower[i]-tol || v > p.Upper[i]+tol {
			return false, fmt.Sprintf("bound of variable %d", i)
		}
	}
	for _, c := range p.Constraints {
		lhs := dot(c.Coeffs, x)
		switch c.Op {
		case LE:
			if lhs > c.RHS+tol {
				return false, c.Name
			}
		case GE:
			if lhs < c.RHS-tol {
				return false, c.Name
			}
		case EQ:
			if math.Abs(lhs-c.RHS) > tol {
				return false, c.Name
			}
		}
	}
	return true, ""
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
