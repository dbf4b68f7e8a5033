package main

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
	"time"
)

func TestBranchAndBound_Cover(t *testing.T) {
	// min 3x + 5y, 2x + 4y >= 7. The relaxation picks y = 1.75; the integer
	// optimum is y = 2.
	p := &Problem{
		Cost:  []float64{3, 5},
		Lower: []float64{0, 0},
		Upper: []float64{10, 10},
		Constraints: []Constraint{
			{Name: "cover", Coeffs: []float64{2, 4}, Op: GE, RHS: 7},
		},
	}
	sol, err := BranchAndBound{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Objective != 10 {
		t.Errorf("objective = %v, want 10", sol.Objective)
	}
	if sol.X[0] != 0 || sol.X[1] != 2 {
		t.Errorf("x = %v, want [0 2]", sol.X)
	}
	if sol.Nodes < 2 {
		t.Errorf("nodes = %d, expected branching", sol.Nodes)
	}
}

func TestBranchAndBound_LowerBounds(t *testing.T) {
	p := &Problem{
		Cost:  []float64{1, 1},
		Lower: []float64{2, 0},
		Upper: []float64{5, 5},
		Constraints: []Constraint{
			{Name: "sum", Coeffs: []float64{1, 1}, Op: GE, RHS: 3},
			{Name: "y", Coeffs: []float64{0, 1}, Op: GE, RHS: 1},
		},
	}
	sol, err := BranchAndBound{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.X[0] != 2 || sol.X[1] != 1 || sol.Objective != 3 {
		t.Errorf("got x=%v obj=%v, want [2 1] 3", sol.X, sol.Objective)
	}
}

func TestBranchAndBound_IntegerInfeasible(t *testing.T) {
	// 2x must equal 3: the relaxation is feasible at 1.5, no integer is.
	p := &Problem{
		Cost:  []float64{1},
		Lower: []float64{0},
		Upper: []float64{5},
		Constraints: []Constraint{
			{Name: "lo", Coeffs: []float64{2}, Op: GE, RHS: 3},
			{Name: "hi", Coeffs: []float64{2}, Op: LE, RHS: 3},
		},
	}
	_, err := BranchAndBound{}.Solve(context.Background(), p)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

func TestBranchAndBound_RelaxationInfeasible(t *testing.T) {
	p := &Problem{
		Cost:  []float64{1, 1},
		Lower: []float64{0, 0},
		Upper: []float64{1, 1},
		Constraints: []Constraint{
			{Name: "need", Coeffs: []float64{1, 1}, Op: GE, RHS: 3},
		},
	}
	_, err := BranchAndBound{}.Solve(context.Background(), p)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

func TestBranchAndBound_Unbounded(t *testing.T) {
	t.Run("in constraint", func(t *testing.T) {
		p := &Problem{
			Cost:  []float64{-1},
			Lower: []float64{0},
			Upper: []float64{math.Inf(1)},
			Constraints: []Constraint{
				{Name: "min", Coeffs: []float64{1}, Op: GE, RHS: 1},
			},
		}
		if _, err := (BranchAndBound{}).Solve(context.Background(), p); !errors.Is(err, ErrUnbounded) {
			t.Fatalf("err = %v, want ErrUnbounded", err)
		}
	})
	t.Run("free column", func(t *testing.T) {
		p := &Problem{
			Cost:  []float64{-1},
			Lower: []float64{0},
			Upper: []float64{math.Inf(1)},
		}
		if _, err := (BranchAndBound{}).Solve(context.Background(), p); !errors.Is(err, ErrUnbounded) {
			t.Fatalf("err = %v, want ErrUnbounded", err)
		}
	})
}

func TestBranchAndBound_NoVariables(t *testing.T) {
	ok := &Problem{Constraints: []Constraint{{Name: "zero", Op: GE, RHS: 0}}}
	sol, err := BranchAndBound{}.Solve(context.Background(), ok)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Objective != 0 || len(sol.X) != 0 {
		t.Errorf("got %+v, want empty zero solution", sol)
	}

	bad := &Problem{Constraints: []Constraint{{Name: "ad", Op: GE, RHS: 100}}}
	if _, err := (BranchAndBound{}).Solve(context.Background(), bad); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

func TestBranchAndBound_Deadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	p := &Problem{Cost: []float64{1}, Lower: []float64{0}, Upper: []float64{1}}
	_, err := BranchAndBound{}.Solve(ctx, p)
	if !errors.Is(err, ErrSolverTimeout) {
		t.Fatalf("err = %v, want ErrSolverTimeout", err)
	}
}

func TestBranchAndBound_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Problem{Cost: []float64{1}, Lower: []float64{0}, Upper: []float64{1}}
	_, err := BranchAndBound{}.Solve(ctx, p)
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrSolverTimeout) {
		t.Fatalf("err = %v, want context.Canceled only", err)
	}
}

func TestBranchAndBound_NodeLimit(t *testing.T) {
	p := &Problem{
		Cost:        []float64{3, 5},
		Lower:       []float64{0, 0},
		Upper:       []float64{10, 10},
		Constraints: []Constraint{{Name: "cover", Coeffs: []float64{2, 4}, Op: GE, RHS: 7}},
	}
	_, err := BranchAndBound{MaxNodes: 1}.Solve(context.Background(), p)
	if !errors.Is(err, ErrSolverInternal) {
		t.Fatalf("err = %v, want ErrSolverInternal", err)
	}
}

func TestBranchAndBound_InvalidProblem(t *testing.T) {
	tests := []struct {
		name string
		p    *Problem
	}{
		{"bounds length", &Problem{Cost: []float64{1}, Lower: []float64{0}}},
		{"coeff length", &Problem{Cost: []float64{1}, Lower: []float64{0}, Upper: []float64{1},
			Constraints: []Constraint{{Name: "c", Coeffs: []float64{1, 2}}}}},
		{"negative lower", &Problem{Cost: []float64{1}, Lower: []float64{-1}, Upper: []float64{1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := (BranchAndBound{}).Solve(context.Background(), tc.p); !errors.Is(err, ErrSolverInternal) {
				t.Fatalf("err = %v, want ErrSolverInternal", err)
			}
		})
	}
}

func TestBranchAndBound_EmptyRange(t *testing.T) {
	p := &Problem{Cost: []float64{1}, Lower: []float64{0.5}, Upper: []float64{0.7}}
	if _, err := (BranchAndBound{}).Solve(context.Background(), p); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

// bruteForce enumerates every integer point of a small bounded problem.
func bruteForce(p *Problem) (float64, bool) {
	n := p.NumVars()
	x := make([]float64, n)
	best, found := math.Inf(1), false
	var walk func(i int)
	walk = func(i int) {
		if i == n {
			if ok, _ := p.Satisfied(x, 1e-9); ok {
				if v := dot(p.Cost, x); v < best {
					best, found = v, true
				}
			}
			return
		}
		for v := p.Lower[i]; v <= p.Upper[i]; v++ {
			x[i] = v
			walk(i + 1)
		}
	}
	walk(0)
	return best, found
}

func TestBranchAndBound_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for k := 0; k < 40; k++ {
		n := 2 + rng.Intn(3)
		p := &Problem{
			Cost:  make([]float64, n),
			Lower: make([]float64, n),
			Upper: make([]float64, n),
		}
		slots := make([]float64, n)
		for i := 0; i < n; i++ {
			p.Cost[i] = float64(1 + rng.Intn(20))
			p.Upper[i] = float64(1 + rng.Intn(3))
			slots[i] = 1
		}
		p.Constraints = append(p.Constraints, Constraint{Name: "slots", Coeffs: slots, Op: LE, RHS: float64(2 + rng.Intn(5))})
		for r := 0; r < 2; r++ {
			coeffs := make([]float64, n)
			for i := range coeffs {
				coeffs[i] = float64(rng.Intn(6))
			}
			p.Constraints = append(p.Constraints, Constraint{Name: "stat", Coeffs: coeffs, Op: GE, RHS: float64(1 + rng.Intn(12))})
		}

		want, feasible := bruteForce(p)
		sol, err := BranchAndBound{}.Solve(context.Background(), p)
		if !feasible {
			if !errors.Is(err, ErrInfeasible) {
				t.Errorf("case %d: err = %v, want ErrInfeasible (%+v)", k, err, p)
			}
			continue
		}
		if err != nil {
			t.Errorf("case %d: Solve: %v (%+v)", k, err, p)
			continue
		}
		if sol.Objective != want {
			t.Errorf("case %d: objective %v, brute force %v (%+v)", k, sol.Objective, want, p)
		}
		if ok, row := p.Satisfied(sol.X, 1e-9); !ok {
			t.Errorf("case %d: solution violates %s: %v", k, row, sol.X)
		}
	}
}

func TestBranchAndBound_Equality(t *testing.T) {
	// min 2x + 3y, x + 2y = 5. The relaxation takes y = 2.5; the integer
	// optimum is (1, 2).
	p := &Problem{
		Cost:  []float64{2, 3},
		Lower: []float64{0, 0},
		Upper: []float64{5, 5},
		Constraints: []Constraint{
			{Name: "exact", Coeffs: []float64{1, 2}, Op: EQ, RHS: 5},
		},
	}
	sol, err := BranchAndBound{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.X[0] != 1 || sol.X[1] != 2 || sol.Objective != 8 {
		t.Errorf("got x=%v obj=%v, want [1 2] 8", sol.X, sol.Objective)
	}

	p.Constraints[0].Coeffs = []float64{2, 4}
	if _, err := (BranchAndBound{}).Solve(context.Background(), p); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("2x + 4y = 5: err = %v, want ErrInfeasible", err)
	}
}

func TestCostStep(t *testing.T) {
	tests := []struct {
		cost []float64
		want float64
	}{
		{[]float64{3000, 2700, 1100}, 100},
		{[]float64{875, 350}, 175},
		{[]float64{3, 5}, 1},
		{[]float64{-4, 6}, 2},
		{[]float64{0, 0}, 1},
		{nil, 1},
		{[]float64{2.5, 5}, 0},
	}
	for _, tc := range tests {
		if got := costStep(tc.cost); got != tc.want {
			t.Errorf("costStep(%v) = %v, want %v", tc.cost, got, tc.want)
		}
	}
}

func TestMostFractional(t *testing.T) {
	if j := mostFractional([]float64{1, 2.1, 0.5, 3.4}, 1e-6); j != 2 {
		t.Errorf("got %d, want 2", j)
	}
	if j := mostFractional([]float64{0.5, 1.5}, 1e-6); j != 0 {
		t.Errorf("tie: got %d, want 0", j)
	}
	if j := mostFractional([]float64{1, 2.0000000001, 3}, 1e-6); j != -1 {
		t.Errorf("integral: got %d, want -1", j)
	}
}

func TestImpliedUpper(t *testing.T) {
	slots := lpRow{coef: map[int]float64{0: 1, 1: 1, 2: 2}, slack: 1, rhs: 6}
	tests := []struct {
		name  string
		k     int
		width float64
		want  bool
	}{
		{"cap equals slots", 0, 6, true},
		{"cap above slots", 1, 10, true},
		{"tighter than slots", 0, 2, false},
		{"double weight", 2, 3, true},
		{"column not in row", 3, 100, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := impliedUpper([]lpRow{slots}, tc.k, tc.width, 1e-9); got != tc.want {
				t.Errorf("impliedUpper(%d, %v) = %v, want %v", tc.k, tc.width, got, tc.want)
			}
		})
	}
}

func TestProblem_Restrict(t *testing.T) {
	p := &Problem{
		Cost:  []float64{1, 2, 3},
		Lower: []float64{0, 0, 0},
		Upper: []float64{4, 5, 6},
		Constraints: []Constraint{
			{Name: "ad", Coeffs: []float64{10, 20, 30}, Op: GE, RHS: 40},
		},
	}
	sub := p.restrict([]int{2, 0})
	if !slices.Equal(sub.Cost, []float64{3, 1}) || !slices.Equal(sub.Upper, []float64{6, 4}) {
		t.Errorf("restricted columns: cost %v upper %v", sub.Cost, sub.Upper)
	}
	if c := sub.Constraints[0]; c.Name != "ad" || c.Op != GE || c.RHS != 40 || !slices.Equal(c.Coeffs, []float64{30, 10}) {
		t.Errorf("restricted row: %+v", c)
	}
	if !slices.Equal(p.Constraints[0].Coeffs, []float64{10, 20, 30}) {
		t.Error("restrict modified the original problem")
	}
}
