package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"
)

// StatTotals sums the tracked stats of a build.
type StatTotals struct {
	Cost int `json:"cost"`
	AD   int `json:"ad"`
	AP   int `json:"ap"`
	ASP  int `json:"asp"`
	MS   int `json:"ms"`
}

// BuildResult is an optimal build: Counts[i] copies of items[i].
type BuildResult struct {
	Counts    []int
	TotalCost int
	Totals    StatTotals
	Slots     int
	Elapsed   time.Duration
	Nodes     int
}

// Optimizer finds the cheapest build of the given items meeting cfg's thresholds.
type Optimizer struct {
	items  []BuildItem
	cfg    Config
	solver Solver
}

// NewOptimizer creates an optimizer. A nil solver selects BranchAndBound.
func NewOptimizer(items []BuildItem, cfg Config, solver Solver) *Optimizer {
	if solver == nil {
		solver = BranchAndBound{MaxNodes: cfg.MaxNodes}
	}
	return &Optimizer{items: items, cfg: cfg, solver: solver}
}

// copyLimit is MaxCopies clamped to [0, SlotCap].
func (o *Optimizer) copyLimit(it BuildItem) int {
	return max(min(it.MaxCopies, o.cfg.SlotCap), 0)
}

// undominated returns the indices of the items worth offering to the solver.
// Item j is dropped when some item i is no dearer, at least as strong in every
// constrained stat and can fill every slot on its own: moving j's copies to i
// keeps a build feasible and never raises its cost. Identical items keep the
// first one.
func (o *Optimizer) undominated() []int {
	dominates := func(i, j int) bool {
		a, b := o.items[i], o.items[j]
		if o.copyLimit(a) < o.cfg.SlotCap || a.Cost > b.Cost || a.AD < b.AD || a.AP < b.AP || a.ASP < b.ASP {
			return false
		}
		same := a.Cost == b.Cost && a.AD == b.AD && a.AP == b.AP && a.ASP == b.ASP
		return !same || i < j
	}
	var keep []int
next:
	for j := range o.items {
		for i := range o.items {
			if i != j && dominates(i, j) {
				continue next
			}
		}
		keep = append(keep, j)
	}
	return keep
}

// Problem builds the integer program: one variable per item bounded by its
// MaxCopies and the slot cap, minimizing total cost under the slot cap and the three stat floors.
// Every row carries a coefficient for every item.
func (o *Optimizer) Problem() *Problem {
	n := len(o.items)
	p := &Problem{
		Cost:  make([]float64, n),
		Lower: make([]float64, n),
		Upper: make([]float64, n),
	}
	slots := make([]float64, n)
	ad := make([]float64, n)
	ap := make([]float64, n)
	asp := make([]float64, n)
	for i, it := range o.items {
		p.Cost[i] = float64(it.Cost)
		p.Upper[i] = float64(o.copyLimit(it))
		slots[i] = 1
		ad[i] = float64(it.AD)
		ap[i] = float64(it.AP)
		asp[i] = float64(it.ASP)
	}
	p.Constraints = []Constraint{
		{Name: "slots", Coeffs: slots, Op: LE, RHS: float64(o.cfg.SlotCap)},
		{Name: "ad", Coeffs: ad, Op: GE, RHS: float64(o.cfg.MinAD)},
		{Name: "ap", Coeffs: ap, Op: GE, RHS: float64(o.cfg.MinAP)},
		{Name: "asp", Coeffs: asp, Op: GE, RHS: float64(o.cfg.MinASP)},
	}
	return p
}

// Optimize solves for the cheapest build. ErrInfeasible means no combination
// of items reaches the thresholds within the slot cap.
func (o *Optimizer) Optimize(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	p := o.Problem()
	keep := o.undominated()
	sub := p.restrict(keep)

	fmt.Fprintf(logw(), "[init] items=%d (%d dominated), slots<=%d, ad>=%d, ap>=%d, asp>=%d\n",
		len(o.items), len(o.items)-len(keep), o.cfg.SlotCap, o.cfg.MinAD, o.cfg.MinAP, o.cfg.MinASP)

	if o.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.SolveTimeout)
		defer cancel()
	}

	sol, err := o.solver.Solve(ctx, sub)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(logw(), "[solve] failed after %v: %v\n", elapsed, err)
		return nil, classifySolveErr(err)
	}
	fmt.Fprintf(logw(), "[solve] nodes=%d, objective=%.0f\n", sol.Nodes, sol.Objective)

	if len(sol.X) != len(keep) {
		return nil, fmt.Errorf("%w: %d values for %d items", ErrSolverInternal, len(sol.X), len(keep))
	}
	counts := make([]int, len(o.items))
	rounded := make([]float64, len(o.items))
	for k, v := range sol.X {
		i := keep[k]
		counts[i] = int(math.Round(v))
		rounded[i] = float64(counts[i])
	}
	if ok, row := p.Satisfied(rounded, 1e-9); !ok {
		return nil, fmt.Errorf("%w: solver assignment violates %s", ErrSolverInternal, row)
	}

	res := &BuildResult{
		Counts:  counts,
		Totals:  Totals(o.items, counts),
		Elapsed: elapsed,
		Nodes:   sol.Nodes,
	}
	res.TotalCost = res.Totals.Cost
	for _, c := range counts {
		res.Slots += c
	}

	if Verbose {
		fmt.Fprintf(logw(), "[verbose] totals ad=%d ap=%d asp=%d ms=%d slots=%d\n",
			res.Totals.AD, res.Totals.AP, res.Totals.ASP, res.Totals.MS, res.Slots)
	}
	fmt.Fprintf(logw(), "[done] cost=%d, elapsed=%v\n", res.TotalCost, elapsed)
	return res, nil
}

// classifySolveErr keeps the taxonomy closed: anything a backend returns
// outside it is reported as an internal solver error.
func classifySolveErr(err error) error {
	for _, known := range []error{ErrInfeasible, ErrUnbounded, ErrSolverTimeout, ErrSolverInternal} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrSolverTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrSolverInternal, err)
}

// Totals sums cost and stats over the selected copies only.
func Totals(items []BuildItem, counts []int) StatTotals {
	var t StatTotals
	for i, it := range items {
		n := counts[i]
		if n <= 0 {
			continue
		}
		t.Cost += n * it.Cost
		t.AD += n * it.AD
		t.AP += n * it.AP
		t.ASP += n * it.ASP
		t.MS += n * it.MS
	}
	return t
}

func logw() *os.File { return os.Stderr }
