package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Plan is the outcome of one run over a catalog. Result is nil when no build
// meets the requirements.
type Plan struct {
	Version string
	Config  Config
	Items   []BuildItem
	Result  *BuildResult
	// Unknown lists excluded ids that matched no eligible item.
	Unknown []string
}

// Feasible reports whether a build was found.
func (p *Plan) Feasible() bool { return p.Result != nil }

// planBuild projects the catalog, applies the exclusion list and solves.
// Infeasibility is reported through the plan, not as an error.
func planBuild(ctx context.Context, cat *Catalog, cfg Config, solver Solver) (*Plan, error) {
	items, err := ProjectItems(cat, cfg)
	if err != nil {
		return nil, err
	}
	items, unknown := ExcludeItems(items, cfg.Exclude)
	if len(unknown) > 0 {
		fmt.Fprintf(logw(), "[filter] excluded ids not eligible: %s\n", strings.Join(unknown, ","))
	}
	fmt.Fprintf(logw(), "[filter] catalog=%d, eligible=%d\n", len(cat.Items), len(items))

	plan := &Plan{Version: cat.Version, Config: cfg, Items: items, Unknown: unknown}
	res, err := NewOptimizer(items, cfg, solver).Optimize(ctx)
	switch {
	case errors.Is(err, ErrInfeasible):
		return plan, nil
	case err != nil:
		return nil, err
	}
	plan.Result = res
	return plan, nil
}

// Report renders the plan for a terminal.
func (p *Plan) Report() string {
	if !p.Feasible() {
		return FormatInfeasible(p.Config)
	}
	return FormatBuild(p.Items, p.Result)
}

type buildLine struct {
	BuildItem
	Count int `json:"count"`
}

type planJSON struct {
	Version   string      `json:"version"`
	Feasible  bool        `json:"feasible"`
	Eligible  int         `json:"eligible"`
	TotalCost int         `json:"totalCost,omitempty"`
	Totals    *StatTotals `json:"totals,omitempty"`
	Build     []buildLine `json:"build,omitempty"`
	Nodes     int         `json:"nodes,omitempty"`
	TimeMs    int64       `json:"timeMs"`
	Unknown   []string    `json:"unknownExcludes,omitempty"`
	Report    string      `json:"report"`
}

func (p *Plan) toJSON() planJSON {
	out := planJSON{
		Version:  p.Version,
		Feasible: p.Feasible(),
		Eligible: len(p.Items),
		Unknown:  p.Unknown,
		Report:   p.Report(),
	}
	if r := p.Result; r != nil {
		out.TotalCost = r.TotalCost
		out.Totals = &r.Totals
		out.Nodes = r.Nodes
		out.TimeMs = r.Elapsed.Milliseconds()
		for i, it := range p.Items {
			if r.Counts[i] > 0 {
				out.Build = append(out.Build, buildLine{BuildItem: it, Count: r.Counts[i]})
			}
		}
	}
	return out
}

// MarshalJSON encodes the plan in the shape printed by -json and returned by
// the lambda handler.
func (p *Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toJSON())
}
