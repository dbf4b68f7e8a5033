package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

// FormatBuild renders the selected items of a build, in item order, followed by
// a TOTAL row. Rows show per-copy values; the TOTAL row is the whole build,
// counting every copy of the selected items and nothing else.
func FormatBuild(items []BuildItem, res *BuildResult) string {
	var b strings.Builder

	picked := lo.Filter(items, func(_ BuildItem, i int) bool { return res.Counts[i] > 0 })
	w := nameWidth(picked)

	rowf := fmt.Sprintf("%%5s  %%-%ds %%8s %%5s %%5s %%5s %%5s\n", w)
	sep := fmt.Sprintf(rowf, "-----", strings.Repeat("-", w), "--------", "-----", "-----", "-----", "-----")

	fmt.Fprintf(&b, rowf, "Count", "Item", "Cost", "AD", "AP", "ASP%", "MS%")
	b.WriteString(sep)
	for i, it := range items {
		n := res.Counts[i]
		if n <= 0 {
			continue
		}
		fmt.Fprintf(&b, rowf, fmt.Sprint(n), it.Name, gold(it.Cost),
			fmt.Sprint(it.AD), fmt.Sprint(it.AP), fmt.Sprint(it.ASP), fmt.Sprint(it.MS))
	}
	b.WriteString(sep)

	t := res.Totals
	fmt.Fprintf(&b, rowf, fmt.Sprint(res.Slots), "TOTAL", gold(t.Cost),
		fmt.Sprint(t.AD), fmt.Sprint(t.AP), fmt.Sprint(t.ASP), fmt.Sprint(t.MS))
	return b.String()
}

// FormatItems lists the eligible items the optimizer chooses from.
func FormatItems(items []BuildItem) string {
	var b strings.Builder
	w := nameWidth(items)
	rowf := fmt.Sprintf("%%-6s %%-%ds %%8s %%5s %%5s %%5s %%5s %%4s\n", w)

	fmt.Fprintf(&b, rowf, "ID", "Item", "Cost", "AD", "AP", "ASP%", "MS%", "Max")
	for _, it := range items {
		fmt.Fprintf(&b, rowf, it.ID, it.Name, gold(it.Cost),
			fmt.Sprint(it.AD), fmt.Sprint(it.AP), fmt.Sprint(it.ASP), fmt.Sprint(it.MS), fmt.Sprint(it.MaxCopies))
	}
	fmt.Fprintf(&b, "%d eligible items\n", len(items))
	return b.String()
}

// FormatInfeasible is the message printed when no build meets the requirements.
func FormatInfeasible(cfg Config) string {
	return fmt.Sprintf("no build reaches AD>=%d AP>=%d ASP>=%d%% within %d slots\n",
		cfg.MinAD, cfg.MinAP, cfg.MinASP, cfg.SlotCap)
}

func gold(n int) string { return humanize.Comma(int64(n)) }

func nameWidth(items []BuildItem) int {
	w := len("TOTAL")
	for _, it := range items {
		w = max(w, utf8.RuneCountInString(it.Name))
	}
	return w
}
