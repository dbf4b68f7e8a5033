//go:build !lambda

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

const usage = `Usage: build-optimizer [flags]

Finds the cheapest set of items reaching the AD, AP and attack speed
requirements within the inventory slot cap.

Flags:
`

func main() {
	def := DefaultConfig()
	catalogPath := flag.String("catalog", "item.json", "Path to the item catalog")
	configPath := flag.String("config", "", "Optional key=value file overriding the defaults")
	jsonOut := flag.Bool("json", false, "Output the result as JSON")
	listItems := flag.Bool("items", false, "List the eligible items and exit")
	verbose := flag.Bool("verbose", false, "Print detailed solver progress to stderr")
	minAD := flag.Int("min-ad", def.MinAD, "Minimum total attack damage")
	minAP := flag.Int("min-ap", def.MinAP, "Minimum total ability power")
	minASP := flag.Int("min-asp", def.MinASP, "Minimum total attack speed (percent)")
	slotCap := flag.Int("slots", def.SlotCap, "Inventory slot cap")
	exclude := flag.String("exclude", "", "Comma separated item ids to leave out")
	timeout := flag.Duration("timeout", 0, "Solve time limit (0 = none)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	Verbose = *verbose

	cfg := def
	if *configPath != "" {
		if err := applyConfigFile(&cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-ad":
			cfg.MinAD = *minAD
		case "min-ap":
			cfg.MinAP = *minAP
		case "min-asp":
			cfg.MinASP = *minASP
		case "slots":
			cfg.SlotCap = *slotCap
		case "exclude":
			cfg.Exclude = splitIDs(*exclude)
		case "timeout":
			cfg.SolveTimeout = *timeout
		}
	})
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	cat, err := LoadCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Loaded catalog %s: %d items, %d groups in %v\n",
		cat.Version, len(cat.Items), len(cat.Groups), time.Since(start).Round(time.Millisecond))

	if *listItems {
		items, err := ProjectItems(cat, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		items, _ = ExcludeItems(items, cfg.Exclude)
		fmt.Print(FormatItems(items))
		return
	}

	plan, err := planBuild(context.Background(), cat, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(plan.toJSON(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}
	if plan.Feasible() {
		fmt.Printf("Best build (%s): %s gold in %.1fs\n",
			cat.Version, gold(plan.Result.TotalCost), plan.Result.Elapsed.Seconds())
	}
	fmt.Print(plan.Report())
}
