package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the build requirements and solver limits for one run.
type Config struct {
	// MinAD, MinAP and MinASP are the lower bounds on total flat attack damage,
	// flat ability power and percent attack speed.
	MinAD  int
	MinAP  int
	MinASP int
	// SlotCap is the inventory size: the most items a build may hold.
	SlotCap int
	// DefaultSlots is added to an item's stack count to get its copy ceiling
	// when no ownership group caps it.
	DefaultSlots int
	// PrimaryMap is the map id an item must be available on.
	PrimaryMap string
	// Exclude lists item ids the operator never wants considered.
	Exclude []string
	// SolveTimeout bounds the solve step. Zero means no limit.
	SolveTimeout time.Duration
	// MaxNodes caps branch-and-bound nodes. Zero means no limit.
	MaxNodes int
}

// DefaultConfig returns the standard requirements: 100 AD, 100 AP and 100%
// attack speed within six slots.
func DefaultConfig() Config {
	return Config{
		MinAD:        100,
		MinAP:        100,
		MinASP:       100,
		SlotCap:      6,
		DefaultSlots: 5,
		PrimaryMap:   "11",
		MaxNodes:     200000,
	}
}

// Verbose controls whether detailed solver progress is printed to stderr.
var Verbose bool

// applyConfigFile overlays key=value settings read from path onto cfg.
// The file is parsed only; nothing is exported into the environment.
func applyConfigFile(cfg *Config, path string) error {
	vals, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return applyConfigValues(cfg, vals)
}

func applyConfigValues(cfg *Config, vals map[string]string) error {
	ints := map[string]*int{
		"MIN_AD":        &cfg.MinAD,
		"MIN_AP":        &cfg.MinAP,
		"MIN_ASP":       &cfg.MinASP,
		"SLOT_CAP":      &cfg.SlotCap,
		"DEFAULT_SLOTS": &cfg.DefaultSlots,
		"MAX_NODES":     &cfg.MaxNodes,
	}
	for key, dst := range ints {
		raw, ok := vals[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("config %s: invalid integer %q", key, raw)
		}
		*dst = n
	}
	if v, ok := vals["PRIMARY_MAP"]; ok {
		cfg.PrimaryMap = strings.TrimSpace(v)
	}
	if v, ok := vals["EXCLUDE"]; ok {
		cfg.Exclude = splitIDs(v)
	}
	if v, ok := vals["SOLVE_TIMEOUT"]; ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config SOLVE_TIMEOUT: %w", err)
		}
		cfg.SolveTimeout = d
	}
	return cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.SlotCap < 0:
		return fmt.Errorf("slot cap %d is negative", c.SlotCap)
	case c.DefaultSlots < 0:
		return fmt.Errorf("default slots %d is negative", c.DefaultSlots)
	case c.MinAD < 0 || c.MinAP < 0 || c.MinASP < 0:
		return fmt.Errorf("thresholds must be non-negative (ad=%d ap=%d asp=%d)", c.MinAD, c.MinAP, c.MinASP)
	case c.PrimaryMap == "":
		return fmt.Errorf("primary map id is empty")
	}
	return nil
}

// splitIDs parses a comma separated id list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
