package main

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

// Stat keys consumed from the catalog. Everything else is ignored.
const (
	statAD  = "FlatPhysicalDamageMod"
	statAP  = "FlatMagicDamageMod"
	statASP = "PercentAttackSpeedMod"
	statMS  = "PercentMovementSpeedMod"
)

// noGroupCap is the MaxGroupOwnable value meaning the group imposes no limit.
const noGroupCap = -1

// BuildItem is the decision-relevant projection of an eligible catalog item.
type BuildItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`

	AD  int `json:"ad"`
	AP  int `json:"ap"`
	ASP int `json:"asp"` // percent
	MS  int `json:"ms"`  // percent, reported only

	MaxCopies int `json:"maxCopies"`
}

// ValidateCatalog checks the structural invariants the projection relies on.
func ValidateCatalog(cat *Catalog) error {
	if cat == nil {
		return fmt.Errorf("%w: no catalog", ErrMalformedCatalog)
	}
	for id, it := range cat.Items {
		switch {
		case id == "":
			return fmt.Errorf("%w: item with empty id", ErrMalformedCatalog)
		case it.Name == "":
			return fmt.Errorf("%w: item %s has no name", ErrMalformedCatalog, id)
		case it.Gold == nil:
			return fmt.Errorf("%w: item %s has no gold", ErrMalformedCatalog, id)
		case it.Gold.Total < 0:
			return fmt.Errorf("%w: item %s has negative total cost %d", ErrMalformedCatalog, id, it.Gold.Total)
		}
	}
	for i, g := range cat.Groups {
		if g.ID == "" {
			return fmt.Errorf("%w: group %d has empty id", ErrMalformedCatalog, i)
		}
	}
	return nil
}

// ProjectItems returns the eligible items of cat as BuildItems sorted by id.
// An item is eligible when it is sold in the store, purchasable, available on
// the primary map and grants AD, AP or attack speed. Movement speed alone does
// not make an item eligible.
func ProjectItems(cat *Catalog, cfg Config) ([]BuildItem, error) {
	if err := ValidateCatalog(cat); err != nil {
		return nil, err
	}

	var out []BuildItem
	for id, it := range cat.Items {
		if !resolveInStore(&it, &cat.Basic) || !it.Gold.Purchasable || !availableOn(&it, cfg.PrimaryMap) {
			continue
		}

		bi := BuildItem{
			ID:   id,
			Name: it.Name,
			Cost: it.Gold.Total,
			AD:   flatStat(it.Stats, statAD),
			AP:   flatStat(it.Stats, statAP),
			ASP:  percentStat(it.Stats, statASP),
			MS:   percentStat(it.Stats, statMS),
		}
		if bi.AD <= 0 && bi.AP <= 0 && bi.ASP <= 0 {
			continue
		}
		bi.MaxCopies = maxCopies(cat, id, &it, cfg.DefaultSlots)
		out = append(out, bi)
	}

	slices.SortFunc(out, func(a, b BuildItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func resolveInStore(it, basic *CatalogItem) bool {
	if it.InStore != nil {
		return *it.InStore
	}
	if basic.InStore != nil {
		return *basic.InStore
	}
	return false
}

// availableOn defaults to true: most items carry no explicit flag for a map.
func availableOn(it *CatalogItem, mapID string) bool {
	if v, ok := it.Maps[mapID]; ok {
		return v
	}
	return true
}

// flatStat truncates toward zero.
func flatStat(stats map[string]float64, key string) int {
	return int(stats[key])
}

// percentStat converts a fractional stat to whole percent, flooring: 0.254 is 25.
func percentStat(stats map[string]float64, key string) int {
	return int(math.Floor(stats[key] * 100))
}

// maxCopies is the purchase ceiling for one item. The default of
// defaultSlots+stacks is a heuristic (five other slots plus natural stacking),
// not an authoritative catalog quantity. An ownership group cap replaces it.
func maxCopies(cat *Catalog, id string, it *CatalogItem, defaultSlots int) int {
	stacks := 1
	if it.Stacks != nil {
		stacks = *it.Stacks
	}
	ceiling := defaultSlots + stacks

	g := cat.GroupFor(id, it)
	if g == nil {
		return ceiling
	}
	limit, err := strconv.Atoi(g.MaxOwnable)
	if err != nil || limit <= noGroupCap {
		return ceiling
	}
	return limit
}

// ExcludeItems drops items whose id is listed and returns the listed ids that
// matched no item, in the order given.
func ExcludeItems(items []BuildItem, ids []string) ([]BuildItem, []string) {
	if len(ids) == 0 {
		return items, nil
	}
	drop := lo.SliceToMap(ids, func(id string) (string, bool) { return id, true })
	kept := lo.Filter(items, func(it BuildItem, _ int) bool { return !drop[it.ID] })

	present := lo.SliceToMap(items, func(it BuildItem) (string, bool) { return it.ID, true })
	unknown := lo.Filter(ids, func(id string, _ int) bool { return !present[id] })
	return kept, unknown
}
