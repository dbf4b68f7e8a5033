package main

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Gold is the price block of a catalog item. Total is the purchase price.
type Gold struct {
	Base        int
	Total       int
	Sell        int
	Purchasable bool
}

// CatalogItem is one entry of the item catalog. Pointer fields are optional in
// the source document; their defaults are resolved by ProjectItems, not here.
type CatalogItem struct {
	ID          string
	Name        string
	Description string
	Plaintext   string
	Colloq      string

	Gold    *Gold
	InStore *bool
	Maps    map[string]bool
	Stats   map[string]float64
	Tags    []string

	From   []string
	Into   []string
	Depth  *int
	Stacks *int
	Group  string

	Consumed         *bool
	HideFromAll      *bool
	RequiredChampion string
	RequiredAlly     string
}

// OwnershipGroup caps how many items sharing the group a build may hold.
// MaxOwnable is kept as shipped; "-1" means no cap.
type OwnershipGroup struct {
	ID         string
	MaxOwnable string
}

// CategoryNode is one header of the shop category tree.
type CategoryNode struct {
	Header string
	Tags   []string
}

// Catalog is the parsed item dataset for one game version.
type Catalog struct {
	Version string
	Basic   CatalogItem
	Items   map[string]CatalogItem
	Groups  []OwnershipGroup
	Tree    []CategoryNode
}

// GroupFor returns the ownership group governing the item: the group whose id
// is the item id or the item's own group name. First match in catalog order wins.
func (c *Catalog) GroupFor(id string, item *CatalogItem) *OwnershipGroup {
	for i := range c.Groups {
		g := &c.Groups[i]
		if g.ID == id || (item.Group != "" && g.ID == item.Group) {
			return g
		}
	}
	return nil
}

// LoadCatalog reads and parses the catalog document at path.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogRead, err)
	}
	cat, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog parses a catalog document. Invalid JSON or a field of the wrong
// type fails with ErrCatalogParse; a repeated item id with ErrMalformedCatalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrCatalogParse)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: root is %s, want object", ErrCatalogParse, root.Type)
	}

	p := &catalogParser{}
	cat := &Catalog{
		Version: p.str(root.Get("version"), "version"),
		Items:   make(map[string]CatalogItem),
	}

	if basic := root.Get("basic"); p.object(basic, "basic") {
		cat.Basic = p.item(basic, "basic", "")
	}

	if items := root.Get("data"); p.object(items, "data") {
		items.ForEach(func(k, v gjson.Result) bool {
			id := k.String()
			path := "data." + id
			if _, dup := cat.Items[id]; dup {
				p.err = fmt.Errorf("%w: duplicate item id %q", ErrMalformedCatalog, id)
				return false
			}
			if !p.object(v, path) {
				if p.err == nil {
					p.fail(path, "object", v)
				}
				return false
			}
			cat.Items[id] = p.item(v, path, id)
			return p.err == nil
		})
	}

	if groups := root.Get("groups"); p.array(groups, "groups") {
		groups.ForEach(func(k, v gjson.Result) bool {
			path := "groups." + k.String()
			if !v.IsObject() {
				p.fail(path, "object", v)
				return false
			}
			g := OwnershipGroup{ID: p.str(v.Get("id"), path+".id")}
			switch mo := v.Get("MaxGroupOwnable"); mo.Type {
			case gjson.String, gjson.Number:
				g.MaxOwnable = mo.String()
			case gjson.Null:
			default:
				p.fail(path+".MaxGroupOwnable", "string", mo)
			}
			cat.Groups = append(cat.Groups, g)
			return p.err == nil
		})
	}

	if tree := root.Get("tree"); p.array(tree, "tree") {
		tree.ForEach(func(k, v gjson.Result) bool {
			path := "tree." + k.String()
			if !v.IsObject() {
				p.fail(path, "object", v)
				return false
			}
			cat.Tree = append(cat.Tree, CategoryNode{
				Header: p.str(v.Get("header"), path+".header"),
				Tags:   p.strList(v.Get("tags"), path+".tags"),
			})
			return p.err == nil
		})
	}

	if p.err != nil {
		return nil, p.err
	}
	return cat, nil
}

// catalogParser records the first type mismatch met while walking the document.
type catalogParser struct {
	err error
}

func (p *catalogParser) fail(path, want string, got gjson.Result) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s is %s, want %s", ErrCatalogParse, path, got.Type, want)
	}
}

func absent(r gjson.Result) bool {
	return !r.Exists() || r.Type == gjson.Null
}

// object reports whether r is a present object; a present non-object is a parse error.
func (p *catalogParser) object(r gjson.Result, path string) bool {
	if absent(r) {
		return false
	}
	if !r.IsObject() {
		p.fail(path, "object", r)
		return false
	}
	return true
}

func (p *catalogParser) array(r gjson.Result, path string) bool {
	if absent(r) {
		return false
	}
	if !r.IsArray() {
		p.fail(path, "array", r)
		return false
	}
	return true
}

func (p *catalogParser) str(r gjson.Result, path string) string {
	if absent(r) {
		return ""
	}
	if r.Type != gjson.String {
		p.fail(path, "string", r)
		return ""
	}
	return r.String()
}

func (p *catalogParser) num(r gjson.Result, path string) float64 {
	if absent(r) {
		return 0
	}
	if r.Type != gjson.Number {
		p.fail(path, "number", r)
		return 0
	}
	return r.Float()
}

func (p *catalogParser) optInt(r gjson.Result, path string) *int {
	if absent(r) {
		return nil
	}
	if r.Type != gjson.Number {
		p.fail(path, "number", r)
		return nil
	}
	n := int(r.Int())
	return &n
}

func (p *catalogParser) optBool(r gjson.Result, path string) *bool {
	if absent(r) {
		return nil
	}
	if !r.IsBool() {
		p.fail(path, "boolean", r)
		return nil
	}
	b := r.Bool()
	return &b
}

func (p *catalogParser) strList(r gjson.Result, path string) []string {
	if !p.array(r, path) {
		return nil
	}
	var out []string
	r.ForEach(func(k, v gjson.Result) bool {
		out = append(out, p.str(v, path+"."+k.String()))
		return p.err == nil
	})
	return out
}

func (p *catalogParser) item(v gjson.Result, path, id string) CatalogItem {
	it := CatalogItem{
		ID:               id,
		Name:             p.str(v.Get("name"), path+".name"),
		Description:      p.str(v.Get("description"), path+".description"),
		Plaintext:        p.str(v.Get("plaintext"), path+".plaintext"),
		Colloq:           p.str(v.Get("colloq"), path+".colloq"),
		InStore:          p.optBool(v.Get("inStore"), path+".inStore"),
		Tags:             p.strList(v.Get("tags"), path+".tags"),
		From:             p.strList(v.Get("from"), path+".from"),
		Into:             p.strList(v.Get("into"), path+".into"),
		Depth:            p.optInt(v.Get("depth"), path+".depth"),
		Stacks:           p.optInt(v.Get("stacks"), path+".stacks"),
		Group:            p.str(v.Get("group"), path+".group"),
		Consumed:         p.optBool(v.Get("consumed"), path+".consumed"),
		HideFromAll:      p.optBool(v.Get("hideFromAll"), path+".hideFromAll"),
		RequiredChampion: p.str(v.Get("requiredChampion"), path+".requiredChampion"),
		RequiredAlly:     p.str(v.Get("requiredAlly"), path+".requiredAlly"),
	}

	if g := v.Get("gold"); p.object(g, path+".gold") {
		purchasable := g.Get("purchasable")
		it.Gold = &Gold{
			Base:  int(p.num(g.Get("base"), path+".gold.base")),
			Total: int(p.num(g.Get("total"), path+".gold.total")),
			Sell:  int(p.num(g.Get("sell"), path+".gold.sell")),
		}
		if b := p.optBool(purchasable, path+".gold.purchasable"); b != nil {
			it.Gold.Purchasable = *b
		}
	}

	if m := v.Get("maps"); p.object(m, path+".maps") {
		it.Maps = make(map[string]bool)
		m.ForEach(func(k, mv gjson.Result) bool {
			if b := p.optBool(mv, path+".maps."+k.String()); b != nil {
				it.Maps[k.String()] = *b
			}
			return p.err == nil
		})
	}

	if s := v.Get("stats"); p.object(s, path+".stats") {
		it.Stats = make(map[string]float64)
		s.ForEach(func(k, sv gjson.Result) bool {
			it.Stats[k.String()] = p.num(sv, path+".stats."+k.String())
			return p.err == nil
		})
	}

	return it
}
