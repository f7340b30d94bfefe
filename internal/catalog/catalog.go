// Package catalog resolves manufacturing dependencies over extracted static
// data and groups types into categories.
//
// Ownership boundary:
// - blueprint product/material graph
// - category rules
// - dependency, chain, search and export queries
package catalog

import (
	"errors"
	"fmt"
	"sort"

	logs "github.com/danmuck/fsdctl/internal/logging"
)

var (
	ErrUnknownCategory = errors.New("catalog: unknown category")
	ErrBadRule         = errors.New("catalog: invalid category rule")
)

// DefaultDepth bounds Dependencies recursion.
const DefaultDepth = 10

// Built-in categories filled from the blueprint graph rather than rules.
const (
	CategoryShips      = "ships"
	CategoryBlueprints = "blueprints"
	CategoryComponents = "components"
	CategoryMaterials  = "materials"
)

// Record is one plain decoded record (a type, ship or blueprint).
type Record = map[string]any

// Data is the extracted input of a catalog, keyed by type or blueprint id.
type Data struct {
	Types      map[int64]Record
	Ships      map[int64]Record
	Blueprints map[int64]Record
	Dogma      map[int64]any
}

// Catalog is immutable after New and safe for concurrent readers.
type Catalog struct {
	data Data

	productBlueprint map[int64]int64
	materials        map[int64][]int64
	products         map[int64][]int64

	categories    map[string]map[int64]struct{}
	categoryNames []string
}

func New(data Data, rules []Rule) (*Catalog, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		data:             data,
		productBlueprint: make(map[int64]int64),
		materials:        make(map[int64][]int64),
		products:         make(map[int64][]int64),
		categories:       make(map[string]map[int64]struct{}),
	}
	if c.data.Types == nil {
		c.data.Types = map[int64]Record{}
	}
	if c.data.Ships == nil {
		c.data.Ships = map[int64]Record{}
	}
	if c.data.Blueprints == nil {
		c.data.Blueprints = map[int64]Record{}
	}
	if c.data.Dogma == nil {
		c.data.Dogma = map[int64]any{}
	}

	c.addCategory(CategoryShips)
	for _, r := range compiled {
		c.addCategory(r.category)
	}
	c.addCategory(CategoryBlueprints)
	c.addCategory(CategoryComponents)
	c.addCategory(CategoryMaterials)

	c.buildGraph()
	if err := c.categorize(compiled); err != nil {
		return nil, err
	}
	logs.Debugf("catalog.New types=%d ships=%d blueprints=%d products=%d",
		len(c.data.Types), len(c.data.Ships), len(c.data.Blueprints), len(c.productBlueprint))
	return c, nil
}

func (c *Catalog) addCategory(name string) {
	if _, ok := c.categories[name]; ok {
		return
	}
	c.categories[name] = make(map[int64]struct{})
	c.categoryNames = append(c.categoryNames, name)
}

func (c *Catalog) buildGraph() {
	for _, bpID := range sortedIDs(c.data.Blueprints) {
		bp := c.data.Blueprints[bpID]
		c.categories[CategoryBlueprints][bpID] = struct{}{}
		activities, _ := bp["activities"].(map[string]any)
		mats := map[int64]struct{}{}
		prods := map[int64]struct{}{}
		for _, name := range sortedKeys(activities) {
			activity, _ := activities[name].(map[string]any)
			for _, id := range quantityIDs(activity["products"]) {
				c.productBlueprint[id] = bpID
				prods[id] = struct{}{}
			}
			for _, id := range quantityIDs(activity["materials"]) {
				mats[id] = struct{}{}
			}
		}
		c.materials[bpID] = setToSorted(mats)
		c.products[bpID] = setToSorted(prods)
	}
}

func (c *Catalog) categorize(rules []compiledRule) error {
	for _, id := range sortedIDs(c.data.Types) {
		cat, err := c.classify(id, c.data.Types[id], rules)
		if err != nil {
			return err
		}
		c.categories[cat][id] = struct{}{}
	}
	for id := range c.data.Ships {
		c.categories[CategoryShips][id] = struct{}{}
	}
	return nil
}

func (c *Catalog) classify(id int64, rec Record, rules []compiledRule) (string, error) {
	env := ruleEnv(id, rec)
	for _, r := range rules {
		ok, err := r.match(env)
		if err != nil {
			return "", err
		}
		if ok {
			return r.category, nil
		}
	}
	if c.Craftable(id) {
		return CategoryComponents, nil
	}
	return CategoryMaterials, nil
}

// Craftable reports whether some blueprint produces id.
func (c *Catalog) Craftable(id int64) bool {
	_, ok := c.productBlueprint[id]
	return ok
}

// BlueprintFor returns the blueprint producing id.
func (c *Catalog) BlueprintFor(id int64) (int64, bool) {
	bp, ok := c.productBlueprint[id]
	return bp, ok
}

// Materials returns the material ids of a blueprint, ascending.
func (c *Catalog) Materials(bpID int64) []int64 {
	return append([]int64(nil), c.materials[bpID]...)
}

// TypeName prefers the ship record, then the type record.
func (c *Catalog) TypeName(id int64) string {
	if rec, ok := c.data.Ships[id]; ok {
		if name, ok := rec["typeName"].(string); ok && name != "" {
			return name
		}
	}
	if rec, ok := c.data.Types[id]; ok {
		if name, ok := rec["typeName"].(string); ok && name != "" {
			return name
		}
	}
	return "Type " + formatID(id)
}

// CategoryCount is the size of one category.
type CategoryCount struct {
	Name  string
	Count int
}

// Categories lists every category in declaration order.
func (c *Catalog) Categories() []CategoryCount {
	out := make([]CategoryCount, 0, len(c.categoryNames))
	for _, name := range c.categoryNames {
		out = append(out, CategoryCount{Name: name, Count: len(c.categories[name])})
	}
	return out
}

func (c *Catalog) category(name string) (map[int64]struct{}, error) {
	set, ok := c.categories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}
	return set, nil
}

func sortedIDs[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func setToSorted(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// quantityIDs extracts typeIDs from a [{typeID, quantity}] list.
func quantityIDs(v any) []int64 {
	list, _ := v.([]any)
	out := make([]int64, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := toInt64(rec["typeID"]); ok {
			out = append(out, id)
		}
	}
	return out
}
