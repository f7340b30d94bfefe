package catalog

import (
	"github.com/danmuck/fsdctl/internal/fsd"
)

// ExportSelection gathers the records for ids, expanded with their
// dependencies when withDeps is set. The result has meta, types, ships and
// blueprints sections.
func (c *Catalog) ExportSelection(ids []int64, withDeps bool) *fsd.Record {
	selected := map[int64]struct{}{}
	for _, id := range ids {
		selected[id] = struct{}{}
		if withDeps {
			for _, dep := range c.Dependencies(id, DefaultDepth) {
				selected[dep] = struct{}{}
			}
		}
	}

	types := fsd.NewMap(0)
	ships := fsd.NewMap(0)
	bps := fsd.NewMap(0)
	for _, id := range setToSorted(selected) {
		key := formatID(id)
		if rec, ok := c.data.Ships[id]; ok {
			ships.Set(key, rec)
		}
		if rec, ok := c.data.Types[id]; ok {
			types.Set(key, rec)
		}
		if bp, ok := c.productBlueprint[id]; ok {
			if rec, ok := c.data.Blueprints[bp]; ok {
				bps.Set(formatID(bp), rec)
			}
		}
	}

	meta := fsd.NewRecord(3)
	meta.Set("selected_count", int64(len(ids)))
	meta.Set("total_with_dependencies", int64(len(selected)))
	meta.Set("include_dependencies", withDeps)

	out := fsd.NewRecord(4)
	out.Set("meta", meta)
	out.Set("types", types)
	out.Set("ships", ships)
	out.Set("blueprints", bps)
	return out
}

// ExportCategory returns only the data of one category: blueprint records
// for blueprints, ship records for ships and type records with dogma
// attributes for everything else.
func (c *Catalog) ExportCategory(name string) (*fsd.Map, error) {
	set, err := c.category(name)
	if err != nil {
		return nil, err
	}
	out := fsd.NewMap(len(set))
	switch name {
	case CategoryBlueprints:
		for _, id := range sortedIDs(c.data.Blueprints) {
			out.Set(formatID(id), c.data.Blueprints[id])
		}
	case CategoryShips:
		for _, id := range setToSorted(set) {
			if rec, ok := c.data.Ships[id]; ok {
				out.Set(formatID(id), rec)
			} else if rec, ok := c.data.Types[id]; ok {
				out.Set(formatID(id), rec)
			}
		}
	default:
		for _, id := range setToSorted(set) {
			rec, ok := c.data.Types[id]
			if !ok {
				continue
			}
			if dogma, ok := c.data.Dogma[id]; ok {
				cp := make(Record, len(rec)+1)
				for k, v := range rec {
					cp[k] = v
				}
				cp["dogmaAttributes"] = dogma
				rec = cp
			}
			out.Set(formatID(id), rec)
		}
	}
	return out, nil
}

// ExportBlueprints returns every blueprint with the types and ships they
// reference, expanded with dependencies when withDeps is set.
func (c *Catalog) ExportBlueprints(withDeps bool) *fsd.Record {
	all := map[int64]struct{}{}
	for bp := range c.data.Blueprints {
		all[bp] = struct{}{}
		for _, id := range c.products[bp] {
			all[id] = struct{}{}
		}
		for _, id := range c.materials[bp] {
			all[id] = struct{}{}
		}
	}
	if withDeps {
		expanded := map[int64]struct{}{}
		for id := range all {
			for _, dep := range c.Dependencies(id, DefaultDepth) {
				expanded[dep] = struct{}{}
			}
		}
		all = expanded
	}

	bps := fsd.NewMap(len(c.data.Blueprints))
	for _, id := range sortedIDs(c.data.Blueprints) {
		bps.Set(formatID(id), c.data.Blueprints[id])
	}
	types := fsd.NewMap(0)
	ships := fsd.NewMap(0)
	for _, id := range setToSorted(all) {
		if rec, ok := c.data.Ships[id]; ok {
			ships.Set(formatID(id), rec)
		}
		if rec, ok := c.data.Types[id]; ok {
			types.Set(formatID(id), rec)
		}
	}

	meta := fsd.NewRecord(3)
	meta.Set("blueprint_count", int64(len(c.data.Blueprints)))
	meta.Set("total_types", int64(len(all)))
	meta.Set("include_dependencies", withDeps)

	out := fsd.NewRecord(4)
	out.Set("meta", meta)
	out.Set("blueprints", bps)
	out.Set("types", types)
	out.Set("ships", ships)
	return out
}
