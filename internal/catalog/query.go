package catalog

import (
	"sort"
	"strings"
)

// Dependencies returns id plus every blueprint and material needed to build
// it, ascending. depth <= 0 uses DefaultDepth. A material reached through
// several paths is expanded once.
func (c *Catalog) Dependencies(id int64, depth int) []int64 {
	if depth <= 0 {
		depth = DefaultDepth
	}
	out := map[int64]struct{}{}
	c.collect(id, depth, map[int64]struct{}{}, out)
	return setToSorted(out)
}

func (c *Catalog) collect(id int64, depth int, visited, out map[int64]struct{}) {
	if depth <= 0 {
		return
	}
	if _, ok := visited[id]; ok {
		return
	}
	visited[id] = struct{}{}
	out[id] = struct{}{}
	bp, ok := c.productBlueprint[id]
	if !ok {
		return
	}
	out[bp] = struct{}{}
	for _, mat := range c.materials[bp] {
		out[mat] = struct{}{}
		c.collect(mat, depth-1, visited, out)
	}
}

// ChainMaterial is one input of a chain entry.
type ChainMaterial struct {
	TypeID    int64  `json:"typeID" yaml:"typeID"`
	TypeName  string `json:"typeName" yaml:"typeName"`
	Craftable bool   `json:"craftable" yaml:"craftable"`
}

// ChainEntry is one type at a chain level.
type ChainEntry struct {
	TypeID    int64           `json:"typeID" yaml:"typeID"`
	TypeName  string          `json:"typeName" yaml:"typeName"`
	Craftable bool            `json:"craftable" yaml:"craftable"`
	Materials []ChainMaterial `json:"materials" yaml:"materials"`
}

// Chain is a manufacturing tree flattened breadth first. Levels[0] holds the
// target; each later level holds the not yet seen materials of the previous.
type Chain struct {
	Target     int64          `json:"target" yaml:"target"`
	TargetName string         `json:"target_name" yaml:"target_name"`
	Levels     [][]ChainEntry `json:"levels" yaml:"levels"`
}

func (c *Catalog) Chain(id int64) Chain {
	chain := Chain{Target: id, TargetName: c.TypeName(id)}
	visited := map[int64]struct{}{}
	current := []int64{id}
	for len(current) > 0 {
		var level []ChainEntry
		next := map[int64]struct{}{}
		for _, tid := range current {
			if _, ok := visited[tid]; ok {
				continue
			}
			visited[tid] = struct{}{}
			entry := ChainEntry{TypeID: tid, TypeName: c.TypeName(tid), Craftable: c.Craftable(tid), Materials: []ChainMaterial{}}
			if bp, ok := c.productBlueprint[tid]; ok {
				for _, mat := range c.materials[bp] {
					entry.Materials = append(entry.Materials, ChainMaterial{
						TypeID:    mat,
						TypeName:  c.TypeName(mat),
						Craftable: c.Craftable(mat),
					})
					if _, seen := visited[mat]; !seen {
						next[mat] = struct{}{}
					}
				}
			}
			level = append(level, entry)
		}
		if len(level) > 0 {
			chain.Levels = append(chain.Levels, level)
		}
		current = setToSorted(next)
	}
	return chain
}

// SearchResult is one Search hit.
type SearchResult struct {
	TypeID    int64  `json:"typeID" yaml:"typeID"`
	TypeName  string `json:"typeName" yaml:"typeName"`
	GroupID   any    `json:"groupID" yaml:"groupID"`
	GroupName string `json:"groupName,omitempty" yaml:"groupName,omitempty"`
	Source    string `json:"source" yaml:"source"`
}

// Search matches names case-insensitively across types then ships, sorted
// by name.
func (c *Catalog) Search(query string) []SearchResult {
	needle := strings.ToLower(query)
	var out []SearchResult
	seen := map[int64]struct{}{}
	for _, id := range sortedIDs(c.data.Types) {
		rec := c.data.Types[id]
		name, _ := rec["typeName"].(string)
		if name == "" || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, SearchResult{TypeID: id, TypeName: name, GroupID: rec["groupID"], Source: "types"})
	}
	for _, id := range sortedIDs(c.data.Ships) {
		rec := c.data.Ships[id]
		name, _ := rec["typeName"].(string)
		if name == "" || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		group, _ := rec["groupName"].(string)
		out = append(out, SearchResult{TypeID: id, TypeName: name, GroupID: rec["groupID"], GroupName: group, Source: "ships"})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TypeName < out[j].TypeName })
	return out
}

// Listing is one ListCategory entry.
type Listing struct {
	TypeID   int64  `json:"typeID" yaml:"typeID"`
	TypeName string `json:"typeName" yaml:"typeName"`
}

// ListCategory returns the members of a category sorted by name.
func (c *Catalog) ListCategory(name string) ([]Listing, error) {
	set, err := c.category(name)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(set))
	for _, id := range setToSorted(set) {
		out = append(out, Listing{TypeID: id, TypeName: c.TypeName(id)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TypeName < out[j].TypeName })
	return out, nil
}
