package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	logs "github.com/danmuck/fsdctl/internal/logging"
)

var dataExtensions = []string{".json", ".yaml", ".yml"}

// LoadDir reads extracted data from dir. Missing files leave the matching part
// of Data empty.
//
//	blueprints                          -> Blueprints
//	types_frontier, else types          -> Types
//	ships_with_deps, else ships         -> Ships
//	all_dogma                           -> Dogma
func LoadDir(dir string) (Data, error) {
	var data Data

	if doc, path, err := readFirst(dir, "blueprints"); err != nil {
		return Data{}, err
	} else if doc != nil {
		bps, err := ParseBlueprints(doc)
		if err != nil {
			return Data{}, fmt.Errorf("%s: %w", path, err)
		}
		data.Blueprints = bps
		logs.Infof("catalog loaded blueprints=%d from=%s", len(bps), path)
	}

	if doc, path, err := readFirst(dir, "types_frontier", "types"); err != nil {
		return Data{}, err
	} else if doc != nil {
		data.Types = idRecords(doc)
		logs.Infof("catalog loaded types=%d from=%s", len(data.Types), path)
	}

	if doc, path, err := readFirst(dir, "ships_with_deps", "ships"); err != nil {
		return Data{}, err
	} else if doc != nil {
		if m, ok := doc.(map[string]any); ok {
			if wrapped, ok := m["ships"]; ok {
				doc = wrapped
			}
		}
		data.Ships = idRecords(doc)
		logs.Infof("catalog loaded ships=%d from=%s", len(data.Ships), path)
	}

	if doc, path, err := readFirst(dir, "all_dogma"); err != nil {
		return Data{}, err
	} else if doc != nil {
		data.Dogma = map[int64]any{}
		if m, ok := doc.(map[string]any); ok {
			for k, v := range m {
				if id, ok := parseID(k); ok {
					data.Dogma[id] = v
				}
			}
		}
		logs.Infof("catalog loaded dogma=%d from=%s", len(data.Dogma), path)
	}
	return data, nil
}

// ParseBlueprints accepts a SQLite cache dump ({cache: [{value: json}]}), a
// {blueprints: {id: bp}} wrapper or a direct {id: bp} map.
func ParseBlueprints(doc any) (map[int64]Record, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("catalog: blueprints document is not a mapping")
	}
	out := map[int64]Record{}
	if cache, ok := root["cache"]; ok {
		rows, _ := cache.([]any)
		for i, row := range rows {
			rec, ok := row.(map[string]any)
			if !ok {
				continue
			}
			bp, err := cacheValue(rec["value"])
			if err != nil {
				return nil, fmt.Errorf("catalog: cache row %d: %w", i, err)
			}
			id, ok := toInt64(bp["blueprintTypeID"])
			if !ok {
				return nil, fmt.Errorf("catalog: cache row %d has no blueprintTypeID", i)
			}
			out[id] = bp
		}
		return out, nil
	}
	if wrapped, ok := root["blueprints"]; ok {
		return idRecords(wrapped), nil
	}
	return idRecords(root), nil
}

func cacheValue(v any) (Record, error) {
	switch x := v.(type) {
	case string:
		doc, err := decodeJSON([]byte(x))
		if err != nil {
			return nil, err
		}
		rec, ok := doc.(map[string]any)
		if !ok {
			return nil, errors.New("value is not an object")
		}
		return rec, nil
	case map[string]any:
		return x, nil
	default:
		return nil, fmt.Errorf("unexpected value type %T", v)
	}
}

// idRecords keeps the entries of a mapping whose keys are numeric ids.
func idRecords(doc any) map[int64]Record {
	m, _ := doc.(map[string]any)
	out := make(map[int64]Record, len(m))
	for k, v := range m {
		id, ok := parseID(k)
		if !ok {
			continue
		}
		if rec, ok := v.(map[string]any); ok {
			out[id] = rec
		}
	}
	return out
}

func readFirst(dir string, bases ...string) (any, string, error) {
	for _, base := range bases {
		for _, ext := range dataExtensions {
			path := filepath.Join(dir, base+ext)
			raw, err := os.ReadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, path, fmt.Errorf("catalog read failed (%s): %w", path, err)
			}
			var doc any
			if ext == ".json" {
				doc, err = decodeJSON(raw)
			} else {
				doc, err = decodeYAML(raw)
			}
			if err != nil {
				return nil, path, fmt.Errorf("catalog parse failed (%s): %w", path, err)
			}
			return doc, path, nil
		}
	}
	return nil, "", nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return normalize(doc), nil
}

func decodeYAML(raw []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return normalize(doc), nil
}

// normalize converts numbers to int64 or float64 and mappings to
// map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	case int:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	default:
		return v
	}
}

func parseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	case string:
		return parseID(x)
	default:
		return 0, false
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
