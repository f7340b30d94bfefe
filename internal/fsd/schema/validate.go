package schema

import "math"

// Validate checks structural constraints the decoder relies on.
func Validate(node Node) error {
	return validate(node, Root())
}

func validate(node Node, path Path) error {
	switch n := node.(type) {
	case *Scalar:
		if !n.Type.Valid() {
			return unsupported(path, "unknown primitive %s", n.Type)
		}
	case *Vector:
		if n.Length < 0 {
			return invalid(path, "negative vector length %d", n.Length)
		}
		if len(n.Aliases) > 0 {
			if len(n.Aliases) != n.Length {
				return invalid(path.Child("aliases"), "%d aliases for vector of length %d", len(n.Aliases), n.Length)
			}
			if dup, ok := firstDuplicate(n.Aliases); ok {
				return invalid(path.Child("aliases"), "duplicate alias %q", dup)
			}
		}
		return validate(n.Item, path.Child("itemType"))
	case *List:
		return validate(n.Item, path.Child("itemType"))
	case *Dict:
		if _, ok := n.Key.(*Scalar); !ok {
			if n.Key == nil {
				return invalid(path.Child("keyType"), "missing key type")
			}
			return invalid(path.Child("keyType"), "dict keys must be scalar, got %s", n.Key.Kind())
		}
		if err := validate(n.Key, path.Child("keyType")); err != nil {
			return err
		}
		return validate(n.Value, path.Child("valueType"))
	case *Index:
		if n.Record == nil {
			return invalid(path.Child("recordType"), "missing record type")
		}
		if len(n.Keys) == 0 {
			return invalid(path.Child("keys"), "index requires at least one key")
		}
		for i, key := range n.Keys {
			f, ok := n.Record.Field(key)
			if !ok {
				return invalid(path.Child("keys").Elem(i), "key %q is not a record attribute", key)
			}
			if f.Optional {
				return invalid(path.Child("keys").Elem(i), "key %q must not be optional", key)
			}
			if _, ok := f.Type.(*Scalar); !ok {
				return invalid(path.Child("keys").Elem(i), "key %q must be scalar", key)
			}
		}
		return validate(n.Record, path.Child("recordType"))
	case *Object:
		names := make([]string, 0, len(n.Fields))
		for i, f := range n.Fields {
			if f.Name == "" {
				return invalid(path.Child("attributes").Elem(i), "attribute has no name")
			}
			names = append(names, f.Name)
			if err := validate(f.Type, path.Child("attributes").Elem(i)); err != nil {
				return err
			}
		}
		if dup, ok := firstDuplicate(names); ok {
			return invalid(path.Child("attributes"), "duplicate attribute %q", dup)
		}
	case nil:
		return invalid(path, "missing node")
	default:
		return unsupported(path, "unknown node %T", node)
	}
	return nil
}

func firstDuplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return name, true
		}
		seen[name] = struct{}{}
	}
	return "", false
}

// MinSize is the smallest encoding of any value of node, saturating at
// math.MaxInt32. Unknown nodes report 0.
func MinSize(node Node) int {
	return int(minSize(node))
}

func minSize(node Node) int64 {
	switch n := node.(type) {
	case *Scalar:
		return int64(n.Type.Width())
	case *Vector:
		return mulSaturate(int64(n.Length), minSize(n.Item))
	case *List, *Dict, *Index:
		return 4
	case *Object:
		total := int64((n.OptionalCount() + 7) / 8)
		for _, f := range n.Fields {
			if !f.Optional {
				total = saturate(total + minSize(f.Type))
			}
		}
		return total
	default:
		return 0
	}
}

func mulSaturate(a, b int64) int64 {
	if a < 0 || b < 0 {
		return math.MaxInt32
	}
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt32/b {
		return math.MaxInt32
	}
	return a * b
}

func saturate(v int64) int64 {
	if v < 0 || v > math.MaxInt32 {
		return math.MaxInt32
	}
	return v
}
