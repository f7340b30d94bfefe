package schema

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Descriptor is the serialized form of a schema node. YAML and JSON documents
// are both accepted.
type Descriptor struct {
	Type      string `yaml:"type"`
	ByteOrder string `yaml:"byteOrder,omitempty"`

	// vector / list
	Length   *int        `yaml:"length,omitempty"`
	ItemType *Descriptor `yaml:"itemType,omitempty"`
	Aliases  []string    `yaml:"aliases,omitempty"`

	// dict
	KeyType   *Descriptor `yaml:"keyType,omitempty"`
	ValueType *Descriptor `yaml:"valueType,omitempty"`

	// index
	Keys        []string    `yaml:"keys,omitempty"`
	RecordType  *Descriptor `yaml:"recordType,omitempty"`
	OnDuplicate string      `yaml:"onDuplicate,omitempty"`

	// object
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Attribute is one named object field in a descriptor.
type Attribute struct {
	Name       string `yaml:"name"`
	Optional   bool   `yaml:"optional,omitempty"`
	Descriptor `yaml:",inline"`
}

var primitiveByName = map[string]Primitive{
	"int8": Int8, "int16": Int16, "int32": Int32, "int64": Int64,
	"uint8": Uint8, "uint16": Uint16, "uint32": Uint32, "uint64": Uint64,
	"float32": Float32, "float64": Float64,
	"bool": Bool, "string": String, "bytes": Bytes,

	"int": Int32, "long": Int64, "float": Float32, "double": Float64,
	"typeID": Int32, "localizationID": Int32, "unicode": String, "binary": Bytes,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes a YAML or JSON descriptor and compiles it.
func Parse(data []byte) (Node, error) {
	var desc Descriptor
	if err := yaml.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &desc); err != nil {
		return nil, fmt.Errorf("%w: parse descriptor: %v", ErrInvalidSchema, err)
	}
	return Compile(&desc)
}

// Load reads and compiles a descriptor file.
func Load(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema load failed (%s): %w", path, err)
	}
	node, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return node, nil
}

// Compile builds and validates the node tree for desc.
func Compile(desc *Descriptor) (Node, error) {
	node, err := compile(desc, Root(), LittleEndian)
	if err != nil {
		return nil, err
	}
	if err := Validate(node); err != nil {
		return nil, err
	}
	return node, nil
}

func compile(d *Descriptor, path Path, inherited ByteOrder) (Node, error) {
	if d == nil {
		return nil, invalid(path, "missing node")
	}
	order, err := parseOrder(d.ByteOrder, inherited, path)
	if err != nil {
		return nil, err
	}

	kind := strings.TrimSpace(d.Type)
	if prim, ok := primitiveByName[kind]; ok {
		return &Scalar{Type: prim, ByteOrder: order}, nil
	}

	switch kind {
	case "vector", "vector2", "vector3", "vector4":
		return compileVector(d, kind, path, order)
	case "list":
		item, err := compile(d.ItemType, path.Child("itemType"), order)
		if err != nil {
			return nil, err
		}
		return &List{Item: item, ByteOrder: order}, nil
	case "dict":
		key, err := compile(d.KeyType, path.Child("keyType"), order)
		if err != nil {
			return nil, err
		}
		value, err := compile(d.ValueType, path.Child("valueType"), order)
		if err != nil {
			return nil, err
		}
		return &Dict{Key: key, Value: value, ByteOrder: order}, nil
	case "index":
		rec, err := compile(d.RecordType, path.Child("recordType"), order)
		if err != nil {
			return nil, err
		}
		obj, ok := rec.(*Object)
		if !ok {
			return nil, invalid(path.Child("recordType"), "index record must be an object, got %s", rec.Kind())
		}
		policy, ok := ParseDuplicatePolicy(strings.TrimSpace(d.OnDuplicate))
		if !ok {
			return nil, invalid(path.Child("onDuplicate"), "unknown duplicate policy %q", d.OnDuplicate)
		}
		return &Index{Keys: append([]string(nil), d.Keys...), Record: obj, OnDuplicate: policy, ByteOrder: order}, nil
	case "object":
		obj := &Object{Fields: make([]Field, 0, len(d.Attributes)), ByteOrder: order}
		for i := range d.Attributes {
			attr := &d.Attributes[i]
			ft, err := compile(&attr.Descriptor, path.Child("attributes").Elem(i), order)
			if err != nil {
				return nil, err
			}
			obj.Fields = append(obj.Fields, Field{Name: attr.Name, Type: ft, Optional: attr.Optional})
		}
		return obj, nil
	case "":
		return nil, invalid(path, "node has no type")
	default:
		return nil, unsupported(path, "unknown node type %q", kind)
	}
}

func compileVector(d *Descriptor, kind string, path Path, order ByteOrder) (Node, error) {
	length := -1
	if d.Length != nil {
		length = *d.Length
	}
	switch kind {
	case "vector2":
		length = 2
	case "vector3":
		length = 3
	case "vector4":
		length = 4
	}
	if length < 0 {
		return nil, invalid(path.Child("length"), "vector requires a non-negative length")
	}
	itemDesc := d.ItemType
	if itemDesc == nil && kind != "vector" {
		itemDesc = &Descriptor{Type: "float32"}
	}
	item, err := compile(itemDesc, path.Child("itemType"), order)
	if err != nil {
		return nil, err
	}
	return &Vector{Length: length, Item: item, Aliases: append([]string(nil), d.Aliases...), ByteOrder: order}, nil
}

func parseOrder(raw string, inherited ByteOrder, path Path) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return inherited, nil
	case "little", "le", "little-endian":
		return LittleEndian, nil
	case "big", "be", "big-endian":
		return BigEndian, nil
	default:
		return inherited, invalid(path.Child("byteOrder"), "unknown byte order %q", raw)
	}
}
