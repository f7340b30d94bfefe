package schema

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies one of the closed set of node variants.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindVector
	KindList
	KindDict
	KindIndex
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindIndex:
		return "index"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ByteOrder is the declared byte order of a node. The zero value is little-endian.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// Node is a schema declaration. Implementations are limited to the types in
// this package.
type Node interface {
	Kind() Kind
	Order() ByteOrder
	node()
}

// Primitive is the declared type of a scalar node.
type Primitive uint8

const (
	Int8 Primitive = iota + 1
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	String
	Bytes
)

var primitiveNames = map[Primitive]string{
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Float32: "float32", Float64: "float64",
	Bool: "bool", String: "string", Bytes: "bytes",
}

func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("primitive(%d)", uint8(p))
}

// Valid reports whether p is a known primitive.
func (p Primitive) Valid() bool {
	_, ok := primitiveNames[p]
	return ok
}

// Width is the encoded size in bytes. Length-prefixed primitives report the
// size of their prefix.
func (p Primitive) Width() int {
	switch p {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32, String, Bytes:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// Scalar reads one primitive value.
type Scalar struct {
	Type      Primitive
	ByteOrder ByteOrder
}

// Vector is a fixed-size sequence whose length is declared by the schema.
// With Aliases set the decoded value is a record keyed by alias.
type Vector struct {
	Length    int
	Item      Node
	Aliases   []string
	ByteOrder ByteOrder
}

// List is a variable-size sequence with a uint32 count prefix.
type List struct {
	Item      Node
	ByteOrder ByteOrder
}

// Dict is a key-ordered mapping with a uint32 count prefix.
type Dict struct {
	Key       Node
	Value     Node
	ByteOrder ByteOrder
}

// DuplicatePolicy decides what an Index does with a repeated key.
type DuplicatePolicy uint8

const (
	// KeepLast overwrites the earlier value and keeps its position.
	KeepLast DuplicatePolicy = iota
	// KeepFirst ignores later records with the same key.
	KeepFirst
	// RejectDuplicates fails the decode.
	RejectDuplicates
)

func (p DuplicatePolicy) String() string {
	switch p {
	case KeepFirst:
		return "first"
	case RejectDuplicates:
		return "error"
	default:
		return "last"
	}
}

// ParseDuplicatePolicy maps a descriptor value to a policy. Empty means last.
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, bool) {
	switch raw {
	case "", "last":
		return KeepLast, true
	case "first":
		return KeepFirst, true
	case "error", "reject":
		return RejectDuplicates, true
	default:
		return KeepLast, false
	}
}

// Index is a multi-key table: a uint32 count of records, each keyed by the
// values of the Keys fields.
type Index struct {
	Keys        []string
	Record      *Object
	OnDuplicate DuplicatePolicy
	ByteOrder   ByteOrder
}

// Field is one named attribute of an Object.
type Field struct {
	Name     string
	Type     Node
	Optional bool
}

// Object is a record of named fields decoded in declaration order. When any
// field is optional a presence bitmap precedes the fields.
type Object struct {
	Fields    []Field
	ByteOrder ByteOrder
}

// OptionalCount is the number of bits in the presence bitmap.
func (o *Object) OptionalCount() int {
	n := 0
	for _, f := range o.Fields {
		if f.Optional {
			n++
		}
	}
	return n
}

// Field returns the named attribute.
func (o *Object) Field(name string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (*Scalar) Kind() Kind { return KindScalar }
func (*Vector) Kind() Kind { return KindVector }
func (*List) Kind() Kind   { return KindList }
func (*Dict) Kind() Kind   { return KindDict }
func (*Index) Kind() Kind  { return KindIndex }
func (*Object) Kind() Kind { return KindObject }

func (n *Scalar) Order() ByteOrder { return n.ByteOrder }
func (n *Vector) Order() ByteOrder { return n.ByteOrder }
func (n *List) Order() ByteOrder   { return n.ByteOrder }
func (n *Dict) Order() ByteOrder   { return n.ByteOrder }
func (n *Index) Order() ByteOrder  { return n.ByteOrder }
func (n *Object) Order() ByteOrder { return n.ByteOrder }

func (*Scalar) node() {}
func (*Vector) node() {}
func (*List) node()   {}
func (*Dict) node()   {}
func (*Index) node()  {}
func (*Object) node() {}
