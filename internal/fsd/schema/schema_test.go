package schema

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fsdctl/internal/testutil/testlog"
)

const solarSystemsDesc = `
type: dict
keyType: {type: int32}
valueType:
  type: object
  attributes:
    - name: solarSystemName
      type: string
    - name: center
      type: vector3
      itemType: {type: float64}
      aliases: [x, y, z]
    - name: security
      type: float32
      optional: true
    - name: planets
      type: list
      itemType: {type: typeID}
`

func TestParseDescriptorKeepsAttributeOrder(t *testing.T) {
	testlog.Start(t)
	node, err := Parse([]byte(solarSystemsDesc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dict, ok := node.(*Dict)
	if !ok {
		t.Fatalf("expected *Dict, got %T", node)
	}
	if k, ok := dict.Key.(*Scalar); !ok || k.Type != Int32 {
		t.Fatalf("unexpected key node: %#v", dict.Key)
	}
	obj, ok := dict.Value.(*Object)
	if !ok {
		t.Fatalf("expected object value, got %T", dict.Value)
	}
	var names []string
	for _, f := range obj.Fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "solarSystemName,center,security,planets" {
		t.Fatalf("attribute order lost: %v", names)
	}
	center := obj.Fields[1].Type.(*Vector)
	if center.Length != 3 || len(center.Aliases) != 3 {
		t.Fatalf("unexpected vector: %+v", center)
	}
	if s := center.Item.(*Scalar); s.Type != Float64 {
		t.Fatalf("vector item type: %s", s.Type)
	}
	if !obj.Fields[2].Optional || obj.OptionalCount() != 1 {
		t.Fatalf("optional attribute not recorded")
	}
}

func TestParseJSONDescriptor(t *testing.T) {
	testlog.Start(t)
	node, err := Parse([]byte(`{"type": "list", "itemType": {"type": "uint16", "byteOrder": "big"}}`))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	item := node.(*List).Item.(*Scalar)
	if item.Type != Uint16 || item.ByteOrder != BigEndian {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestByteOrderInherited(t *testing.T) {
	testlog.Start(t)
	node, err := Parse([]byte("type: list\nbyteOrder: big\nitemType: {type: int32}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if node.(*List).Item.Order() != BigEndian {
		t.Fatalf("child did not inherit byte order")
	}
}

func TestUnknownTypeIsUnsupportedWithPath(t *testing.T) {
	testlog.Start(t)
	_, err := Parse([]byte(`
type: object
attributes:
  - name: a
    type: int32
  - name: b
    type: quaternion
`))
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if se.Path.String() != "root.attributes[1]" {
		t.Fatalf("unexpected path: %s", se.Path)
	}
}

func TestIndexValidation(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"missing key": `
type: index
keys: [nope]
recordType: {type: object, attributes: [{name: id, type: int32}]}`,
		"optional key": `
type: index
keys: [id]
recordType: {type: object, attributes: [{name: id, type: int32, optional: true}]}`,
		"non-object record": `
type: index
keys: [id]
recordType: {type: int32}`,
		"bad policy": `
type: index
keys: [id]
onDuplicate: sometimes
recordType: {type: object, attributes: [{name: id, type: int32}]}`,
	}
	for name, desc := range cases {
		if _, err := Parse([]byte(desc)); !errors.Is(err, ErrInvalidSchema) {
			t.Fatalf("%s: expected ErrInvalidSchema, got %v", name, err)
		}
	}

	node, err := Parse([]byte(`
type: index
keys: [groupID, typeID]
onDuplicate: first
recordType:
  type: object
  attributes:
    - {name: groupID, type: int32}
    - {name: typeID, type: int32}
    - {name: name, type: string}
`))
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	idx := node.(*Index)
	if idx.OnDuplicate != KeepFirst || len(idx.Keys) != 2 {
		t.Fatalf("unexpected index: %+v", idx)
	}
}

func TestValidateRejectsDuplicateAttributes(t *testing.T) {
	testlog.Start(t)
	obj := &Object{Fields: []Field{
		{Name: "x", Type: &Scalar{Type: Int32}},
		{Name: "x", Type: &Scalar{Type: Int32}},
	}}
	if err := Validate(obj); !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if err := Validate(&Scalar{Type: Primitive(99)}); !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
}

func TestMinSize(t *testing.T) {
	obj := &Object{Fields: []Field{
		{Name: "a", Type: &Scalar{Type: Int64}},
		{Name: "b", Type: &Scalar{Type: String}},
		{Name: "c", Type: &Scalar{Type: Float64}, Optional: true},
		{Name: "d", Type: &Vector{Length: 3, Item: &Scalar{Type: Float32}}},
	}}
	// bitmap 1 + int64 8 + string prefix 4 + 3*4
	if got := MinSize(obj); got != 25 {
		t.Fatalf("MinSize = %d", got)
	}
	if got := MinSize(&List{Item: obj}); got != 4 {
		t.Fatalf("list MinSize = %d", got)
	}
	huge := &Vector{Length: 1 << 30, Item: &Vector{Length: 1 << 30, Item: &Scalar{Type: Int64}}}
	if got := MinSize(huge); got <= 0 {
		t.Fatalf("MinSize must saturate, got %d", got)
	}
	// 4 * 2^62 wraps to 0 in int64
	wrapping := &Vector{Length: math.MaxInt>>1 + 1, Item: &Scalar{Type: Int32}}
	if got := MinSize(wrapping); got != math.MaxInt32 {
		t.Fatalf("MinSize must saturate on overflow, got %d", got)
	}
}

func TestSidecarAndChainSources(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "types.schema.yaml"), []byte("type: list\nitemType: {type: int32}\n"), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	side := SidecarSource{Dir: dir}
	if _, err := side.Schema("types", nil); err != nil {
		t.Fatalf("sidecar: %v", err)
	}
	if _, err := side.Schema("blueprints", nil); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}

	pickled := []byte{0x80, 0x04, 0x95, 'x', '.'}
	if _, err := (EmbeddedSource{}).Schema("types", pickled); !errors.Is(err, ErrPickledSchema) {
		t.Fatalf("expected ErrPickledSchema, got %v", err)
	}

	chain := ChainSource{EmbeddedSource{}, side}
	node, err := chain.Schema("types", pickled)
	if err != nil {
		t.Fatalf("chain should fall through to sidecar: %v", err)
	}
	if node.Kind() != KindList {
		t.Fatalf("unexpected kind: %s", node.Kind())
	}

	node, err = chain.Schema("inline", []byte("type: string"))
	if err != nil || node.Kind() != KindScalar {
		t.Fatalf("embedded text schema: %v %v", node, err)
	}

	protocol0 := []byte("(dp0\nS'typeName'\np1\nI1\ns.")
	if _, err := (EmbeddedSource{}).Schema("types", protocol0); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("ascii pickle: expected ErrSchemaNotFound, got %v", err)
	}
	node, err = chain.Schema("types", protocol0)
	if err != nil || node.Kind() != KindList {
		t.Fatalf("ascii pickle should fall through to sidecar: %v %v", node, err)
	}
	if _, err := chain.Schema("bad", []byte("type: nope")); !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("a broken descriptor must stop the chain, got %v", err)
	}

	if _, err := chain.Schema("missing", nil); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound from chain, got %v", err)
	}
}

func TestPathString(t *testing.T) {
	p := Root().Child("valueType").Child("attributes").Elem(2)
	if p.String() != "root.valueType.attributes[2]" {
		t.Fatalf("unexpected path: %s", p)
	}
	a := Root().Child("a")
	b := a.Child("b")
	c := a.Child("c")
	if b.String() != "root.a.b" || c.String() != "root.a.c" {
		t.Fatalf("paths alias each other: %s %s", b, c)
	}
}
