package fsd

import (
	"errors"
	"math"

	"github.com/danmuck/fsdctl/internal/fsd/cursor"
	"github.com/danmuck/fsdctl/internal/fsd/schema"
	logs "github.com/danmuck/fsdctl/internal/logging"
)

// Options bounds a single decode call.
type Options struct {
	// MaxDepth limits schema nesting.
	MaxDepth int
	// MaxCount limits any single count prefix or declared vector length.
	MaxCount int
}

func DefaultOptions() Options {
	return Options{
		MaxDepth: 64,
		MaxCount: 1 << 24,
	}
}

// Decode decodes the whole of buf as one value of node. Bytes left over after
// the value are corrupt data.
func Decode(buf []byte, node schema.Node, opts Options) (Value, error) {
	v, end, err := DecodeAt(buf, 0, node, opts)
	if err != nil {
		return nil, err
	}
	if end != len(buf) {
		return nil, corrupt(schema.Root(), end, "%d trailing bytes after value", len(buf)-end)
	}
	return v, nil
}

// DecodeAt decodes one value of node starting at off and returns the offset
// just past it. On error the returned offset is off and no value is returned.
func DecodeAt(buf []byte, off int, node schema.Node, opts Options) (Value, int, error) {
	if opts.MaxDepth <= 0 || opts.MaxCount <= 0 {
		def := DefaultOptions()
		if opts.MaxDepth <= 0 {
			opts.MaxDepth = def.MaxDepth
		}
		if opts.MaxCount <= 0 {
			opts.MaxCount = def.MaxCount
		}
	}
	c, err := cursor.New(buf, off)
	if err != nil {
		return nil, off, corrupt(schema.Root(), off, "%v", err)
	}
	d := decoder{opts: opts}
	v, err := d.decode(c, node, schema.Root(), 0)
	if err != nil {
		logs.Debugf("fsd.DecodeAt failed start=%d len=%d: %v", off, len(buf), err)
		return nil, off, err
	}
	return v, c.Offset(), nil
}

type decoder struct {
	opts Options
}

// decode is the single dispatch point over node kinds.
func (d *decoder) decode(c *cursor.Cursor, node schema.Node, path schema.Path, depth int) (Value, error) {
	if depth > d.opts.MaxDepth {
		return nil, corrupt(path, c.Offset(), "nesting deeper than %d", d.opts.MaxDepth)
	}
	switch n := node.(type) {
	case *schema.Scalar:
		return d.scalar(c, n, path)
	case *schema.Vector:
		return d.vector(c, n, path, depth)
	case *schema.List:
		return d.list(c, n, path, depth)
	case *schema.Dict:
		return d.dict(c, n, path, depth)
	case *schema.Index:
		return d.index(c, n, path, depth)
	case *schema.Object:
		return d.object(c, n, path, depth)
	case nil:
		return nil, unsupported(path, c.Offset(), "missing schema node")
	default:
		return nil, unsupported(path, c.Offset(), "unknown node %T", node)
	}
}

func (d *decoder) scalar(c *cursor.Cursor, n *schema.Scalar, path schema.Path) (Value, error) {
	if n == nil || !n.Type.Valid() {
		return nil, unsupported(path, c.Offset(), "unknown scalar type")
	}
	c.SetOrder(n.ByteOrder.Binary())
	start := c.Offset()
	var (
		v   Value
		err error
	)
	switch n.Type {
	case schema.Int8:
		var x int8
		x, err = c.Int8()
		v = int64(x)
	case schema.Int16:
		var x int16
		x, err = c.Int16()
		v = int64(x)
	case schema.Int32:
		var x int32
		x, err = c.Int32()
		v = int64(x)
	case schema.Int64:
		v, err = c.Int64()
	case schema.Uint8:
		var x uint8
		x, err = c.Uint8()
		v = uint64(x)
	case schema.Uint16:
		var x uint16
		x, err = c.Uint16()
		v = uint64(x)
	case schema.Uint32:
		var x uint32
		x, err = c.Uint32()
		v = uint64(x)
	case schema.Uint64:
		v, err = c.Uint64()
	case schema.Float32:
		var x float32
		x, err = c.Float32()
		v = float64(x)
	case schema.Float64:
		v, err = c.Float64()
	case schema.Bool:
		v, err = c.Bool()
	case schema.String:
		var b []byte
		b, err = c.LenPrefixed()
		v = string(b)
	case schema.Bytes:
		v, err = c.LenPrefixed()
	}
	if err != nil {
		return nil, d.readErr(path, start, n.Type.String(), err)
	}
	return v, nil
}

func (d *decoder) readErr(path schema.Path, off int, what string, err error) error {
	if errors.Is(err, cursor.ErrInvalidBool) {
		return corrupt(path, off, "%v", err)
	}
	return corrupt(path, off, "truncated %s: %v", what, err)
}

// count reads a uint32 count prefix and rejects counts the remaining buffer
// cannot hold.
func (d *decoder) count(c *cursor.Cursor, order schema.ByteOrder, itemSize int, path schema.Path) (int, error) {
	c.SetOrder(order.Binary())
	start := c.Offset()
	n, err := c.Uint32()
	if err != nil {
		return 0, d.readErr(path, start, "count", err)
	}
	if err := d.fits(c, uint64(n), itemSize, path, start); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (d *decoder) fits(c *cursor.Cursor, n uint64, itemSize int, path schema.Path, off int) error {
	if n > uint64(d.opts.MaxCount) {
		return corrupt(path, off, "count %d exceeds limit %d", n, d.opts.MaxCount)
	}
	if itemSize > 0 {
		need := n * uint64(itemSize)
		if need/uint64(itemSize) != n || need > uint64(c.Remaining()) || need > math.MaxInt {
			return corrupt(path, off, "count %d needs at least %d bytes, %d remain", n, need, c.Remaining())
		}
	}
	return nil
}

func (d *decoder) items(c *cursor.Cursor, n int, item schema.Node, path schema.Path, depth int) (List, error) {
	out := make(List, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.decode(c, item, path.Elem(i), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) vector(c *cursor.Cursor, n *schema.Vector, path schema.Path, depth int) (Value, error) {
	if n.Length < 0 {
		return nil, unsupported(path, c.Offset(), "negative vector length %d", n.Length)
	}
	if len(n.Aliases) > 0 && len(n.Aliases) != n.Length {
		return nil, unsupported(path, c.Offset(), "%d aliases for vector of length %d", len(n.Aliases), n.Length)
	}
	if err := d.fits(c, uint64(n.Length), schema.MinSize(n.Item), path, c.Offset()); err != nil {
		return nil, err
	}
	items, err := d.items(c, n.Length, n.Item, path, depth)
	if err != nil {
		return nil, err
	}
	if len(n.Aliases) == 0 {
		return items, nil
	}
	rec := NewRecord(len(items))
	for i, alias := range n.Aliases {
		rec.Set(alias, items[i])
	}
	return rec, nil
}

func (d *decoder) list(c *cursor.Cursor, n *schema.List, path schema.Path, depth int) (Value, error) {
	count, err := d.count(c, n.ByteOrder, schema.MinSize(n.Item), path)
	if err != nil {
		return nil, err
	}
	return d.items(c, count, n.Item, path, depth)
}

func (d *decoder) dict(c *cursor.Cursor, n *schema.Dict, path schema.Path, depth int) (Value, error) {
	count, err := d.count(c, n.ByteOrder, schema.MinSize(n.Key)+schema.MinSize(n.Value), path)
	if err != nil {
		return nil, err
	}
	m := NewMap(count)
	for i := 0; i < count; i++ {
		elem := path.Elem(i)
		k, err := d.decode(c, n.Key, elem.Child("key"), depth+1)
		if err != nil {
			return nil, err
		}
		v, err := d.decode(c, n.Value, elem.Child("value"), depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	return m, nil
}

func (d *decoder) index(c *cursor.Cursor, n *schema.Index, path schema.Path, depth int) (Value, error) {
	if n.Record == nil || len(n.Keys) == 0 {
		return nil, unsupported(path, c.Offset(), "index needs a record type and keys")
	}
	count, err := d.count(c, n.ByteOrder, schema.MinSize(n.Record), path)
	if err != nil {
		return nil, err
	}
	m := NewMap(count)
	for i := 0; i < count; i++ {
		elem := path.Elem(i)
		start := c.Offset()
		v, err := d.object(c, n.Record, elem, depth+1)
		if err != nil {
			return nil, err
		}
		rec := v.(*Record)
		key, err := indexKey(rec, n.Keys)
		if err != nil {
			return nil, unsupported(elem, start, "%v", err)
		}
		switch n.OnDuplicate {
		case schema.KeepFirst:
			if m.Has(key) {
				continue
			}
		case schema.RejectDuplicates:
			if m.Has(key) {
				return nil, corrupt(elem, start, "duplicate index key %s", keyString(key))
			}
		}
		m.Set(key, rec)
	}
	return m, nil
}

var errMissingKey = errors.New("record has no index key field")

func indexKey(rec *Record, keys []string) (Value, error) {
	if len(keys) == 1 {
		v, ok := rec.Get(keys[0])
		if !ok {
			return nil, errMissingKey
		}
		return v, nil
	}
	k := make(Key, 0, len(keys))
	for _, name := range keys {
		v, ok := rec.Get(name)
		if !ok {
			return nil, errMissingKey
		}
		k = append(k, v)
	}
	return k, nil
}

func (d *decoder) object(c *cursor.Cursor, n *schema.Object, path schema.Path, depth int) (Value, error) {
	if n == nil {
		return nil, unsupported(path, c.Offset(), "missing object node")
	}
	var present []byte
	if opt := n.OptionalCount(); opt > 0 {
		start := c.Offset()
		b, err := c.Bytes((opt + 7) / 8)
		if err != nil {
			return nil, d.readErr(path, start, "presence bitmap", err)
		}
		present = b
	}
	rec := NewRecord(len(n.Fields))
	bit := 0
	for _, f := range n.Fields {
		if f.Optional {
			set := present[bit/8]&(1<<(bit%8)) != 0
			bit++
			if !set {
				continue
			}
		}
		v, err := d.decode(c, f.Type, path.Child(f.Name), depth+1)
		if err != nil {
			return nil, err
		}
		rec.add(f.Name, v)
	}
	return rec, nil
}
