package fsd

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Value is a decoded node: nil, bool, int64, uint64, float64, string, []byte,
// List, *Map, *Record or Key.
type Value = any

// List is an ordered sequence in read order.
type List []Value

// Key is the composite key of a multi-key index entry.
type Key []Value

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = keyString(v)
	}
	return strings.Join(parts, ",")
}

// Map is an insertion-ordered mapping. Setting an existing key replaces the
// value in place.
type Map struct {
	keys []Value
	vals []Value
	pos  map[any]int
}

func NewMap(capacity int) *Map {
	return &Map{
		keys: make([]Value, 0, capacity),
		vals: make([]Value, 0, capacity),
		pos:  make(map[any]int, capacity),
	}
}

// Set stores v under k and reports whether an earlier value was replaced.
func (m *Map) Set(k, v Value) bool {
	lk := lookupKey(k)
	if i, ok := m.pos[lk]; ok {
		m.vals[i] = v
		return true
	}
	m.pos[lk] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return false
}

func (m *Map) Get(k Value) (Value, bool) {
	i, ok := m.pos[lookupKey(k)]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

func (m *Map) Has(k Value) bool {
	_, ok := m.pos[lookupKey(k)]
	return ok
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value { return append([]Value(nil), m.keys...) }

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(k, v Value) bool) {
	for i := range m.keys {
		if !fn(m.keys[i], m.vals[i]) {
			return
		}
	}
}

// Record is a set of named fields in schema declaration order.
type Record struct {
	names []string
	vals  []Value
}

func NewRecord(capacity int) *Record {
	return &Record{
		names: make([]string, 0, capacity),
		vals:  make([]Value, 0, capacity),
	}
}

// Set appends name or replaces its value when already present.
func (r *Record) Set(name string, v Value) {
	for i, n := range r.names {
		if n == name {
			r.vals[i] = v
			return
		}
	}
	r.names = append(r.names, name)
	r.vals = append(r.vals, v)
}

// add appends without a duplicate check; schema validation guarantees unique names.
func (r *Record) add(name string, v Value) {
	r.names = append(r.names, name)
	r.vals = append(r.vals, v)
}

func (r *Record) Get(name string) (Value, bool) {
	for i, n := range r.names {
		if n == name {
			return r.vals[i], true
		}
	}
	return nil, false
}

func (r *Record) Len() int { return len(r.names) }

// Fields returns field names in declaration order.
func (r *Record) Fields() []string { return append([]string(nil), r.names...) }

func (r *Record) Range(fn func(name string, v Value) bool) {
	for i := range r.names {
		if !fn(r.names[i], r.vals[i]) {
			return
		}
	}
}

type bytesKey string

type compositeKey string

// lookupKey maps a decoded key to a comparable value.
func lookupKey(k Value) any {
	switch v := k.(type) {
	case []byte:
		return bytesKey(v)
	case Key:
		// Each part is length prefixed so no part can spell a separator.
		var b strings.Builder
		for _, part := range v {
			enc := fmt.Sprintf("%T:%v", part, lookupKey(part))
			b.WriteString(strconv.Itoa(len(enc)))
			b.WriteByte(':')
			b.WriteString(enc)
		}
		return compositeKey(b.String())
	default:
		return k
	}
}

// keyString renders a key for JSON object keys. Byte keys are base64 like
// byte values.
func keyString(k Value) string {
	switch v := k.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case Key:
		return v.String()
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}
