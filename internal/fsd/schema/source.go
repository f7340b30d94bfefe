package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// Source supplies the schema for a named resource. embedded is the schema
// block carried by the file itself and may be empty.
type Source interface {
	Schema(name string, embedded []byte) (Node, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(name string, embedded []byte) (Node, error)

func (f SourceFunc) Schema(name string, embedded []byte) (Node, error) {
	return f(name, embedded)
}

// SidecarExtensions are tried in order by SidecarSource.
var SidecarExtensions = []string{".schema.yaml", ".schema.yml", ".schema.json"}

// SidecarSource loads <Dir>/<name><ext> descriptor files.
type SidecarSource struct {
	Dir string
}

func (s SidecarSource) Schema(name string, _ []byte) (Node, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return Load(name)
		}
	}
	base := filepath.Join(s.Dir, name)
	if _, err := os.Stat(base); err == nil && filepath.Ext(base) != "" {
		return Load(base)
	}
	for _, ext := range SidecarExtensions {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, fmt.Errorf("%w: no descriptor for %q in %s", ErrSchemaNotFound, name, s.Dir)
}

// EmbeddedSource compiles the file's own schema block when it is a textual
// descriptor. Pickled blocks are reported with ErrPickledSchema.
type EmbeddedSource struct{}

func (EmbeddedSource) Schema(name string, embedded []byte) (Node, error) {
	if len(embedded) == 0 {
		return nil, fmt.Errorf("%w: %q has no embedded schema", ErrSchemaNotFound, name)
	}
	if IsPickle(embedded) {
		return nil, fmt.Errorf("%w: %q", ErrPickledSchema, name)
	}
	if !utf8.Valid(embedded) {
		return nil, fmt.Errorf("%w: %q embedded schema is not text", ErrUnsupportedSchema, name)
	}
	if !isDescriptor(embedded) {
		return nil, fmt.Errorf("%w: %q embedded block is not a descriptor", ErrSchemaNotFound, name)
	}
	return Parse(embedded)
}

// isDescriptor reports whether b is a YAML or JSON mapping with a type key.
// Protocol 0 and 1 pickles are ASCII and fail this check.
func isDescriptor(b []byte) bool {
	var doc map[string]any
	if err := yaml.Unmarshal(bytes.TrimPrefix(b, utf8BOM), &doc); err != nil {
		return false
	}
	_, ok := doc["type"]
	return ok
}

// IsPickle reports whether b starts like a Python pickle stream (protocol 2+).
func IsPickle(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x80 && b[1] >= 2 && b[len(b)-1] == '.'
}

// ChainSource returns the first schema any source produces. Lookup misses and
// pickled blocks fall through; other errors stop the chain.
type ChainSource []Source

func (c ChainSource) Schema(name string, embedded []byte) (Node, error) {
	var errs []error
	for _, src := range c {
		node, err := src.Schema(name, embedded)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, ErrSchemaNotFound) && !errors.Is(err, ErrPickledSchema) {
			return nil, err
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	return nil, errors.Join(errs...)
}

// StaticSource always returns the same node.
type StaticSource struct {
	Node Node
}

func (s StaticSource) Schema(string, []byte) (Node, error) {
	if s.Node == nil {
		return nil, ErrSchemaNotFound
	}
	return s.Node, nil
}
