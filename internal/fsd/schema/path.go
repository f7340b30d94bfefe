package schema

import (
	"strconv"
	"strings"
)

// Path locates a node or value from the root, e.g. root.valueType.attributes[2].
type Path []string

// Root is the path of the top-level node.
func Root() Path { return Path{"root"} }

// Child appends a named step.
func (p Path) Child(name string) Path {
	return append(p[:len(p):len(p)], "."+name)
}

// Elem appends an index step.
func (p Path) Elem(i int) Path {
	return append(p[:len(p):len(p)], "["+strconv.Itoa(i)+"]")
}

func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	return strings.Join(p, "")
}
