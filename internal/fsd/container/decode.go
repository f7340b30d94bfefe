package container

import (
	"fmt"

	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/fsd/schema"
)

// Decode splits data, asks src for the schema of resource name and decodes
// the payload. Decoder error offsets are relative to the payload start.
func Decode(data []byte, name string, src schema.Source, limits Limits, opts fsd.Options) (fsd.Value, error) {
	c, err := Split(data, limits)
	if err != nil {
		return nil, err
	}
	node, err := src.Schema(name, c.Schema)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", name, err)
	}
	return fsd.Decode(c.Payload, node, opts)
}
