package fsd

import (
	"errors"
	"fmt"

	"github.com/danmuck/fsdctl/internal/fsd/schema"
)

var (
	ErrCorruptData       = errors.New("fsd: corrupt data")
	ErrUnsupportedSchema = schema.ErrUnsupportedSchema
)

// Error is a decode failure at a value path and buffer offset.
type Error struct {
	Kind   error
	Path   schema.Path
	Offset int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v at %s offset=%d: %s", e.Kind, e.Path, e.Offset, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

func corrupt(path schema.Path, off int, format string, args ...any) error {
	return &Error{Kind: ErrCorruptData, Path: path, Offset: off, Reason: fmt.Sprintf(format, args...)}
}

func unsupported(path schema.Path, off int, format string, args ...any) error {
	return &Error{Kind: ErrUnsupportedSchema, Path: path, Offset: off, Reason: fmt.Sprintf(format, args...)}
}
