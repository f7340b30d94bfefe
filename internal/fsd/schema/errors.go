package schema

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedSchema = errors.New("fsd: unsupported schema")
	ErrInvalidSchema     = errors.New("fsd: invalid schema")
	ErrSchemaNotFound    = errors.New("fsd: schema not found")
	ErrPickledSchema     = errors.New("fsd: embedded schema is pickled")
)

// Error reports a schema problem at a descriptor path.
type Error struct {
	Kind   error
	Path   Path
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v at %s: %s", e.Kind, e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

func unsupported(path Path, format string, args ...any) error {
	return &Error{Kind: ErrUnsupportedSchema, Path: path, Reason: fmt.Sprintf(format, args...)}
}

func invalid(path Path, format string, args ...any) error {
	return &Error{Kind: ErrInvalidSchema, Path: path, Reason: fmt.Sprintf(format, args...)}
}
