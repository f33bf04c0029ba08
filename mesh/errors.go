package mesh

import (
	"errors"
	"fmt"
)

// Mesh errors.
var (
	// ErrInvalidAttribute is returned for a negative, NaN or infinite
	// geometric attribute.
	ErrInvalidAttribute = errors.New("mesh: invalid attribute value")

	// ErrUnsupportedShape is returned when no mesh factory handles a
	// shape kind.
	ErrUnsupportedShape = errors.New("mesh: unsupported shape kind")

	// ErrUnknownObject is returned when updating an object the batcher
	// has not seen.
	ErrUnknownObject = errors.New("mesh: object is not batched")

	// ErrOutOfRange is returned by partial geometry updates past the end
	// of a buffer.
	ErrOutOfRange = errors.New("mesh: update out of range")
)

// ObjectError reports a problem with a single object. The object is left
// out of the draw; the rest of its batch is unaffected.
type ObjectError struct {
	ID   uint64
	Kind ShapeKind
	Attr Attr
	Err  error
}

func (e *ObjectError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("mesh: object %d (%s) attribute %s: %v", e.ID, e.Kind, e.Attr, e.Err)
	}
	return fmt.Sprintf("mesh: object %d (%s): %v", e.ID, e.Kind, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }
