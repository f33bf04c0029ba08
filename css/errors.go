package css

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by numeric operations.
var (
	// ErrTypeMismatch is returned when two values have incompatible
	// dimensions, e.g. a length added to an angle.
	ErrTypeMismatch = errors.New("css: incompatible numeric types")

	// ErrLeftoverTerms is returned by ToSum when some terms could not be
	// converted into any of the requested units.
	ErrLeftoverTerms = errors.New("css: there were leftover terms that were not converted")

	// ErrUnknownUnit is returned when a unit name is not recognized.
	ErrUnknownUnit = errors.New("css: unknown unit")

	// ErrNotConvertible is returned when a value cannot be converted into
	// the requested unit.
	ErrNotConvertible = errors.New("css: value is not convertible")

	// ErrDuplicateUnit is returned by ToSum when a unit is listed twice.
	ErrDuplicateUnit = errors.New("css: unit requested more than once")
)

// TypeError describes a failed type operation. It unwraps to
// ErrTypeMismatch.
type TypeError struct {
	Op   string
	A, B NumericType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("css: cannot %s %s and %s", e.Op, e.A, e.B)
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }

// LeftoverError lists the terms ToSum could not place. It unwraps to
// ErrLeftoverTerms.
type LeftoverError struct {
	Requested []Unit
	Leftover  []string
}

func (e *LeftoverError) Error() string {
	return fmt.Sprintf("%v: %v not expressible in %v", ErrLeftoverTerms, e.Leftover, e.Requested)
}

func (e *LeftoverError) Unwrap() error { return ErrLeftoverTerms }
