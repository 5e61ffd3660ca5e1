package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrShapeMismatch is matched by every *ShapeError.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnsupportedDType is returned by a backend that cannot execute the
	// requested element type.
	ErrUnsupportedDType = errors.New("unsupported dtype")
	// ErrDeviceUnavailable is returned when the backend for a device cannot
	// be created or is not compiled into this binary.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrDeviceMismatch is returned when the inputs of one call live on
	// different devices.
	ErrDeviceMismatch = errors.New("device mismatch")
)

// ShapeError describes a precondition violation on the shape of one argument.
type ShapeError struct {
	Op   string // Operation name (e.g., "aggregate")
	Arg  string // Offending argument (e.g., "X")
	Dim  int    // Offending dimension index, -1 for a rank mismatch
	Got  int    // Observed size (or rank)
	Want int    // Expected size (or rank)
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Dim < 0 {
		return fmt.Sprintf("%s: %s must be %dD, got %dD", e.Op, e.Arg, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %s dimension %d is %d, want %d", e.Op, e.Arg, e.Dim, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrShapeMismatch) true for shape errors.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}
