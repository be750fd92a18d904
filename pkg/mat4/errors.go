package mat4

import "errors"

// Math errors
var (
	// ErrSingular is returned when inverting a matrix whose determinant is exactly zero.
	ErrSingular = errors.New("mat4: singular matrix")
	// ErrDegenerateAxis is returned when rotating around an axis too short to normalize.
	ErrDegenerateAxis = errors.New("mat4: degenerate rotation axis")
)
