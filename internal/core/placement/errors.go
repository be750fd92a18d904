package placement

import "errors"

// Placement errors
var (
	ErrEmptySlideID = errors.New("slide id is empty")
	ErrNilContainer = errors.New("container is nil")
	ErrNilRoot      = errors.New("root is nil")
)
