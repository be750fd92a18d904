package deck

import "errors"

// Deck errors
var (
	ErrInvalidRoot       = errors.New("root size must be positive")
	ErrNoSlides          = errors.New("deck has no slides")
	ErrEmptySlideID      = errors.New("slide id is empty")
	ErrDuplicateSlideID  = errors.New("duplicate slide id")
	ErrInvalidSlideSize  = errors.New("slide size must not be negative")
	ErrPresetConflict    = errors.New("slide transform is set while a preset places the slides")
	ErrUnsupportedFormat = errors.New("unsupported deck format")
	ErrNilSink           = errors.New("nil transform sink")
)
