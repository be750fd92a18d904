package presets

import "errors"

var (
	ErrUnknownPreset = errors.New("unknown preset")
	ErrNilGenerator  = errors.New("nil generator")
	ErrInvalidTotal  = errors.New("invalid slide count")
)
