package css

import "errors"

// Parse errors
var (
	ErrMalformedTransform  = errors.New("malformed transform")
	ErrUnsupportedFunction = errors.New("unsupported transform function")
	ErrArgumentCount       = errors.New("wrong number of arguments")
	ErrInvalidNumber       = errors.New("invalid number")
	ErrInvalidLength       = errors.New("invalid length")
	ErrInvalidAngle        = errors.New("invalid angle")
	ErrInvalidOrigin       = errors.New("invalid transform-origin")
	ErrInvalidDuration     = errors.New("invalid duration")
)
