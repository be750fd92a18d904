package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed   = errors.New("server is closed")
	ErrNilDeck        = errors.New("nil deck")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("navigation requires the presenter token")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownSlide   = errors.New("unknown slide")
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidConfig  = errors.New("invalid server configuration")
	ErrRateLimited    = errors.New("too many commands")
)
