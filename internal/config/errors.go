package config

import "errors"

var (
	ErrEmptyAddr            = errors.New("server address is empty")
	ErrEmptyDeckPath        = errors.New("deck path is empty")
	ErrNegativeDebounce     = errors.New("deck debounce is negative")
	ErrNegativeCommandLimit = errors.New("command limit is negative")
)
