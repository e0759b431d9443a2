package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNotReady     = errors.New("graph not built yet")
	ErrInvalidInput = errors.New("invalid input")
)
