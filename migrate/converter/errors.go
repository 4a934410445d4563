package converter

import "errors"

var (
	ErrUnknownType      = errors.New("unknown field type")
	ErrInvalidAttribute = errors.New("invalid attribute")
)
