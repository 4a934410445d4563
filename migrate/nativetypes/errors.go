package nativetypes

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedNativeType = errors.New("unsupported native type")
	ErrNoDefaultNativeType   = errors.New("connector has no native type for family")
)

// UnsupportedNativeTypeError identifies the offending column and the type it asked for.
type UnsupportedNativeTypeError struct {
	Connector  string
	Table      string
	Column     string
	NativeType string
	Reason     string
}

func (e *UnsupportedNativeTypeError) Error() string {
	where := ""
	if e.Table != "" {
		where = fmt.Sprintf(" on column %q.%q", e.Table, e.Column)
	}
	return fmt.Sprintf("%s %q for %s%s: %s", ErrUnsupportedNativeType, e.NativeType, e.Connector, where, e.Reason)
}

func (e *UnsupportedNativeTypeError) Unwrap() error { return ErrUnsupportedNativeType }

// ForColumn returns a copy of the error attributed to a column.
func (e *UnsupportedNativeTypeError) ForColumn(table, column string) *UnsupportedNativeTypeError {
	cp := *e
	cp.Table, cp.Column = table, column
	return &cp
}
