package model

import (
	"errors"
	"fmt"
)

// ErrInvalidField marks a settings field that was present but unusable.
var ErrInvalidField = errors.New("invalid settings field")

// FieldError describes a settings field that fell back to its default.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("settings field %s (%v): %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
