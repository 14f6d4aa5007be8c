package body

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a numeric input is outside its valid domain.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMissingBodyPart is returned when a part is referenced that the model does not provide.
	ErrMissingBodyPart = errors.New("missing body part")
)

// ParameterError describes a rejected parameter. It matches ErrInvalidParameter
// with errors.Is.
type ParameterError struct {
	Name   string
	Value  float64
	Reason string
}

// NewParameterError creates a ParameterError for the named parameter.
func NewParameterError(name string, value float64, reason string) *ParameterError {
	return &ParameterError{Name: name, Value: value, Reason: reason}
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s=%g %s", ErrInvalidParameter, e.Name, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}
