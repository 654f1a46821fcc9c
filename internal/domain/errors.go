package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidParameter signals a malformed request parameter (page, size, order, id).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidFilterValue signals a filter value that cannot be coerced to its declared type.
	ErrInvalidFilterValue = errors.New("invalid filter value")
	// ErrInvalidRecord signals a scraped record that failed validation.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrFetchFailed signals an outbound fetch that exhausted its retries.
	ErrFetchFailed = errors.New("fetch failed")
)

// ParameterError wraps ErrInvalidParameter or ErrInvalidFilterValue with the offending parameter name.
type ParameterError struct {
	Name   string
	Value  string
	Reason error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s=%q", e.Reason.Error(), e.Name, e.Value)
}

func (e *ParameterError) Unwrap() error { return e.Reason }

// NewParameterError creates an ErrInvalidParameter for the given parameter.
func NewParameterError(name, value string) error {
	return &ParameterError{Name: name, Value: value, Reason: ErrInvalidParameter}
}

// NewFilterValueError creates an ErrInvalidFilterValue for the given filter parameter.
func NewFilterValueError(name, value string) error {
	return &ParameterError{Name: name, Value: value, Reason: ErrInvalidFilterValue}
}
