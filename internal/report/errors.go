package report

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest is returned when a report request fails validation.
	ErrInvalidRequest = errors.New("invalid report request")

	// ErrNoTables is returned when a request names no tables. It wraps
	// ErrInvalidRequest.
	ErrNoTables = fmt.Errorf("%w: at least one table is required", ErrInvalidRequest)
)

// FieldError describes a single invalid field.
type FieldError struct {
	// Field is the JSON path of the field, e.g. "filters[0].column".
	Field string `json:"field"`
	// Rule is the failed validation rule.
	Rule string `json:"rule"`
	// Value is the offending value, if any.
	Value any `json:"value,omitempty"`
}

func (f FieldError) String() string {
	if f.Value == nil || f.Value == "" {
		return fmt.Sprintf("%s: %s", f.Field, f.Rule)
	}
	return fmt.Sprintf("%s: %s (got %v)", f.Field, f.Rule, f.Value)
}

// ValidationError lists every invalid field of a request. It wraps
// ErrInvalidRequest.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return ErrInvalidRequest.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(field, rule string, value any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Value: value}}}
}
