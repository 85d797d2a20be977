// Package validation provides validation utilities for GraphFlow definitions
// and for the field-level errors exchanged with the graph service.
package validation

import (
	"fmt"
	"strings"
)

// Validator interface for custom validation
// PRINCIPLES:
// - ISP: Simple interface with single method
// - DIP: Depend on interface, not concrete types
type Validator interface {
	Validate() error
}

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
	Type    string      `json:"type,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error on field '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Messages returns one "field: message" line per error.
func (e ValidationErrors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, err := range e {
		out = append(out, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return out
}

// DetailItem is one entry of a 422 response's detail array.
type DetailItem struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

// Detail converts the errors into the service's 422 wire shape.
// Field paths are split on dots and prefixed with "body".
func (e ValidationErrors) Detail() []DetailItem {
	out := make([]DetailItem, 0, len(e))
	for _, err := range e {
		loc := []interface{}{"body"}
		for _, part := range strings.Split(err.Field, ".") {
			if part != "" {
				loc = append(loc, part)
			}
		}
		typ := err.Type
		if typ == "" {
			typ = "value_error"
		}
		out = append(out, DetailItem{Loc: loc, Msg: err.Message, Type: typ})
	}
	return out
}

// FromDetail converts a 422 detail array into field-level errors.
// The leading "body" location segment is dropped.
func FromDetail(items []DetailItem) ValidationErrors {
	out := make(ValidationErrors, 0, len(items))
	for _, item := range items {
		parts := make([]string, 0, len(item.Loc))
		for i, p := range item.Loc {
			s := fmt.Sprint(p)
			if i == 0 && s == "body" && len(item.Loc) > 1 {
				continue
			}
			parts = append(parts, s)
		}
		out = append(out, ValidationError{
			Field:   strings.Join(parts, "."),
			Message: item.Msg,
			Type:    item.Type,
		})
	}
	return out
}
