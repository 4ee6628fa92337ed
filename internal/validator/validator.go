// Package validator validates flat request and config structs with gookit/validate tags.
package validator

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/gookit/validate"
)

// ErrValidation is the base validation error.
var ErrValidation = errors.New("validation error")

func init() {
	validate.Config(func(opt *validate.GlobalOption) {
		opt.StopOnError = false
		opt.SkipOnEmpty = true
		opt.FieldTag = "json"
	})
}

// ValidationError holds the failed rules per field.
type ValidationError struct {
	Values url.Values
}

// NewValidationError creates a validation error from per-field messages.
func NewValidationError(values url.Values) *ValidationError {
	return &ValidationError{Values: values}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Values))
	for f := range e.Values {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, strings.Join(e.Values[f], "; "))
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Is reports whether the target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidateStruct validates s by its `validate` tags and returns the failed rules per field.
// The result is empty when s is valid.
func ValidateStruct(s interface{}) url.Values {
	v := validate.Struct(s)
	if v.Validate() {
		return nil
	}

	values := url.Values{}
	for field, rules := range v.Errors.All() {
		for _, msg := range rules {
			values.Add(field, msg)
		}
	}
	for f := range values {
		sort.Strings(values[f])
	}

	return values
}
