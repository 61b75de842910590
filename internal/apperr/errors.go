// Package apperr holds the error kinds every repository and report returns.
// Storage errors never leave a repository without being classified into one
// of them (or traced as an internal failure).
package apperr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
)

const (
	// NotFound is returned when a row does not exist or is owned by another
	// user. The two cases are deliberately indistinguishable.
	NotFound = errors.ConstError("not found")

	// Forbidden is returned by updates when the row belongs to someone else
	// or the path and body identifiers disagree.
	Forbidden = errors.ConstError("forbidden")

	// Conflict is returned for uniqueness violations that are not mapped to a
	// field and for stale optimistic-concurrency versions.
	Conflict = errors.ConstError("conflict")

	// DependencyRestricted is returned when a delete is blocked by dependent
	// rows.
	DependencyRestricted = errors.ConstError("dependent records exist")

	// NotValid is matched by every *ValidationError.
	NotValid = errors.ConstError("not valid")
)

// ValidationError is the full set of problems found in a write. Field keys are
// the JSON names of the offending fields; Form holds messages that are not
// attributable to one field.
type ValidationError struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

// NewValidationError returns an empty ValidationError ready for use.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError returns a ValidationError with one field message.
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.AddField(field, message)
	return v
}

// FormError returns a ValidationError with one form-level message.
func FormError(message string) *ValidationError {
	v := NewValidationError()
	v.AddForm(message)
	return v
}

func (v *ValidationError) AddField(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

func (v *ValidationError) AddForm(message string) {
	v.Form = append(v.Form, message)
}

// Merge appends all of other's messages to v.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			v.AddField(field, m)
		}
	}
	v.Form = append(v.Form, other.Form...)
}

// Empty reports whether no problem has been recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || (len(v.Fields) == 0 && len(v.Form) == 0)
}

// OrNil returns v as an error, or nil when it is empty. Use it as the last
// step of a validation pass so a typed nil never escapes as a non-nil error.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields)+len(v.Form))
	parts = append(parts, v.Form...)

	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v.Fields[f], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error {
	return NotValid
}

// AsValidation extracts the ValidationError carried by err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
