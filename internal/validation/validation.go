// Package validation produces field-tagged pass/fail outcomes and combines them.
//
// Failures are returned as data, never as Go errors: a Result carries every
// accumulated Error in the order the checks ran.
package validation

import (
	"github.com/lprior-repo/sitekit/internal/assert"
	"github.com/lprior-repo/sitekit/internal/result"
)

// Error is a single failed rule for a single field.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the aggregate outcome of one or more field checks.
// IsValid is true exactly when Errors is empty.
type Result struct {
	IsValid bool    `json:"isValid"`
	Errors  []Error `json:"errors"`
}

// Valid returns a passing Result.
func Valid() Result {
	return Result{IsValid: true, Errors: []Error{}}
}

// Invalid returns a failing Result holding errs. At least one error is required;
// with assertions disabled an empty call yields Valid().
func Invalid(errs ...Error) Result {
	assert.That(len(errs) > 0, "validation: invalid result requires at least one error")
	if len(errs) == 0 {
		return Valid()
	}
	out := make([]Error, len(errs))
	copy(out, errs)
	return Result{IsValid: false, Errors: out}
}

// Field checks value with predicate and tags any failure with fieldName and message.
// Panics raised by predicate are not recovered.
func Field(value, fieldName string, predicate func(string) bool, message string) Result {
	if predicate(value) {
		return Valid()
	}
	return Invalid(Error{Field: fieldName, Message: message})
}

// Combine flattens the errors of results in input order.
func Combine(results ...Result) Result {
	var errs []Error
	for _, r := range results {
		assert.That(r.IsValid == (len(r.Errors) == 0), "validation: isValid=%v with %d errors", r.IsValid, len(r.Errors))
		errs = append(errs, r.Errors...)
	}
	if len(errs) == 0 {
		return Valid()
	}
	return Invalid(errs...)
}

// FieldErrors returns the messages recorded for field, in order.
func (r Result) FieldErrors(field string) []string {
	var out []string
	for _, e := range r.Errors {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// ByField groups messages by field name.
func (r Result) ByField() map[string][]string {
	if len(r.Errors) == 0 {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(r.Errors))
	for _, e := range r.Errors {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// ToResult lifts r into a result.Result carrying value on success or the errors on failure.
func ToResult[T any](r Result, value T) result.Result[T, []Error] {
	if r.IsValid {
		return result.Success[T, []Error](value)
	}
	errs := make([]Error, len(r.Errors))
	copy(errs, r.Errors)
	return result.Failure[T](errs)
}
