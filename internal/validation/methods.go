package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "paytrack/internal/errors"

	"github.com/shopspring/decimal"
)

// Validator accumulates field-level validation errors. The first message recorded for a field wins.
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks that an id or string field was supplied
func (v *Validator) Required(field string, value interface{}) {
	switch val := value.(type) {
	case string:
		v.Check(strings.TrimSpace(val) != "", field, "is required")
	case int64:
		v.Check(val != 0, field, "is required")
	default:
		v.Check(value != nil, field, "is required")
	}
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(utf8.RuneCountInString(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Positive checks that an amount is strictly greater than zero
func (v *Validator) Positive(field string, value decimal.Decimal) {
	v.Check(value.IsPositive(), field, "must be greater than 0")
}

// MaxScale checks that an amount has at most places fractional digits
func (v *Validator) MaxScale(field string, value decimal.Decimal, places int32) {
	v.Check(value.Equal(value.Truncate(places)), field, fmt.Sprintf("must have at most %d decimal places", places))
}

// Max checks that an amount does not exceed max
func (v *Validator) Max(field string, value, max decimal.Decimal) {
	v.Check(value.LessThanOrEqual(max), field, fmt.Sprintf("must not exceed %s", max.String()))
}

// Err returns the accumulated errors, or nil when valid.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperrors.ValidationErrors(v.Errors)
}
