// Package validation wraps the shared validator instance. Ledger and session
// commands are validated here so the rules hold regardless of the caller.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/shared/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(models.Date); ok {
			return d.String()
		}
		return nil
	}, models.Date{})
	return v
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error reports one or more invalid fields.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewError builds a single-field validation error.
func NewError(field, tag, message string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Message: message, Type: tag}}}
}

// Struct validates obj against its `validate` tags. It returns nil or an
// *Error.
func Struct(obj any) error {
	fields := Fields(obj)
	if fields == nil {
		return nil
	}
	return &Error{Fields: fields}
}

// Fields returns the field-level failures for obj, or nil when obj is valid.
func Fields(obj any) []FieldError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error(), Type: "invalid"}}
	}

	var fields []FieldError
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Type:    fe.Tag(),
		})
	}
	return fields
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	case "eqfield":
		return "Value must match " + err.Param()
	case "datetime":
		return "Value must be a date in " + err.Param() + " format"
	case "oneof":
		return "Value must be one of: " + err.Param()
	default:
		return "Invalid value"
	}
}
