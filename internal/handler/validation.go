package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RequestValidator adapts go-playground/validator to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

var decimalValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

// NewRequestValidator creates a validator that reports JSON field names
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("decimal", decimalValidatorFunc)
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// bindRequest binds and validates req. A non-nil result has already been
// written to the response.
func bindRequest(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(req); err != nil {
		return false, NewValidationError(c, "Validation failed", validationErrors(err))
	}
	return true, nil
}

// validationErrors flattens validator errors into response entries
func validationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "body", Message: err.Error()}}
	}

	result := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		result = append(result, ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return result
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "uuid":
		return "Must be a valid UUID"
	case "max":
		return fmt.Sprintf("Must be %s characters or less", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "decimal":
		return "Must be a valid decimal number"
	case "gtfield":
		return fmt.Sprintf("Must be after %s", snakeCase(fe.Param()))
	default:
		return "Invalid value"
	}
}

// snakeCase turns a Go field name such as StartTime into start_time
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseUUIDParam parses a path parameter as a UUID
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// invalidIDError answers a malformed UUID path parameter
func invalidIDError(c echo.Context, name string) error {
	return NewValidationError(c, "Invalid ID", []ValidationError{
		{Field: name, Message: "Must be a valid UUID"},
	})
}

// parseOptionalUUID parses an optional UUID string
func parseOptionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseTimeQuery parses an optional RFC 3339 query parameter
func parseTimeQuery(c echo.Context, name string) (*time.Time, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// invalidTimeError answers a malformed timestamp query parameter
func invalidTimeError(c echo.Context, name string) error {
	return NewValidationError(c, "Invalid timestamp", []ValidationError{
		{Field: name, Message: "Must be an ISO-8601 timestamp with timezone"},
	})
}
