package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateVar validates a single value against a tag expression.
func ValidateVar(v interface{}, tag string) error {
	if err := validate.Var(v, tag); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	if field == "" {
		field = "value"
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "excludes":
		return fmt.Sprintf("%s must not contain %q", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
