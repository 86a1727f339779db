package apperror

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatFieldName turns a wire name into a label:
// firstName -> "First Name", recipient_phone -> "Recipient Phone".
func FormatFieldName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	caser := cases.Title(language.English)
	return caser.String(b.String())
}

// ViolationMessage renders a validator tag failure for a field label.
func ViolationMessage(label, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", label, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "email":
		return "Please provide a valid email"
	case "numeric", "number":
		return fmt.Sprintf("%s must be a number", label)
	case "gte":
		return fmt.Sprintf("%s cannot be negative", label)
	case "lte":
		return fmt.Sprintf("%s cannot exceed %s", label, param)
	case "scale":
		return fmt.Sprintf("%s cannot have more than %s decimal places", label, param)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// MapValidationError converts binding errors into an itemized validation error.
func MapValidationError(err error) *AppError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return ErrInvalidInput.WithDetails(err.Error())
	}

	violations := make([]FieldViolation, 0, len(errs))
	for _, e := range errs {
		violations = append(violations, FieldViolation{
			Field:   e.Field(),
			Message: ViolationMessage(FormatFieldName(e.Field()), e.Tag(), e.Param()),
		})
	}
	return ValidationFailed(violations)
}
