package auth

import (
	"fmt"
	"strconv"
	"strings"

	"go-ems/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

// bcrypt only hashes the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

type credentialRule struct {
	field   string
	value   string
	rule    string
	message string
}

func (r credentialRule) check() (apperror.FieldViolation, bool) {
	if validate.Var(r.value, r.rule) == nil {
		return apperror.FieldViolation{}, true
	}
	v := apperror.FieldViolation{Field: r.field, Message: r.message}
	if r.field != "password" && r.value != "" {
		v.Value = r.value
	}
	return v, false
}

func collect(rules ...credentialRule) []apperror.FieldViolation {
	var violations []apperror.FieldViolation
	for _, r := range rules {
		if v, ok := r.check(); !ok {
			violations = append(violations, v)
		}
	}
	return violations
}

// ValidateSignup trims and lower-cases in place, then checks every field.
func ValidateSignup(req *SignupRequest) []apperror.FieldViolation {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	return collect(
		credentialRule{"username", req.Username, "min=3,max=50", "Username must be between 3 and 50 characters"},
		credentialRule{"email", req.Email, "required,email", "Please provide a valid email"},
		credentialRule{"password", req.Password, "min=6", "Password must be at least 6 characters"},
		credentialRule{
			"password",
			req.Password,
			fmt.Sprintf("maxbytes=%d", maxPasswordBytes),
			fmt.Sprintf("Password cannot exceed %d bytes", maxPasswordBytes),
		},
	)
}

func ValidateLogin(req *LoginRequest) []apperror.FieldViolation {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	return collect(
		credentialRule{"email", req.Email, "required,email", "Please provide a valid email"},
		credentialRule{"password", req.Password, "required", "Password is required"},
	)
}
