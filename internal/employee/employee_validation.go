package employee

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go-ems/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

const dateOfJoiningRule = "datetime=2006-01-02|datetime=" + time.RFC3339

// Salary bounds follow the NUMERIC(14, 2) column.
const (
	salaryTextRule   = "required,numeric,scale=2"
	salaryAmountRule = "gte=0,lte=999999999999.99"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("scale", maxFractionDigits)
	return v
}

// maxFractionDigits passes decimal strings with at most param digits after the point.
func maxFractionDigits(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	_, frac, found := strings.Cut(fl.Field().String(), ".")
	return !found || len(frac) <= limit
}

type fieldRule struct {
	name  string
	value *string
	rule  string
}

// ValidateEmployee normalizes req in place and returns every rule violation.
// In ModeUpdate only supplied fields are checked.
func ValidateEmployee(req *EmployeeRequest, mode Mode) []apperror.FieldViolation {
	var violations []apperror.FieldViolation

	if req.Email != nil {
		*req.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	rules := []fieldRule{
		{"firstName", req.FirstName, "required,max=50"},
		{"lastName", req.LastName, "required,max=50"},
		{"email", req.Email, "required,email"},
		{"position", req.Position, "required,max=100"},
		{"department", req.Department, "required,max=100"},
	}
	for _, r := range rules {
		if r.value == nil && mode == ModeUpdate {
			continue
		}
		var value string
		if r.value != nil {
			*r.value = strings.TrimSpace(*r.value)
			value = *r.value
		}
		if v, ok := check(r.name, value, r.rule); !ok {
			violations = append(violations, v)
		}
	}

	if req.Salary != nil || mode == ModeCreate {
		if v, ok := checkSalary(req.Salary); !ok {
			violations = append(violations, v)
		}
	}

	if req.DateOfJoining != nil {
		*req.DateOfJoining = strings.TrimSpace(*req.DateOfJoining)
		if *req.DateOfJoining != "" {
			if v, ok := check("dateOfJoining", *req.DateOfJoining, dateOfJoiningRule); !ok {
				violations = append(violations, v)
			}
		}
	}

	return violations
}

func check(field string, value any, rule string) (apperror.FieldViolation, bool) {
	err := validate.Var(value, rule)
	if err == nil {
		return apperror.FieldViolation{}, true
	}

	tag, param := "", ""
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		tag, param = errs[0].Tag(), errs[0].Param()
	}

	v := apperror.FieldViolation{
		Field:   field,
		Message: apperror.ViolationMessage(apperror.FormatFieldName(field), tag, param),
	}
	if s, ok := value.(string); !ok || s != "" {
		v.Value = value
	}
	return v, false
}

func checkSalary(salary *json.Number) (apperror.FieldViolation, bool) {
	raw := ""
	if salary != nil {
		raw = strings.TrimSpace(salary.String())
	}
	if v, ok := check("salary", raw, salaryTextRule); !ok {
		return v, false
	}

	amount, _ := strconv.ParseFloat(raw, 64)
	if v, ok := check("salary", amount, salaryAmountRule); !ok {
		return v, false
	}
	return apperror.FieldViolation{}, true
}

// parseDateOfJoining accepts a calendar date or an RFC 3339 timestamp.
func parseDateOfJoining(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, err
		}
	}
	return storageTime(t), nil
}

// storageTime matches what a timestamptz column hands back.
func storageTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
