package employee

import (
	"errors"
	"strings"

	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "uq_employee_email":
			return employeeerrors.ErrEmployeeAlreadyExists
		case pgErr.Code == "23514" && pgErr.ConstraintName == "chk_employee_salary":
			return employeeerrors.ErrInvalidSalary
		case pgErr.Code == "22003":
			// numeric_value_out_of_range; salary is the only numeric column
			return apperror.ValidationFailed([]apperror.FieldViolation{
				{Field: "salary", Message: "Salary is out of range"},
			})
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_employee_email") {
		return employeeerrors.ErrEmployeeAlreadyExists
	}

	return err
}
