package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/collegeerp/internal/app/session"
)

// Validation rule patterns
var (
	// DepartmentCodePattern matches a normalized department code.
	DepartmentCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

	// DateLayout is the calendar date format accepted by the API.
	DateLayout = "2006-01-02"
)

// NormalizeDepartmentCode trims and upper-cases a department or course code.
func NormalizeDepartmentCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidDepartmentCode reports whether code is acceptable once normalized.
func ValidDepartmentCode(code string) bool {
	return DepartmentCodePattern.MatchString(NormalizeDepartmentCode(code))
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// RegisterCustomValidators adds the ERP's tags to a validator instance:
// deptcode, isodate and erprole.
func RegisterCustomValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"deptcode": func(fl validator.FieldLevel) bool {
			return ValidDepartmentCode(fl.Field().String())
		},
		"isodate": func(fl validator.FieldLevel) bool {
			return ValidDate(fl.Field().String())
		},
		"erprole": func(fl validator.FieldLevel) bool {
			return session.ParseRole(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
