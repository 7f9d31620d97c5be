package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"cylindertrack/internal/model"
)

// MsgStaffRequired 未选择配送员
const MsgStaffRequired = "Please select delivery staff"

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// structError 将 validator 的错误转换为用户可见的校验错误
func structError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return model.NewValidationError("", "Invalid delivery: %v", err)
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "gte":
		return model.NewValidationError(field, "%s cannot be negative", field)
	case "datetime":
		return model.NewValidationError(field, "%s must be a date in yyyy-mm-dd format", field)
	case "oneof":
		return model.NewValidationError(field, "%s must be one of: %s", field, fe.Param())
	case "required":
		return model.NewValidationError(field, "%s is required", field)
	}
	return model.NewValidationError(field, "invalid value for %s", field)
}

func figuresError(errs []string) error {
	return model.NewValidationError("", "%s", strings.Join(errs, "; ")).
		WithDetail("errors", errs)
}

func invalidDate(date string) error {
	return model.NewValidationError("date", "%s", fmt.Sprintf("Invalid date %q, expected yyyy-mm-dd", date))
}
