// internal/api/handler/validation.go
package handler

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fintrack-ledger/internal/util"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// decimal.Decimal is a struct, so the rule reads the field value directly.
	if err := vld.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return value.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'positive_decimal': %w", err)
	}
	return vld, nil
}

// ValidateStruct checks payload against its validate tags. Failures wrap
// util.ErrInvalidInput and name the first offending field.
func ValidateStruct(payload interface{}) error {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	if errValidate != nil {
		return errValidate
	}

	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return formatValidationError(validationErrors[0])
	}
	return fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
}

func formatValidationError(fe validator.FieldError) error {
	field := toSnakeCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: '%s' is required", util.ErrInvalidInput, field)
	case "positive_decimal":
		return fmt.Errorf("%w: '%s' must be a positive amount", util.ErrInvalidInput, field)
	case "oneof":
		return fmt.Errorf("%w: '%s' must be one of [%s]", util.ErrInvalidInput, field, fe.Param())
	case "max", "min", "len":
		return fmt.Errorf("%w: '%s' must satisfy %s=%s", util.ErrInvalidInput, field, fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%w: '%s' failed '%s' check", util.ErrInvalidInput, field, fe.Tag())
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev < 'A' || prev > 'Z' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
