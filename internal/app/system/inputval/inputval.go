// Package inputval validates decoded request payloads using struct tags and
// turns failures into Validation errors with JSON field names.
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.IsValidRole(models.NormalizeRole(fl.Field().String()))
		})
		_ = v.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
			return models.IsValidDocumentType(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Struct validates s and returns an apperr.Validation error describing the
// first failing field, or nil.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return apperr.Wrap(err, apperr.Validation, message(ves[0]))
	}
	return apperr.Wrap(err, apperr.Validation, "invalid request")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// IsValidEmail reports whether s is a bare email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return engine().Var(s, "email") == nil
}
