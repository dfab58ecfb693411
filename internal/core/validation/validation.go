// Package validation checks command inputs declared with `validate` tags.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"partsflow/internal/core/apperror"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report json field names so details match request bodies.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and converts failures into a ValidationError whose
// details map each offending field to the rule it broke.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewValidation("invalid input").WithCause(err)
	}

	appErr := apperror.NewValidation("invalid input")
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[trimNamespace(fe.Namespace())] = rule(fe)
	}
	return appErr.WithDetail("fields", fields)
}

// trimNamespace drops the top-level struct name from "CreateInput.lines[0].quantity".
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
