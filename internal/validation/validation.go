// Package validation checks decoded request structs with
// go-playground/validator and reports failures as *model.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names rather than Go field names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		// Compare decimals numerically so gte/lte work on prices.
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})

		validate.RegisterValidation("musicianrole", func(fl validator.FieldLevel) bool {
			return model.ValidateMusicianRoles([]string{fl.Field().String()}) == nil
		})
		validate.RegisterValidation("ensembletype", func(fl validator.FieldLevel) bool {
			return model.ValidEnsembleType(fl.Field().String())
		})
		validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return model.ValidRole(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s and returns a *model.ValidationError describing every
// failed field, or nil.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &model.ValidationError{Message: err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, translate(fe))
	}
	return &model.ValidationError{Message: strings.Join(messages, "; ")}
}

var simpleMessages = map[string]string{
	"required":     "%s is required",
	"musicianrole": "%s must be a valid musician role",
	"ensembletype": "%s must be a valid ensemble type",
	"role":         "%s must be admin, manager or user",
}

var paramMessages = map[string]string{
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"gt":       "%s must be greater than %s",
	"lt":       "%s must be less than %s",
	"datetime": "%s must be a date in the format %s",
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if tmpl, ok := simpleMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
