package httputil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// Validate checks the `validate` tags of a form struct and returns the first
// failure as a message fit for the user. Fields are named by their `label` tag.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return errors.New(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return fmt.Sprintf("You must accept the %s", field)
		}
		return fmt.Sprintf("%s is required", capitalize(field))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", capitalize(field))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", capitalize(field), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s is not a valid identifier", capitalize(field))
	default:
		return fmt.Sprintf("%s is invalid", capitalize(field))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
