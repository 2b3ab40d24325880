package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PhoneRegex is the accepted phone number shape: optional plus, 10 to 15 digits.
var PhoneRegex = regexp.MustCompile(`^\+?\d{10,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return PhoneRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	return v
}

// ValidateEmail reports whether s is a syntactically valid address.
func ValidateEmail(s string) error {
	if err := validate.Var(s, "required,email"); err != nil {
		return &ValidationError{Field: "email", Message: "Invalid email address"}
	}
	return nil
}

// Validate checks a payload against its `validate` tags and returns the first
// problem as a *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "phone":
		return "Invalid phone number format."
	case "username":
		if err := ValidateUsername(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
