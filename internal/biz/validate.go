package biz

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// messages maps "field.tag" to the text shown next to the form.
var messages = map[string]string{
	"username.required":          "Username must be between 3 and 20 characters",
	"username.min":               "Username must be between 3 and 20 characters",
	"username.max":               "Username must be between 3 and 20 characters",
	"username.alphanum":          "Username must contain only letters and numbers",
	"email.required":             "Please enter a valid email address",
	"email.email":                "Please enter a valid email address",
	"password.required":          "Password is required",
	"password.min":               "Password must be at least 8 characters long",
	"password.password_strength": "Password must include at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.eqfield":    "Passwords do not match",
	"review.required":            "Review text is required",
	"review.min":                 "Review must be between 10 and 1000 characters",
	"review.max":                 "Review must be between 10 and 1000 characters",
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("password_strength", passwordStrength)
	})
	return validate
}

// passwordStrength requires an upper case letter, a lower case letter and a digit.
func passwordStrength(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// validateStruct runs the struct tags and converts failures to a *ValidationError.
func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Message: translate(fe)})
	}
	return verr
}

func translate(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}
