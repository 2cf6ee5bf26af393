package pkgvalidator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
)

// Validator validates structs using `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports json tag names instead of Go field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks s and returns nil or a *FieldError.
func (va *Validator) Validate(s any) error {
	err := va.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerror.NewInvalidInput(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}

	return &FieldError{
		err:    pkgerror.NewInvalidInput(errors.New("request validation failed")),
		fields: fields,
	}
}

// FieldError is a validation error with messages per json field.
type FieldError struct {
	err    error
	fields map[string]string
}

func (e *FieldError) Error() string {
	return e.err.Error()
}

// Unwrap exposes the underlying pkgerror.Error.
func (e *FieldError) Unwrap() error {
	return e.err
}

// Fields returns the per-field messages.
func (e *FieldError) Fields() map[string]string {
	return e.fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "required_if", "excluded_unless":
		return fmt.Sprintf("is not valid together with %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
