package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// newValidator builds the struct validator shared by the services.
// Field names in validation errors follow the json tags so they match
// what clients actually sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator output into a domain.ValidationError
// carrying one message per failed field.
func validationError(op string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "validation failed")
	}

	var out error
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = domain.AddFieldError(out, fe.Field(), fe.Field()+" is required")
		default:
			out = domain.AddFieldError(out, fe.Field(), "invalid value")
		}
	}

	if ve, ok := out.(*domain.ValidationError); ok {
		ve.Op = op
	}
	return out
}
