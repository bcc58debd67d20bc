package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sumire/issuetracker/internal/domain"
)

// structValidator wraps go-playground/validator and reports failures as
// domain validation errors named after the JSON field.
type structValidator struct {
	validator *validator.Validate
}

func newStructValidator() *structValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &structValidator{validator: v}
}

// Validate checks i against its validate tags. The first failing field is
// returned as a *domain.ValidationError carrying message.
func (v *structValidator) Validate(i any, message string) error {
	if err := v.validator.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return &domain.ValidationError{
				Field:   validationErrors[0].Field(),
				Message: message,
			}
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
