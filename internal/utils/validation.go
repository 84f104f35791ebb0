package utils

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type selfValidator interface {
	Validate() error
}

// ValidateInput checks struct tags, then the input's own Validate method when it has one.
// Failures wrap apperrors.ErrValidation.
func ValidateInput(in any) error {
	if err := Validator().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return apperrors.NewValidationError("%s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if sv, ok := in.(selfValidator); ok {
		return sv.Validate()
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
