// utils/validator.go
package utils

import (
	"github.com/go-playground/validator/v10"

	"campusflow/models"
)

var validate = validator.New()

// ValidateStruct runs tag-based validation and converts failures into
// the validation error kind so handlers surface them as 400s.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return models.ErrValidation(FormatValidationErrors(err))
	}
	return nil
}

func FormatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	var msg string
	for i, e := range validationErrors {
		if i > 0 {
			msg += "; "
		}
		switch e.Tag() {
		case "required":
			msg += e.Field() + " is required"
		case "email":
			msg += e.Field() + " must be a valid email"
		case "min":
			msg += e.Field() + " must be at least " + e.Param()
		case "max":
			msg += e.Field() + " must be at most " + e.Param()
		case "oneof":
			msg += e.Field() + " must be one of: " + e.Param()
		default:
			msg += e.Field() + " is invalid"
		}
	}
	return msg
}
