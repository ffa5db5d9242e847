package binder

import (
	"github.com/go-playground/validator/v10"
	"github.com/smartshelf/smartshelf/pkg/models"
)

// bookStatusValidator ensures the value is one of the known book statuses.
// The empty string is allowed so the validator composes with omitempty on
// optional fields.
func bookStatusValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, status := range models.BookStatuses {
		if value == status {
			return true
		}
	}
	return false
}
