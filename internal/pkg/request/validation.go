package request

import (
	"fmt"
	"slices"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterEnum registers a validation tag on gin's validator that accepts only
// the given string values. Empty strings are left to omitempty/required.
func RegisterEnum(tag string, values ...string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	allowed := slices.Clone(values)
	return v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	})
}
