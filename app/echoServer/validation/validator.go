// Package validation plugs go-playground/validator into echo's
// Validator hook so handlers can lean on c.Validate for request
// structs tagged in the model and DTO packages.
package validation

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	return v.v.Struct(i)
}
