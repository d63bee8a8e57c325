package models

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for request payloads.
var validate = validator.New()

// Validate checks a request struct against its `validate` tags.
func Validate(req interface{}) error {
	return validate.Struct(req)
}
