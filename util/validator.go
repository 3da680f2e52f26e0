package util

import "github.com/go-playground/validator/v10"

// validate relies on the built-in latitude and longitude rules, which accept
// numeric fields as well as strings.
var validate = validator.New(validator.WithRequiredStructEnabled())

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
