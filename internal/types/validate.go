package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every request type. validator.Validate caches
// struct metadata, so one instance serves all requests.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so errors match the request body the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalizer is implemented by requests that canonicalise their fields
// before validation.
type Normalizer interface {
	Normalize()
}

// Validate normalises req when it is a Normalizer and checks its validate
// tags.
func Validate(req any) error {
	if n, ok := req.(Normalizer); ok {
		n.Normalize()
	}
	return validate.Struct(req)
}
