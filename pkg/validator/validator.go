package validator

import (
	"errors"
	"reflect"
	"strings"

	validators "github.com/go-playground/validator/v10"
)

// Validator interface
type Validator interface {
	ValidateStruct(inf interface{}) error
}

// Violation is one failed rule, keyed by the json name of the field
type Violation struct {
	Field string
	Rule  string
	Param string
	Value interface{}
}

type validator struct {
	validator *validators.Validate
}

// New Validator func
func New() Validator {
	v := validators.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &validator{
		validator: v,
	}
}

// ValidateStruct func
func (v *validator) ValidateStruct(inf interface{}) error {
	return v.validator.Struct(inf)
}

// Violations flattens a ValidateStruct error; other errors yield nil
func Violations(err error) []Violation {
	var errs validators.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make([]Violation, 0, len(errs))
	for _, fe := range errs {
		out = append(out, Violation{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return out
}
