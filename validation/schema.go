package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate //nolint: gochecknoglobals // shared instance, configured once

func init() { //nolint: gochecknoinits // validator setup has no failure modes
	validate = validator.New()
	validate.RegisterTagNameFunc(getTagName)
}

// checkSchema evaluates declarative struct-tag constraints on the request
// and returns one violation per failed constraint.
func checkSchema(req any) []Violation {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Non-struct input or a broken rule definition; report it as a
		// single violation on the request itself.
		return []Violation{{Field: "request", Message: err.Error()}}
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		violations = append(violations, Violation{
			Field:   fieldErr.Field(),
			Message: getFieldErrDescription(fieldErr),
		})
	}

	return violations
}

// getTagName returns the name of a struct field based on its struct tags,
// preferring the json tag and falling back to the Go field name.
func getTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name != "" && name != "-" {
		return name
	}
	return fld.Name
}

func getFieldErrDescription(fieldErr validator.FieldError) string {
	tag := fieldErr.Tag()
	param := fieldErr.Param()

	if desc := getCoreValidationDesc(tag, param, fieldErr); desc != "" {
		return desc
	}

	if desc := getStringValidationDesc(tag, param); desc != "" {
		return desc
	}

	if desc := getFormatValidationDesc(tag); desc != "" {
		return desc
	}

	return fmt.Sprintf("Failed validation: %s", tag)
}

func getCoreValidationDesc(tag, param string, fieldErr validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", param)
		}
		return fmt.Sprintf("Must be at least %s", param)
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", param)
		}
		return fmt.Sprintf("Must be at most %s", param)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "gt":
		return fmt.Sprintf("Must be greater than %s", param)
	case "lt":
		return fmt.Sprintf("Must be less than %s", param)
	case "len":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("Must be exactly %s characters", param)
		}
		return fmt.Sprintf("Must have exactly %s items", param)
	case "alphanum":
		return "Must contain only alphanumeric characters"
	case "numeric":
		return "Must be a valid number"
	}
	return ""
}

func getStringValidationDesc(tag, param string) string {
	switch tag {
	case "oneof":
		options := strings.ReplaceAll(param, " ", ", ")
		return fmt.Sprintf("Must be one of: %s", options)
	case "startswith":
		return fmt.Sprintf("Must start with: %s", param)
	case "endswith":
		return fmt.Sprintf("Must end with: %s", param)
	case "datetime":
		return fmt.Sprintf("Must be a valid datetime in format: %s", param)
	}
	return ""
}

func getFormatValidationDesc(tag string) string {
	switch tag {
	case "url":
		return "Must be a valid URL"
	case "uuid":
		return "Must be a valid UUID"
	case "json":
		return "Must be valid JSON"
	case "hostname":
		return "Must be a valid hostname"
	case "ip":
		return "Must be a valid IP address"
	}
	return ""
}
