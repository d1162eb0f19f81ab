package binder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

const (
	email    = "email"
	gt       = "gt"
	gte      = "gte"
	mx       = "max"
	mn       = "min"
	ne       = "ne"
	oneof    = "oneof"
	relpath  = "relpath"
	required = "required"
	username = "username"
)

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

func isNumeric(kind reflect.Kind) bool {
	//exhaustive:ignore
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func lengthBound(field, relation string, err validator.FieldError) string {
	if isNumeric(err.Kind()) {
		return fmt.Sprintf("%q must be %s %s", field, relation, err.Param())
	}
	resource := "character"
	if err.Kind() == reflect.Slice {
		resource = "element"
	}
	if err.Param() != "1" {
		resource += "s"
	}
	return fmt.Sprintf("%q length must be %s %s %s", field, relation, err.Param(), resource)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case email:
		return fmt.Sprintf("%q is not a valid email", field)
	case gt:
		return fmt.Sprintf("%q must be greater than %s", field, err.Param())
	case gte:
		return fmt.Sprintf("%q must be greater than or equal to %s", field, err.Param())
	case mx:
		return lengthBound(field, "less than or equal to", err)
	case mn:
		return lengthBound(field, "greater than or equal to", err)
	case ne:
		return fmt.Sprintf("%q can't be %q", field, err.Param())
	case oneof:
		valids := []string{}
		for _, p := range strings.Fields(err.Param()) {
			valids = append(valids, fmt.Sprintf("%q", p))
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(valids, ", "))
	case relpath:
		return fmt.Sprintf("%q must be a path relative to your notes folder", field)
	case required:
		return fmt.Sprintf("%q is required", field)
	case username:
		return fmt.Sprintf("%q may only contain letters, numbers, underscores and hyphens", field)
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}
