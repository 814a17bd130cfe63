package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"athletehub-api/internal/apperrors"
	"athletehub-api/pkg/lambda"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody parses a JSON body into v and validates it
func decodeBody(req *lambda.Request, v any) error {
	if len(strings.TrimSpace(string(req.Body))) == 0 {
		return apperrors.InvalidArgument("request body is required")
	}
	if err := json.Unmarshal(req.Body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperrors.InvalidArgumentf("%s has the wrong type", typeErr.Field)
		}
		return apperrors.Malformed("request body is not valid JSON", err)
	}
	return validateStruct(v)
}

// validateStruct runs struct tag validation and maps failures to InvalidArgument
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.InvalidArgument(err.Error())
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldMessage(fe))
	}
	return apperrors.Wrap(apperrors.ErrInvalidArgument, "validate", strings.Join(messages, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// requireParam returns a trimmed path or query value, or InvalidArgument
func requireParam(value, name string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.InvalidArgumentf("%s is required", name)
	}
	return value, nil
}
