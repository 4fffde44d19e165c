package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Messages overrides the generated message for a "field.tag" pair.
type Messages map[string]string

// ValidateStruct validates s and returns a VALIDATION_FAILED error whose
// details map each failing field to a single message.
func ValidateStruct(s any, messages Messages) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorutil.NewInternalError(err)
	}

	details := make(map[string]any, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Field()
		if _, seen := details[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			details[field] = msg
			continue
		}
		details[field] = fieldMessage(fe)
	}
	return errorutil.NewValidationError("validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid identifier", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
