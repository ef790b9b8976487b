package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// HandleValidationError converts binding errors into an ErrorDetail.
// validator.ValidationErrors become a field -> message map keyed by the
// request field name. Anything else is reported as a malformed request.
func HandleValidationError(err error) *ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewErrorDetail(ErrorCodeInvalidRequest, "Invalid request format").
			WithDetails(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		name := fieldName(fe)
		if first == "" {
			first = name
		}
		fields[name] = formatValidationError(name, fe)
	}

	return NewErrorDetail(ErrorCodeValidationFailed, fields[first]).
		WithField(first).
		WithDetails(fields)
}

func fieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return name
	}
	return fe.StructField()
}

var registerOnce sync.Once

// RegisterTagNames makes gin's validator report fields by their form/json
// names so error details match what the client sent.
func RegisterTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
}

func formatValidationError(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return name + " must be at least " + fe.Param()
	case "max":
		return name + " must be at most " + fe.Param()
	case "email":
		return name + " must be a valid email address"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "datetime":
		return name + " must be a date in YYYY-MM-DD format"
	default:
		return name + " validation failed: " + fe.Tag()
	}
}
