package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/errand-service/pkg/util"
)

// RequestValidator decodes JSON bodies and checks their validate tags.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator reports failing fields by their JSON names. Values
// are stored as sent, so "notblank" rejects whitespace-only strings.
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Bind parses the body into out and validates it.
func (rv *RequestValidator) Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid request body", map[string]any{"body": err.Error()})
	}
	return rv.Struct(out)
}

// Struct validates an already decoded value.
func (rv *RequestValidator) Struct(out any) error {
	err := rv.validate.Struct(out)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe)] = describe(fe)
	}
	return apperrors.NewValidationError("validation failed", details)
}

// fieldPath drops the top-level struct name: "tasks[0].task_type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
