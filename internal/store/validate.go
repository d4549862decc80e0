package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/bunk/internal/model"
)

var validate = validator.New()

// ValidationError describes rejected input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldLabel(fe.Field()), Message: tagMessage(fe)}
}

func fieldLabel(name string) string {
	switch name {
	case "FixedTotal":
		return "fixed total"
	default:
		return strings.ToLower(name)
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func cleanName(name string) string {
	return strings.TrimSpace(name)
}

// ParseDay validates an ISO calendar date and returns it normalized.
func ParseDay(day string) (string, error) {
	parsed, err := time.Parse(model.DateLayout, strings.TrimSpace(day))
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", day)
	}
	return parsed.Format(model.DateLayout), nil
}
