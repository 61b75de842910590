// Package validation runs the field rules declared in `validate` struct tags
// and reports every failure at once as an *apperr.ValidationError keyed by
// JSON field name.
package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
)

// Validator is safe for concurrent use; validator caches struct metadata.
type Validator struct {
	v *validator.Validate
}

// Enum is implemented by string enums checked with the `enum` tag.
type Enum interface {
	Valid() bool
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Range tags (gte, lte, gt) compare numbers, so decimals are presented
	// to the validator as float64. Two-decimal bounds are exact enough.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})

	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(Enum)
		return ok && e.Valid()
	})

	// decimals=N caps the digits after the decimal point. The field arrives
	// as float64; its shortest decimal form is what the client sent.
	_ = v.RegisterValidation("decimals", func(fl validator.FieldLevel) bool {
		places, err := strconv.ParseInt(fl.Param(), 10, 32)
		if err != nil {
			return false
		}
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			d := decimal.NewFromFloat(fl.Field().Float())
			return d.Equal(d.Round(int32(places)))
		}
		return false
	})

	return &Validator{v: v}
}

// Struct validates s and returns nil or an *apperr.ValidationError.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Trace(err)
	}
	out := apperr.NewValidationError()
	for _, fe := range fieldErrs {
		out.AddField(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "decimals":
		return fmt.Sprintf("%s must have at most %s decimal places.", label, fe.Param())
	case "enum":
		return fmt.Sprintf("%s %q is not a valid choice.", label, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// humanize turns "tag_number" into "Tag number".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DateNotBefore records a field error when later precedes earlier. A nil
// later date is allowed.
func DateNotBefore(verr *apperr.ValidationError, field string, later *models.Date, earlier models.Date, earlierLabel string) {
	if later == nil || later.IsZero() {
		return
	}
	if later.Before(earlier.Time) {
		verr.AddField(field, fmt.Sprintf("%s cannot be before %s.", humanize(field), earlierLabel))
	}
}
