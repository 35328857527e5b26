package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a form field name to a violation code (translated by i18n).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their form names so violations line up with inputs.
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return vd
}

// codes maps validator tags to violation codes.
var codes = map[string]string{
	"required": "required",
	"email":    "invalid_email",
	"min":      "too_short",
	"max":      "too_long",
	"eqfield":  "mismatch",
	"gte":      "out_of_range",
	"lte":      "out_of_range",
	"oneof":    "invalid_choice",
	"datetime": "invalid_date",
}

// Struct validates s using its `validate` tags and returns the violations.
func Struct(s any) Violations {
	v := Violations{}
	err := validate.Struct(s)
	if err == nil {
		return v
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("_", "invalid")
		return v
	}
	for _, fe := range fieldErrs {
		code, ok := codes[fe.Tag()]
		if !ok {
			code = "invalid"
		}
		v.Add(fe.Field(), code)
	}
	return v
}
