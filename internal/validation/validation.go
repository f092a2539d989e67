package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names in errors use the json tag, and
// decimal.Decimal fields validate as numbers so gt/gte/lte tags apply to amounts.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		instance = v
	})
	return instance
}

// Struct validates s and wraps any failure in apperrors.ErrValidation with a readable
// list of the offending fields.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), message(fe)))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(msgs, "; "))
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gtefield":
		return "must not be before " + e.Param()
	case "min":
		return "must have at least " + e.Param() + " items"
	default:
		return "is invalid"
	}
}
