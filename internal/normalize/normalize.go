// Package normalize turns loose request payloads into typed values. All
// trimming, defaulting and coercion happens here so that services and reports
// only ever see validated domain values.
package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator. Field names in errors follow the
// json tags; custom tags are "calendardate" and "decimal".
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			_, err := decimal.Parse(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// Struct validates s and converts the first failure into an errs.ValidationError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &errs.ValidationError{Field: fe.Field(), Reason: reason(fe)}
	}
	return err
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "calendardate":
		return "must be a date (YYYY-MM-DD)"
	case "decimal":
		return "must be a decimal number"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be >= " + fe.Param()
	case "email":
		return "must be an email address"
	case "uuid":
		return "must be a uuid"
	}
	return "failed " + fe.Tag()
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return ledger.CalendarDate(t), nil
}

// OptionalDate parses s when non-blank.
func OptionalDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// Number holds a JSON value that may arrive as a number, a numeric string,
// null or garbage. Garbage is kept and rejected later.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*n = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
	default:
		*n = Number(raw)
	}
	return nil
}

// Decimal parses the number; blank or malformed values yield zero and false.
func (n Number) Decimal() (decimal.Decimal, bool) {
	if n == "" {
		return decimal.Zero, false
	}
	d, err := decimal.Parse(string(n))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CheckAmount rejects d when it has more than ledger.AmountScale fractional
// digits or a magnitude above ledger.MaxAmount.
func CheckAmount(field string, d decimal.Decimal) error {
	if !ledger.FitsScale(d) {
		return errs.Invalid(field, "must have at most "+strconv.Itoa(ledger.AmountScale)+" decimal places")
	}
	if !ledger.FitsAmount(d) {
		return &errs.ValidationError{Field: field, Reason: "must not exceed " + ledger.MaxAmount.String(), Err: errs.ErrLimitExceeded}
	}
	return nil
}

// Int parses the number as an integer, truncating any fraction.
func (n Number) Int() (int, bool) {
	if n == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(string(n)); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Trim returns strings.TrimSpace of each pointer target, leaving nils alone.
func Trim(ps ...*string) {
	for _, p := range ps {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}
