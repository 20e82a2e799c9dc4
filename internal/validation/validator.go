package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"expense-tracker/internal/models"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidISODate = errors.New("date must be an ISO-8601 string")

// isoLayouts lists the accepted ISO-8601 shapes, most specific first.
// Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance     *Validator
	instanceOnce sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	instanceOnce.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("expense_category", validateExpenseCategory)
	_ = v.RegisterValidation("category_filter", validateCategoryFilter)
	_ = v.RegisterValidation("expense_amount", validateExpenseAmount)
	_ = v.RegisterValidation("iso8601", validateISO8601)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s against its validate tags
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// ParseISO8601 parses an ISO-8601 date or date-time string and returns it in UTC
func ParseISO8601(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidISODate
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidISODate, value)
}

// validateExpenseCategory accepts only the fixed expense categories
func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.IsValidCategory(fl.Field().String())
}

// validateCategoryFilter also accepts "all", which disables category filtering
func validateCategoryFilter(fl validator.FieldLevel) bool {
	category := fl.Field().String()
	return category == models.CategoryAll || models.IsValidCategory(category)
}

// validateExpenseAmount requires a non-negative amount with at most 2 decimal places
func validateExpenseAmount(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return false
		}
		field = field.Elem()
	}

	if field.Kind() != reflect.Float32 && field.Kind() != reflect.Float64 {
		return false
	}

	amount := field.Float()
	if amount < 0 {
		return false
	}

	amountStr := fmt.Sprintf("%.10f", amount)
	parts := strings.Split(amountStr, ".")
	if len(parts) > 1 {
		decimals := strings.TrimRight(parts[1], "0")
		if len(decimals) > 2 {
			return false
		}
	}

	return true
}

func validateISO8601(fl validator.FieldLevel) bool {
	_, err := ParseISO8601(fl.Field().String())
	return err == nil
}
