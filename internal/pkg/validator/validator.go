package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var monthRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)

// IsValidMonth reports whether month is "YYYY-MM" with a real month number.
func IsValidMonth(month string) bool {
	if !monthRegex.MatchString(month) {
		return false
	}
	_, err := time.Parse("2006-01", month)
	return err == nil
}

// ValidateMonth returns a field error for a malformed month, nil otherwise.
func ValidateMonth(month string) error {
	if IsEmpty(month) {
		return ValidationErrors{{Field: "month", Message: "is required"}}
	}
	if !IsValidMonth(month) {
		return ValidationErrors{{Field: "month", Message: "must be in YYYY-MM format"}}
	}
	return nil
}

// IsValidUUID accepts any RFC 4122 UUID in canonical form.
func IsValidUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

var (
	hundred = decimal.NewFromInt(100)
)

// IsValidPercent reports whether p is within [0,100].
func IsValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// IsPercentSumValid reports whether the percentages add up to at most 100.
func IsPercentSumValid(percents ...decimal.Decimal) bool {
	return decimal.Sum(decimal.Zero, percents...).LessThanOrEqual(hundred)
}

var employeeCodeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{1,31}$`)

func IsValidEmployeeCode(code string) bool {
	return employeeCodeRegex.MatchString(code)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
