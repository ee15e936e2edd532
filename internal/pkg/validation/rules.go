package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns
var (
	// Email validation pattern - configurable
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`

	// PRN (permanent registration number) pattern, e.g. 124M1H029
	PRNPattern = `^\d{2,3}[A-Z]\d[A-Z]\d{3}$`

	// Department code: uppercase alphanumeric, at most 10 characters
	DepartmentCodePattern = `^[A-Z0-9]{1,10}$`

	// Password min length
	PasswordMinLength = 8

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 100
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email          *regexp.Regexp
	PRN            *regexp.Regexp
	DepartmentCode *regexp.Regexp
}{
	Email:          regexp.MustCompile(EmailPattern),
	PRN:            regexp.MustCompile(PRNPattern),
	DepartmentCode: regexp.MustCompile(DepartmentCodePattern),
}

// NormalizePRN trims and uppercases a candidate PRN number.
func NormalizePRN(prn string) string {
	return strings.ToUpper(strings.TrimSpace(prn))
}

// ValidPRN reports whether the (already normalized) PRN matches the
// expected format.
func ValidPRN(prn string) bool {
	return CompiledPatterns.PRN.MatchString(prn)
}

// NormalizeDepartmentCode trims and uppercases a department code.
func NormalizeDepartmentCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidDepartmentCode reports whether the (already normalized) code is
// uppercase alphanumeric and at most 10 characters.
func ValidDepartmentCode(code string) bool {
	return CompiledPatterns.DepartmentCode.MatchString(code)
}

// String validation
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	// Check if required
	if v.Required && v.Value == "" {
		return false
	}

	// Skip other validations for empty optional values
	if !v.Required && v.Value == "" {
		return true
	}

	// Check min length
	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}

	// Check max length
	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}

	// Check pattern
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}
