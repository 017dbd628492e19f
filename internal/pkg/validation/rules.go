package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns
var (
	// IIN is the 12-digit Kazakhstan individual identification number
	IINPattern = `^\d{12}$`

	EmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

	// Phone accepts +7XXXXXXXXXX, 8XXXXXXXXXX or ten bare digits
	PhonePattern = `^(\+7|8)?[0-9]{10}$`

	PasswordMinLength = 8

	NameMinLength = 1
	NameMaxLength = 100
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	IIN   *regexp.Regexp
	Email *regexp.Regexp
	Phone *regexp.Regexp
	Tag   *regexp.Regexp
}{
	IIN:   regexp.MustCompile(IINPattern),
	Email: regexp.MustCompile(EmailPattern),
	Phone: regexp.MustCompile(PhonePattern),
	Tag:   regexp.MustCompile(`<[^>]*>`),
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// ValidateIIN reports whether iin is exactly twelve ASCII digits.
func ValidateIIN(iin string) bool {
	return CompiledPatterns.IIN.MatchString(iin)
}

// ValidateEmail applies the loose something@something.something check.
func ValidateEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(email)
}

// ValidatePhone checks a phone number after removing spaces, dashes and parentheses.
func ValidatePhone(phone string) bool {
	return CompiledPatterns.Phone.MatchString(phoneSeparators.Replace(phone))
}

// SanitizeString trims the input and strips anything that looks like a markup tag.
func SanitizeString(input string) string {
	return CompiledPatterns.Tag.ReplaceAllString(strings.TrimSpace(input), "")
}

// ValidateNumberRange reports min <= value <= max.
func ValidateNumberRange(value, min, max float64) bool {
	return value >= min && value <= max
}

// StringValidation is a small builder for length checks
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
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

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}

	length := len([]rune(v.Value))
	if v.MinLen > 0 && length < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && length > v.MaxLen {
		return false
	}
	return true
}
