package validation

import (
	"regexp"
	"unicode"
)

// Validation rule patterns
var (
	EmailPattern    = `^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`
	UsernamePattern = `^[A-Za-z0-9@.+_\-]{3,150}$`
	PhonePattern    = `^\+?[0-9 ()\-]{6,20}$`

	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email    *regexp.Regexp
	Username *regexp.Regexp
	Phone    *regexp.Regexp
}{
	Email:    regexp.MustCompile(EmailPattern),
	Username: regexp.MustCompile(UsernamePattern),
	Phone:    regexp.MustCompile(PhonePattern),
}

// StringValidation checks a required string against a pattern
type StringValidation struct {
	Value   string
	Pattern *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{Value: value}
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// Validate reports whether the value is non-empty and matches the pattern
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return false
	}
	return v.Pattern == nil || v.Pattern.MatchString(v.Value)
}

// PasswordProblem returns a human readable reason the password is too weak, or "".
func PasswordProblem(password string) string {
	if len(password) < PasswordMinLength {
		return "password must be at least 8 characters long"
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return "password must contain at least one letter"
	}
	if !hasDigit {
		return "password must contain at least one digit"
	}
	return ""
}
