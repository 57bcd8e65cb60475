package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"hackathonwallah/errors"

	"github.com/google/uuid"
)

// Email, phone and slug patterns
var (
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	PhoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
	SlugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// ValidateEmail checks if email format is valid
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePhone checks for a 10 digit Indian mobile number
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !PhoneRegex.MatchString(phone) {
		return fmt.Errorf("phone must be a 10 digit number")
	}
	return nil
}

// ValidateHTTPURL checks for an absolute http(s) URL
func ValidateHTTPURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be a valid http(s) URL")
	}
	return nil
}

// Validator collects per-field errors.
type Validator struct {
	fields errors.Fields
}

// NewValidator returns an empty validator
func NewValidator() *Validator {
	return &Validator{fields: errors.Fields{}}
}

// Check records msg for field when ok is false. The first error per field wins.
func (v *Validator) Check(ok bool, field, msg string) {
	if ok {
		return
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

// Length checks the rune length of value is within [min, max].
func (v *Validator) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	v.Check(n >= min && n <= max, field, fmt.Sprintf("must be between %d and %d characters", min, max))
}

// MinLength checks value has at least min runes.
func (v *Validator) MinLength(field, value string, min int) {
	v.Check(utf8.RuneCountInString(value) >= min, field, fmt.Sprintf("must be at least %d characters", min))
}

// MaxLength checks value has at most max runes.
func (v *Validator) MaxLength(field, value string, max int) {
	v.Check(utf8.RuneCountInString(value) <= max, field, fmt.Sprintf("must be at most %d characters", max))
}

// Email checks value is a well-formed address.
func (v *Validator) Email(field, value string) {
	if err := ValidateEmail(value); err != nil {
		v.Check(false, field, err.Error())
	}
}

// UUID checks value is a well-formed id.
func (v *Validator) UUID(field, value string) {
	_, err := uuid.Parse(value)
	v.Check(err == nil, field, "must be a valid id")
}

// Valid reports whether no errors were recorded
func (v *Validator) Valid() bool {
	return len(v.fields) == 0
}

// Err returns a validation error carrying the field messages, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return errors.NewValidationError(v.fields)
}

// Slugify lowercases s and joins alphanumeric runs with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
