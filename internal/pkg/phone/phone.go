// Package phone normalizes and validates phone numbers used as OTP identities.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidFormat is returned when a phone number cannot be normalized.
var ErrInvalidFormat = errors.New("phone: invalid format")

var (
	// national mobile numbers: 10 digits starting with 6-9
	reNational = regexp.MustCompile(`^[6-9]\d{9}$`)
	// international numbers without the leading '+': 10-15 digits
	reInternational = regexp.MustCompile(`^\d{10,15}$`)

	stripper = strings.NewReplacer(" ", "", "-", "", "+", "", "\t", "")
)

// Clean removes spaces, dashes and the '+' prefix without validating.
func Clean(raw string) string {
	return stripper.Replace(strings.TrimSpace(raw))
}

// Valid reports whether an already cleaned number is acceptable.
func Valid(cleaned string) bool {
	return reNational.MatchString(cleaned) || reInternational.MatchString(cleaned)
}

// Normalize cleans raw and returns the canonical identity, or ErrInvalidFormat.
func Normalize(raw string) (string, error) {
	cleaned := Clean(raw)
	if !Valid(cleaned) {
		return "", ErrInvalidFormat
	}
	return cleaned, nil
}
