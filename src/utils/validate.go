// Package utils provides shared helpers: hashing, logging, validation
package utils

import (
	"errors"
	"strings"
	"time"
)

// Validation errors
var (
	ErrEmailTooLong       = errors.New("email too long (max 254 characters)")
	ErrEmailInvalidFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidDateTime    = errors.New("invalid datetime")
)

// Password length bounds enforced at the domain-service level
const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

// NormalizeEmail lowercases and trims an email address. Lookups and
// uniqueness both run on the normalized form.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateEmail checks that an address has a local part and a domain.
// Returns nil if valid, error if invalid.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)

	if len(email) > 254 {
		return ErrEmailTooLong
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrEmailInvalidFormat
	}

	return nil
}

// ValidatePassword enforces the password length bounds
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD date string
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// dateTimeLayouts are the accepted itinerary timestamp formats, most
// specific first
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses an ISO-style timestamp string
func ParseDateTime(value string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}

// ValidateDateTime checks an ISO-style timestamp string
func ValidateDateTime(value string) error {
	_, err := ParseDateTime(value)
	return err
}

// DateOf returns the YYYY-MM-DD prefix of an ISO timestamp string, or
// empty when the value is too short to carry one.
func DateOf(timestamp string) string {
	if len(timestamp) < 10 {
		return ""
	}
	return timestamp[:10]
}
