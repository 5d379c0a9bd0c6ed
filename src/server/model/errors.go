// Package models provides the domain types and database repositories
package models

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError describes a single invalid input field
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error is a domain error carrying the HTTP status and stable code the
// API layer serializes. Repositories and services return these; handlers
// unwrap with errors.As.
type Error struct {
	Status  int          `json:"-"`
	Code    string       `json:"error"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// WithMessage returns a copy carrying a different message
func (e *Error) WithMessage(format string, v ...interface{}) *Error {
	clone := *e
	clone.Message = fmt.Sprintf(format, v...)
	return &clone
}

// WithDetails returns a copy carrying per-field details
func (e *Error) WithDetails(details ...FieldError) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// Domain errors. Status assignments follow the API contract: 400
// validation, 401 token problems, 403 privilege, 404 absent, 409
// conflict, 500 unexpected, 503 database unconfigured.
var (
	ErrValidationFailure      = &Error{Status: http.StatusBadRequest, Code: "VALIDATION_FAILURE", Message: "Validation failed"}
	ErrMissingFields          = &Error{Status: http.StatusBadRequest, Code: "MISSING_FIELDS", Message: "Required fields are missing"}
	ErrInvalidEmail           = &Error{Status: http.StatusBadRequest, Code: "INVALID_EMAIL", Message: "Invalid email address"}
	ErrInvalidPassword        = &Error{Status: http.StatusBadRequest, Code: "INVALID_PASSWORD", Message: "Password must be at least 6 characters"}
	ErrInvalidDates           = &Error{Status: http.StatusBadRequest, Code: "INVALID_DATES", Message: "End date must be after start date"}
	ErrInvalidInput           = &Error{Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: "Invalid input"}
	ErrInvalidStatus          = &Error{Status: http.StatusBadRequest, Code: "INVALID_STATUS", Message: "Invalid status transition"}
	ErrEmailExists            = &Error{Status: http.StatusConflict, Code: "EMAIL_EXISTS", Message: "Email is already registered"}
	ErrInvalidCredentials     = &Error{Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
	ErrUserNotFound           = &Error{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	ErrMissingToken           = &Error{Status: http.StatusUnauthorized, Code: "MISSING_TOKEN", Message: "Authorization token required"}
	ErrInvalidToken           = &Error{Status: http.StatusUnauthorized, Code: "INVALID_TOKEN", Message: "Invalid token"}
	ErrTokenExpired           = &Error{Status: http.StatusUnauthorized, Code: "TOKEN_EXPIRED", Message: "Token has expired"}
	ErrTokenUserNotFound      = &Error{Status: http.StatusUnauthorized, Code: "USER_NOT_FOUND", Message: "User no longer exists"}
	ErrInsufficientPrivileges = &Error{Status: http.StatusForbidden, Code: "INSUFFICIENT_PRIVILEGES", Message: "Admin access required"}
	ErrForbidden              = &Error{Status: http.StatusForbidden, Code: "ACCESS_DENIED", Message: "You do not have access to this resource"}
	ErrTripNotFound           = &Error{Status: http.StatusNotFound, Code: "TRIP_NOT_FOUND", Message: "Trip not found"}
	ErrCityNotFound           = &Error{Status: http.StatusNotFound, Code: "CITY_NOT_FOUND", Message: "City not found"}
	ErrActivityNotFound       = &Error{Status: http.StatusNotFound, Code: "ACTIVITY_NOT_FOUND", Message: "Activity not found"}
	ErrItineraryItemNotFound  = &Error{Status: http.StatusNotFound, Code: "ITINERARY_ITEM_NOT_FOUND", Message: "Itinerary item not found"}
	ErrCityAlreadyInTrip      = &Error{Status: http.StatusConflict, Code: "CITY_ALREADY_IN_TRIP", Message: "City is already part of this trip"}
	ErrCityAlreadyExists      = &Error{Status: http.StatusConflict, Code: "CITY_ALREADY_EXISTS", Message: "City already exists"}
	ErrCityNotInTrip          = &Error{Status: http.StatusNotFound, Code: "CITY_NOT_IN_TRIP", Message: "City is not part of this trip"}
	ErrCityInUse              = &Error{Status: http.StatusConflict, Code: "CITY_IN_USE", Message: "City is referenced by trips or itineraries"}
	ErrActivityInUse          = &Error{Status: http.StatusConflict, Code: "ACTIVITY_IN_USE", Message: "Activity is referenced by itineraries"}
	ErrSelfDemote             = &Error{Status: http.StatusBadRequest, Code: "SELF_DEMOTE", Message: "Admins cannot demote themselves"}
	ErrSelfDelete             = &Error{Status: http.StatusBadRequest, Code: "SELF_DELETE", Message: "Admins cannot delete themselves"}
	ErrDatabaseUnconfigured   = &Error{Status: http.StatusServiceUnavailable, Code: "DATABASE_UNCONFIGURED", Message: "Database is not configured"}
	ErrDatabaseError          = &Error{Status: http.StatusInternalServerError, Code: "DATABASE_ERROR", Message: "Database operation failed"}
)

// NewValidationError builds a VALIDATION_FAILURE carrying field details
func NewValidationError(details ...FieldError) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    ErrValidationFailure.Code,
		Message: ErrValidationFailure.Message,
		Details: details,
	}
}

// AsError extracts a domain *Error from any error chain. The fallback
// for non-domain errors is DATABASE_ERROR.
func AsError(err error) *Error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return ErrDatabaseError
}

// IsNotFound reports whether the error is one of the 404 kinds
func IsNotFound(err error) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Status == http.StatusNotFound
	}
	return false
}
