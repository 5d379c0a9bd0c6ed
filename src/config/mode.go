package config

import "strings"

// Mode represents the application execution mode
type Mode string

const (
	// ModeDevelopment is for local development (relaxed security, verbose logging)
	ModeDevelopment Mode = "development"
	// ModeProduction is for production deployment
	ModeProduction Mode = "production"
	// ModeTest is for automated test runs
	ModeTest Mode = "test"
)

// DetectMode determines the application mode from a raw mode string.
// Unknown or empty values default to production.
func DetectMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "development", "dev":
		return ModeDevelopment
	case "test", "testing":
		return ModeTest
	default:
		return ModeProduction
	}
}

// IsTruthy interprets common boolean-ish environment values
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on", "enabled":
		return true
	}
	return false
}
