package models

import "strings"

// isUniqueViolation detects unique-constraint failures across the
// supported drivers
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "Violation of UNIQUE KEY")
}

// isForeignKeyViolation detects referential-integrity failures across
// the supported drivers
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint") ||
		strings.Contains(msg, "foreign key constraint fails") ||
		strings.Contains(msg, "REFERENCE constraint")
}

// nullString maps empty strings to NULL for optional text columns
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
