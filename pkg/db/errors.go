package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. Concurrent find-or-create paths (user by email,
// retailer by name, anonymous shadow user) rely on this to surface the loser
// of a race as a conflict instead of a duplicate row.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
