// Package store implements persistence for users, chores, and completions on
// top of database/sql. Stores return (nil, nil) for rows that do not exist;
// domain rule violations surface as the sentinel errors below.
package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateCompletion is returned when a completion already exists for
	// the chore in the relevant window (week, or calendar day for twice-weekly
	// and adhoc chores).
	ErrDuplicateCompletion = errors.New("chore already completed in this period")

	// ErrNameTaken and ErrEmailTaken are returned when a user create/update
	// collides with another user's unique fields.
	ErrNameTaken  = errors.New("user name already exists")
	ErrEmailTaken = errors.New("user email already exists")
)

// isUniqueViolation reports whether err is a sqlite unique-constraint failure,
// the backstop for races that slip past in-transaction existence checks.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
