package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by Store methods. Callers match them with
// errors.Is.
var (
	// ErrUserExists is returned when an insert collides with an existing
	// username or email.
	ErrUserExists = errors.New("user already exists")

	// ErrSlugExists is returned when an entry insert collides with an
	// existing slug.
	ErrSlugExists = errors.New("slug already exists")

	// ErrNotFound is returned when a lookup by id, email or slug matches
	// no row.
	ErrNotFound = errors.New("not found")
)

// uniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func uniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
