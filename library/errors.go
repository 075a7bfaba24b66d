package library

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Error kinds surfaced by every component. Callers branch on these with
// errors.Is; the wrapped message carries the specifics.
var (
	// ErrNotFound: the referenced book, member, loan or librarian does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness rule was violated (ISBN, DNI or email).
	ErrConflict = errors.New("already exists")
	// ErrRejected: the operation is well-formed but forbidden by a business
	// invariant, e.g. lending an unavailable book or deleting a member with
	// open loans.
	ErrRejected = errors.New("operation rejected")
	// ErrUnauthenticated: login credentials did not match.
	ErrUnauthenticated = errors.New("invalid credentials")
)

// classifyConstraint maps SQLite constraint failures onto the error kinds:
// unique violations become ErrConflict, foreign key violations mean the
// referenced row does not exist. Anything else passes through untouched.
func classifyConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		return ErrConflict
	case sqlite3.ErrConstraintForeignKey:
		return ErrNotFound
	}
	return err
}
