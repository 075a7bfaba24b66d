package library

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Librarians gates access to the desk. Records are created once, via
// Register, and never updated or deleted.
type Librarians struct {
	db *sqlx.DB
}

// BootstrapRequired reports whether no librarian exists yet. While true,
// the desk offers registration instead of login.
func (d *Librarians) BootstrapRequired() (bool, error) {
	var n int
	if err := d.db.Get(&n, `SELECT COUNT(*) FROM librarians`); err != nil {
		return false, fmt.Errorf("count librarians: %w", err)
	}
	return n == 0, nil
}

// Register creates a librarian with a bcrypt digest of the password.
func (d *Librarians) Register(name, email, password string) (Librarian, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Librarian{}, fmt.Errorf("hash password: %w", err)
	}

	res, err := d.db.Exec(`INSERT INTO librarians(name, email, password_digest) VALUES(?, ?, ?)`,
		name, email, string(digest))
	if err != nil {
		return Librarian{}, fmt.Errorf("register librarian %q: %w", email, classifyConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Librarian{}, err
	}
	return Librarian{ID: id, Name: name, Email: email, PasswordDigest: string(digest)}, nil
}

// Authenticate checks the credentials and returns the librarian on match.
// Unknown email and digest mismatch are indistinguishable to the caller.
func (d *Librarians) Authenticate(email, password string) (Librarian, error) {
	var lib Librarian
	err := d.db.Get(&lib, `SELECT id, name, email, password_digest FROM librarians WHERE email=?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Librarian{}, ErrUnauthenticated
	}
	if err != nil {
		return Librarian{}, fmt.Errorf("authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(lib.PasswordDigest), []byte(password)); err != nil {
		return Librarian{}, ErrUnauthenticated
	}
	return lib, nil
}
