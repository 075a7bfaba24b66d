package library

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Catalog owns book records and their descriptive fields. It never flips
// availability; that belongs to the loan ledger.
type Catalog struct {
	db *sqlx.DB
}

const bookColumns = `id, title, author, isbn, category, available`

// Books returns every catalog entry. No ordering is promised; the caller
// sorts or filters for display.
func (c *Catalog) Books() ([]Book, error) {
	var books []Book
	if err := c.db.Select(&books, `SELECT `+bookColumns+` FROM books`); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (c *Catalog) BookByID(id int64) (Book, error) {
	var b Book
	err := c.db.Get(&b, `SELECT `+bookColumns+` FROM books WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (c *Catalog) BookByISBN(isbn string) (Book, error) {
	var b Book
	err := c.db.Get(&b, `SELECT `+bookColumns+` FROM books WHERE isbn=?`, isbn)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("isbn %q: %w", isbn, ErrNotFound)
	}
	if err != nil {
		return Book{}, fmt.Errorf("get book by isbn %q: %w", isbn, err)
	}
	return b, nil
}

// OnLoanCount counts the books currently out.
func (c *Catalog) OnLoanCount() (int, error) {
	var n int
	if err := c.db.Get(&n, `SELECT COUNT(*) FROM books WHERE available=0`); err != nil {
		return 0, fmt.Errorf("count books on loan: %w", err)
	}
	return n, nil
}

// Add inserts a new book. New books start available.
func (c *Catalog) Add(title, author, isbn, category string) (Book, error) {
	res, err := c.db.Exec(
		`INSERT INTO books(title, author, isbn, category) VALUES(?, ?, ?, ?)`,
		title, author, isbn, category)
	if err != nil {
		return Book{}, fmt.Errorf("add book isbn %q: %w", isbn, classifyConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Book{}, err
	}
	return Book{ID: id, Title: title, Author: author, ISBN: isbn, Category: category, Available: true}, nil
}

// Update rewrites a book's descriptive fields. The store permits changing
// the ISBN; a collision with another book is a conflict.
func (c *Catalog) Update(id int64, title, author, isbn, category string) error {
	res, err := c.db.Exec(
		`UPDATE books SET title=?, author=?, isbn=?, category=? WHERE id=?`,
		title, author, isbn, category, id)
	if err != nil {
		return fmt.Errorf("update book %d: %w", id, classifyConstraint(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a book. The availability check and the delete share one
// transaction so no loan can start on the book in between.
func (c *Catalog) Delete(id int64) error {
	tx, err := c.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var available bool
	err = tx.Get(&available, `SELECT available FROM books WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if !available {
		return fmt.Errorf("book %d is on loan: %w", id, ErrRejected)
	}

	if _, err := tx.Exec(`DELETE FROM books WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return tx.Commit()
}
