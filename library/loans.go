package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Ledger owns loan records. It is the only writer of a book's availability
// flag and of a loan's return date, and it mutates both together in a
// single transaction.
type Ledger struct {
	db *sqlx.DB
}

const loanDateLayout = "2006-01-02"

// Lend opens a loan for a member on an available book and marks the book
// as out. Both writes commit together or not at all.
func (l *Ledger) Lend(memberID, bookID int64) (Loan, error) {
	tx, err := l.db.Beginx()
	if err != nil {
		return Loan{}, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM members WHERE id=?)`, memberID); err != nil {
		return Loan{}, fmt.Errorf("lend: %w", err)
	}
	if !exists {
		return Loan{}, fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	}

	// Availability is re-checked here, inside the transaction, so two
	// concurrent lends of the same book cannot both pass.
	var available bool
	err = tx.Get(&available, `SELECT available FROM books WHERE id=?`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return Loan{}, fmt.Errorf("book %d: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return Loan{}, fmt.Errorf("lend: %w", err)
	}
	if !available {
		return Loan{}, fmt.Errorf("book %d is already on loan: %w", bookID, ErrRejected)
	}

	loanDate := time.Now().Format(loanDateLayout)
	res, err := tx.Exec(`INSERT INTO loans(member_id, book_id, loan_date) VALUES(?, ?, ?)`,
		memberID, bookID, loanDate)
	if err != nil {
		return Loan{}, fmt.Errorf("lend book %d: %w", bookID, classifyConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Loan{}, err
	}
	if _, err := tx.Exec(`UPDATE books SET available=0 WHERE id=?`, bookID); err != nil {
		return Loan{}, fmt.Errorf("lend book %d: %w", bookID, err)
	}
	if err := tx.Commit(); err != nil {
		return Loan{}, err
	}
	return Loan{ID: id, MemberID: memberID, BookID: bookID, LoanDate: loanDate}, nil
}

// Return closes an open loan and makes its book available again. The book
// id comes from the stored loan row, never from the caller, so a confused
// caller cannot flip the wrong book.
func (l *Ledger) Return(loanID int64) (Loan, error) {
	tx, err := l.db.Beginx()
	if err != nil {
		return Loan{}, err
	}
	defer tx.Rollback()

	var loan Loan
	err = tx.Get(&loan, `
        SELECT id, COALESCE(member_id, 0) AS member_id, COALESCE(book_id, 0) AS book_id,
               loan_date, return_date
        FROM loans WHERE id=?`, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return Loan{}, fmt.Errorf("loan %d: %w", loanID, ErrNotFound)
	}
	if err != nil {
		return Loan{}, fmt.Errorf("return: %w", err)
	}
	if loan.ReturnDate.Valid {
		return Loan{}, fmt.Errorf("loan %d was already returned on %s: %w",
			loanID, loan.ReturnDate.String, ErrRejected)
	}

	returnDate := time.Now().Format(loanDateLayout)
	if _, err := tx.Exec(`UPDATE loans SET return_date=? WHERE id=?`, returnDate, loanID); err != nil {
		return Loan{}, fmt.Errorf("return loan %d: %w", loanID, err)
	}
	if _, err := tx.Exec(`UPDATE books SET available=1 WHERE id=?`, loan.BookID); err != nil {
		return Loan{}, fmt.Errorf("return loan %d: %w", loanID, err)
	}
	if err := tx.Commit(); err != nil {
		return Loan{}, err
	}
	loan.ReturnDate = sql.NullString{String: returnDate, Valid: true}
	return loan, nil
}

// Active returns the open loans joined with book and member details,
// newest first. Ties on the date break on loan id so repeated reads come
// back in the same order.
func (l *Ledger) Active() ([]ActiveLoan, error) {
	var out []ActiveLoan
	err := l.db.Select(&out, `
        SELECT l.id, b.title, m.name AS member_name, m.dni, l.loan_date, l.book_id
        FROM loans l
        JOIN books b ON b.id = l.book_id
        JOIN members m ON m.id = l.member_id
        WHERE l.return_date IS NULL
        ORDER BY l.loan_date DESC, l.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	return out, nil
}
