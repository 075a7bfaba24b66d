package library

import "database/sql"

// Book is a catalog entry. Available mirrors "no open loan exists"; only
// the loan ledger flips it.
type Book struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Author    string `db:"author"`
	ISBN      string `db:"isbn"`
	Category  string `db:"category"`
	Available bool   `db:"available"`
}

// Member is a registered reader. The DNI is immutable after registration.
type Member struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	DNI   string `db:"dni"`
	Phone string `db:"phone"`
}

// MemberSummary pairs a member with their open-loan count. The count is
// computed at read time from the loans table, never cached on the member.
type MemberSummary struct {
	Member
	ActiveLoans int `db:"active_loans"`
}

// Loan links a member to a book. ReturnDate is unset while the loan is
// open; it is written exactly once, when the book comes back.
type Loan struct {
	ID         int64          `db:"id"`
	MemberID   int64          `db:"member_id"`
	BookID     int64          `db:"book_id"`
	LoanDate   string         `db:"loan_date"`
	ReturnDate sql.NullString `db:"return_date"`
}

// ActiveLoan is the joined row shown at the desk for open loans.
type ActiveLoan struct {
	LoanID     int64  `db:"id"`
	BookTitle  string `db:"title"`
	MemberName string `db:"member_name"`
	MemberDNI  string `db:"dni"`
	LoanDate   string `db:"loan_date"`
	BookID     int64  `db:"book_id"`
}

// Librarian is a staff identity record; created once, never updated.
type Librarian struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Email          string `db:"email"`
	PasswordDigest string `db:"password_digest"`
}
