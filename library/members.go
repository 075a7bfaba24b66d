package library

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Members owns reader records. Open-loan counts come from the loans table
// at read time; nothing loan-related is stored on the member row.
type Members struct {
	db *sqlx.DB
}

const memberColumns = `id, name, dni, phone`

// List returns every member with their open-loan count, ordered by name.
func (m *Members) List() ([]MemberSummary, error) {
	var out []MemberSummary
	err := m.db.Select(&out, `
        SELECT m.id, m.name, m.dni, m.phone,
               COUNT(l.id) AS active_loans
        FROM members m
        LEFT JOIN loans l ON l.member_id = m.id AND l.return_date IS NULL
        GROUP BY m.id, m.name, m.dni, m.phone
        ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}

func (m *Members) ByID(id int64) (Member, error) {
	var mem Member
	err := m.db.Get(&mem, `SELECT `+memberColumns+` FROM members WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	return mem, nil
}

func (m *Members) ByDNI(dni string) (Member, error) {
	var mem Member
	err := m.db.Get(&mem, `SELECT `+memberColumns+` FROM members WHERE dni=?`, dni)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, fmt.Errorf("dni %q: %w", dni, ErrNotFound)
	}
	if err != nil {
		return Member{}, fmt.Errorf("get member by dni %q: %w", dni, err)
	}
	return mem, nil
}

// Add registers a new member.
func (m *Members) Add(name, dni, phone string) (Member, error) {
	res, err := m.db.Exec(`INSERT INTO members(name, dni, phone) VALUES(?, ?, ?)`, name, dni, phone)
	if err != nil {
		return Member{}, fmt.Errorf("add member dni %q: %w", dni, classifyConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Member{}, err
	}
	return Member{ID: id, Name: name, DNI: dni, Phone: phone}, nil
}

// Update rewrites name and phone. The DNI is immutable after registration.
func (m *Members) Update(id int64, name, phone string) error {
	res, err := m.db.Exec(`UPDATE members SET name=?, phone=? WHERE id=?`, name, phone, id)
	if err != nil {
		return fmt.Errorf("update member %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a member. The open-loan count and the delete share one
// transaction so no loan can be opened for the member in between.
func (m *Members) Delete(id int64) error {
	tx, err := m.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var open int
	if err := tx.Get(&open, `SELECT COUNT(*) FROM loans WHERE member_id=? AND return_date IS NULL`, id); err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	if open > 0 {
		return fmt.Errorf("member %d has %d open loan(s): %w", id, open, ErrRejected)
	}

	res, err := tx.Exec(`DELETE FROM members WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
