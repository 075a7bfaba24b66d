package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireConsistent asserts that a book's availability flag mirrors its
// open-loan state.
func requireConsistent(t *testing.T, desk *Desk, bookID int64) {
	t.Helper()
	b, err := desk.Catalog.BookByID(bookID)
	require.NoError(t, err)

	active, err := desk.Loans.Active()
	require.NoError(t, err)

	open := 0
	for _, l := range active {
		if l.BookID == bookID {
			open++
		}
	}
	require.LessOrEqual(t, open, 1, "at most one open loan per book")
	require.Equal(t, open == 0, b.Available, "availability must mirror open-loan state")
}

func TestLendFlow(t *testing.T) {
	desk := tempDesk(t)

	b, err := desk.Catalog.Add("1984", "George Orwell", "111", "Fiction")
	require.NoError(t, err)
	m, err := desk.Members.Add("Alice", "DNI1", "555-0100")
	require.NoError(t, err)

	loan, err := desk.Loans.Lend(m.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, loan.MemberID)
	assert.Equal(t, b.ID, loan.BookID)
	assert.Equal(t, time.Now().Format("2006-01-02"), loan.LoanDate)
	assert.False(t, loan.ReturnDate.Valid)

	got, err := desk.Catalog.BookByID(b.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
	requireConsistent(t, desk, b.ID)

	// A second lend on the same book must be rejected.
	_, err = desk.Loans.Lend(m.ID, b.ID)
	assert.ErrorIs(t, err, ErrRejected)
	requireConsistent(t, desk, b.ID)
}

func TestLendUnknownReferences(t *testing.T) {
	desk := tempDesk(t)

	b, err := desk.Catalog.Add("B", "A", "111", "")
	require.NoError(t, err)
	m, err := desk.Members.Add("Alice", "DNI1", "")
	require.NoError(t, err)

	_, err = desk.Loans.Lend(99999, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = desk.Loans.Lend(m.ID, 99999)
	assert.ErrorIs(t, err, ErrNotFound)

	// No partial state: the book must still be lendable.
	_, err = desk.Loans.Lend(m.ID, b.ID)
	assert.NoError(t, err)
}

func TestReturnFlow(t *testing.T) {
	desk := tempDesk(t)

	b, _ := desk.Catalog.Add("B", "A", "111", "")
	m, _ := desk.Members.Add("Alice", "DNI1", "")

	loan, err := desk.Loans.Lend(m.ID, b.ID)
	require.NoError(t, err)

	closed, err := desk.Loans.Return(loan.ID)
	require.NoError(t, err)
	assert.True(t, closed.ReturnDate.Valid)
	assert.Equal(t, time.Now().Format("2006-01-02"), closed.ReturnDate.String)
	assert.Equal(t, b.ID, closed.BookID, "book id must come from the loan row")

	got, err := desk.Catalog.BookByID(b.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	requireConsistent(t, desk, b.ID)

	active, err := desk.Loans.Active()
	require.NoError(t, err)
	assert.Empty(t, active)

	// Returning a closed loan is rejected, not a second mutation.
	_, err = desk.Loans.Return(loan.ID)
	assert.ErrorIs(t, err, ErrRejected)

	_, err = desk.Loans.Return(99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLendAgainAfterReturn(t *testing.T) {
	desk := tempDesk(t)

	b, _ := desk.Catalog.Add("B", "A", "111", "")
	alice, _ := desk.Members.Add("Alice", "DNI1", "")
	bob, _ := desk.Members.Add("Bob", "DNI2", "")

	loan1, err := desk.Loans.Lend(alice.ID, b.ID)
	require.NoError(t, err)
	_, err = desk.Loans.Return(loan1.ID)
	require.NoError(t, err)

	loan2, err := desk.Loans.Lend(bob.ID, b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, loan1.ID, loan2.ID)
	requireConsistent(t, desk, b.ID)
}

func TestActiveLoansView(t *testing.T) {
	desk := tempDesk(t)

	b1, _ := desk.Catalog.Add("First", "A", "111", "")
	b2, _ := desk.Catalog.Add("Second", "A", "222", "")
	m, _ := desk.Members.Add("Alice", "DNI1", "555-0100")

	l1, _ := desk.Loans.Lend(m.ID, b1.ID)
	l2, _ := desk.Loans.Lend(m.ID, b2.ID)

	active, err := desk.Loans.Active()
	require.NoError(t, err)
	require.Len(t, active, 2)

	// Newest first; same loan date, so higher loan id wins.
	assert.Equal(t, l2.ID, active[0].LoanID)
	assert.Equal(t, l1.ID, active[1].LoanID)
	assert.Equal(t, "Second", active[0].BookTitle)
	assert.Equal(t, "Alice", active[0].MemberName)
	assert.Equal(t, "DNI1", active[0].MemberDNI)

	// Reading twice with no mutation in between yields identical results.
	again, err := desk.Loans.Active()
	require.NoError(t, err)
	assert.Equal(t, active, again)
}

// TestConcurrentLend checks that two simultaneous lends of the same book
// cannot both succeed.
func TestConcurrentLend(t *testing.T) {
	desk := tempDesk(t)

	b, _ := desk.Catalog.Add("Contested", "A", "111", "")
	alice, _ := desk.Members.Add("Alice", "DNI1", "")
	bob, _ := desk.Members.Add("Bob", "DNI2", "")

	done1 := make(chan error, 1)
	done2 := make(chan error, 1)

	go func() {
		_, err := desk.Loans.Lend(alice.ID, b.ID)
		done1 <- err
	}()
	go func() {
		_, err := desk.Loans.Lend(bob.ID, b.ID)
		done2 <- err
	}()

	err1 := <-done1
	err2 := <-done2

	if err1 == nil && err2 == nil {
		t.Fatalf("both lends succeeded; exactly one must")
	}
	if err1 != nil && err2 != nil {
		t.Fatalf("both lends failed: %v / %v", err1, err2)
	}

	active, err := desk.Loans.Active()
	require.NoError(t, err)
	assert.Len(t, active, 1, "exactly one open loan after the race")
	requireConsistent(t, desk, b.ID)
}
