package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMemberDuplicateDNI(t *testing.T) {
	desk := tempDesk(t)

	first, err := desk.Members.Add("Alice", "DNI1", "555-0100")
	require.NoError(t, err)

	_, err = desk.Members.Add("Impostor", "DNI1", "555-0199")
	assert.ErrorIs(t, err, ErrConflict)

	// Exactly one row with that DNI, and it is the original.
	got, err := desk.Members.ByDNI("DNI1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)

	list, err := desk.Members.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemberLookups(t *testing.T) {
	desk := tempDesk(t)

	m, err := desk.Members.Add("Alice", "DNI1", "555-0100")
	require.NoError(t, err)

	byID, err := desk.Members.ByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "DNI1", byID.DNI)

	_, err = desk.Members.ByID(99999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = desk.Members.ByDNI("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMemberKeepsDNI(t *testing.T) {
	desk := tempDesk(t)

	m, _ := desk.Members.Add("Alice", "DNI1", "555-0100")

	require.NoError(t, desk.Members.Update(m.ID, "Alice Cooper", "555-0200"))

	got, err := desk.Members.ByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", got.Name)
	assert.Equal(t, "555-0200", got.Phone)
	assert.Equal(t, "DNI1", got.DNI)

	assert.ErrorIs(t, desk.Members.Update(99999, "X", ""), ErrNotFound)
}

func TestListCountsActiveLoans(t *testing.T) {
	desk := tempDesk(t)

	alice, _ := desk.Members.Add("Alice", "DNI1", "")
	bob, _ := desk.Members.Add("Bob", "DNI2", "")
	b1, _ := desk.Catalog.Add("B1", "A", "111", "")
	b2, _ := desk.Catalog.Add("B2", "A", "222", "")

	desk.Loans.Lend(alice.ID, b1.ID)
	loan2, _ := desk.Loans.Lend(alice.ID, b2.ID)

	list, err := desk.Members.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Ordered by name: Alice, Bob.
	assert.Equal(t, alice.ID, list[0].ID)
	assert.Equal(t, 2, list[0].ActiveLoans)
	assert.Equal(t, bob.ID, list[1].ID)
	assert.Equal(t, 0, list[1].ActiveLoans)

	// Counts are read-time, not cached.
	desk.Loans.Return(loan2.ID)
	list, err = desk.Members.List()
	require.NoError(t, err)
	assert.Equal(t, 1, list[0].ActiveLoans)
}

func TestDeleteMemberGuard(t *testing.T) {
	desk := tempDesk(t)

	m, _ := desk.Members.Add("Alice", "DNI1", "")
	b, _ := desk.Catalog.Add("B", "A", "111", "")

	loan, err := desk.Loans.Lend(m.ID, b.ID)
	require.NoError(t, err)

	err = desk.Members.Delete(m.ID)
	assert.ErrorIs(t, err, ErrRejected)
	// The member row survives the rejected delete.
	_, err = desk.Members.ByID(m.ID)
	require.NoError(t, err)

	_, err = desk.Loans.Return(loan.ID)
	require.NoError(t, err)

	require.NoError(t, desk.Members.Delete(m.ID))
	assert.ErrorIs(t, desk.Members.Delete(m.ID), ErrNotFound)
}
