package library

import "fmt"

// Desk is a thin facade over the store's components, keeping CLI code
// simple. The ledger is the only path that touches availability; catalog
// and members never do.
type Desk struct {
	store *Store

	Catalog    *Catalog
	Members    *Members
	Loans      *Ledger
	Librarians *Librarians
}

// OpenDesk opens (or creates) the SQLite database at dbPath and wires the
// components to the shared handle.
func OpenDesk(dbPath string) (*Desk, error) {
	store, err := OpenStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &Desk{
		store:      store,
		Catalog:    &Catalog{db: store.db},
		Members:    &Members{db: store.db},
		Loans:      &Ledger{db: store.db},
		Librarians: &Librarians{db: store.db},
	}, nil
}

// Close closes the underlying database.
func (d *Desk) Close() error { return d.store.Close() }

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	avail := "yes"
	if !b.Available {
		avail = "no"
	}
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %-15s %s", b.ID, b.Title, b.Author, b.ISBN, b.Category, avail)
}
