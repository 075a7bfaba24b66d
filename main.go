package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"library-ledger/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "library-ledger",
		Short: "Librarian desk for cataloging books, registering members and tracking loans",
		RunE:  runDesk,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "library.db", "path to the SQLite database")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func promptLine(sc *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func promptID(sc *bufio.Scanner, prompt string) (int64, bool) {
	raw, ok := promptLine(sc, prompt)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Printf("Invalid ID: %s\n", raw)
		return 0, false
	}
	return id, true
}

func runDesk(cmd *cobra.Command, args []string) error {
	desk, err := library.OpenDesk(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer desk.Close()

	scanner := bufio.NewScanner(os.Stdin)

	librarian, err := gate(scanner, desk)
	if err != nil {
		return err
	}
	fmt.Printf("\nWelcome, %s.\n", librarian.Name)
	printHelp()

	for {
		cmdLine, ok := promptLine(scanner, "\n> ")
		if !ok {
			return nil
		}
		switch cmdLine {
		case "add book":
			handleAddBook(scanner, desk)
		case "list books":
			handleListBooks(desk)
		case "find book":
			handleFindBook(scanner, desk)
		case "update book":
			handleUpdateBook(scanner, desk)
		case "delete book":
			handleDeleteBook(scanner, desk)
		case "add member":
			handleAddMember(scanner, desk)
		case "list members":
			handleListMembers(desk)
		case "update member":
			handleUpdateMember(scanner, desk)
		case "delete member":
			handleDeleteMember(scanner, desk)
		case "lend":
			handleLend(scanner, desk)
		case "return":
			handleReturn(scanner, desk)
		case "active loans":
			handleActiveLoans(desk)
		case "status":
			handleStatus(desk)
		case "help":
			printHelp()
		case "exit":
			fmt.Println("Goodbye!")
			return nil
		default:
			fmt.Println("Unknown command. Type 'help' for the list of commands.")
		}
	}
}

// gate offers registration on a fresh database and login afterwards. Only
// the very first start registers through this path.
func gate(sc *bufio.Scanner, desk *library.Desk) (library.Librarian, error) {
	required, err := desk.Librarians.BootstrapRequired()
	if err != nil {
		return library.Librarian{}, err
	}

	if required {
		fmt.Println("No librarian registered yet. Create the first account.")
		name, ok := promptLine(sc, "Name: ")
		if !ok {
			return library.Librarian{}, errors.New("registration aborted")
		}
		email, ok := promptLine(sc, "Email: ")
		if !ok {
			return library.Librarian{}, errors.New("registration aborted")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return library.Librarian{}, fmt.Errorf("read password: %w", err)
		}
		if password == "" {
			return library.Librarian{}, errors.New("password cannot be empty")
		}
		return desk.Librarians.Register(name, email, password)
	}

	for attempts := 0; attempts < 3; attempts++ {
		email, ok := promptLine(sc, "Email: ")
		if !ok {
			return library.Librarian{}, errors.New("login aborted")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return library.Librarian{}, fmt.Errorf("read password: %w", err)
		}
		librarian, err := desk.Librarians.Authenticate(email, password)
		if errors.Is(err, library.ErrUnauthenticated) {
			fmt.Println("Invalid credentials, try again.")
			continue
		}
		if err != nil {
			return library.Librarian{}, err
		}
		return librarian, nil
	}
	return library.Librarian{}, errors.New("too many failed login attempts")
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  Books:   add book, list books, find book, update book, delete book")
	fmt.Println("  Members: add member, list members, update member, delete member")
	fmt.Println("  Loans:   lend, return, active loans")
	fmt.Println("  System:  status, help, exit")
}

func handleAddBook(sc *bufio.Scanner, desk *library.Desk) {
	title, ok := promptLine(sc, "Title: ")
	if !ok {
		return
	}
	author, ok := promptLine(sc, "Author: ")
	if !ok {
		return
	}
	isbn, ok := promptLine(sc, "ISBN: ")
	if !ok {
		return
	}
	category, ok := promptLine(sc, "Category: ")
	if !ok {
		return
	}

	book, err := desk.Catalog.Add(title, author, isbn, category)
	if errors.Is(err, library.ErrConflict) {
		fmt.Printf("A book with ISBN %s already exists.\n", isbn)
		return
	}
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Added book '%s' with ID %d\n", book.Title, book.ID)
}

func handleListBooks(desk *library.Desk) {
	books, err := desk.Catalog.Books()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		fmt.Println("No books in the catalog.")
		return
	}
	fmt.Printf("%-5s %-30s %-25s %-15s %-15s %s\n", "ID", "Title", "Author", "ISBN", "Category", "Available")
	fmt.Println(strings.Repeat("-", 100))
	for _, b := range books {
		fmt.Println(library.PrettyBook(b))
	}
}

func handleFindBook(sc *bufio.Scanner, desk *library.Desk) {
	isbn, ok := promptLine(sc, "ISBN: ")
	if !ok {
		return
	}
	b, err := desk.Catalog.BookByISBN(isbn)
	if errors.Is(err, library.ErrNotFound) {
		fmt.Printf("No book with ISBN %s.\n", isbn)
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(library.PrettyBook(b))
}

func handleUpdateBook(sc *bufio.Scanner, desk *library.Desk) {
	id, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	current, err := desk.Catalog.BookByID(id)
	if errors.Is(err, library.ErrNotFound) {
		fmt.Printf("No book with ID %d.\n", id)
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	title, ok := promptLine(sc, fmt.Sprintf("Title [%s]: ", current.Title))
	if !ok {
		return
	}
	if title == "" {
		title = current.Title
	}
	author, ok := promptLine(sc, fmt.Sprintf("Author [%s]: ", current.Author))
	if !ok {
		return
	}
	if author == "" {
		author = current.Author
	}
	category, ok := promptLine(sc, fmt.Sprintf("Category [%s]: ", current.Category))
	if !ok {
		return
	}
	if category == "" {
		category = current.Category
	}

	// ISBN stays fixed once cataloged.
	err = desk.Catalog.Update(id, title, author, current.ISBN, category)
	if err != nil {
		fmt.Printf("Error updating book: %v\n", err)
		return
	}
	fmt.Printf("Updated book %d\n", id)
}

func handleDeleteBook(sc *bufio.Scanner, desk *library.Desk) {
	id, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	confirm, ok := promptLine(sc, "Delete this book? [y/N]: ")
	if !ok || !strings.EqualFold(confirm, "y") {
		fmt.Println("Cancelled.")
		return
	}

	err := desk.Catalog.Delete(id)
	switch {
	case errors.Is(err, library.ErrRejected):
		fmt.Println("The book is on loan and cannot be deleted.")
	case errors.Is(err, library.ErrNotFound):
		fmt.Printf("No book with ID %d.\n", id)
	case err != nil:
		fmt.Printf("Error deleting book: %v\n", err)
	default:
		fmt.Printf("Deleted book %d\n", id)
	}
}

func handleAddMember(sc *bufio.Scanner, desk *library.Desk) {
	name, ok := promptLine(sc, "Name: ")
	if !ok {
		return
	}
	dni, ok := promptLine(sc, "DNI: ")
	if !ok {
		return
	}
	phone, ok := promptLine(sc, "Phone: ")
	if !ok {
		return
	}

	member, err := desk.Members.Add(name, dni, phone)
	if errors.Is(err, library.ErrConflict) {
		fmt.Printf("A member with DNI %s already exists.\n", dni)
		return
	}
	if err != nil {
		fmt.Printf("Error adding member: %v\n", err)
		return
	}
	fmt.Printf("Registered member '%s' with ID %d\n", member.Name, member.ID)
}

func handleListMembers(desk *library.Desk) {
	members, err := desk.Members.List()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(members) == 0 {
		fmt.Println("No members registered.")
		return
	}
	fmt.Printf("%-5s %-30s %-15s %-15s %s\n", "ID", "Name", "DNI", "Phone", "Open Loans")
	fmt.Println(strings.Repeat("-", 80))
	for _, m := range members {
		fmt.Printf("%-5d %-30s %-15s %-15s %d\n", m.ID, m.Name, m.DNI, m.Phone, m.ActiveLoans)
	}
}

func handleUpdateMember(sc *bufio.Scanner, desk *library.Desk) {
	id, ok := promptID(sc, "Member ID: ")
	if !ok {
		return
	}
	current, err := desk.Members.ByID(id)
	if errors.Is(err, library.ErrNotFound) {
		fmt.Printf("No member with ID %d.\n", id)
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	name, ok := promptLine(sc, fmt.Sprintf("Name [%s]: ", current.Name))
	if !ok {
		return
	}
	if name == "" {
		name = current.Name
	}
	phone, ok := promptLine(sc, fmt.Sprintf("Phone [%s]: ", current.Phone))
	if !ok {
		return
	}
	if phone == "" {
		phone = current.Phone
	}

	if err := desk.Members.Update(id, name, phone); err != nil {
		fmt.Printf("Error updating member: %v\n", err)
		return
	}
	fmt.Printf("Updated member %d\n", id)
}

func handleDeleteMember(sc *bufio.Scanner, desk *library.Desk) {
	id, ok := promptID(sc, "Member ID: ")
	if !ok {
		return
	}
	confirm, ok := promptLine(sc, "Delete this member? [y/N]: ")
	if !ok || !strings.EqualFold(confirm, "y") {
		fmt.Println("Cancelled.")
		return
	}

	err := desk.Members.Delete(id)
	switch {
	case errors.Is(err, library.ErrRejected):
		fmt.Println("The member has open loans and cannot be deleted.")
	case errors.Is(err, library.ErrNotFound):
		fmt.Printf("No member with ID %d.\n", id)
	case err != nil:
		fmt.Printf("Error deleting member: %v\n", err)
	default:
		fmt.Printf("Deleted member %d\n", id)
	}
}

func handleLend(sc *bufio.Scanner, desk *library.Desk) {
	memberID, ok := promptID(sc, "Member ID: ")
	if !ok {
		return
	}
	bookID, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}

	loan, err := desk.Loans.Lend(memberID, bookID)
	switch {
	case errors.Is(err, library.ErrRejected):
		fmt.Println("The book is already on loan.")
	case errors.Is(err, library.ErrNotFound):
		fmt.Printf("Cannot lend: %v\n", err)
	case err != nil:
		fmt.Printf("Error registering loan: %v\n", err)
	default:
		fmt.Printf("Loan %d registered on %s\n", loan.ID, loan.LoanDate)
	}
}

func handleReturn(sc *bufio.Scanner, desk *library.Desk) {
	loanID, ok := promptID(sc, "Loan ID: ")
	if !ok {
		return
	}

	loan, err := desk.Loans.Return(loanID)
	switch {
	case errors.Is(err, library.ErrRejected):
		fmt.Println("That loan was already returned.")
	case errors.Is(err, library.ErrNotFound):
		fmt.Printf("No loan with ID %d.\n", loanID)
	case err != nil:
		fmt.Printf("Error registering return: %v\n", err)
	default:
		fmt.Printf("Loan %d closed on %s; book %d is available again\n",
			loan.ID, loan.ReturnDate.String, loan.BookID)
	}
}

func handleActiveLoans(desk *library.Desk) {
	loans, err := desk.Loans.Active()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(loans) == 0 {
		fmt.Println("No active loans.")
		return
	}
	fmt.Printf("%-5s %-30s %-25s %-15s %-12s %s\n", "ID", "Book", "Member", "DNI", "Loan Date", "Book ID")
	fmt.Println(strings.Repeat("-", 100))
	for _, l := range loans {
		fmt.Printf("%-5d %-30s %-25s %-15s %-12s %d\n",
			l.LoanID, l.BookTitle, l.MemberName, l.MemberDNI, l.LoanDate, l.BookID)
	}
}

func handleStatus(desk *library.Desk) {
	books, err := desk.Catalog.Books()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	onLoan, err := desk.Catalog.OnLoanCount()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	members, err := desk.Members.List()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Books: %d (%d on loan, %d on shelf)\n", len(books), onLoan, len(books)-onLoan)
	fmt.Printf("Members: %d\n", len(members))
}
