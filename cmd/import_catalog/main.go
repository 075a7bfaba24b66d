package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"library-ledger/library"
)

// Imports books into the catalog from a CSV file with columns
// title,author,isbn,category. Rows whose ISBN already exists are skipped.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: import_catalog <books.csv> [db path]")
		os.Exit(1)
	}
	csvPath := os.Args[1]
	dbPath := "library.db"
	if len(os.Args) > 2 {
		dbPath = os.Args[2]
	}

	desk, err := library.OpenDesk(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer desk.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 4

	successCount := 0
	skippedCount := 0
	errorCount := 0

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("Line %d: ERROR - %v\n", line, err)
			errorCount++
			continue
		}

		title, author, isbn, category := record[0], record[1], record[2], record[3]
		fmt.Printf("Importing: %s by %s... ", title, author)

		book, err := desk.Catalog.Add(title, author, isbn, category)
		if errors.Is(err, library.ErrConflict) {
			fmt.Printf("SKIPPED - ISBN %s already cataloged\n", isbn)
			skippedCount++
			continue
		}
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %d)\n", book.ID)
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Skipped (duplicate ISBN): %d\n", skippedCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
